package pitch

// Framer cuts a sample stream into consecutive analysis frames.
type Framer struct {
	size   int
	buffer []float64
}

func NewFramer(size int) *Framer {
	return &Framer{size: size, buffer: make([]float64, 0, size)}
}

func (f *Framer) Size() int { return f.size }

// Push appends samples and calls emit for every completed frame. The frame
// passed to emit is only valid during the call.
func (f *Framer) Push(samples []float64, emit func(frame []float64)) {
	for len(samples) > 0 {
		n := min(f.size-len(f.buffer), len(samples))
		f.buffer = append(f.buffer, samples[:n]...)
		samples = samples[n:]
		if len(f.buffer) == f.size {
			emit(f.buffer)
			f.buffer = f.buffer[:0]
		}
	}
}

// Reset drops a partially filled frame.
func (f *Framer) Reset() {
	f.buffer = f.buffer[:0]
}

// AnalysisFrameSize splits one symbol into subsampling frames, so that a
// symbol spans subsampling estimates.
func AnalysisFrameSize(samplesPerSymbol, subsampling int) int {
	if subsampling <= 0 {
		return samplesPerSymbol
	}
	return samplesPerSymbol / subsampling
}
