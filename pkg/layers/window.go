package layer

import "Chirpnet/pkg/protocol"

// estimateWindow is a fixed-capacity FIFO of (pitch, confidence) pairs.
// Pushing into a full window evicts the oldest pair.
type estimateWindow struct {
	pitches     []float64
	confidences []float64
	head        int // index of the oldest pair
}

func newEstimateWindow(size int) *estimateWindow {
	w := &estimateWindow{
		pitches:     make([]float64, size),
		confidences: make([]float64, size),
	}
	w.reset()
	return w
}

func (w *estimateWindow) len() int { return len(w.pitches) }

func (w *estimateWindow) push(pitch, confidence float64) {
	w.pitches[w.head] = pitch
	w.confidences[w.head] = confidence
	w.head = (w.head + 1) % len(w.pitches)
}

// reset fills the window with silence.
func (w *estimateWindow) reset() {
	for i := range w.pitches {
		w.pitches[i] = protocol.NoSignal
		w.confidences[i] = 0
	}
	w.head = 0
}

// copyTo writes the window oldest first into pitches and confidences.
func (w *estimateWindow) copyTo(pitches, confidences []float64) {
	n := copy(pitches, w.pitches[w.head:])
	copy(pitches[n:], w.pitches[:w.head])
	n = copy(confidences, w.confidences[w.head:])
	copy(confidences[n:], w.confidences[:w.head])
}
