package callbacks

import "sync"

// Recorder keeps a copy of everything a device captured.
type Recorder struct {
	mu    sync.Mutex
	track []int32
}

func (r *Recorder) Update(in []int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.track = append(r.track, in...)
}

func (r *Recorder) Track() []int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int32, len(r.track))
	copy(out, r.track)
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.track = r.track[:0]
}
