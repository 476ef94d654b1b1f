package callbacks

import "sync"

type track struct {
	samples []int32
	idx     int
	done    chan struct{}
}

// Player queues tracks for a device output callback and plays them back to
// back, filling the gaps with silence.
type Player struct {
	mu      sync.Mutex
	queue   []*track
	current *track
}

// Enqueue schedules samples. The returned channel is closed once the last
// sample has been handed to the device, or when the track is canceled.
// Handing over is not hearing: the device still holds up to one output
// buffer of the track, plus its own output latency, after done closes.
func (p *Player) Enqueue(samples []int32) <-chan struct{} {
	t := &track{samples: samples, done: make(chan struct{})}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = append(p.queue, t)
	return t.done
}

// Cancel drops the track behind done, whether queued or playing.
func (p *Player) Cancel(done <-chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil && p.current.done == done {
		close(p.current.done)
		p.current = nil
		return
	}
	for i, t := range p.queue {
		if t.done == done {
			close(t.done)
			p.queue = append(p.queue[:i], p.queue[i+1:]...)
			return
		}
	}
}

// Playing reports whether a track is queued or in progress.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil || len(p.queue) > 0
}

func (p *Player) Update(out []int32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := 0
	for i < len(out) {
		if p.current == nil {
			if len(p.queue) == 0 {
				break
			}
			p.current = p.queue[0]
			p.queue = p.queue[1:]
		}
		n := copy(out[i:], p.current.samples[p.current.idx:])
		p.current.idx += n
		i += n
		if p.current.idx == len(p.current.samples) {
			close(p.current.done)
			p.current = nil
		}
	}
	for ; i < len(out); i++ {
		out[i] = 0
	}
}
