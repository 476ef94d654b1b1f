package device

import "time"

// Loopback feeds every output buffer back as the next input buffer.
type Loopback struct {
	SampleRate float64 // the fake sample rate, 0 means no limit
	done       chan struct{}
	stopped    chan struct{}
}

func (d *Loopback) Start(callback func(in, out []int32)) error {
	d.done = make(chan struct{})
	d.stopped = make(chan struct{})
	go func() {
		defer close(d.stopped)

		buf := [2][]int32{alloci32(BufferSize), alloci32(BufferSize)}
		swap := false
		update := func() {
			if swap {
				callback(buf[1], buf[0])
			} else {
				callback(buf[0], buf[1])
			}
			swap = !swap
		}

		if d.SampleRate == 0 {
			for {
				select {
				case <-d.done:
					return
				default:
					update()
				}
			}
		}

		ticker := time.NewTicker(bufferPeriod(d.SampleRate))
		defer ticker.Stop()
		for {
			select {
			case <-d.done:
				return
			case <-ticker.C:
				update()
			}
		}
	}()
	return nil
}

func (d *Loopback) Stop() error {
	close(d.done)
	<-d.stopped
	return nil
}
