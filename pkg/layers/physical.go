package layer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"Chirpnet/internel/callbacks"
	"Chirpnet/pkg/async"
	"Chirpnet/pkg/device"
	"Chirpnet/pkg/logger"
	"Chirpnet/pkg/modem"
	"Chirpnet/pkg/pitch"
	"Chirpnet/pkg/protocol"
)

const DefaultCaptureBuffers = 8

type PhysicalLayerConfig struct {
	Device     device.Device
	SampleRate int

	// Receiver gets one estimate per analysis frame. It may be nil for a
	// node that only transmits.
	Receiver *Receiver

	// Estimator defaults to one frame of SamplesPerSymbol / SubsamplingFactor.
	Estimator *pitch.Estimator

	CaptureBuffers int                 // device buffers queued for analysis, 0 means DefaultCaptureBuffers
	Recorder       *callbacks.Recorder // keeps the captured audio when set

	// Lossless makes the device callback wait for analysis instead of
	// dropping a buffer when CaptureBuffers are queued. Only simulated
	// devices without a real-time clock should set it.
	Lossless bool

	Observer Observer // told about dropped capture buffers
	Logger   *logger.Logger
}

// PhysicalLayer connects a Device to a Receiver and serves as the playback
// Sink of a Transmitter. Capture analysis runs on its own goroutine, so
// playback never waits for pitch estimation.
type PhysicalLayer struct {
	device    device.Device
	receiver  *Receiver
	estimator *pitch.Estimator
	framer    *pitch.Framer
	recorder  *callbacks.Recorder
	lossless  bool
	observer  Observer
	log       *logger.Logger

	player   callbacks.Player
	input    chan []int32
	done     chan struct{}
	captured <-chan struct{}
	once     sync.Once
	overruns atomic.Uint64
}

func NewPhysicalLayer(cfg PhysicalLayerConfig) (*PhysicalLayer, error) {
	if cfg.Device == nil {
		return nil, fmt.Errorf("%w: physical layer needs a device", protocol.ErrInvalidConfig)
	}
	estimator := cfg.Estimator
	if estimator == nil && cfg.Receiver != nil {
		if cfg.SampleRate <= 0 {
			return nil, fmt.Errorf("%w: sample rate %d", protocol.ErrInvalidConfig, cfg.SampleRate)
		}
		size := pitch.AnalysisFrameSize(cfg.Receiver.params.SamplesPerSymbol(cfg.SampleRate), cfg.Receiver.subsampling)
		estimator = pitch.NewEstimator(cfg.SampleRate, size)
	}
	buffers := cfg.CaptureBuffers
	if buffers <= 0 {
		buffers = DefaultCaptureBuffers
	}
	observer := cfg.Observer
	if observer == nil {
		observer = NopObserver{}
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	p := &PhysicalLayer{
		device:    cfg.Device,
		receiver:  cfg.Receiver,
		estimator: estimator,
		recorder:  cfg.Recorder,
		lossless:  cfg.Lossless,
		observer:  observer,
		log:       log.WithComponent("physical"),
		input:     make(chan []int32, buffers),
		done:      make(chan struct{}),
	}
	if estimator != nil {
		p.framer = pitch.NewFramer(estimator.FrameSize())
	}
	return p, nil
}

func (p *PhysicalLayer) Open() error {
	p.captured = async.Job(p.capture)
	if err := p.device.Start(p.callback); err != nil {
		p.once.Do(func() { close(p.done) })
		<-p.captured
		return fmt.Errorf("start device: %w", err)
	}
	p.log.Debug("device started")
	return nil
}

// Close stops the device and the analysis goroutine. Queued playback is
// abandoned.
func (p *PhysicalLayer) Close() error {
	err := ErrClosed
	p.once.Do(func() {
		close(p.done)
		err = p.device.Stop()
		if p.captured != nil {
			<-p.captured
		}
		p.log.Debug("device stopped")
	})
	return err
}

// Play queues pcm on the device output and waits until the device has taken
// its last sample. The tail may still be sounding when Play returns.
func (p *PhysicalLayer) Play(ctx context.Context, pcm []byte) error {
	done := p.player.Enqueue(modem.PCM16ToInt32(pcm))
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		p.player.Cancel(done)
		return ctx.Err()
	case <-p.done:
		p.player.Cancel(done)
		return ErrClosed
	}
}

func (p *PhysicalLayer) callback(in, out []int32) {
	if p.recorder != nil {
		p.recorder.Update(in)
	}
	if p.receiver != nil {
		inCopy := make([]int32, len(in))
		copy(inCopy, in)
		if p.lossless {
			select {
			case p.input <- inCopy:
			case <-p.done:
			}
		} else {
			select {
			case p.input <- inCopy:
			default:
				p.overruns.Add(1)
				p.observer.CaptureOverrun()
			}
		}
	}
	p.player.Update(out)
}

// Overruns counts capture buffers dropped because analysis fell behind.
func (p *PhysicalLayer) Overruns() uint64 { return p.overruns.Load() }

// capture is the only goroutine feeding the Receiver.
func (p *PhysicalLayer) capture() {
	for {
		select {
		case <-p.done:
			return
		case in := <-p.input:
			p.framer.Push(modem.Int32ToFloat64(in), func(frame []float64) {
				est := p.estimator.Estimate(frame)
				p.receiver.OnEstimate(est.Pitch, est.Confidence)
			})
		}
	}
}
