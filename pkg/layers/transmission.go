package layer

import (
	"context"
	"fmt"
	"time"

	"Chirpnet/pkg/async"
	"Chirpnet/pkg/logger"
	"Chirpnet/pkg/modem"
	"Chirpnet/pkg/protocol"
)

type TransmitterConfig struct {
	Params     *protocol.Params
	SampleRate int
	Sink       Sink

	// Status is shared with the Receiver that should not hear this node.
	Status *Status

	Modulator modem.Modulator // Params and SampleRate are filled in when unset
	Observer  Observer
	Logger    *logger.Logger
}

// Transmitter plays one message at a time. A Send while another is in
// flight fails with ErrBusy instead of queueing.
type Transmitter struct {
	codec     *modem.FrameCodec
	modulator modem.Modulator
	sink      Sink
	status    *Status
	observer  Observer
	log       *logger.Logger
}

func NewTransmitter(cfg TransmitterConfig) (*Transmitter, error) {
	if cfg.Params == nil {
		return nil, fmt.Errorf("%w: transmitter needs protocol parameters", protocol.ErrInvalidConfig)
	}
	if cfg.Sink == nil {
		return nil, fmt.Errorf("%w: transmitter needs a sink", protocol.ErrInvalidConfig)
	}
	modulator := cfg.Modulator
	if modulator.Params == nil {
		modulator.Params = cfg.Params
	}
	if modulator.SampleRate == 0 {
		modulator.SampleRate = cfg.SampleRate
	}
	if modulator.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", protocol.ErrInvalidConfig, modulator.SampleRate)
	}
	status := cfg.Status
	if status == nil {
		status = &Status{}
	}
	observer := cfg.Observer
	if observer == nil {
		observer = NopObserver{}
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	return &Transmitter{
		codec:     modem.NewFrameCodec(cfg.Params),
		modulator: modulator,
		sink:      cfg.Sink,
		status:    status,
		observer:  observer,
		log:       log.WithComponent("transmission"),
	}, nil
}

func (t *Transmitter) Transmitting() bool { return t.status.Transmitting() }

func (t *Transmitter) Status() *Status { return t.status }

// Send synthesizes message and blocks until the sink has played it.
func (t *Transmitter) Send(ctx context.Context, message string) error {
	symbols, err := t.begin(message)
	if err != nil {
		return err
	}
	return t.play(ctx, message, symbols)
}

// SendAsync validates message and claims the transmitter before returning;
// playback then runs on its own goroutine. The channel yields the result.
func (t *Transmitter) SendAsync(ctx context.Context, message string) <-chan error {
	symbols, err := t.begin(message)
	if err != nil {
		done := make(chan error, 1)
		done <- err
		return done
	}
	return async.Promise(func() error {
		return t.play(ctx, message, symbols)
	})
}

func (t *Transmitter) begin(message string) ([]int, error) {
	frame, err := t.codec.Encode(message)
	if err != nil {
		t.observer.SendFailed(message, err)
		return nil, err
	}
	if !t.status.begin() {
		t.observer.SendFailed(message, ErrBusy)
		return nil, ErrBusy
	}
	return t.codec.Compact(frame), nil
}

func (t *Transmitter) play(ctx context.Context, message string, symbols []int) error {
	defer t.status.end()

	start := time.Now()
	pcm := t.modulator.Modulate(symbols)
	if err := t.sink.Play(ctx, pcm); err != nil {
		t.log.Error("playback failed", logger.String("message", message), logger.Error(err))
		t.observer.SendFailed(message, err)
		return fmt.Errorf("play %q: %w", message, err)
	}
	elapsed := time.Since(start)
	t.log.Info("Tx", logger.String("message", message), logger.Duration("elapsed", elapsed))
	t.observer.MessageSent(message, elapsed)
	return nil
}
