package layer

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"Chirpnet/pkg/modem"
)

var (
	ErrBusy   = errors.New("transmission already in progress")
	ErrClosed = errors.New("session closed")
)

// Sink plays little-endian 16-bit mono PCM and returns once it has been played.
type Sink interface {
	Play(ctx context.Context, pcm []byte) error
}

// Status carries the transmitting flag a Transmitter raises and a Receiver
// checks on every estimate.
type Status struct {
	transmitting atomic.Bool
}

func (s *Status) Transmitting() bool { return s.transmitting.Load() }

func (s *Status) begin() bool { return s.transmitting.CompareAndSwap(false, true) }
func (s *Status) end()        { s.transmitting.Store(false) }

// Observer is told about session events. Implementations must not block
// and must not call back into the session.
type Observer interface {
	EstimateDiscarded()
	CaptureOverrun()
	FrameDecoded(outcome modem.Outcome)
	MessageReceived(message string)
	MessageSent(message string, elapsed time.Duration)
	SendFailed(message string, err error)
}

// NopObserver ignores every event. Embed it to implement part of Observer.
type NopObserver struct{}

func (NopObserver) EstimateDiscarded()                {}
func (NopObserver) CaptureOverrun()                   {}
func (NopObserver) FrameDecoded(modem.Outcome)        {}
func (NopObserver) MessageReceived(string)            {}
func (NopObserver) MessageSent(string, time.Duration) {}
func (NopObserver) SendFailed(string, error)          {}

// Observers fans every event out in order.
type Observers []Observer

func (o Observers) EstimateDiscarded() {
	for _, ob := range o {
		ob.EstimateDiscarded()
	}
}

func (o Observers) CaptureOverrun() {
	for _, ob := range o {
		ob.CaptureOverrun()
	}
}

func (o Observers) FrameDecoded(outcome modem.Outcome) {
	for _, ob := range o {
		ob.FrameDecoded(outcome)
	}
}

func (o Observers) MessageReceived(message string) {
	for _, ob := range o {
		ob.MessageReceived(message)
	}
}

func (o Observers) MessageSent(message string, elapsed time.Duration) {
	for _, ob := range o {
		ob.MessageSent(message, elapsed)
	}
}

func (o Observers) SendFailed(message string, err error) {
	for _, ob := range o {
		ob.SendFailed(message, err)
	}
}
