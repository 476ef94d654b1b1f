package layer

import (
	"fmt"
	"sync"
	"sync/atomic"

	"Chirpnet/pkg/logger"
	"Chirpnet/pkg/modem"
	"Chirpnet/pkg/protocol"
)

const DefaultSubsamplingFactor = 9

type State int32

const (
	Idle State = iota
	Accumulating
	Decoded
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Accumulating:
		return "accumulating"
	case Decoded:
		return "decoded"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type ReceiverConfig struct {
	Params            *protocol.Params
	SubsamplingFactor int // estimates per symbol, 0 means DefaultSubsamplingFactor

	// IgnoreSelf drops estimates while Status reports a transmission in
	// progress. By default a node hears its own transmissions.
	IgnoreSelf bool
	Status     *Status

	Detector modem.Detector // Params is filled in when unset

	// OnMessage runs on the goroutine calling OnEstimate and must not call
	// back into the Receiver.
	OnMessage func(message string)
	Buffer   int // capacity of the Messages channel, 0 means 16
	Observer Observer
	Logger   *logger.Logger
}

// Receiver recovers messages from a stream of pitch estimates. It keeps
// the last SubsamplingFactor * EncodedLength estimates and retries a
// decode on every new one, so no frame synchronization is needed.
//
// OnEstimate must be called from a single goroutine.
type Receiver struct {
	params      *protocol.Params
	codec       *modem.FrameCodec
	detector    modem.Detector
	subsampling int
	ignoreSelf  bool
	status      *Status

	onMessage func(string)
	messages  chan string
	observer  Observer
	log       *logger.Logger

	state atomic.Int32

	mu          sync.Mutex
	closed      bool
	window      *estimateWindow
	pitches     []float64
	confidences []float64
	accumulated []byte
}

func NewReceiver(cfg ReceiverConfig) (*Receiver, error) {
	if cfg.Params == nil {
		return nil, fmt.Errorf("%w: receiver needs protocol parameters", protocol.ErrInvalidConfig)
	}
	subsampling := cfg.SubsamplingFactor
	if subsampling == 0 {
		subsampling = DefaultSubsamplingFactor
	}
	if subsampling < 0 {
		return nil, fmt.Errorf("%w: subsampling factor %d", protocol.ErrInvalidConfig, subsampling)
	}
	status := cfg.Status
	if status == nil {
		status = &Status{}
	}
	detector := cfg.Detector
	if detector.Params == nil {
		detector.Params = cfg.Params
	}
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = 16
	}
	observer := cfg.Observer
	if observer == nil {
		observer = NopObserver{}
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	size := subsampling * cfg.Params.EncodedLength()
	return &Receiver{
		params:      cfg.Params,
		codec:       modem.NewFrameCodec(cfg.Params),
		detector:    detector,
		subsampling: subsampling,
		ignoreSelf:  cfg.IgnoreSelf,
		status:      status,
		onMessage:   cfg.OnMessage,
		messages:    make(chan string, buffer),
		observer:    observer,
		log:         log.WithComponent("reception"),
		window:      newEstimateWindow(size),
		pitches:     make([]float64, size),
		confidences: make([]float64, size),
		accumulated: make([]byte, 0, cfg.Params.EncodedLength()),
	}, nil
}

func (r *Receiver) State() State { return State(r.state.Load()) }

func (r *Receiver) Status() *Status { return r.status }

// Messages delivers decoded payloads. Messages are dropped when nobody
// drains it. The channel is closed by Close.
func (r *Receiver) Messages() <-chan string { return r.messages }

// OnEstimate consumes one pitch estimate. pitch is protocol.NoSignal when
// the analysis frame held no tone.
func (r *Receiver) OnEstimate(pitch, confidence float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	if r.ignoreSelf && r.status.Transmitting() {
		r.observer.EstimateDiscarded()
		return
	}

	r.window.push(pitch, confidence)
	r.scan()
}

func (r *Receiver) scan() {
	r.window.copyTo(r.pitches, r.confidences)

	n := r.params.EncodedLength()
	r.accumulated = r.accumulated[:0]
	for offset := 0; offset+r.subsampling <= len(r.pitches) && len(r.accumulated) < n; offset += r.subsampling {
		if c, ok := r.detector.Detect(r.pitches, r.confidences, offset, r.subsampling); ok {
			r.accumulated = append(r.accumulated, c)
		}
	}

	if len(r.accumulated) == 0 {
		r.state.Store(int32(Idle))
		return
	}
	r.state.Store(int32(Accumulating))
	if len(r.accumulated) < n {
		return
	}

	message, outcome := r.codec.DecodeText(string(r.accumulated))
	r.observer.FrameDecoded(outcome)
	if outcome != modem.Addressed {
		r.log.Debug("frame dropped", logger.String("received", string(r.accumulated)), logger.String("outcome", outcome.String()))
		return
	}

	r.state.Store(int32(Decoded))
	r.log.Info("Rx", logger.String("message", message))
	r.deliver(message)

	// the same estimates would decode again on the next push
	r.window.reset()
	r.state.Store(int32(Idle))
}

func (r *Receiver) deliver(message string) {
	r.observer.MessageReceived(message)
	if r.onMessage != nil {
		r.onMessage(message)
	}
	select {
	case r.messages <- message:
	default:
		r.log.Warn("message channel full, dropping", logger.String("message", message))
	}
}

// Reset forgets every buffered estimate.
func (r *Receiver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.window.reset()
	r.state.Store(int32(Idle))
}

// Close stops the receiver. It waits for an OnEstimate in progress; later
// calls are ignored.
func (r *Receiver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	r.closed = true
	close(r.messages)
	return nil
}
