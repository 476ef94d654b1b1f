package layer

import (
	"context"
	"sync"
	"time"

	"Chirpnet/pkg/logger"
	"Chirpnet/pkg/modem"
	"Chirpnet/pkg/protocol"
)

type recordingObserver struct {
	mu        sync.Mutex
	discarded int
	overruns  int
	outcomes  map[modem.Outcome]int
	received  []string
	sent      []string
	failed    []error
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{outcomes: make(map[modem.Outcome]int)}
}

func (o *recordingObserver) EstimateDiscarded() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.discarded++
}

func (o *recordingObserver) CaptureOverrun() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.overruns++
}

func (o *recordingObserver) FrameDecoded(outcome modem.Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes[outcome]++
}

func (o *recordingObserver) MessageReceived(message string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.received = append(o.received, message)
}

func (o *recordingObserver) MessageSent(message string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, message)
}

func (o *recordingObserver) SendFailed(_ string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed = append(o.failed, err)
}

type sinkFunc func(ctx context.Context, pcm []byte) error

func (f sinkFunc) Play(ctx context.Context, pcm []byte) error { return f(ctx, pcm) }

func defaultParams() *protocol.Params {
	return protocol.MustNew(protocol.DefaultConfig())
}

// onAir returns the characters transmitted for message.
func onAir(p *protocol.Params, message string) string {
	text, err := modem.NewFrameCodec(p).EncodeText(message)
	if err != nil {
		panic(err)
	}
	return text
}

// feed pushes subsampling confident estimates per character of text.
func feed(r *Receiver, p *protocol.Params, text string, subsampling int) {
	for i := 0; i < len(text); i++ {
		f, _ := p.Frequency(text[i])
		for j := 0; j < subsampling; j++ {
			r.OnEstimate(f, 0.95)
		}
	}
}

func feedSilence(r *Receiver, n int) {
	for i := 0; i < n; i++ {
		r.OnEstimate(protocol.NoSignal, 0)
	}
}

func quietLogger() *logger.Logger {
	return logger.Discard()
}
