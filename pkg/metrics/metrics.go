// Package metrics exports session activity to Prometheus.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	layer "Chirpnet/pkg/layers"
	"Chirpnet/pkg/modem"
	"Chirpnet/pkg/protocol"
)

const namespace = "chirpnet"

// Metrics observes a Receiver and a Transmitter.
type Metrics struct {
	registry *prometheus.Registry

	estimatesDiscarded prometheus.Counter
	captureOverruns    prometheus.Counter
	frames             *prometheus.CounterVec
	messagesReceived   prometheus.Counter
	messagesSent       prometheus.Counter
	sendFailures       *prometheus.CounterVec
	sendDuration       prometheus.Histogram
	lastReceived       prometheus.Gauge
}

var _ layer.Observer = (*Metrics)(nil)

// New registers the collectors on reg, or on a fresh registry when reg is nil.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		estimatesDiscarded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "estimates_discarded_total",
			Help:      "Pitch estimates dropped while this node was transmitting",
		}),
		captureOverruns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_overruns_total",
			Help:      "Captured audio buffers dropped because analysis fell behind",
		}),
		frames: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "frames_total",
				Help:      "Frame decode attempts by outcome",
			},
			[]string{"outcome"},
		),
		messagesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Messages delivered by the receiver",
		}),
		messagesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Messages played by the transmitter",
		}),
		sendFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "send_failures_total",
				Help:      "Rejected or failed sends by reason",
			},
			[]string{"reason"},
		),
		sendDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "send_duration_seconds",
			Help:      "Time from synthesis to the end of playback",
			Buckets:   []float64{0.5, 1, 1.5, 2, 3, 5, 10},
		}),
		lastReceived: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_message_received_timestamp_seconds",
			Help:      "Unix time of the last delivered message",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) EstimateDiscarded() {
	m.estimatesDiscarded.Inc()
}

func (m *Metrics) CaptureOverrun() {
	m.captureOverruns.Inc()
}

func (m *Metrics) FrameDecoded(outcome modem.Outcome) {
	m.frames.WithLabelValues(outcome.String()).Inc()
}

func (m *Metrics) MessageReceived(string) {
	m.messagesReceived.Inc()
	m.lastReceived.SetToCurrentTime()
}

func (m *Metrics) MessageSent(_ string, elapsed time.Duration) {
	m.messagesSent.Inc()
	m.sendDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) SendFailed(_ string, err error) {
	m.sendFailures.WithLabelValues(reason(err)).Inc()
}

func reason(err error) string {
	switch {
	case errors.Is(err, layer.ErrBusy):
		return "busy"
	case errors.Is(err, protocol.ErrInvalidPayload):
		return "invalid_payload"
	case errors.Is(err, protocol.ErrIllegalCharacter):
		return "illegal_character"
	case errors.Is(err, layer.ErrClosed):
		return "closed"
	}
	return "playback"
}
