package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	layer "Chirpnet/pkg/layers"
	"Chirpnet/pkg/logger"
	"Chirpnet/pkg/protocol"
)

type sinkFunc func(ctx context.Context, pcm []byte) error

func (f sinkFunc) Play(ctx context.Context, pcm []byte) error { return f(ctx, pcm) }

func testNode(t *testing.T, sink layer.Sink) Node {
	t.Helper()
	params := protocol.MustNew(protocol.DefaultConfig())
	tx, err := layer.NewTransmitter(layer.TransmitterConfig{
		Params:     params,
		SampleRate: 44100,
		Sink:       sink,
		Logger:     logger.Discard(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rx, err := layer.NewReceiver(layer.ReceiverConfig{Params: params, Logger: logger.Discard()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return Node{ID: "node-1", Params: params, Transmitter: tx, Receiver: rx}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body
}

func TestHealth(t *testing.T) {
	s := NewServer(Config{}, Node{}, nil, nil, logger.Discard())
	rec := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := decode(t, rec); body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
}

func TestStatus(t *testing.T) {
	node := testNode(t, sinkFunc(func(context.Context, []byte) error { return nil }))
	s := NewServer(Config{}, node, NewHub(nil, logger.Discard()), nil, logger.Discard())
	rec := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	body := decode(t, rec)
	tests := []struct {
		key      string
		expected any
	}{
		{"node", "node-1"},
		{"identifier", "hj"},
		{"payload_length", float64(10)},
		{"parity_length", float64(8)},
		{"transmitting", false},
		{"receiver", "idle"},
		{"clients", float64(0)},
	}
	for _, tt := range tests {
		if body[tt.key] != tt.expected {
			t.Errorf("%s: expected %v, got %v", tt.key, tt.expected, body[tt.key])
		}
	}
}

func TestSend(t *testing.T) {
	var played int
	node := testNode(t, sinkFunc(func(_ context.Context, pcm []byte) error {
		played = len(pcm)
		return nil
	}))
	s := NewServer(Config{}, node, nil, nil, logger.Discard())

	tests := []struct {
		name   string
		method string
		body   string
		code   int
	}{
		{"json", http.MethodPost, `{"type":"send","message":"datadatada"}`, http.StatusOK},
		{"plain text", http.MethodPost, "datadatada\n", http.StatusOK},
		{"too short", http.MethodPost, "data", http.StatusBadRequest},
		{"illegal character", http.MethodPost, "DATADATADA", http.StatusBadRequest},
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			played = 0
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/api/send", strings.NewReader(tt.body))
			s.Mux().ServeHTTP(rec, req)
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
			if tt.code == http.StatusOK && played != 20*3748*2 {
				t.Errorf("expected %d bytes played, got %d", 20*3748*2, played)
			}
		})
	}
}

func TestSendPlaybackFailure(t *testing.T) {
	node := testNode(t, sinkFunc(func(context.Context, []byte) error { return errors.New("device gone") }))
	s := NewServer(Config{}, node, nil, nil, logger.Discard())
	rec := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/send", strings.NewReader("datadatada")))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestSendWithoutTransmitter(t *testing.T) {
	s := NewServer(Config{}, Node{}, nil, nil, logger.Discard())
	rec := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/send", strings.NewReader("datadatada")))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestMetricsMounted(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("chirpnet_messages_sent_total 0\n"))
	})
	s := NewServer(Config{}, Node{}, nil, metrics, logger.Discard())
	rec := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "chirpnet_messages_sent_total") {
		t.Errorf("expected metrics body, got %q", rec.Body.String())
	}
}
