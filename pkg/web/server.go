package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	layer "Chirpnet/pkg/layers"
	"Chirpnet/pkg/logger"
	"Chirpnet/pkg/protocol"
)

type Config struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// Node describes what the status endpoint reports. Nil members are omitted.
type Node struct {
	ID          string
	Params      *protocol.Params
	Transmitter *layer.Transmitter
	Receiver    *layer.Receiver
}

type Server struct {
	config  Config
	node    Node
	hub     *Hub
	metrics http.Handler
	log     *logger.Logger
	server  *http.Server
	addr    string
	mu      sync.RWMutex
}

// NewServer serves the hub on /ws and, when metrics is not nil, the
// Prometheus registry on /metrics.
func NewServer(cfg Config, node Node, hub *Hub, metrics http.Handler, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Default()
	}
	return &Server{
		config:  cfg,
		node:    node,
		hub:     hub,
		metrics: metrics,
		log:     log.WithComponent("web"),
	}
}

func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/send", s.handleSend)
	if s.hub != nil {
		mux.Handle("/ws", s.hub.Handler())
	}
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}
	return mux
}

// Start blocks until ctx is done or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.log.Info("web server is disabled")
		return nil
	}
	if s.hub != nil {
		go s.hub.Run(ctx)
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Mux(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.mu.Lock()
	s.addr = listener.Addr().String()
	s.mu.Unlock()
	s.log.Info("starting web server", logger.String("address", s.addr))

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutting down web server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
		return ctx.Err()
	case err := <-errChan:
		return err
	}
}

func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "chirpnet",
		"time":    time.Now().Unix(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"node": s.node.ID}
	if p := s.node.Params; p != nil {
		status["identifier"] = p.Identifier()
		status["payload_length"] = p.PayloadLength()
		status["parity_length"] = p.ParityLength()
		status["symbol_period_ms"] = p.SymbolPeriodMs()
		status["base_frequency"] = p.BaseFrequency()
	}
	if t := s.node.Transmitter; t != nil {
		status["transmitting"] = t.Transmitting()
	}
	if rx := s.node.Receiver; rx != nil {
		status["receiver"] = rx.State().String()
	}
	if s.hub != nil {
		status["clients"] = s.hub.ClientCount()
	}
	s.writeJSON(w, http.StatusOK, status)
}

// handleSend accepts a JSON Command or a plain text body and blocks until
// the message has been played.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	if s.node.Transmitter == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "node cannot transmit"})
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 1024))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	message := strings.TrimSpace(string(body))
	var cmd Command
	if json.Unmarshal(body, &cmd) == nil {
		message = cmd.Message
	}

	err = s.node.Transmitter.Send(r.Context(), message)
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, map[string]any{"sent": message})
	case errors.Is(err, layer.ErrBusy):
		s.writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error()})
	case errors.Is(err, protocol.ErrInvalidPayload), errors.Is(err, protocol.ErrIllegalCharacter):
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
	default:
		s.writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("failed to encode response", logger.Error(err))
	}
}
