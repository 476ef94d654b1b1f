// Package web streams a node's traffic over WebSocket and accepts messages
// to send from the browser.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	layer "Chirpnet/pkg/layers"
	"Chirpnet/pkg/logger"
)

// Event is broadcast to every connected client.
type Event struct {
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// Command is what clients send: {"type":"send","message":"datadatada"}.
type Command struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Sender is satisfied by layer.Transmitter.
type Sender interface {
	Send(ctx context.Context, message string) error
}

type client struct {
	id       string
	conn     *websocket.Conn
	messages chan []byte
}

type Hub struct {
	layer.NopObserver

	clients    map[*client]bool
	broadcast  chan Event
	register   chan *client
	unregister chan *client
	sender     Sender
	log        *logger.Logger
	done       chan struct{}
	mu         sync.RWMutex
	ctx        context.Context
}

var _ layer.Observer = (*Hub)(nil)

// NewHub accepts send commands only when sender is not nil.
func NewHub(sender Sender, log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Default()
	}
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		sender:     sender,
		log:        log.WithComponent("websocket"),
		done:       make(chan struct{}),
		ctx:        context.Background(),
	}
}

// Run serves registrations and broadcasts until ctx is done. It must be
// called at most once.
func (h *Hub) Run(ctx context.Context) {
	h.mu.Lock()
	h.ctx = ctx
	h.mu.Unlock()
	defer close(h.done)

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.log.Debug("client registered", logger.String("client_id", c.id))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.messages)
			}
			h.mu.Unlock()
			h.log.Debug("client unregistered", logger.String("client_id", c.id))

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				h.log.Error("failed to marshal event", logger.Error(err))
				continue
			}
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.messages <- data:
				default:
					h.log.Warn("client buffer full, skipping", logger.String("client_id", c.id))
				}
			}
			h.mu.RUnlock()

		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.messages)
			}
			h.clients = make(map[*client]bool)
			h.mu.Unlock()
			return
		}
	}
}

// Broadcast never blocks; events are dropped when the hub falls behind.
func (h *Hub) Broadcast(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case h.broadcast <- event:
	default:
		h.log.Warn("broadcast channel full, dropping event", logger.String("type", event.Type))
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Handler() http.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Warn("websocket upgrade failed", logger.Error(err))
			return
		}
		c := &client{id: r.RemoteAddr, conn: conn, messages: make(chan []byte, 64)}
		select {
		case h.register <- c:
		case <-h.done:
			_ = conn.Close()
			return
		}

		go h.readLoop(c)
		go func() {
			for msg := range c.messages {
				if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					h.log.Debug("write failed", logger.String("client_id", c.id), logger.Error(err))
				}
			}
		}()
	})
}

func (h *Hub) readLoop(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(1024)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil || cmd.Type != "send" {
			h.Broadcast(Event{Type: "error", Data: map[string]any{"error": "unknown command"}})
			continue
		}
		go h.send(cmd.Message)
	}
}

func (h *Hub) send(message string) {
	if h.sender == nil {
		h.Broadcast(Event{Type: "send_failed", Data: map[string]any{"message": message, "error": "node cannot transmit"}})
		return
	}
	h.mu.RLock()
	ctx := h.ctx
	h.mu.RUnlock()
	// success and failure are reported through the observer events
	_ = h.sender.Send(ctx, message)
}

func (h *Hub) MessageReceived(message string) {
	h.Broadcast(Event{Type: "rx", Data: map[string]any{"message": message}})
}

func (h *Hub) MessageSent(message string, elapsed time.Duration) {
	h.Broadcast(Event{Type: "tx", Data: map[string]any{"message": message, "elapsed_ms": elapsed.Milliseconds()}})
}

func (h *Hub) SendFailed(message string, err error) {
	h.Broadcast(Event{Type: "send_failed", Data: map[string]any{"message": message, "error": err.Error()}})
}
