package web

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"Chirpnet/pkg/logger"
)

type fakeSender struct {
	mu       sync.Mutex
	messages []string
	sent     chan string
}

func newFakeSender() *fakeSender {
	return &fakeSender{sent: make(chan string, 4)}
}

func (f *fakeSender) Send(_ context.Context, message string) error {
	f.mu.Lock()
	f.messages = append(f.messages, message)
	f.mu.Unlock()
	f.sent <- message
	return nil
}

func startHub(t *testing.T, sender Sender) (*Hub, *websocket.Conn) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(sender, logger.Discard())
	go hub.Run(ctx)

	server := httptest.NewServer(hub.Handler())
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client was not registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return hub, conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	return event
}

func TestHubBroadcast(t *testing.T) {
	hub, conn := startHub(t, nil)

	hub.Broadcast(Event{Type: "test", Data: map[string]any{"key": "value"}})

	event := readEvent(t, conn)
	if event.Type != "test" {
		t.Errorf("expected type test, got %q", event.Type)
	}
	if event.Data["key"] != "value" {
		t.Errorf("expected key=value, got %v", event.Data)
	}
	if event.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestHubObserverEvents(t *testing.T) {
	hub, conn := startHub(t, nil)

	hub.MessageReceived("datadatada")
	event := readEvent(t, conn)
	if event.Type != "rx" || event.Data["message"] != "datadatada" {
		t.Errorf("unexpected rx event %+v", event)
	}

	hub.MessageSent("datadatada", 1700*time.Millisecond)
	event = readEvent(t, conn)
	if event.Type != "tx" || event.Data["elapsed_ms"] != float64(1700) {
		t.Errorf("unexpected tx event %+v", event)
	}
}

func TestHubSendCommand(t *testing.T) {
	sender := newFakeSender()
	_, conn := startHub(t, sender)

	if err := conn.WriteJSON(Command{Type: "send", Message: "datadatada"}); err != nil {
		t.Fatalf("failed to write command: %v", err)
	}

	select {
	case got := <-sender.sent:
		if got != "datadatada" {
			t.Errorf("expected datadatada, got %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for send")
	}
}

func TestHubUnknownCommand(t *testing.T) {
	_, conn := startHub(t, newFakeSender())

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"jump"}`)); err != nil {
		t.Fatalf("failed to write command: %v", err)
	}
	if event := readEvent(t, conn); event.Type != "error" {
		t.Errorf("expected error event, got %q", event.Type)
	}
}

func TestHubWithoutSender(t *testing.T) {
	_, conn := startHub(t, nil)

	if err := conn.WriteJSON(Command{Type: "send", Message: "datadatada"}); err != nil {
		t.Fatalf("failed to write command: %v", err)
	}
	if event := readEvent(t, conn); event.Type != "send_failed" {
		t.Errorf("expected send_failed event, got %q", event.Type)
	}
}
