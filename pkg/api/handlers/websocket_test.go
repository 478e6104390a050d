package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopforge/shopforge/pkg/api/events"
	"github.com/shopforge/shopforge/pkg/logger"
)

func TestWSClient_SubscriptionFiltering(t *testing.T) {
	client := newWSClient(nil)

	if !client.shouldReceive("run-1") {
		t.Fatal("client with no subscriptions must receive everything")
	}

	client.subscribe("run-1")
	if !client.shouldReceive("run-1") {
		t.Fatal("subscribed run must be received")
	}
	if client.shouldReceive("run-2") {
		t.Fatal("unsubscribed run must be filtered")
	}
	if client.shouldReceive("") {
		t.Fatal("events without run id must be filtered for subscribed clients")
	}

	client.unsubscribe("run-1")
	if !client.shouldReceive("run-2") {
		t.Fatal("client back to no subscriptions must receive everything")
	}
}

func TestConnectionManager_Limit(t *testing.T) {
	manager := NewConnectionManager(1)

	first := newWSClient(nil)
	if err := manager.Register(first); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if manager.CanAccept() {
		t.Fatal("manager at capacity must not accept")
	}
	if err := manager.Register(newWSClient(nil)); err == nil {
		t.Fatal("expected register error at capacity")
	}

	manager.Unregister(first)
	if !manager.CanAccept() {
		t.Fatal("manager must accept after unregister")
	}
	if manager.Count() != 0 {
		t.Fatalf("count = %d, want 0", manager.Count())
	}
}

func TestRunIDFromPayload(t *testing.T) {
	if got := runIDFromPayload(map[string]any{"run_id": "run-7"}); got != "run-7" {
		t.Fatalf("map[string]any run id = %q", got)
	}
	if got := runIDFromPayload(map[string]string{"run_id": "run-8"}); got != "run-8" {
		t.Fatalf("map[string]string run id = %q", got)
	}
	if got := runIDFromPayload(nil); got != "" {
		t.Fatalf("nil payload run id = %q", got)
	}
}

func TestWebSocketHandler_EndToEndBroadcast(t *testing.T) {
	handler := NewWebSocketHandler(logger.Global(), WebSocketConfig{
		AllowedOrigins: []string{"*"},
		PingInterval:   time.Second,
	})
	defer handler.Close()

	server := httptest.NewServer(handler)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/events"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	defer resp.Body.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if handler.manager.Count() == 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if handler.manager.Count() != 1 {
		t.Fatal("client never registered")
	}

	if err := handler.Broadcast(events.Event{
		Type:    events.TypeRunStateChanged,
		Payload: map[string]any{"run_id": "run-1", "status": "complete"},
	}); err != nil {
		t.Fatalf("broadcast: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), events.TypeRunStateChanged) {
		t.Fatalf("message = %s", data)
	}
}

func TestWebSocketHandler_RejectsPlainHTTP(t *testing.T) {
	handler := NewWebSocketHandler(logger.Global(), WebSocketConfig{})
	defer handler.Close()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/events", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
