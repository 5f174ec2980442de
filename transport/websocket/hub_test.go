package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wricardo/mcp-training/mazegame/game/engine"
	"github.com/wricardo/mcp-training/mazegame/game/service"
)

func newTestClient(hub *Hub, sessionID string) *Client {
	return &Client{
		id:        sessionID + "-client",
		hub:       hub,
		sessionID: sessionID,
		send:      make(chan []byte, 256),
	}
}

func testState(row, col int) *engine.PlayState {
	return &engine.PlayState{
		GameState: engine.GameState{Player: engine.Position{Row: row, Col: col}},
		Rows:      5,
		Cols:      5,
	}
}

// startTestServer runs the hub behind an httptest server keyed by ?session=
func startTestServer(t *testing.T, hub *Hub) string {
	t.Helper()
	go hub.Run()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("session"))
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}
	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	return message
}

func waitForClients(t *testing.T, hub *Hub, sessionID string, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.ClientCount(sessionID) != want {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d clients in %s, got %d", want, sessionID, hub.ClientCount(sessionID))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub.sessions == nil {
		t.Error("Hub sessions map is nil")
	}
	if hub.register == nil || hub.unregister == nil {
		t.Error("Hub channels must be initialized")
	}
}

func TestHubRegisterAndUnregister(t *testing.T) {
	hub := NewHub()
	sessionID := "multi-client-session"

	client1 := newTestClient(hub, sessionID)
	client2 := newTestClient(hub, sessionID)

	hub.registerClient(client1)
	hub.registerClient(client2)
	if hub.ClientCount(sessionID) != 2 {
		t.Errorf("Expected 2 clients in session, got %d", hub.ClientCount(sessionID))
	}

	hub.unregisterClient(client1)
	if hub.ClientCount(sessionID) != 1 {
		t.Errorf("Expected 1 client remaining in session, got %d", hub.ClientCount(sessionID))
	}
	if !hub.sessions[sessionID][client2] {
		t.Error("client2 should still be registered")
	}
	if _, open := <-client1.send; open {
		t.Error("Unregistered client's send channel should be closed")
	}

	hub.unregisterClient(client2)
	if _, exists := hub.sessions[sessionID]; exists {
		t.Error("Session should have been cleaned up after last client unregistered")
	}

	// Unregistering twice must not panic on the closed channel
	hub.unregisterClient(client2)
}

func TestHubBroadcastToSession(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "broadcast-test")
	other := newTestClient(hub, "other-session")
	hub.registerClient(client)
	hub.registerClient(other)

	hub.BroadcastToSession("broadcast-test", testState(3, 5))

	select {
	case data := <-client.send:
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if message.SessionID != "broadcast-test" {
			t.Errorf("Expected sessionID broadcast-test, got %s", message.SessionID)
		}
		if message.Event != EventStateUpdate {
			t.Errorf("Expected event %q, got %q", EventStateUpdate, message.Event)
		}
		if message.GameState.Player != (engine.Position{Row: 3, Col: 5}) {
			t.Errorf("GameState not correctly transmitted: %+v", message.GameState.Player)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("No message received within timeout")
	}

	if len(other.send) != 0 {
		t.Error("Clients of other sessions must not receive the update")
	}
}

func TestHubDropsSlowClients(t *testing.T) {
	hub := NewHub()
	client := &Client{id: "slow", hub: hub, sessionID: "slow", send: make(chan []byte)}
	hub.registerClient(client)

	hub.BroadcastToSession("slow", testState(1, 1))

	if hub.ClientCount("slow") != 0 {
		t.Error("A client that cannot accept messages should be dropped")
	}
}

func receive(t *testing.T, client *Client) Message {
	t.Helper()
	select {
	case data := <-client.send:
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		return message
	case <-time.After(100 * time.Millisecond):
		t.Fatal("No message received within timeout")
	}
	return Message{}
}

// Run is never started here; events go straight to registered clients
func TestHubBroadcastEvent(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "event-test")
	hub.registerClient(client)

	done := make(chan struct{})
	go func() {
		hub.BroadcastEvent("event-test", "custom-event", "test-data")
		hub.BroadcastEvent("nobody-listening", "custom-event", "test-data")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("BroadcastEvent blocked without a running hub")
	}

	message := receive(t, client)
	if message.SessionID != "event-test" || message.Event != "custom-event" || message.Data != "test-data" {
		t.Errorf("Unexpected message %+v", message)
	}
}

func TestHubPublishEvents(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "events")
	hub.registerClient(client)

	hub.PublishEvents("events", []service.GameEvent{
		{Type: "move", Message: "Moved right"},
		{Type: "blocked", Message: "Wall"},
		{Type: "victory", Message: "Solved in 8 moves!"},
		{Type: "regenerate", Message: "New 9x9 maze (generation 2)"},
	})

	if got := receive(t, client); got.Event != EventVictory {
		t.Errorf("Expected %q first, got %q", EventVictory, got.Event)
	}
	if got := receive(t, client); got.Event != EventRegenerate {
		t.Errorf("Expected %q second, got %q", EventRegenerate, got.Event)
	}
	if len(client.send) != 0 {
		t.Errorf("Move and blocked events must not be published, %d left", len(client.send))
	}
}

func TestWebSocketLifecycle(t *testing.T) {
	hub := NewHub()
	url := startTestServer(t, hub)

	conn := dial(t, url+"?session=ws-test")
	waitForClients(t, hub, "ws-test", 1)

	hub.BroadcastToSession("ws-test", testState(7, 9))
	message := readMessage(t, conn)
	if message.GameState == nil || message.GameState.Player != (engine.Position{Row: 7, Col: 9}) {
		t.Errorf("Unexpected state %+v", message.GameState)
	}

	conn.Close()
	waitForClients(t, hub, "ws-test", 0)
}

func TestWebSocketKeyForwarding(t *testing.T) {
	hub := NewHub()

	calls := make(chan string, 4)
	hub.OnKey(func(ctx context.Context, sessionID, key string) (*service.KeyResult, error) {
		calls <- sessionID + "/" + key
		if key == "q" {
			return nil, errors.New("unknown key")
		}
		return &service.KeyResult{
			Key:       key,
			Action:    "move",
			Success:   true,
			GameState: testState(1, 2),
		}, nil
	})

	url := startTestServer(t, hub)
	sender := dial(t, url+"?session=keys")
	watcher := dial(t, url+"?session=keys")
	waitForClients(t, hub, "keys", 2)

	if err := sender.WriteJSON(KeyMessage{Key: "ArrowRight"}); err != nil {
		t.Fatalf("Failed to send key: %v", err)
	}

	result := readMessage(t, sender)
	if result.Event != EventKeyResult {
		t.Fatalf("Expected %q first, got %q", EventKeyResult, result.Event)
	}
	update := readMessage(t, sender)
	if update.Event != EventStateUpdate {
		t.Errorf("Expected state update after key result, got %q", update.Event)
	}

	// Other viewers of the session see the new state too
	seen := readMessage(t, watcher)
	if seen.Event != EventStateUpdate || seen.GameState.Player != (engine.Position{Row: 1, Col: 2}) {
		t.Errorf("Watcher got %+v", seen)
	}

	if call := <-calls; call != "keys/ArrowRight" {
		t.Errorf("Handler called with %q", call)
	}

	t.Run("handler error goes to sender only", func(t *testing.T) {
		if err := sender.WriteJSON(KeyMessage{Key: "q"}); err != nil {
			t.Fatalf("Failed to send key: %v", err)
		}
		message := readMessage(t, sender)
		if message.Event != EventError {
			t.Errorf("Expected error event, got %q", message.Event)
		}
	})
}
