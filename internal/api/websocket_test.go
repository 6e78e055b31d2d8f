package api

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AaronLay10/DefusalEngine/internal/events"
)

func dialEvents(t *testing.T) (*websocket.Conn, func()) {
	t.Helper()
	s := NewServer(Options{Registry: quietRegistry(t, RegistryOptions{})})
	server := httptest.NewServer(s.Handler())

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		server.Close()
		t.Fatalf("failed to connect: %v", err)
	}
	return conn, func() {
		conn.Close()
		server.Close()
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) events.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read message: %v", err)
	}
	var e events.Event
	if err := json.Unmarshal(msg, &e); err != nil {
		t.Fatalf("failed to unmarshal event: %v", err)
	}
	return e
}

func TestWebSocketReceivesRecentEvents(t *testing.T) {
	events.Clear()
	for i := 0; i < 5; i++ {
		events.Emit("info", "module.progressed", "", map[string]interface{}{"i": i})
	}

	conn, closeAll := dialEvents(t)
	defer closeAll()

	for i := 0; i < 5; i++ {
		e := readEvent(t, conn)
		if e.Name != "module.progressed" {
			t.Errorf("expected 'module.progressed', got '%s'", e.Name)
		}
	}
}

func TestWebSocketReplaysAtMostFiftyEvents(t *testing.T) {
	events.Clear()
	for i := 0; i < recentEventsCount+10; i++ {
		events.Emit("info", "module.progressed", "", map[string]interface{}{"i": i})
	}

	conn, closeAll := dialEvents(t)
	defer closeAll()

	first := readEvent(t, conn)
	if got := first.Fields["i"]; got != float64(10) {
		t.Errorf("expected replay to start at i=10, got %v", got)
	}
}

func TestWebSocketReceivesNewEvents(t *testing.T) {
	events.Clear()

	conn, closeAll := dialEvents(t)
	defer closeAll()

	go func() {
		time.Sleep(50 * time.Millisecond)
		events.Emit("info", "module.solved", "", map[string]interface{}{"module": 2})
	}()

	e := readEvent(t, conn)
	if e.Name != "module.solved" {
		t.Errorf("expected 'module.solved', got '%s'", e.Name)
	}
	if e.Fields["module"] != float64(2) {
		t.Errorf("expected module 2, got '%v'", e.Fields["module"])
	}
}

func TestWebSocketDisconnectCleansUp(t *testing.T) {
	events.Clear()
	events.CloseAllSubscribers()

	conn, closeAll := dialEvents(t)
	defer closeAll()

	go func() {
		time.Sleep(20 * time.Millisecond)
		events.Emit("info", "session.started", "", nil)
	}()
	if e := readEvent(t, conn); e.Name != "session.started" {
		t.Errorf("expected 'session.started', got '%s'", e.Name)
	}

	conn.Close()

	waitFor(t, 5*time.Second, func() bool {
		return events.SubscriberCount() == 0
	}, "subscriber count to return to 0 after close")
}

func TestWebSocketMultipleClients(t *testing.T) {
	events.Clear()

	conn1, close1 := dialEvents(t)
	defer close1()
	conn2, close2 := dialEvents(t)
	defer close2()

	go func() {
		time.Sleep(50 * time.Millisecond)
		events.Emit("info", "session.won", "", nil)
	}()

	if e := readEvent(t, conn1); e.Name != "session.won" {
		t.Errorf("client1: expected 'session.won', got '%s'", e.Name)
	}
	if e := readEvent(t, conn2); e.Name != "session.won" {
		t.Errorf("client2: expected 'session.won', got '%s'", e.Name)
	}
}
