package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/steveyegge/taskboard/internal/board"
)

func startTestServer(t *testing.T) *Server {
	t.Helper()

	s := NewServer(&Config{Port: 0, Logger: log.New(io.Discard, "", 0)})
	if err := s.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func dialTestClient(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, fmt.Sprintf("ws://%s/ws", s.Addr()), nil)
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read frame: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to decode frame: %v", err)
	}
	return msg
}

func waitForClients(t *testing.T, s *Server, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for s.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", s.ClientCount(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := startTestServer(t)

	resp, err := http.Get(fmt.Sprintf("http://%s/health", s.Addr()))
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode health body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("health status = %v", body["status"])
	}
}

func TestBroadcastTaskUpdate(t *testing.T) {
	s := startTestServer(t)
	conn := dialTestClient(t, s)
	waitForClients(t, s, 1)

	s.BroadcastTaskUpdate("task-123")

	msg := readMessage(t, conn)
	if msg.Type != MessageTypeTaskUpdate {
		t.Errorf("type = %q, want %q", msg.Type, MessageTypeTaskUpdate)
	}
	if msg.Timestamp.IsZero() {
		t.Error("broadcast frame missing timestamp")
	}

	var data TaskUpdateData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
	if data.TaskID != "task-123" {
		t.Errorf("task id = %q", data.TaskID)
	}
}

func TestBroadcastStats(t *testing.T) {
	s := startTestServer(t)
	conn := dialTestClient(t, s)
	waitForClients(t, s, 1)

	s.BroadcastStats(map[board.Status]int{
		board.StatusTodo: 2,
		board.StatusDone: 3,
	})

	msg := readMessage(t, conn)
	if msg.Type != MessageTypeStats {
		t.Fatalf("type = %q, want %q", msg.Type, MessageTypeStats)
	}

	var data StatsData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
	if data.Total != 5 {
		t.Errorf("total = %d, want 5", data.Total)
	}
	if data.ByStatus[board.StatusDone] != 3 {
		t.Errorf("done count = %d, want 3", data.ByStatus[board.StatusDone])
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	s := startTestServer(t)
	first := dialTestClient(t, s)
	second := dialTestClient(t, s)
	waitForClients(t, s, 2)

	s.BroadcastRefresh()

	for _, conn := range []*websocket.Conn{first, second} {
		if msg := readMessage(t, conn); msg.Type != MessageTypeRefresh {
			t.Errorf("type = %q, want %q", msg.Type, MessageTypeRefresh)
		}
	}
}

func TestClientDisconnectIsTracked(t *testing.T) {
	s := startTestServer(t)
	conn := dialTestClient(t, s)
	waitForClients(t, s, 1)

	_ = conn.Close(websocket.StatusNormalClosure, "")
	waitForClients(t, s, 0)
}
