// Package testutil provides a mock Streamer.bot WebSocket server for tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// DoActionCall records one DoAction request the mock received.
type DoActionCall struct {
	ActionID string
	Args     map[string]any
}

// MockStreamerbot is a test double for the Streamer.bot WebSocket server.
// It answers Subscribe/GetActions/DoAction requests and can push event
// frames to the connected client.
type MockStreamerbot struct {
	*httptest.Server
	WSURL string

	mu           sync.Mutex
	conn         *websocket.Conn
	subscribed   map[string][]string
	actions      []map[string]any
	failDoAction bool
	doActions    []DoActionCall
}

// NewMockStreamerbot starts a mock server and returns it. The server is torn
// down with the test.
func NewMockStreamerbot(t *testing.T) *MockStreamerbot {
	t.Helper()
	m := &MockStreamerbot{subscribed: make(map[string][]string)}
	upgrader := websocket.Upgrader{}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		m.mu.Lock()
		m.conn = conn
		m.mu.Unlock()
		m.serve(conn)
	}))
	m.WSURL = "ws" + strings.TrimPrefix(m.Server.URL, "http") + "/"
	t.Cleanup(m.Close)
	return m
}

// SetActions configures the catalog returned by GetActions. Each entry is a
// raw action object (keys: id, name, group, enabled, subaction_count).
func (m *MockStreamerbot) SetActions(actions ...map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = actions
}

// FailDoAction makes subsequent DoAction requests answer with an error status.
func (m *MockStreamerbot) FailDoAction(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failDoAction = fail
}

// DoActionCalls returns the DoAction requests received so far.
func (m *MockStreamerbot) DoActionCalls() []DoActionCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]DoActionCall(nil), m.doActions...)
}

// Subscribed returns the event types the client subscribed for a source.
func (m *MockStreamerbot) Subscribed(source string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.subscribed[source]...)
}

// WaitForSubscribe blocks until the client has connected and subscribed, or
// fails the test after the timeout.
func (m *MockStreamerbot) WaitForSubscribe(t *testing.T, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		m.mu.Lock()
		subscribed := len(m.subscribed) > 0
		m.mu.Unlock()
		if subscribed {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("client did not subscribe in time")
}

// PushEvent sends an event frame to the connected client.
func (m *MockStreamerbot) PushEvent(t *testing.T, source, eventType string, data any) {
	t.Helper()
	frame := map[string]any{
		"timeStamp": time.Now().Format(time.RFC3339),
		"event":     map[string]string{"source": source, "type": eventType},
		"data":      data,
	}
	if err := m.writeJSON(frame); err != nil {
		t.Fatalf("push event: %v", err)
	}
}

func (m *MockStreamerbot) writeJSON(v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return websocket.ErrCloseSent
	}
	return m.conn.WriteJSON(v)
}

func (m *MockStreamerbot) serve(conn *websocket.Conn) {
	for {
		var req struct {
			Request string              `json:"request"`
			ID      string              `json:"id"`
			Events  map[string][]string `json:"events"`
			Action  struct {
				ID string `json:"id"`
			} `json:"action"`
			Args map[string]any `json:"args"`
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			continue
		}

		resp := map[string]any{"id": req.ID, "status": "ok"}
		m.mu.Lock()
		switch req.Request {
		case "Subscribe":
			for source, types := range req.Events {
				m.subscribed[source] = append(m.subscribed[source], types...)
			}
		case "GetActions":
			actions := m.actions
			if actions == nil {
				actions = []map[string]any{}
			}
			resp["actions"] = actions
			resp["count"] = len(actions)
		case "DoAction":
			m.doActions = append(m.doActions, DoActionCall{ActionID: req.Action.ID, Args: req.Args})
			if m.failDoAction {
				resp["status"] = "error"
				resp["error"] = "action failed"
			}
		}
		m.mu.Unlock()
		_ = m.writeJSON(resp)
	}
}
