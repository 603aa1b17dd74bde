package streamerbot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/onnwee/chat-mirror/backend/telemetry"
)

const (
	defaultReconnectDelay = 5 * time.Second
	requestTimeout        = 10 * time.Second
)

// ServerURL builds the websocket URL for a Streamer.bot server. The host may
// be bare ("127.0.0.1"), carry a scheme already, or carry a stray path;
// the result always has a ws/wss scheme and a trailing slash.
func ServerURL(host string, port int) string {
	if host == "" {
		host = "127.0.0.1"
	}
	switch {
	case strings.HasPrefix(host, "wss://"), strings.HasPrefix(host, "ws://"):
		// keep as-is
	case strings.HasPrefix(host, "https://"):
		host = "wss://" + strings.TrimPrefix(host, "https://")
	case strings.HasPrefix(host, "http://"):
		host = "ws://" + strings.TrimPrefix(host, "http://")
	default:
		host = "ws://" + host
	}
	host = strings.TrimSuffix(host, "/")
	if port > 0 {
		host += ":" + strconv.Itoa(port)
	}
	return host + "/"
}

// Client talks to one Streamer.bot WebSocket server.
type Client struct {
	url            string
	reconnectDelay time.Duration
	connected      atomic.Bool

	writeMu sync.Mutex // serializes writes to conn
	conn    *websocket.Conn

	pendingMu sync.Mutex
	pending   map[string]chan frame

	onChatMessage        func(ctx context.Context, ev ChatMessageEvent)
	onChatMessageDeleted func(ctx context.Context, ev ChatMessageDeletedEvent)
	onChatCleared        func(ctx context.Context)
	onUserBanned         func(ctx context.Context, ev UserModerationEvent)
	onUserTimedOut       func(ctx context.Context, ev UserModerationEvent)
}

// NewClient creates a client for the given websocket URL (see ServerURL).
func NewClient(url string) *Client {
	return &Client{
		url:            url,
		reconnectDelay: defaultReconnectDelay,
		pending:        make(map[string]chan frame),
	}
}

// Handler registration. Register before Connect; the subscribe request sent
// on each (re)connect covers all five event kinds regardless.

func (c *Client) OnChatMessage(fn func(ctx context.Context, ev ChatMessageEvent)) {
	c.onChatMessage = fn
}

func (c *Client) OnChatMessageDeleted(fn func(ctx context.Context, ev ChatMessageDeletedEvent)) {
	c.onChatMessageDeleted = fn
}

func (c *Client) OnChatCleared(fn func(ctx context.Context)) {
	c.onChatCleared = fn
}

func (c *Client) OnUserBanned(fn func(ctx context.Context, ev UserModerationEvent)) {
	c.onUserBanned = fn
}

func (c *Client) OnUserTimedOut(fn func(ctx context.Context, ev UserModerationEvent)) {
	c.onUserTimedOut = fn
}

// IsConnected reports whether the socket is currently up and subscribed.
func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

// Connect runs the connection loop until ctx is canceled: dial, subscribe,
// read until the socket drops, wait a fixed delay, repeat. It blocks; run it
// in its own goroutine.
func (c *Client) Connect(ctx context.Context) error {
	for {
		if err := c.runOnce(ctx); err != nil && ctx.Err() == nil {
			slog.Error("streamerbot connection lost", slog.Any("err", err))
		}
		telemetry.SetBackendUp(false)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.reconnectDelay):
			telemetry.CountBackendReconnect()
		}
	}
}

// runOnce performs one dial/subscribe/read cycle and returns when the
// connection drops or ctx is canceled.
func (c *Client) runOnce(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}
	c.writeMu.Lock()
	c.conn = conn
	c.writeMu.Unlock()
	defer func() {
		c.connected.Store(false)
		c.failPending()
		_ = conn.Close()
	}()

	// Close the socket when the context ends so the read loop unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	if err := c.writeJSON(request{
		Request: "Subscribe",
		ID:      uuid.New().String(),
		Events: map[string][]string{
			sourceTwitch: {typeChatMessage, typeChatMessageDeleted, typeChatCleared, typeUserBanned, typeUserTimedOut},
		},
	}); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	c.connected.Store(true)
	telemetry.SetBackendUp(true)
	slog.Info("streamerbot connection opened", slog.String("url", c.url))

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			slog.Warn("discarding unparseable frame", slog.Any("err", err))
			continue
		}
		switch {
		case f.Event != nil:
			evCtx := telemetry.WithCorrelation(ctx, uuid.New().String())
			c.dispatch(evCtx, *f.Event, f.Data)
		case f.ID != "":
			c.deliver(f)
		}
	}
}

// dispatch routes one event push to its handler. Decode failures drop the
// event; a malformed push must not kill the read loop.
func (c *Client) dispatch(ctx context.Context, key eventKey, data json.RawMessage) {
	if key.Source != sourceTwitch {
		return
	}
	log := telemetry.LoggerWithCorr(ctx)
	switch key.Type {
	case typeChatMessage:
		if c.onChatMessage == nil {
			return
		}
		var ev ChatMessageEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			log.Warn("bad ChatMessage payload", slog.Any("err", err))
			return
		}
		c.onChatMessage(ctx, ev)
	case typeChatMessageDeleted:
		if c.onChatMessageDeleted == nil {
			return
		}
		var ev ChatMessageDeletedEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			log.Warn("bad ChatMessageDeleted payload", slog.Any("err", err))
			return
		}
		c.onChatMessageDeleted(ctx, ev)
	case typeChatCleared:
		if c.onChatCleared != nil {
			c.onChatCleared(ctx)
		}
	case typeUserBanned, typeUserTimedOut:
		var ev UserModerationEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			log.Warn("bad user moderation payload", slog.String("type", key.Type), slog.Any("err", err))
			return
		}
		if key.Type == typeUserBanned {
			if c.onUserBanned != nil {
				c.onUserBanned(ctx, ev)
			}
		} else if c.onUserTimedOut != nil {
			c.onUserTimedOut(ctx, ev)
		}
	}
}

// DoAction invokes a named Streamer.bot action with the given arguments.
func (c *Client) DoAction(ctx context.Context, actionID string, args map[string]any) error {
	resp, err := c.roundTrip(ctx, request{Request: "DoAction", Action: &actionRef{ID: actionID}, Args: args})
	if err != nil {
		return fmt.Errorf("do action %s: %w", actionID, err)
	}
	if resp.Status != "ok" {
		return fmt.Errorf("do action %s: backend replied %q: %s", actionID, resp.Status, resp.Error)
	}
	return nil
}

// GetActions fetches the backend's action catalog.
func (c *Client) GetActions(ctx context.Context) ([]Action, error) {
	resp, err := c.roundTrip(ctx, request{Request: "GetActions"})
	if err != nil {
		return nil, fmt.Errorf("get actions: %w", err)
	}
	if resp.Status != "ok" {
		return nil, fmt.Errorf("get actions: backend replied %q: %s", resp.Status, resp.Error)
	}
	return resp.Actions, nil
}

// roundTrip sends one request and waits for the response frame with the same
// id, delivered by the read loop.
func (c *Client) roundTrip(ctx context.Context, req request) (frame, error) {
	req.ID = uuid.New().String()
	ch := make(chan frame, 1)
	c.pendingMu.Lock()
	c.pending[req.ID] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, req.ID)
		c.pendingMu.Unlock()
	}()

	if err := c.writeJSON(req); err != nil {
		return frame{}, err
	}
	select {
	case f, ok := <-ch:
		if !ok {
			return frame{}, fmt.Errorf("connection closed awaiting response")
		}
		return f, nil
	case <-time.After(requestTimeout):
		return frame{}, fmt.Errorf("timed out awaiting response")
	case <-ctx.Done():
		return frame{}, ctx.Err()
	}
}

func (c *Client) writeJSON(req request) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	return c.conn.WriteJSON(req)
}

// deliver hands a response frame to its waiting roundTrip. The send stays
// under the lock so failPending cannot close the channel mid-send; ch is
// buffered, so this never blocks.
func (c *Client) deliver(f frame) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	if ch, ok := c.pending[f.ID]; ok {
		ch <- f
		delete(c.pending, f.ID)
	}
}

// failPending closes all in-flight request channels when the socket drops.
func (c *Client) failPending() {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}
