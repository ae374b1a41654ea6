// Package realtime manages the long-lived bidirectional connection to the
// Creo backend.
//
// The transport prefers a full-duplex websocket and falls back to HTTP
// long-polling through the REST client when the websocket dial fails. It
// owns the connect/disconnect lifecycle, a publish/subscribe registry keyed
// by event name, and outbound event emission. Connection loss is surfaced
// as a state change (an EventDisconnected dispatch), never as a panic or a
// hang; reconnect policy belongs to the caller.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"sync"

	"github.com/gorilla/websocket"
)

// State is the connection state of the transport.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// ErrNotConnected is returned by Emit when no live connection exists.
// Callers log it and drop the event; nothing is queued for later delivery.
var ErrNotConnected = errors.New("realtime: not connected")

// Handler receives the raw data payload of a dispatched event.
type Handler func(data json.RawMessage)

// RestBridge is the long-polling fallback contract, implemented by the
// REST client. PollEvents blocks until events are available, the cursor
// advances across calls, and PushEvent delivers one outbound envelope.
type RestBridge interface {
	PollEvents(ctx context.Context, cursor string) ([]Envelope, string, error)
	PushEvent(ctx context.Context, env Envelope) error
}

// conn abstracts the two transport flavors (websocket, long-poll).
type conn interface {
	emit(env Envelope) error
	close() error
}

// Transport manages one long-lived connection to the backend.
// Only one Transport exists per client process; reconnecting replaces the
// socket identity rather than duplicating it. It is safe for concurrent use.
type Transport struct {
	baseURL string
	dialer  *websocket.Dialer
	bridge  RestBridge
	logger  *slog.Logger

	mu     sync.Mutex
	state  State
	conn   conn
	connID uint64

	handlersMu sync.Mutex
	handlers   map[string]map[int]Handler
	nextSubID  int
}

// Option configures the transport.
type Option func(*Transport)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Transport) { t.logger = l }
}

// WithFallback sets the long-polling fallback bridge.
// Without it, a failed websocket dial is a failed Connect.
func WithFallback(b RestBridge) Option {
	return func(t *Transport) { t.bridge = b }
}

// WithDialer sets a custom websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(t *Transport) { t.dialer = d }
}

// New creates a transport for the given backend base URL
// (e.g. "http://localhost:8000").
func New(baseURL string, opts ...Option) *Transport {
	t := &Transport{
		baseURL:  baseURL,
		dialer:   websocket.DefaultDialer,
		handlers: make(map[string]map[int]Handler),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// State returns the current connection state.
func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Connect establishes the connection. It is idempotent: when already
// connected it returns immediately without opening a second socket.
// After Connect returns nil, Emit either succeeds or fails cleanly with
// ErrNotConnected; it never hangs.
func (t *Transport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == StateConnected {
		return nil
	}
	t.state = StateConnecting

	wsURL, err := t.websocketURL()
	if err != nil {
		t.state = StateDisconnected
		return err
	}

	t.connID++
	id := t.connID

	wsc, _, dialErr := t.dialer.DialContext(ctx, wsURL, nil)
	if dialErr == nil {
		c := &wsConn{c: wsc}
		t.conn = c
		t.state = StateConnected
		go c.readLoop(t, id)
		t.logf("connected", "transport_kind", "websocket", "url", wsURL)
	} else {
		if t.bridge == nil {
			t.state = StateDisconnected
			return fmt.Errorf("websocket connect %s: %w", wsURL, dialErr)
		}
		t.logf("websocket dial failed, falling back to long polling", "error", dialErr)
		c := newPollConn(t, id, t.bridge)
		t.conn = c
		t.state = StateConnected
		c.start()
		t.logf("connected", "transport_kind", "longpoll")
	}

	go t.dispatch(EventConnected, nil)
	return nil
}

// Disconnect closes the connection. Safe to call when already disconnected.
func (t *Transport) Disconnect() {
	t.mu.Lock()
	if t.state == StateDisconnected {
		t.mu.Unlock()
		return
	}
	c := t.conn
	t.conn = nil
	t.state = StateDisconnected
	// Bump the identity so the closing conn's read loop reports as stale.
	t.connID++
	t.mu.Unlock()

	if c != nil {
		_ = c.close()
	}
	t.logf("disconnected")
	t.dispatch(EventDisconnected, mustMarshal(DisconnectedPayload{Message: "client disconnect"}))
}

// Emit sends an event to the backend. When no live connection exists it
// returns ErrNotConnected and the event is dropped, never queued.
func (t *Transport) Emit(event string, payload any) error {
	t.mu.Lock()
	c := t.conn
	connected := t.state == StateConnected
	t.mu.Unlock()

	if !connected || c == nil {
		return fmt.Errorf("emit %s: %w", event, ErrNotConnected)
	}

	env, err := NewEnvelope(event, payload)
	if err != nil {
		return err
	}
	return c.emit(env)
}

// On subscribes a handler to an event name and returns an unsubscribe func.
func (t *Transport) On(event string, h Handler) func() {
	t.handlersMu.Lock()
	defer t.handlersMu.Unlock()

	if t.handlers[event] == nil {
		t.handlers[event] = make(map[int]Handler)
	}
	id := t.nextSubID
	t.nextSubID++
	t.handlers[event][id] = h

	return func() {
		t.handlersMu.Lock()
		defer t.handlersMu.Unlock()
		delete(t.handlers[event], id)
	}
}

// Off removes all handlers for an event name.
func (t *Transport) Off(event string) {
	t.handlersMu.Lock()
	defer t.handlersMu.Unlock()
	delete(t.handlers, event)
}

// JoinSession subscribes this client to a session's event stream.
func (t *Transport) JoinSession(sessionID, token, userID string) error {
	return t.Emit(EventJoinSession, JoinSessionPayload{
		SessionID: sessionID,
		Token:     token,
		UserID:    userID,
	})
}

// SendMessage delivers a user message to the agent over the live connection.
func (t *Transport) SendMessage(text, sessionID, token, userID string) error {
	return t.Emit(EventSendMessage, SendMessagePayload{
		Message:   text,
		SessionID: sessionID,
		Token:     token,
		UserID:    userID,
	})
}

// dispatch invokes every handler subscribed to the event, in subscription
// order, on the calling goroutine. Each connection has a single read
// goroutine, so per-connection delivery order is preserved.
func (t *Transport) dispatch(event string, data json.RawMessage) {
	t.handlersMu.Lock()
	subs := t.handlers[event]
	ids := make([]int, 0, len(subs))
	for id := range subs {
		ids = append(ids, id)
	}
	// Map iteration order is random; sort to keep subscription order.
	slices.Sort(ids)
	handlers := make([]Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, subs[id])
	}
	t.handlersMu.Unlock()

	for _, h := range handlers {
		h(data)
	}
}

// lostConn is called by a connection whose read or poll loop failed.
// A stale connection (already replaced by a reconnect) is ignored.
func (t *Transport) lostConn(id uint64, err error) {
	t.mu.Lock()
	if t.connID != id {
		t.mu.Unlock()
		return
	}
	t.conn = nil
	t.state = StateDisconnected
	t.mu.Unlock()

	t.logf("connection lost", "error", err)
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	t.dispatch(EventDisconnected, mustMarshal(DisconnectedPayload{Message: msg}))
}

func (t *Transport) websocketURL() (string, error) {
	u, err := url.Parse(t.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"
	return u.String(), nil
}

func (t *Transport) logf(msg string, args ...any) {
	if t.logger != nil {
		t.logger.Info(msg, args...)
	}
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

// wsConn is the websocket flavor of conn.
type wsConn struct {
	c       *websocket.Conn
	writeMu sync.Mutex
}

func (w *wsConn) emit(env Envelope) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return w.c.WriteJSON(env)
}

func (w *wsConn) close() error {
	return w.c.Close()
}

// readLoop reads envelopes until the connection fails, dispatching each
// through the transport in delivery order.
func (w *wsConn) readLoop(t *Transport, id uint64) {
	for {
		var env Envelope
		if err := w.c.ReadJSON(&env); err != nil {
			t.lostConn(id, err)
			return
		}
		t.dispatch(env.Type, env.Data)
	}
}
