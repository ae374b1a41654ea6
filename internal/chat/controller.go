package chat

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/oron-mozes/creo-sub001/internal/realtime"
)

// Transport is the subset of the realtime transport the controller uses.
type Transport interface {
	On(event string, h realtime.Handler) func()
	SendMessage(text, sessionID, token, userID string) error
}

// SessionParams identify the session the controller manages.
type SessionParams struct {
	SessionID string
	Token     string
	UserID    string
}

// Controller is the streaming session state machine. It consumes realtime
// events to build the canonical ordered message list, manages the
// in-progress assistant reply (start, incremental append, finalize), and
// exposes a coherent view of "messages so far" plus "current fragment".
//
// All mutation is event-driven and serialized behind a mutex; no operation
// blocks. Update listeners are invoked outside the lock and must stay
// cheap, since they run on the transport's delivery goroutine.
type Controller struct {
	transport Transport
	session   SessionParams
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	state    State
	messages []Message
	fragment *StreamingFragment

	listenerMu sync.Mutex
	listeners  map[int]func()
	nextID     int

	unsubs []func()
}

// ControllerOption configures the controller.
type ControllerOption func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ControllerOption {
	return func(c *Controller) { c.logger = l }
}

// WithClock overrides the timestamp source. Useful for testing.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) { c.now = now }
}

// NewController creates a controller bound to a session and subscribes it
// to the transport's response stream. Call Close to unsubscribe.
func NewController(t Transport, session SessionParams, opts ...ControllerOption) *Controller {
	c := &Controller{
		transport: t,
		session:   session,
		now:       time.Now,
		listeners: make(map[int]func()),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.unsubs = append(c.unsubs,
		t.On(realtime.EventResponseStart, c.onResponseStart),
		t.On(realtime.EventResponseChunk, c.onResponseChunk),
		t.On(realtime.EventResponseEnd, c.onResponseEnd),
		t.On(realtime.EventDisconnected, c.onDisconnected),
	)
	return c
}

// Close unsubscribes the controller from the transport.
func (c *Controller) Close() {
	for _, unsub := range c.unsubs {
		unsub()
	}
	c.unsubs = nil
}

// Submit sends a user message. The message is appended to the canonical
// list immediately (local echo), before any server acknowledgement, so the
// UI never appears to eat input under network latency. A send failure on a
// dead transport is logged and swallowed; the echo stands and the user can
// reconnect and resend.
func (c *Controller) Submit(text string) {
	if text == "" {
		return
	}

	c.mu.Lock()
	c.messages = append(c.messages, Message{
		Role:      RoleUser,
		Content:   text,
		Timestamp: c.now().UnixMilli(),
	})
	if c.state == StateIdle {
		c.state = StateAwaitingStart
	}
	c.mu.Unlock()
	c.notify()

	err := c.transport.SendMessage(text, c.session.SessionID, c.session.Token, c.session.UserID)
	if err != nil {
		if c.logger != nil {
			if errors.Is(err, realtime.ErrNotConnected) {
				c.logger.Warn("message not sent: transport disconnected")
			} else {
				c.logger.Warn("message send failed", "error", err)
			}
		}
	}
}

// Hydrate seeds the canonical list with stored history. It is meant for
// session bootstrap, before any streaming starts; it is ignored once a
// response is in flight.
func (c *Controller) Hydrate(messages []Message) {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return
	}
	c.messages = append([]Message(nil), messages...)
	c.mu.Unlock()
	c.notify()
}

// Messages returns a copy of the canonical ordered message list.
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

// Fragment returns the current streaming fragment, if one is live.
func (c *Controller) Fragment() (StreamingFragment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fragment == nil {
		return StreamingFragment{}, false
	}
	return *c.fragment, true
}

// State returns the current streaming state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnUpdate registers a callback invoked after every state mutation and
// returns an unsubscribe func.
func (c *Controller) OnUpdate(fn func()) func() {
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners[id] = fn

	return func() {
		c.listenerMu.Lock()
		defer c.listenerMu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *Controller) notify() {
	c.listenerMu.Lock()
	fns := make([]func(), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.listenerMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (c *Controller) onResponseStart(json.RawMessage) {
	c.mu.Lock()
	if c.fragment != nil && c.logger != nil {
		c.logger.Warn("response started with a live fragment; replacing it")
	}
	c.fragment = &StreamingFragment{IsThinking: true}
	c.state = StateStreaming
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) onResponseChunk(data json.RawMessage) {
	var chunk realtime.ChunkPayload
	if err := json.Unmarshal(data, &chunk); err != nil {
		if c.logger != nil {
			c.logger.Warn("malformed chunk payload", "error", err)
		}
		return
	}

	c.mu.Lock()
	if c.fragment == nil {
		// Stale chunk from before a disconnect; the fragment is gone.
		c.mu.Unlock()
		return
	}
	c.fragment.AccumulatedText += chunk.Text
	if chunk.Text != "" {
		c.fragment.IsThinking = false
	}
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) onResponseEnd(json.RawMessage) {
	c.mu.Lock()
	if c.fragment == nil {
		c.state = StateIdle
		c.mu.Unlock()
		return
	}
	c.messages = append(c.messages, Message{
		Role:      RoleAssistant,
		Content:   c.fragment.AccumulatedText,
		Timestamp: c.now().UnixMilli(),
	})
	c.fragment = nil
	c.state = StateIdle
	c.mu.Unlock()
	c.notify()
}

// onDisconnected discards an in-progress fragment rather than risking
// corruption from a later, possibly stale, resumed stream. Partial content
// never reaches the canonical list.
func (c *Controller) onDisconnected(json.RawMessage) {
	c.mu.Lock()
	discarded := c.fragment != nil
	c.fragment = nil
	c.state = StateIdle
	c.mu.Unlock()

	if discarded && c.logger != nil {
		c.logger.Warn("connection lost mid-stream; partial response discarded")
	}
	c.notify()
}
