// Package chat owns the canonical conversation state: the ordered message
// list, the lifecycle of an in-progress assistant reply, and the
// scroll-position decision machine consumed by the view layer.
package chat

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one immutable conversation turn. Once appended to the
// canonical list it is never edited or reordered; insertion order equals
// chronological order.
type Message struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"` // epoch milliseconds
}

// StreamingFragment is the transient, not-yet-finalized assistant reply.
// At most one live instance exists per session. AccumulatedText only ever
// grows; IsThinking flips to false on the first real content so the
// thinking indicator and streamed text are never shown together.
type StreamingFragment struct {
	AccumulatedText string
	IsThinking      bool
}

// State is the controller's per-session streaming state.
type State int

const (
	// StateIdle means no response is pending.
	StateIdle State = iota
	// StateAwaitingStart means a user message was sent and the server has
	// not yet signalled the start of a response.
	StateAwaitingStart
	// StateStreaming means a fragment is live and accumulating chunks.
	StateStreaming
)

func (s State) String() string {
	switch s {
	case StateAwaitingStart:
		return "awaiting_start"
	case StateStreaming:
		return "streaming"
	default:
		return "idle"
	}
}
