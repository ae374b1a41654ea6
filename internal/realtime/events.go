package realtime

import (
	"encoding/json"
	"fmt"
)

// Outbound event names. These are the only two event shapes the client
// sends to the backend.
const (
	EventJoinSession = "join_session"
	EventSendMessage = "send_message"
)

// Inbound event names for the assistant response stream.
const (
	EventResponseStart = "response_start"
	EventResponseChunk = "response_chunk"
	EventResponseEnd   = "response_end"
	EventError         = "error"
)

// Local lifecycle events dispatched through the same subscription registry.
// They are never sent on the wire.
const (
	EventConnected    = "connected"
	EventDisconnected = "disconnected"
)

// Envelope is the wire format for all realtime events, in both directions.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope wraps a payload into an envelope for the given event.
func NewEnvelope(event string, payload any) (Envelope, error) {
	env := Envelope{Type: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, fmt.Errorf("marshal %s payload: %w", event, err)
		}
		env.Data = data
	}
	return env, nil
}

// JoinSessionPayload subscribes this client to a session's event stream.
type JoinSessionPayload struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token,omitempty"`
	UserID    string `json:"user_id"`
}

// SendMessagePayload delivers a user message to the agent.
type SendMessagePayload struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	Token     string `json:"token,omitempty"`
	UserID    string `json:"user_id"`
}

// ChunkPayload carries one incremental slice of assistant output.
type ChunkPayload struct {
	Text string `json:"text"`
}

// DisconnectedPayload describes why the connection was lost.
type DisconnectedPayload struct {
	Message string `json:"message,omitempty"`
}
