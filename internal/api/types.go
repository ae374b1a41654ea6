package api

// Session is the read-only client-side projection of a backend session.
// It is never mutated locally.
type Session struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Timestamp int64  `json:"timestamp"`
}

// AuthUser describes the authenticated user returned by the auth check.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// MessageRecord is a stored conversation turn returned by the history
// endpoint.
type MessageRecord struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// CreateSessionRequest creates a new session seeded with a first message.
type CreateSessionRequest struct {
	Message   string `json:"message"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id,omitempty"`
}

// SuggestionsRequest asks the backend for suggested prompts.
type SuggestionsRequest struct {
	UserID string `json:"user_id,omitempty"`
}

// SuggestionsResponse carries suggested prompts for the user.
type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

// MigrateUserRequest attaches an anonymous user's history to the
// authenticated account.
type MigrateUserRequest struct {
	AnonymousUserID string `json:"anonymous_user_id"`
}
