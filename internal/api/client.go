// Package api provides the REST client for the Creo backend.
//
// The client is a stateless request/response wrapper: it injects the auth
// header from a token source, deserializes JSON, and surfaces non-success
// statuses as a typed *RequestError. It is safe for concurrent use.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// TokenSource supplies the auth token injected into requests.
// An empty token means the request is sent unauthenticated.
type TokenSource interface {
	Token() string
}

// RequestError is returned for non-success HTTP statuses.
type RequestError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// IsStatus reports whether err is a RequestError with the given status code.
func IsStatus(err error, code int) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.StatusCode == code
}

// Client provides HTTP methods for the Creo REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		client.httpClient.Timeout = d
	}
}

// WithTokenSource sets the token source used for the auth header.
func WithTokenSource(ts TokenSource) Option {
	return func(client *Client) {
		client.tokens = ts
	}
}

// New creates a new Creo API client.
// baseURL should be the backend address (e.g. "http://localhost:8000").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the base URL of the client.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do performs a request and decodes the JSON response body into out
// (when out is non-nil). Non-2xx statuses become a *RequestError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s %s: marshal: %w", method, path, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &RequestError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s %s: decode: %w", method, path, err)
		}
	}
	return nil
}

// Health checks backend availability.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// Me returns the authenticated user, or (nil, false) when the token is
// missing or rejected. Only transport-level failures are returned as
// errors; an auth failure degrades to "not authenticated".
func (c *Client) Me(ctx context.Context) (*AuthUser, bool, error) {
	var user AuthUser
	err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &user)
	if err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &user, true, nil
}

// ListSessions returns all sessions for the given user.
func (c *Client) ListSessions(ctx context.Context, userID string) ([]Session, error) {
	var sessions []Session
	path := "/api/sessions?user_id=" + url.QueryEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// CreateSession creates a new session seeded with a first message.
func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (*Session, error) {
	var session Session
	if err := c.do(ctx, http.MethodPost, "/api/sessions", req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SessionMessages returns the stored history of a session.
func (c *Client) SessionMessages(ctx context.Context, sessionID string) ([]MessageRecord, error) {
	var messages []MessageRecord
	path := "/api/sessions/" + url.PathEscape(sessionID) + "/messages"
	if err := c.do(ctx, http.MethodGet, path, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// Suggestions returns suggested prompts for the user.
func (c *Client) Suggestions(ctx context.Context, userID string) (*SuggestionsResponse, error) {
	var resp SuggestionsResponse
	if err := c.do(ctx, http.MethodPost, "/api/suggestions", SuggestionsRequest{UserID: userID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MigrateUser attaches an anonymous user's history to the authenticated
// account identified by the auth token.
func (c *Client) MigrateUser(ctx context.Context, anonymousUserID string) error {
	return c.do(ctx, http.MethodPost, "/api/users/migrate", MigrateUserRequest{AnonymousUserID: anonymousUserID}, nil)
}
