package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oron-mozes/creo-sub001/internal/api"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestDo_InjectsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := api.New(srv.URL, api.WithTokenSource(staticToken("tok-123")))
	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer tok-123")
	}
}

func TestDo_EmptyTokenSendsNoAuthHeader(t *testing.T) {
	var hadAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := api.New(srv.URL, api.WithTokenSource(staticToken("")))
	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
	if hadAuth {
		t.Error("empty token must not produce an Authorization header")
	}
}

func TestDo_NonSuccessBecomesRequestError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "session not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := api.New(srv.URL)
	_, err := client.SessionMessages(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected an error for a 404")
	}

	var reqErr *api.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("err = %T, want *RequestError", err)
	}
	if reqErr.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", reqErr.StatusCode)
	}
	if !api.IsStatus(err, http.StatusNotFound) {
		t.Error("IsStatus should match the 404")
	}
	if api.IsStatus(err, http.StatusUnauthorized) {
		t.Error("IsStatus must not match a different code")
	}
}

func TestMe_AuthFailureDegradesWithoutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := api.New(srv.URL, api.WithTokenSource(staticToken("expired")))
	user, ok, err := client.Me(context.Background())
	if err != nil {
		t.Fatalf("auth rejection must not surface as an error, got %v", err)
	}
	if ok || user != nil {
		t.Errorf("expected (nil, false), got (%+v, %v)", user, ok)
	}
}

func TestMe_ReturnsUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.AuthUser{ID: "u9", Email: "u9@example.com"})
	}))
	defer srv.Close()

	client := api.New(srv.URL, api.WithTokenSource(staticToken("good")))
	user, ok, err := client.Me(context.Background())
	if err != nil || !ok {
		t.Fatalf("me: ok=%v err=%v", ok, err)
	}
	if user.ID != "u9" {
		t.Errorf("user ID = %q, want u9", user.ID)
	}
}

func TestListSessions_EncodesUserID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("user_id"); got != "anon 42" {
			t.Errorf("user_id = %q, want %q", got, "anon 42")
		}
		json.NewEncoder(w).Encode([]api.Session{
			{ID: "s1", Title: "First chat", Timestamp: 1700000000000},
		})
	}))
	defer srv.Close()

	client := api.New(srv.URL)
	sessions, err := client.ListSessions(context.Background(), "anon 42")
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != "s1" {
		t.Errorf("unexpected sessions: %+v", sessions)
	}
}

func TestCreateSession_PostsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q, want application/json", ct)
		}
		var req api.CreateSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if req.Message != "hello" || req.UserID != "u1" {
			t.Errorf("unexpected request: %+v", req)
		}
		json.NewEncoder(w).Encode(api.Session{ID: "s-new", Title: "hello"})
	}))
	defer srv.Close()

	client := api.New(srv.URL)
	session, err := client.CreateSession(context.Background(), api.CreateSessionRequest{
		Message: "hello",
		UserID:  "u1",
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.ID != "s-new" {
		t.Errorf("session ID = %q, want s-new", session.ID)
	}
}

func TestSessionMessages_PathEscapesID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.EscapedPath(); got != "/api/sessions/s%201/messages" {
			t.Errorf("path = %q, want escaped session id", got)
		}
		json.NewEncoder(w).Encode([]api.MessageRecord{
			{Role: "user", Content: "hi", Timestamp: 1},
			{Role: "assistant", Content: "hello", Timestamp: 2},
		})
	}))
	defer srv.Close()

	client := api.New(srv.URL)
	msgs, err := client.SessionMessages(context.Background(), "s 1")
	if err != nil {
		t.Fatalf("session messages: %v", err)
	}
	if len(msgs) != 2 || msgs[1].Role != "assistant" {
		t.Errorf("unexpected messages: %+v", msgs)
	}
}

func TestSuggestions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req api.SuggestionsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if req.UserID != "u1" {
			t.Errorf("user_id = %q, want u1", req.UserID)
		}
		json.NewEncoder(w).Encode(api.SuggestionsResponse{
			Suggestions: []string{"Plan my week", "Summarize this doc"},
		})
	}))
	defer srv.Close()

	client := api.New(srv.URL)
	resp, err := client.Suggestions(context.Background(), "u1")
	if err != nil {
		t.Fatalf("suggestions: %v", err)
	}
	if len(resp.Suggestions) != 2 {
		t.Errorf("got %d suggestions, want 2", len(resp.Suggestions))
	}
}

func TestMigrateUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req api.MigrateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if req.AnonymousUserID != "anon-7" {
			t.Errorf("anonymous_user_id = %q, want anon-7", req.AnonymousUserID)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := api.New(srv.URL)
	if err := client.MigrateUser(context.Background(), "anon-7"); err != nil {
		t.Fatalf("migrate user: %v", err)
	}
}
