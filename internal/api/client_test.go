// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/morganforge/stellarum-tui/internal/model"
	"github.com/morganforge/stellarum-tui/internal/session"
)

// staticTokens is a TokenSource returning fixed credentials.
type staticTokens struct {
	creds session.Credentials
}

func (s staticTokens) Get() session.Credentials { return s.creds }

func authedClient(url string) *Client {
	return NewClient(url, time.Second, staticTokens{session.Credentials{AccessToken: "a1", RefreshToken: "r1"}})
}

// =============================================================================
// AUTH TESTS
// =============================================================================

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/token/" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q, want form encoding", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.PostForm.Get("username") != "demo" || r.PostForm.Get("password") != "pw" {
			t.Errorf("form = %v", r.PostForm)
		}
		if r.PostForm.Get("grant_type") != "password" {
			t.Errorf("grant_type = %q", r.PostForm.Get("grant_type"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"a1","refresh_token":"r1"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil)
	creds, err := c.Login(context.Background(), "demo", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if creds.AccessToken != "a1" || creds.RefreshToken != "r1" {
		t.Errorf("credentials = %+v", creds)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Incorrect username or password"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil)
	_, err := c.Login(context.Background(), "demo", "wrong")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T", err)
	}
	if apiErr.Status != http.StatusUnauthorized {
		t.Errorf("Status = %d", apiErr.Status)
	}
	if apiErr.Message != "Incorrect username or password" {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name                        string
		username, password, confirm string
		wantErr                     bool
	}{
		{"valid", "demo", "secret", "secret", false},
		{"short username", "ab", "secret", "secret", true},
		{"short password", "demo", "ab", "ab", true},
		{"mismatch", "demo", "secret", "secrets", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegistration(tt.username, tt.password, tt.confirm)
			if (err != nil) != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var verr *model.ValidationError
				if !errors.As(err, &verr) {
					t.Errorf("error type = %T, want *model.ValidationError", err)
				}
			}
		})
	}
}

func TestRegister_ValidationSkipsNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil)
	if err := c.Register(context.Background(), "ab", "pw", "pw"); err == nil {
		t.Fatal("expected validation error")
	}
	if called {
		t.Error("invalid registration should not reach the server")
	}
}

// =============================================================================
// BEARER AND AUTH GATING
// =============================================================================

func TestListChats_AttachesBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer a1" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	if _, err := authedClient(srv.URL).ListChats(context.Background()); err != nil {
		t.Fatalf("ListChats: %v", err)
	}
}

func TestListChats_NoCredentials(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, staticTokens{})
	_, err := c.ListChats(context.Background())
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("error = %v, want ErrNotAuthenticated", err)
	}
	if called {
		t.Error("unauthenticated call should skip the network")
	}
}

// =============================================================================
// CLASSIFICATION TESTS
// =============================================================================

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{"nil", nil, OutcomeOK},
		{"401", &Error{Status: 401}, OutcomeAuthExpired},
		{"429", &Error{Status: 429}, OutcomeTransient},
		{"500", &Error{Status: 500}, OutcomeTransient},
		{"503", &Error{Status: 503}, OutcomeTransient},
		{"400", &Error{Status: 400}, OutcomeInvalid},
		{"404", &Error{Status: 404}, OutcomeInvalid},
		{"network", errors.New("dial tcp: connection refused"), OutcomeTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"fastapi detail array", `{"detail":[{"msg":"field required"}]}`, "field required"},
		{"detail string", `{"detail":"Chat not found"}`, "Chat not found"},
		{"message field", `{"message":"nope"}`, "nope"},
		{"wrapped error", `{"error":{"message":"broken"}}`, "broken"},
		{"raw text", `gateway exploded`, "gateway exploded"},
		{"empty body", ``, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractErrorMessage(http.StatusInternalServerError, []byte(tt.body))
			if got != tt.want {
				t.Errorf("extractErrorMessage = %q, want %q", got, tt.want)
			}
		})
	}
}

// =============================================================================
// NORMALIZATION TESTS
// =============================================================================

func TestListChats_Shapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bare array", `[{"id":1,"title":"T","created_at":"2024-01-01T00:00:00Z"}]`},
		{"items wrapper", `{"items":[{"id":1,"title":"T"}]}`},
		{"data wrapper", `{"data":[{"id":1,"title":"T"}]}`},
		{"results wrapper", `{"results":[{"id":1,"title":"T"}]}`},
		{"chats wrapper", `{"chats":[{"id":1,"title":"T"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			convs, err := authedClient(srv.URL).ListChats(context.Background())
			if err != nil {
				t.Fatalf("ListChats: %v", err)
			}
			if len(convs) != 1 {
				t.Fatalf("len = %d, want 1", len(convs))
			}
			if convs[0].ID != 1 || convs[0].Title != "T" {
				t.Errorf("conversation = %+v", convs[0])
			}
			if convs[0].Origin != model.OriginServer {
				t.Errorf("Origin = %q, want server", convs[0].Origin)
			}
		})
	}
}

func TestListChats_UnrecognizedShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"surprise":42}`))
	}))
	defer srv.Close()

	_, err := authedClient(srv.URL).ListChats(context.Background())
	if err == nil {
		t.Fatal("expected error for unrecognized shape")
	}
	if !IsTransient(err) {
		t.Errorf("parse failure should classify transient, got %v", Classify(err))
	}
}

func TestListMessages_FieldVariants(t *testing.T) {
	body := `{"messages":[
		{"id":10,"role":"user","data":"hello","changed_at":"2024-01-01T00:00:00Z"},
		{"id":11,"role":"assistant","content":"hi","created_at":"2024-01-01T00:00:01Z"},
		{"id":12,"role":"system","data":"joined","changed_at":"2024-01-01T00:00:02Z"},
		{"id":13,"role":"tool","data":"?","changed_at":"2024-01-01T00:00:03Z"}
	]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat/messages/7" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(body))
	}))
	defer srv.Close()

	msgs, err := authedClient(srv.URL).ListMessages(context.Background(), 7)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 4 {
		t.Fatalf("len = %d, want 4", len(msgs))
	}

	if msgs[0].ID != "10" || msgs[0].Role != model.RoleUser || msgs[0].Content != "hello" {
		t.Errorf("msg[0] = %+v", msgs[0])
	}
	if msgs[1].Role != model.RoleAssistant || msgs[1].Content != "hi" {
		t.Errorf("content fallback: msg[1] = %+v", msgs[1])
	}
	want := time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC)
	if !msgs[1].Timestamp.Equal(want) {
		t.Errorf("created_at fallback: Timestamp = %v, want %v", msgs[1].Timestamp, want)
	}
	if msgs[2].Role != model.RoleSystem {
		t.Errorf("msg[2].Role = %q", msgs[2].Role)
	}
	// Unknown roles normalize to user.
	if msgs[3].Role != model.RoleUser {
		t.Errorf("msg[3].Role = %q", msgs[3].Role)
	}
	for _, m := range msgs {
		if m.ConversationID != 7 {
			t.Errorf("ConversationID = %d", m.ConversationID)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		zero bool
	}{
		{"2024-01-01T00:00:00Z", false},
		{"2024-01-01T00:00:00.123456Z", false},
		{"2024-01-01T00:00:00", false},
		{"2024-01-01T00:00:00.123456", false},
		{"", true},
		{"yesterday", true},
	}
	for _, tt := range tests {
		got := parseTimestamp(tt.in)
		if got.IsZero() != tt.zero {
			t.Errorf("parseTimestamp(%q) = %v, zero = %v", tt.in, got, tt.zero)
		}
	}
}

// =============================================================================
// CHAT MUTATION TESTS
// =============================================================================

func TestRenameChat_QueryParameter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/api/chat/3" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("new_chat_title"); got != "New name" {
			t.Errorf("new_chat_title = %q", got)
		}
		w.Write([]byte(`{"title":"New name"}`))
	}))
	defer srv.Close()

	if err := authedClient(srv.URL).RenameChat(context.Background(), 3, "New name"); err != nil {
		t.Fatalf("RenameChat: %v", err)
	}
}

func TestDeleteChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/chat/3" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := authedClient(srv.URL).DeleteChat(context.Background(), 3); err != nil {
		t.Fatalf("DeleteChat: %v", err)
	}
}

func TestSendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chat/messages/1" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"question":"hello","answer":"hi","changed_at":"2024-01-01T00:00:00Z"}`))
	}))
	defer srv.Close()

	res, err := authedClient(srv.URL).SendMessage(context.Background(), 1, "hello")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if res.Question != "hello" || res.Answer != "hi" {
		t.Errorf("result = %+v", res)
	}
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !res.ChangedAt.Equal(want) {
		t.Errorf("ChangedAt = %v, want %v", res.ChangedAt, want)
	}
}
