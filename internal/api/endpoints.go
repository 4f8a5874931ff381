// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/morganforge/stellarum-tui/internal/model"
	"github.com/morganforge/stellarum-tui/internal/session"
)

// MinCredentialLen is the minimum rune length for usernames and passwords at
// registration.
const MinCredentialLen = 3

// =============================================================================
// AUTH
// =============================================================================

// tokenResponse is the login endpoint's success shape.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Login exchanges a username and password for a token pair. The endpoint
// speaks OAuth2 password-grant form encoding, not JSON.
func (c *Client) Login(ctx context.Context, username, password string) (session.Credentials, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	form.Set("grant_type", "password")

	body, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/auth/token/",
		form:   form,
	})
	if err != nil {
		return session.Credentials{}, err
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return session.Credentials{}, fmt.Errorf("unrecognized token response: %w", err)
	}
	if tr.AccessToken == "" {
		return session.Credentials{}, fmt.Errorf("token response missing access_token")
	}
	return session.Credentials{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
	}, nil
}

// ValidateRegistration checks registration input locally. Username and
// password must be at least 3 characters and the confirmation must match.
// Returns *model.ValidationError; no network call is made.
func ValidateRegistration(username, password, confirm string) error {
	if len([]rune(username)) < MinCredentialLen {
		return &model.ValidationError{Field: "username", Message: "must be at least 3 characters"}
	}
	if len([]rune(password)) < MinCredentialLen {
		return &model.ValidationError{Field: "password", Message: "must be at least 3 characters"}
	}
	if password != confirm {
		return &model.ValidationError{Field: "password", Message: "passwords do not match"}
	}
	return nil
}

// Register creates a new account. Input is validated locally first.
func (c *Client) Register(ctx context.Context, username, password, confirm string) error {
	if err := ValidateRegistration(username, password, confirm); err != nil {
		return err
	}
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/users/",
		body: map[string]string{
			"username": username,
			"password": password,
		},
	})
	return err
}

// =============================================================================
// CHATS
// =============================================================================

// ListChats fetches the server's conversation list, normalized, in server
// order.
func (c *Client) ListChats(ctx context.Context) ([]*model.Conversation, error) {
	body, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/chat/",
		authed: true,
	})
	if err != nil {
		return nil, err
	}
	return decodeConversations(body)
}

// CreateChat creates a conversation on the server.
func (c *Client) CreateChat(ctx context.Context, title string) (*model.Conversation, error) {
	body, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/chat/",
		body:   map[string]string{"title": title},
		authed: true,
	})
	if err != nil {
		return nil, err
	}
	return decodeConversation(body)
}

// RenameChat updates a conversation title. The backend takes the new title
// as a query parameter, not a body.
func (c *Client) RenameChat(ctx context.Context, id int64, title string) error {
	query := url.Values{}
	query.Set("new_chat_title", title)
	_, err := c.do(ctx, request{
		method: http.MethodPatch,
		path:   "/api/chat/" + strconv.FormatInt(id, 10),
		query:  query,
		authed: true,
	})
	return err
}

// DeleteChat removes a conversation and its messages on the server.
func (c *Client) DeleteChat(ctx context.Context, id int64) error {
	_, err := c.do(ctx, request{
		method: http.MethodDelete,
		path:   "/api/chat/" + strconv.FormatInt(id, 10),
		authed: true,
	})
	return err
}

// =============================================================================
// MESSAGES
// =============================================================================

// ListMessages fetches the message log for one conversation, normalized.
// Ordering is the caller's concern.
func (c *Client) ListMessages(ctx context.Context, chatID int64) ([]*model.Message, error) {
	body, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/chat/messages/" + strconv.FormatInt(chatID, 10),
		authed: true,
	})
	if err != nil {
		return nil, err
	}
	return decodeMessages(body, chatID)
}

// SendResult is the backend's reply to a sent message.
type SendResult struct {
	Question  string
	Answer    string
	ChangedAt time.Time
}

// sendResponse is the wire shape of a send reply.
type sendResponse struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	ChangedAt string `json:"changed_at"`
}

// SendMessage posts a user message and returns the model's answer.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) (*SendResult, error) {
	body, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/chat/messages/" + strconv.FormatInt(chatID, 10),
		body:   map[string]string{"message": text},
		authed: true,
	})
	if err != nil {
		return nil, err
	}

	var sr sendResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("unrecognized send response: %w", err)
	}
	return &SendResult{
		Question:  sr.Question,
		Answer:    sr.Answer,
		ChangedAt: parseTimestamp(sr.ChangedAt),
	}, nil
}
