// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/morganforge/stellarum-tui/internal/model"
)

// The backend has emitted list payloads both bare and wrapped under various
// keys across versions. This file is the single adapter boundary: everything
// past it works with model types and never inspects payload shape again.

// listWrapperKeys are the envelope keys tried, in order, when a list payload
// is not a bare array.
var listWrapperKeys = []string{"items", "data", "results", "messages", "chats"}

// decodeList returns the raw elements of a list payload, unwrapping known
// envelope shapes. An unrecognizable shape is an error, classified transient.
func decodeList(body []byte) ([]json.RawMessage, error) {
	var bare []json.RawMessage
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapped); err == nil {
		for _, key := range listWrapperKeys {
			raw, ok := wrapped[key]
			if !ok {
				continue
			}
			var items []json.RawMessage
			if err := json.Unmarshal(raw, &items); err == nil {
				return items, nil
			}
		}
	}

	return nil, fmt.Errorf("unrecognized list shape in response")
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// wireChat is a conversation row as the backend sends it.
type wireChat struct {
	ID        json.Number `json:"id"`
	Title     string      `json:"title"`
	CreatedAt string      `json:"created_at"`
}

// decodeConversations normalizes a chat list payload. Server order is
// preserved; every row gets origin=server.
func decodeConversations(body []byte) ([]*model.Conversation, error) {
	items, err := decodeList(body)
	if err != nil {
		return nil, err
	}
	convs := make([]*model.Conversation, 0, len(items))
	for _, raw := range items {
		conv, err := decodeConversation(raw)
		if err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	return convs, nil
}

// decodeConversation normalizes a single conversation object.
func decodeConversation(raw []byte) (*model.Conversation, error) {
	var wc wireChat
	if err := json.Unmarshal(raw, &wc); err != nil {
		return nil, fmt.Errorf("unrecognized conversation shape: %w", err)
	}
	id, err := wc.ID.Int64()
	if err != nil {
		return nil, fmt.Errorf("conversation id %q is not an integer", wc.ID.String())
	}
	return &model.Conversation{
		ID:        id,
		Title:     wc.Title,
		CreatedAt: parseTimestamp(wc.CreatedAt),
		Origin:    model.OriginServer,
	}, nil
}

// =============================================================================
// MESSAGES
// =============================================================================

// wireMessage is a message row as the backend sends it. The body arrives
// under "data" in current versions and "content" in older ones; timestamps
// as "changed_at" or "created_at".
type wireMessage struct {
	ID        json.Number `json:"id"`
	Role      string      `json:"role"`
	Data      *string     `json:"data"`
	Content   *string     `json:"content"`
	ChangedAt string      `json:"changed_at"`
	CreatedAt string      `json:"created_at"`
}

// decodeMessages normalizes a message list payload for one conversation.
func decodeMessages(body []byte, conversationID int64) ([]*model.Message, error) {
	items, err := decodeList(body)
	if err != nil {
		return nil, err
	}
	msgs := make([]*model.Message, 0, len(items))
	for _, raw := range items {
		var wm wireMessage
		if err := json.Unmarshal(raw, &wm); err != nil {
			return nil, fmt.Errorf("unrecognized message shape: %w", err)
		}

		content := ""
		if wm.Data != nil {
			content = *wm.Data
		} else if wm.Content != nil {
			content = *wm.Content
		}

		ts := wm.ChangedAt
		if ts == "" {
			ts = wm.CreatedAt
		}

		msgs = append(msgs, &model.Message{
			ID:             messageID(wm.ID),
			ConversationID: conversationID,
			Role:           mapRole(wm.Role),
			Content:        content,
			Timestamp:      parseTimestamp(ts),
		})
	}
	return msgs, nil
}

// messageID renders a server message id as the decimal string used locally.
func messageID(n json.Number) string {
	if id, err := n.Int64(); err == nil {
		return strconv.FormatInt(id, 10)
	}
	return n.String()
}

// mapRole converts a server role into the local three-way mapping. Unknown
// roles count as user: the backend only distinguishes its own replies.
func mapRole(role string) model.Role {
	switch role {
	case "assistant", "ai":
		return model.RoleAssistant
	case "system":
		return model.RoleSystem
	default:
		return model.RoleUser
	}
}

// timestampLayouts are the formats the backend has been seen to emit.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999", // naive datetime, no zone
	"2006-01-02T15:04:05",
}

// parseTimestamp parses a server timestamp, returning the zero time when the
// value is empty or unparseable. Naive datetimes are taken as UTC.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
