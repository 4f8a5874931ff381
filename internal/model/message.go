// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message. The backend reports "assistant" /
// "system" / "user"; locally the assistant role is stored as "ai" and failed
// sends produce "error" messages.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "ai"
	RoleSystem    Role = "system"
	RoleError     Role = "error"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Stellarum"
	case RoleSystem:
		return "System"
	case RoleError:
		return "Error"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single entry in a conversation's ordered log. Messages are
// ordered ascending by Timestamp within one conversation; IDs are unique
// within a conversation but not globally.
type Message struct {
	ID             string    `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewMessage creates a message with a generated ID and the current time.
func NewMessage(conversationID int64, role Role, content string) *Message {
	return &Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Timestamp:      time.Now(),
	}
}

// NewUserMessage creates a user message for the optimistic append.
func NewUserMessage(conversationID int64, content string) *Message {
	return NewMessage(conversationID, RoleUser, content)
}

// NewAssistantMessage creates an assistant reply message.
func NewAssistantMessage(conversationID int64, content string) *Message {
	return NewMessage(conversationID, RoleAssistant, content)
}

// NewErrorMessage creates the terminal error message for a failed send.
func NewErrorMessage(conversationID int64, content string) *Message {
	return NewMessage(conversationID, RoleError, content)
}

// SortMessages orders messages ascending by timestamp. The sort is stable so
// messages sharing a timestamp keep their arrival order.
func SortMessages(msgs []*Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
}
