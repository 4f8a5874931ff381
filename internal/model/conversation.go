// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"time"

	"github.com/morganforge/stellarum-tui/internal/util"
)

// Title length bounds for user-edited conversation titles, in runes.
const (
	MinTitleLen = 3
	MaxTitleLen = 50
)

// DefaultTitle is the title given to conversations created without one.
const DefaultTitle = "New chat"

// =============================================================================
// ORIGIN TYPE
// =============================================================================

// Origin distinguishes server-confirmed conversations from locally
// synthesized fallback records.
type Origin string

const (
	// OriginServer marks a conversation returned or confirmed by the backend.
	OriginServer Origin = "server"

	// OriginLocal marks a conversation created while no valid credential was
	// available (or after a failed create). Local conversations never appear
	// in server listings.
	OriginLocal Origin = "local"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is one entry in the chat registry.
//
// Server-assigned IDs are integers; locally synthesized conversations use the
// creation time in unix milliseconds, which keeps the two ID spaces disjoint
// in practice and sortable.
type Conversation struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	Origin    Origin    `json:"origin"`
}

// NewLocalConversation creates a fallback conversation with a
// client-generated timestamp ID.
func NewLocalConversation(title string) *Conversation {
	now := time.Now()
	if title == "" {
		title = DefaultTitle
	}
	return &Conversation{
		ID:        now.UnixMilli(),
		Title:     title,
		CreatedAt: now,
		Origin:    OriginLocal,
	}
}

// IsLocal reports whether the conversation was synthesized locally.
func (c *Conversation) IsLocal() bool {
	return c.Origin == OriginLocal
}

// =============================================================================
// TITLE VALIDATION
// =============================================================================

// ValidationError reports invalid user input. It is surfaced inline and never
// results in a network call.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateTitle checks a user-edited conversation title against the length
// bounds. Length is measured in runes so non-ASCII titles are not penalized.
func ValidateTitle(title string) error {
	n := util.RuneLen(title)
	if n < MinTitleLen {
		return &ValidationError{Field: "title", Message: fmt.Sprintf("must be at least %d characters", MinTitleLen)}
	}
	if n > MaxTitleLen {
		return &ValidationError{Field: "title", Message: fmt.Sprintf("must be at most %d characters", MaxTitleLen)}
	}
	return nil
}
