// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewLocalConversation(t *testing.T) {
	before := time.Now().UnixMilli()
	conv := NewLocalConversation("Design tips")
	after := time.Now().UnixMilli()

	if conv.Origin != OriginLocal {
		t.Errorf("Origin = %q, want %q", conv.Origin, OriginLocal)
	}
	if !conv.IsLocal() {
		t.Error("IsLocal() = false, want true")
	}
	if conv.ID < before || conv.ID > after {
		t.Errorf("ID = %d, want timestamp between %d and %d", conv.ID, before, after)
	}
	if conv.Title != "Design tips" {
		t.Errorf("Title = %q", conv.Title)
	}
}

func TestNewLocalConversation_DefaultTitle(t *testing.T) {
	conv := NewLocalConversation("")
	if conv.Title != DefaultTitle {
		t.Errorf("Title = %q, want %q", conv.Title, DefaultTitle)
	}
}

func TestValidateTitle(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		wantErr bool
	}{
		{"minimum length", "abc", false},
		{"normal", "Project notes", false},
		{"maximum length", strings.Repeat("x", 50), false},
		{"too short", "ab", true},
		{"empty", "", true},
		{"too long", strings.Repeat("x", 51), true},
		{"unicode counted in runes", strings.Repeat("я", 50), false},
		{"unicode too long", strings.Repeat("я", 51), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTitle(tt.title)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTitle(%q) error = %v, wantErr %v", tt.title, err, tt.wantErr)
			}
			if err != nil {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Errorf("error type = %T, want *ValidationError", err)
				}
			}
		})
	}
}

func TestSortMessages(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	msgs := []*Message{
		{ID: "c", Timestamp: base.Add(2 * time.Second)},
		{ID: "a", Timestamp: base},
		{ID: "b", Timestamp: base.Add(time.Second)},
	}

	SortMessages(msgs)

	got := msgs[0].ID + msgs[1].ID + msgs[2].ID
	if got != "abc" {
		t.Errorf("order = %q, want abc", got)
	}
}

func TestSortMessages_StableOnTies(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	msgs := []*Message{
		{ID: "first", Timestamp: ts},
		{ID: "second", Timestamp: ts},
	}

	SortMessages(msgs)

	if msgs[0].ID != "first" || msgs[1].ID != "second" {
		t.Error("equal timestamps should keep arrival order")
	}
}

func TestRoleDisplayName(t *testing.T) {
	if RoleAssistant.String() != "ai" {
		t.Errorf("RoleAssistant = %q, want ai", RoleAssistant)
	}
	if RoleUser.DisplayName() != "You" {
		t.Errorf("DisplayName = %q", RoleUser.DisplayName())
	}
}
