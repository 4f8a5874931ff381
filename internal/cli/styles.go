// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - lipgloss styles shared by all stellarum commands.

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/stellarum-tui/internal/model"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	// TitleStyle renders command headers.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")) // Cyan

	// LabelStyle renders field labels in key/value output.
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")) // Light gray

	// ValueStyle renders field values.
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")) // White

	// SuccessStyle renders confirmation lines.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")). // Green
			Bold(true)

	// ErrorStyle renders failures.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")). // Red
			Bold(true)

	// WarningStyle renders degraded-but-working conditions.
	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // Amber

	// DimStyle renders secondary detail.
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	// PromptStyle renders the REPL input prompt.
	PromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	// AssistantStyle renders assistant speaker labels.
	AssistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")). // Purple
			Bold(true)

	// UserStyle renders the user's speaker label.
	UserStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")).
			Bold(true)
)

// ConfigureColorProfile applies the detected terminal profile to the
// lipgloss renderer. After this, styled output degrades to plain text for
// piped stdout and when NO_COLOR is set.
func ConfigureColorProfile() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// RenderSeparator returns a horizontal rule sized to the terminal.
func RenderSeparator() string {
	width := GetTerminalWidth()
	if width > 100 {
		width = 100
	}
	return DimStyle.Render(strings.Repeat("─", width))
}

// RenderNotice formats a sync-layer notice for the terminal. Session
// expiry is an error, everything else is a warning.
func RenderNotice(n model.Notice) string {
	switch n.Kind {
	case model.NoticeSessionExpired:
		return ErrorStyle.Render("! " + n.Message)
	default:
		return WarningStyle.Render("! " + n.Message)
	}
}

// speakerStyle returns the label style for a message role.
func speakerStyle(role model.Role) lipgloss.Style {
	switch role {
	case model.RoleUser:
		return UserStyle
	case model.RoleError:
		return ErrorStyle
	case model.RoleSystem:
		return DimStyle
	default:
		return AssistantStyle
	}
}

// RenderMessage formats one chat message: a styled speaker label followed by
// the wrapped content.
func RenderMessage(msg *model.Message) string {
	label := speakerStyle(msg.Role).Render(msg.Role.DisplayName() + ":")
	return label + " " + WrapText(msg.Content, 0)
}
