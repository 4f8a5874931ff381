// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"
	"testing"

	"github.com/muesli/termenv"

	"github.com/morganforge/stellarum-tui/internal/model"
)

// =============================================================================
// COMMAND PARSING
// =============================================================================

func TestParseArgs_Commands(t *testing.T) {
	tests := []struct {
		argv []string
		want Command
	}{
		{nil, CmdChat},
		{[]string{"chat"}, CmdChat},
		{[]string{"login"}, CmdLogin},
		{[]string{"login", "alice"}, CmdLogin},
		{[]string{"register"}, CmdRegister},
		{[]string{"logout"}, CmdLogout},
		{[]string{"whoami"}, CmdWhoami},
		{[]string{"chats"}, CmdChats},
		{[]string{"list"}, CmdChats},
		{[]string{"config", "show"}, CmdConfig},
		{[]string{"version"}, CmdVersion},
		{[]string{"--version"}, CmdVersion},
		{[]string{"help"}, CmdHelp},
		{[]string{"-h"}, CmdHelp},
		{[]string{"bogus"}, CmdHelp},
	}

	for _, tt := range tests {
		args := ParseArgs(tt.argv)
		if args.Command != tt.want {
			t.Errorf("ParseArgs(%v) = %v, want %v", tt.argv, args.Command, tt.want)
		}
	}
}

func TestParseArgs_PassesRestToParser(t *testing.T) {
	args := ParseArgs([]string{"login", "alice"})
	if got := args.Parser.Positional(0); got != "alice" {
		t.Errorf("Positional(0) = %q, want %q", got, "alice")
	}

	args = ParseArgs([]string{"config", "set", "ui.theme", "light"})
	if got := args.Parser.Subcommand(); got != "set" {
		t.Errorf("Subcommand() = %q, want %q", got, "set")
	}
	if got := args.Parser.Positional(2); got != "light" {
		t.Errorf("Positional(2) = %q, want %q", got, "light")
	}
}

// =============================================================================
// ARG PARSER
// =============================================================================

func TestArgParser_Flags(t *testing.T) {
	p := NewArgParser([]string{"show", "--lines", "50", "--since=2024-01-01", "--json"})

	if p.Subcommand() != "show" {
		t.Errorf("Subcommand() = %q", p.Subcommand())
	}
	if got := p.Flag("lines"); got != "50" {
		t.Errorf("Flag(lines) = %q", got)
	}
	if got := p.Flag("since"); got != "2024-01-01" {
		t.Errorf("Flag(since) = %q", got)
	}
	if !p.BoolFlag("json") {
		t.Error("BoolFlag(json) = false, want true")
	}
	if p.BoolFlag("missing") {
		t.Error("BoolFlag(missing) = true, want false")
	}
}

func TestArgParser_ExplicitBool(t *testing.T) {
	p := NewArgParser([]string{"--json=false", "--verbose=true"})
	if p.BoolFlag("json") {
		t.Error("--json=false should be false")
	}
	if !p.BoolFlag("verbose") {
		t.Error("--verbose=true should be true")
	}
}

func TestArgParser_Positional(t *testing.T) {
	p := NewArgParser([]string{"set", "ui.theme", "light"})
	if p.PositionalCount() != 3 {
		t.Fatalf("PositionalCount() = %d, want 3", p.PositionalCount())
	}
	if got := p.Positional(1); got != "ui.theme" {
		t.Errorf("Positional(1) = %q", got)
	}
	if got := p.Positional(9); got != "" {
		t.Errorf("Positional(9) = %q, want empty", got)
	}
	if got := p.JoinPositionalFrom(1); got != "ui.theme light" {
		t.Errorf("JoinPositionalFrom(1) = %q", got)
	}
}

func TestArgParser_HasFlag(t *testing.T) {
	p := NewArgParser([]string{"--output", "file.json", "--confirm"})
	if !p.HasFlag("output") || !p.HasFlag("confirm") {
		t.Error("HasFlag missed a present flag")
	}
	if p.HasFlag("missing") {
		t.Error("HasFlag(missing) = true")
	}
}

func TestParseBoolString(t *testing.T) {
	trues := []string{"true", "YES", "y", "1", "on", " On "}
	for _, s := range trues {
		got, err := ParseBoolString(s)
		if err != nil || !got {
			t.Errorf("ParseBoolString(%q) = %v, %v; want true", s, got, err)
		}
	}
	falses := []string{"false", "no", "N", "0", "off"}
	for _, s := range falses {
		got, err := ParseBoolString(s)
		if err != nil || got {
			t.Errorf("ParseBoolString(%q) = %v, %v; want false", s, got, err)
		}
	}
	if _, err := ParseBoolString("maybe"); err == nil {
		t.Error("ParseBoolString(maybe) should fail")
	}
}

// =============================================================================
// RENDERING
// =============================================================================

func TestRenderNotice_CarriesMessage(t *testing.T) {
	out := RenderNotice(model.SessionExpiredNotice())
	if !strings.Contains(out, "session has expired") {
		t.Errorf("RenderNotice() = %q, missing message", out)
	}

	out = RenderNotice(model.TransientNotice())
	if !strings.Contains(out, "local data") {
		t.Errorf("RenderNotice() = %q, missing message", out)
	}
}

func TestRenderMessage_SpeakerLabels(t *testing.T) {
	msg := model.NewAssistantMessage(1, "hello there")
	out := RenderMessage(msg)
	if !strings.Contains(out, "Stellarum:") {
		t.Errorf("RenderMessage() = %q, missing assistant label", out)
	}
	if !strings.Contains(out, "hello there") {
		t.Errorf("RenderMessage() = %q, missing content", out)
	}

	out = RenderMessage(model.NewUserMessage(1, "hi"))
	if !strings.Contains(out, "You:") {
		t.Errorf("RenderMessage() = %q, missing user label", out)
	}
}

func TestWrapText(t *testing.T) {
	long := strings.Repeat("word ", 30)
	wrapped := WrapText(strings.TrimSpace(long), 40)
	for _, line := range strings.Split(wrapped, "\n") {
		if len(line) > 40 {
			t.Errorf("line longer than limit: %q", line)
		}
	}

	// Existing newlines survive.
	in := "a\nb"
	if got := WrapText(in, 40); got != in {
		t.Errorf("WrapText(%q) = %q", in, got)
	}
}

func TestWrapText_MeasuresRunes(t *testing.T) {
	// 30 runes, 60 bytes: byte-measured wrapping would split this line.
	in := strings.Repeat("é", 30)
	if got := WrapText(in, 40); got != in {
		t.Errorf("WrapText(%q) = %q, want unwrapped", in, got)
	}
}

func TestFormatChatLine(t *testing.T) {
	conv := &model.Conversation{ID: 42, Title: "Design tips", Origin: model.OriginLocal}

	line := formatChatLine(conv, true)
	if !strings.HasPrefix(line, "* ") {
		t.Errorf("active line = %q, want * marker", line)
	}
	if !strings.Contains(line, "42") || !strings.Contains(line, "Design tips") {
		t.Errorf("line = %q, missing id or title", line)
	}
	if !strings.Contains(line, "[local]") {
		t.Errorf("line = %q, missing local marker", line)
	}

	line = formatChatLine(conv, false)
	if !strings.HasPrefix(line, "  ") {
		t.Errorf("inactive line = %q, want no marker", line)
	}

	// Oversized titles are truncated for display.
	conv.Title = strings.Repeat("x", 100)
	line = formatChatLine(conv, false)
	if !strings.Contains(line, "...") || strings.Contains(line, conv.Title) {
		t.Errorf("line = %q, want truncated title", line)
	}
}

func TestGetColorProfile_NonTTYIsAscii(t *testing.T) {
	if IsStdoutTTY() || ColorsEnabled() {
		t.Skip("stdout is a terminal or colors are forced")
	}
	if got := GetColorProfile(); got != termenv.Ascii {
		t.Errorf("GetColorProfile() = %v, want Ascii", got)
	}
}

func TestConfigureColorProfile_PlainWhenColorsOff(t *testing.T) {
	if ColorsEnabled() {
		t.Skip("colors enabled in this environment")
	}
	ConfigureColorProfile()
	if got := ErrorStyle.Render("plain"); got != "plain" {
		t.Errorf("Render() = %q, want unstyled output", got)
	}
}
