// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat REPL for stellarum.
//
// Command: chat (also the default with no arguments)
//
// Interactive commands:
//   /chats              List conversations
//   /switch <id>        Switch to a conversation
//   /new [title]        Create a conversation and switch to it
//   /rename <id> <title> Rename a conversation
//   /rm <id>            Remove a conversation
//   /help, /h           Show interactive commands
//   /quit, /q           Exit (also Ctrl+D)

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/morganforge/stellarum-tui/internal/config"
	"github.com/morganforge/stellarum-tui/internal/model"
	"github.com/morganforge/stellarum-tui/internal/registry"
	"github.com/morganforge/stellarum-tui/internal/stream"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI wraps liner to provide input history and line editing.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a line reader with persistent history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads one line with history navigation.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists input history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and releases the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT SESSION
// =============================================================================

// chatSession holds the state of one interactive run.
type chatSession struct {
	app   *App
	reg   *registry.Registry
	strm  *stream.Stream
	input *ChatCLI
}

// RunChat runs the interactive chat until the user quits.
func (a *App) RunChat(ctx context.Context) error {
	if err := RequiresTTY("chat"); err != nil {
		return err
	}

	reg := a.newRegistry()
	reg.Load(ctx)

	// An empty loaded list still needs somewhere to type.
	if reg.Active() == nil {
		reg.Create(ctx, "")
	}

	strm := stream.New(stream.Options{
		Client:   a.client,
		Sessions: a.sessions,
		Cache:    a.cache,
		OnNotice: a.printNotice,
	})

	// Pick up logins and logouts done from another terminal.
	_ = a.sessions.Watch(nil)
	defer a.sessions.Unwatch()

	s := &chatSession{
		app:   a,
		reg:   reg,
		strm:  strm,
		input: NewChatCLI(),
	}
	defer s.input.Close()

	s.printBanner()
	if active := reg.Active(); active != nil {
		s.openConversation(ctx, active.ID)
	}

	return s.loop(ctx)
}

// printBanner shows the greeting and the current mode.
func (s *chatSession) printBanner() {
	out := s.app.stdout
	fmt.Fprintln(out, TitleStyle.Render("Stellarum"))
	if s.app.sessions.Get().Valid() {
		username := s.app.sessions.Identity().Username
		if username != "" {
			fmt.Fprintln(out, DimStyle.Render("Logged in as "+username+"."))
		}
	} else {
		fmt.Fprintln(out, DimStyle.Render("Offline mode. Run 'stellarum login' to sync with the server."))
	}
	fmt.Fprintln(out, DimStyle.Render("Type /help for commands, /quit to exit."))
	fmt.Fprintln(out)
}

// loop reads input until quit or EOF.
func (s *chatSession) loop(ctx context.Context) error {
	for {
		input, err := s.input.ReadInput("you> ")
		if errors.Is(err, liner.ErrPromptAborted) {
			// Ctrl+C clears the line.
			continue
		}
		if err != nil {
			// Ctrl+D or closed stdin.
			fmt.Fprintln(s.app.stdout)
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if quit := s.handleCommand(ctx, input); quit {
				return nil
			}
			continue
		}

		s.send(ctx, input)
	}
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleCommand dispatches a /command line. Returns true when the session
// should end.
func (s *chatSession) handleCommand(ctx context.Context, input string) bool {
	out := s.app.stdout
	fields := strings.Fields(input)
	cmd := fields[0]

	switch cmd {
	case "/quit", "/q", "/exit":
		return true

	case "/help", "/h":
		fmt.Fprintln(out, DimStyle.Render(`  /chats               List conversations
  /switch <id>         Switch to a conversation
  /new [title]         Create a conversation
  /rename <id> <title> Rename a conversation
  /rm <id>             Remove a conversation
  /quit                Exit`))

	case "/chats":
		s.printChats()

	case "/switch":
		id, ok := s.parseID(fields, "/switch <id>")
		if !ok {
			return false
		}
		if err := s.reg.Select(id); err != nil {
			s.printError(err)
			return false
		}
		s.openConversation(ctx, id)

	case "/new":
		title := strings.Join(fields[1:], " ")
		conv := s.reg.Create(ctx, title)
		fmt.Fprintln(out, SuccessStyle.Render("Created \""+conv.Title+"\""))
		s.openConversation(ctx, conv.ID)

	case "/rename":
		id, ok := s.parseID(fields, "/rename <id> <title>")
		if !ok {
			return false
		}
		title := strings.Join(fields[2:], " ")
		if err := s.reg.Rename(ctx, id, title); err != nil {
			s.printError(err)
			return false
		}
		fmt.Fprintln(out, SuccessStyle.Render("Renamed."))

	case "/rm":
		id, ok := s.parseID(fields, "/rm <id>")
		if !ok {
			return false
		}
		before := s.activeID()
		if err := s.reg.Remove(ctx, id); err != nil {
			s.printError(err)
			return false
		}
		fmt.Fprintln(out, SuccessStyle.Render("Removed."))
		if after := s.activeID(); after != 0 && after != before {
			s.openConversation(ctx, after)
		}

	default:
		fmt.Fprintln(out, WarningStyle.Render("Unknown command "+cmd+". Type /help."))
	}
	return false
}

// parseID extracts the integer id argument of a slash command.
func (s *chatSession) parseID(fields []string, usage string) (int64, bool) {
	if len(fields) < 2 {
		fmt.Fprintln(s.app.stdout, WarningStyle.Render("Usage: "+usage))
		return 0, false
	}
	id, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		fmt.Fprintln(s.app.stdout, WarningStyle.Render("Conversation id must be a number."))
		return 0, false
	}
	return id, true
}

func (s *chatSession) activeID() int64 {
	if active := s.reg.Active(); active != nil {
		return active.ID
	}
	return 0
}

func (s *chatSession) printError(err error) {
	fmt.Fprintln(s.app.stdout, ErrorStyle.Render(err.Error()))
}

func (s *chatSession) printChats() {
	out := s.app.stdout
	active := s.reg.Active()
	for _, c := range s.reg.Chats() {
		fmt.Fprintln(out, formatChatLine(c, active != nil && c.ID == active.ID))
	}
}

// =============================================================================
// CONVERSATION RENDERING
// =============================================================================

// openConversation loads a conversation into the stream and prints its log.
func (s *chatSession) openConversation(ctx context.Context, id int64) {
	s.strm.Load(ctx, id)

	out := s.app.stdout
	title := ""
	if conv := s.reg.Active(); conv != nil {
		title = conv.Title
	}
	fmt.Fprintln(out, RenderSeparator())
	fmt.Fprintln(out, TitleStyle.Render(title))
	for _, msg := range s.strm.Messages() {
		fmt.Fprintln(out, RenderMessage(msg))
	}
}

// send submits one user turn and prints what the stream appended.
func (s *chatSession) send(ctx context.Context, text string) {
	before := len(s.strm.Messages())

	if err := s.strm.Send(ctx, text); err != nil {
		s.printError(err)
		return
	}

	// The user's own line was just typed; print only the reply side.
	msgs := s.strm.Messages()
	for _, msg := range msgs[before:] {
		if msg.Role == model.RoleUser {
			continue
		}
		fmt.Fprintln(s.app.stdout, RenderMessage(msg))
	}
}
