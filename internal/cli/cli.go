// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command parsing and handlers for stellarum.
//
// Command: stellarum [command] [args]
//
// Commands:
//   chat (default)      Interactive chat REPL
//   login [username]    Obtain an access token and store the session
//   register            Create a backend account
//   logout              Discard the stored session
//   whoami              Show the current session identity
//   chats               List conversations
//   config [subcommand] View and modify configuration
//   version             Show version information
//   help                Show usage

package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/morganforge/stellarum-tui/internal/api"
	"github.com/morganforge/stellarum-tui/internal/config"
	"github.com/morganforge/stellarum-tui/internal/model"
	"github.com/morganforge/stellarum-tui/internal/registry"
	"github.com/morganforge/stellarum-tui/internal/session"
	"github.com/morganforge/stellarum-tui/internal/storage"
	"github.com/morganforge/stellarum-tui/internal/util"
)

// Version information (can be overridden at build time).
var (
	Version   = "0.2.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// COMMAND PARSING
// =============================================================================

// Command identifies the CLI command to execute.
type Command int

const (
	CmdChat Command = iota
	CmdLogin
	CmdRegister
	CmdLogout
	CmdWhoami
	CmdChats
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args is the parsed command line.
type Args struct {
	Command Command

	// Parser holds the arguments that followed the command name.
	Parser *ArgParser
}

// ParseArgs parses the arguments after the program name. No arguments means
// the interactive chat.
func ParseArgs(argv []string) Args {
	if len(argv) == 0 {
		return Args{Command: CmdChat, Parser: NewArgParser(nil)}
	}

	rest := argv[1:]
	switch argv[0] {
	case "chat":
		return Args{Command: CmdChat, Parser: NewArgParser(rest)}
	case "login":
		return Args{Command: CmdLogin, Parser: NewArgParser(rest)}
	case "register":
		return Args{Command: CmdRegister, Parser: NewArgParser(rest)}
	case "logout":
		return Args{Command: CmdLogout, Parser: NewArgParser(rest)}
	case "whoami":
		return Args{Command: CmdWhoami, Parser: NewArgParser(rest)}
	case "chats", "list":
		return Args{Command: CmdChats, Parser: NewArgParser(rest)}
	case "config":
		return Args{Command: CmdConfig, Parser: NewArgParser(rest)}
	case "version", "--version", "-v":
		return Args{Command: CmdVersion, Parser: NewArgParser(rest)}
	case "help", "--help", "-h":
		return Args{Command: CmdHelp, Parser: NewArgParser(rest)}
	default:
		return Args{Command: CmdHelp, Parser: NewArgParser(argv)}
	}
}

const usageText = `stellarum - terminal client for the Stellarum AI backend

Usage:
  stellarum                  Interactive chat (default)
  stellarum chat             Interactive chat
  stellarum login [user]     Log in and store the session
  stellarum register         Create an account
  stellarum logout           Discard the stored session
  stellarum whoami           Show the current session identity
  stellarum chats            List conversations
    --json                   Output in JSON format
  stellarum config [show|set|path|reset]
                             View and modify configuration
  stellarum version          Show version information
  stellarum help             Show this help

Config keys (stellarum config set <key> <value>):
  server.base_url            Backend base URL
  server.timeout_secs        HTTP timeout in seconds
  storage.data_dir           Directory for session and cache files
  chat.auto_create_on_empty  Recreate a chat when the list empties (true/false)
  chat.default_title         Title for chats created without one
  ui.theme                   dark, light, or auto

Interactive commands (during chat):
  /chats                     List conversations
  /switch <id>               Switch to a conversation
  /new [title]               Create a conversation
  /rename <id> <title>       Rename a conversation
  /rm <id>                   Remove a conversation
  /help                      Show interactive commands
  /quit                      Exit (also Ctrl+D)

Without a stored session the client works offline: conversations and
messages are kept in the local cache and replies come from the built-in
offline responder.
`

// =============================================================================
// APP
// =============================================================================

// App wires the configuration, session store, cache, and API client behind
// every command.
type App struct {
	cfg      *config.Config
	sessions *session.Store
	cache    *storage.Cache
	client   *api.Client

	stdout io.Writer
	stderr io.Writer
}

// NewApp builds the command environment from configuration.
func NewApp(cfg *config.Config) (*App, error) {
	ConfigureColorProfile()

	dataDir, err := cfg.DataDir()
	if err != nil {
		return nil, err
	}

	sessions, err := session.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	cache, err := storage.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening local cache: %w", err)
	}

	client := api.NewClient(cfg.Server.BaseURL, time.Duration(cfg.Server.TimeoutSecs)*time.Second, sessions)

	return &App{
		cfg:      cfg,
		sessions: sessions,
		cache:    cache,
		client:   client,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}, nil
}

// Close releases the app's resources.
func (a *App) Close() error {
	return a.cache.Close()
}

// Run dispatches a parsed command.
func (a *App) Run(ctx context.Context, args Args) error {
	switch args.Command {
	case CmdChat:
		return a.RunChat(ctx)
	case CmdLogin:
		return a.HandleLogin(ctx, args.Parser)
	case CmdRegister:
		return a.HandleRegister(ctx, args.Parser)
	case CmdLogout:
		return a.HandleLogout()
	case CmdWhoami:
		return a.HandleWhoami()
	case CmdChats:
		return a.HandleChats(ctx, args.Parser)
	case CmdConfig:
		return a.HandleConfig(args.Parser)
	case CmdVersion:
		return a.HandleVersion()
	case CmdHelp:
		fmt.Fprint(a.stdout, usageText)
		return nil
	default:
		fmt.Fprint(a.stdout, usageText)
		return nil
	}
}

// printNotice renders a sync-layer notice on stderr.
func (a *App) printNotice(n model.Notice) {
	fmt.Fprintln(a.stderr, RenderNotice(n))
}

// newRegistry builds a conversation registry wired to this app.
func (a *App) newRegistry() *registry.Registry {
	return registry.New(registry.Options{
		Client:            a.client,
		Sessions:          a.sessions,
		Cache:             a.cache,
		AutoCreateOnEmpty: a.cfg.Chat.AutoCreateOnEmpty,
		DefaultTitle:      a.cfg.Chat.DefaultTitle,
		OnNotice:          a.printNotice,
	})
}

// =============================================================================
// AUTH COMMANDS
// =============================================================================

// HandleLogin handles the "login" command. The username may be given as an
// argument; the password is always prompted without echo.
func (a *App) HandleLogin(ctx context.Context, parser *ArgParser) error {
	if err := RequiresTTY("log in"); err != nil {
		return err
	}

	username := parser.Positional(0)
	if username == "" {
		var err error
		username, err = a.promptLine("Username: ")
		if err != nil {
			return err
		}
	}

	password, err := a.promptPassword("Password: ")
	if err != nil {
		return err
	}

	creds, err := a.client.Login(ctx, username, password)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Status == 401 {
			return fmt.Errorf("invalid username or password")
		}
		return err
	}

	if err := a.sessions.SetLogin(creds, session.Identity{Username: username}); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}

	fmt.Fprintln(a.stdout, SuccessStyle.Render("Logged in as "+username))
	return nil
}

// HandleRegister handles the "register" command. Username and both password
// entries are validated locally before the backend is called.
func (a *App) HandleRegister(ctx context.Context, parser *ArgParser) error {
	if err := RequiresTTY("register"); err != nil {
		return err
	}

	username := parser.Positional(0)
	if username == "" {
		var err error
		username, err = a.promptLine("Username: ")
		if err != nil {
			return err
		}
	}

	password, err := a.promptPassword("Password: ")
	if err != nil {
		return err
	}
	confirm, err := a.promptPassword("Confirm password: ")
	if err != nil {
		return err
	}

	if err := a.client.Register(ctx, username, password, confirm); err != nil {
		var vErr *model.ValidationError
		if errors.As(err, &vErr) {
			return fmt.Errorf("%s %s", vErr.Field, vErr.Message)
		}
		return err
	}

	fmt.Fprintln(a.stdout, SuccessStyle.Render("Account created."))

	// Log the new account in right away, matching the web client's
	// register-then-login flow.
	creds, err := a.client.Login(ctx, username, password)
	if err != nil {
		fmt.Fprintln(a.stdout, DimStyle.Render("Run 'stellarum login' to log in."))
		return nil
	}
	if err := a.sessions.SetLogin(creds, session.Identity{Username: username}); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}
	fmt.Fprintln(a.stdout, SuccessStyle.Render("Logged in as "+username))
	return nil
}

// HandleLogout handles the "logout" command. Logout is purely client-side:
// the stored tokens are discarded, nothing is sent to the backend.
func (a *App) HandleLogout() error {
	if err := a.sessions.Clear(); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	fmt.Fprintln(a.stdout, SuccessStyle.Render("Logged out."))
	return nil
}

// HandleWhoami handles the "whoami" command.
func (a *App) HandleWhoami() error {
	if !a.sessions.Get().Valid() {
		fmt.Fprintln(a.stdout, DimStyle.Render("Not logged in (offline mode)."))
		return nil
	}
	username := a.sessions.Identity().Username
	if username == "" {
		username = "(unknown)"
	}
	fmt.Fprintln(a.stdout, "Logged in as "+ValueStyle.Render(username))
	return nil
}

// promptLine reads one line from stdin with a visible prompt.
func (a *App) promptLine(prompt string) (string, error) {
	fmt.Fprint(a.stdout, prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a line from stdin without echoing it.
func (a *App) promptPassword(prompt string) (string, error) {
	fmt.Fprint(a.stdout, prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(a.stdout)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// =============================================================================
// CHATS COMMAND
// =============================================================================

// HandleChats handles the "chats" command: load the registry and print the
// conversation list.
func (a *App) HandleChats(ctx context.Context, parser *ArgParser) error {
	reg := a.newRegistry()
	reg.Load(ctx)

	chats := reg.Chats()
	if parser.BoolFlag("json") {
		return writeChatsJSON(a.stdout, chats)
	}

	header := "Conversations"
	if reg.State() == registry.StateFallback {
		header += " (local)"
	}
	fmt.Fprintln(a.stdout, TitleStyle.Render(header))

	active := reg.Active()
	for _, c := range chats {
		fmt.Fprintln(a.stdout, formatChatLine(c, active != nil && c.ID == active.ID))
	}
	if len(chats) == 0 {
		fmt.Fprintln(a.stdout, DimStyle.Render("  (none)"))
	}
	return nil
}

// titleDisplayRunes caps list-entry titles; server titles are not length
// validated, so long ones are truncated for display only.
const titleDisplayRunes = 60

// formatChatLine renders one conversation list entry.
func formatChatLine(c *model.Conversation, active bool) string {
	marker := "  "
	if active {
		marker = "* "
	}
	origin := ""
	if c.IsLocal() {
		origin = DimStyle.Render(" [local]")
	}
	return marker + LabelStyle.Render(util.Int64ToString(c.ID)) + "  " +
		util.TruncateRunes(c.Title, titleDisplayRunes) + origin
}

// writeChatsJSON emits the conversation list as indented JSON.
func writeChatsJSON(w io.Writer, chats []*model.Conversation) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(chats)
}

// =============================================================================
// CONFIG COMMAND
// =============================================================================

// HandleConfig handles the "config" command.
func (a *App) HandleConfig(parser *ArgParser) error {
	switch parser.Subcommand() {
	case "", "show":
		return a.handleConfigShow()
	case "set":
		return a.handleConfigSet(parser.Positional(1), parser.Positional(2))
	case "path":
		path, err := config.ConfigPathTOML()
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, path)
		return nil
	case "reset":
		if err := config.Save(config.Default()); err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, SuccessStyle.Render("Configuration reset to defaults."))
		return nil
	default:
		return fmt.Errorf("unknown config subcommand: %s", parser.Subcommand())
	}
}

func (a *App) handleConfigShow() error {
	cfg := a.cfg
	dataDir, _ := cfg.DataDir()

	fmt.Fprintln(a.stdout, TitleStyle.Render("Configuration"))
	printKV := func(key, val string) {
		fmt.Fprintf(a.stdout, "  %-28s %s\n", LabelStyle.Render(key), ValueStyle.Render(val))
	}
	printKV("server.base_url", cfg.Server.BaseURL)
	printKV("server.timeout_secs", util.IntToString(cfg.Server.TimeoutSecs))
	printKV("storage.data_dir", dataDir)
	printKV("chat.auto_create_on_empty", strconv.FormatBool(cfg.Chat.AutoCreateOnEmpty))
	printKV("chat.default_title", cfg.Chat.DefaultTitle)
	printKV("ui.theme", cfg.UI.Theme)
	return nil
}

func (a *App) handleConfigSet(key, value string) error {
	if key == "" || value == "" {
		return fmt.Errorf("usage: stellarum config set <key> <value>")
	}

	// Mutate a freshly loaded config so unrelated edits in the file survive.
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}

	switch key {
	case "server.base_url", "api_url":
		cfg.Server.BaseURL = value
	case "server.timeout_secs", "timeout_secs":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("timeout_secs must be an integer: %w", err)
		}
		cfg.Server.TimeoutSecs = n
	case "storage.data_dir", "data_dir":
		cfg.Storage.DataDir = value
	case "chat.auto_create_on_empty", "auto_create_on_empty":
		b, err := ParseBoolString(value)
		if err != nil {
			return err
		}
		cfg.Chat.AutoCreateOnEmpty = b
	case "chat.default_title", "default_title":
		cfg.Chat.DefaultTitle = value
	case "ui.theme", "theme":
		cfg.UI.Theme = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, SuccessStyle.Render(fmt.Sprintf("Set %s = %s", key, value)))
	return nil
}

// =============================================================================
// VERSION COMMAND
// =============================================================================

// HandleVersion handles the "version" command.
func (a *App) HandleVersion() error {
	fmt.Fprintf(a.stdout, "stellarum %s\n", Version)
	fmt.Fprintf(a.stdout, "  commit: %s\n", GitCommit)
	fmt.Fprintf(a.stdout, "  built:  %s\n", BuildDate)
	return nil
}
