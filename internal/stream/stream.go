// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/morganforge/stellarum-tui/internal/api"
	"github.com/morganforge/stellarum-tui/internal/model"
	"github.com/morganforge/stellarum-tui/internal/offline"
	"github.com/morganforge/stellarum-tui/internal/session"
	"github.com/morganforge/stellarum-tui/internal/storage"
)

var (
	// ErrSendInFlight means a send is already outstanding on this stream.
	ErrSendInFlight = errors.New("a send is already in progress")

	// ErrEmptyMessage means the input was blank after trimming.
	ErrEmptyMessage = errors.New("message is empty")
)

// SendFailureText is the fixed content of the error-role message appended
// when an authenticated send fails.
const SendFailureText = "Failed to get a response from the server. Please try again."

// welcomeID is the fixed id of the seeded welcome message, so re-seeding
// upserts instead of duplicating.
const welcomeID = "welcome"

// =============================================================================
// STREAM
// =============================================================================

// Options configures a Stream.
type Options struct {
	Client   *api.Client
	Sessions *session.Store
	Cache    *storage.Cache

	// Responder supplies assistant replies for sends that skip the network.
	Responder offline.Responder

	// OnNotice receives user-visible conditions. May be nil.
	OnNotice func(model.Notice)
}

// Stream is the ordered message log of one active conversation.
type Stream struct {
	client    *api.Client
	sessions  *session.Store
	cache     *storage.Cache
	responder offline.Responder
	onNotice  func(model.Notice)

	mu             sync.Mutex
	conversationID int64
	msgs           []*model.Message
	sending        bool
}

// New creates an empty stream. Call Load to bind it to a conversation.
func New(opts Options) *Stream {
	responder := opts.Responder
	if responder == nil {
		responder = offline.NewCannedResponder()
	}
	return &Stream{
		client:    opts.Client,
		sessions:  opts.Sessions,
		cache:     opts.Cache,
		responder: responder,
		onNotice:  opts.OnNotice,
	}
}

func (s *Stream) notify(n model.Notice) {
	if s.onNotice != nil {
		s.onNotice(n)
	}
}

// Messages returns a copy of the current log in display order.
func (s *Stream) Messages() []*model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

// ConversationID returns the bound conversation, 0 if none.
func (s *Stream) ConversationID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// =============================================================================
// LOAD
// =============================================================================

// Load binds the stream to a conversation and populates the log. The server
// log wins when credentials work; a 401 clears the session; other failures
// read the local cache. Empty logs are seeded with the welcome message. A
// response arriving after the user switched conversations is discarded.
func (s *Stream) Load(ctx context.Context, id int64) {
	s.mu.Lock()
	s.conversationID = id
	s.msgs = nil
	s.mu.Unlock()

	if !s.sessions.Get().Valid() {
		s.loadLocal(ctx, id)
		return
	}

	msgs, err := s.client.ListMessages(ctx, id)
	switch api.Classify(err) {
	case api.OutcomeOK:
		model.SortMessages(msgs)
		if len(msgs) == 0 {
			msgs = []*model.Message{welcomeMessage(id)}
		}
		if s.install(id, msgs) {
			_ = s.cache.ReplaceMessages(ctx, id, msgs)
		}
	case api.OutcomeAuthExpired:
		_ = s.sessions.Clear()
		s.notify(model.SessionExpiredNotice())
		s.loadLocal(ctx, id)
	default:
		s.notify(model.TransientNotice())
		s.loadLocal(ctx, id)
	}
}

// loadLocal fills the log from the cache, seeding the welcome message into
// an empty conversation. The seed is persisted under a fixed id, so seeding
// twice yields one row.
func (s *Stream) loadLocal(ctx context.Context, id int64) {
	msgs, err := s.cache.LoadMessages(ctx, id)
	if err != nil {
		msgs = nil
	}
	if len(msgs) == 0 {
		seed := welcomeMessage(id)
		msgs = []*model.Message{seed}
		_ = s.cache.MergeMessages(ctx, id, msgs)
	}
	s.install(id, msgs)
}

// install replaces the log if the stream is still bound to id. Returns false
// when the result is stale.
func (s *Stream) install(id int64, msgs []*model.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conversationID != id {
		return false
	}
	s.msgs = msgs
	return true
}

// welcomeMessage builds the seeded greeting for an empty conversation.
func welcomeMessage(conversationID int64) *model.Message {
	return &model.Message{
		ID:             welcomeID,
		ConversationID: conversationID,
		Role:           model.RoleAssistant,
		Content:        offline.WelcomeText,
		Timestamp:      time.Now(),
	}
}

// =============================================================================
// SEND
// =============================================================================

// Send appends the user message immediately, then produces exactly one
// terminal message for the turn: the server's answer stamped with the
// server's changed_at, a canned offline reply when no credential is
// available, or a single error-role message when the server fails. The pair
// is merged into the cache after every attempt.
func (s *Stream) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return ErrSendInFlight
	}
	s.sending = true
	id := s.conversationID
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.sending = false
		s.mu.Unlock()
	}()

	userMsg := model.NewUserMessage(id, text)
	s.appendIfActive(id, userMsg)

	var terminal *model.Message
	if !s.sessions.Get().Valid() {
		// Offline turn: skip the network, let the canned responder answer.
		terminal = model.NewAssistantMessage(id, s.responder.Respond(text))
	} else {
		res, err := s.client.SendMessage(ctx, id, text)
		switch api.Classify(err) {
		case api.OutcomeOK:
			terminal = model.NewAssistantMessage(id, res.Answer)
			if !res.ChangedAt.IsZero() {
				terminal.Timestamp = res.ChangedAt
			}
		case api.OutcomeAuthExpired:
			_ = s.sessions.Clear()
			s.notify(model.SessionExpiredNotice())
			terminal = model.NewErrorMessage(id, SendFailureText)
		default:
			terminal = model.NewErrorMessage(id, SendFailureText)
		}
	}

	s.appendIfActive(id, terminal)
	_ = s.cache.MergeMessages(ctx, id, []*model.Message{userMsg, terminal})
	return nil
}

// appendIfActive appends to the in-memory log unless the user has switched
// conversations; the cache merge still happens either way.
func (s *Stream) appendIfActive(id int64, msg *model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conversationID == id {
		s.msgs = append(s.msgs, msg)
	}
}
