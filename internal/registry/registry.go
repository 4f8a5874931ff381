// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package registry

import (
	"context"
	"errors"
	"sync"

	"github.com/morganforge/stellarum-tui/internal/api"
	"github.com/morganforge/stellarum-tui/internal/model"
	"github.com/morganforge/stellarum-tui/internal/session"
	"github.com/morganforge/stellarum-tui/internal/storage"
)

// ErrNotFound indicates the conversation id is not in the registry.
var ErrNotFound = errors.New("conversation not found")

// seedTitles are the example conversations shown when the fallback cache is
// empty, mirroring the original client's starter sidebar.
var seedTitles = []string{"Project practicum code", "Design tips"}

// =============================================================================
// STATE
// =============================================================================

// State is the registry's position in the load state machine.
type State int

const (
	// StateLoading means no load has completed yet.
	StateLoading State = iota

	// StateLoaded means the list reflects the server.
	StateLoaded

	// StateFallback means the list comes from the local cache.
	StateFallback
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// =============================================================================
// REGISTRY
// =============================================================================

// Options configures a Registry.
type Options struct {
	Client   *api.Client
	Sessions *session.Store
	Cache    *storage.Cache

	// AutoCreateOnEmpty recreates a conversation when a removal empties the
	// list.
	AutoCreateOnEmpty bool

	// DefaultTitle is used for conversations created without a title.
	DefaultTitle string

	// OnNotice receives user-visible conditions. May be nil.
	OnNotice func(model.Notice)
}

// Registry is the conversation list with server/local reconciliation.
type Registry struct {
	client   *api.Client
	sessions *session.Store
	cache    *storage.Cache

	autoCreate   bool
	defaultTitle string
	onNotice     func(model.Notice)

	mu       sync.Mutex
	state    State
	chats    []*model.Conversation
	activeID int64
}

// New creates a registry in the Loading state. Call Load to populate it.
func New(opts Options) *Registry {
	title := opts.DefaultTitle
	if title == "" {
		title = model.DefaultTitle
	}
	return &Registry{
		client:       opts.Client,
		sessions:     opts.Sessions,
		cache:        opts.Cache,
		autoCreate:   opts.AutoCreateOnEmpty,
		defaultTitle: title,
		onNotice:     opts.OnNotice,
		state:        StateLoading,
	}
}

func (r *Registry) notify(n model.Notice) {
	if r.onNotice != nil {
		r.onNotice(n)
	}
}

// expireSession clears the stored credentials after a 401 and tells the user.
func (r *Registry) expireSession() {
	_ = r.sessions.Clear()
	r.notify(model.SessionExpiredNotice())
}

// =============================================================================
// LOADING
// =============================================================================

// Load populates the registry. With working credentials the server list wins;
// a 401 clears the session and demotes to fallback; any other failure falls
// back without touching credentials. Load never returns an error: the
// registry always ends in a usable state.
func (r *Registry) Load(ctx context.Context) {
	r.mu.Lock()
	r.state = StateLoading
	r.mu.Unlock()

	if !r.sessions.Get().Valid() {
		r.enterFallback(ctx)
		return
	}

	convs, err := r.client.ListChats(ctx)
	switch api.Classify(err) {
	case api.OutcomeOK:
		r.mu.Lock()
		r.state = StateLoaded
		r.chats = convs
		r.ensureSelectionLocked()
		r.mu.Unlock()
	case api.OutcomeAuthExpired:
		r.expireSession()
		r.enterFallback(ctx)
	default:
		r.notify(model.TransientNotice())
		r.enterFallback(ctx)
	}
}

// enterFallback loads the cached local list, seeding the example
// conversations when the cache is empty. Seeding is idempotent: the seeds are
// persisted, so a second fallback entry reads them back instead of creating
// more.
func (r *Registry) enterFallback(ctx context.Context) {
	cached, err := r.cache.LoadChats(ctx)
	if err != nil {
		cached = nil
	}
	if len(cached) == 0 {
		cached = seedConversations()
		_ = r.cache.ReplaceChats(ctx, cached)
	}

	r.mu.Lock()
	r.state = StateFallback
	r.chats = cached
	r.ensureSelectionLocked()
	r.mu.Unlock()
}

// seedConversations builds the starter list. IDs are offset so two seeds
// minted in the same millisecond stay distinct.
func seedConversations() []*model.Conversation {
	seeds := make([]*model.Conversation, 0, len(seedTitles))
	for i, title := range seedTitles {
		conv := model.NewLocalConversation(title)
		conv.ID += int64(i)
		seeds = append(seeds, conv)
	}
	return seeds
}

// =============================================================================
// ACCESSORS
// =============================================================================

// State returns the current load state.
func (r *Registry) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Chats returns a copy of the conversation list in display order.
func (r *Registry) Chats() []*model.Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Conversation, len(r.chats))
	copy(out, r.chats)
	return out
}

// Active returns the selected conversation, or nil when the list is empty.
func (r *Registry) Active() *model.Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findLocked(r.activeID)
}

// Select makes a conversation active.
func (r *Registry) Select(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findLocked(id) == nil {
		return ErrNotFound
	}
	r.activeID = id
	return nil
}

// findLocked returns the conversation with the given id. Caller holds mu.
func (r *Registry) findLocked(id int64) *model.Conversation {
	for _, c := range r.chats {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// ensureSelectionLocked moves the selection to the first conversation when
// the current selection is gone. Caller holds mu.
func (r *Registry) ensureSelectionLocked() {
	if r.findLocked(r.activeID) != nil {
		return
	}
	if len(r.chats) > 0 {
		r.activeID = r.chats[0].ID
	} else {
		r.activeID = 0
	}
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Create adds a conversation and selects it. With working credentials the
// server creates it (origin=server); otherwise, or when the server fails, a
// local conversation is synthesized and persisted. Create never fails: the
// worst case is a local conversation.
func (r *Registry) Create(ctx context.Context, title string) *model.Conversation {
	if title == "" {
		title = r.defaultTitle
	}

	if r.sessions.Get().Valid() {
		conv, err := r.client.CreateChat(ctx, title)
		switch api.Classify(err) {
		case api.OutcomeOK:
			r.mu.Lock()
			r.chats = append([]*model.Conversation{conv}, r.chats...)
			r.activeID = conv.ID
			r.mu.Unlock()
			return conv
		case api.OutcomeAuthExpired:
			r.expireSession()
		default:
			r.notify(model.TransientNotice())
		}
	}

	conv := model.NewLocalConversation(title)
	r.mu.Lock()
	// Guard against an id collision with an existing same-millisecond local
	// conversation.
	for r.findLocked(conv.ID) != nil {
		conv.ID++
	}
	r.chats = append([]*model.Conversation{conv}, r.chats...)
	r.activeID = conv.ID
	r.mu.Unlock()

	r.persistLocal(ctx)
	return conv
}

// Rename changes a conversation title. Titles must be 3-50 runes. For
// server-origin conversations the server is updated first; on failure the
// rename still applies locally and the user gets a warning.
func (r *Registry) Rename(ctx context.Context, id int64, title string) error {
	if err := model.ValidateTitle(title); err != nil {
		return err
	}

	r.mu.Lock()
	conv := r.findLocked(id)
	if conv == nil {
		r.mu.Unlock()
		return ErrNotFound
	}
	origin := conv.Origin
	r.mu.Unlock()

	if origin == model.OriginServer && r.sessions.Get().Valid() {
		err := r.client.RenameChat(ctx, id, title)
		switch api.Classify(err) {
		case api.OutcomeOK:
		case api.OutcomeAuthExpired:
			r.expireSession()
		default:
			r.notify(model.WarningNotice("Rename saved locally; the server could not be updated."))
		}
	}

	r.mu.Lock()
	if conv := r.findLocked(id); conv != nil {
		conv.Title = title
	}
	r.mu.Unlock()

	r.persistLocal(ctx)
	return nil
}

// Remove deletes a conversation. Server-origin conversations are deleted on
// the server too, degrading to local removal when that fails. Selection moves
// to the first remaining conversation; an emptied list triggers auto-create
// when the policy is on.
func (r *Registry) Remove(ctx context.Context, id int64) error {
	r.mu.Lock()
	conv := r.findLocked(id)
	if conv == nil {
		r.mu.Unlock()
		return ErrNotFound
	}
	origin := conv.Origin
	r.mu.Unlock()

	if origin == model.OriginServer && r.sessions.Get().Valid() {
		err := r.client.DeleteChat(ctx, id)
		switch api.Classify(err) {
		case api.OutcomeOK:
		case api.OutcomeAuthExpired:
			r.expireSession()
		default:
			r.notify(model.WarningNotice("Removed locally; the server could not be updated."))
		}
	}

	r.mu.Lock()
	kept := r.chats[:0]
	for _, c := range r.chats {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	r.chats = kept
	r.ensureSelectionLocked()
	empty := len(r.chats) == 0
	r.mu.Unlock()

	// Cascade the cached messages, then rewrite the local list.
	_ = r.cache.DeleteChat(ctx, id)
	r.persistLocal(ctx)

	if empty && r.autoCreate {
		r.Create(ctx, "")
	}
	return nil
}

// persistLocal writes the local-origin subset of the list to the cache.
// Server-origin rows are the server's to keep.
func (r *Registry) persistLocal(ctx context.Context) {
	r.mu.Lock()
	var local []*model.Conversation
	for _, c := range r.chats {
		if c.IsLocal() {
			local = append(local, c)
		}
	}
	r.mu.Unlock()
	_ = r.cache.ReplaceChats(ctx, local)
}
