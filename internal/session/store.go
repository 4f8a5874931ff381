// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/morganforge/stellarum-tui/internal/util"
)

// SessionFileName is the name of the session file inside the data directory.
const SessionFileName = "session.json"

// =============================================================================
// TYPES
// =============================================================================

// Credentials is the bearer token pair issued at login. Both tokens are
// cleared together; the refresh token is stored for future use and is not
// exchanged by this client.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Valid reports whether the credentials carry a usable access token.
func (c Credentials) Valid() bool {
	return c.AccessToken != ""
}

// Identity describes the logged-in user for display purposes.
type Identity struct {
	Username string `json:"username"`
}

// fileState is the on-disk shape of the session file.
type fileState struct {
	Credentials Credentials `json:"credentials"`
	Identity    Identity    `json:"identity"`
}

// =============================================================================
// STORE
// =============================================================================

// Store holds the session state and mirrors it to disk.
type Store struct {
	mu       sync.RWMutex
	path     string
	creds    Credentials
	identity Identity

	watcher *fsWatcher
}

// NewStore creates a session store backed by dataDir/session.json and loads
// any existing state from disk. A missing or unreadable file yields an empty
// session, not an error: a corrupt session file must never block startup.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	s := &Store{path: filepath.Join(dataDir, SessionFileName)}
	s.loadLocked()
	return s, nil
}

// loadLocked reads the session file into memory. Caller must not hold mu in
// read mode.
func (s *Store) loadLocked() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readFile()
}

// readFile replaces in-memory state from disk. Caller holds mu.
func (s *Store) readFile() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.creds = Credentials{}
		s.identity = Identity{}
		return
	}
	var st fileState
	if err := json.Unmarshal(data, &st); err != nil {
		s.creds = Credentials{}
		s.identity = Identity{}
		return
	}
	s.creds = st.Credentials
	s.identity = st.Identity
}

// Path returns the session file path.
func (s *Store) Path() string {
	return s.path
}

// =============================================================================
// CREDENTIALS
// =============================================================================

// Get returns the current credentials. The zero value means logged out.
func (s *Store) Get() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds
}

// Set stores a new token pair and persists it.
func (s *Store) Set(creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	return s.writeFile()
}

// Clear removes both tokens and the identity, in memory and on disk. Clearing
// an already-empty store is a no-op that still succeeds.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = Credentials{}
	s.identity = Identity{}
	return s.writeFile()
}

// =============================================================================
// IDENTITY
// =============================================================================

// Identity returns the stored user identity.
func (s *Store) Identity() Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// SetIdentity stores the user identity and persists it.
func (s *Store) SetIdentity(id Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = id
	return s.writeFile()
}

// SetLogin stores the token pair and identity in one write, as produced by a
// successful login.
func (s *Store) SetLogin(creds Credentials, id Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	s.identity = id
	return s.writeFile()
}

// writeFile persists the current state. Caller holds mu.
func (s *Store) writeFile() error {
	st := fileState{Credentials: s.creds, Identity: s.identity}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := util.AtomicWriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}
