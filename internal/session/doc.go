// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session stores the authenticated session: the bearer token pair and
// the identity of the logged-in user.
//
// State is held in memory behind a mutex and mirrored to a JSON file under the
// data directory, so a session survives client restarts. Writes go through an
// atomic rename; the file is created with 0600 permissions. An optional
// fsnotify watcher reloads the file when another process writes it, so two
// running clients converge on the same credentials.
package session
