// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package registry maintains the conversation list.
//
// The list is loaded from the server when credentials work, and from the
// durable local cache otherwise. A 401 anywhere clears the session and demotes
// the registry to fallback mode until the next login; other failures fall back
// without touching credentials. Conversations created while offline are
// local-origin: they persist across restarts and never appear in server
// listings.
package registry
