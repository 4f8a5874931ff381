// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared across the stellarum
// client: conversations, messages, roles, record origins, and user-visible
// notices.
//
// # Key Types
//
//   - Conversation: a chat in the sidebar list, server-confirmed or local
//   - Message: one entry in a conversation's ordered log
//   - Role: user / ai / system / error
//   - Origin: tags server-confirmed records vs locally synthesized ones
//   - Notice: a user-visible condition raised by the sync layer
package model
