// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the durable local cache backing offline fallback.
//
// A single SQLite database holds two tables with disjoint owners: the chats
// table is the registry's fallback conversation list, the messages table is
// the stream's per-conversation cache. Message merges are idempotent upserts
// keyed by (chat_id, id), so replaying a sync never duplicates rows.
package storage
