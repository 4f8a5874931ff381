// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream maintains the message log of the active conversation.
//
// Sends are optimistic: the user message is appended before the network is
// consulted, and every send ends in exactly one terminal message — the
// server's reply, an offline canned reply, or a single error-role message.
// One send may be in flight per stream; the log is merged into the durable
// cache after every attempt.
package stream
