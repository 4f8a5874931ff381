// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package offline supplies the assistant's voice when the backend is out of
// reach: the welcome message seeded into empty conversations and a canned
// responder used for sends that never hit the network.
//
// The responder is an interface so the sync layer stays testable; the canned
// implementation is deliberately dumb keyword matching.
package offline
