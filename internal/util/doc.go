// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across the stellarum client:
// atomic file writes for durable state and rune-safe string handling.
package util
