// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the stellarum command line: argument parsing,
// command dispatch, and the interactive chat REPL.
//
// Commands never hard-fail on a degraded backend; the sync layer falls back
// to the local cache and the CLI reports the condition as a notice.
package cli
