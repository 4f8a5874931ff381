// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the HTTP client for the Stellarum backend.
//
// The backend is a black box behind a small REST surface: token login,
// registration, chat CRUD and message exchange. This package owns bearer
// attachment, request serialization, response-shape normalization and the
// error taxonomy the sync layer dispatches on. Callers never see raw HTTP
// details; failures surface as *Error values classified by Classify.
package api
