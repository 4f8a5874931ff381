// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// NoticeKind classifies a user-visible condition raised by the sync layer.
type NoticeKind string

const (
	// NoticeSessionExpired means a 401 was observed, credentials were cleared
	// and the client is running on local data until the next login.
	NoticeSessionExpired NoticeKind = "session_expired"

	// NoticeTransient means the backend could not be reached or returned a
	// server error; the operation fell back to local data and may be retried.
	NoticeTransient NoticeKind = "transient"

	// NoticeWarning is a non-fatal degradation, e.g. a rename that was applied
	// locally because the server update failed.
	NoticeWarning NoticeKind = "warning"
)

// Notice is a user-visible condition. The sync layer delivers notices through
// an injected callback; it never renders them itself.
type Notice struct {
	Kind      NoticeKind
	Message   string
	Retryable bool
}

// SessionExpiredNotice is raised whenever a 401 demotes the client to
// fallback mode.
func SessionExpiredNotice() Notice {
	return Notice{
		Kind:    NoticeSessionExpired,
		Message: "Your session has expired. Please log in again.",
	}
}

// TransientNotice is raised when the backend is unreachable or failing.
func TransientNotice() Notice {
	return Notice{
		Kind:      NoticeTransient,
		Message:   "Couldn't reach the server. Working with local data.",
		Retryable: true,
	}
}

// WarningNotice wraps a non-fatal degradation message.
func WarningNotice(msg string) Notice {
	return Notice{Kind: NoticeWarning, Message: msg}
}
