// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNotAuthenticated indicates an authenticated call was attempted with no
// stored credentials. The caller should skip the network entirely.
var ErrNotAuthenticated = errors.New("not authenticated")

// Error represents a non-2xx response from the backend.
type Error struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("server error (HTTP %d): %s", e.Status, e.Message)
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// Outcome is the classified result of a backend operation. The sync layer
// branches on the outcome, never on raw status codes.
type Outcome int

const (
	// OutcomeOK means the operation succeeded.
	OutcomeOK Outcome = iota

	// OutcomeAuthExpired means the server rejected the credentials (401).
	// Policy: clear the session and fall back to local data.
	OutcomeAuthExpired

	// OutcomeTransient covers network failures, timeouts, 5xx and rate
	// limiting. Policy: fall back to local data without touching credentials.
	OutcomeTransient

	// OutcomeInvalid covers 4xx rejections of the request itself. Retrying
	// the same request will not help.
	OutcomeInvalid
)

// Classify maps an error from any client method to an Outcome.
// Anything that is not a recognizable backend rejection, including
// unparseable responses, counts as transient.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeOK
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusUnauthorized:
			return OutcomeAuthExpired
		case apiErr.Status == http.StatusTooManyRequests:
			return OutcomeTransient
		case apiErr.Status >= 500:
			return OutcomeTransient
		case apiErr.Status >= 400:
			return OutcomeInvalid
		}
	}
	return OutcomeTransient
}

// IsAuthExpired reports whether err is a 401 rejection.
func IsAuthExpired(err error) bool {
	return Classify(err) == OutcomeAuthExpired
}

// IsTransient reports whether err warrants a retry-later fallback.
func IsTransient(err error) bool {
	return Classify(err) == OutcomeTransient
}

// =============================================================================
// ERROR MESSAGE EXTRACTION
// =============================================================================

// errorBody covers the error shapes the backend has been observed to emit:
// FastAPI validation errors ({"detail":[{"msg":...}]}), plain detail strings,
// a top-level message, or a wrapped {"error":{"message":...}}.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Error   struct {
		Message string `json:"message"`
	} `json:"error"`
}

type detailItem struct {
	Msg string `json:"msg"`
}

// extractErrorMessage pulls a human-readable message out of an error response
// body, falling back to the raw text and finally the status line.
func extractErrorMessage(status int, body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if len(eb.Detail) > 0 {
			var items []detailItem
			if err := json.Unmarshal(eb.Detail, &items); err == nil && len(items) > 0 && items[0].Msg != "" {
				return items[0].Msg
			}
			var s string
			if err := json.Unmarshal(eb.Detail, &s); err == nil && s != "" {
				return s
			}
		}
		if eb.Message != "" {
			return eb.Message
		}
		if eb.Error.Message != "" {
			return eb.Error.Message
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return http.StatusText(status)
}
