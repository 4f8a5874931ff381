// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package offline

import "strings"

// WelcomeText is the assistant greeting seeded into conversations that have
// no history yet.
const WelcomeText = "Hello! I'm Stellarum. How can I help you today?"

// Responder produces an assistant reply without network access.
type Responder interface {
	Respond(input string) string
}

// =============================================================================
// CANNED RESPONDER
// =============================================================================

// rule maps input keywords to a canned reply. First match wins.
type rule struct {
	keywords []string
	reply    string
}

// CannedResponder is the default offline responder: case-insensitive keyword
// matching over a fixed rule table, with a catch-all fallback.
type CannedResponder struct {
	rules    []rule
	fallback string
}

// NewCannedResponder returns the stock rule set.
func NewCannedResponder() *CannedResponder {
	return &CannedResponder{
		rules: []rule{
			{[]string{"hello", "hi ", "hey"}, "Hi there! I'm running in offline mode right now, but I'm happy to chat."},
			{[]string{"help"}, "I can keep you company while the server is unreachable. Your messages are saved locally and nothing is lost."},
			{[]string{"code", "bug", "error"}, "I can't analyze code while offline, but jot your thoughts down here and pick them up once you're back online."},
			{[]string{"design", "architecture"}, "Good designs start on paper. Sketch the idea here; the conversation is stored locally."},
			{[]string{"thanks", "thank you"}, "You're welcome!"},
			{[]string{"bye", "goodbye"}, "Goodbye! Your conversation is saved locally."},
		},
		fallback: "I'm in offline mode and can't reach the model right now. Your message has been saved locally.",
	}
}

// Respond implements Responder.
func (c *CannedResponder) Respond(input string) string {
	// Pad so word-boundary-ish keywords like "hi " match at end of input too.
	lowered := " " + strings.ToLower(strings.TrimSpace(input)) + " "
	for _, r := range c.rules {
		for _, kw := range r.keywords {
			if strings.Contains(lowered, kw) {
				return r.reply
			}
		}
	}
	return c.fallback
}
