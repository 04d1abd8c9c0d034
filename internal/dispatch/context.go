// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dispatch routes a free-form utterance to exactly one answer:
// a confident capability pick, a clarification question, a compound
// answer, or the fallback cascade.
package dispatch

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// BuildOptions carries the caller-supplied request parameters.
type BuildOptions struct {
	SessionID string
	Mode      string
	Debug     bool
	Now       time.Time
}

// BuildRequest normalizes a raw utterance into an immutable Request. It
// fails only on an effectively empty utterance; the caller maps that to
// the fixed unavailable envelope.
func BuildRequest(raw string, o BuildOptions) (types.Request, error) {
	norm := normalizeWhitespace(raw)
	if norm == "" {
		return types.Request{}, fmt.Errorf("empty utterance")
	}

	mode := o.Mode
	if mode == "" {
		mode = types.ModeLocalFirst
	}
	now := o.Now
	if now.IsZero() {
		now = time.Now()
	}
	session := o.SessionID
	if session == "" {
		session = "local"
	}

	return types.Request{
		ID:        uuid.NewString(),
		RawText:   raw,
		NormText:  norm,
		Language:  detectLanguage(norm),
		Mode:      mode,
		Debug:     o.Debug,
		Now:       now,
		SessionID: session,
	}, nil
}

// normalizeWhitespace collapses interior whitespace runs to single spaces
// and trims the ends.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// detectLanguage returns "zh" when the text contains any Han rune and
// "en" otherwise. Mixed utterances count as Chinese because the reply
// templates are picked by this value and mixed input skews Chinese.
func detectLanguage(s string) string {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return "zh"
		}
	}
	return "en"
}
