// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Mode values accepted on a request. ModeLocalFirst prefers local
// collaborators (knowledge base, feed) before open web lookup.
const (
	ModeLocalFirst = "local_first"
)

// Request is the immutable per-utterance context. It is built once by the
// dispatch context builder and never mutated afterwards; every component
// receives it by value.
type Request struct {
	// ID is a unique identifier for this request, stamped into envelope
	// meta for correlating turns within a session.
	ID string `json:"id"`

	// RawText is the utterance exactly as received.
	RawText string `json:"raw_text"`

	// NormText is the whitespace-collapsed form used for short-token
	// matching. Interior runs of whitespace become a single space.
	NormText string `json:"norm_text"`

	// Language is the detected language: "zh" when the text contains CJK
	// runes, "en" otherwise.
	Language string `json:"language"`

	// Mode selects the answering strategy. Empty means ModeLocalFirst.
	Mode string `json:"mode"`

	// Debug enables per-stage diagnostics in envelope meta.
	Debug bool `json:"debug"`

	// Now is the wall-clock reference time for this request. TTL checks
	// and date-dependent handlers read this instead of calling time.Now.
	Now time.Time `json:"now"`

	// SessionID keys the pending-clarification record for this
	// conversation. Concurrent sessions do not interfere.
	SessionID string `json:"session_id"`
}
