// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Source records where a fact or answer fragment came from.
type Source struct {
	// Source is the collaborator or site that produced the item
	// (e.g. "knowledge", "feed", "web", "investing.com").
	Source string `json:"source" yaml:"source"`

	// Title is the human-readable title of the source item.
	Title string `json:"title" yaml:"title"`

	// PublishedAt is the publication timestamp as reported by the
	// source, RFC 3339 when available. Empty if unknown.
	PublishedAt string `json:"published_at,omitempty" yaml:"published_at,omitempty"`

	// URL links to the source item. Empty for local sources.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// NextAction is a suggested follow-up the caller can surface to the user,
// such as a clarification option or a rephrasing hint.
type NextAction struct {
	// Type categorizes the action (e.g. "clarify_option", "rephrase",
	// "keyword_hint").
	Type string `json:"type" yaml:"type"`

	// Text is the user-visible suggestion, often an example utterance.
	Text string `json:"text" yaml:"text"`

	// Payload carries machine-readable detail, such as the capability a
	// clarification option maps to.
	Payload map[string]any `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// CandidateMeta is the fixed shallow shape candidate diagnostics are
// sanitized into before they enter envelope meta. Whatever richer form a
// caller supplies, only these fields survive.
type CandidateMeta struct {
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Priority int     `json:"priority"`
	Rank     float64 `json:"rank"`
	Reason   string  `json:"reason,omitempty"`
}

// Envelope is the single canonical answer shape every capability result is
// normalized into. It is constructed once per request and never mutated;
// composition builds a new envelope instead of editing an existing one.
type Envelope struct {
	// FinalText is the answer text. Never empty.
	FinalText string `json:"final_text"`

	// Facts are short supporting statements. Defaults to [FinalText]
	// when the producer supplied none.
	Facts []string `json:"facts"`

	// Sources lists provenance for the answer, in first-seen order.
	Sources []Source `json:"sources,omitempty"`

	// NextActions are suggested follow-ups, in order of preference.
	NextActions []NextAction `json:"next_actions,omitempty"`

	// Meta holds free-form diagnostics. Always stamped with the
	// capability name, request mode, and route taken.
	Meta map[string]any `json:"meta"`
}
