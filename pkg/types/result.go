// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ResultKind tags the payload variant of a Result.
type ResultKind int

const (
	// KindText carries a bare natural-language string.
	KindText ResultKind = iota

	// KindStructured carries text plus facts, sources, and actions.
	KindStructured

	// KindEnvelope carries a fully-formed envelope the normalizer only
	// needs to re-stamp.
	KindEnvelope
)

// Structured is the middle variant of a capability result: an answer with
// supporting detail but no meta stamping yet.
type Structured struct {
	FinalText   string         `json:"final_text"`
	Facts       []string       `json:"facts,omitempty"`
	Sources     []Source       `json:"sources,omitempty"`
	NextActions []NextAction   `json:"next_actions,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// Result is the closed union of shapes a capability handler may return.
// Exactly one payload field is populated, selected by Kind; the envelope
// normalizer switches on Kind exhaustively instead of probing fields.
type Result struct {
	Kind       ResultKind
	Text       string
	Structured *Structured
	Envelope   *Envelope
}

// TextResult wraps a bare string answer.
func TextResult(text string) Result {
	return Result{Kind: KindText, Text: text}
}

// StructuredResult wraps an answer with supporting detail.
func StructuredResult(s Structured) Result {
	return Result{Kind: KindStructured, Structured: &s}
}

// EnvelopeResult wraps a pre-built envelope.
func EnvelopeResult(e Envelope) Result {
	return Result{Kind: KindEnvelope, Envelope: &e}
}
