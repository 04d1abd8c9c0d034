// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dispatch

import (
	"sort"

	"github.com/pdiddy/answer-engine/internal/capability"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// Default ambiguity thresholds. A winner below any of them routes to
// clarification instead of answering directly.
const (
	defaultMinRank   = 10.5
	defaultMinScore  = 0.25
	defaultMinMargin = 0.2
)

// SpecialClarify marks a selection that routes to clarification.
const SpecialClarify = "clarify"

// Candidate is a capability's per-request score/priority/rank tuple.
// Candidates are ephemeral: recomputed every request, sorted by rank
// descending with registration order as the tie-break.
type Candidate struct {
	Name       string
	Score      float64
	Priority   int
	Rank       float64
	Reason     string
	Capability capability.Capability
}

// Meta returns the sanitized shallow diagnostic shape for this candidate.
func (c Candidate) Meta() types.CandidateMeta {
	return types.CandidateMeta{
		Name:     c.Name,
		Score:    c.Score,
		Priority: c.Priority,
		Rank:     c.Rank,
		Reason:   c.Reason,
	}
}

// Selection is the outcome of candidate scoring. Chosen is non-nil
// exactly when Special is empty.
type Selection struct {
	Special    string
	Candidates []Candidate
	Chosen     *Candidate
}

// Thresholds resolves the configured ambiguity thresholds, substituting
// the built-in defaults for zero values.
func Thresholds(cfg types.EngineConfig) (minRank, minScore, minMargin float64) {
	minRank, minScore, minMargin = cfg.MinRank, cfg.MinScore, cfg.MinMargin
	if minRank == 0 {
		minRank = defaultMinRank
	}
	if minScore == 0 {
		minScore = defaultMinScore
	}
	if minMargin == 0 {
		minMargin = defaultMinMargin
	}
	return minRank, minScore, minMargin
}

// Select scores every registered capability against the request and
// decides between a confident pick and an ambiguous outcome. Scoring
// failures degrade to score 0 and never propagate. Zero-score
// capabilities are dropped, except the universal fallback which is always
// retained as a safety net.
func Select(reg *capability.Registry, req types.Request, cfg types.EngineConfig) Selection {
	var candidates []Candidate
	for _, c := range reg.All() {
		score := reg.SafeScore(c, req)
		if score <= 0 && c.Name() != reg.FallbackName() {
			continue
		}
		candidates = append(candidates, Candidate{
			Name:       c.Name(),
			Score:      score,
			Priority:   c.Priority(),
			Rank:       float64(c.Priority())*10 + score,
			Reason:     reg.SafeReason(c, req),
			Capability: c,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Rank > candidates[j].Rank
	})

	minRank, minScore, minMargin := Thresholds(cfg)

	if len(candidates) == 0 {
		return Selection{Special: SpecialClarify}
	}

	top1 := candidates[0]
	ambiguous := top1.Rank < minRank || top1.Score < minScore
	if !ambiguous && len(candidates) > 1 {
		ambiguous = top1.Rank-candidates[1].Rank < minMargin
	}

	if ambiguous {
		return Selection{Special: SpecialClarify, Candidates: candidates}
	}
	return Selection{Candidates: candidates, Chosen: &candidates[0]}
}

// CandidateMetas sanitizes the full candidate list for envelope meta.
func CandidateMetas(candidates []Candidate) []types.CandidateMeta {
	metas := make([]types.CandidateMeta, 0, len(candidates))
	for _, c := range candidates {
		metas = append(metas, c.Meta())
	}
	return metas
}
