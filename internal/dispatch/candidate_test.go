// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dispatch

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/pdiddy/answer-engine/internal/capability"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// scriptedCapability returns a fixed score, optionally failing.
type scriptedCapability struct {
	name     string
	priority int
	score    float64
	err      error
}

func (s *scriptedCapability) Name() string  { return s.name }
func (s *scriptedCapability) Priority() int { return s.priority }
func (s *scriptedCapability) Score(types.Request) (float64, error) {
	return s.score, s.err
}
func (s *scriptedCapability) Handle(context.Context, types.Request) (types.Result, error) {
	return types.TextResult("ok"), nil
}

func newScriptedRegistry(t *testing.T, caps ...capability.Capability) *capability.Registry {
	t.Helper()
	caps = append(caps, &scriptedCapability{name: "web", priority: 0, score: 0.1})
	reg, err := capability.NewRegistry("web", caps...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func TestSelectConfident(t *testing.T) {
	reg := newScriptedRegistry(t,
		&scriptedCapability{name: "weather", priority: 2, score: 0.9},
		&scriptedCapability{name: "calendar", priority: 2, score: 0.0},
	)

	sel := Select(reg, types.Request{NormText: "x"}, types.EngineConfig{})

	if sel.Special != "" || sel.Chosen == nil {
		t.Fatalf("selection = %+v, want confident pick", sel)
	}
	if sel.Chosen.Name != "weather" {
		t.Errorf("chosen = %q, want weather", sel.Chosen.Name)
	}
	if sel.Chosen.Rank != 20.9 {
		t.Errorf("rank = %v, want 20.9", sel.Chosen.Rank)
	}
	// Zero-score calendar is dropped; fallback survives at score 0.1.
	if len(sel.Candidates) != 2 {
		t.Errorf("candidates = %+v, want weather and web only", sel.Candidates)
	}
}

func TestSelectAmbiguity(t *testing.T) {
	tests := []struct {
		name string
		caps []capability.Capability
		want bool
	}{
		{
			name: "low rank",
			caps: []capability.Capability{
				&scriptedCapability{name: "a", priority: 1, score: 0.3},
			},
			want: true, // rank 10.3 < 10.5
		},
		{
			name: "low score at high priority",
			caps: []capability.Capability{
				&scriptedCapability{name: "a", priority: 2, score: 0.2},
			},
			want: true, // rank 20.2 but score < 0.25
		},
		{
			name: "margin too close",
			caps: []capability.Capability{
				&scriptedCapability{name: "a", priority: 2, score: 0.5},
				&scriptedCapability{name: "b", priority: 2, score: 0.4},
			},
			want: true, // 20.5 - 20.4 < 0.2
		},
		{
			name: "clear winner",
			caps: []capability.Capability{
				&scriptedCapability{name: "a", priority: 2, score: 0.9},
				&scriptedCapability{name: "b", priority: 2, score: 0.4},
			},
			want: false,
		},
		{
			name: "only fallback",
			caps: nil,
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := newScriptedRegistry(t, tt.caps...)
			sel := Select(reg, types.Request{NormText: "x"}, types.EngineConfig{})
			got := sel.Special == SpecialClarify
			if got != tt.want {
				t.Errorf("ambiguous = %v, want %v (candidates %+v)", got, tt.want, sel.Candidates)
			}
			// Invariant: chosen present iff special empty.
			if (sel.Chosen != nil) == (sel.Special != "") {
				t.Errorf("chosen/special invariant violated: %+v", sel)
			}
		})
	}
}

func TestSelectNeutralizesScoringFailures(t *testing.T) {
	reg := newScriptedRegistry(t,
		&scriptedCapability{name: "failing", priority: 2, err: errors.New("boom")},
		&scriptedCapability{name: "nan", priority: 2, score: math.NaN()},
		&scriptedCapability{name: "huge", priority: 2, score: 7.5},
		&scriptedCapability{name: "negative", priority: 2, score: -3},
	)

	sel := Select(reg, types.Request{NormText: "x"}, types.EngineConfig{})

	for _, c := range sel.Candidates {
		if c.Score < 0 || c.Score > 1 {
			t.Errorf("candidate %s score %v outside [0,1]", c.Name, c.Score)
		}
	}
	// huge clamps to 1.0 and wins; failures drop out entirely.
	if sel.Chosen == nil || sel.Chosen.Name != "huge" {
		t.Errorf("selection = %+v, want huge chosen", sel)
	}
}

func TestSelectFallbackAlwaysRetained(t *testing.T) {
	reg := newScriptedRegistry(t)
	sel := Select(reg, types.Request{NormText: "x"}, types.EngineConfig{})

	found := false
	for _, c := range sel.Candidates {
		if c.Name == "web" {
			found = true
		}
	}
	if !found {
		t.Error("universal fallback missing from candidates")
	}
}

func TestThresholdOverrides(t *testing.T) {
	cfg := types.EngineConfig{MinRank: 5, MinScore: 0.1, MinMargin: 0.05}
	reg := newScriptedRegistry(t,
		&scriptedCapability{name: "a", priority: 1, score: 0.3},
	)

	// rank 10.3 passes the lowered thresholds.
	sel := Select(reg, types.Request{NormText: "x"}, cfg)
	if sel.Chosen == nil || sel.Chosen.Name != "a" {
		t.Errorf("selection = %+v, want a chosen under relaxed thresholds", sel)
	}
}
