// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package capability

import (
	"fmt"
	"math"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// Registry holds the fixed, ordered capability list. Registration order is
// the tie-break for equal ranks, so callers should register hand-authored
// capabilities before generic ones.
type Registry struct {
	caps     []Capability
	byName   map[string]Capability
	fallback string
}

// NewRegistry builds a registry from an ordered capability list. The
// fallback name designates the universal-fallback capability, which the
// selector retains even at score 0 as a safety net.
func NewRegistry(fallback string, caps ...Capability) (*Registry, error) {
	r := &Registry{
		byName:   make(map[string]Capability, len(caps)),
		fallback: fallback,
	}
	for _, c := range caps {
		if _, dup := r.byName[c.Name()]; dup {
			return nil, fmt.Errorf("duplicate capability %q", c.Name())
		}
		r.caps = append(r.caps, c)
		r.byName[c.Name()] = c
	}
	if _, ok := r.byName[fallback]; !ok {
		return nil, fmt.Errorf("fallback capability %q not registered", fallback)
	}
	return r, nil
}

// All returns the capabilities in registration order.
func (r *Registry) All() []Capability { return r.caps }

// Get returns the capability registered under name.
func (r *Registry) Get(name string) (Capability, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// FallbackName returns the universal-fallback capability name.
func (r *Registry) FallbackName() string { return r.fallback }

// SafeScore invokes a capability's scorer and neutralizes every failure
// mode: errors, NaN, and out-of-range values all clamp into [0,1], with
// failures degrading to 0.
func (r *Registry) SafeScore(c Capability, req types.Request) float64 {
	score, err := c.Score(req)
	if err != nil || math.IsNaN(score) {
		return 0
	}
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// SafeReason returns the capability's score explanation, or "" when the
// capability has none.
func (r *Registry) SafeReason(c Capability, req types.Request) string {
	rs, ok := c.(Reasoner)
	if !ok {
		return ""
	}
	return rs.Reason(req)
}

// Describe returns the clarification descriptor for name, if the
// capability exposes one.
func (r *Registry) Describe(name string) (Descriptor, bool) {
	c, ok := r.byName[name]
	if !ok {
		return Descriptor{}, false
	}
	d, ok := c.(Described)
	if !ok {
		return Descriptor{}, false
	}
	return d.Describe(), true
}
