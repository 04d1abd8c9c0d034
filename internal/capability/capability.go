// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package capability defines the contract every answer-producing unit
// implements and the fixed registry the dispatcher scores against.
package capability

import (
	"context"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// Capability is a named, independently scorable and invocable unit of
// answer-producing logic. Implementations are registered once per process
// and never mutated at runtime.
type Capability interface {
	// Name is the unique registry key.
	Name() string

	// Priority is the integer tier combined with the score into a rank
	// (priority*10 + score). Hand-authored, high-confidence capabilities
	// sit in higher tiers than generic fallbacks.
	Priority() int

	// Score rates how well this capability matches the request, in
	// [0,1]. Errors and out-of-range values degrade to 0 at the call
	// site; they never abort routing.
	Score(req types.Request) (float64, error)

	// Handle produces the raw answer. Errors surface as a short
	// apologetic envelope, tagged with the capability name.
	Handle(ctx context.Context, req types.Request) (types.Result, error)
}

// Reasoner is optionally implemented by capabilities that can explain
// their score for diagnostics.
type Reasoner interface {
	Reason(req types.Request) string
}

// Descriptor carries the user-facing label and example utterance used
// when a capability is offered as a clarification option.
type Descriptor struct {
	Label   string
	Example string
}

// Described is optionally implemented by capabilities that can be offered
// in a clarification prompt.
type Described interface {
	Describe() Descriptor
}

// HandlerFunc adapts a plain function into a capability handler. Built-in
// capabilities delegate to injected collaborator functions through it.
type HandlerFunc func(ctx context.Context, req types.Request) (types.Result, error)
