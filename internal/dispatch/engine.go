// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/answer-engine/internal/capability"
	"github.com/pdiddy/answer-engine/internal/clarify"
	"github.com/pdiddy/answer-engine/internal/envelope"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// Route values stamped into envelope meta.
const (
	RouteCapability      = "capability"
	RouteFallback        = "fallback"
	RouteClarify         = "clarify"
	RouteClarifyFollowup = "clarify_followup"
	RouteCompound        = "compound"
	RouteInvalid         = "invalid"
)

// Canned engine-level texts.
const (
	emptyUtteranceText = "我没有听清，可以再说一遍吗？"
	handlerFailureText = "这个问题我暂时回答不了，换个说法再试试？"
)

// Engine is the orchestrator: it owns the registry, the clarification
// store, and the routing policy, and turns every utterance into exactly
// one envelope.
type Engine struct {
	reg   *capability.Registry
	store clarify.Store
	cfg   types.Config
	log   zerolog.Logger
}

// NewEngine wires an engine. The store must not be nil; use
// clarify.NewMemoryStore for one-shot runs.
func NewEngine(reg *capability.Registry, store clarify.Store, cfg types.Config, log zerolog.Logger) *Engine {
	return &Engine{reg: reg, store: store, cfg: cfg, log: log}
}

// Answer routes one utterance end to end. It never returns an empty
// envelope: invalid input, routing failures, and handler errors all
// degrade to canned envelopes with the failure recorded in meta.
func (e *Engine) Answer(ctx context.Context, raw string, opts BuildOptions) types.Envelope {
	req, err := BuildRequest(raw, opts)
	if err != nil {
		return envelope.Normalize(types.TextResult(emptyUtteranceText), envelope.Options{
			Mode:  opts.Mode,
			Route: RouteInvalid,
		})
	}

	log := e.log.With().Str("request_id", req.ID).Str("session", req.SessionID).Logger()

	if env, handled := e.tryClarifyFollowup(ctx, req, log); handled {
		return env
	}

	if env, handled := e.tryCompound(ctx, req, log); handled {
		return env
	}

	sel := Select(e.reg, req, e.cfg.Engine)
	allow := ParseWhitelist(e.cfg.Engine.Whitelist)
	sel, diag := EnforceWhitelist(sel, allow, e.reg.FallbackName())

	extra := make(map[string]any)
	for k, v := range diag {
		extra[k] = v
	}
	if req.Debug {
		extra["candidates"] = CandidateMetas(sel.Candidates)
	}

	if sel.Special == SpecialClarify {
		return e.askClarification(ctx, req, sel, extra, log)
	}

	chosen := sel.Chosen
	route := RouteCapability
	if chosen.Name == e.reg.FallbackName() {
		route = RouteFallback
	}
	log.Info().Str("capability", chosen.Name).Str("route", route).
		Float64("rank", chosen.Rank).Msg("capability selected")

	return e.handle(ctx, req, chosen.Name, chosen.Capability, route, extra, log)
}

// handle invokes one capability handler and normalizes its result.
// Handler errors degrade to the apology envelope.
func (e *Engine) handle(ctx context.Context, req types.Request, name string, c capability.Capability, route string, extra map[string]any, log zerolog.Logger) types.Envelope {
	res, err := c.Handle(ctx, req)
	if err != nil {
		log.Warn().Err(err).Str("capability", name).Msg("handler failed")
		failExtra := map[string]any{"error": err.Error()}
		for k, v := range extra {
			failExtra[k] = v
		}
		return envelope.Normalize(types.StructuredResult(types.Structured{
			FinalText: handlerFailureText,
			NextActions: []types.NextAction{
				{Type: "rephrase", Text: "换一个说法或补充一些细节"},
			},
		}), envelope.Options{
			Capability: name,
			Mode:       req.Mode,
			Route:      route,
			Extra:      failExtra,
		})
	}
	return envelope.Normalize(res, envelope.Options{
		Capability: name,
		Mode:       req.Mode,
		Route:      route,
		Extra:      extra,
	})
}

// tryClarifyFollowup consumes pending clarification state. Any pending
// record is cleared on sight: a short matching follow-up resolves it, a
// failed match attempt consumes it, and a longer utterance supersedes
// it.
func (e *Engine) tryClarifyFollowup(ctx context.Context, req types.Request, log zerolog.Logger) (types.Envelope, bool) {
	p, ok, err := e.store.Get(ctx, req.SessionID)
	if err != nil {
		log.Warn().Err(err).Msg("clarification store read failed")
		return types.Envelope{}, false
	}
	if !ok {
		return types.Envelope{}, false
	}

	if err := e.store.Clear(ctx, req.SessionID); err != nil {
		log.Warn().Err(err).Msg("clarification store clear failed")
	}

	if !clarify.Fresh(p, req.Now, e.cfg.Clarify) {
		log.Debug().Msg("pending clarification expired")
		return types.Envelope{}, false
	}

	name, matched := clarify.MatchFollowup(req.NormText, p.Options, e.cfg.Clarify)
	if !matched {
		return types.Envelope{}, false
	}
	c, ok := e.reg.Get(name)
	if !ok {
		return types.Envelope{}, false
	}

	log.Info().Str("capability", name).Msg("clarification follow-up resolved")
	return e.handle(ctx, req, name, c, RouteClarifyFollowup, nil, log), true
}

// tryCompound detects and composes a two-capability answer. Composition
// is abandoned (falling back to normal routing) when both handlers come
// back empty.
func (e *Engine) tryCompound(ctx context.Context, req types.Request, log zerolog.Logger) (types.Envelope, bool) {
	a, b, ok := DetectCompound(req)
	if !ok {
		return types.Envelope{}, false
	}

	var fragments []Fragment
	for _, name := range []string{a, b} {
		c, found := e.reg.Get(name)
		if !found {
			return types.Envelope{}, false
		}
		res, err := c.Handle(ctx, req)
		if err != nil {
			log.Warn().Err(err).Str("capability", name).Msg("compound fragment failed")
			fragments = append(fragments, Fragment{})
			continue
		}
		text, facts, sources := envelope.Flatten(res, name)
		fragments = append(fragments, Fragment{FinalText: text, Facts: facts, Sources: sources})
	}

	merged, ok := MergeFragments(fragments)
	if !ok {
		log.Debug().Msg("compound composition abandoned, both fragments empty")
		return types.Envelope{}, false
	}

	log.Info().Str("pair", a+"+"+b).Msg("compound answer composed")
	return envelope.Normalize(types.StructuredResult(merged), envelope.Options{
		Capability: a + "+" + b,
		Mode:       req.Mode,
		Route:      RouteCompound,
	}), true
}

// askClarification builds the multiple-choice prompt from the ambiguous
// candidates, stores the pending record, and renders the question.
func (e *Engine) askClarification(ctx context.Context, req types.Request, sel Selection, extra map[string]any, log zerolog.Logger) types.Envelope {
	var primary []clarify.Option
	for _, c := range sel.Candidates {
		if len(primary) >= 3 {
			break
		}
		if c.Score <= 0 {
			continue
		}
		primary = append(primary, e.describeOption(c.Name))
	}
	plan := clarify.BuildPlan(primary)

	if err := e.store.Put(ctx, req.SessionID, clarify.Pending{
		CreatedAt: req.Now,
		Options:   plan,
	}); err != nil {
		log.Warn().Err(err).Msg("clarification store write failed")
	}

	var lines []string
	var actions []types.NextAction
	for i, o := range plan {
		line := fmt.Sprintf("%d. %s", i+1, o.Label)
		if o.Example != "" {
			line += fmt.Sprintf("（例如：%s）", o.Example)
		}
		lines = append(lines, line)
		actions = append(actions, types.NextAction{
			Type: "clarify_option",
			Text: o.Label,
			Payload: map[string]any{
				"capability": o.Capability,
				"example":    o.Example,
			},
		})
	}

	text := "你想问的是哪一类？\n" + strings.Join(lines, "\n") + "\n直接回复关键词就可以，比如“天气”。"

	log.Info().Int("options", len(plan)).Msg("asking for clarification")
	return envelope.Normalize(types.StructuredResult(types.Structured{
		FinalText:   text,
		NextActions: actions,
	}), envelope.Options{
		Capability: SpecialClarify,
		Mode:       req.Mode,
		Route:      RouteClarify,
		Extra:      extra,
	})
}

// describeOption resolves a clarification option's label and example,
// degrading to the bare capability name when the capability exposes no
// descriptor.
func (e *Engine) describeOption(name string) clarify.Option {
	if d, ok := e.reg.Describe(name); ok {
		return clarify.Option{Capability: name, Example: d.Example, Label: d.Label}
	}
	return clarify.Option{Capability: name, Label: name}
}
