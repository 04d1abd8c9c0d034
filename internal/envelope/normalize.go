// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package envelope adapts heterogeneous capability results into the one
// canonical answer envelope.
package envelope

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// maxDerivedFacts caps facts extracted from answer text.
const maxDerivedFacts = 5

// emptyAnswerText replaces an empty producer answer so FinalText is never
// empty.
const emptyAnswerText = "这个问题我暂时没有答案。"

// Options stamps the normalization with routing identity. Extra meta from
// the caller is merged before stamping, so capability, mode, and route
// always win.
type Options struct {
	Capability string
	Mode       string
	Route      string
	Extra      map[string]any
}

// Normalize converts a capability's raw result into the canonical
// envelope. It switches exhaustively on the result kind; per-capability
// text touch-ups run before fact handling so facts reflect final wording.
func Normalize(res types.Result, o Options) types.Envelope {
	var (
		text        string
		facts       []string
		sources     []types.Source
		nextActions []types.NextAction
		meta        = make(map[string]any)
	)

	switch res.Kind {
	case types.KindText:
		text = res.Text
	case types.KindStructured:
		if res.Structured != nil {
			text = res.Structured.FinalText
			facts = res.Structured.Facts
			sources = res.Structured.Sources
			nextActions = res.Structured.NextActions
			mergeMeta(meta, res.Structured.Meta)
		}
	case types.KindEnvelope:
		if res.Envelope != nil {
			text = res.Envelope.FinalText
			facts = res.Envelope.Facts
			sources = res.Envelope.Sources
			nextActions = res.Envelope.NextActions
			mergeMeta(meta, res.Envelope.Meta)
		}
	}

	text = Touchup(o.Capability, text)
	if strings.TrimSpace(text) == "" {
		text = emptyAnswerText
	}

	if len(facts) == 0 {
		facts = ExtractFacts(text)
	} else {
		touched := make([]string, 0, len(facts))
		for _, f := range facts {
			if t := Touchup(o.Capability, f); strings.TrimSpace(t) != "" {
				touched = append(touched, t)
			}
		}
		facts = touched
	}
	if len(facts) == 0 {
		facts = []string{text}
	}

	mergeMeta(meta, o.Extra)
	if v, ok := meta["candidates"]; ok {
		meta["candidates"] = SanitizeCandidates(v)
	}
	meta["capability"] = o.Capability
	meta["mode"] = o.Mode
	meta["route"] = o.Route

	return types.Envelope{
		FinalText:   text,
		Facts:       facts,
		Sources:     sources,
		NextActions: nextActions,
		Meta:        meta,
	}
}

// Flatten reduces a raw result to the fragment fields compound
// composition needs, applying the same touch-ups as Normalize.
func Flatten(res types.Result, capabilityName string) (string, []string, []types.Source) {
	e := Normalize(res, Options{Capability: capabilityName})
	text := e.FinalText
	if text == emptyAnswerText {
		text = ""
	}
	return text, e.Facts, e.Sources
}

// ExtractFacts derives short supporting statements from answer text:
// one per line, list numbering stripped, boilerplate "not found" phrasing
// and trivial fragments dropped, capped at five.
func ExtractFacts(text string) []string {
	var facts []string
	for _, line := range strings.Split(text, "\n") {
		line = stripListPrefix(strings.TrimSpace(line))
		if line == "" || looksLikeBoilerplate(line) {
			continue
		}
		if utf8.RuneCountInString(line) < 4 {
			continue
		}
		facts = append(facts, line)
		if len(facts) >= maxDerivedFacts {
			break
		}
	}
	return facts
}

// boilerplatePhrases mark lines that carry no factual content.
var boilerplatePhrases = []string{
	"未找到", "没有找到", "暂无数据", "暂无结果", "查不到", "无相关",
	"not found", "no results", "no data",
}

func looksLikeBoilerplate(line string) bool {
	lower := strings.ToLower(line)
	for _, p := range boilerplatePhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// stripListPrefix removes leading list markers: "1. ", "2)", "- ", "• ".
func stripListPrefix(line string) string {
	if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "• ") {
		return strings.TrimSpace(line[strings.IndexByte(line, ' ')+1:])
	}
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) {
		if line[i] == '.' || line[i] == ')' {
			return strings.TrimLeftFunc(line[i+1:], unicode.IsSpace)
		}
		if strings.HasPrefix(line[i:], "、") {
			return strings.TrimLeftFunc(line[i+len("、"):], unicode.IsSpace)
		}
	}
	return line
}

// SanitizeCandidates coerces whatever candidate diagnostics a caller
// supplied into the fixed shallow shape. Unknown shapes sanitize to nil.
func SanitizeCandidates(v any) []types.CandidateMeta {
	switch list := v.(type) {
	case []types.CandidateMeta:
		return list
	case []any:
		var out []types.CandidateMeta
		for _, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			out = append(out, types.CandidateMeta{
				Name:     asString(m["name"]),
				Score:    asFloat(m["score"]),
				Priority: int(asFloat(m["priority"])),
				Rank:     asFloat(m["rank"]),
				Reason:   asString(m["reason"]),
			})
		}
		return out
	default:
		return nil
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}

func mergeMeta(dst map[string]any, src map[string]any) {
	for k, v := range src {
		dst[k] = v
	}
}
