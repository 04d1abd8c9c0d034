// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fallback implements the staged answer cascade behind the
// universal web capability: canned intent branches, local knowledge,
// topic feed, finance evidence extraction, and finally open web lookup.
package fallback

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/pdiddy/answer-engine/internal/finance"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// defaultWeakMinRunes is the length floor below which an answer is weak.
const defaultWeakMinRunes = 12

// LookupResult is the narrow shape every cascade collaborator returns.
// Hits counts underlying matches so an empty-but-successful lookup can
// be told apart from "found nothing".
type LookupResult struct {
	FinalText string
	Facts     []string
	Sources   []types.Source
	Hits      int
}

// Lookup is the collaborator contract for cascade stages. Implementations
// must honor the context and return a zero LookupResult rather than
// panicking on missing data.
type Lookup interface {
	Lookup(ctx context.Context, query, lang string, limit int) (LookupResult, error)
}

// Cascade wires the staged fallback. Any nil collaborator skips its
// stage.
type Cascade struct {
	Knowledge Lookup
	Feed      Lookup
	Web       Lookup
	Finance   *finance.Pipeline
	Config    types.FallbackConfig
	Log       zerolog.Logger
}

// Run walks the stages in order and returns the first acceptable
// answer. The result's meta records which stage produced it under
// "fallback_stage".
func (c *Cascade) Run(ctx context.Context, req types.Request) types.Structured {
	minRunes := c.Config.WeakMinRunes
	if minRunes <= 0 {
		minRunes = defaultWeakMinRunes
	}
	limit := c.Config.MaxResults
	if limit <= 0 {
		limit = 5
	}

	if out, name, ok := cannedAnswer(req.RawText); ok {
		c.Log.Debug().Str("stage", name).Msg("canned branch answered")
		return stamped(out, name)
	}

	if c.Knowledge != nil {
		res, err := c.Knowledge.Lookup(ctx, req.RawText, req.Language, limit)
		if err != nil {
			c.Log.Warn().Err(err).Msg("knowledge lookup failed")
		} else if res.Hits > 0 && !WeakAnswer(res.FinalText, minRunes) {
			return stamped(fromLookup(res), "knowledge")
		}
	}

	if c.Feed != nil && newsLike(req.RawText) {
		res, err := c.Feed.Lookup(ctx, req.RawText, req.Language, limit)
		if err != nil {
			c.Log.Warn().Err(err).Msg("feed lookup failed")
		} else if !WeakAnswer(res.FinalText, minRunes) && len(res.Facts) >= 1 {
			return stamped(fromLookup(res), "feed")
		}
	}

	if c.Finance != nil && finance.Shaped(req.RawText) {
		return stamped(c.Finance.Run(ctx, req.RawText, req.Language), "finance")
	}

	if c.Web != nil {
		res, err := c.Web.Lookup(ctx, req.RawText, req.Language, limit)
		if err != nil {
			c.Log.Warn().Err(err).Msg("web lookup failed")
		} else if !WeakAnswer(res.FinalText, minRunes) {
			return stamped(fromLookup(res), "web")
		}
	}

	return stamped(moreKeywordsPrompt(), "exhausted")
}

// WeakAnswer is the cheap usefulness heuristic between stages: an answer
// is weak when empty, shorter than minRunes, or hedging.
func WeakAnswer(text string, minRunes int) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}
	if utf8.RuneCountInString(trimmed) < minRunes {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, phrase := range hedgingPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// hedgingPhrases mark an upstream answer as a non-answer.
var hedgingPhrases = []string{
	"我不知道", "不清楚", "无法回答", "抱歉", "没有找到", "未找到", "查不到", "暂无结果",
	"i don't know", "not sure", "no results", "cannot find", "unable to",
}

// newsLikeTokens gate the feed stage.
var newsLikeTokens = []string{
	"新闻", "要闻", "头条", "最近", "最新", "发生了什么",
	"news", "headline", "latest",
}

func newsLike(text string) bool {
	lower := strings.ToLower(text)
	for _, tok := range newsLikeTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

func fromLookup(res LookupResult) types.Structured {
	return types.Structured{
		FinalText: res.FinalText,
		Facts:     res.Facts,
		Sources:   res.Sources,
	}
}

// moreKeywordsPrompt replaces a weak terminal answer: asking for one
// more keyword beats surfacing an upstream non-answer.
func moreKeywordsPrompt() types.Structured {
	return types.Structured{
		FinalText: "我还没有找到足够有用的信息。再给我一个关键词试试？比如加上地点、时间或具体对象。",
		NextActions: []types.NextAction{
			{Type: "rephrase", Text: "补充一个关键词后重新提问"},
		},
	}
}

func stamped(out types.Structured, stage string) types.Structured {
	if out.Meta == nil {
		out.Meta = make(map[string]any)
	}
	out.Meta["fallback_stage"] = stage
	return out
}
