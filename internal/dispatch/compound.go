// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dispatch

import (
	"strings"

	"github.com/pdiddy/answer-engine/internal/capability"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// Limits on merged compound content.
const (
	compoundMaxFacts   = 6
	compoundMaxSources = 6
)

// compoundPair names two capabilities whose joint mention in one
// utterance produces a merged answer.
type compoundPair struct {
	a, b           string
	tokensA        []string
	tokensB        []string
}

// compoundPairs are the recognized combinations. Only these exact pairs
// compose; anything else goes through normal routing.
var compoundPairs = []compoundPair{
	{
		a: capability.NameWeather, b: capability.NameCalendar,
		tokensA: []string{"天气", "下雨", "气温", "weather", "rain"},
		tokensB: []string{"日程", "安排", "日历", "calendar", "schedule"},
	},
	{
		a: capability.NameCalendar, b: capability.NameNews,
		tokensA: []string{"日程", "安排", "日历", "calendar", "schedule"},
		tokensB: []string{"新闻", "要闻", "头条", "news", "headline"},
	},
}

// DetectCompound tests the utterance against the pairwise detectors and
// reports the matching pair. It fires only when exactly one pair matches;
// zero or multiple matches mean normal routing.
func DetectCompound(req types.Request) (a, b string, ok bool) {
	text := strings.ToLower(req.RawText)
	var matched []compoundPair
	for _, p := range compoundPairs {
		if containsAny(text, p.tokensA) && containsAny(text, p.tokensB) {
			matched = append(matched, p)
		}
	}
	if len(matched) != 1 {
		return "", "", false
	}
	return matched[0].a, matched[0].b, true
}

func containsAny(text string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

// Fragment is one capability's contribution to a compound answer.
type Fragment struct {
	FinalText string
	Facts     []string
	Sources   []types.Source
}

// MergeFragments combines two answer fragments into one envelope body:
// non-empty texts joined with a single space, facts and sources unioned
// in first-seen order with duplicates dropped and hard caps applied.
// ok is false when both fragments are empty and composition must be
// abandoned.
func MergeFragments(fragments []Fragment) (types.Structured, bool) {
	var texts []string
	var facts []string
	var sources []types.Source
	seenFact := make(map[string]bool)
	seenSource := make(map[string]bool)

	for _, f := range fragments {
		if strings.TrimSpace(f.FinalText) == "" {
			continue
		}
		texts = append(texts, f.FinalText)

		for _, fact := range f.Facts {
			if len(facts) >= compoundMaxFacts {
				break
			}
			if fact == "" || seenFact[fact] {
				continue
			}
			seenFact[fact] = true
			facts = append(facts, fact)
		}
		for _, src := range f.Sources {
			if len(sources) >= compoundMaxSources {
				break
			}
			key := src.Source + "|" + src.Title + "|" + src.URL
			if seenSource[key] {
				continue
			}
			seenSource[key] = true
			sources = append(sources, src)
		}
	}

	if len(texts) == 0 {
		return types.Structured{}, false
	}
	return types.Structured{
		FinalText: strings.Join(texts, " "),
		Facts:     facts,
		Sources:   sources,
	}, true
}
