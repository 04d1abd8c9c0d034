// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package clarify implements the short-lived clarification state machine:
// building a multiple-choice prompt from ambiguous candidates, persisting
// it per session, and matching a short follow-up utterance back to one of
// the offered options within the TTL window.
package clarify

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pdiddy/answer-engine/internal/capability"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// Plan limits.
const (
	maxOptions = 3
	minOptions = 2
)

// Defaults for the follow-up heuristic. Both are empirical; the config
// can override them, and neither should be assumed to generalize to a
// new language without revalidation.
const (
	defaultTTL              = 60 * time.Second
	defaultMaxFollowupRunes = 6
)

// Option is one offered clarification choice.
type Option struct {
	// Capability is the capability name the option resolves to.
	Capability string `json:"capability"`

	// Example is a verbatim example utterance for this capability.
	Example string `json:"example"`

	// Label is the human-readable option text.
	Label string `json:"label"`
}

// Pending is a stored clarification question awaiting a follow-up.
type Pending struct {
	CreatedAt time.Time `json:"created_at"`
	Options   []Option  `json:"options"`
}

// TTL resolves the configured time-to-live.
func TTL(cfg types.ClarifyConfig) time.Duration {
	if cfg.TTL <= 0 {
		return defaultTTL
	}
	return cfg.TTL
}

// Fresh reports whether the pending record is still within its TTL at
// the given reference time.
func Fresh(p Pending, now time.Time, cfg types.ClarifyConfig) bool {
	return now.Sub(p.CreatedAt) <= TTL(cfg)
}

// genericOptions pad a thin plan so the user always sees at least two
// choices, in fixed priority order.
var genericOptions = []Option{
	{Capability: capability.NameWeather, Example: "今天天气", Label: "天气查询"},
	{Capability: capability.NameCalendar, Example: "明天有什么安排", Label: "日程安排"},
	{Capability: capability.NameNews, Example: "今天有什么新闻", Label: "新闻要闻"},
	{Capability: capability.NameBills, Example: "这个月账单", Label: "账单统计"},
	{Capability: capability.NameKnowledge, Example: "查一下我的笔记", Label: "本地知识"},
	{Capability: capability.NameWeb, Example: "搜索 黄金价格", Label: "联网查询"},
}

// BuildPlan assembles the offered options from the ranked ambiguous
// candidates: up to three, deduplicated by capability name, padded from
// the generic list when fewer than two distinct options exist.
func BuildPlan(primary []Option) []Option {
	seen := make(map[string]bool)
	var plan []Option

	add := func(o Option) {
		if len(plan) >= maxOptions || o.Capability == "" || seen[o.Capability] {
			return
		}
		seen[o.Capability] = true
		plan = append(plan, o)
	}

	for _, o := range primary {
		add(o)
	}
	if len(plan) < minOptions {
		for _, o := range genericOptions {
			if len(plan) >= minOptions {
				break
			}
			add(o)
		}
	}
	return plan
}

// followupBucket maps recognized follow-up tokens to a capability.
// Ordered so the more specific buckets match first.
type followupBucket struct {
	capability string
	tokens     []string
}

var followupBuckets = []followupBucket{
	{capability.NameWeather, []string{"天气", "下雨", "气温", "weather", "rain"}},
	{capability.NameHoliday, []string{"假期", "节假日", "放假", "holiday"}},
	{capability.NameCalendar, []string{"日历", "日程", "安排", "时间", "calendar", "schedule", "time"}},
	{capability.NameNews, []string{"新闻", "要闻", "头条", "news"}},
	{capability.NameBills, []string{"账单", "消费", "花销", "bill", "bills"}},
	{capability.NameMusic, []string{"音乐", "歌", "music", "song"}},
	{capability.NameKnowledge, []string{"笔记", "备忘", "知识", "note", "memo"}},
	{capability.NameWeb, []string{"搜索", "联网", "search", "web"}},
}

// bareTokens are full utterances accepted as follow-ups regardless of the
// rune-count cutoff.
var bareTokens = map[string]string{
	"天气":       capability.NameWeather,
	"weather":  capability.NameWeather,
	"日历":       capability.NameCalendar,
	"日程":       capability.NameCalendar,
	"时间":       capability.NameCalendar,
	"calendar": capability.NameCalendar,
	"time":     capability.NameCalendar,
	"新闻":       capability.NameNews,
	"news":     capability.NameNews,
	"账单":       capability.NameBills,
	"bills":    capability.NameBills,
	"假期":       capability.NameHoliday,
	"节假日":      capability.NameHoliday,
	"holiday":  capability.NameHoliday,
	"音乐":       capability.NameMusic,
	"music":    capability.NameMusic,
}

// MatchFollowup maps a follow-up utterance to one of the offered
// capabilities. The utterance qualifies only when it is short (at most
// the configured rune count after despacing) or exactly a recognized bare
// domain token; longer text is a new request, not an answer to the
// question. When options were recorded, a mapped capability outside them
// is rejected.
func MatchFollowup(text string, offered []Option, cfg types.ClarifyConfig) (string, bool) {
	squashed := strings.ToLower(strings.Join(strings.Fields(text), ""))
	if squashed == "" {
		return "", false
	}

	maxRunes := cfg.MaxFollowupRunes
	if maxRunes <= 0 {
		maxRunes = defaultMaxFollowupRunes
	}

	_, isBare := bareTokens[squashed]
	if utf8.RuneCountInString(squashed) > maxRunes && !isBare {
		return "", false
	}

	name := ""
	if isBare {
		name = bareTokens[squashed]
	} else {
		for _, bucket := range followupBuckets {
			if containsAny(squashed, bucket.tokens) {
				name = bucket.capability
				break
			}
		}
	}
	if name == "" {
		return "", false
	}

	if len(offered) > 0 {
		for _, o := range offered {
			if o.Capability == name {
				return name, true
			}
		}
		return "", false
	}
	return name, true
}

func containsAny(text string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}
