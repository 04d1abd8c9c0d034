// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package capability

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// Built-in capability names. The whitelist, the clarification token
// buckets, and the compound detectors refer to these keys.
const (
	NameWeather   = "weather"
	NameCalendar  = "calendar"
	NameHoliday   = "holiday"
	NameBills     = "bills"
	NameMusic     = "music"
	NameNews      = "news"
	NameKnowledge = "knowledge"
	NameWeb       = "web"
)

// Keyword scores a request by substring keyword hits and delegates
// handling to an injected function. Strong keywords are explicit domain
// words ("天气", "weather"); weak keywords are suggestive but shared with
// other domains ("今天", "最近").
type Keyword struct {
	name       string
	priority   int
	strong     []string
	weak       []string
	descriptor Descriptor
	handler    HandlerFunc
}

// NewKeyword builds a keyword-scored capability. Keywords are matched
// case-insensitively against the normalized text.
func NewKeyword(name string, priority int, strong, weak []string, d Descriptor, h HandlerFunc) *Keyword {
	return &Keyword{
		name:       name,
		priority:   priority,
		strong:     strong,
		weak:       weak,
		descriptor: d,
		handler:    h,
	}
}

func (k *Keyword) Name() string         { return k.name }
func (k *Keyword) Priority() int        { return k.priority }
func (k *Keyword) Describe() Descriptor { return k.descriptor }

// Score returns 0.9 for a strong keyword hit (plus a small bonus per
// additional hit, capped at 1.0), 0.4 for a weak-only hit, 0 otherwise.
func (k *Keyword) Score(req types.Request) (float64, error) {
	text := strings.ToLower(req.NormText)

	strongHits := countHits(text, k.strong)
	if strongHits > 0 {
		score := 0.9 + 0.05*float64(strongHits-1)
		if score > 1.0 {
			score = 1.0
		}
		return score, nil
	}
	if countHits(text, k.weak) > 0 {
		return 0.4, nil
	}
	return 0, nil
}

// Reason names the first matching keyword for diagnostics.
func (k *Keyword) Reason(req types.Request) string {
	text := strings.ToLower(req.NormText)
	for _, kw := range k.strong {
		if strings.Contains(text, kw) {
			return fmt.Sprintf("keyword %q", kw)
		}
	}
	for _, kw := range k.weak {
		if strings.Contains(text, kw) {
			return fmt.Sprintf("weak keyword %q", kw)
		}
	}
	return ""
}

// Handle delegates to the injected handler.
func (k *Keyword) Handle(ctx context.Context, req types.Request) (types.Result, error) {
	if k.handler == nil {
		return types.Result{}, fmt.Errorf("capability %s has no handler", k.name)
	}
	return k.handler(ctx, req)
}

func countHits(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			n++
		}
	}
	return n
}

// Fallback is the universal-fallback capability. It scores a constant
// floor so it never wins against a confident candidate but always exists
// as a safety net; its handler runs the fallback cascade.
type Fallback struct {
	handler HandlerFunc
}

// NewFallback wraps the cascade entry point as a capability.
func NewFallback(h HandlerFunc) *Fallback { return &Fallback{handler: h} }

func (f *Fallback) Name() string  { return NameWeb }
func (f *Fallback) Priority() int { return 0 }

func (f *Fallback) Score(types.Request) (float64, error) { return 0.1, nil }

func (f *Fallback) Describe() Descriptor {
	return Descriptor{Label: "联网查询", Example: "搜索 黄金价格"}
}

func (f *Fallback) Handle(ctx context.Context, req types.Request) (types.Result, error) {
	if f.handler == nil {
		return types.Result{}, fmt.Errorf("fallback capability has no handler")
	}
	return f.handler(ctx, req)
}

// Keyword vocabularies for the built-in capability set. Mixed Chinese and
// English because utterances arrive in both.
var (
	weatherStrong = []string{"天气", "下雨", "气温", "温度", "降雨", "穿什么", "weather", "rain", "temperature", "forecast"}
	weatherWeak   = []string{"出门", "带伞"}

	calendarStrong = []string{"日历", "日程", "安排", "几号", "星期几", "calendar", "schedule", "agenda"}
	calendarWeak   = []string{"提醒", "待办"}

	holidayStrong = []string{"假期", "节假日", "放假", "调休", "holiday", "day off"}
	holidayWeak   = []string{"春节", "国庆"}

	billsStrong = []string{"账单", "花了多少", "消费", "支出", "bill", "bills", "spending"}
	billsWeak   = []string{"花销", "费用"}

	musicStrong = []string{"音乐", "放首歌", "唱歌", "歌曲", "music", "play a song", "song"}
	musicWeak   = []string{"听歌"}

	newsStrong = []string{"新闻", "要闻", "头条", "资讯", "news", "headline", "headlines"}
	newsWeak   = []string{"发生了什么"}

	knowledgeStrong = []string{"笔记", "备忘", "我记过", "知识库", "什么是", "是什么", "what is", "note", "memo"}
	knowledgeWeak   = []string{"介绍一下"}
)

// Providers injects the handler for each built-in capability. Nil entries
// leave the capability out of the registry.
type Providers struct {
	Weather   HandlerFunc
	Calendar  HandlerFunc
	Holiday   HandlerFunc
	Bills     HandlerFunc
	Music     HandlerFunc
	News      HandlerFunc
	Knowledge HandlerFunc
	Web       HandlerFunc
}

// DefaultRegistry assembles the standard capability set in priority
// order: hand-authored keyword capabilities in tier 2, the knowledge base
// in tier 1, and the universal web fallback in tier 0.
func DefaultRegistry(p Providers) (*Registry, error) {
	var caps []Capability

	add := func(c Capability, h HandlerFunc) {
		if h != nil {
			caps = append(caps, c)
		}
	}

	add(NewKeyword(NameWeather, 2, weatherStrong, weatherWeak,
		Descriptor{Label: "天气查询", Example: "今天天气"}, p.Weather), p.Weather)
	add(NewKeyword(NameCalendar, 2, calendarStrong, calendarWeak,
		Descriptor{Label: "日程安排", Example: "明天有什么安排"}, p.Calendar), p.Calendar)
	add(NewKeyword(NameHoliday, 2, holidayStrong, holidayWeak,
		Descriptor{Label: "节假日", Example: "下个假期是哪天"}, p.Holiday), p.Holiday)
	add(NewKeyword(NameBills, 2, billsStrong, billsWeak,
		Descriptor{Label: "账单统计", Example: "这个月账单"}, p.Bills), p.Bills)
	add(NewKeyword(NameMusic, 2, musicStrong, musicWeak,
		Descriptor{Label: "音乐播放", Example: "放首歌"}, p.Music), p.Music)
	add(NewKeyword(NameNews, 2, newsStrong, newsWeak,
		Descriptor{Label: "新闻要闻", Example: "今天有什么新闻"}, p.News), p.News)
	add(NewKeyword(NameKnowledge, 1, knowledgeStrong, knowledgeWeak,
		Descriptor{Label: "本地知识", Example: "查一下我的笔记"}, p.Knowledge), p.Knowledge)
	add(NewFallback(p.Web), p.Web)

	return NewRegistry(NameWeb, caps...)
}
