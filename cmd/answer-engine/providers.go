// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/answer-engine/internal/capability"
	"github.com/pdiddy/answer-engine/internal/clarify"
	"github.com/pdiddy/answer-engine/internal/dispatch"
	"github.com/pdiddy/answer-engine/internal/fallback"
	"github.com/pdiddy/answer-engine/internal/feed"
	"github.com/pdiddy/answer-engine/internal/finance"
	"github.com/pdiddy/answer-engine/internal/knowledge"
	"github.com/pdiddy/answer-engine/internal/websearch"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// buildEngine wires the full capability set and the fallback cascade.
// The returned cleanup closes the knowledge store; callers must invoke
// it once the engine is done.
func buildEngine(cfg types.Config, store clarify.Store, log zerolog.Logger) (*dispatch.Engine, func(), error) {
	dataDir := viper.GetString("data_dir")
	if dataDir == "" {
		dataDir = "data"
	}

	web := websearch.NewClient(cfg.WebSearch)
	feedClient := feed.NewClient(cfg.Feed)

	limit := cfg.Fallback.MaxResults
	if limit <= 0 {
		limit = 5
	}

	// The knowledge store is optional: a missing or unreadable index
	// just drops the knowledge capability and cascade stage.
	var kstore *knowledge.Store
	if ks, err := knowledge.NewStore(cfg.Knowledge); err != nil {
		log.Warn().Err(err).Msg("knowledge store unavailable")
	} else {
		kstore = ks
	}

	pipeline := &finance.Pipeline{
		Search: func(ctx context.Context, query, lang string) (string, []string, []types.Source, error) {
			res, err := web.Lookup(ctx, query, lang, limit)
			if err != nil {
				return "", nil, nil, err
			}
			return res.FinalText, res.Facts, res.Sources, nil
		},
		Config: cfg.Finance,
		Log:    log,
	}
	if cfg.Finance.APIKey != "" {
		pipeline.Backend = &finance.ClaudeBackend{
			APIKey: cfg.Finance.APIKey,
			Model:  cfg.Finance.Model,
		}
	}

	cascade := &fallback.Cascade{
		Feed:    feedClient,
		Web:     web,
		Finance: pipeline,
		Config:  cfg.Fallback,
		Log:     log,
	}
	if kstore != nil {
		cascade.Knowledge = kstore
	}

	providers := capability.Providers{
		Weather:  weatherHandler(web, limit),
		Calendar: calendarHandler(dataDir),
		Holiday:  holidayHandler,
		Bills:    billsHandler(dataDir),
		Music:    musicHandler,
		News:     newsHandler(feedClient, limit),
		Web: func(ctx context.Context, req types.Request) (types.Result, error) {
			return types.StructuredResult(cascade.Run(ctx, req)), nil
		},
	}
	if kstore != nil {
		providers.Knowledge = knowledgeHandler(kstore, limit)
	}

	reg, err := capability.DefaultRegistry(providers)
	if err != nil {
		if kstore != nil {
			kstore.Close()
		}
		return nil, nil, fmt.Errorf("building capability registry: %w", err)
	}

	cleanup := func() {
		if kstore != nil {
			kstore.Close()
		}
	}
	return dispatch.NewEngine(reg, store, cfg, log), cleanup, nil
}

// --- weather ---

// weatherHandler answers through web lookup: there is no local sensor,
// and a weather question is specific enough to search as-is.
func weatherHandler(web *websearch.Client, limit int) capability.HandlerFunc {
	return func(ctx context.Context, req types.Request) (types.Result, error) {
		res, err := web.Lookup(ctx, req.NormText, req.Language, limit)
		if err != nil {
			return types.Result{}, fmt.Errorf("weather lookup: %w", err)
		}
		if res.Hits == 0 {
			return types.TextResult("暂时查不到这个地方的天气，换个城市名再试试？"), nil
		}
		return types.StructuredResult(types.Structured{
			FinalText: res.FinalText,
			Facts:     res.Facts,
			Sources:   res.Sources,
		}), nil
	}
}

// --- calendar ---

type calendarFile struct {
	Events []calendarEvent `yaml:"events"`
}

type calendarEvent struct {
	Date  string `yaml:"date"` // YYYY-MM-DD
	Time  string `yaml:"time,omitempty"`
	Title string `yaml:"title"`
}

// calendarHandler answers from data/calendar.yaml: events from today
// through the next seven days, soonest first.
func calendarHandler(dataDir string) capability.HandlerFunc {
	return func(_ context.Context, req types.Request) (types.Result, error) {
		var file calendarFile
		found, err := loadYAML(filepath.Join(dataDir, "calendar.yaml"), &file)
		if err != nil {
			return types.Result{}, err
		}
		if !found || len(file.Events) == 0 {
			return types.StructuredResult(types.Structured{
				FinalText: "接下来一周没有日程安排。",
				NextActions: []types.NextAction{
					{Type: "add_event", Text: "在 data/calendar.yaml 里添加日程"},
				},
			}), nil
		}

		today := req.Now.Format("2006-01-02")
		horizon := req.Now.AddDate(0, 0, 7).Format("2006-01-02")

		var upcoming []calendarEvent
		for _, e := range file.Events {
			if e.Date >= today && e.Date <= horizon {
				upcoming = append(upcoming, e)
			}
		}
		sort.Slice(upcoming, func(i, j int) bool {
			if upcoming[i].Date != upcoming[j].Date {
				return upcoming[i].Date < upcoming[j].Date
			}
			return upcoming[i].Time < upcoming[j].Time
		})

		if len(upcoming) == 0 {
			return types.TextResult("接下来一周没有日程安排。"), nil
		}

		var lines, facts []string
		for i, e := range upcoming {
			line := e.Date
			if e.Time != "" {
				line += " " + e.Time
			}
			line += " " + e.Title
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, line))
			facts = append(facts, line)
		}
		return types.StructuredResult(types.Structured{
			FinalText: fmt.Sprintf("接下来一周有%d条日程：\n%s", len(upcoming), strings.Join(lines, "\n")),
			Facts:     facts,
		}), nil
	}
}

// --- holiday ---

// publicHolidays2026 is the mainland China public holiday calendar for
// 2026. TODO: load the 2027 calendar once the State Council publishes it.
var publicHolidays2026 = []struct {
	Date time.Time
	Name string
}{
	{time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local), "元旦"},
	{time.Date(2026, 2, 17, 0, 0, 0, 0, time.Local), "春节"},
	{time.Date(2026, 4, 5, 0, 0, 0, 0, time.Local), "清明节"},
	{time.Date(2026, 5, 1, 0, 0, 0, 0, time.Local), "劳动节"},
	{time.Date(2026, 6, 19, 0, 0, 0, 0, time.Local), "端午节"},
	{time.Date(2026, 9, 25, 0, 0, 0, 0, time.Local), "中秋节"},
	{time.Date(2026, 10, 1, 0, 0, 0, 0, time.Local), "国庆节"},
}

func holidayHandler(_ context.Context, req types.Request) (types.Result, error) {
	today := time.Date(req.Now.Year(), req.Now.Month(), req.Now.Day(), 0, 0, 0, 0, time.Local)
	for _, h := range publicHolidays2026 {
		if h.Date.Before(today) {
			continue
		}
		days := int(h.Date.Sub(today).Hours() / 24)
		var text string
		switch days {
		case 0:
			text = fmt.Sprintf("今天就是%s，假期愉快！", h.Name)
		case 1:
			text = fmt.Sprintf("明天是%s（%s）。", h.Name, h.Date.Format("1月2日"))
		default:
			text = fmt.Sprintf("下一个节假日是%s（%s），还有%d天。", h.Name, h.Date.Format("1月2日"), days)
		}
		return types.StructuredResult(types.Structured{
			FinalText: text,
			Facts:     []string{fmt.Sprintf("%s %s", h.Date.Format("2006-01-02"), h.Name)},
		}), nil
	}
	return types.TextResult("今年的节假日已经过完了，新一年的安排公布后我会更新。"), nil
}

// --- bills ---

type billsFile struct {
	Bills []billEntry `yaml:"bills"`
}

type billEntry struct {
	Month    string  `yaml:"month"` // YYYY-MM
	Category string  `yaml:"category"`
	Amount   float64 `yaml:"amount"`
}

// billsHandler sums the current month's entries from data/bills.yaml,
// largest category first.
func billsHandler(dataDir string) capability.HandlerFunc {
	return func(_ context.Context, req types.Request) (types.Result, error) {
		var file billsFile
		found, err := loadYAML(filepath.Join(dataDir, "bills.yaml"), &file)
		if err != nil {
			return types.Result{}, err
		}

		month := req.Now.Format("2006-01")
		totals := make(map[string]float64)
		var sum float64
		for _, b := range file.Bills {
			if b.Month != month {
				continue
			}
			totals[b.Category] += b.Amount
			sum += b.Amount
		}

		if !found || len(totals) == 0 {
			return types.StructuredResult(types.Structured{
				FinalText: "本月还没有记录任何账单。",
				NextActions: []types.NextAction{
					{Type: "add_bill", Text: "在 data/bills.yaml 里记一笔"},
				},
			}), nil
		}

		categories := make([]string, 0, len(totals))
		for c := range totals {
			categories = append(categories, c)
		}
		sort.Slice(categories, func(i, j int) bool { return totals[categories[i]] > totals[categories[j]] })

		var facts []string
		for _, c := range categories {
			facts = append(facts, fmt.Sprintf("%s 人民币%.0f", c, totals[c]))
		}
		return types.StructuredResult(types.Structured{
			FinalText: fmt.Sprintf("本月支出合计人民币%.0f，大头是%s。", sum, categories[0]),
			Facts:     facts,
			Meta:      map[string]any{"month": month},
		}), nil
	}
}

// --- music ---

// musicPrefixes are stripped to recover the requested song or artist.
var musicPrefixes = []string{"播放", "放首歌", "放一首", "放", "唱", "play"}

func musicHandler(_ context.Context, req types.Request) (types.Result, error) {
	query := musicQuery(req.NormText)
	text := "好的，这就为你播放音乐。"
	if query != "" {
		text = fmt.Sprintf("好的，准备为你播放：%s。", query)
	}
	return types.StructuredResult(types.Structured{
		FinalText: text,
		NextActions: []types.NextAction{
			{Type: "play", Text: text, Payload: map[string]any{"query": query}},
		},
	}), nil
}

// musicQuery pulls the song or artist out of a play request. Empty when
// the utterance names nothing specific.
func musicQuery(text string) string {
	lower := strings.ToLower(text)
	for _, p := range musicPrefixes {
		i := strings.Index(lower, p)
		if i < 0 {
			continue
		}
		rest := strings.TrimSpace(text[i+len(p):])
		rest = strings.Trim(rest, "的歌曲一首 ")
		if rest != "" {
			return rest
		}
	}
	return ""
}

// --- news ---

func newsHandler(client *feed.Client, limit int) capability.HandlerFunc {
	return func(ctx context.Context, req types.Request) (types.Result, error) {
		res, err := client.Lookup(ctx, req.RawText, req.Language, limit)
		if err != nil {
			return types.Result{}, fmt.Errorf("news lookup: %w", err)
		}
		if res.Hits == 0 {
			return types.TextResult("最近的要闻我还没有抓到，稍后再试试。"), nil
		}
		return types.StructuredResult(types.Structured{
			FinalText: res.FinalText,
			Facts:     res.Facts,
			Sources:   res.Sources,
		}), nil
	}
}

// --- knowledge ---

func knowledgeHandler(store *knowledge.Store, limit int) capability.HandlerFunc {
	return func(ctx context.Context, req types.Request) (types.Result, error) {
		res, err := store.Lookup(ctx, req.NormText, req.Language, limit)
		if err != nil {
			return types.Result{}, fmt.Errorf("knowledge lookup: %w", err)
		}
		if res.Hits == 0 {
			return types.TextResult("在你的笔记里没有找到相关内容。"), nil
		}
		return types.StructuredResult(types.Structured{
			FinalText: res.FinalText,
			Facts:     res.Facts,
			Sources:   res.Sources,
		}), nil
	}
}

// loadYAML reads one data file. A missing file is not an error: the
// capability answers with its empty-state text instead.
func loadYAML(path string, dest any) (bool, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("parsing %s: %w", path, err)
	}
	return true, nil
}
