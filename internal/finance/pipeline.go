// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package finance

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// defaultBudget bounds the whole finance sub-path, both attempts
// included.
const defaultBudget = 18 * time.Second

// maxQuoteFacts caps supporting facts carried into the rendered answer.
const maxQuoteFacts = 4

// SearchFunc is the web lookup the pipeline drives. The cascade injects
// its own web stage here, so this package never depends on the cascade.
type SearchFunc func(ctx context.Context, query, lang string) (text string, facts []string, sources []types.Source, err error)

// Pipeline runs the finance sub-path: search, LLM-assisted extraction,
// deterministic scan fallback, confidence assessment, rendering.
type Pipeline struct {
	Backend AIBackend // nil disables the LLM strategy
	Search  SearchFunc
	Config  types.FinanceConfig
	Log     zerolog.Logger
}

// Run answers a finance-shaped query. A low-confidence outcome renders
// canned guidance with no numeric claim; medium and high render the
// extracted quote with its evidence. The whole path is time-boxed: when
// the first attempt exhausts the budget the second, English-normalized
// attempt is skipped.
func (p *Pipeline) Run(ctx context.Context, query, lang string) types.Structured {
	class, ok := Classify(query)
	if !ok {
		class = genericClass
	}

	budget := p.Config.Budget
	if budget <= 0 {
		budget = defaultBudget
	}
	start := time.Now()

	ev, facts, sources := p.attempt(ctx, class, query, lang)
	if ev.Confidence == ConfidenceLow && time.Since(start) < budget {
		if retry := englishQuery(class, query); retry != "" && retry != query {
			p.Log.Debug().Str("query", retry).Msg("finance retry with normalized query")
			ev2, facts2, sources2 := p.attempt(ctx, class, retry, "en")
			if ev2.Confidence != ConfidenceLow {
				ev, facts, sources = ev2, facts2, sources2
			}
		}
	}

	p.Log.Debug().
		Str("class", string(class.Kind)).
		Str("confidence", string(ev.Confidence)).
		Msg("finance extraction finished")

	return p.render(class, ev, facts, sources)
}

// attempt runs one search plus extraction pass.
func (p *Pipeline) attempt(ctx context.Context, class Class, query, lang string) (Evidence, []string, []types.Source) {
	if p.Search == nil {
		return Evidence{Confidence: ConfidenceLow}, nil, nil
	}
	text, facts, sources, err := p.Search(ctx, query, lang)
	if err != nil {
		p.Log.Warn().Err(err).Msg("finance search failed")
		return Evidence{Confidence: ConfidenceLow}, nil, nil
	}

	corpus := text
	if len(facts) > 0 {
		corpus += "\n" + strings.Join(facts, "\n")
	}

	if cand, ok := p.aiExtract(ctx, class, query, corpus); ok {
		return Evidence{
			Text:       cand.Text,
			Value:      cand.Value,
			Confidence: Assess(cand, facts, sources, class),
		}, facts, sources
	}

	cand, ok := Best(Scan(corpus, class))
	if !ok {
		return Evidence{Confidence: ConfidenceLow}, facts, sources
	}
	return Evidence{
		Text:       cand.Text,
		Value:      cand.Value,
		Confidence: Assess(cand, facts, sources, class),
	}, facts, sources
}

// aiExtract asks the model for the best value and validates it under the
// same plausibility range and anchor rules as the deterministic scan.
func (p *Pipeline) aiExtract(ctx context.Context, class Class, query, corpus string) (Candidate, bool) {
	if p.Backend == nil {
		return Candidate{}, false
	}
	v, err := p.Backend.BestValue(ctx, query, corpus)
	if err != nil {
		p.Log.Warn().Err(err).Msg("model extraction failed, falling back to scan")
		return Candidate{}, false
	}
	if v.Value < class.Min || v.Value > class.Max {
		return Candidate{}, false
	}
	if v.Evidence == "" || smellsLikeTimeUnit(v.Evidence) {
		return Candidate{}, false
	}
	if !containsAnyFold(strings.ToLower(v.Evidence), class.Anchors) {
		return Candidate{}, false
	}
	return Candidate{Text: strings.TrimSpace(v.Evidence), Value: v.Value, Score: 5}, true
}

// lowConfidenceText deliberately contains no digits: a guessed price
// must never read like a quote.
const lowConfidenceText = "这个价格我还没有足够可靠的实时数据，不方便直接报数。" +
	"可以换一个更标准的问法再试试，比如“黄金 美元 现价”或“BTC price USD”。"

func (p *Pipeline) render(class Class, ev Evidence, facts []string, sources []types.Source) types.Structured {
	meta := map[string]any{
		"finance_class": string(class.Kind),
		"confidence":    string(ev.Confidence),
	}

	if ev.Confidence == ConfidenceLow {
		return types.Structured{
			FinalText: lowConfidenceText,
			Facts:     []string{lowConfidenceText},
			NextActions: []types.NextAction{
				{Type: "rephrase", Text: "换一个更具体的资产名称和币种再问一次"},
			},
			Meta: meta,
		}
	}

	meta["value"] = ev.Value
	label := "中等"
	if ev.Confidence == ConfidenceHigh {
		label = "较高"
	}
	final := "根据检索结果，当前报价约为 " + formatValue(ev.Value) +
		"（置信度：" + label + "）。依据：" + ev.Text

	outFacts := []string{ev.Text}
	for _, f := range facts {
		if len(outFacts) >= maxQuoteFacts {
			break
		}
		if f != "" && f != ev.Text {
			outFacts = append(outFacts, f)
		}
	}

	return types.Structured{
		FinalText: final,
		Facts:     outFacts,
		Sources:   sources,
		Meta:      meta,
	}
}

// englishQuery builds the normalized second-attempt query for a class,
// translating the first recognized asset term.
func englishQuery(class Class, query string) string {
	lower := strings.ToLower(query)
	for zh, en := range assetEnglish {
		if strings.Contains(lower, zh) {
			return en
		}
	}
	switch class.Kind {
	case KindFX:
		return "USD CNY exchange rate today"
	case KindCrypto:
		return "bitcoin price USD"
	case KindStock:
		return "stock price today " + lower
	case KindCommodity:
		return "commodity spot price USD"
	case KindIndex:
		return "stock market index today"
	}
	return ""
}

var assetEnglish = map[string]string{
	"黄金":  "gold price per ounce USD",
	"金价":  "gold price per ounce USD",
	"原油":  "crude oil price per barrel USD",
	"白银":  "silver price per ounce USD",
	"比特币": "bitcoin price USD",
	"以太坊": "ethereum price USD",
	"澳元":  "AUD USD exchange rate",
	"上证":  "Shanghai composite index today",
	"道琼斯": "Dow Jones index today",
	"标普":  "S&P 500 index today",
	"恒生":  "Hang Seng index today",
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
