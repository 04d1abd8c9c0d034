// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package finance

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// Confidence is the trust tier assigned to extracted evidence.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Candidate is one numeric match found in search text, with its
// surrounding evidence line and a proximity score. Candidates live only
// for one extraction pass.
type Candidate struct {
	Text  string
	Value float64
	Score int
}

// Evidence is the surviving best candidate plus its trust tier. A zero
// Value with ConfidenceLow means no plausible number was found.
type Evidence struct {
	Text       string
	Value      float64
	Confidence Confidence
}

// numberRe matches decimal numbers with optional thousands separators.
var numberRe = regexp.MustCompile(`\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?`)

// scanWindow is the rune radius inspected around each numeric match.
const scanWindow = 40

// Scan runs the deterministic windowed-regex pass over text: every
// numeric match inside the class's plausibility range and near an
// anchor keyword becomes a candidate, scored by adjacent currency
// markers and asset keywords in its window. Disqualified and
// out-of-range matches are dropped.
func Scan(text string, class Class) []Candidate {
	var out []Candidate
	for _, loc := range numberRe.FindAllStringIndex(text, -1) {
		raw := text[loc[0]:loc[1]]
		digits := strings.ReplaceAll(raw, ",", "")
		value, err := strconv.ParseFloat(digits, 64)
		if err != nil || value < class.Min || value > class.Max {
			continue
		}

		before := text[:loc[0]]
		after := text[loc[1]:]
		if disqualified(before, digits, after) {
			continue
		}

		window := runeTail(before, scanWindow) + raw + runeHead(after, scanWindow)
		lowerWindow := strings.ToLower(window)

		if !containsAnyFold(lowerWindow, class.Anchors) {
			continue
		}
		score := 2
		if currencyAdjacent(before, after) {
			score += 2
		}
		if containsAnyFold(lowerWindow, class.Assets) {
			score++
		}
		out = append(out, Candidate{Text: strings.TrimSpace(window), Value: value, Score: score})
	}
	return out
}

// Best returns the highest-scoring candidate; ties keep the earliest.
func Best(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return best, true
}

// reliableDomains are financial sources whose presence upgrades
// confidence.
var reliableDomains = []string{
	"bloomberg.com",
	"reuters.com",
	"xe.com",
	"investing.com",
	"finance.yahoo.com",
	"marketwatch.com",
	"eastmoney.com",
	"finance.sina.com.cn",
	"coindesk.com",
	"coinmarketcap.com",
}

// Assess assigns the confidence tier: high needs both a known-reliable
// source domain and an asset keyword in the evidence text or top facts;
// medium needs only the keyword; everything else is low.
func Assess(ev Candidate, facts []string, sources []types.Source, class Class) Confidence {
	texts := append([]string{ev.Text}, facts...)
	keyword := false
	for _, t := range texts {
		if containsAnyFold(strings.ToLower(t), class.Assets) {
			keyword = true
			break
		}
	}
	if !keyword {
		return ConfidenceLow
	}
	for _, src := range sources {
		lower := strings.ToLower(src.URL + " " + src.Source)
		for _, domain := range reliableDomains {
			if strings.Contains(lower, domain) {
				return ConfidenceHigh
			}
		}
	}
	return ConfidenceMedium
}

// currencyWords follow a number directly ("3450 美元"), symbols precede
// it ("$3,400"). Adjacency matters: a currency elsewhere in the window
// must not promote an unrelated count.
var currencyWords = []string{"美元", "元", "usd", "cny", "rmb", "dollar"}

func currencyAdjacent(before, after string) bool {
	if currencyBefore(before) {
		return true
	}
	head := strings.ToLower(runeHead(strings.TrimLeft(after, " "), 6))
	for _, w := range currencyWords {
		if strings.HasPrefix(head, w) {
			return true
		}
	}
	return false
}

// containsAnyFold assumes text is already lowercased.
func containsAnyFold(text string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(text, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

func runeTail(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

func runeHead(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
