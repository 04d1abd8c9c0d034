// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package finance implements the evidence extraction sub-path of the
// fallback cascade: classifying a numeric-fact query, pulling one
// trustworthy number out of noisy search text, and assigning a
// three-tier confidence label.
package finance

import (
	"regexp"
	"strings"
)

// Kind labels a finance query class. The class fixes the plausibility
// range, the neighbor anchors a candidate number must sit near, and the
// asset keywords the confidence model looks for.
type Kind string

const (
	KindFX        Kind = "fx"
	KindStock     Kind = "stock"
	KindCrypto    Kind = "crypto"
	KindCommodity Kind = "commodity"
	KindIndex     Kind = "index"
	KindGeneric   Kind = "generic"
)

// Class is the resolved per-query extraction profile.
type Class struct {
	Kind Kind

	// Min and Max bound plausible values; anything outside is noise.
	Min, Max float64

	// Anchors are neighbor keywords that must appear near a candidate
	// number for it to count at all.
	Anchors []string

	// Assets are asset-specific keywords used by the confidence model.
	Assets []string
}

// classDef pairs detection keywords with the extraction profile.
type classDef struct {
	keywords []string
	class    Class
}

// classDefs are checked in order; the first keyword hit wins. The
// plausibility ranges are deliberately generous — they reject dates and
// counters, not unusual market moves.
var classDefs = []classDef{
	{
		keywords: []string{"汇率", "兑换", "exchange rate", "美元兑", "澳元", "aud", "usd/cny", "eur"},
		class: Class{
			Kind: KindFX, Min: 0.2, Max: 2.0,
			Anchors: []string{"汇率", "兑", "rate", "exchange"},
			Assets:  []string{"汇率", "美元", "澳元", "欧元", "aud", "usd", "eur", "cny"},
		},
	},
	{
		keywords: []string{"比特币", "btc", "bitcoin", "以太坊", "eth", "加密货币", "crypto"},
		class: Class{
			Kind: KindCrypto, Min: 50, Max: 1_000_000,
			Anchors: []string{"价格", "报价", "price", "usd", "美元"},
			Assets:  []string{"比特币", "以太坊", "btc", "bitcoin", "eth", "crypto", "加密"},
		},
	},
	{
		keywords: []string{"股价", "股票", "stock", "shares", "纳斯达克", "nasdaq"},
		class: Class{
			Kind: KindStock, Min: 10, Max: 5000,
			Anchors: []string{"股价", "收盘", "price", "close", "交易"},
			Assets:  []string{"股价", "股票", "stock", "shares", "收盘"},
		},
	},
	{
		keywords: []string{"黄金", "金价", "gold", "原油", "oil", "白银", "silver"},
		class: Class{
			Kind: KindCommodity, Min: 10, Max: 100_000,
			Anchors: []string{"价格", "报价", "price", "盎司", "ounce", "桶", "barrel"},
			Assets:  []string{"黄金", "金价", "原油", "白银", "gold", "oil", "silver"},
		},
	},
	{
		keywords: []string{"指数", "上证", "道琼斯", "标普", "index", "dow", "s&p", "恒生"},
		class: Class{
			Kind: KindIndex, Min: 100, Max: 100_000,
			Anchors: []string{"指数", "点", "index", "points", "收于"},
			Assets:  []string{"指数", "上证", "道琼斯", "标普", "恒生", "index", "dow"},
		},
	},
}

// genericClass catches price questions about assets none of the named
// classes recognize.
var genericClass = Class{
	Kind: KindGeneric, Min: 0.01, Max: 10_000_000,
	Anchors: []string{"价格", "报价", "多少钱", "price", "cost"},
	Assets:  nil,
}

// genericPriceTokens detect a finance-shaped query without naming an
// asset class.
var genericPriceTokens = []string{"价格", "多少钱", "报价", "行情", "price of", "how much"}

// Classify resolves the extraction profile for a query. ok is false when
// the query is not finance-shaped at all.
func Classify(query string) (Class, bool) {
	lower := strings.ToLower(query)
	for _, def := range classDefs {
		for _, kw := range def.keywords {
			if strings.Contains(lower, kw) {
				return def.class, true
			}
		}
	}
	for _, kw := range genericPriceTokens {
		if strings.Contains(lower, kw) {
			return genericClass, true
		}
	}
	return Class{}, false
}

// Shaped reports whether the utterance looks like a finance/price
// question and should take the finance sub-path instead of plain web
// lookup.
func Shaped(query string) bool {
	_, ok := Classify(query)
	return ok
}

// Disqualifying context patterns, applied to the text immediately
// around one candidate number. Checking the immediate context instead
// of the whole window keeps a legitimate quote alive when it merely
// shares a sentence with a date or a percentage.
var (
	relTimeAfterRe = regexp.MustCompile(`^\s*(天前|小时前|分钟前|days?\s+ago|hours?\s+ago|minutes?\s+ago)`)
	rankBeforeRe   = regexp.MustCompile(`(第\s*|排名\s*|排行\s*|rank(?:ed)?\s*#?|top\s*)$`)
	percentAfterRe = regexp.MustCompile(`^\s*(%|％|个百分点|percent)`)
	yearDigitsRe   = regexp.MustCompile(`^(19|20)\d{2}$`)
)

// disqualified reports whether the candidate's immediate context marks
// it as a date, ranking, duration, or rate of change rather than a
// quote. before and after are the raw text on each side of the match;
// digits is the matched number with separators stripped.
func disqualified(before, digits, after string) bool {
	lowerAfter := strings.ToLower(after)
	if relTimeAfterRe.MatchString(lowerAfter) || percentAfterRe.MatchString(lowerAfter) {
		return true
	}
	if rankBeforeRe.MatchString(strings.ToLower(before)) {
		return true
	}
	// A bare 4-digit year is a date unless a currency symbol claims it.
	if yearDigitsRe.MatchString(digits) && !currencyBefore(before) {
		return true
	}
	return false
}

var currencySymbols = []string{"$", "¥", "€", "£", "US$", "us$"}

func currencyBefore(before string) bool {
	trimmed := strings.TrimRight(before, " ")
	for _, sym := range currencySymbols {
		if strings.HasSuffix(trimmed, sym) {
			return true
		}
	}
	return false
}

// timeUnitTokens flag an extracted evidence string that smells like a
// duration rather than a quote.
var timeUnitTokens = []string{"天前", "小时", "分钟", "秒", " days", " hours", " minutes", " seconds", "年前", "月前"}

func smellsLikeTimeUnit(text string) bool {
	lower := strings.ToLower(text)
	for _, tok := range timeUnitTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}
