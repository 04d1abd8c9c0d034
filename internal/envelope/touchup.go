// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package envelope

import "strings"

// touchups are the per-capability cosmetic rewrites applied to final
// wording. They collapse placeholder phrasing and normalize unit text;
// nothing here changes the factual content of an answer.
var touchups = map[string]func(string) string{
	"weather": weatherTouchup,
	"bills":   billsTouchup,
}

// Touchup applies the capability's text touch-up, if any.
func Touchup(capabilityName, text string) string {
	text = collapseNoData(text)
	if fn, ok := touchups[capabilityName]; ok {
		text = fn(text)
	}
	return text
}

// collapseNoData rewrites assorted "no data" placeholders into one form.
var noDataForms = []string{"无数据", "N/A", "n/a", "--"}

func collapseNoData(text string) string {
	for _, form := range noDataForms {
		text = strings.ReplaceAll(text, form, "暂无数据")
	}
	return text
}

// weatherTouchup normalizes rain and temperature unit phrasing.
func weatherTouchup(text string) string {
	replacer := strings.NewReplacer(
		"摄氏度", "°C",
		"℃", "°C",
		"降水几率", "降水概率",
		"降雨几率", "降水概率",
	)
	return replacer.Replace(text)
}

// billsTouchup normalizes currency phrasing.
func billsTouchup(text string) string {
	return strings.ReplaceAll(text, "人民币", "¥")
}
