// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package finance

import (
	"testing"

	"github.com/pdiddy/answer-engine/pkg/types"
)

var goldClass = Class{
	Kind: KindCommodity, Min: 10, Max: 100_000,
	Anchors: []string{"价格", "报价", "price", "盎司", "ounce"},
	Assets:  []string{"黄金", "金价", "gold"},
}

func TestScan(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantCount int
		wantValue float64
	}{
		{
			name:      "quote with currency and anchor",
			text:      "今日黄金价格为 3,450.50 美元/盎司，交投活跃。",
			wantCount: 1,
			wantValue: 3450.50,
		},
		{
			name:      "out of range dropped",
			text:      "黄金价格上涨了 5 美元。",
			wantCount: 0,
		},
		{
			name:      "no anchor nearby dropped",
			text:      "今天出门遇到了 350 个人。",
			wantCount: 0,
		},
		{
			name:      "percentage disqualified",
			text:      "黄金价格上涨 12.5%，市场看多。",
			wantCount: 0,
		},
		{
			name:      "year disqualified but quote kept",
			text:      "2024年报告：黄金价格约 3200 美元/盎司。",
			wantCount: 1,
			wantValue: 3200,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Scan(tt.text, goldClass)
			if len(got) != tt.wantCount {
				t.Fatalf("got %d candidates %+v, want %d", len(got), got, tt.wantCount)
			}
			if tt.wantCount > 0 && got[0].Value != tt.wantValue {
				t.Errorf("value = %v, want %v", got[0].Value, tt.wantValue)
			}
		})
	}
}

func TestScanPrefersCurrencyBackedMatch(t *testing.T) {
	text := "黄金价格近期波动，成交量 800 手。现货报价 $3,400 每盎司。"
	cands := Scan(text, goldClass)
	best, ok := Best(cands)
	if !ok {
		t.Fatal("expected at least one candidate")
	}
	if best.Value != 3400 {
		t.Errorf("best value = %v, want 3400", best.Value)
	}
}

func TestBestEmpty(t *testing.T) {
	if _, ok := Best(nil); ok {
		t.Error("Best(nil) should report no candidate")
	}
}

func TestAssess(t *testing.T) {
	cand := Candidate{Text: "黄金价格 3450 美元/盎司", Value: 3450}
	reliable := []types.Source{{Source: "web", URL: "https://www.investing.com/commodities/gold"}}
	unknown := []types.Source{{Source: "web", URL: "https://example.com/posts/1"}}

	tests := []struct {
		name    string
		cand    Candidate
		facts   []string
		sources []types.Source
		want    Confidence
	}{
		{"reliable domain and asset keyword", cand, nil, reliable, ConfidenceHigh},
		{"asset keyword only", cand, nil, unknown, ConfidenceMedium},
		{
			"keyword only in facts",
			Candidate{Text: "报价 3450 美元", Value: 3450},
			[]string{"国际金价走势"}, unknown, ConfidenceMedium,
		},
		{
			"no asset keyword anywhere",
			Candidate{Text: "报价 3450 美元", Value: 3450},
			nil, reliable, ConfidenceLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Assess(tt.cand, tt.facts, tt.sources, goldClass); got != tt.want {
				t.Errorf("Assess = %q, want %q", got, tt.want)
			}
		})
	}
}
