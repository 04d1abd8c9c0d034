// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package clarify

import (
	"testing"
	"time"

	"github.com/pdiddy/answer-engine/pkg/types"
)

func TestBuildPlan(t *testing.T) {
	tests := []struct {
		name    string
		primary []Option
		want    []string
	}{
		{
			name: "three distinct candidates kept",
			primary: []Option{
				{Capability: "weather", Label: "天气查询"},
				{Capability: "calendar", Label: "日程安排"},
				{Capability: "news", Label: "新闻要闻"},
			},
			want: []string{"weather", "calendar", "news"},
		},
		{
			name: "fourth candidate dropped",
			primary: []Option{
				{Capability: "weather"},
				{Capability: "calendar"},
				{Capability: "news"},
				{Capability: "bills"},
			},
			want: []string{"weather", "calendar", "news"},
		},
		{
			name: "duplicates collapse then pad",
			primary: []Option{
				{Capability: "news"},
				{Capability: "news"},
			},
			want: []string{"news", "weather"},
		},
		{
			name:    "empty input pads from generic list",
			primary: nil,
			want:    []string{"weather", "calendar"},
		},
		{
			name: "single candidate padded to two",
			primary: []Option{
				{Capability: "bills"},
			},
			want: []string{"bills", "weather"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := BuildPlan(tt.primary)
			if len(plan) != len(tt.want) {
				t.Fatalf("got %d options, want %d", len(plan), len(tt.want))
			}
			for i, name := range tt.want {
				if plan[i].Capability != name {
					t.Errorf("option %d: got %q, want %q", i, plan[i].Capability, name)
				}
			}
		})
	}
}

func TestMatchFollowup(t *testing.T) {
	offered := []Option{
		{Capability: "weather", Label: "天气查询"},
		{Capability: "calendar", Label: "日程安排"},
	}

	tests := []struct {
		name     string
		text     string
		offered  []Option
		wantName string
		wantOK   bool
	}{
		{"bare zh token", "天气", offered, "weather", true},
		{"bare en token", "weather", offered, "weather", true},
		{"short phrase", "查天气", offered, "weather", true},
		{"time token maps to calendar", "时间", offered, "calendar", true},
		{"whitespace squashed", " 天 气 ", offered, "weather", true},
		{"long utterance is a new request", "帮我查一下明天北京的天气怎么样", offered, "", false},
		{"mapped but not offered", "新闻", offered, "", false},
		{"unmapped short text", "好的", offered, "", false},
		{"empty", "", offered, "", false},
		{"no offered list accepts any mapped", "新闻", nil, "news", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, ok := MatchFollowup(tt.text, tt.offered, types.ClarifyConfig{})
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if name != tt.wantName {
				t.Errorf("name = %q, want %q", name, tt.wantName)
			}
		})
	}
}

func TestMatchFollowupRuneCutoffOverride(t *testing.T) {
	cfg := types.ClarifyConfig{MaxFollowupRunes: 12}
	name, ok := MatchFollowup("帮我看看明天的天气吧", []Option{{Capability: "weather"}}, cfg)
	if !ok || name != "weather" {
		t.Fatalf("got (%q, %v), want (weather, true)", name, ok)
	}
}

func TestFresh(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cfg := types.ClarifyConfig{}

	tests := []struct {
		name string
		age  time.Duration
		want bool
	}{
		{"just created", 0, true},
		{"within ttl", 59 * time.Second, true},
		{"at ttl boundary", 60 * time.Second, true},
		{"expired", 61 * time.Second, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Pending{CreatedAt: now.Add(-tt.age)}
			if got := Fresh(p, now, cfg); got != tt.want {
				t.Errorf("Fresh(age=%v) = %v, want %v", tt.age, got, tt.want)
			}
		})
	}
}
