// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dispatch

import (
	"testing"
	"time"

	"github.com/pdiddy/answer-engine/pkg/types"
)

func TestBuildRequest(t *testing.T) {
	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)

	req, err := BuildRequest("  今天   天气  ", BuildOptions{
		SessionID: "phone",
		Mode:      "remote",
		Debug:     true,
		Now:       now,
	})
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}

	if req.NormText != "今天 天气" {
		t.Errorf("NormText = %q", req.NormText)
	}
	if req.RawText != "  今天   天气  " {
		t.Errorf("RawText = %q", req.RawText)
	}
	if req.Language != "zh" {
		t.Errorf("Language = %q, want zh", req.Language)
	}
	if req.Mode != "remote" || !req.Debug || req.SessionID != "phone" {
		t.Errorf("options not carried: %+v", req)
	}
	if !req.Now.Equal(now) {
		t.Errorf("Now = %v", req.Now)
	}
	if req.ID == "" {
		t.Error("request ID missing")
	}
}

func TestBuildRequestDefaults(t *testing.T) {
	req, err := BuildRequest("hello there", BuildOptions{})
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	if req.Mode != types.ModeLocalFirst {
		t.Errorf("Mode = %q, want %q", req.Mode, types.ModeLocalFirst)
	}
	if req.SessionID != "local" {
		t.Errorf("SessionID = %q, want local", req.SessionID)
	}
	if req.Now.IsZero() {
		t.Error("Now not defaulted")
	}
	if req.Language != "en" {
		t.Errorf("Language = %q, want en", req.Language)
	}
}

func TestBuildRequestEmpty(t *testing.T) {
	for _, raw := range []string{"", "   ", "\t\n"} {
		if _, err := BuildRequest(raw, BuildOptions{}); err == nil {
			t.Errorf("BuildRequest(%q) should fail", raw)
		}
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"今天天气", "zh"},
		{"what is the weather", "en"},
		{"play 周杰伦", "zh"},
		{"12345", "en"},
	}
	for _, tt := range tests {
		if got := detectLanguage(tt.text); got != tt.want {
			t.Errorf("detectLanguage(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
