// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/answer-engine/internal/capability"
	"github.com/pdiddy/answer-engine/internal/clarify"
	"github.com/pdiddy/answer-engine/pkg/types"
)

func textHandler(text string) capability.HandlerFunc {
	return func(_ context.Context, _ types.Request) (types.Result, error) {
		return types.TextResult(text), nil
	}
}

func failingHandler(msg string) capability.HandlerFunc {
	return func(_ context.Context, _ types.Request) (types.Result, error) {
		return types.Result{}, errors.New(msg)
	}
}

const (
	weatherAnswer  = "今天白天多云，最高气温二十八度，夜间转小雨。"
	calendarAnswer = "明天上午十点有一个项目评审，下午没有安排。"
	webAnswer      = "网上的资料显示这个问题通常有三种常见的处理方式。"
)

func newTestEngine(t *testing.T, store clarify.Store, cfg types.Config, p capability.Providers) *Engine {
	t.Helper()
	if p.Weather == nil {
		p.Weather = textHandler(weatherAnswer)
	}
	if p.Calendar == nil {
		p.Calendar = textHandler(calendarAnswer)
	}
	if p.News == nil {
		p.News = textHandler("今天的头条是新地铁线路开通运营。")
	}
	if p.Web == nil {
		p.Web = textHandler(webAnswer)
	}
	reg, err := capability.DefaultRegistry(p)
	if err != nil {
		t.Fatalf("DefaultRegistry: %v", err)
	}
	return NewEngine(reg, store, cfg, zerolog.Nop())
}

func TestAnswerConfidentPick(t *testing.T) {
	// Scenario: an explicit weather utterance routes straight to the
	// weather capability without clarification.
	e := newTestEngine(t, clarify.NewMemoryStore(), types.Config{}, capability.Providers{})

	env := e.Answer(context.Background(), "今天天气", BuildOptions{SessionID: "s"})

	if env.Meta["capability"] != "weather" {
		t.Fatalf("capability = %v, want weather", env.Meta["capability"])
	}
	if env.Meta["route"] != RouteCapability {
		t.Errorf("route = %v, want capability", env.Meta["route"])
	}
	if env.FinalText == "" || len(env.Facts) == 0 {
		t.Errorf("envelope incomplete: %+v", env)
	}
}

func TestAnswerAmbiguousAsksClarification(t *testing.T) {
	// Scenario: a generic utterance offers at least two distinct options.
	store := clarify.NewMemoryStore()
	e := newTestEngine(t, store, types.Config{}, capability.Providers{})

	env := e.Answer(context.Background(), "今天怎么样", BuildOptions{SessionID: "s"})

	if env.Meta["route"] != RouteClarify {
		t.Fatalf("route = %v, want clarify", env.Meta["route"])
	}
	options := 0
	seen := make(map[string]bool)
	for _, a := range env.NextActions {
		if a.Type == "clarify_option" {
			options++
			seen[a.Payload["capability"].(string)] = true
		}
	}
	if options < 2 || len(seen) < 2 {
		t.Errorf("want >=2 distinct options, got %+v", env.NextActions)
	}

	// The pending record is stored for the session.
	if _, ok, _ := store.Get(context.Background(), "s"); !ok {
		t.Error("pending clarification not stored")
	}
}

func TestAnswerClarifyFollowup(t *testing.T) {
	// Scenario: the ambiguous question followed within 10 seconds by a
	// bare domain token resolves directly, without re-scoring.
	store := clarify.NewMemoryStore()
	e := newTestEngine(t, store, types.Config{}, capability.Providers{})
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)

	e.Answer(ctx, "今天怎么样", BuildOptions{SessionID: "s", Now: now})
	env := e.Answer(ctx, "天气", BuildOptions{SessionID: "s", Now: now.Add(10 * time.Second)})

	if env.Meta["route"] != RouteClarifyFollowup {
		t.Fatalf("route = %v, want clarify_followup", env.Meta["route"])
	}
	if env.Meta["capability"] != "weather" {
		t.Errorf("capability = %v, want weather", env.Meta["capability"])
	}
	if _, ok, _ := store.Get(ctx, "s"); ok {
		t.Error("pending clarification should be consumed")
	}
}

func TestAnswerClarifyExpired(t *testing.T) {
	store := clarify.NewMemoryStore()
	e := newTestEngine(t, store, types.Config{}, capability.Providers{})
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)

	e.Answer(ctx, "今天怎么样", BuildOptions{SessionID: "s", Now: now})
	env := e.Answer(ctx, "天气", BuildOptions{SessionID: "s", Now: now.Add(61 * time.Second)})

	// Expired memory is never consumed; the short token re-routes
	// normally, which for an explicit weather keyword still wins.
	if env.Meta["route"] != RouteCapability {
		t.Errorf("route = %v, want capability after expiry", env.Meta["route"])
	}
	if _, ok, _ := store.Get(ctx, "s"); ok {
		t.Error("expired record should be cleared")
	}
}

func TestAnswerLongFollowupSupersedes(t *testing.T) {
	store := clarify.NewMemoryStore()
	e := newTestEngine(t, store, types.Config{}, capability.Providers{})
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)

	e.Answer(ctx, "今天怎么样", BuildOptions{SessionID: "s", Now: now})
	env := e.Answer(ctx, "帮我查一下明天北京的天气怎么样",
		BuildOptions{SessionID: "s", Now: now.Add(5 * time.Second)})

	if env.Meta["route"] != RouteCapability {
		t.Errorf("route = %v, want capability (new utterance supersedes)", env.Meta["route"])
	}
	if _, ok, _ := store.Get(ctx, "s"); ok {
		t.Error("superseded record should be cleared")
	}
}

func TestAnswerCompound(t *testing.T) {
	// Scenario: weather plus calendar in one utterance composes both
	// answers into a single envelope.
	e := newTestEngine(t, clarify.NewMemoryStore(), types.Config{}, capability.Providers{})

	env := e.Answer(context.Background(), "明天天气怎么样，顺便看看我的日程安排",
		BuildOptions{SessionID: "s"})

	if env.Meta["route"] != RouteCompound {
		t.Fatalf("route = %v, want compound", env.Meta["route"])
	}
	if !strings.Contains(env.FinalText, "多云") || !strings.Contains(env.FinalText, "项目评审") {
		t.Errorf("compound text missing a fragment: %q", env.FinalText)
	}
}

func TestAnswerCompoundOneFragmentFails(t *testing.T) {
	e := newTestEngine(t, clarify.NewMemoryStore(), types.Config{}, capability.Providers{
		Calendar: failingHandler("calendar backend down"),
	})

	env := e.Answer(context.Background(), "明天天气怎么样，顺便看看我的日程安排",
		BuildOptions{SessionID: "s"})

	// One surviving fragment still composes.
	if env.Meta["route"] != RouteCompound {
		t.Fatalf("route = %v, want compound", env.Meta["route"])
	}
	if !strings.Contains(env.FinalText, "多云") {
		t.Errorf("surviving fragment missing: %q", env.FinalText)
	}
}

func TestAnswerWhitelistSubstitution(t *testing.T) {
	cfg := types.Config{Engine: types.EngineConfig{Whitelist: "news,web"}}
	e := newTestEngine(t, clarify.NewMemoryStore(), cfg, capability.Providers{})

	env := e.Answer(context.Background(), "今天天气", BuildOptions{SessionID: "s"})

	if env.Meta["blocked"] != "weather" {
		t.Errorf("meta blocked = %v, want weather", env.Meta["blocked"])
	}
	if env.Meta["capability"] != "web" {
		t.Errorf("capability = %v, want web substitute", env.Meta["capability"])
	}
	if env.Meta["route"] != RouteFallback {
		t.Errorf("route = %v, want fallback", env.Meta["route"])
	}
}

func TestAnswerHandlerFailure(t *testing.T) {
	e := newTestEngine(t, clarify.NewMemoryStore(), types.Config{}, capability.Providers{
		Weather: failingHandler("upstream timeout"),
	})

	env := e.Answer(context.Background(), "今天天气", BuildOptions{SessionID: "s"})

	if env.FinalText != handlerFailureText {
		t.Errorf("FinalText = %q, want apology", env.FinalText)
	}
	if env.Meta["error"] != "upstream timeout" {
		t.Errorf("meta error = %v", env.Meta["error"])
	}
	if len(env.NextActions) == 0 {
		t.Error("failure envelope should suggest a rephrase")
	}
}

func TestAnswerEmptyUtterance(t *testing.T) {
	e := newTestEngine(t, clarify.NewMemoryStore(), types.Config{}, capability.Providers{})

	env := e.Answer(context.Background(), "   \t  ", BuildOptions{SessionID: "s"})

	if env.Meta["route"] != RouteInvalid {
		t.Errorf("route = %v, want invalid", env.Meta["route"])
	}
	if env.FinalText != emptyUtteranceText {
		t.Errorf("FinalText = %q", env.FinalText)
	}
}

func TestAnswerDebugCandidates(t *testing.T) {
	e := newTestEngine(t, clarify.NewMemoryStore(), types.Config{}, capability.Providers{})

	env := e.Answer(context.Background(), "今天天气", BuildOptions{SessionID: "s", Debug: true})

	metas, ok := env.Meta["candidates"].([]types.CandidateMeta)
	if !ok || len(metas) == 0 {
		t.Fatalf("meta candidates = %#v", env.Meta["candidates"])
	}
	if metas[0].Name != "weather" || metas[0].Rank < 20 {
		t.Errorf("top candidate = %+v", metas[0])
	}
}
