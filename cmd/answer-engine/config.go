// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// defaultModel is the extraction model used when the config names none.
const defaultModel = "claude-sonnet-4-5"

// loadConfig assembles the engine configuration from the viper-loaded
// config file and environment. API keys left blank in the config are
// filled from .secrets/.
func loadConfig() types.Config {
	cfg := types.Config{
		Engine: types.EngineConfig{
			MinRank:   viper.GetFloat64("engine.min_rank"),
			MinScore:  viper.GetFloat64("engine.min_score"),
			MinMargin: viper.GetFloat64("engine.min_margin"),
			Whitelist: viper.GetString("engine.whitelist"),
		},
		Clarify: types.ClarifyConfig{
			TTL:              viper.GetDuration("clarify.ttl"),
			MaxFollowupRunes: viper.GetInt("clarify.max_followup_runes"),
			SessionDir:       viper.GetString("clarify.session_dir"),
		},
		Fallback: types.FallbackConfig{
			WeakMinRunes: viper.GetInt("fallback.weak_min_runes"),
			MaxResults:   viper.GetInt("fallback.max_results"),
		},
		Finance: types.FinanceConfig{
			AIConfig: types.AIConfig{
				Model:      viper.GetString("finance.model"),
				APIKey:     secretDefault("anthropic-api-key", viper.GetString("finance.api_key")),
				MaxRetries: viper.GetInt("finance.max_retries"),
			},
			Budget: viper.GetDuration("finance.budget"),
		},
		Knowledge: types.KnowledgeConfig{
			KnowledgeDir: viper.GetString("knowledge.knowledge_dir"),
			MaxResults:   viper.GetInt("knowledge.max_results"),
		},
		Feed: types.FeedConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("feed.timeout"),
				UserAgent: viper.GetString("feed.user_agent"),
			},
			URL:        viper.GetString("feed.url"),
			MaxEntries: viper.GetInt("feed.max_entries"),
		},
		WebSearch: types.WebSearchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("web_search.timeout"),
				UserAgent: viper.GetString("web_search.user_agent"),
			},
			BaseURL:    viper.GetString("web_search.base_url"),
			APIKey:     secretDefault("search-api-key", viper.GetString("web_search.api_key")),
			MaxResults: viper.GetInt("web_search.max_results"),
		},
	}

	if cfg.Finance.Model == "" {
		cfg.Finance.Model = defaultModel
	}
	if cfg.Knowledge.KnowledgeDir == "" {
		cfg.Knowledge.KnowledgeDir = "knowledge"
	}
	return cfg
}

// newLogger builds the CLI logger. Log output goes to stderr so answer
// text on stdout stays clean for piping.
func newLogger(cmd *cobra.Command) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}
