// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by collaborators that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "answer-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// EngineConfig holds the routing thresholds and the capability allow-list.
// Zero values fall back to the built-in defaults at point of use.
type EngineConfig struct {
	// MinRank is the minimum winning rank (priority*10 + score) below
	// which the outcome is ambiguous (default 10.5).
	MinRank float64 `json:"min_rank" yaml:"min_rank"`

	// MinScore is the minimum winning score, independent of priority
	// tier (default 0.25).
	MinScore float64 `json:"min_score" yaml:"min_score"`

	// MinMargin is the minimum rank gap between the top two candidates
	// (default 0.2). A closer race routes to clarification.
	MinMargin float64 `json:"min_margin" yaml:"min_margin"`

	// Whitelist is a comma-separated override of capability names
	// allowed to answer. Empty uses the built-in default list.
	Whitelist string `json:"whitelist,omitempty" yaml:"whitelist,omitempty"`
}

// ClarifyConfig holds the clarification state machine parameters.
type ClarifyConfig struct {
	// TTL is how long a pending clarification stays eligible for a
	// follow-up (default 60s).
	TTL time.Duration `json:"ttl" yaml:"ttl"`

	// MaxFollowupRunes is the length cutoff for treating an utterance
	// as a clarification follow-up (default 6). The value is empirical
	// and should be revalidated per language before changing.
	MaxFollowupRunes int `json:"max_followup_runes" yaml:"max_followup_runes"`

	// SessionDir is the directory for the SQLite session store. Empty
	// selects the in-memory store.
	SessionDir string `json:"session_dir,omitempty" yaml:"session_dir,omitempty"`
}

// FallbackConfig holds the cascade parameters.
type FallbackConfig struct {
	// WeakMinRunes is the length below which an answer counts as weak
	// (default 12).
	WeakMinRunes int `json:"weak_min_runes" yaml:"weak_min_runes"`

	// MaxResults caps results requested from each cascade collaborator
	// (default 5).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// AIConfig holds shared settings for components that call a Generative AI
// API.
type AIConfig struct {
	// Model is the AI model identifier.
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// FinanceConfig holds settings for the finance evidence sub-path.
type FinanceConfig struct {
	AIConfig `yaml:",inline"`

	// Budget is the soft time box for the whole sub-path (default 18s).
	// When the first lookup plus extraction exceeds it, the normalized
	// second attempt is skipped.
	Budget time.Duration `json:"budget" yaml:"budget"`
}

// KnowledgeConfig holds settings for the local knowledge base.
type KnowledgeConfig struct {
	// KnowledgeDir is the base directory (contains notes/, index/).
	KnowledgeDir string `json:"knowledge_dir" yaml:"knowledge_dir"`

	// MaxResults is the default maximum number of lookup results
	// (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// FeedConfig holds settings for the topic feed collaborator.
type FeedConfig struct {
	HTTPConfig `yaml:",inline"`

	// URL is the Atom feed endpoint.
	URL string `json:"url" yaml:"url"`

	// MaxEntries caps entries considered per lookup (default 20).
	MaxEntries int `json:"max_entries" yaml:"max_entries"`
}

// WebSearchConfig holds settings for the open web search collaborator.
type WebSearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the JSON search endpoint (a SearxNG-style instance).
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey is an optional key for hosted search APIs.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxResults caps results per query (default 5).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// Config groups all component configurations.
type Config struct {
	Engine    EngineConfig    `json:"engine" yaml:"engine"`
	Clarify   ClarifyConfig   `json:"clarify" yaml:"clarify"`
	Fallback  FallbackConfig  `json:"fallback" yaml:"fallback"`
	Finance   FinanceConfig   `json:"finance" yaml:"finance"`
	Knowledge KnowledgeConfig `json:"knowledge" yaml:"knowledge"`
	Feed      FeedConfig      `json:"feed" yaml:"feed"`
	WebSearch WebSearchConfig `json:"web_search" yaml:"web_search"`
}
