// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package websearch queries a SearxNG-compatible JSON search endpoint.
// It is the last lookup stage of the fallback cascade and the search
// engine behind the finance sub-path.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/answer-engine/internal/fallback"
	"github.com/pdiddy/answer-engine/internal/httputil"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// defaultBaseURL points at a local SearxNG instance. Declared as a var
// so tests can substitute an httptest server.
var defaultBaseURL = "http://localhost:8888"

// Client queries the search endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	maxResults int
	httpClient *http.Client
}

// NewClient builds a search client from configuration.
func NewClient(cfg types.WebSearchConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		maxResults: maxResults,
		httpClient: httputil.NewClient(cfg.HTTPConfig),
	}
}

// searchResponse is the SearxNG JSON result shape, reduced to the
// fields we read.
type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Content       string `json:"content"`
	PublishedDate string `json:"publishedDate"`
	Engine        string `json:"engine"`
}

// Search runs one query and returns the raw results, capped at limit.
func (c *Client) Search(ctx context.Context, query, lang string, limit int) ([]searchResult, error) {
	if limit <= 0 || limit > c.maxResults {
		limit = c.maxResults
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	if lang != "" {
		params.Set("language", lang)
	}

	endpoint := c.baseURL + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, 0)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned HTTP %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	results := parsed.Results
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Lookup implements the cascade collaborator contract.
func (c *Client) Lookup(ctx context.Context, query, lang string, limit int) (fallback.LookupResult, error) {
	results, err := c.Search(ctx, query, lang, limit)
	if err != nil {
		return fallback.LookupResult{}, err
	}
	if len(results) == 0 {
		return fallback.LookupResult{}, nil
	}

	var res fallback.LookupResult
	var lines []string
	for _, r := range results {
		snippet := strings.TrimSpace(r.Content)
		if snippet == "" {
			snippet = strings.TrimSpace(r.Title)
		}
		if snippet == "" {
			continue
		}
		lines = append(lines, snippet)
		res.Facts = append(res.Facts, snippet)
		res.Sources = append(res.Sources, types.Source{
			Source:      "web",
			Title:       strings.TrimSpace(r.Title),
			PublishedAt: r.PublishedDate,
			URL:         r.URL,
		})
	}
	if len(lines) == 0 {
		return fallback.LookupResult{}, nil
	}

	res.FinalText = strings.Join(lines, "\n")
	res.Hits = len(lines)
	return res, nil
}
