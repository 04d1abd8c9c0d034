// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package feed fetches a topic news feed (Atom) and adapts it to the
// fallback cascade's collaborator contract.
package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/answer-engine/internal/fallback"
	"github.com/pdiddy/answer-engine/internal/httputil"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// defaultFeedURL serves general headlines when no feed is configured.
// Declared as a var so tests can substitute an httptest server.
var defaultFeedURL = "https://news.google.com/atom"

// Client fetches and filters feed entries.
type Client struct {
	url        string
	maxEntries int
	httpClient *http.Client
}

// NewClient builds a feed client from configuration. Zero values fall
// back to the package defaults.
func NewClient(cfg types.FeedConfig) *Client {
	url := cfg.URL
	if url == "" {
		url = defaultFeedURL
	}
	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 5
	}
	return &Client{
		url:        url,
		maxEntries: maxEntries,
		httpClient: httputil.NewClient(cfg.HTTPConfig),
	}
}

// Entry is one feed item after parsing.
type Entry struct {
	Title     string
	Summary   string
	Link      string
	Published time.Time
}

// Fetch retrieves the feed and returns its entries, newest first as
// served.
func (c *Client) Fetch(ctx context.Context) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned HTTP %d", resp.StatusCode)
	}

	var parsed atomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	var entries []Entry
	for _, e := range parsed.Entries {
		entry := Entry{
			Title:   strings.TrimSpace(e.Title),
			Summary: strings.TrimSpace(e.Summary),
			Link:    e.link(),
		}
		if entry.Title == "" {
			continue
		}
		if t, parseErr := time.Parse(time.RFC3339, e.Updated); parseErr == nil {
			entry.Published = t
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Lookup implements the cascade collaborator contract: fetch the feed,
// keep entries matching the query terms (all entries when nothing
// matches a broad "what's new" query), and render a headline summary.
func (c *Client) Lookup(ctx context.Context, query, _ string, limit int) (fallback.LookupResult, error) {
	entries, err := c.Fetch(ctx)
	if err != nil {
		return fallback.LookupResult{}, err
	}
	if limit <= 0 || limit > c.maxEntries {
		limit = c.maxEntries
	}

	matched := filterEntries(entries, query)
	if len(matched) == 0 {
		matched = entries
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	if len(matched) == 0 {
		return fallback.LookupResult{}, nil
	}

	var res fallback.LookupResult
	var lines []string
	for i, e := range matched {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, e.Title))
		res.Facts = append(res.Facts, e.Title)
		src := types.Source{Source: "feed", Title: e.Title, URL: e.Link}
		if !e.Published.IsZero() {
			src.PublishedAt = e.Published.Format(time.RFC3339)
		}
		res.Sources = append(res.Sources, src)
	}

	res.FinalText = "为你找到这些要闻：\n" + strings.Join(lines, "\n")
	res.Hits = len(matched)
	return res, nil
}

// filterEntries keeps entries whose title or summary contains any
// meaningful query term. Short function words are skipped so a query
// like "latest news about chips" filters on the substantive terms.
func filterEntries(entries []Entry, query string) []Entry {
	var terms []string
	for _, t := range strings.Fields(strings.ToLower(query)) {
		if len(t) >= 2 {
			terms = append(terms, t)
		}
	}
	if len(terms) == 0 {
		return nil
	}

	var out []Entry
	for _, e := range entries {
		text := strings.ToLower(e.Title + " " + e.Summary)
		for _, t := range terms {
			if strings.Contains(text, t) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// Atom feed XML structures.
type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title   string     `xml:"title"`
	Summary string     `xml:"summary"`
	Updated string     `xml:"updated"`
	Links   []atomLink `xml:"link"`
}

type atomLink struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
}

func (e atomEntry) link() string {
	for _, l := range e.Links {
		if l.Rel == "" || l.Rel == "alternate" {
			return l.Href
		}
	}
	if len(e.Links) > 0 {
		return e.Links[0].Href
	}
	return ""
}
