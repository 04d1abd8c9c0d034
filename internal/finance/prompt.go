// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package finance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"text/template"
)

// quotePromptTmpl asks the model for the single best numeric quote in a
// block of search text, with the evidence sentence it came from.
var quotePromptTmpl = template.Must(template.New("quote").Parse(`You are a financial data extraction system. The user asked: "{{.Query}}"

Below is noisy web search text. Find the single number that best answers the question as a current quote or rate. Ignore dates, rankings, percentages of change, and historical figures.

Respond with a JSON object only, no other text:
{"value": <number>, "evidence": "<the exact sentence or fragment the number came from>"}

If no suitable number exists, respond with:
{"value": 0, "evidence": ""}

Search text:
{{.Text}}
`))

// AIBackend extracts a single best value from search text. Implementations
// must honor the context.
type AIBackend interface {
	BestValue(ctx context.Context, query, text string) (AIValue, error)
}

// AIValue is the model's proposed quote.
type AIValue struct {
	Value    float64 `json:"value"`
	Evidence string  `json:"evidence"`
}

// claudeAPIURL is the Claude API endpoint. Package-level var for test
// substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// ClaudeBackend calls the Claude API for the LLM-assisted extraction
// strategy.
type ClaudeBackend struct {
	APIKey string
	Model  string
	Client *http.Client
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// BestValue renders the quote prompt and parses the model's JSON reply.
func (c *ClaudeBackend) BestValue(ctx context.Context, query, text string) (AIValue, error) {
	var buf bytes.Buffer
	err := quotePromptTmpl.Execute(&buf, struct{ Query, Text string }{Query: query, Text: text})
	if err != nil {
		return AIValue{}, fmt.Errorf("rendering prompt: %w", err)
	}

	reqBody := claudeRequest{
		Model:     c.Model,
		MaxTokens: 512,
		Messages: []claudeMessage{
			{Role: "user", Content: buf.String()},
		},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return AIValue{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return AIValue{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return AIValue{}, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return AIValue{}, fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return AIValue{}, fmt.Errorf("decoding Claude response: %w", err)
	}

	for _, block := range cResp.Content {
		if block.Type != "text" {
			continue
		}
		var v AIValue
		if err := json.Unmarshal([]byte(block.Text), &v); err != nil {
			return AIValue{}, fmt.Errorf("parsing AI response JSON: %w", err)
		}
		return v, nil
	}
	return AIValue{}, fmt.Errorf("no text content in Claude API response")
}
