// Package serper implements search.Searcher against the Serper.dev Google
// Search API.
package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/sweetpotato0/vedabot/search"
)

const serperAPIURL = "https://google.serper.dev/search"

// Config holds Serper client configuration
type Config struct {
	APIKey  string
	Timeout time.Duration
}

// DefaultConfig returns default Serper configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:  apiKey,
		Timeout: 10 * time.Second,
	}
}

// Client implements search.Searcher for Serper
type Client struct {
	config *Config
	client *http.Client
}

// New creates a new Serper client
func New(config *Config) *Client {
	if config == nil {
		config = DefaultConfig("")
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		config: config,
		client: &http.Client{Timeout: timeout},
	}
}

// serperRequest represents a Serper API request
type serperRequest struct {
	Query string `json:"q"`
	Num   int    `json:"num,omitempty"`
}

// serperResponse represents a Serper API response
type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
	} `json:"organic"`
	KnowledgeGraph *struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Website     string `json:"website"`
	} `json:"knowledgeGraph"`
	Error string `json:"message,omitempty"`
}

// Search implements search.Searcher
func (c *Client) Search(ctx context.Context, query string, numResults int) (*search.Results, error) {
	if c.config.APIKey == "" {
		return nil, fmt.Errorf("Serper API key not configured")
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	reqBody, err := json.Marshal(serperRequest{Query: query, Num: numResults})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, serperAPIURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("X-API-KEY", c.config.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Serper API error (status %d): %s", httpResp.StatusCode, string(respBody))
	}

	var resp serperResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	results := &search.Results{
		Organic: make([]search.Item, 0, len(resp.Organic)),
	}
	for _, o := range resp.Organic {
		results.Organic = append(results.Organic, search.Item{
			Title:   FlattenSnippet(o.Title),
			Snippet: FlattenSnippet(o.Snippet),
			Link:    o.Link,
		})
	}
	if kg := resp.KnowledgeGraph; kg != nil && kg.Title != "" {
		results.KnowledgePanel = &search.Item{
			Title:   FlattenSnippet(kg.Title),
			Snippet: FlattenSnippet(kg.Description),
			Link:    kg.Website,
		}
	}

	return results, nil
}

// FlattenSnippet strips HTML markup that Serper occasionally leaves in
// snippets (highlight tags, entities) and collapses whitespace.
func FlattenSnippet(s string) string {
	if !strings.Contains(s, "<") && !strings.Contains(s, "&") {
		return strings.Join(strings.Fields(s), " ")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
