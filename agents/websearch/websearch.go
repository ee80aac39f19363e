// Package websearch implements the web-search agent. Off-topic queries get
// a domain-disambiguation suffix before hitting the backend; backend failure
// is reported as zero results, not as an error.
package websearch

import (
	"context"
	"fmt"
	"strings"

	"github.com/sweetpotato0/vedabot/agent"
	"github.com/sweetpotato0/vedabot/config"
	"github.com/sweetpotato0/vedabot/pkg/logging"
	"github.com/sweetpotato0/vedabot/search"
)

// NoResultsResponse is the fixed response for a query with zero results.
const NoResultsResponse = "No web results found for this query."

// DomainSuffix is appended to queries that match none of the domain
// keywords.
const DomainSuffix = "hinduism"

const defaultNumResults = 5

// Agent searches the web through a search.Searcher backend.
type Agent struct {
	searcher search.Searcher
	keywords []string
}

// New creates a web-search agent.
func New(searcher search.Searcher, cfg *config.Config) *Agent {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Agent{
		searcher: searcher,
		keywords: cfg.DomainKeywords,
	}
}

// Name implements agent.Agent.
func (a *Agent) Name() string { return "Web Search" }

// Kind implements agent.Agent.
func (a *Agent) Kind() agent.Kind { return agent.KindWeb }

// Process searches the web for the query.
func (a *Agent) Process(ctx context.Context, query string, _ *agent.Context) (*agent.Output, error) {
	enhanced := a.enhanceQuery(query)
	results := a.searchMerged(ctx, enhanced)

	if len(results) == 0 {
		return &agent.Output{
			Response:   NoResultsResponse,
			Confidence: 0,
			Sources:    []string{},
			Metadata:   map[string]any{"query_used": enhanced},
		}, nil
	}

	return &agent.Output{
		Response:   formatResults(results),
		Confidence: agent.ClampConfidence(len(results) * 20),
		Sources:    extractSources(results),
		Metadata: map[string]any{
			"num_results": len(results),
			"query_used":  enhanced,
		},
	}, nil
}

// SearchSite performs a search scoped to one site, outside the main flow.
func (a *Agent) SearchSite(ctx context.Context, query, site string) (*agent.Output, error) {
	scoped := query
	if site != "" {
		scoped = fmt.Sprintf("site:%s %s", site, query)
	}

	results := a.searchMerged(ctx, scoped)
	if len(results) == 0 {
		return &agent.Output{
			Response:   NoResultsResponse,
			Confidence: 0,
			Sources:    []string{},
			Metadata:   map[string]any{"query_used": scoped},
		}, nil
	}

	return &agent.Output{
		Response:   formatResults(results),
		Confidence: agent.ClampConfidence(len(results) * 20),
		Sources:    extractSources(results),
		Metadata:   map[string]any{"num_results": len(results), "query_used": scoped},
	}, nil
}

// enhanceQuery appends the domain suffix when the query carries none of the
// domain keywords. Matching is case-insensitive substring.
func (a *Agent) enhanceQuery(query string) string {
	lower := strings.ToLower(query)
	for _, kw := range a.keywords {
		if strings.Contains(lower, kw) {
			return query
		}
	}
	return query + " " + DomainSuffix
}

// searchMerged calls the backend and flattens the knowledge panel into the
// ranked results. A backend error degrades to an empty list.
func (a *Agent) searchMerged(ctx context.Context, query string) []search.Item {
	results, err := a.searcher.Search(ctx, query, defaultNumResults)
	if err != nil {
		logging.WithComponent("websearch").Error("search failed", "query", query, "error", err)
		return nil
	}
	merged := results.Merged()
	if len(merged) > defaultNumResults {
		merged = merged[:defaultNumResults]
	}
	return merged
}

func formatResults(results []search.Item) string {
	formatted := make([]string, 0, len(results))
	for i, r := range results {
		title := r.Title
		if title == "" {
			title = "No title"
		}
		snippet := r.Snippet
		if snippet == "" {
			snippet = "No description"
		}
		formatted = append(formatted, fmt.Sprintf("%d. %s\n%s", i+1, title, snippet))
	}
	return strings.Join(formatted, "\n\n")
}

func extractSources(results []search.Item) []string {
	sources := make([]string, 0, len(results))
	for _, r := range results {
		if r.Link != "" {
			sources = append(sources, r.Link)
		}
	}
	return sources
}
