// Package scripture implements the semantic scripture-search agent. It
// embeds the query, retrieves the nearest passages from a vector index and
// keeps only those above the similarity threshold.
package scripture

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/sweetpotato0/vedabot/agent"
	"github.com/sweetpotato0/vedabot/config"
	"github.com/sweetpotato0/vedabot/vector"
)

// NoResultsResponse is the fixed response when no passage clears the
// similarity threshold. The orchestrator's verification fallback chain
// checks for it.
const NoResultsResponse = "No relevant scripture passages found for this query."

// Agent searches the scripture vector index.
type Agent struct {
	embedder vector.Embedder
	index    vector.Index
	topK     int
	minScore float32
}

// New creates a scripture-search agent.
func New(embedder vector.Embedder, index vector.Index, cfg *config.Config) *Agent {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Agent{
		embedder: embedder,
		index:    index,
		topK:     cfg.TopKPassages,
		minScore: cfg.MinPassageScore,
	}
}

// Name implements agent.Agent.
func (a *Agent) Name() string { return "Scripture Search" }

// Kind implements agent.Agent.
func (a *Agent) Kind() agent.Kind { return agent.KindScripture }

// Process embeds the query and retrieves relevant passages.
func (a *Agent) Process(ctx context.Context, query string, _ *agent.Context) (*agent.Output, error) {
	queryVector, err := a.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	passages, err := a.index.QueryNearest(ctx, queryVector, a.topK)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	var kept []vector.Passage
	var sources []string
	for _, p := range passages {
		if p.Score <= a.minScore {
			continue
		}
		kept = append(kept, p)
		source := p.Source
		if source == "" {
			source = "Unknown"
		}
		sources = append(sources, source)
	}

	if len(kept) == 0 {
		return &agent.Output{
			Response:   NoResultsResponse,
			Confidence: 0,
			Sources:    []string{},
			Metadata:   map[string]any{"num_passages": 0},
		}, nil
	}

	return &agent.Output{
		Response:   formatPassages(kept),
		Confidence: int(math.Round(float64(kept[0].Score) * 100)),
		Sources:    sources,
		Metadata: map[string]any{
			"num_passages": len(kept),
			"passages":     kept,
		},
	}, nil
}

// Lookup retrieves an exact scripture reference, bypassing semantic search.
func (a *Agent) Lookup(ctx context.Context, book string, chapter, verse int) (vector.Passage, bool, error) {
	return a.index.Fetch(ctx, book, chapter, verse)
}

func formatPassages(passages []vector.Passage) string {
	formatted := make([]string, 0, len(passages))
	for _, p := range passages {
		formatted = append(formatted, fmt.Sprintf("%s:\n%s", p.Source, p.Text))
	}
	return strings.Join(formatted, "\n\n")
}
