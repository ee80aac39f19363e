package search

import "context"

// Item is a single web search result.
type Item struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

// Results holds ranked organic results plus an optional knowledge panel.
type Results struct {
	Organic        []Item
	KnowledgePanel *Item
}

// Merged returns the knowledge panel (if any) at rank 0 followed by the
// organic results.
func (r *Results) Merged() []Item {
	if r == nil {
		return nil
	}
	if r.KnowledgePanel == nil {
		return r.Organic
	}
	merged := make([]Item, 0, len(r.Organic)+1)
	merged = append(merged, *r.KnowledgePanel)
	merged = append(merged, r.Organic...)
	return merged
}

// Searcher defines the interface for web search backends.
type Searcher interface {
	Search(ctx context.Context, query string, numResults int) (*Results, error)
}
