// Package inmemory implements vector.Index in process memory. Useful for
// tests and small corpora; production deployments use the pgvector index.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sweetpotato0/vedabot/vector"
)

type entry struct {
	passage   vector.Passage
	embedding []float32
}

// InMemoryIndex implements vector.Index using in-memory storage
type InMemoryIndex struct {
	mu      sync.RWMutex
	entries []entry
	byRef   map[string]int
}

// NewInMemoryIndex creates a new in-memory passage index
func NewInMemoryIndex() *InMemoryIndex {
	return &InMemoryIndex{
		byRef: make(map[string]int),
	}
}

func refKey(book string, chapter, verse int) string {
	return fmt.Sprintf("%s|%d|%d", book, chapter, verse)
}

// AddPassage adds or replaces one passage
func (s *InMemoryIndex) AddPassage(ctx context.Context, p vector.Passage, embedding []float32) error {
	if p.Book == "" {
		return fmt.Errorf("passage book cannot be empty")
	}
	if len(embedding) == 0 {
		return fmt.Errorf("embedding cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := refKey(p.Book, p.Chapter, p.Verse)
	if i, ok := s.byRef[key]; ok {
		s.entries[i] = entry{passage: p, embedding: embedding}
		return nil
	}
	s.byRef[key] = len(s.entries)
	s.entries = append(s.entries, entry{passage: p, embedding: embedding})
	return nil
}

// QueryNearest implements vector.Index using cosine similarity
func (s *InMemoryIndex) QueryNearest(ctx context.Context, embedding []float32, topK int) ([]vector.Passage, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("query vector cannot be empty")
	}
	if topK <= 0 {
		topK = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := make([]vector.Passage, 0, len(s.entries))
	for _, e := range s.entries {
		p := e.passage
		p.Score = vector.CosineSimilarity(embedding, e.embedding)
		scored = append(scored, p)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

// Fetch implements vector.Index point lookup
func (s *InMemoryIndex) Fetch(ctx context.Context, book string, chapter, verse int) (vector.Passage, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i, ok := s.byRef[refKey(book, chapter, verse)]; ok {
		return s.entries[i].passage, true, nil
	}
	return vector.Passage{}, false, nil
}

// Count returns the number of indexed passages
func (s *InMemoryIndex) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
