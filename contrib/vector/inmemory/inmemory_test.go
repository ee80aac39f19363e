package inmemory

import (
	"context"
	"testing"

	"github.com/sweetpotato0/vedabot/vector"
)

func TestQueryNearestOrdersByScore(t *testing.T) {
	idx := NewInMemoryIndex()
	ctx := context.Background()

	passages := []struct {
		p vector.Passage
		v []float32
	}{
		{vector.Passage{Book: "Bhagavad Gita", Chapter: 2, Verse: 47, Text: "act"}, []float32{1, 0, 0}},
		{vector.Passage{Book: "Bhagavad Gita", Chapter: 2, Verse: 48, Text: "yoga"}, []float32{0, 1, 0}},
		{vector.Passage{Book: "Bhagavad Gita", Chapter: 4, Verse: 7, Text: "dharma"}, []float32{0.9, 0.1, 0}},
	}
	for _, pv := range passages {
		if err := idx.AddPassage(ctx, pv.p, pv.v); err != nil {
			t.Fatalf("AddPassage failed: %v", err)
		}
	}

	got, err := idx.QueryNearest(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("QueryNearest failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 passages, got %d", len(got))
	}
	if got[0].Verse != 47 || got[1].Verse != 7 {
		t.Errorf("Unexpected ranking: %v then %v", got[0], got[1])
	}
	if got[0].Score <= got[1].Score {
		t.Errorf("Expected descending scores, got %f then %f", got[0].Score, got[1].Score)
	}
}

func TestAddPassageReplacesByReference(t *testing.T) {
	idx := NewInMemoryIndex()
	ctx := context.Background()

	p := vector.Passage{Book: "Bhagavad Gita", Chapter: 2, Verse: 47, Text: "old"}
	if err := idx.AddPassage(ctx, p, []float32{1, 0}); err != nil {
		t.Fatalf("AddPassage failed: %v", err)
	}
	p.Text = "new"
	if err := idx.AddPassage(ctx, p, []float32{1, 0}); err != nil {
		t.Fatalf("AddPassage failed: %v", err)
	}

	if idx.Count() != 1 {
		t.Errorf("Expected 1 passage, got %d", idx.Count())
	}
	got, found, err := idx.Fetch(ctx, "Bhagavad Gita", 2, 47)
	if err != nil || !found {
		t.Fatalf("Fetch failed: found=%v err=%v", found, err)
	}
	if got.Text != "new" {
		t.Errorf("Expected replaced text, got %q", got.Text)
	}
}

func TestFetchMissing(t *testing.T) {
	idx := NewInMemoryIndex()

	_, found, err := idx.Fetch(context.Background(), "Bhagavad Gita", 1, 1)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if found {
		t.Error("Expected not found")
	}
}
