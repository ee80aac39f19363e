package vector

import (
	"context"
	"math"
)

// Passage is one scripture passage stored in the semantic index.
type Passage struct {
	Text    string
	Source  string
	Book    string
	Chapter int
	Verse   int
	Score   float32
}

// Index defines the interface for semantic passage search
type Index interface {
	// QueryNearest returns the topK passages closest to the query vector,
	// best first, each carrying its similarity score.
	QueryNearest(ctx context.Context, queryVector []float32, topK int) ([]Passage, error)

	// Fetch retrieves an exact scripture reference. The second return value
	// is false when the reference does not exist.
	Fetch(ctx context.Context, book string, chapter, verse int) (Passage, bool, error)
}

// Embedder defines the interface for creating embeddings from text
type Embedder interface {
	// Embed converts text to a vector embedding
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts multiple texts to embeddings
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension return number of embedding dimensions
	Dimension() int
}

// CosineSimilarity calculates the cosine similarity between two vectors
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := 0; i < len(a); i++ {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return float32(dotProduct / (math.Sqrt(normA)*math.Sqrt(normB) + 1e-8))
}

// Normalize scales the vector to unit length (L2 norm).
func Normalize(vec []float32) []float32 {
	if len(vec) == 0 {
		return vec
	}
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}
