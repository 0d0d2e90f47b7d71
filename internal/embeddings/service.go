package embeddings

import (
	"context"
	"math"
)

// EmbeddingDimensions is the fixed dimensionality every service produces.
// The FAQ index schema depends on it.
const EmbeddingDimensions = 384

// Service generates text embeddings for FAQ indexing and retrieval.
type Service interface {
	// GenerateEmbedding returns one normalized embedding for text.
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	// GenerateBatchEmbeddings returns one embedding per input text.
	GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	// Name identifies the backing implementation.
	Name() string
	Close() error
}

// CosineSimilarity computes the cosine similarity of two vectors. Vectors
// of mismatched or zero length score 0.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// normalize scales a vector to unit length in place and returns it.
func normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}

	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v
}
