package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

// HashService produces fast deterministic embeddings from text hashes
// with lightweight lexical features mixed in. It needs no model files or
// network and is the default service: the same text always embeds to the
// same vector, so index and query vectors stay comparable across runs.
type HashService struct {
	logger *zap.Logger
}

// NewHashService creates a hash-based embedding service.
func NewHashService(logger *zap.Logger) *HashService {
	logger.Info("Hash embedding service initialized",
		zap.Int("embedding_dimensions", EmbeddingDimensions))
	return &HashService{logger: logger}
}

// GenerateEmbedding returns a normalized deterministic embedding.
func (s *HashService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	embedding := make([]float32, EmbeddingDimensions)

	// Base features from the text hash (dimensions 0-255).
	hash := sha256.Sum256([]byte(strings.ToLower(text)))
	s.hashFeatures(hash, embedding[:256])

	// Word-level features so texts sharing vocabulary land near each
	// other (dimensions 256-319).
	s.wordFeatures(text, embedding[256:320])

	// Shape features (dimensions 320-383).
	s.textFeatures(text, embedding[320:])

	return normalize(embedding), nil
}

// GenerateBatchEmbeddings returns one embedding per input text.
func (s *HashService) GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embedding, err := s.GenerateEmbedding(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed text %d: %w", i, err)
		}
		embeddings[i] = embedding
	}
	return embeddings, nil
}

// hashFeatures fills target with deterministic values seeded from the hash.
func (s *HashService) hashFeatures(hash [32]byte, target []float32) {
	seeds := []int64{
		int64(binary.BigEndian.Uint64(hash[0:8])),
		int64(binary.BigEndian.Uint64(hash[8:16])),
		int64(binary.BigEndian.Uint64(hash[16:24])),
		int64(binary.BigEndian.Uint64(hash[24:32])),
	}

	segmentSize := len(target) / len(seeds)
	for i, seed := range seeds {
		rng := rand.New(rand.NewSource(seed))
		start := i * segmentSize
		end := start + segmentSize
		if i == len(seeds)-1 {
			end = len(target)
		}
		// Low weight: the hash base separates texts with no shared
		// vocabulary without drowning out the word features.
		for j := start; j < end; j++ {
			target[j] = float32(rng.NormFloat64()) * 0.1
		}
	}
}

// wordFeatures hashes individual words into buckets so shared vocabulary
// produces overlapping activations.
func (s *HashService) wordFeatures(text string, target []float32) {
	words := strings.Fields(strings.ToLower(text))
	for _, word := range words {
		trimmed := strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len(trimmed) < 3 {
			continue
		}
		h := sha256.Sum256([]byte(trimmed))
		bucket := int(binary.BigEndian.Uint32(h[:4])) % len(target)
		if bucket < 0 {
			bucket += len(target)
		}
		target[bucket] += 1.0
	}
}

// textFeatures encodes coarse shape characteristics of the text.
func (s *HashService) textFeatures(text string, target []float32) {
	words := strings.Fields(text)
	wordCount := len(words)

	var avgWordLen float64
	for _, w := range words {
		avgWordLen += float64(len(w))
	}
	if wordCount > 0 {
		avgWordLen /= float64(wordCount)
	}

	var digits, uppers, questions int
	for _, r := range text {
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsUpper(r):
			uppers++
		case r == '?':
			questions++
		}
	}
	length := len(text)
	if length == 0 {
		length = 1
	}

	target[0] = float32(math.Min(float64(len(text))/1000.0, 1.0))
	target[1] = float32(math.Min(float64(wordCount)/100.0, 1.0))
	target[2] = float32(math.Min(avgWordLen/20.0, 1.0))
	target[3] = float32(digits) / float32(length)
	target[4] = float32(uppers) / float32(length)
	target[5] = float32(questions) / float32(length)

	for i := 6; i < len(target); i++ {
		combined := (target[i%6] + target[(i+1)%6]) / 2.0
		target[i] = float32(math.Sin(float64(combined) * math.Pi))
	}
}

// Name identifies the backing implementation.
func (s *HashService) Name() string {
	return "hash"
}

// Close is a no-op for the hash service.
func (s *HashService) Close() error {
	return nil
}
