package embeddings

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GenAIService generates embeddings with the Gemini API. Vectors beyond
// EmbeddingDimensions are truncated and renormalized so the FAQ index
// schema stays fixed regardless of model.
type GenAIService struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewGenAIService creates a Gemini-backed embedding service.
func NewGenAIService(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GenAIService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("genai embeddings require an API key")
	}
	if model == "" {
		model = "gemini-embedding-001"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	logger.Info("GenAI embedding service initialized", zap.String("model", model))

	return &GenAIService{client: client, model: model, logger: logger}, nil
}

// GenerateEmbedding returns one normalized embedding for text.
func (s *GenAIService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	batch, err := s.GenerateBatchEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return batch[0], nil
}

// GenerateBatchEmbeddings returns one embedding per input text.
func (s *GenAIService) GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := s.client.Models.EmbedContent(ctx, s.model, contents, &genai.EmbedContentConfig{
		TaskType: "RETRIEVAL_DOCUMENT",
	})
	if err != nil {
		return nil, fmt.Errorf("genai embed failed: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("genai returned %d embeddings for %d texts", len(result.Embeddings), len(texts))
	}

	embeddings := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		embeddings[i] = fitDimensions(emb.Values)
	}
	return embeddings, nil
}

// fitDimensions truncates or zero-pads a vector to EmbeddingDimensions
// and renormalizes.
func fitDimensions(v []float32) []float32 {
	out := make([]float32, EmbeddingDimensions)
	copy(out, v)
	return normalize(out)
}

// Name identifies the backing implementation.
func (s *GenAIService) Name() string {
	return fmt.Sprintf("genai:%s", s.model)
}

// Close releases the service. The genai client holds no connection
// state that needs explicit teardown.
func (s *GenAIService) Close() error {
	return nil
}
