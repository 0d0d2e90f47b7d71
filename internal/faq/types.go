package faq

import "context"

// Snippet is one retrieved FAQ passage with its source metadata.
type Snippet struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
}

// Document is an indexable FAQ passage.
type Document struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
}

// BatchInsertResult contains the outcome of a bulk indexing operation.
type BatchInsertResult struct {
	Inserted int64
	Skipped  int64
	Failed   int64
}

// Retriever answers knowledge questions with the most relevant passages.
// Retrieval never fails a chat turn: implementations return an empty
// slice when the backing index is empty or unreachable.
type Retriever interface {
	Query(ctx context.Context, question string, topK int) []Snippet
	Close() error
}
