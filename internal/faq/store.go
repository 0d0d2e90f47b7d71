package faq

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/groundtruth/concierge/internal/config"
	"github.com/groundtruth/concierge/internal/embeddings"
	"github.com/groundtruth/concierge/internal/logger"
)

// VectorStore retrieves FAQ passages from PostgreSQL with pgvector.
type VectorStore struct {
	db            *sqlx.DB
	embedder      embeddings.Service
	logger        *logger.Logger
	minSimilarity float64
}

// NewVectorStore connects to the FAQ database and ensures the snippet
// table exists.
func NewVectorStore(cfg config.FAQConfig, embedder embeddings.Service, log *logger.Logger) (*VectorStore, error) {
	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	store := &VectorStore{
		db:            db,
		embedder:      embedder,
		logger:        log,
		minSimilarity: cfg.MinSimilarity,
	}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize FAQ store: %w", err)
	}

	log.Info("FAQ vector store initialized",
		zap.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
		zap.String("embedder", embedder.Name()),
		zap.Float64("min_similarity", cfg.MinSimilarity))

	return store, nil
}

// initialize checks the connection, verifies pgvector and creates the
// snippet table.
func (s *VectorStore) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	var extensionExists bool
	query := "SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'vector')"
	if err := s.db.GetContext(ctx, &extensionExists, query); err != nil {
		return fmt.Errorf("failed to check pgvector extension: %w", err)
	}
	if !extensionExists {
		return fmt.Errorf("pgvector extension is not installed")
	}

	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS faq_snippets (
			id BIGSERIAL PRIMARY KEY,
			doc_id TEXT NOT NULL UNIQUE,
			text TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			source_file TEXT NOT NULL DEFAULT '',
			embedding vector(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, embeddings.EmbeddingDimensions)
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create faq_snippets table: %w", err)
	}

	return nil
}

// Query embeds the question and returns the closest passages above the
// similarity floor. Any failure along the way degrades to an empty
// result so the chat turn still completes.
func (s *VectorStore) Query(ctx context.Context, question string, topK int) []Snippet {
	if topK <= 0 {
		return nil
	}

	embedding, err := s.embedder.GenerateEmbedding(ctx, question)
	if err != nil {
		s.logger.Warn("FAQ query embedding failed, returning no snippets", zap.Error(err))
		return nil
	}

	query := `
		SELECT text, category, source_file,
			(1 - (embedding <=> $1)) as similarity
		FROM faq_snippets
		WHERE (1 - (embedding <=> $1)) >= $2
		ORDER BY embedding <=> $1
		LIMIT $3`

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, formatEmbedding(embedding), s.minSimilarity, topK)
	if err != nil {
		s.logger.Warn("FAQ similarity search failed, returning no snippets", zap.Error(err))
		return nil
	}
	defer rows.Close()

	var snippets []Snippet
	for rows.Next() {
		var text, category, sourceFile string
		var similarity float64
		if err := rows.Scan(&text, &category, &sourceFile, &similarity); err != nil {
			s.logger.Warn("Failed to scan FAQ row", zap.Error(err))
			continue
		}
		snippets = append(snippets, Snippet{
			Text: text,
			Metadata: map[string]string{
				"category":    category,
				"source_file": sourceFile,
			},
		})
	}

	s.logger.Debug("FAQ similarity search completed",
		zap.Int("results", len(snippets)),
		zap.Duration("duration", time.Since(start)))

	return snippets
}

// BatchInsert embeds and indexes documents, skipping doc IDs that are
// already present.
func (s *VectorStore) BatchInsert(ctx context.Context, docs []Document) (*BatchInsertResult, error) {
	if len(docs) == 0 {
		return &BatchInsertResult{}, nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	vectors, err := s.embedder.GenerateBatchEmbeddings(ctx, texts)
	if err != nil {
		return &BatchInsertResult{Failed: int64(len(docs))}, fmt.Errorf("failed to embed documents: %w", err)
	}

	valueStrings := make([]string, 0, len(docs))
	valueArgs := make([]interface{}, 0, len(docs)*5)
	for i, doc := range docs {
		valueStrings = append(valueStrings, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)",
			i*5+1, i*5+2, i*5+3, i*5+4, i*5+5))
		valueArgs = append(valueArgs,
			doc.ID,
			doc.Text,
			doc.Metadata["category"],
			doc.Metadata["source_file"],
			formatEmbedding(vectors[i]),
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO faq_snippets (doc_id, text, category, source_file, embedding)
		VALUES %s
		ON CONFLICT (doc_id) DO NOTHING`,
		strings.Join(valueStrings, ","))

	res, err := s.db.ExecContext(ctx, query, valueArgs...)
	if err != nil {
		s.logger.Error("FAQ batch insert failed", zap.Error(err))
		return &BatchInsertResult{Failed: int64(len(docs))}, fmt.Errorf("batch insert failed: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		s.logger.Warn("Could not get rows affected", zap.Error(err))
		inserted = int64(len(docs))
	}

	result := &BatchInsertResult{
		Inserted: inserted,
		Skipped:  int64(len(docs)) - inserted,
	}

	s.logger.Info("FAQ batch insert completed",
		zap.Int64("inserted", result.Inserted),
		zap.Int64("duplicates_skipped", result.Skipped))

	return result, nil
}

// Count returns the number of indexed snippets.
func (s *VectorStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM faq_snippets"); err != nil {
		return 0, fmt.Errorf("failed to count FAQ snippets: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *VectorStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// formatEmbedding converts a float32 slice to the pgvector literal format.
func formatEmbedding(embedding []float32) string {
	if len(embedding) == 0 {
		return "[]"
	}
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// maskDatabaseURL hides the password portion of a connection URL for logs.
func maskDatabaseURL(url string) string {
	if strings.Contains(url, "@") {
		parts := strings.Split(url, "@")
		if len(parts) >= 2 {
			userPart := parts[0]
			if strings.Contains(userPart, ":") {
				userParts := strings.Split(userPart, ":")
				if len(userParts) >= 3 {
					userParts[len(userParts)-1] = "***"
					parts[0] = strings.Join(userParts, ":")
				}
			}
			return strings.Join(parts, "@")
		}
	}
	return url
}
