package etl

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/segmentio/parquet-go"
	"go.uber.org/zap"

	"github.com/groundtruth/concierge/internal/faq"
	"github.com/groundtruth/concierge/internal/logger"
)

// Pipeline loads FAQ corpora into the vector store.
type Pipeline struct {
	store  *faq.VectorStore
	config *Config
	logger *logger.Logger
}

// NewPipeline creates a FAQ indexing pipeline.
func NewPipeline(store *faq.VectorStore, config *Config, log *logger.Logger) *Pipeline {
	return &Pipeline{
		store:  store,
		config: config,
		logger: log.WithComponent("etl"),
	}
}

// ProcessFile indexes a corpus file (CSV, Parquet, or JSON lines).
func (p *Pipeline) ProcessFile(ctx context.Context, filePath string) (*ProcessingResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	format := DetectFileFormat(filePath)
	p.logger.Info("Starting FAQ corpus load",
		zap.String("file", filePath),
		zap.String("format", string(format)),
		zap.Int("batch_size", p.config.BatchSize))

	start := time.Now()
	result := &ProcessingResult{}

	var err error
	switch format {
	case FormatCSV:
		err = p.processCSV(ctx, filePath, result)
	case FormatParquet:
		err = p.processParquet(ctx, filePath, result)
	case FormatJSON:
		err = p.processJSON(ctx, filePath, result)
	default:
		err = fmt.Errorf("unsupported file format: %s", format)
	}
	if err != nil {
		return result, fmt.Errorf("%s processing failed: %w", format, err)
	}

	result.Duration = time.Since(start)

	p.logger.Info("FAQ corpus load completed",
		zap.Int64("total_records", result.TotalRecords),
		zap.Int64("processed_ok", result.ProcessedOK),
		zap.Int64("processed_failed", result.ProcessedFailed),
		zap.Int64("duplicates", result.Duplicates),
		zap.Duration("total_duration", result.Duration),
		zap.Duration("database_time", result.DatabaseTime))

	return result, nil
}

// SeedBuiltin indexes the bundled policy documents.
func (p *Pipeline) SeedBuiltin(ctx context.Context) (*ProcessingResult, error) {
	start := time.Now()
	result := &ProcessingResult{}

	docs := faq.BuiltinDocs()
	if err := p.insertBatch(ctx, docs, result); err != nil {
		return result, err
	}
	result.TotalRecords = int64(len(docs))
	result.Duration = time.Since(start)
	return result, nil
}

func (p *Pipeline) processCSV(ctx context.Context, filePath string, result *ProcessingResult) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = 4 // id, text, category, source_file

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}
	p.logger.Info("CSV header detected", zap.Strings("columns", header))

	return p.processBatches(ctx, func() ([]FAQRecord, error) {
		var batch []FAQRecord
		for len(batch) < p.config.BatchSize {
			row, err := reader.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				p.logger.Warn("Failed to read CSV record", zap.Error(err))
				continue
			}
			if len(row) != 4 {
				p.logger.Warn("Invalid CSV record length", zap.Int("length", len(row)))
				continue
			}

			record := FAQRecord{
				ID:         strings.TrimSpace(row[0]),
				Text:       strings.TrimSpace(row[1]),
				Category:   strings.TrimSpace(row[2]),
				SourceFile: strings.TrimSpace(row[3]),
			}
			if p.validateRecord(&record) {
				batch = append(batch, record)
			}
		}
		return batch, nil
	}, result)
}

func (p *Pipeline) processParquet(ctx context.Context, filePath string, result *ProcessingResult) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open Parquet file: %w", err)
	}
	defer file.Close()

	reader := parquet.NewReader(file)
	defer reader.Close()

	return p.processBatches(ctx, func() ([]FAQRecord, error) {
		var batch []FAQRecord
		for len(batch) < p.config.BatchSize {
			var record FAQRecord
			err := reader.Read(&record)
			if err == io.EOF {
				break
			}
			if err != nil {
				p.logger.Warn("Failed to read Parquet record", zap.Error(err))
				continue
			}
			if p.validateRecord(&record) {
				batch = append(batch, record)
			}
		}
		return batch, nil
	}, result)
}

// processJSON reads one JSON object per line.
func (p *Pipeline) processJSON(ctx context.Context, filePath string, result *ProcessingResult) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open JSON file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)

	return p.processBatches(ctx, func() ([]FAQRecord, error) {
		var batch []FAQRecord
		for len(batch) < p.config.BatchSize {
			var record FAQRecord
			err := decoder.Decode(&record)
			if err == io.EOF {
				break
			}
			if err != nil {
				p.logger.Warn("Failed to read JSON record", zap.Error(err))
				continue
			}
			if p.validateRecord(&record) {
				batch = append(batch, record)
			}
		}
		return batch, nil
	}, result)
}

func (p *Pipeline) processBatches(ctx context.Context, readBatch func() ([]FAQRecord, error), result *ProcessingResult) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch, err := readBatch()
		if err != nil {
			return fmt.Errorf("failed to read batch: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		docs := make([]faq.Document, len(batch))
		for i, record := range batch {
			id := record.ID
			if id == "" {
				id = computeTextHash(record.Text)
			}
			docs[i] = faq.Document{
				ID:   id,
				Text: record.Text,
				Metadata: map[string]string{
					"category":    record.Category,
					"source_file": record.SourceFile,
				},
			}
		}

		result.TotalRecords += int64(len(batch))
		if err := p.insertBatch(ctx, docs, result); err != nil {
			p.logger.Error("Batch processing failed", zap.Error(err))
			result.ProcessedFailed += int64(len(batch))
			result.Errors = append(result.Errors, err.Error())
			continue
		}

		if p.config.ProgressReport > 0 && result.TotalRecords%int64(p.config.ProgressReport) == 0 {
			p.logger.Info("Indexing progress",
				zap.Int64("records_processed", result.TotalRecords),
				zap.Int64("records_ok", result.ProcessedOK),
				zap.Int64("records_failed", result.ProcessedFailed))
		}
	}

	return nil
}

func (p *Pipeline) insertBatch(ctx context.Context, docs []faq.Document, result *ProcessingResult) error {
	dbStart := time.Now()
	batchResult, err := p.store.BatchInsert(ctx, docs)
	result.DatabaseTime += time.Since(dbStart)
	if err != nil {
		return fmt.Errorf("database batch insert failed: %w", err)
	}

	result.ProcessedOK += batchResult.Inserted
	result.Duplicates += batchResult.Skipped

	p.logger.Debug("Batch indexed",
		zap.Int("batch_size", len(docs)),
		zap.Int64("inserted", batchResult.Inserted),
		zap.Int64("duplicates", batchResult.Skipped))

	return nil
}

func (p *Pipeline) validateRecord(record *FAQRecord) bool {
	if !p.config.ValidateData {
		return true
	}
	if strings.TrimSpace(record.Text) == "" {
		p.logger.Debug("Invalid record: empty text")
		return false
	}
	if len(record.Text) > 10000 {
		p.logger.Debug("Invalid record: text too long", zap.Int("length", len(record.Text)))
		return false
	}
	return true
}

// computeTextHash derives a stable document id from the passage text.
func computeTextHash(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}
