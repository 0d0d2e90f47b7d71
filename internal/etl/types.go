package etl

import (
	"strings"
	"time"
)

// FAQRecord represents a single FAQ passage from the input corpus
type FAQRecord struct {
	ID         string `csv:"id" parquet:"id" json:"id"`
	Text       string `csv:"text" parquet:"text" json:"text"`
	Category   string `csv:"category" parquet:"category" json:"category"`
	SourceFile string `csv:"source_file" parquet:"source_file" json:"source_file"`
}

// ProcessingResult represents the result of indexing a corpus
type ProcessingResult struct {
	TotalRecords    int64         `json:"total_records"`
	ProcessedOK     int64         `json:"processed_ok"`
	ProcessedFailed int64         `json:"processed_failed"`
	Duplicates      int64         `json:"duplicates"`
	Duration        time.Duration `json:"duration"`
	DatabaseTime    time.Duration `json:"database_time"`
	Errors          []string      `json:"errors,omitempty"`
}

// Config contains ETL pipeline configuration
type Config struct {
	BatchSize      int  `yaml:"batch_size" mapstructure:"batch_size"`           // 100
	ValidateData   bool `yaml:"validate_data" mapstructure:"validate_data"`     // true
	ProgressReport int  `yaml:"progress_report" mapstructure:"progress_report"` // 100
}

// FileFormat represents supported corpus file formats
type FileFormat string

const (
	FormatCSV     FileFormat = "csv"
	FormatParquet FileFormat = "parquet"
	FormatJSON    FileFormat = "json"
)

// DetectFileFormat detects file format from extension
func DetectFileFormat(filename string) FileFormat {
	switch {
	case strings.HasSuffix(filename, ".parquet"):
		return FormatParquet
	case strings.HasSuffix(filename, ".json"), strings.HasSuffix(filename, ".jsonl"):
		return FormatJSON
	default:
		return FormatCSV
	}
}
