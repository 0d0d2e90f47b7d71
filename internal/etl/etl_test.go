package etl

import (
	"strings"
	"testing"

	"github.com/groundtruth/concierge/internal/logger"
)

func TestDetectFileFormat(t *testing.T) {
	cases := map[string]FileFormat{
		"faqs.csv":     FormatCSV,
		"faqs.parquet": FormatParquet,
		"faqs.json":    FormatJSON,
		"faqs.jsonl":   FormatJSON,
		"faqs.txt":     FormatCSV,
	}
	for name, want := range cases {
		if got := DetectFileFormat(name); got != want {
			t.Errorf("DetectFileFormat(%q) = %s, want %s", name, got, want)
		}
	}
}

func TestValidateRecord(t *testing.T) {
	p := NewPipeline(nil, &Config{ValidateData: true}, logger.NewNop())

	if p.validateRecord(&FAQRecord{Text: ""}) {
		t.Error("empty text should be invalid")
	}
	if p.validateRecord(&FAQRecord{Text: strings.Repeat("x", 10001)}) {
		t.Error("oversized text should be invalid")
	}
	if !p.validateRecord(&FAQRecord{Text: "Standard delivery takes 2-4 business days."}) {
		t.Error("normal record should be valid")
	}

	relaxed := NewPipeline(nil, &Config{ValidateData: false}, logger.NewNop())
	if !relaxed.validateRecord(&FAQRecord{Text: ""}) {
		t.Error("validation disabled should accept anything")
	}
}

func TestComputeTextHash(t *testing.T) {
	a := computeTextHash("same text")
	b := computeTextHash("same text")
	c := computeTextHash("different text")
	if a != b {
		t.Error("hash should be deterministic")
	}
	if a == c {
		t.Error("different texts should hash differently")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64", len(a))
	}
}
