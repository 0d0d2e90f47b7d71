package privacy

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/groundtruth/concierge/internal/config"
	"github.com/groundtruth/concierge/internal/logger"
)

// Masker detects sensitive spans and replaces them with reversible
// placeholder tokens. A Masker holds no per-request state: the mapping
// table and category counters live entirely inside each Mask call, so
// concurrent requests can share one instance without coordination.
type Masker struct {
	rules   []DetectionRule
	enabled map[Category]bool
	logger  *logger.Logger
	config  config.PrivacyConfig
}

// New creates a masker with the default category rules.
func New(cfg config.PrivacyConfig, log *logger.Logger) (*Masker, error) {
	m := &Masker{
		rules:   DefaultRules(),
		enabled: make(map[Category]bool),
		logger:  log,
		config:  cfg,
	}

	if err := m.configureDetectors(cfg.Detectors); err != nil {
		return nil, fmt.Errorf("failed to configure detectors: %w", err)
	}

	log.Info("Privacy masker initialized",
		zap.Int("total_rules", len(m.rules)),
		zap.Int("enabled_rules", m.countEnabledRules()),
	)

	return m, nil
}

// configureDetectors enables categories named in the configuration.
func (m *Masker) configureDetectors(detectors []string) error {
	for _, rule := range m.rules {
		m.enabled[rule.Category] = false
	}

	for _, detector := range detectors {
		if detector == "all" {
			for _, rule := range m.rules {
				m.enabled[rule.Category] = true
			}
			continue
		}

		found := false
		for _, rule := range m.rules {
			if string(rule.Category) == detector {
				m.enabled[rule.Category] = true
				found = true
				break
			}
		}

		if !found {
			return fmt.Errorf("unknown detector: %s", detector)
		}
	}

	return nil
}

// Mask runs one masking pass over text: every enabled category, in the
// fixed application order, scans the text as transformed by the categories
// before it. The returned mapping holds one entry per minted token and is
// owned by the caller.
func (m *Masker) Mask(text string) Result {
	mapping := make(Mapping)

	if !m.config.Enabled {
		return Result{MaskedText: text, Mapping: mapping}
	}

	counters := make(map[Category]int)
	masked, findings := m.maskPass(text, mapping, counters)

	for _, f := range findings {
		m.logger.Debug("Sensitive data masked",
			zap.String("category", string(f.Category)),
			zap.Int("count", f.Count),
		)
	}

	return Result{MaskedText: masked, Mapping: mapping, Findings: findings}
}

// MaskStructure recursively masks every string leaf of a structure of
// nested map[string]any and []any values. One counter set is threaded
// through the whole walk, so tokens stay unique across leaves and the
// merged mapping never overwrites an entry. Non-string, non-map,
// non-slice leaves pass through unchanged.
func (m *Masker) MaskStructure(value any) (any, Mapping) {
	mapping := make(Mapping)

	if !m.config.Enabled {
		return value, mapping
	}

	counters := make(map[Category]int)
	masked := m.maskValue(value, mapping, counters)
	return masked, mapping
}

func (m *Masker) maskValue(v any, mapping Mapping, counters map[Category]int) any {
	switch x := v.(type) {
	case string:
		masked, _ := m.maskPass(x, mapping, counters)
		return masked
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = m.maskValue(val, mapping, counters)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = m.maskValue(val, mapping, counters)
		}
		return out
	default:
		return v
	}
}

// maskPass applies every enabled rule in order, recording minted tokens in
// mapping and advancing the caller-owned counters.
func (m *Masker) maskPass(text string, mapping Mapping, counters map[Category]int) (string, []Finding) {
	var findings []Finding

	for _, rule := range m.rules {
		if !m.enabled[rule.Category] {
			continue
		}

		var count int
		text, count = maskCategory(text, rule, mapping, counters)
		if count > 0 {
			findings = append(findings, Finding{Category: rule.Category, Count: count})
		}
	}

	return text, findings
}

type span struct {
	start, end int
}

// maskCategory replaces every match of one rule with a freshly minted
// token. Spans inside existing tokens are skipped, which keeps remasking
// of already-masked text a no-op.
func maskCategory(text string, rule DetectionRule, mapping Mapping, counters map[Category]int) (string, int) {
	locs := rule.Pattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text, 0
	}

	occupied := tokenPattern.FindAllStringIndex(text, -1)

	var spans []span
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		for end > start && strings.ContainsRune(rule.TrimTrailing, rune(text[end-1])) {
			end--
		}
		if end <= start || overlapsAny(occupied, start, end) {
			continue
		}
		spans = append(spans, span{start, end})
	}

	if len(spans) == 0 {
		return text, 0
	}

	// Mint left to right so sequence numbers follow reading order.
	tokens := make([]string, len(spans))
	for i, s := range spans {
		counters[rule.Category]++
		token := mintToken(rule.Category, counters[rule.Category])
		mapping[token] = Entry{Value: text[s.start:s.end], Category: rule.Category}
		tokens[i] = token
	}

	// Replace right to left so earlier offsets stay valid.
	for i := len(spans) - 1; i >= 0; i-- {
		s := spans[i]
		text = text[:s.start] + tokens[i] + text[s.end:]
	}

	return text, len(spans)
}

func overlapsAny(occupied [][]int, start, end int) bool {
	for _, o := range occupied {
		if start < o[1] && o[0] < end {
			return true
		}
	}
	return false
}

// mintToken produces the next placeholder for a category. Token syntax is
// bracket-delimited with a numeric suffix so it cannot satisfy any
// category pattern.
func mintToken(category Category, n int) string {
	return fmt.Sprintf("[%s_%d]", category, n)
}

// EnabledCategories returns the categories this masker will match,
// in application order.
func (m *Masker) EnabledCategories() []Category {
	var out []Category
	for _, rule := range m.rules {
		if m.enabled[rule.Category] {
			out = append(out, rule.Category)
		}
	}
	return out
}

func (m *Masker) countEnabledRules() int {
	count := 0
	for _, enabled := range m.enabled {
		if enabled {
			count++
		}
	}
	return count
}
