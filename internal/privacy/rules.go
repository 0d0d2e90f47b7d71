package privacy

import "regexp"

// DetectionRule binds a category to the pattern that recognizes it.
// Matching is leftmost-first and non-overlapping within a category
// (regexp.FindAllStringIndex semantics); unmask round-trips depend on
// these boundaries staying consistent, so the choice is fixed here.
type DetectionRule struct {
	Category     Category
	Pattern      *regexp.Regexp
	TrimTrailing string // characters stripped from the end of a match before tokenizing
}

// DefaultRules returns the category rules in their fixed application order:
// PHONE, then EMAIL, then ORDER. Later categories scan text already
// transformed by earlier ones; reordering changes masking output and is a
// breaking change.
func DefaultRules() []DetectionRule {
	return []DetectionRule{
		{
			// 9-16 characters of digits with interior hyphens/spaces and an
			// optional leading +. Trailing separators are trimmed so they
			// stay outside the token.
			Category:     CategoryPhone,
			Pattern:      regexp.MustCompile(`\+?\d[\d\-\s]{8,15}`),
			TrimTrailing: "- \t",
		},
		{
			Category: CategoryEmail,
			Pattern:  regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`),
		},
		{
			Category: CategoryOrder,
			Pattern:  regexp.MustCompile(`\b(?:ORD|ORDER)[-_]?\d+\b`),
		},
	}
}

// tokenPattern matches the [CATEGORY_n] placeholder syntax. Spans matching
// it are treated as occupied during a masking pass, so no category rule can
// re-match inside an existing token and a second pass over masked text is a
// no-op.
var tokenPattern = regexp.MustCompile(`\[[A-Z]+_[0-9]+\]`)
