package privacy

import "strings"

// Unmask restores tokens recorded in mapping to their original values.
// A nil allowed list permits every category present in the mapping; a
// non-nil list restores only tokens whose category it contains. Tokens
// absent from the mapping, or present but not eligible, are left verbatim:
// on any mismatch the worst outcome is an opaque token in the output,
// never spuriously inserted sensitive data. Unmask does not fail.
//
// An empty mapping is a no-op returning text unchanged.
func Unmask(text string, mapping Mapping, allowed []Category) string {
	if len(mapping) == 0 {
		return text
	}

	var allow map[Category]bool
	if allowed != nil {
		allow = make(map[Category]bool, len(allowed))
		for _, c := range allowed {
			allow[c] = true
		}
	}

	// Replacement order across tokens is irrelevant: under the fixed
	// [CATEGORY_n] syntax no token is a substring of another.
	for token, entry := range mapping {
		if allow != nil && !allow[entry.Category] {
			continue
		}
		text = strings.ReplaceAll(text, token, entry.Value)
	}

	return text
}
