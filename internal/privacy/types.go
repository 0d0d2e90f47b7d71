package privacy

// Category identifies a class of sensitive data recognized by the masker.
// Categories are opaque tags; the engine only uses them for grouping and
// selective disclosure.
type Category string

const (
	CategoryPhone Category = "PHONE"
	CategoryEmail Category = "EMAIL"
	CategoryOrder Category = "ORDER"
)

// Entry records the original value behind a single token.
type Entry struct {
	Value    string   `json:"-"` // never serialize original values
	Category Category `json:"category"`
}

// Mapping is the token table produced by one masking pass. It is owned by
// the caller for the lifetime of one request and must not be shared across
// requests.
type Mapping map[string]Entry

// Categories returns the distinct categories present in the mapping.
func (m Mapping) Categories() []Category {
	seen := make(map[Category]bool)
	var categories []Category
	for _, entry := range m {
		if !seen[entry.Category] {
			seen[entry.Category] = true
			categories = append(categories, entry.Category)
		}
	}
	return categories
}

// Finding summarizes the matches of one category in one masking pass.
// It carries counts only, never original values, so it is safe to log
// and broadcast.
type Finding struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
}

// Result contains the output of a masking pass.
type Result struct {
	MaskedText string    `json:"maskedText"`
	Mapping    Mapping   `json:"-"`
	Findings   []Finding `json:"findings"`
}
