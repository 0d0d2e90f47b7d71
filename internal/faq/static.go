package faq

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/groundtruth/concierge/internal/logger"
)

// BuiltinDocs returns the bundled GroundTruth policy documents. They seed
// the static retriever and the ETL command when no external corpus is given.
func BuiltinDocs() []Document {
	return []Document{
		{
			ID: "return_policy_1",
			Text: "Return & Refund Policy - GroundTruth Coffee Stores. " +
				"Customers may return eligible products within 30 days of purchase. " +
				"Perishables such as baked items or fresh beverages must be reported within 24 hours. " +
				"Items must be unopened, unused, and in their original packaging. " +
				"Gift cards and promotional items are non-refundable. " +
				"Refunds are issued to the original mode of payment and may take 2-5 business days. " +
				"Online orders can be returned via the Order History section. " +
				"Customized beverages, discounted merchandise, opened food items, " +
				"and free promotional products are not eligible for return.",
			Metadata: map[string]string{"category": "return_policy", "source_file": "return_policy.pdf"},
		},
		{
			ID: "shipping_policy_1",
			Text: "Shipping & Delivery Guidelines - GroundTruth Coffee. " +
				"Standard delivery takes 2-4 business days. " +
				"Express delivery takes 1-2 business days. " +
				"Same-day delivery is available in select metro cities for orders placed before 2 PM. " +
				"Standard delivery is free on orders above Rs. 499, otherwise a Rs. 49 fee applies. " +
				"Express delivery costs Rs. 99 and same-day delivery costs Rs. 149. " +
				"Every order includes a tracking ID that can be used in the Track My Order section. " +
				"Delays may occur due to weather, holidays, high seasonal demand, or incorrect address. " +
				"Lost or damaged packages are eligible for refund or replacement.",
			Metadata: map[string]string{"category": "shipping_policy", "source_file": "shipping_policy.pdf"},
		},
		{
			ID: "wifi_terms_1",
			Text: "In-Store Wi-Fi Terms & Usage Policy - GroundTruth Coffee. " +
				"Free Wi-Fi is provided to customers with a valid purchase receipt. " +
				"Maximum session duration is 2 hours with a bandwidth limit of 5 Mbps per user. " +
				"Downloading files larger than 200 MB is not allowed. " +
				"Customers must not visit illegal or harmful websites, perform network attacks, " +
				"or stream pirated content. " +
				"GroundTruth does not record browsing history but logs session metadata such as time connected and device MAC ID. " +
				"Use of Wi-Fi is at the customer's own risk; the company is not responsible for external threats.",
			Metadata: map[string]string{"category": "wifi_terms", "source_file": "wifi_terms.pdf"},
		},
		{
			ID: "loyalty_benefits_1",
			Text: "GroundTruth Loyalty Program - Benefits Overview. " +
				"Bronze members earn 1 point per Rs. 10 spent and get a birthday beverage at 10% discount. " +
				"Silver members earn 1.5 points per Rs. 10, receive a free pastry during their birthday month, " +
				"and get early access to new menu items. " +
				"Gold members earn 2 points per Rs. 10, receive one free beverage every month, " +
				"get an exclusive 10% discount on hot beverages, and have priority customer support. " +
				"Points can be redeemed at participating stores or via the mobile app. " +
				"Points expire 12 months after issuance; tier status is valid for the calendar year.",
			Metadata: map[string]string{"category": "loyalty", "source_file": "loyalty_benefits.pdf"},
		},
		{
			ID: "allergen_guide_1",
			Text: "GroundTruth Coffee - Allergen & Ingredient Guide. " +
				"Common allergens in menu items include milk, soy, wheat or gluten, nuts such as almond, cashew and hazelnut, " +
				"chocolate, and artificial sweeteners. " +
				"Hot Chocolate contains milk and soy. " +
				"Caramel Latte contains dairy and may contain traces of gluten. " +
				"Mocha Latte contains milk and chocolate. " +
				"Cold Brew is typically allergen-free unless flavored syrups are added. " +
				"Blueberry Muffin contains wheat, eggs, and milk. " +
				"Chocolate Croissant contains wheat, milk, and chocolate. " +
				"The Vegan Sandwich is dairy-free and egg-free. " +
				"Cross-contamination may occur in shared kitchens, so customers with severe allergies should inform staff.",
			Metadata: map[string]string{"category": "allergen", "source_file": "allergen_guide.pdf"},
		},
	}
}

// StaticRetriever serves the bundled policy documents from memory using
// keyword overlap scoring. It is the zero-infrastructure default when no
// FAQ database is configured.
type StaticRetriever struct {
	docs   []Document
	terms  []map[string]struct{}
	logger *logger.Logger
}

// NewStatic creates a static retriever over the given documents. A nil
// docs slice selects the bundled policy set.
func NewStatic(docs []Document, log *logger.Logger) *StaticRetriever {
	if docs == nil {
		docs = BuiltinDocs()
	}
	terms := make([]map[string]struct{}, len(docs))
	for i, d := range docs {
		terms[i] = termSet(d.Text)
	}
	log.Info("Static FAQ retriever initialized", zap.Int("documents", len(docs)))
	return &StaticRetriever{docs: docs, terms: terms, logger: log}
}

// Query returns up to topK documents sharing vocabulary with the question,
// best match first. Documents with no overlap are excluded, so an
// off-topic question yields an empty result.
func (r *StaticRetriever) Query(_ context.Context, question string, topK int) []Snippet {
	if topK <= 0 || len(r.docs) == 0 {
		return nil
	}

	query := termSet(question)
	if len(query) == 0 {
		return nil
	}

	type scored struct {
		index int
		score float64
	}
	matches := make([]scored, 0, len(r.docs))
	for i := range r.docs {
		overlap := 0
		for term := range query {
			if _, ok := r.terms[i][term]; ok {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		matches = append(matches, scored{index: i, score: float64(overlap) / float64(len(query))})
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].score > matches[b].score
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}

	snippets := make([]Snippet, 0, len(matches))
	for _, m := range matches {
		doc := r.docs[m.index]
		snippets = append(snippets, Snippet{Text: doc.Text, Metadata: doc.Metadata})
	}

	r.logger.Debug("Static FAQ query completed",
		zap.Int("query_terms", len(query)),
		zap.Int("results", len(snippets)))

	return snippets
}

// Close is a no-op for the static retriever.
func (r *StaticRetriever) Close() error {
	return nil
}

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "are": {}, "for": {}, "can": {}, "with": {},
	"may": {}, "not": {}, "such": {}, "per": {}, "via": {}, "what": {},
	"how": {}, "does": {}, "your": {}, "have": {}, "that": {}, "this": {},
	"you": {}, "our": {},
}

// termSet lowercases text and collects its content words.
func termSet(text string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, field := range strings.Fields(strings.ToLower(text)) {
		word := strings.Trim(field, ".,;:!?()\"'&%-")
		if len(word) < 3 {
			continue
		}
		if _, skip := stopwords[word]; skip {
			continue
		}
		terms[word] = struct{}{}
	}
	return terms
}
