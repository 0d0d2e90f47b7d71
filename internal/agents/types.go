package agents

import (
	"context"

	"github.com/groundtruth/concierge/internal/faq"
	"github.com/groundtruth/concierge/internal/memory"
	"github.com/groundtruth/concierge/internal/profile"
	"github.com/groundtruth/concierge/internal/stores"
)

// maxIntents caps the ranked intent list.
const maxIntents = 5

// Intent is one candidate interpretation of the user message.
type Intent struct {
	Name         string   `json:"name"`
	Confidence   float64  `json:"confidence"`
	Reason       string   `json:"reason"`
	RequiredData []string `json:"required_data"`
	Category     string   `json:"category"`
}

// FallbackIntent is substituted whenever intent inference produces
// nothing usable.
func FallbackIntent() Intent {
	return Intent{
		Name:         "FALLBACK_GENERIC",
		Confidence:   0.3,
		Reason:       "Intent inference produced no usable output.",
		RequiredData: []string{},
		Category:     "fallback",
	}
}

// Location is an optional client geolocation.
type Location struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// IntentInput carries the masked message and light context into intent
// inference. Message is always masked text; raw contact data never
// reaches a reasoning engine.
type IntentInput struct {
	Message  string               `json:"user_message"`
	Profile  profile.LightProfile `json:"user_profile"`
	Location Location             `json:"location"`
}

// ContextBundle is everything response composition may draw on. Message
// and Snippets originate from masked text, so the composed reply can
// only ever contain placeholder tokens, never raw contact data.
type ContextBundle struct {
	Message  string               `json:"user_message_masked"`
	Intents  []Intent             `json:"intents"`
	Location Location             `json:"location"`
	Stores   []stores.Store       `json:"candidate_stores"`
	Offers   []stores.Offer       `json:"offers"`
	Profile  profile.LightProfile `json:"user_profile_light"`
	Memory   *memory.Profile      `json:"user_memory,omitempty"`
	Snippets []faq.Snippet        `json:"faq_snippets,omitempty"`
}

// ResponseResult is the composed reply. Reply still carries placeholder
// tokens; selective unmasking happens after composition.
type ResponseResult struct {
	SelectedIntent  string `json:"selected_intent"`
	SelectedStoreID string `json:"selected_store_id"`
	Reasoning       string `json:"reasoning"`
	Reply           string `json:"reply"`
}

// IntentEngine ranks up to five intents for a masked message. Engines
// recover from their own failures and always return at least the
// generic fallback intent.
type IntentEngine interface {
	InferIntents(ctx context.Context, input IntentInput) []Intent
	Close() error
}

// ResponseEngine composes the final reply from the context bundle.
// Engines degrade to a locally computed reply rather than failing the
// request.
type ResponseEngine interface {
	Compose(ctx context.Context, bundle ContextBundle) ResponseResult
	Close() error
}
