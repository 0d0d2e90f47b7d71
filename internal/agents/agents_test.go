package agents

import (
	"context"
	"strings"
	"testing"

	"github.com/groundtruth/concierge/internal/faq"
	"github.com/groundtruth/concierge/internal/logger"
	"github.com/groundtruth/concierge/internal/profile"
	"github.com/groundtruth/concierge/internal/stores"
)

func TestHeuristicIntentEngine(t *testing.T) {
	engine := NewHeuristicIntentEngine(logger.NewNop())
	ctx := context.Background()

	t.Run("CoffeeMessageRanksStoreDiscoveryFirst", func(t *testing.T) {
		intents := engine.InferIntents(ctx, IntentInput{Message: "I'm cold, any coffee nearby?"})
		if len(intents) != 5 {
			t.Fatalf("got %d intents, want 5", len(intents))
		}
		if intents[0].Name != "FIND_NEARBY_COFFEE_SHOP" {
			t.Errorf("primary intent = %s", intents[0].Name)
		}
		if intents[1].Name != "SUGGEST_WARM_DRINK" {
			t.Errorf("second intent = %s", intents[1].Name)
		}
	})

	t.Run("OrderMessageRanksTrackingFirst", func(t *testing.T) {
		intents := engine.InferIntents(ctx, IntentInput{Message: "where is my order [ORDER_1]?"})
		if intents[0].Name != "TRACK_ORDER_STATUS" {
			t.Errorf("primary intent = %s", intents[0].Name)
		}
	})

	t.Run("PolicyMessageRanksKnowledgeFirst", func(t *testing.T) {
		intents := engine.InferIntents(ctx, IntentInput{Message: "what is the refund policy?"})
		if intents[0].Name != "ASK_STORE_POLICY" {
			t.Errorf("primary intent = %s", intents[0].Name)
		}
	})

	t.Run("PolicyQuestionMentioningOrdersRanksKnowledgeFirst", func(t *testing.T) {
		intents := engine.InferIntents(ctx, IntentInput{Message: "What is the refund policy for returned orders?"})
		if intents[0].Name != "ASK_STORE_POLICY" {
			t.Errorf("primary intent = %s, want ASK_STORE_POLICY", intents[0].Name)
		}
	})

	t.Run("UnrecognizedMessageFallsBack", func(t *testing.T) {
		intents := engine.InferIntents(ctx, IntentInput{Message: "sing me a song"})
		if intents[0].Name != "FALLBACK_GENERIC" {
			t.Errorf("primary intent = %s", intents[0].Name)
		}
		if intents[0].Confidence != 0.3 {
			t.Errorf("fallback confidence = %v, want 0.3", intents[0].Confidence)
		}
		if intents[0].Category != "fallback" {
			t.Errorf("fallback category = %s", intents[0].Category)
		}
		if len(intents[0].RequiredData) != 0 {
			t.Errorf("fallback required_data = %v, want empty", intents[0].RequiredData)
		}
	})

	t.Run("FillerIntentsPadTheList", func(t *testing.T) {
		intents := engine.InferIntents(ctx, IntentInput{Message: "track my order"})
		for _, in := range intents[1:] {
			if !strings.HasPrefix(in.Name, "FILLER_INTENT_") {
				t.Errorf("expected filler intent, got %s", in.Name)
			}
			if in.Confidence != 0.1 {
				t.Errorf("filler confidence = %v", in.Confidence)
			}
		}
	})
}

func testStores() []stores.Store {
	return []stores.Store{
		{ID: "store_101", Name: "Starbucks MG Road", IsOpenNow: true, DistanceM: 480},
		{ID: "store_102", Name: "Third Wave Coffee Church Street", IsOpenNow: false, DistanceM: 120},
	}
}

func TestHeuristicResponseEngine(t *testing.T) {
	engine := NewHeuristicResponseEngine(logger.NewNop())
	ctx := context.Background()

	t.Run("CoffeeIntentPicksNearestOpenStore", func(t *testing.T) {
		result := engine.Compose(ctx, ContextBundle{
			Message: "I'm cold, any coffee nearby?",
			Intents: []Intent{{Name: "FIND_NEARBY_COFFEE_SHOP", Confidence: 0.9, Reason: "coffee"}},
			Stores:  testStores(),
			Offers: []stores.Offer{
				{StoreID: "store_101", CouponCode: "HOT10_1", Description: "10% off hot beverages"},
			},
			Profile: profile.LightProfile{Name: "Aditi"},
		})
		if result.SelectedStoreID != "store_101" {
			t.Errorf("selected store = %s, want the open one", result.SelectedStoreID)
		}
		if !strings.Contains(result.Reply, "Starbucks MG Road") {
			t.Errorf("reply missing store name: %q", result.Reply)
		}
		if !strings.Contains(result.Reply, "HOT10_1") {
			t.Errorf("reply missing coupon: %q", result.Reply)
		}
		if result.SelectedIntent != "FIND_NEARBY_COFFEE_SHOP" {
			t.Errorf("selected intent = %s", result.SelectedIntent)
		}
	})

	t.Run("AllClosedFallsBackToNearest", func(t *testing.T) {
		closed := []stores.Store{
			{ID: "store_101", Name: "Starbucks MG Road", IsOpenNow: false, DistanceM: 480},
			{ID: "store_102", Name: "Third Wave Coffee Church Street", IsOpenNow: false, DistanceM: 120},
		}
		result := engine.Compose(ctx, ContextBundle{
			Intents: []Intent{{Name: "FIND_NEARBY_COFFEE_SHOP", Confidence: 0.9}},
			Stores:  closed,
		})
		if result.SelectedStoreID != "store_102" {
			t.Errorf("selected store = %s, want nearest", result.SelectedStoreID)
		}
		if !strings.Contains(result.Reply, "It will open later") {
			t.Errorf("reply should mention the store opening later: %q", result.Reply)
		}
	})

	t.Run("OrderIntentEchoesMaskedMessage", func(t *testing.T) {
		result := engine.Compose(ctx, ContextBundle{
			Message: "where is my order [ORDER_1]?",
			Intents: []Intent{{Name: "TRACK_ORDER_STATUS", Confidence: 0.9}},
		})
		if !strings.Contains(result.Reply, "[ORDER_1]") {
			t.Errorf("reply should carry the order token through: %q", result.Reply)
		}
	})

	t.Run("PolicyIntentQuotesSnippet", func(t *testing.T) {
		result := engine.Compose(ctx, ContextBundle{
			Intents: []Intent{{Name: "ASK_STORE_POLICY", Confidence: 0.8}},
			Snippets: []faq.Snippet{
				{Text: "Customers may return eligible products within 30 days of purchase."},
			},
		})
		if !strings.Contains(result.Reply, "30 days") {
			t.Errorf("reply should quote the snippet: %q", result.Reply)
		}
	})

	t.Run("GenericReplyEchoesMaskedMessage", func(t *testing.T) {
		result := engine.Compose(ctx, ContextBundle{
			Message: "call me at [PHONE_1]",
			Intents: []Intent{FallbackIntent()},
			Profile: profile.LightProfile{Name: "Aditi"},
		})
		if !strings.Contains(result.Reply, "[PHONE_1]") {
			t.Errorf("reply should carry the phone token through: %q", result.Reply)
		}
		if !strings.Contains(result.Reply, "Hi Aditi") {
			t.Errorf("reply should greet by name: %q", result.Reply)
		}
	})

	t.Run("EmptyBundleStillReplies", func(t *testing.T) {
		result := engine.Compose(ctx, ContextBundle{})
		if result.Reply == "" {
			t.Error("expected a reply for an empty bundle")
		}
		if result.Reasoning != "No primary intent detected." {
			t.Errorf("reasoning = %q", result.Reasoning)
		}
	})
}

func TestStripCodeFences(t *testing.T) {
	fenced := "```json\n{\"reply\": \"hi\"}\n```"
	if got := stripCodeFences(fenced); got != "{\"reply\": \"hi\"}" {
		t.Errorf("stripCodeFences = %q", got)
	}
	plain := "{\"reply\": \"hi\"}"
	if got := stripCodeFences(plain); got != plain {
		t.Errorf("stripCodeFences changed plain input: %q", got)
	}
}

func TestSanitizeIntents(t *testing.T) {
	intents := sanitizeIntents([]Intent{
		{Name: "", Confidence: 0.9},
		{Name: "A", Confidence: 1.7},
		{Name: "B", Confidence: -0.2},
		{Name: "C", Confidence: 0.5},
		{Name: "D", Confidence: 0.4},
		{Name: "E", Confidence: 0.3},
		{Name: "F", Confidence: 0.2},
	})
	if len(intents) != 5 {
		t.Fatalf("got %d intents, want 5", len(intents))
	}
	if intents[0].Confidence != 1 {
		t.Errorf("confidence not clamped to 1: %v", intents[0].Confidence)
	}
	if intents[1].Confidence != 0 {
		t.Errorf("confidence not clamped to 0: %v", intents[1].Confidence)
	}
	for _, in := range intents {
		if in.RequiredData == nil {
			t.Errorf("intent %s has nil required_data", in.Name)
		}
	}
}

func TestGenAIEngineCloseWithoutClient(t *testing.T) {
	var intent GenAIIntentEngine
	if err := intent.Close(); err != nil {
		t.Errorf("intent engine Close() = %v, want nil", err)
	}
	var response GenAIResponseEngine
	if err := response.Close(); err != nil {
		t.Errorf("response engine Close() = %v, want nil", err)
	}
}
