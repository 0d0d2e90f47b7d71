package agents

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/groundtruth/concierge/internal/logger"
	"github.com/groundtruth/concierge/internal/stores"
)

// HeuristicIntentEngine ranks intents with keyword rules. It needs no
// credentials or network and backs the genai engine as its degradation
// path.
type HeuristicIntentEngine struct {
	logger *logger.Logger
}

// NewHeuristicIntentEngine creates the keyword-based intent engine.
func NewHeuristicIntentEngine(log *logger.Logger) *HeuristicIntentEngine {
	return &HeuristicIntentEngine{logger: log.WithComponent("intent_heuristic")}
}

// InferIntents ranks up to five intents for the masked message, padding
// with low-confidence fillers so downstream consumers always see a full
// list.
func (e *HeuristicIntentEngine) InferIntents(_ context.Context, input IntentInput) []Intent {
	message := strings.ToLower(input.Message)

	var intents []Intent
	switch {
	case strings.Contains(message, "coffee") || strings.Contains(message, "cold"):
		intents = append(intents,
			Intent{
				Name:         "FIND_NEARBY_COFFEE_SHOP",
				Confidence:   0.9,
				Reason:       "User mentioned coffee or being cold, which suggests a warm drink at a nearby shop.",
				RequiredData: []string{"nearby_stores", "opening_hours", "distance", "offers"},
				Category:     "store_discovery",
			},
			Intent{
				Name:         "SUGGEST_WARM_DRINK",
				Confidence:   0.85,
				Reason:       "User is cold; warm beverages are relevant.",
				RequiredData: []string{"menu_items", "user_favorites", "offers"},
				Category:     "personalized_recommendation",
			})
	// Policy keywords win over the bare "order" substring so questions
	// like "refund policy for returned orders" reach the FAQ path.
	case containsAny(message, "refund", "return", "policy", "wifi", "wi-fi", "allerg", "deliver", "shipping", "loyalty", "points"):
		intents = append(intents, Intent{
			Name:         "ASK_STORE_POLICY",
			Confidence:   0.8,
			Reason:       "User is asking about a store policy or program.",
			RequiredData: []string{"faq_snippets"},
			Category:     "knowledge",
		})
	case strings.Contains(message, "order") || strings.Contains(message, "where is my"):
		intents = append(intents, Intent{
			Name:         "TRACK_ORDER_STATUS",
			Confidence:   0.9,
			Reason:       "User is asking about order status.",
			RequiredData: []string{"order_status"},
			Category:     "order_support",
		})
	default:
		intents = append(intents, FallbackIntent())
	}

	for len(intents) < maxIntents {
		intents = append(intents, Intent{
			Name:         fmt.Sprintf("FILLER_INTENT_%d", len(intents)+1),
			Confidence:   0.1,
			Reason:       "Low-confidence filler intent.",
			RequiredData: []string{},
			Category:     "fallback",
		})
	}

	e.logger.Debug("Intents inferred",
		zap.String("primary", intents[0].Name),
		zap.Float64("confidence", intents[0].Confidence))

	return intents[:maxIntents]
}

// Close is a no-op for the heuristic engine.
func (e *HeuristicIntentEngine) Close() error {
	return nil
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// HeuristicResponseEngine composes replies from templates over the
// context bundle. It is also the degradation path when the genai engine
// returns malformed output.
type HeuristicResponseEngine struct {
	logger *logger.Logger
}

// NewHeuristicResponseEngine creates the template-based response engine.
func NewHeuristicResponseEngine(log *logger.Logger) *HeuristicResponseEngine {
	return &HeuristicResponseEngine{logger: log.WithComponent("response_heuristic")}
}

// Compose picks the highest-confidence intent, the best candidate store
// and builds a reply. Replies echo only masked text, so placeholder
// tokens pass through intact.
func (e *HeuristicResponseEngine) Compose(_ context.Context, bundle ContextBundle) ResponseResult {
	name := bundle.Profile.Name
	if name == "" {
		name = "there"
	}

	var primary *Intent
	for i := range bundle.Intents {
		if primary == nil || bundle.Intents[i].Confidence > primary.Confidence {
			primary = &bundle.Intents[i]
		}
	}

	bestStore := chooseBestStore(bundle.Stores)

	result := ResponseResult{
		Reasoning: "No primary intent detected.",
	}
	if primary != nil {
		result.SelectedIntent = primary.Name
		result.Reasoning = primary.Reason
	}
	if bestStore != nil {
		result.SelectedStoreID = bestStore.ID
	}

	offerText := ""
	if bestStore != nil {
		for _, o := range bundle.Offers {
			if o.StoreID == bestStore.ID {
				offerText = fmt.Sprintf(" You also have a coupon: %s (code: %s).", o.Description, o.CouponCode)
				break
			}
		}
	}

	switch {
	case primary != nil && primary.Name == "FIND_NEARBY_COFFEE_SHOP" && bestStore != nil:
		state := "closed"
		if bestStore.IsOpenNow {
			state = "open"
		}
		reply := fmt.Sprintf("Hi %s, you're close to %s (%d meters away). It's currently %s. ",
			name, bestStore.Name, int(bestStore.DistanceM), state)
		if bestStore.IsOpenNow {
			reply += "You can step inside to warm up with a hot drink."
		} else {
			reply += "It will open later according to its schedule."
		}
		result.Reply = reply + offerText

	case primary != nil && primary.Name == "TRACK_ORDER_STATUS":
		result.Reply = fmt.Sprintf("Hi %s, I'm checking on the order from your message: '%s'. "+
			"You'll get an update shortly.", name, bundle.Message)

	case primary != nil && primary.Name == "ASK_STORE_POLICY" && len(bundle.Snippets) > 0:
		result.Reply = fmt.Sprintf("Hi %s, here's what I found: %s", name, truncateAtWord(bundle.Snippets[0].Text, 280))

	default:
		result.Reply = fmt.Sprintf("Hi %s, I received your message: '%s'. "+
			"I can help you find nearby stores, track orders, or answer store policy questions.",
			name, bundle.Message)
	}

	e.logger.Debug("Reply composed",
		zap.String("selected_intent", result.SelectedIntent),
		zap.String("selected_store_id", result.SelectedStoreID))

	return result
}

// Close is a no-op for the heuristic engine.
func (e *HeuristicResponseEngine) Close() error {
	return nil
}

// chooseBestStore prefers the nearest open store and falls back to the
// nearest store overall.
func chooseBestStore(candidates []stores.Store) *stores.Store {
	var best *stores.Store
	var bestAny *stores.Store
	for i := range candidates {
		s := &candidates[i]
		if bestAny == nil || s.DistanceM < bestAny.DistanceM {
			bestAny = s
		}
		if !s.IsOpenNow {
			continue
		}
		if best == nil || s.DistanceM < best.DistanceM {
			best = s
		}
	}
	if best == nil {
		best = bestAny
	}
	if best == nil {
		return nil
	}
	chosen := *best
	return &chosen
}

// truncateAtWord shortens text to at most limit characters, cutting at a
// word boundary.
func truncateAtWord(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := strings.LastIndex(text[:limit], " ")
	if cut <= 0 {
		cut = limit
	}
	return text[:cut] + "..."
}
