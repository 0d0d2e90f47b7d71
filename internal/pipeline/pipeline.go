package pipeline

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/groundtruth/concierge/internal/agents"
	"github.com/groundtruth/concierge/internal/config"
	"github.com/groundtruth/concierge/internal/faq"
	"github.com/groundtruth/concierge/internal/logger"
	"github.com/groundtruth/concierge/internal/memory"
	"github.com/groundtruth/concierge/internal/privacy"
	"github.com/groundtruth/concierge/internal/profile"
	"github.com/groundtruth/concierge/internal/stores"
)

// ChatRequest is one inbound chat turn.
type ChatRequest struct {
	UserID  string   `json:"user_id"`
	Message string   `json:"message"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

// StoreSummary is the selected store as surfaced to the client.
type StoreSummary struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	DistanceM float64 `json:"distance_m"`
	Rating    float64 `json:"rating,omitempty"`
	IsOpenNow bool    `json:"is_open_now"`
}

// ChatResponse is the outbound chat turn. Reply is fully unmasked
// according to the configured disclosure policy.
type ChatResponse struct {
	Reply          string         `json:"reply"`
	SelectedIntent string         `json:"selected_intent,omitempty"`
	SelectedStore  *StoreSummary  `json:"selected_store,omitempty"`
	Debug          map[string]any `json:"debug,omitempty"`
}

// TurnStats carries per-turn masking counters for observability. It
// holds category counts only, never masked values.
type TurnStats struct {
	Findings      []privacy.Finding
	TotalFindings int
	MaskingMS     float64
}

// Pipeline orchestrates one chat turn: mask, infer, gather context,
// compose, selectively unmask, remember.
type Pipeline struct {
	cfg       *config.Config
	masker    *privacy.Masker
	intents   agents.IntentEngine
	responses agents.ResponseEngine
	locator   *stores.Locator
	profiles  *profile.Service
	memory    memory.Store
	retriever faq.Retriever
	logger    *logger.Logger
}

// New wires the pipeline from its collaborators.
func New(
	cfg *config.Config,
	masker *privacy.Masker,
	intents agents.IntentEngine,
	responses agents.ResponseEngine,
	locator *stores.Locator,
	profiles *profile.Service,
	mem memory.Store,
	retriever faq.Retriever,
	log *logger.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		masker:    masker,
		intents:   intents,
		responses: responses,
		locator:   locator,
		profiles:  profiles,
		memory:    mem,
		retriever: retriever,
		logger:    log.WithComponent("pipeline"),
	}
}

// Chat runs one full turn. Collaborator failures degrade the turn
// instead of failing it; only the masking round trip is load-bearing.
func (p *Pipeline) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, *TurnStats, error) {
	log := p.logger.WithUserID(req.UserID)

	lightProfile := p.profiles.Get(req.UserID)

	maskStart := time.Now()
	masked := p.masker.Mask(req.Message)
	stats := &TurnStats{
		Findings:      masked.Findings,
		TotalFindings: len(masked.Mapping),
		MaskingMS:     float64(time.Since(maskStart).Microseconds()) / 1000.0,
	}

	mem, err := p.memory.Get(ctx, req.UserID)
	if err != nil {
		log.Warn("Memory unavailable, continuing with a fresh profile", zap.Error(err))
		mem = memory.NewProfile()
	}

	location := agents.Location{Lat: req.Lat, Lng: req.Lng}
	intents := p.intents.InferIntents(ctx, agents.IntentInput{
		Message:  masked.MaskedText,
		Profile:  lightProfile,
		Location: location,
	})

	candidates := p.locator.Nearby(req.Lat, req.Lng)

	tier := lightProfile.LoyaltyTier
	if mem.LoyaltyTier != "" {
		tier = mem.LoyaltyTier
	}
	offers := stores.OffersForStores(tier, candidates)

	snippets := p.retriever.Query(ctx, masked.MaskedText, p.cfg.FAQ.TopK)

	result := p.responses.Compose(ctx, agents.ContextBundle{
		Message:  masked.MaskedText,
		Intents:  intents,
		Location: location,
		Stores:   candidates,
		Offers:   offers,
		Profile:  lightProfile,
		Memory:   mem,
		Snippets: snippets,
	})

	reply := privacy.Unmask(result.Reply, masked.Mapping, p.allowedCategories())

	p.remember(ctx, log, req, reply, candidates, result.SelectedStoreID)

	response := &ChatResponse{
		Reply:          reply,
		SelectedIntent: result.SelectedIntent,
		SelectedStore:  summarizeStore(candidates, result.SelectedStoreID),
	}
	if p.cfg.Debug {
		response.Debug = map[string]any{
			"masked_message":   masked.MaskedText,
			"findings":         masked.Findings,
			"intents":          intents,
			"candidate_stores": candidates,
			"offers":           offers,
			"faq_snippets":     len(snippets),
			"raw_response":     result,
		}
	}

	log.Info("Chat turn completed",
		zap.String("selected_intent", result.SelectedIntent),
		zap.String("selected_store_id", result.SelectedStoreID),
		zap.Int("masked_values", stats.TotalFindings),
		zap.Float64("masking_ms", stats.MaskingMS))

	return response, stats, nil
}

// remember persists the turn. The raw message and the unmasked reply go
// to the user's own memory; failures only log.
func (p *Pipeline) remember(ctx context.Context, log *logger.Logger, req ChatRequest, reply string, candidates []stores.Store, selectedStoreID string) {
	if err := p.memory.AppendTurn(ctx, req.UserID, req.Message, reply); err != nil {
		log.Warn("Failed to append turn to memory", zap.Error(err))
	}
	if selectedStoreID == "" {
		return
	}
	for _, s := range candidates {
		if s.ID != selectedStoreID {
			continue
		}
		err := p.memory.SetLastSeenStore(ctx, req.UserID, memory.StoreInfo{ID: s.ID, Name: s.Name})
		if err != nil {
			log.Warn("Failed to record last seen store", zap.Error(err))
		}
		return
	}
}

// allowedCategories translates the disclosure policy into the unmask
// allow-list. Nil means restore everything; an empty non-nil list
// restores nothing.
func (p *Pipeline) allowedCategories() []privacy.Category {
	unmask := p.cfg.Privacy.Unmask
	if unmask.AllCategories {
		return nil
	}
	allowed := make([]privacy.Category, 0, len(unmask.Categories))
	for _, name := range unmask.Categories {
		allowed = append(allowed, privacy.Category(strings.ToUpper(name)))
	}
	return allowed
}

func summarizeStore(candidates []stores.Store, id string) *StoreSummary {
	if id == "" {
		return nil
	}
	for _, s := range candidates {
		if s.ID == id {
			return &StoreSummary{
				ID:        s.ID,
				Name:      s.Name,
				DistanceM: s.DistanceM,
				Rating:    s.Rating,
				IsOpenNow: s.IsOpenNow,
			}
		}
	}
	return nil
}
