package agents

import (
	"fmt"

	"github.com/groundtruth/concierge/internal/config"
	"github.com/groundtruth/concierge/internal/logger"
)

// NewIntentEngine builds the configured intent engine.
func NewIntentEngine(cfg config.LLMConfig, log *logger.Logger) (IntentEngine, error) {
	switch cfg.Provider {
	case "", "heuristic":
		return NewHeuristicIntentEngine(log), nil
	case "genai":
		return NewGenAIIntentEngine(cfg, log)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}

// NewResponseEngine builds the configured response engine.
func NewResponseEngine(cfg config.LLMConfig, log *logger.Logger) (ResponseEngine, error) {
	switch cfg.Provider {
	case "", "heuristic":
		return NewHeuristicResponseEngine(log), nil
	case "genai":
		return NewGenAIResponseEngine(cfg, log)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}
