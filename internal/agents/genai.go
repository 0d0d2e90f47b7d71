package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/groundtruth/concierge/internal/config"
	"github.com/groundtruth/concierge/internal/logger"
)

const intentSystemPrompt = `You are the intent classifier of a coffee store concierge.
Given a JSON payload with the user message, a light profile and an optional
location, respond with JSON of the form
{"intents": [{"name": "...", "confidence": 0.0, "reason": "...", "required_data": [], "category": "..."}]}
ranked by confidence, at most five entries. The message may contain
placeholder tokens such as [PHONE_1] or [ORDER_2]; treat them as opaque
values and copy them verbatim if you quote the message.`

const responseSystemPrompt = `You are the reply composer of a coffee store concierge.
Given a JSON context bundle (masked user message, ranked intents, candidate
stores, offers, profile, memory and FAQ snippets), respond with JSON of the
form {"selected_intent": "...", "selected_store_id": "...", "reasoning": "...", "reply": "..."}.
The message and snippets may contain placeholder tokens such as [PHONE_1] or
[ORDER_2]; you must copy any token you mention into the reply verbatim and
never invent token contents.`

// GenAIIntentEngine infers intents with a Gemini model. Malformed or
// failed completions degrade to the generic fallback intent so a bad
// model response never fails the request.
type GenAIIntentEngine struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *logger.Logger
}

// NewGenAIIntentEngine creates a Gemini-backed intent engine.
func NewGenAIIntentEngine(cfg config.LLMConfig, log *logger.Logger) (*GenAIIntentEngine, error) {
	client, err := newGenAIClient(cfg)
	if err != nil {
		return nil, err
	}
	return &GenAIIntentEngine{
		client:  client,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  log.WithComponent("intent_genai"),
	}, nil
}

// InferIntents asks the model for a ranked intent list.
func (e *GenAIIntentEngine) InferIntents(ctx context.Context, input IntentInput) []Intent {
	payload, err := json.Marshal(input)
	if err != nil {
		e.logger.Warn("Failed to encode intent input, using fallback intent", zap.Error(err))
		return []Intent{FallbackIntent()}
	}

	text, err := e.generate(ctx, intentSystemPrompt, string(payload))
	if err != nil {
		e.logger.Warn("Intent completion failed, using fallback intent", zap.Error(err))
		return []Intent{FallbackIntent()}
	}

	var parsed struct {
		Intents []Intent `json:"intents"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(text)), &parsed); err != nil {
		e.logger.Warn("Malformed intent output, using fallback intent",
			zap.Error(err),
			zap.Int("output_len", len(text)))
		return []Intent{FallbackIntent()}
	}

	intents := sanitizeIntents(parsed.Intents)
	if len(intents) == 0 {
		e.logger.Warn("Intent output contained no usable intents, using fallback intent")
		return []Intent{FallbackIntent()}
	}
	return intents
}

func (e *GenAIIntentEngine) generate(ctx context.Context, system, prompt string) (string, error) {
	return generateJSON(ctx, e.client, e.model, e.timeout, system, prompt)
}

// Close releases the engine. The genai client does not require
// explicit teardown.
func (e *GenAIIntentEngine) Close() error {
	return nil
}

// GenAIResponseEngine composes replies with a Gemini model and degrades
// to the heuristic composer on malformed output.
type GenAIResponseEngine struct {
	client    *genai.Client
	model     string
	timeout   time.Duration
	heuristic *HeuristicResponseEngine
	logger    *logger.Logger
}

// NewGenAIResponseEngine creates a Gemini-backed response engine.
func NewGenAIResponseEngine(cfg config.LLMConfig, log *logger.Logger) (*GenAIResponseEngine, error) {
	client, err := newGenAIClient(cfg)
	if err != nil {
		return nil, err
	}
	return &GenAIResponseEngine{
		client:    client,
		model:     cfg.Model,
		timeout:   cfg.Timeout,
		heuristic: NewHeuristicResponseEngine(log),
		logger:    log.WithComponent("response_genai"),
	}, nil
}

// Compose asks the model for the final reply, falling back to the
// heuristic composer whenever the output is unusable.
func (e *GenAIResponseEngine) Compose(ctx context.Context, bundle ContextBundle) ResponseResult {
	payload, err := json.Marshal(bundle)
	if err != nil {
		e.logger.Warn("Failed to encode context bundle, composing heuristically", zap.Error(err))
		return e.heuristic.Compose(ctx, bundle)
	}

	text, err := generateJSON(ctx, e.client, e.model, e.timeout, responseSystemPrompt, string(payload))
	if err != nil {
		e.logger.Warn("Response completion failed, composing heuristically", zap.Error(err))
		return e.heuristic.Compose(ctx, bundle)
	}

	var result ResponseResult
	if err := json.Unmarshal([]byte(stripCodeFences(text)), &result); err != nil || strings.TrimSpace(result.Reply) == "" {
		e.logger.Warn("Malformed response output, composing heuristically",
			zap.Error(err),
			zap.Int("output_len", len(text)))
		return e.heuristic.Compose(ctx, bundle)
	}
	return result
}

// Close releases the engine. The genai client does not require
// explicit teardown.
func (e *GenAIResponseEngine) Close() error {
	return nil
}

func newGenAIClient(cfg config.LLMConfig) (*genai.Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("genai API key is required")
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return client, nil
}

func generateJSON(ctx context.Context, client *genai.Client, model string, timeout time.Duration, system, prompt string) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := client.Models.GenerateContent(ctx, model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
			ResponseMIMEType:  "application/json",
		})
	if err != nil {
		return "", fmt.Errorf("genai completion failed: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("genai returned an empty completion")
	}
	return text, nil
}

// stripCodeFences removes a surrounding markdown code block if the model
// added one despite the JSON response type.
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// sanitizeIntents drops unusable entries and clamps confidences.
func sanitizeIntents(intents []Intent) []Intent {
	cleaned := make([]Intent, 0, maxIntents)
	for _, intent := range intents {
		if strings.TrimSpace(intent.Name) == "" {
			continue
		}
		if intent.Confidence < 0 {
			intent.Confidence = 0
		}
		if intent.Confidence > 1 {
			intent.Confidence = 1
		}
		if intent.RequiredData == nil {
			intent.RequiredData = []string{}
		}
		cleaned = append(cleaned, intent)
		if len(cleaned) == maxIntents {
			break
		}
	}
	return cleaned
}
