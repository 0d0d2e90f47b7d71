package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/groundtruth/concierge/internal/agents"
	"github.com/groundtruth/concierge/internal/config"
	"github.com/groundtruth/concierge/internal/faq"
	"github.com/groundtruth/concierge/internal/logger"
	"github.com/groundtruth/concierge/internal/memory"
	"github.com/groundtruth/concierge/internal/privacy"
	"github.com/groundtruth/concierge/internal/profile"
	"github.com/groundtruth/concierge/internal/stores"
)

func newTestPipeline(t *testing.T, cfg *config.Config) (*Pipeline, *memory.InMemoryStore) {
	t.Helper()
	log := logger.NewNop()

	masker, err := privacy.New(cfg.Privacy, log)
	if err != nil {
		t.Fatalf("privacy.New: %v", err)
	}
	profiles, err := profile.New("testdata/missing-users.json", log)
	if err != nil {
		t.Fatalf("profile.New: %v", err)
	}
	mem := memory.NewInMemoryStore(cfg.Memory.HistoryLimit)

	p := New(cfg,
		masker,
		agents.NewHeuristicIntentEngine(log),
		agents.NewHeuristicResponseEngine(log),
		stores.NewLocator(),
		profiles,
		mem,
		faq.NewStatic(nil, log),
		log)
	return p, mem
}

func TestChatRoundTrip(t *testing.T) {
	cfg := config.GetDefaults()
	p, _ := newTestPipeline(t, cfg)

	req := ChatRequest{
		UserID:  "u123",
		Message: "Please call me at +91-98765-43210 when it's ready",
	}
	resp, stats, err := p.Chat(context.Background(), req)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if strings.Contains(resp.Reply, "[PHONE_1]") {
		t.Errorf("reply still contains a token: %q", resp.Reply)
	}
	if !strings.Contains(resp.Reply, "+91-98765-43210") {
		t.Errorf("reply should restore the phone number: %q", resp.Reply)
	}
	if stats.TotalFindings != 1 {
		t.Errorf("total findings = %d, want 1", stats.TotalFindings)
	}
}

func TestChatRestrictedDisclosure(t *testing.T) {
	cfg := config.GetDefaults()
	cfg.Privacy.Unmask.AllCategories = false
	cfg.Privacy.Unmask.Categories = []string{"EMAIL"}
	p, _ := newTestPipeline(t, cfg)

	resp, _, err := p.Chat(context.Background(), ChatRequest{
		UserID:  "u123",
		Message: "Reach me at +91-98765-43210 or foo@example.com thanks",
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if !strings.Contains(resp.Reply, "[PHONE_1]") {
		t.Errorf("phone token should stay masked: %q", resp.Reply)
	}
	if !strings.Contains(resp.Reply, "foo@example.com") {
		t.Errorf("email should be restored: %q", resp.Reply)
	}
	if strings.Contains(resp.Reply, "+91-98765-43210") {
		t.Errorf("raw phone leaked into the reply: %q", resp.Reply)
	}
}

func TestChatCoffeeIntentSelectsOpenStore(t *testing.T) {
	cfg := config.GetDefaults()
	p, mem := newTestPipeline(t, cfg)

	lat, lng := 12.9716, 77.5946
	resp, _, err := p.Chat(context.Background(), ChatRequest{
		UserID:  "u123",
		Message: "I'm cold, is there coffee nearby?",
		Lat:     &lat,
		Lng:     &lng,
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if resp.SelectedIntent != "FIND_NEARBY_COFFEE_SHOP" {
		t.Errorf("selected intent = %s", resp.SelectedIntent)
	}
	if resp.SelectedStore == nil {
		t.Fatal("expected a selected store")
	}
	if !resp.SelectedStore.IsOpenNow {
		t.Errorf("selected store %s should be open", resp.SelectedStore.ID)
	}

	doc, err := mem.Get(context.Background(), "u123")
	if err != nil {
		t.Fatalf("memory.Get: %v", err)
	}
	if doc.LastSeenStore == nil || doc.LastSeenStore.ID != resp.SelectedStore.ID {
		t.Errorf("last seen store not recorded: %+v", doc.LastSeenStore)
	}
	if len(doc.History) != 1 {
		t.Fatalf("history length = %d, want 1", len(doc.History))
	}
	if doc.History[0].Bot != resp.Reply {
		t.Errorf("history should hold the unmasked reply")
	}
}

func TestChatPolicyQuestionUsesFAQ(t *testing.T) {
	cfg := config.GetDefaults()
	p, _ := newTestPipeline(t, cfg)

	resp, _, err := p.Chat(context.Background(), ChatRequest{
		UserID:  "u123",
		Message: "What is the refund policy for returned orders?",
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !strings.Contains(resp.Reply, "30 days") {
		t.Errorf("reply should draw on the return policy snippet: %q", resp.Reply)
	}
}

func TestChatCleanMessageHasNoFindings(t *testing.T) {
	cfg := config.GetDefaults()
	p, _ := newTestPipeline(t, cfg)

	_, stats, err := p.Chat(context.Background(), ChatRequest{
		UserID:  "u123",
		Message: "hello there",
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if stats.TotalFindings != 0 {
		t.Errorf("total findings = %d, want 0", stats.TotalFindings)
	}
}

func TestChatDebugPayload(t *testing.T) {
	cfg := config.GetDefaults()
	cfg.Debug = true
	p, _ := newTestPipeline(t, cfg)

	resp, _, err := p.Chat(context.Background(), ChatRequest{
		UserID:  "u123",
		Message: "track my order ORD-445566",
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Debug == nil {
		t.Fatal("expected debug payload when debug is enabled")
	}
	maskedMessage, ok := resp.Debug["masked_message"].(string)
	if !ok {
		t.Fatal("debug payload missing masked_message")
	}
	if strings.Contains(maskedMessage, "ORD-445566") {
		t.Errorf("debug payload leaked a raw order id: %q", maskedMessage)
	}
	if !strings.Contains(maskedMessage, "[ORDER_1]") {
		t.Errorf("masked message should carry the order token: %q", maskedMessage)
	}
}
