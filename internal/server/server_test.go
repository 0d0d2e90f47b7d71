package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/groundtruth/concierge/internal/agents"
	"github.com/groundtruth/concierge/internal/config"
	"github.com/groundtruth/concierge/internal/faq"
	"github.com/groundtruth/concierge/internal/logger"
	"github.com/groundtruth/concierge/internal/memory"
	"github.com/groundtruth/concierge/internal/pipeline"
	"github.com/groundtruth/concierge/internal/privacy"
	"github.com/groundtruth/concierge/internal/profile"
	"github.com/groundtruth/concierge/internal/stores"
	"github.com/groundtruth/concierge/internal/websocket"
)

func newTestServer(t *testing.T) (*Server, memory.Store) {
	t.Helper()

	cfg := config.GetDefaults()
	cfg.WebSocket.Enabled = false
	cfg.RateLimit.Enabled = false
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

	pipe := pipeline.New(
		cfg,
		masker,
		agents.NewHeuristicIntentEngine(log),
		agents.NewHeuristicResponseEngine(log),
		stores.NewLocator(),
		profiles,
		mem,
		faq.NewStatic(nil, log),
		log,
	)

	hub := websocket.NewHub(cfg.WebSocket, log)
	return New(cfg, pipe, mem, hub, log), mem
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, "GET", "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected health body: %s", rec.Body.String())
	}
}

func TestChatEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	t.Run("RoundTripRestoresMaskedData", func(t *testing.T) {
		rec := doRequest(s, "POST", "/chat",
			`{"user_id":"u1","message":"Call me at +91 98765 43210 about my order"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp pipeline.ChatResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if strings.Contains(resp.Reply, "[PHONE_") {
			t.Errorf("reply still contains a phone token: %q", resp.Reply)
		}
		if !strings.Contains(resp.Reply, "+91 98765 43210") {
			t.Errorf("reply does not restore the phone number: %q", resp.Reply)
		}
	})

	t.Run("MissingUserIDRejected", func(t *testing.T) {
		rec := doRequest(s, "POST", "/chat", `{"message":"hello"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("MissingMessageRejected", func(t *testing.T) {
		rec := doRequest(s, "POST", "/chat", `{"user_id":"u1"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("InvalidJSONRejected", func(t *testing.T) {
		rec := doRequest(s, "POST", "/chat", `{not json`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestResetEndpoints(t *testing.T) {
	s, mem := newTestServer(t)
	ctx := context.Background()

	seed := func(userID string) {
		rec := doRequest(s, "POST", "/chat",
			`{"user_id":"`+userID+`","message":"any coffee nearby?"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("seed chat for %s failed: %d", userID, rec.Code)
		}
	}

	t.Run("ResetUserClearsOnlyThatUser", func(t *testing.T) {
		seed("u1")
		seed("u2")

		rec := doRequest(s, "POST", "/reset_user/u1", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		p1, err := mem.Get(ctx, "u1")
		if err != nil {
			t.Fatalf("mem.Get u1: %v", err)
		}
		if len(p1.History) != 0 {
			t.Errorf("u1 history not cleared: %d turns", len(p1.History))
		}

		p2, err := mem.Get(ctx, "u2")
		if err != nil {
			t.Fatalf("mem.Get u2: %v", err)
		}
		if len(p2.History) == 0 {
			t.Error("u2 history was cleared by reset_user/u1")
		}
	})

	t.Run("ResetAllClearsEveryone", func(t *testing.T) {
		seed("u1")
		seed("u2")

		rec := doRequest(s, "POST", "/reset_all", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		for _, id := range []string{"u1", "u2"} {
			p, err := mem.Get(ctx, id)
			if err != nil {
				t.Fatalf("mem.Get %s: %v", id, err)
			}
			if len(p.History) != 0 {
				t.Errorf("%s history not cleared: %d turns", id, len(p.History))
			}
		}
	})
}

func TestClientLimiter(t *testing.T) {
	cl := newClientLimiter(config.RateLimitConfig{RequestsPerMin: 60, Burst: 2})

	if !cl.allow("1.2.3.4") {
		t.Fatal("first request should pass")
	}
	if !cl.allow("1.2.3.4") {
		t.Fatal("second request within burst should pass")
	}
	if cl.allow("1.2.3.4") {
		t.Error("third immediate request should be throttled")
	}
	if !cl.allow("5.6.7.8") {
		t.Error("a different client should have its own bucket")
	}
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	if got := getClientIP(req); got != "10.0.0.1" {
		t.Errorf("expected remote addr host, got %q", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := getClientIP(req); got != "203.0.113.9" {
		t.Errorf("expected first forwarded hop, got %q", got)
	}
}
