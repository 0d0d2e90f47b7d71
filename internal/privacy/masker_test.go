package privacy

import (
	"strings"
	"testing"

	"github.com/groundtruth/concierge/internal/config"
	"github.com/groundtruth/concierge/internal/logger"
)

func newTestMasker(t *testing.T) *Masker {
	t.Helper()

	cfg := config.PrivacyConfig{
		Enabled:   true,
		Detectors: []string{"all"},
	}

	m, err := New(cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("Failed to create masker: %v", err)
	}
	return m
}

func TestMask(t *testing.T) {
	m := newTestMasker(t)

	t.Run("NoOpOnCleanText", func(t *testing.T) {
		result := m.Mask("hello world")
		if result.MaskedText != "hello world" {
			t.Errorf("Clean text changed: %q", result.MaskedText)
		}
		if len(result.Mapping) != 0 {
			t.Errorf("Clean text produced %d mapping entries", len(result.Mapping))
		}
	})

	t.Run("ConcreteScenario", func(t *testing.T) {
		input := "Call me at +91-98765-43210 or email ganesh@example.com, order ORD12345 is late."
		result := m.Mask(input)

		want := "Call me at [PHONE_1] or email [EMAIL_1], order [ORDER_1] is late."
		if result.MaskedText != want {
			t.Errorf("Masked text = %q, want %q", result.MaskedText, want)
		}
		if len(result.Mapping) != 3 {
			t.Errorf("Mapping has %d entries, want 3", len(result.Mapping))
		}
		if entry, ok := result.Mapping["[PHONE_1]"]; !ok || entry.Value != "+91-98765-43210" {
			t.Errorf("Phone entry = %+v", entry)
		}
		if entry, ok := result.Mapping["[EMAIL_1]"]; !ok || entry.Value != "ganesh@example.com" {
			t.Errorf("Email entry = %+v", entry)
		}
		if entry, ok := result.Mapping["[ORDER_1]"]; !ok || entry.Value != "ORD12345" {
			t.Errorf("Order entry = %+v", entry)
		}
	})

	t.Run("CountInvariant", func(t *testing.T) {
		input := "Numbers +91-98765-43210 and +1 555 123 4567, mail a@b.com and c@d.org, refs ORD1 ORDER_22."
		result := m.Mask(input)

		if len(result.Mapping) != 6 {
			t.Errorf("Mapping has %d entries, want 6: %v", len(result.Mapping), result.Mapping)
		}

		total := 0
		for _, f := range result.Findings {
			total += f.Count
		}
		if total != 6 {
			t.Errorf("Findings report %d matches, want 6", total)
		}
	})

	t.Run("SequenceNumbersFollowReadingOrder", func(t *testing.T) {
		result := m.Mask("first a@b.com then c@d.org")

		if got := result.MaskedText; got != "first [EMAIL_1] then [EMAIL_2]" {
			t.Errorf("Masked text = %q", got)
		}
		if result.Mapping["[EMAIL_1]"].Value != "a@b.com" {
			t.Errorf("[EMAIL_1] = %q, want a@b.com", result.Mapping["[EMAIL_1]"].Value)
		}
		if result.Mapping["[EMAIL_2]"].Value != "c@d.org" {
			t.Errorf("[EMAIL_2] = %q, want c@d.org", result.Mapping["[EMAIL_2]"].Value)
		}
	})

	t.Run("TrailingSeparatorsStayOutsidePhoneToken", func(t *testing.T) {
		result := m.Mask("call +91-99999-11111 now")

		if result.MaskedText != "call [PHONE_1] now" {
			t.Errorf("Masked text = %q", result.MaskedText)
		}
		if v := result.Mapping["[PHONE_1]"].Value; v != "+91-99999-11111" {
			t.Errorf("Phone value = %q", v)
		}
	})

	t.Run("DisabledMaskerPassesThrough", func(t *testing.T) {
		disabled, err := New(config.PrivacyConfig{Enabled: false}, logger.NewNop())
		if err != nil {
			t.Fatalf("Failed to create masker: %v", err)
		}

		result := disabled.Mask("mail a@b.com")
		if result.MaskedText != "mail a@b.com" || len(result.Mapping) != 0 {
			t.Errorf("Disabled masker altered input: %+v", result)
		}
	})

	t.Run("UnknownDetectorRejected", func(t *testing.T) {
		_, err := New(config.PrivacyConfig{Enabled: true, Detectors: []string{"SSN"}}, logger.NewNop())
		if err == nil {
			t.Error("Expected error for unknown detector")
		}
	})
}

func TestRoundTrip(t *testing.T) {
	m := newTestMasker(t)

	inputs := []string{
		"Call me at +91-98765-43210 or email ganesh@example.com, order ORD12345 is late.",
		"ORDER-777 and ORD_88 both missing, reach me on +44 20 7946 0958.",
		"two mails: first@example.co.in second@test.io",
	}

	for _, input := range inputs {
		result := m.Mask(input)
		restored := Unmask(result.MaskedText, result.Mapping, nil)
		if restored != input {
			t.Errorf("Round trip failed:\n input:    %q\n restored: %q", input, restored)
		}
	}
}

func TestIdempotentRemasking(t *testing.T) {
	m := newTestMasker(t)

	inputs := []string{
		"Call me at +91-98765-43210 or email ganesh@example.com, order ORD12345 is late.",
		"just ORDER_123456789",
	}

	for _, input := range inputs {
		first := m.Mask(input)
		second := m.Mask(first.MaskedText)

		if second.MaskedText != first.MaskedText {
			t.Errorf("Remasking changed text:\n first:  %q\n second: %q", first.MaskedText, second.MaskedText)
		}
		if len(second.Mapping) != 0 {
			t.Errorf("Remasking minted %d tokens: %v", len(second.Mapping), second.Mapping)
		}
	}
}

func TestUnmask(t *testing.T) {
	m := newTestMasker(t)

	t.Run("CategoryIsolation", func(t *testing.T) {
		input := "Phone +91-98765-43210, mail ganesh@example.com, order ORD12345."
		result := m.Mask(input)

		out := Unmask(result.MaskedText, result.Mapping, []Category{CategoryEmail})

		if !strings.Contains(out, "ganesh@example.com") {
			t.Errorf("Email not restored: %q", out)
		}
		if !strings.Contains(out, "[PHONE_1]") || !strings.Contains(out, "[ORDER_1]") {
			t.Errorf("Non-allowed tokens restored: %q", out)
		}
		if strings.Contains(out, "+91-98765-43210") || strings.Contains(out, "ORD12345") {
			t.Errorf("Sensitive values leaked: %q", out)
		}
	})

	t.Run("EmptyAllowListRestoresNothing", func(t *testing.T) {
		result := m.Mask("mail ganesh@example.com")
		out := Unmask(result.MaskedText, result.Mapping, []Category{})
		if out != result.MaskedText {
			t.Errorf("Empty allow list restored tokens: %q", out)
		}
	})

	t.Run("UnknownTokenSafety", func(t *testing.T) {
		out := Unmask("see [PHONE_99] later", Mapping{}, nil)
		if out != "see [PHONE_99] later" {
			t.Errorf("Unknown token altered: %q", out)
		}
	})

	t.Run("EmptyMappingIsNoOp", func(t *testing.T) {
		out := Unmask("anything at all", Mapping{}, nil)
		if out != "anything at all" {
			t.Errorf("Empty mapping changed text: %q", out)
		}
	})

	t.Run("TokenRepeatedInReply", func(t *testing.T) {
		result := m.Mask("order ORD12345")
		reply := "Your order [ORDER_1] shipped. Track [ORDER_1] online."

		out := Unmask(reply, result.Mapping, nil)
		if out != "Your order ORD12345 shipped. Track ORD12345 online." {
			t.Errorf("Repeated token not fully restored: %q", out)
		}
	})
}

func TestMaskStructure(t *testing.T) {
	m := newTestMasker(t)

	t.Run("NestedLeaves", func(t *testing.T) {
		payload := map[string]any{
			"message": "call +91-99999-11111",
			"user":    map[string]any{"email": "a@b.com"},
		}

		masked, mapping := m.MaskStructure(payload)

		if len(mapping) != 2 {
			t.Fatalf("Mapping has %d entries, want 2: %v", len(mapping), mapping)
		}

		root := masked.(map[string]any)
		if root["message"] != "call [PHONE_1]" {
			t.Errorf("message = %q", root["message"])
		}
		user := root["user"].(map[string]any)
		if user["email"] != "[EMAIL_1]" {
			t.Errorf("email = %q", user["email"])
		}
	})

	t.Run("CountersSharedAcrossLeaves", func(t *testing.T) {
		payload := []any{"first a@b.com", "second c@d.org"}

		masked, mapping := m.MaskStructure(payload)

		list := masked.([]any)
		if list[0] != "first [EMAIL_1]" || list[1] != "second [EMAIL_2]" {
			t.Errorf("Leaves = %v", list)
		}
		if mapping["[EMAIL_1]"].Value != "a@b.com" || mapping["[EMAIL_2]"].Value != "c@d.org" {
			t.Errorf("Mapping = %v", mapping)
		}
	})

	t.Run("NonStringLeavesUntouched", func(t *testing.T) {
		payload := map[string]any{"lat": 12.97, "open": true, "count": 3}

		masked, mapping := m.MaskStructure(payload)

		root := masked.(map[string]any)
		if root["lat"] != 12.97 || root["open"] != true || root["count"] != 3 {
			t.Errorf("Non-string leaves changed: %v", root)
		}
		if len(mapping) != 0 {
			t.Errorf("Mapping not empty: %v", mapping)
		}
	})
}
