package enums

import "testing"

func TestParseSubscriptionStatus(t *testing.T) {
	for _, raw := range []string{"active", "past_due", "cancelled", "paused"} {
		status, err := ParseSubscriptionStatus(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if status.String() != raw {
			t.Fatalf("expected %q, got %q", raw, status)
		}
	}
	if _, err := ParseSubscriptionStatus("canceled"); err == nil {
		t.Fatalf("expected stripe spelling to be rejected")
	}
}

func TestSubscriptionStatusTerminal(t *testing.T) {
	if !SubscriptionStatusCancelled.IsTerminal() {
		t.Fatalf("cancelled must be terminal")
	}
	if SubscriptionStatusPastDue.IsTerminal() || SubscriptionStatusActive.IsTerminal() {
		t.Fatalf("active and past_due must not be terminal")
	}
}

func TestOrderAndProjectStatuses(t *testing.T) {
	if _, err := ParseOrderStatus("paid"); err != nil {
		t.Fatalf("paid should parse: %v", err)
	}
	if OrderStatus("shipped").IsValid() {
		t.Fatalf("unexpected order status accepted")
	}
	if _, err := ParseProjectStatus("onboarding"); err != nil {
		t.Fatalf("onboarding should parse: %v", err)
	}
	if ProjectStatus("archived").IsValid() {
		t.Fatalf("unexpected project status accepted")
	}
	if !ActivityTypePurchase.IsValid() {
		t.Fatalf("purchase should be valid")
	}
}
