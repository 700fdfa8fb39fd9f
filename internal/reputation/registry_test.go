package reputation

import "testing"

func TestSuspiciousTLD(t *testing.T) {
	registry := NewRegistry()
	if !registry.IsSuspiciousTLD("example.ru") {
		t.Fatalf("expected .ru to match")
	}
	if !registry.IsSuspiciousTLD("EXAMPLE.XYZ") {
		t.Fatalf("expected case-insensitive match")
	}
	if registry.IsSuspiciousTLD("example.com") {
		t.Fatalf("unexpected match for .com")
	}
	if registry.IsSuspiciousTLD("") || registry.IsSuspiciousTLD("  ") {
		t.Fatalf("blank input should not match")
	}
}

func TestURLShortener(t *testing.T) {
	registry := NewRegistry()
	if !registry.IsURLShortener("bit.ly") {
		t.Fatalf("expected exact match")
	}
	if !registry.IsURLShortener("sub.bit.ly") {
		t.Fatalf("expected substring match")
	}
	if registry.IsURLShortener("example.com") {
		t.Fatalf("unexpected match")
	}
}

func TestRiskScoreRoundTrip(t *testing.T) {
	registry := NewRegistry()
	registry.AddSuspiciousDomain("evil.test", 5)
	if score := registry.RiskScore("EVIL.test"); score != 5 {
		t.Fatalf("expected 5, got %d", score)
	}
	// Last write wins, no accumulation.
	registry.AddSuspiciousDomain("evil.test", 2)
	if score := registry.RiskScore("evil.test"); score != 2 {
		t.Fatalf("expected 2, got %d", score)
	}
	registry.RemoveSuspiciousDomain("Evil.Test")
	if score := registry.RiskScore("evil.test"); score != 0 {
		t.Fatalf("expected 0 after removal, got %d", score)
	}
}

func TestIsSuspicious(t *testing.T) {
	registry := NewRegistry()
	registry.AddSuspiciousDomain("risky.example", 3)
	registry.AddSuspiciousDomain("mild.example", 2)

	if !registry.IsSuspicious("risky.example") {
		t.Fatalf("risk >= 3 should be suspicious")
	}
	if registry.IsSuspicious("mild.example") {
		t.Fatalf("risk < 3 should not be suspicious")
	}
	if !registry.IsSuspicious("anything.ru") {
		t.Fatalf("suspicious TLD should be suspicious")
	}
	if !registry.IsSuspicious("tinyurl.com") {
		t.Fatalf("shortener should be suspicious")
	}
	// Idempotent without intervening mutation.
	first := registry.IsSuspicious("mild.example")
	second := registry.IsSuspicious("mild.example")
	if first != second {
		t.Fatalf("expected stable result")
	}
}
