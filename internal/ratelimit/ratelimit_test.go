package ratelimit

import (
	"testing"
	"time"
)

func TestAIBudget_ProviderAndTotalLimits(t *testing.T) {
	b := NewAIBudget(map[string]int{"gemini": 2, "openai": 5}, 3, nil)

	if err := b.Use("gemini"); err != nil {
		t.Fatal(err)
	}
	if err := b.Use("gemini"); err != nil {
		t.Fatal(err)
	}
	if b.CanUse("gemini") {
		t.Errorf("gemini should be exhausted")
	}
	if err := b.Use("gemini"); err == nil {
		t.Errorf("expected gemini limit error")
	}
	if err := b.Use("openai"); err != nil {
		t.Fatal(err)
	}
	if err := b.Use("openai"); err == nil {
		t.Errorf("expected total limit error")
	}

	stats := b.Stats()
	if stats["total_used"] != 3 || stats["gemini_used"] != 2 || stats["openai_used"] != 1 {
		t.Errorf("unexpected stats: %v", stats)
	}
}

func TestAIBudget_DailyReset(t *testing.T) {
	now := time.Date(2025, 12, 5, 8, 0, 0, 0, time.UTC)
	b := NewAIBudget(map[string]int{"gemini": 1}, 0, nil)
	b.now = func() time.Time { return now }
	b.resetTime = now.Add(24 * time.Hour)

	if err := b.Use("gemini"); err != nil {
		t.Fatal(err)
	}
	if b.CanUse("gemini") {
		t.Fatalf("expected limit reached")
	}
	now = now.Add(25 * time.Hour)
	if !b.CanUse("gemini") {
		t.Fatalf("expected counters to reset after a day")
	}
}

func TestAIBudget_CacheHitRate(t *testing.T) {
	b := NewAIBudget(nil, 0, nil)
	if b.CacheHitRate() != 0 {
		t.Errorf("empty rate should be 0")
	}
	_ = b.Use("gemini")
	b.RecordCacheHit()
	if got := b.CacheHitRate(); got != 50 {
		t.Errorf("rate = %v, want 50", got)
	}
}
