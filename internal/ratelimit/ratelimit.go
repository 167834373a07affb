package ratelimit

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// AIBudget caps the number of summarization requests per provider and in
// total over a rolling day. A zero limit means unlimited.
type AIBudget struct {
	mu          sync.Mutex
	limits      map[string]int
	counts      map[string]int
	totalCount  int
	maxTotal    int
	resetTime   time.Time
	cacheHits   int
	cacheMisses int
	now         func() time.Time
	logger      *slog.Logger
}

// NewAIBudget creates a budget with per-provider limits and a total limit.
func NewAIBudget(limits map[string]int, maxTotal int, logger *slog.Logger) *AIBudget {
	if logger == nil {
		logger = slog.Default()
	}
	b := &AIBudget{
		limits:   make(map[string]int, len(limits)),
		counts:   make(map[string]int),
		maxTotal: maxTotal,
		now:      time.Now,
		logger:   logger,
	}
	for k, v := range limits {
		b.limits[k] = v
	}
	b.resetTime = b.now().Add(24 * time.Hour)
	return b
}

// CanUse reports whether provider may make another request.
func (b *AIBudget) CanUse(provider string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkReset()
	return b.exceeded(provider) == nil
}

// Use records one request for provider, or returns an error if either the
// provider or the total limit has been reached.
func (b *AIBudget) Use(provider string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkReset()
	if err := b.exceeded(provider); err != nil {
		b.logger.Warn("AI budget exhausted", "provider", provider, "error", err)
		return err
	}

	b.counts[provider]++
	b.totalCount++
	b.cacheMisses++

	b.logger.Debug("AI usage", "provider", provider, "used", b.counts[provider], "limit", b.limits[provider],
		"total", b.totalCount, "total_limit", b.maxTotal)
	return nil
}

// RecordCacheHit records a request served from cache.
func (b *AIBudget) RecordCacheHit() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cacheHits++
}

// CacheHitRate returns the cache hit rate as a percentage.
func (b *AIBudget) CacheHitRate() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hitRate()
}

func (b *AIBudget) hitRate() float64 {
	total := b.cacheHits + b.cacheMisses
	if total == 0 {
		return 0
	}
	return float64(b.cacheHits) / float64(total) * 100
}

// Stats returns current budget statistics.
func (b *AIBudget) Stats() map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats := map[string]interface{}{
		"total_used":     b.totalCount,
		"total_limit":    b.maxTotal,
		"cache_hits":     b.cacheHits,
		"cache_misses":   b.cacheMisses,
		"cache_hit_rate": b.hitRate(),
		"reset_time":     b.resetTime,
	}
	for name, limit := range b.limits {
		stats[name+"_used"] = b.counts[name]
		stats[name+"_limit"] = limit
	}
	return stats
}

func (b *AIBudget) exceeded(provider string) error {
	if limit := b.limits[provider]; limit > 0 && b.counts[provider] >= limit {
		return fmt.Errorf("%s rate limit exceeded (%d/%d)", provider, b.counts[provider], limit)
	}
	if b.maxTotal > 0 && b.totalCount >= b.maxTotal {
		return fmt.Errorf("total AI rate limit exceeded (%d/%d)", b.totalCount, b.maxTotal)
	}
	return nil
}

// checkReset resets counters if reset time has passed
func (b *AIBudget) checkReset() {
	now := b.now()
	if !now.After(b.resetTime) {
		return
	}
	b.logger.Info("Resetting AI budget counters", "total_used", b.totalCount, "cache_hits", b.cacheHits)

	b.counts = make(map[string]int)
	b.totalCount = 0
	b.cacheHits = 0
	b.cacheMisses = 0
	b.resetTime = now.Add(24 * time.Hour)
}
