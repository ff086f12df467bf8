package cache

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter implements the per-exchange counter described in spec.md
// §4.2: a 60s-window increment-and-compare budget, plus an explicit
// 300s cooldown flag set on HTTP 429.
type RateLimiter struct {
	store    Store
	window   time.Duration
	cooldown time.Duration
}

// NewRateLimiter builds a RateLimiter backed by store.
func NewRateLimiter(store Store, window, cooldown time.Duration) *RateLimiter {
	return &RateLimiter{store: store, window: window, cooldown: cooldown}
}

func counterKey(exchangeID string) string {
	return fmt.Sprintf("ratelimit:count:%s", exchangeID)
}

func cooldownKey(exchangeID string) string {
	return fmt.Sprintf("ratelimit:cooldown:%s", exchangeID)
}

// Allow increments the exchange's window counter and reports whether the
// caller may proceed: false when the exchange is in a 429 cooldown, or when
// the incremented counter exceeds limitPerMinute.
func (r *RateLimiter) Allow(ctx context.Context, exchangeID string, limitPerMinute int) (bool, error) {
	if _, onCooldown, err := r.store.Get(ctx, cooldownKey(exchangeID)); err != nil {
		return false, fmt.Errorf("rate limiter cooldown check for %s: %w", exchangeID, err)
	} else if onCooldown {
		return false, nil
	}

	key := counterKey(exchangeID)
	n, err := r.store.Incr(ctx, key)
	if err != nil {
		return false, fmt.Errorf("rate limiter incr for %s: %w", exchangeID, err)
	}
	if n == 1 {
		// First hit of this window: arm the expiry.
		_ = r.store.Expire(ctx, key, r.window)
	}
	if limitPerMinute > 0 && n > int64(limitPerMinute) {
		return false, nil
	}
	return true, nil
}

// MarkRateLimited puts exchangeID into cooldown for the configured duration,
// called after an HTTP 429 response (§4.2).
func (r *RateLimiter) MarkRateLimited(ctx context.Context, exchangeID string) error {
	if err := r.store.Set(ctx, cooldownKey(exchangeID), "1", r.cooldown); err != nil {
		return fmt.Errorf("rate limiter cooldown set for %s: %w", exchangeID, err)
	}
	return nil
}
