package orchestrator

import (
	"context"
	"fmt"
	"time"

	"cryptoscan/cache"
)

// ErrorMetrics records the C11 error counters (spec.md §4.11 step 3): a
// daily global counter, a per-user 24h counter, and a per-scan error log
// entry with a 3-day TTL.
type ErrorMetrics struct {
	store cache.Store
}

// NewErrorMetrics builds an ErrorMetrics recorder over the shared store.
func NewErrorMetrics(store cache.Store) *ErrorMetrics {
	return &ErrorMetrics{store: store}
}

func dailyErrorKey(day string) string {
	return fmt.Sprintf("errors:daily:%s", day)
}

func perUserErrorKey(userID string) string {
	return fmt.Sprintf("errors:user:%s", userID)
}

func scanErrorLogKey(scanID string) string {
	return fmt.Sprintf("errors:scan:%s", scanID)
}

// RecordPipelineFailure increments the daily and per-user counters and logs
// a detailed entry keyed by scanID (spec.md §4.11 step 3).
func (m *ErrorMetrics) RecordPipelineFailure(ctx context.Context, userID, scanID, detail string, now time.Time) {
	if m == nil || m.store == nil {
		return
	}
	day := now.UTC().Format("2006-01-02")
	if _, err := m.store.Incr(ctx, dailyErrorKey(day)); err == nil {
		_ = m.store.Expire(ctx, dailyErrorKey(day), 48*time.Hour)
	}
	if _, err := m.store.Incr(ctx, perUserErrorKey(userID)); err == nil {
		_ = m.store.Expire(ctx, perUserErrorKey(userID), 24*time.Hour)
	}
	_ = m.store.Set(ctx, scanErrorLogKey(scanID), detail, 3*24*time.Hour)
}
