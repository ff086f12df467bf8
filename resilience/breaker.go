// Package resilience wraps external-dependency calls with the spec.md §5
// circuit breaker state machine (CLOSED -> OPEN -> HALF_OPEN -> CLOSED),
// built on failsafe-go's circuitbreaker the way the example pack's market
// maker HTTP client wires retry+breaker pipelines
// (tommy-ca-opensqt_market_maker/market_maker/pkg/http/client.go).
package resilience

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
)

// Breaker wraps a failsafe-go circuit breaker over calls returning T,
// remembering the last successful result so OPEN-state callers can be
// served a stale value instead of an error (spec.md §5 "OPEN: ... for
// timeout=60s ... short-circuit to last cached value (or empty shell)").
type Breaker[T any] struct {
	cb circuitbreaker.CircuitBreaker[T]

	mu          sync.RWMutex
	lastGood    T
	hasLastGood bool
}

// New builds a Breaker that opens after `threshold` consecutive failures
// and stays open for `openDuration` before probing again (spec.md §5,
// §6 circuit_breaker_threshold / circuit_breaker_open_duration).
func New[T any](threshold int, openDuration time.Duration) *Breaker[T] {
	cb := circuitbreaker.NewBuilder[T]().
		HandleIf(func(_ T, err error) bool { return err != nil }).
		WithFailureThreshold(uint(threshold)).
		WithDelay(openDuration).
		Build()
	return &Breaker[T]{cb: cb}
}

// State reports the breaker's current state, for diagnostics/tests.
func (b *Breaker[T]) State() circuitbreaker.State {
	return b.cb.State()
}

// Execute runs fn through the breaker. When the breaker is OPEN, fn is never
// called: the last known-good result is returned (shortCircuited=true,
// err=nil) or, absent any prior success, the caller's fallback is used.
// A HALF_OPEN state lets exactly one probe call through per failsafe-go's
// own semantics, resetting to CLOSED on success or back to OPEN on failure.
func (b *Breaker[T]) Execute(ctx context.Context, fn func(context.Context) (T, error), fallback T) (result T, shortCircuited bool, err error) {
	if b.cb.State() == circuitbreaker.OpenState {
		b.mu.RLock()
		last, ok := b.lastGood, b.hasLastGood
		b.mu.RUnlock()
		if ok {
			return last, true, nil
		}
		return fallback, true, nil
	}

	out, execErr := failsafe.With[T](b.cb).Get(func() (T, error) {
		return fn(ctx)
	})
	if execErr != nil {
		return fallback, false, fmt.Errorf("breaker call failed: %w", execErr)
	}

	b.mu.Lock()
	b.lastGood, b.hasLastGood = out, true
	b.mu.Unlock()
	return out, false, nil
}
