package router

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"cryptoscan/cache"
	"cryptoscan/logger"
)

// Quote is the minimal price data every strategy backend needs (spec.md
// §4.7 "Prices referenced by strategies are fetched from a shared price
// service"). Change24hPct/Volume24hUSD come along for free from the
// underlying Asset and let momentum/breakout-style backends reason about
// real market data instead of fabricating it (spec.md §9 Open Questions:
// "this spec disallows synthetic prices").
type Quote struct {
	PriceUSD       float64
	Change24hPct   float64
	Volume24hUSD   float64
}

// Source resolves a single (exchange, symbol) quote. The orchestrator wires
// this to the discovered universe snapshot (never to a fresh, ungated
// exchange call) so every backend call in a scan sees a consistent price.
type Source interface {
	Quote(ctx context.Context, exchangeID, symbol string) (Quote, bool, error)
}

// PriceService is the shared price cache named in spec.md §4.7: in-memory +
// Redis-backed TTL cache that dedups concurrent fetches for the same
// (exchange, symbol) pair using golang.org/x/sync/singleflight, the
// promoted-to-direct teacher dependency SPEC_FULL.md's DOMAIN STACK names
// for bounded fan-out.
type PriceService struct {
	source Source
	ttl    *cache.TTLCache
	ttlDur time.Duration
	group  singleflight.Group
}

// NewPriceService builds a PriceService over source, caching quotes for
// ttlDur (spec.md §4.9 step 5: "short TTL (~60s)").
func NewPriceService(source Source, ttl *cache.TTLCache, ttlDur time.Duration) *PriceService {
	return &PriceService{source: source, ttl: ttl, ttlDur: ttlDur}
}

func priceCacheKey(exchangeID, symbol string) string {
	return fmt.Sprintf("price:%s:%s", exchangeID, symbol)
}

// Get returns the current quote for (exchangeID, symbol), preferring the
// cache, deduplicating concurrent misses for the same key, and never
// fabricating a value: ok=false means "no data", which callers must treat
// as an empty contribution rather than synthesize a price for.
func (p *PriceService) Get(ctx context.Context, exchangeID, symbol string) (Quote, bool, error) {
	key := priceCacheKey(exchangeID, symbol)

	var cached Quote
	if ok, err := p.ttl.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, true, nil
	}

	result, err, _ := p.group.Do(key, func() (any, error) {
		q, ok, err := p.source.Quote(ctx, exchangeID, symbol)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		if err := p.ttl.SetJSON(ctx, key, q, p.ttlDur); err != nil {
			logger.Warnf("price service: %s/%s: cache write failed, serving live quote: %v", exchangeID, symbol, err)
		}
		return q, nil
	})
	if err != nil {
		return Quote{}, false, fmt.Errorf("price service: %s/%s: %w", exchangeID, symbol, err)
	}
	if result == nil {
		return Quote{}, false, nil
	}
	return result.(Quote), true, nil
}

// Preload warms the cache for a batch of (exchange, symbol) pairs under the
// bounded concurrency spec.md §4.9 step 5 requires. Errors are absorbed per
// backend lookup; preload is a best-effort optimization, never required for
// correctness.
func (p *PriceService) Preload(ctx context.Context, pairs []struct{ Exchange, Symbol string }, concurrency int) {
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	done := make(chan struct{}, len(pairs))
	for _, pair := range pairs {
		sem <- struct{}{}
		go func(exchangeID, symbol string) {
			defer func() { <-sem; done <- struct{}{} }()
			_, _, _ = p.Get(ctx, exchangeID, symbol)
		}(pair.Exchange, pair.Symbol)
	}
	for range pairs {
		<-done
	}
}
