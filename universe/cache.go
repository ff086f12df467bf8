// Package universe implements the Universe Cache (C4) and Exchange Universe
// Resolver (C5): read-through tiered-universe discovery and per-user
// exchange/symbol resolution (spec.md §4.4, §4.5).
package universe

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"cryptoscan/asset"
	"cryptoscan/cache"
	"cryptoscan/exchange"
	"cryptoscan/logger"
)

// Snapshot is the C4 cached payload: a classified universe plus the time it
// was produced (spec.md §4.4 "serialized classification output + timestamp").
type Snapshot struct {
	Buckets   map[asset.Tier][]asset.Asset `json:"buckets"`
	Timestamp time.Time                    `json:"timestamp"`
}

// Cache is the C4 Universe Cache: a read-through store of tiered universes
// keyed by (min_tier, exchange set).
type Cache struct {
	ttl      *cache.TTLCache
	registry *exchange.Registry
	fetcher  *exchange.Fetcher

	readFresh time.Duration
	writeTTL  time.Duration
}

// NewCache builds a C4 cache. readFresh bounds how old a cached entry may be
// and still be served; writeTTL is the backing store's own TTL (spec.md
// §4.4: 5 min fresh window for reads, 10 min TTL for writes).
func NewCache(ttl *cache.TTLCache, registry *exchange.Registry, fetcher *exchange.Fetcher, readFresh, writeTTL time.Duration) *Cache {
	return &Cache{ttl: ttl, registry: registry, fetcher: fetcher, readFresh: readFresh, writeTTL: writeTTL}
}

// key builds the §4.4 cache key: enterprise_assets:{min_tier}:{sorted_exchange_ids_joined}.
func key(minTier asset.Tier, exchangeIDs []string) string {
	sorted := make([]string, len(exchangeIDs))
	copy(sorted, exchangeIDs)
	sort.Strings(sorted)
	return fmt.Sprintf("enterprise_assets:%s:%s", minTier, strings.Join(sorted, ","))
}

// Discover returns the classified, tier-filtered universe for exchangeIDs.
// On a cache hit within the fresh window (and forceRefresh=false) the cached
// snapshot is returned; otherwise a cold classification pass runs across C2
// and is stored under the §4.4 write TTL. Any cache I/O error is logged and
// treated as a cold path (spec.md §4.4).
func (c *Cache) Discover(ctx context.Context, minTier asset.Tier, exchangeIDs []string, forceRefresh bool) (map[asset.Tier][]asset.Asset, error) {
	k := key(minTier, exchangeIDs)

	if !forceRefresh {
		var snap Snapshot
		ok, err := c.ttl.GetJSON(ctx, k, &snap)
		if err != nil {
			logger.Warnf("universe cache: read error for %s, falling back to cold path: %v", k, err)
		} else if ok && time.Since(snap.Timestamp) <= c.readFresh {
			return snap.Buckets, nil
		}
	}

	perExchange := c.fetcher.FetchAll(ctx, exchangeIDs, exchange.AssetTypeSpot)
	best := asset.SelectBestQuotes(perExchange, c.registry.Priority)
	classified := asset.Classify(best)
	filtered := asset.FilterByMinTier(classified, minTier)

	snap := Snapshot{Buckets: filtered, Timestamp: time.Now()}
	if err := c.ttl.SetJSON(ctx, k, snap, c.writeTTL); err != nil {
		logger.Warnf("universe cache: write error for %s: %v", k, err)
	}
	return filtered, nil
}
