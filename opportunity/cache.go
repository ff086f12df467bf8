package opportunity

import (
	"context"
	"fmt"
	"time"

	"cryptoscan/cache"
)

// CacheMetadata is the C10 payload wrapper's metadata (spec.md §3
// "CachedOpportunitySet", §4.10).
type CacheMetadata struct {
	CachedAt            time.Time `json:"cached_at"`
	StrategyFingerprint string    `json:"strategy_fingerprint"`
	ZeroTTLSeconds      int       `json:"zero_ttl_seconds"`
	TotalOpportunities  int       `json:"total_opportunities"`
}

// CachedOpportunitySet is the C10 envelope: payload + cache metadata.
type CachedOpportunitySet struct {
	Payload  Envelope      `json:"payload"`
	Metadata CacheMetadata `json:"cache_metadata"`
}

// Cache is the C10 Opportunity Cache: keyed by user/tier/strategy-count,
// fingerprint-checked on read, short-TTL for empty results.
type Cache struct {
	ttl *cache.TTLCache

	ttlNonEmpty time.Duration
	ttlEmpty    time.Duration
	maxAgeNonEmpty time.Duration
	maxAgeEmpty    time.Duration
}

// NewCache builds a C10 cache. ttlNonEmpty/ttlEmpty set the write TTLs
// (spec.md §6 cache_ttl_opportunities_*); maxAgeNonEmpty/maxAgeEmpty bound
// the read-side staleness check independent of the backing store's own TTL
// enforcement (useful when the backing store is advisory, e.g. in-memory
// fallback without real expiry semantics under clock skew).
func NewCache(ttl *cache.TTLCache, ttlNonEmpty, ttlEmpty, maxAgeNonEmpty, maxAgeEmpty time.Duration) *Cache {
	return &Cache{
		ttl:            ttl,
		ttlNonEmpty:    ttlNonEmpty,
		ttlEmpty:       ttlEmpty,
		maxAgeNonEmpty: maxAgeNonEmpty,
		maxAgeEmpty:    maxAgeEmpty,
	}
}

// Key builds the §4.10 cache key: user_opportunities:{user_id}:{user_tier}:{active_strategy_count}.
func Key(userID, userTier string, activeStrategyCount int) string {
	return fmt.Sprintf("user_opportunities:%s:%s:%d", userID, userTier, activeStrategyCount)
}

// Get reads a cached set for key and validates it against the caller's
// current fingerprint (spec.md §4.10, §8 "Cache soundness"). A fingerprint
// mismatch or stale entry is treated as a miss and the stale key is deleted.
func (c *Cache) Get(ctx context.Context, key, currentFingerprint string) (CachedOpportunitySet, bool) {
	var set CachedOpportunitySet
	ok, err := c.ttl.GetJSON(ctx, key, &set)
	if err != nil || !ok {
		return CachedOpportunitySet{}, false
	}
	if set.Metadata.StrategyFingerprint != currentFingerprint {
		_ = c.ttl.Delete(ctx, key)
		return CachedOpportunitySet{}, false
	}

	ensureProfileBackwardCompat(&set.Payload)

	maxAge := c.maxAgeNonEmpty
	if set.Metadata.TotalOpportunities == 0 {
		maxAge = c.maxAgeEmpty
	}
	if maxAge > 0 && time.Since(set.Metadata.CachedAt) > maxAge {
		_ = c.ttl.Delete(ctx, key)
		return CachedOpportunitySet{}, false
	}
	return set, true
}

// Set writes env under key with the TTL appropriate to whether it carries
// any opportunities (spec.md §4.10, §6).
func (c *Cache) Set(ctx context.Context, key string, env Envelope, fingerprint string) error {
	ttl := c.ttlNonEmpty
	zeroTTL := 0
	if env.TotalOpportunities == 0 {
		ttl = c.ttlEmpty
		zeroTTL = int(c.ttlEmpty.Seconds())
	}
	set := CachedOpportunitySet{
		Payload: env,
		Metadata: CacheMetadata{
			CachedAt:            time.Now(),
			StrategyFingerprint: fingerprint,
			ZeroTTLSeconds:      zeroTTL,
			TotalOpportunities:  env.TotalOpportunities,
		},
	}
	return c.ttl.SetJSON(ctx, key, set, ttl)
}

// ScanUserKeys lists every cached entry for a user, used by the fallback
// layer (C11) to locate the most recent stale entry when the live scan
// fails.
func (c *Cache) ScanUserKeys(ctx context.Context, userID string) ([]string, error) {
	return c.ttl.ScanKeys(ctx, fmt.Sprintf("user_opportunities:%s:*", userID))
}

// GetAny reads whatever is stored under key with no fingerprint or staleness
// check. Used only by the C11 fallback layer, which wants the user's last
// known-good snapshot regardless of whether it still matches their current
// strategy set (spec.md §4.11: "return last successful data, even if
// technically stale, rather than nothing").
func (c *Cache) GetAny(ctx context.Context, key string) (CachedOpportunitySet, bool) {
	var set CachedOpportunitySet
	ok, err := c.ttl.GetJSON(ctx, key, &set)
	if err != nil || !ok {
		return CachedOpportunitySet{}, false
	}
	ensureProfileBackwardCompat(&set.Payload)
	return set, true
}

// ensureProfileBackwardCompat guarantees both active_strategies and
// active_strategy_count are present in user_profile (spec.md §4.10).
func ensureProfileBackwardCompat(env *Envelope) {
	if env.UserProfile.ActiveStrategies == 0 && env.UserProfile.ActiveStrategyCount != 0 {
		env.UserProfile.ActiveStrategies = env.UserProfile.ActiveStrategyCount
	}
	if env.UserProfile.ActiveStrategyCount == 0 && env.UserProfile.ActiveStrategies != 0 {
		env.UserProfile.ActiveStrategyCount = env.UserProfile.ActiveStrategies
	}
}
