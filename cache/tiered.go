package cache

import (
	"context"
	"time"

	"cryptoscan/logger"
)

// TieredStore reads/writes through a primary Store (normally Redis) and
// falls back to an in-process Store whenever the primary errors, per
// spec.md §4.4: "on any cache I/O error: log and continue with a cold
// path". Writes go to both tiers so a later primary outage still has a warm
// fallback to read from.
type TieredStore struct {
	primary  Store
	fallback Store
}

// NewTieredStore builds a TieredStore. primary may be nil, in which case the
// fallback alone serves every call (used when Redis is not configured).
func NewTieredStore(primary Store, fallback *MemoryStore) *TieredStore {
	if fallback == nil {
		fallback = NewMemoryStore()
	}
	return &TieredStore{primary: primary, fallback: fallback}
}

func (t *TieredStore) Get(ctx context.Context, key string) (string, bool, error) {
	if t.primary != nil {
		v, ok, err := t.primary.Get(ctx, key)
		if err == nil {
			return v, ok, nil
		}
		logger.Warnf("cache: primary Get(%s) failed, using fallback: %v", key, err)
	}
	return t.fallback.Get(ctx, key)
}

func (t *TieredStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	// Always warm the fallback so a later primary outage still has data.
	_ = t.fallback.Set(ctx, key, value, ttl)
	if t.primary == nil {
		return nil
	}
	if err := t.primary.Set(ctx, key, value, ttl); err != nil {
		logger.Warnf("cache: primary Set(%s) failed, continuing on fallback only: %v", key, err)
		return nil
	}
	return nil
}

func (t *TieredStore) Incr(ctx context.Context, key string) (int64, error) {
	if t.primary != nil {
		n, err := t.primary.Incr(ctx, key)
		if err == nil {
			return n, nil
		}
		logger.Warnf("cache: primary Incr(%s) failed, using fallback: %v", key, err)
	}
	return t.fallback.Incr(ctx, key)
}

func (t *TieredStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	_ = t.fallback.Expire(ctx, key, ttl)
	if t.primary == nil {
		return nil
	}
	if err := t.primary.Expire(ctx, key, ttl); err != nil {
		logger.Warnf("cache: primary Expire(%s) failed: %v", key, err)
	}
	return nil
}

func (t *TieredStore) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	if t.primary != nil {
		keys, err := t.primary.ScanKeys(ctx, pattern)
		if err == nil {
			return keys, nil
		}
		logger.Warnf("cache: primary ScanKeys(%s) failed, using fallback: %v", pattern, err)
	}
	return t.fallback.ScanKeys(ctx, pattern)
}

func (t *TieredStore) Del(ctx context.Context, key string) error {
	_ = t.fallback.Del(ctx, key)
	if t.primary == nil {
		return nil
	}
	if err := t.primary.Del(ctx, key); err != nil {
		logger.Warnf("cache: primary Del(%s) failed: %v", key, err)
	}
	return nil
}
