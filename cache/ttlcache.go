package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// TTLCache is a typed JSON convenience wrapper over a Store, used by the
// universe cache (C4) and the opportunity cache (C10).
type TTLCache struct {
	store Store
}

// NewTTLCache wraps store with JSON encode/decode helpers.
func NewTTLCache(store Store) *TTLCache {
	return &TTLCache{store: store}
}

// GetJSON reads key and decodes it into dst. Returns ok=false on miss; a
// decode error is returned (and the caller should treat it as a miss after
// logging, matching the "fingerprint mismatch -> treat as miss" rule of
// §4.10).
func (c *TTLCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes value and writes it with the given TTL.
func (c *TTLCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.store.Set(ctx, key, string(raw), ttl); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (c *TTLCache) Delete(ctx context.Context, key string) error {
	return c.store.Del(ctx, key)
}

// ScanKeys lists keys matching pattern, used by the fallback layer (C11) to
// find a user's most recent cached opportunity set.
func (c *TTLCache) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	return c.store.ScanKeys(ctx, pattern)
}

// Store exposes the underlying raw Store for counters and other non-JSON
// uses (rate limiting, error metrics).
func (c *TTLCache) Store() Store {
	return c.store
}
