package cache

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiterAllowsUnderLimit(t *testing.T) {
	ctx := context.Background()
	rl := NewRateLimiter(NewMemoryStore(), time.Minute, 5*time.Minute)

	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(ctx, "binance", 5)
		if err != nil || !ok {
			t.Fatalf("call %d: expected allow, got ok=%v err=%v", i, ok, err)
		}
	}
}

func TestRateLimiterBlocksOverLimit(t *testing.T) {
	ctx := context.Background()
	rl := NewRateLimiter(NewMemoryStore(), time.Minute, 5*time.Minute)

	for i := 0; i < 2; i++ {
		if ok, _ := rl.Allow(ctx, "bybit", 2); !ok {
			t.Fatalf("call %d should be allowed within limit", i)
		}
	}
	ok, err := rl.Allow(ctx, "bybit", 2)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if ok {
		t.Fatal("third call should exceed limit of 2")
	}
}

func TestRateLimiterCooldownBlocksImmediately(t *testing.T) {
	ctx := context.Background()
	rl := NewRateLimiter(NewMemoryStore(), time.Minute, 5*time.Minute)

	if err := rl.MarkRateLimited(ctx, "kraken"); err != nil {
		t.Fatalf("MarkRateLimited: %v", err)
	}
	ok, err := rl.Allow(ctx, "kraken", 1000)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if ok {
		t.Fatal("exchange on cooldown must not be allowed")
	}
}
