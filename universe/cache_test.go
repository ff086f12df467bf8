package universe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoscan/asset"
	"cryptoscan/cache"
	"cryptoscan/exchange"
)

func TestDiscoverClassifiesAndCaches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"symbol":"BTCUSDT","lastPrice":"50000","quoteVolume":"2000000"}]`))
	}))
	defer srv.Close()

	reg := exchange.NewRegistry()
	require.NoError(t, reg.Register(exchange.Descriptor{
		ID: "binance", SpotURL: srv.URL, ParserKey: "binance", RateLimitPerMinute: 0, Priority: 1,
	}, exchange.ParseBinance))

	store := cache.NewMemoryStore()
	limiter := cache.NewRateLimiter(store, time.Minute, 5*time.Minute)
	fetcher := exchange.NewFetcher(reg, limiter, srv.Client(), 5*time.Second)
	uc := NewCache(cache.NewTTLCache(store), reg, fetcher, 5*time.Minute, 10*time.Minute)

	buckets, err := uc.Discover(context.Background(), asset.TierAny, []string{"binance"}, false)
	require.NoError(t, err)
	assert.NotEmpty(t, buckets[asset.TierRetail])
}

func TestDiscoverServesFreshCacheWithoutRefetch(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"symbol":"BTCUSDT","lastPrice":"50000","quoteVolume":"2000000"}]`))
	}))
	defer srv.Close()

	reg := exchange.NewRegistry()
	require.NoError(t, reg.Register(exchange.Descriptor{
		ID: "binance", SpotURL: srv.URL, ParserKey: "binance", Priority: 1,
	}, exchange.ParseBinance))

	store := cache.NewMemoryStore()
	fetcher := exchange.NewFetcher(reg, nil, srv.Client(), 5*time.Second)
	uc := NewCache(cache.NewTTLCache(store), reg, fetcher, 5*time.Minute, 10*time.Minute)

	ctx := context.Background()
	_, err := uc.Discover(ctx, asset.TierAny, []string{"binance"}, false)
	require.NoError(t, err)
	_, err = uc.Discover(ctx, asset.TierAny, []string{"binance"}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDiscoverForceRefreshBypassesCache(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"symbol":"BTCUSDT","lastPrice":"50000","quoteVolume":"2000000"}]`))
	}))
	defer srv.Close()

	reg := exchange.NewRegistry()
	require.NoError(t, reg.Register(exchange.Descriptor{
		ID: "binance", SpotURL: srv.URL, ParserKey: "binance", Priority: 1,
	}, exchange.ParseBinance))

	store := cache.NewMemoryStore()
	fetcher := exchange.NewFetcher(reg, nil, srv.Client(), 5*time.Second)
	uc := NewCache(cache.NewTTLCache(store), reg, fetcher, 5*time.Minute, 10*time.Minute)

	ctx := context.Background()
	_, err := uc.Discover(ctx, asset.TierAny, []string{"binance"}, false)
	require.NoError(t, err)
	_, err = uc.Discover(ctx, asset.TierAny, []string{"binance"}, true)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
