package scanner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoscan/asset"
	"cryptoscan/cache"
	"cryptoscan/router"
)

type stubSource struct {
	quotes map[string]router.Quote
}

func (s *stubSource) Quote(_ context.Context, exchangeID, symbol string) (router.Quote, bool, error) {
	q, ok := s.quotes[exchangeID+":"+symbol]
	return q, ok, nil
}

func testRouter(quotes map[string]router.Quote) *router.Router {
	ttl := cache.NewTTLCache(cache.NewMemoryStore())
	prices := router.NewPriceService(&stubSource{quotes: quotes}, ttl, time.Minute)
	return router.NewDefaultRouter(prices)
}

func classifiedWith(a asset.Asset) map[asset.Tier][]asset.Asset {
	a.Tier = asset.ClassifyVolume(a.Volume24hUSD)
	return map[asset.Tier][]asset.Asset{a.Tier: {a}}
}

func TestScanSkipsUnownedStrategy(t *testing.T) {
	reg := NewDefaultRegistry()
	a, ok := reg.Get("spot_momentum_strategy")
	require.True(t, ok)

	r := testRouter(nil)
	in := Input{UserID: "u1", OwnedStrategies: map[string]bool{}, MaxTier: asset.TierAny}
	opps := a.Scan(context.Background(), r, in)
	assert.Empty(t, opps)
}

func TestScanPerSymbolProducesOpportunityAboveThreshold(t *testing.T) {
	reg := NewDefaultRegistry()
	a, ok := reg.Get("spot_momentum_strategy")
	require.True(t, ok)

	btc := asset.Asset{Symbol: "BTC", Quote: "USDT", Exchange: "binance", PriceUSD: 50000, Volume24hUSD: 2_000_000_000}
	r := testRouter(map[string]router.Quote{
		"binance:BTCUSDT": {PriceUSD: 50000, Change24hPct: 8.0, Volume24hUSD: 2_000_000_000},
	})
	in := Input{
		UserID:          "u1",
		Classified:      classifiedWith(btc),
		MaxTier:         asset.TierAny,
		OwnedStrategies: map[string]bool{"spot_momentum_strategy": true},
		NotionalUSD:     1000,
	}
	opps := a.Scan(context.Background(), r, in)
	require.Len(t, opps, 1)
	assert.Equal(t, "BTCUSDT", opps[0].Symbol)
	assert.Greater(t, opps[0].ProfitPotentialUSD, 0.0)
	require.NotNil(t, opps[0].EntryPrice)
	assert.InDelta(t, 50000, *opps[0].EntryPrice, 0.01)
}

func TestScanPerSymbolExcludesBelowMinThreshold(t *testing.T) {
	reg := NewDefaultRegistry()
	a, ok := reg.Get("spot_momentum_strategy")
	require.True(t, ok)

	eth := asset.Asset{Symbol: "ETH", Quote: "USDT", Exchange: "binance", PriceUSD: 3000, Volume24hUSD: 2_000_000_000}
	r := testRouter(map[string]router.Quote{
		"binance:ETHUSDT": {PriceUSD: 3000, Change24hPct: 0.1, Volume24hUSD: 2_000_000_000},
	})
	in := Input{
		UserID:          "u1",
		Classified:      classifiedWith(eth),
		MaxTier:         asset.TierAny,
		OwnedStrategies: map[string]bool{"spot_momentum_strategy": true},
		NotionalUSD:     1000,
	}
	opps := a.Scan(context.Background(), r, in)
	assert.Empty(t, opps)
}

func TestScanPortfolioLevelRunsOncePerScan(t *testing.T) {
	reg := NewDefaultRegistry()
	a, ok := reg.Get("risk_management")
	require.True(t, ok)

	r := testRouter(nil)
	in := Input{
		UserID:          "u1",
		OwnedStrategies: map[string]bool{"risk_management": true},
	}
	opps := a.Scan(context.Background(), r, in)
	require.Len(t, opps, 1)
	assert.Equal(t, "PORTFOLIO", opps[0].Symbol)
}

func TestNewDefaultRegistryHasFourteenScanners(t *testing.T) {
	reg := NewDefaultRegistry()
	assert.Len(t, reg.IDs(), 14)
}
