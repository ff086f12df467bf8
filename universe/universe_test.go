package universe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoscan/asset"
	"cryptoscan/cache"
	"cryptoscan/store"
)

type fakeAccounts struct {
	byUser map[string][]store.ExchangeAccount
	err    error
}

func (f *fakeAccounts) ListActiveByUser(userID string) ([]store.ExchangeAccount, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byUser[userID], nil
}

func newResolver(accounts AccountLister) *Resolver {
	return NewResolver(accounts, cache.NewTTLCache(cache.NewMemoryStore()), time.Minute, []string{"binance", "kraken", "kucoin"})
}

func TestGetUserExchangesRequestedWins(t *testing.T) {
	r := newResolver(&fakeAccounts{})
	got := r.GetUserExchanges(context.Background(), "u1", []string{"bybit", "bybit", "okx"}, nil)
	assert.Equal(t, []string{"bybit", "okx"}, got)
}

func TestGetUserExchangesFallsBackToAccounts(t *testing.T) {
	accounts := &fakeAccounts{byUser: map[string][]store.ExchangeAccount{
		"u1": {{ExchangeName: "Binance"}, {ExchangeName: "Kraken"}},
	}}
	r := newResolver(accounts)
	got := r.GetUserExchanges(context.Background(), "u1", nil, nil)
	assert.ElementsMatch(t, []string{"binance", "kraken"}, got)
}

func TestGetUserExchangesFallsBackToPlatformDefaults(t *testing.T) {
	r := newResolver(&fakeAccounts{})
	got := r.GetUserExchanges(context.Background(), "u1", nil, nil)
	assert.Equal(t, []string{"binance", "kraken", "kucoin"}, got)
}

func TestGetUserExchangesFallsBackToCallerDefaultsBeforePlatform(t *testing.T) {
	r := newResolver(&fakeAccounts{})
	got := r.GetUserExchanges(context.Background(), "u1", nil, []string{"bybit"})
	assert.Equal(t, []string{"bybit"}, got)
}

func sampleClassified() map[asset.Tier][]asset.Asset {
	return asset.Classify(map[string]asset.Asset{
		"BTC": {Symbol: "BTC", Exchange: "binance", PriceUSD: 50000, Volume24hUSD: 2_000_000},
		"ETH": {Symbol: "ETH", Exchange: "binance", PriceUSD: 3000, Volume24hUSD: 1_500_000},
	})
}

func TestGetSymbolUniverseRequestedWinsAndTruncates(t *testing.T) {
	r := newResolver(&fakeAccounts{})
	got := r.GetSymbolUniverse(context.Background(), "u1", []string{"A", "B", "C"}, nil, sampleClassified(), asset.TierRetail, 2)
	assert.Equal(t, []string{"A", "B"}, got)
}

func TestGetSymbolUniverseRanksAllowedSymbolsByVolume(t *testing.T) {
	accounts := &fakeAccounts{byUser: map[string][]store.ExchangeAccount{
		"u1": {{ExchangeName: "binance", AllowedSymbols: "ETH,BTC"}},
	}}
	r := newResolver(accounts)
	got := r.GetSymbolUniverse(context.Background(), "u1", nil, []string{"binance"}, sampleClassified(), asset.TierRetail, 10)
	require.Len(t, got, 2)
	assert.Equal(t, "BTC", got[0]) // higher volume first
}

func TestGetSymbolUniverseFallsBackToTopNWhenNoAllowedSymbols(t *testing.T) {
	r := newResolver(&fakeAccounts{})
	got := r.GetSymbolUniverse(context.Background(), "u1", nil, []string{"binance"}, sampleClassified(), asset.TierRetail, 1)
	require.Len(t, got, 1)
	assert.Equal(t, "BTC", got[0])
}
