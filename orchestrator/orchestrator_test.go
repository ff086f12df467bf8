package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoscan/asset"
	"cryptoscan/cache"
	"cryptoscan/opportunity"
	"cryptoscan/portfolio"
	"cryptoscan/resilience"
	"cryptoscan/scanner"
	"cryptoscan/universe"
)

func TestStageTimeoutClampsToSixtySecondFloor(t *testing.T) {
	got := stageTimeout(61*time.Second, 120*time.Second)
	assert.Equal(t, 60*time.Second, got)
}

func TestStageTimeoutIsBoundedByWorkerBudget(t *testing.T) {
	got := stageTimeout(200*time.Second, 70*time.Second)
	assert.Equal(t, 65*time.Second, got)
}

func TestEmptyGuidanceEnvelopeReportsSuccessWithNoStrategies(t *testing.T) {
	o := &Orchestrator{}
	profile := portfolio.EmptyProfile("u1")
	env := o.emptyGuidanceEnvelope("scan-1", profile, time.Now(), false)

	assert.True(t, env.Success)
	assert.Equal(t, "u1", env.UserID)
	assert.Empty(t, env.Opportunities)
	require.NotNil(t, env.Metadata)
	assert.Equal(t, opportunity.ScanStateComplete, env.Metadata.ScanState)
}

func TestNoAssetsEnvelopeReportsFailure(t *testing.T) {
	o := &Orchestrator{}
	profile := portfolio.EmptyProfile("u1")
	env := o.noAssetsEnvelope("scan-2", profile, time.Now())

	assert.False(t, env.Success)
	assert.Equal(t, "No tradeable assets found", env.Error)
}

func TestRecommendationsSuggestsTierUpgradeForBasicUsers(t *testing.T) {
	catalog := portfolio.NewDefaultCatalog()
	svc := portfolio.NewService(catalog, nil, nil)
	o := &Orchestrator{portfolioSvc: svc}

	profile := portfolio.Profile{UserTier: portfolio.UserTierBasic}
	recs := o.recommendations(profile, 3)

	require.NotEmpty(t, recs)
	found := false
	for _, r := range recs {
		if r.StrategyID == "tier_upgrade" {
			found = true
		}
	}
	assert.True(t, found, "expected a tier_upgrade recommendation for a basic-tier user with few results")
}

func TestRecommendationsAreEmptyWhenResultsAreAbundant(t *testing.T) {
	catalog := portfolio.NewDefaultCatalog()
	svc := portfolio.NewService(catalog, nil, nil)
	o := &Orchestrator{portfolioSvc: svc}

	profile := portfolio.Profile{UserTier: portfolio.UserTierEnterprise}
	recs := o.recommendations(profile, 25)
	assert.Nil(t, recs)
}

func newTestOppCache() *opportunity.Cache {
	ttl := cache.NewTTLCache(cache.NewMemoryStore())
	return opportunity.NewCache(ttl, 15*time.Minute, 2*time.Minute, time.Hour, time.Hour)
}

func TestFallbackDegradeReturnsCachedSnapshotTruncatedToFive(t *testing.T) {
	oppCache := newTestOppCache()
	metrics := NewErrorMetrics(cache.NewMemoryStore())
	fb := NewFallback(oppCache, metrics)

	opps := make([]opportunity.SerializedOpportunity, 8)
	for i := range opps {
		opps[i] = opportunity.SerializedOpportunity{Symbol: "SYM"}
	}
	env := opportunity.Envelope{
		Success:            true,
		UserID:             "u1",
		Opportunities:      opps,
		TotalOpportunities: len(opps),
		UserProfile:        opportunity.UserProfileSummary{UserTier: "pro"},
	}
	key := opportunity.Key("u1", "pro", 3)
	require.NoError(t, oppCache.Set(context.Background(), key, env, "fp-old"))

	degraded := fb.Degrade(context.Background(), "u1", "scan-x")

	assert.Len(t, degraded.Opportunities, 5)
	assert.Equal(t, 5, degraded.TotalOpportunities)
	require.NotNil(t, degraded.Metadata)
	assert.True(t, degraded.Metadata.FallbackUsed)
	assert.Equal(t, "cached_fallback", degraded.Metadata.Source)
	assert.Equal(t, "scan-x", degraded.ScanID)
}

func TestFallbackDegradeReturnsBasicFallbackWhenNoCacheEntryExists(t *testing.T) {
	oppCache := newTestOppCache()
	metrics := NewErrorMetrics(cache.NewMemoryStore())
	fb := NewFallback(oppCache, metrics)

	env := fb.Degrade(context.Background(), "nobody", "scan-y")

	assert.True(t, env.Success)
	require.Len(t, env.Opportunities, 1)
	assert.Equal(t, "risk_management", env.Opportunities[0].StrategyID)
	require.NotNil(t, env.Metadata)
	assert.Equal(t, "basic_fallback", env.Metadata.Source)
	assert.True(t, env.Metadata.FallbackUsed)
}

func TestFallbackDegradeRecordsErrorMetrics(t *testing.T) {
	store := cache.NewMemoryStore()
	oppCache := newTestOppCache()
	metrics := NewErrorMetrics(store)
	fb := NewFallback(oppCache, metrics)

	fb.Degrade(context.Background(), "u2", "scan-z")

	val, ok, err := store.Get(context.Background(), perUserErrorKey("u2"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", val)
}

// staticPortfolioReader always answers GetUserPortfolio with a fixed Result,
// standing in for the external C6 collaborator in end-to-end orchestrator
// tests (spec.md §8 seed scenarios 1 and 2).
type staticPortfolioReader struct {
	result portfolio.Result
}

func (r staticPortfolioReader) GetUserPortfolio(_ context.Context, _ string) (portfolio.Result, error) {
	return r.result, nil
}

// universeCacheKey mirrors universe.Cache's unexported §4.4 key format
// (enterprise_assets:{min_tier}:{sorted_exchange_ids_joined}) so tests in
// this package can pre-seed a cache hit without a live exchange fetch.
func universeCacheKey(minTier asset.Tier, exchangeIDs []string) string {
	sorted := append([]string(nil), exchangeIDs...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	return fmt.Sprintf("enterprise_assets:%s:%s", minTier, strings.Join(sorted, ","))
}

// TestDiscoverBasicUserEmptyPortfolioRecommendsDefaultFreeStrategies covers
// spec.md §8 seed scenario 1: a basic-tier user with zero active strategies
// gets zero opportunities but at least the three onboarding-default free
// strategies surfaced as recommendations.
func TestDiscoverBasicUserEmptyPortfolioRecommendsDefaultFreeStrategies(t *testing.T) {
	catalog := portfolio.NewDefaultCatalog()
	reader := staticPortfolioReader{result: portfolio.Result{Success: true}}
	svc := portfolio.NewService(catalog, reader, nil)
	breaker := resilience.New[portfolio.Result](3, 60*time.Second)
	oppCache := newTestOppCache()
	metrics := NewErrorMetrics(cache.NewMemoryStore())

	orch := New(svc, breaker, nil, nil, cache.NewTTLCache(cache.NewMemoryStore()), nil, oppCache, metrics, 3, 45*time.Second)

	env := orch.Discover(context.Background(), Params{UserID: "basic-user", IncludeRecommendations: true})

	assert.True(t, env.Success)
	assert.Equal(t, 0, env.TotalOpportunities)
	assert.Equal(t, 0, env.UserProfile.ActiveStrategyCount)

	found := map[string]bool{}
	for _, rec := range env.StrategyRecommendations {
		found[rec.StrategyID] = true
	}
	for _, id := range portfolio.DefaultFreeStrategyIDs {
		assert.True(t, found[id], "expected %s among strategy_recommendations", id)
	}
}

// TestDiscoverEnterpriseUserFourteenStrategiesOnePerScanner covers spec.md
// §8 seed scenario 2: an enterprise user with one active strategy per C8
// scanner, scanning a one-asset universe, gets back exactly fourteen
// opportunities, one per strategy, with distinct strategy IDs.
func TestDiscoverEnterpriseUserFourteenStrategiesOnePerScanner(t *testing.T) {
	scannerIDs := scanner.NewDefaultRegistry().IDs()
	require.Len(t, scannerIDs, 14)

	active := make([]portfolio.ActiveStrategy, 0, len(scannerIDs))
	for _, id := range scannerIDs {
		active = append(active, portfolio.ActiveStrategy{StrategyID: id, Name: id, MonthlyCost: 30})
	}
	reader := staticPortfolioReader{result: portfolio.Result{
		Success:          true,
		ActiveStrategies: active,
		TotalMonthlyCost: 500, // >=300 alongside >=10 strategies derives enterprise tier (spec.md §3)
	}}
	catalog := portfolio.NewDefaultCatalog()
	svc := portfolio.NewService(catalog, reader, nil)
	breaker := resilience.New[portfolio.Result](3, 60*time.Second)

	// Enterprise users' max_asset_tier is institutional (spec.md §4.5), so
	// the single test asset is volume-qualified for that tier rather than
	// spec.md §8's illustrative $2M/retail figure, which would be filtered
	// out by the institutional-priority ceiling before any scanner saw it.
	testAsset := asset.Asset{
		Symbol:       "BTC",
		Quote:        "USDT",
		Exchange:     "binance",
		PriceUSD:     50000,
		Volume24hUSD: 150_000_000,
		Tier:         asset.TierInstitutional,
		Metadata:     map[string]any{"change_pct_24h": 5.0},
	}
	classified := map[asset.Tier][]asset.Asset{asset.TierInstitutional: {testAsset}}

	universeTTL := cache.NewTTLCache(cache.NewMemoryStore())
	key := universeCacheKey(asset.TierInstitutional, []string{"binance"})
	require.NoError(t, universeTTL.SetJSON(context.Background(), key,
		universe.Snapshot{Buckets: classified, Timestamp: time.Now()}, time.Hour))
	universeCache := universe.NewCache(universeTTL, nil, nil, time.Hour, time.Hour)
	resolver := universe.NewResolver(nil, cache.NewTTLCache(cache.NewMemoryStore()), 15*time.Minute, nil)

	oppCache := newTestOppCache()
	metrics := NewErrorMetrics(cache.NewMemoryStore())
	priceStore := cache.NewTTLCache(cache.NewMemoryStore())
	scanners := scanner.NewDefaultRegistry()

	orch := New(svc, breaker, universeCache, resolver, priceStore, scanners, oppCache, metrics, 3, 45*time.Second)

	env := orch.Discover(context.Background(), Params{
		UserID:             "enterprise-user",
		RequestedExchanges: []string{"binance"},
		RequestedSymbols:   []string{"BTCUSDT"},
	})

	require.True(t, env.Success)
	require.Equal(t, 14, env.TotalOpportunities)

	seen := map[string]bool{}
	for _, opp := range env.Opportunities {
		assert.False(t, seen[opp.StrategyID], "duplicate strategy_id %s in result set", opp.StrategyID)
		seen[opp.StrategyID] = true
	}
	assert.Len(t, seen, 14)
}
