// Package orchestrator implements the Opportunity Orchestrator (C9) and the
// Fallback/Degradation Layer (C11): the end-to-end
// discover_opportunities_for_user pipeline (spec.md §4.9) grounded on the
// teacher's TraderManager (`manager/trader_manager.go`), which fans work out
// across per-exchange traders under a bounded worker pool and degrades
// gracefully when one trader misbehaves.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"cryptoscan/asset"
	"cryptoscan/cache"
	"cryptoscan/logger"
	"cryptoscan/opportunity"
	"cryptoscan/portfolio"
	"cryptoscan/resilience"
	"cryptoscan/router"
	"cryptoscan/scanner"
	"cryptoscan/universe"
)

// Params is one discover_opportunities_for_user call (spec.md §4.9).
type Params struct {
	UserID                 string
	ForceRefresh           bool
	IncludeRecommendations bool
	RequestedExchanges     []string
	RequestedSymbols       []string
}

// Orchestrator wires every C1-C8/C10 component into the C9 pipeline.
type Orchestrator struct {
	portfolioSvc  *portfolio.Service
	breaker       *resilience.Breaker[portfolio.Result]
	universeCache *universe.Cache
	resolver      *universe.Resolver
	priceStore    *cache.TTLCache
	scanners      *scanner.Registry
	oppCache      *opportunity.Cache
	errorMetrics  *ErrorMetrics
	fallback      *Fallback

	scannerSemaphore      int
	portfolioFetchTimeout time.Duration
	priceTTL              time.Duration
	priceWarmCount        int
	priceWarmConcurrency  int
	notionalUSD           float64
	pipelineBudget        time.Duration
	workerBudget          time.Duration
}

// New builds an Orchestrator from its component collaborators. Every
// timing/concurrency argument comes from config (spec.md §6). priceStore
// backs a fresh router.PriceService built for each scan, wired to that
// scan's own discovered universe (spec.md §9 "no synthetic prices").
func New(
	portfolioSvc *portfolio.Service,
	breaker *resilience.Breaker[portfolio.Result],
	universeCache *universe.Cache,
	resolver *universe.Resolver,
	priceStore *cache.TTLCache,
	scanners *scanner.Registry,
	oppCache *opportunity.Cache,
	errorMetrics *ErrorMetrics,
	scannerSemaphore int,
	portfolioFetchTimeout time.Duration,
) *Orchestrator {
	o := &Orchestrator{
		portfolioSvc:          portfolioSvc,
		breaker:               breaker,
		universeCache:         universeCache,
		resolver:              resolver,
		priceStore:            priceStore,
		scanners:              scanners,
		oppCache:              oppCache,
		errorMetrics:          errorMetrics,
		scannerSemaphore:      scannerSemaphore,
		portfolioFetchTimeout: portfolioFetchTimeout,
		priceTTL:              60 * time.Second,
		priceWarmCount:        50,
		priceWarmConcurrency:  50,
		notionalUSD:           1000,
		pipelineBudget:        90 * time.Second,
		workerBudget:          80 * time.Second,
	}
	o.fallback = NewFallback(oppCache, errorMetrics)
	return o
}

// stageTimeout computes the per-scanner stage budget (spec.md §4.9 step 6):
// min(max(total_budget-5s, 60s), worker_budget-5s).
func stageTimeout(totalBudget, workerBudget time.Duration) time.Duration {
	a := totalBudget - 5*time.Second
	if a < 60*time.Second {
		a = 60 * time.Second
	}
	b := workerBudget - 5*time.Second
	if a < b {
		return a
	}
	return b
}

// Discover runs the full C9 pipeline. It never returns an error: every
// failure mode produces a degraded Envelope instead (spec.md §9 "exceptions
// become data at every boundary").
func (o *Orchestrator) Discover(ctx context.Context, p Params) (env opportunity.Envelope) {
	scanID := uuid.New().String()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("orchestrator: panic in scan %s for user %s: %v", scanID, p.UserID, r)
			if o.errorMetrics != nil {
				o.errorMetrics.RecordPipelineFailure(ctx, p.UserID, scanID, fmt.Sprintf("panic: %v", r), time.Now())
			}
			env = o.fallback.Degrade(ctx, p.UserID, scanID)
		}
	}()

	profile := o.resolveProfile(ctx, p.UserID)

	cacheKey := opportunity.Key(p.UserID, string(profile.UserTier), profile.ActiveStrategyCount)
	if !p.ForceRefresh {
		if cached, hit := o.oppCache.Get(ctx, cacheKey, profile.StrategyFingerprint); hit {
			return cached.Payload
		}
	}

	if profile.ActiveStrategyCount == 0 {
		return o.emptyGuidanceEnvelope(scanID, profile, start, p.IncludeRecommendations)
	}

	exchangeIDs := o.resolver.GetUserExchanges(ctx, p.UserID, p.RequestedExchanges, nil)
	classified, err := o.universeCache.Discover(ctx, profile.MaxAssetTier, exchangeIDs, p.ForceRefresh)
	if err != nil {
		logger.Warnf("orchestrator: universe discovery failed for %s: %v", p.UserID, err)
	}
	if len(asset.Flatten(classified)) == 0 {
		return o.noAssetsEnvelope(scanID, profile, start)
	}

	symbols := o.resolver.GetSymbolUniverse(ctx, p.UserID, p.RequestedSymbols, exchangeIDs, classified, profile.MaxAssetTier, profile.OpportunityScanLimit)

	prices := router.NewPriceService(newUniverseSource(classified), o.priceStore, o.priceTTL)
	scopedRouter := router.NewDefaultRouter(prices)
	o.preloadPrices(ctx, prices, classified)

	opportunities, perStrategy := o.runScanners(ctx, scopedRouter, profile, classified)
	ranked := opportunity.Rank(opportunities, profile.OpportunityScanLimit)

	env = o.buildEnvelope(scanID, p.UserID, profile, ranked, perStrategy, classified, symbols, start, p.IncludeRecommendations)

	if err := o.oppCache.Set(ctx, cacheKey, env, profile.StrategyFingerprint); err != nil {
		logger.Warnf("orchestrator: cache write failed for %s: %v", p.UserID, err)
	}
	return env
}

// resolveProfile runs C6 behind the C5-style circuit breaker (spec.md §4.9
// step 2, §5). The breaker's own last-known-good cache satisfies "while
// open, return last-known cached portfolio"; a hard failure with no prior
// success yields the basic-tier empty shell.
func (o *Orchestrator) resolveProfile(ctx context.Context, userID string) portfolio.Profile {
	result, _, err := o.breaker.Execute(ctx, func(fnCtx context.Context) (portfolio.Result, error) {
		fetchCtx, cancel := context.WithTimeout(fnCtx, o.portfolioFetchTimeout)
		defer cancel()
		return o.portfolioSvc.GetUserPortfolio(fetchCtx, userID)
	}, portfolio.Result{})
	if err != nil {
		logger.Warnf("orchestrator: portfolio fetch failed for %s: %v", userID, err)
		return portfolio.EmptyProfile(userID)
	}
	return portfolio.BuildProfile(userID, result)
}

// preloadPrices warms the shared price cache for the top symbols across the
// discovered universe (spec.md §4.9 step 5).
func (o *Orchestrator) preloadPrices(ctx context.Context, prices *router.PriceService, classified map[asset.Tier][]asset.Asset) {
	top := asset.TopN(classified, o.priceWarmCount)
	pairs := make([]struct{ Exchange, Symbol string }, 0, len(top))
	for _, a := range top {
		pairs = append(pairs, struct{ Exchange, Symbol string }{Exchange: a.Exchange, Symbol: a.Symbol + a.Quote})
	}
	prices.Preload(ctx, pairs, o.priceWarmConcurrency)
}

// runScanners fans a task out per active strategy under the global scanner
// semaphore (spec.md §4.9 step 6). Per-task failures are logged, never
// propagated.
func (o *Orchestrator) runScanners(ctx context.Context, r *router.Router, profile portfolio.Profile, classified map[asset.Tier][]asset.Asset) ([]opportunity.Opportunity, map[string][]opportunity.Opportunity) {
	owned := make(map[string]bool, len(profile.ActiveStrategies))
	for _, s := range profile.ActiveStrategies {
		owned[s.StrategyID] = true
	}

	timeout := stageTimeout(o.pipelineBudget, o.workerBudget)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.scannerSemaphore)

	var mu sync.Mutex
	all := make([]opportunity.Opportunity, 0)
	perStrategy := make(map[string][]opportunity.Opportunity)

	for strategyID := range owned {
		strategyID := strategyID
		adapter, ok := o.scanners.Get(strategyID)
		if !ok {
			continue
		}
		g.Go(func() error {
			stageCtx, cancel := context.WithTimeout(gctx, timeout)
			defer cancel()
			in := scanner.Input{
				UserID:          profile.UserID,
				Classified:      classified,
				MaxTier:         profile.MaxAssetTier,
				OwnedStrategies: owned,
				NotionalUSD:     o.notionalUSD,
			}
			opps := adapter.Scan(stageCtx, r, in)
			mu.Lock()
			all = append(all, opps...)
			perStrategy[strategyID] = opps
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return all, perStrategy
}

func (o *Orchestrator) emptyGuidanceEnvelope(scanID string, profile portfolio.Profile, start time.Time, includeRecommendations bool) opportunity.Envelope {
	var recs []opportunity.StrategyRecommendation
	if includeRecommendations {
		recs = o.recommendations(profile, 0)
	}
	return opportunity.Envelope{
		Success:                 true,
		ScanID:                  scanID,
		UserID:                  profile.UserID,
		Opportunities:           []opportunity.SerializedOpportunity{},
		TotalOpportunities:      0,
		UserProfile:             userProfileSummary(profile),
		StrategyRecommendations: recs,
		ExecutionTimeMs:         float64(time.Since(start).Milliseconds()),
		LastUpdated:             time.Now().UTC().Format(time.RFC3339),
		Metadata: &opportunity.ResponseMetadata{
			ScanState: opportunity.ScanStateComplete,
			Warning:   "no active strategies; onboarding defaults were provisioned if available",
		},
	}
}

func (o *Orchestrator) noAssetsEnvelope(scanID string, profile portfolio.Profile, start time.Time) opportunity.Envelope {
	return opportunity.Envelope{
		Success:            false,
		ScanID:             scanID,
		UserID:             profile.UserID,
		Error:              "No tradeable assets found",
		Opportunities:      []opportunity.SerializedOpportunity{},
		TotalOpportunities: 0,
		UserProfile:        userProfileSummary(profile),
		ExecutionTimeMs:    float64(time.Since(start).Milliseconds()),
		LastUpdated:        time.Now().UTC().Format(time.RFC3339),
	}
}

func (o *Orchestrator) buildEnvelope(
	scanID, userID string,
	profile portfolio.Profile,
	ranked []opportunity.Opportunity,
	perStrategy map[string][]opportunity.Opportunity,
	classified map[asset.Tier][]asset.Asset,
	symbols []string,
	start time.Time,
	includeRecommendations bool,
) opportunity.Envelope {
	serialized := make([]opportunity.SerializedOpportunity, len(ranked))
	for i, o2 := range ranked {
		serialized[i] = opportunity.Serialize(o2)
	}

	signalAnalysis := opportunity.BuildSignalAnalysis(ranked, 6.0)
	transparency := opportunity.BuildThresholdTransparency(signalAnalysis)

	perf := make(map[string]opportunity.StrategyPerformance, len(perStrategy))
	for id, opps := range perStrategy {
		var total, confSum float64
		for _, opp := range opps {
			total += opp.ProfitPotentialUSD
			confSum += opp.ConfidenceScore
		}
		avg := 0.0
		if len(opps) > 0 {
			avg = confSum / float64(len(opps))
		}
		perf[id] = opportunity.StrategyPerformance{Count: len(opps), TotalPotential: total, AvgConfidence: avg}
	}

	tiers := make([]string, 0, len(asset.AllTiers()))
	for _, t := range asset.AllTiers() {
		if len(classified[t]) > 0 {
			tiers = append(tiers, string(t))
		}
	}

	var recommendations []opportunity.StrategyRecommendation
	if includeRecommendations {
		recommendations = o.recommendations(profile, len(ranked))
	}

	env := opportunity.Envelope{
		Success:                true,
		ScanID:                 scanID,
		UserID:                 userID,
		Opportunities:          serialized,
		TotalOpportunities:     len(serialized),
		SignalAnalysis:         signalAnalysis,
		ThresholdTransparency:  transparency,
		UserProfile:            userProfileSummary(profile),
		StrategyPerformance:    perf,
		AssetDiscovery: opportunity.AssetDiscoverySummary{
			TotalAssetsScanned: len(symbols),
			AssetTiers:         tiers,
			MaxTierAccessed:    string(profile.MaxAssetTier),
		},
		StrategyRecommendations: recommendations,
		ExecutionTimeMs:         float64(time.Since(start).Milliseconds()),
		LastUpdated:             time.Now().UTC().Format(time.RFC3339),
		Metadata: &opportunity.ResponseMetadata{
			ScanState: opportunity.ScanStateComplete,
		},
	}
	return env
}

// recommendations suggests up to three strategies the user doesn't own, and
// a tier upgrade if the user is basic, when fewer than 10 opportunities were
// found (spec.md §4.9 step 8).
func (o *Orchestrator) recommendations(profile portfolio.Profile, resultCount int) []opportunity.StrategyRecommendation {
	if resultCount >= 10 {
		return nil
	}
	owned := make(map[string]bool, len(profile.ActiveStrategies))
	for _, s := range profile.ActiveStrategies {
		owned[s.StrategyID] = true
	}

	var recs []opportunity.StrategyRecommendation
	catalog := o.portfolioSvc.Catalog().All()

	rest := make([]string, 0, len(catalog))
	for id := range catalog {
		rest = append(rest, id)
	}
	sort.Strings(rest)

	// Default free strategies lead the list (spec.md §4.6's onboarding set is
	// the most useful recommendation a strategy-less or light user can get),
	// followed by the remaining catalog in stable alphabetical order.
	seen := make(map[string]bool, len(catalog))
	ids := make([]string, 0, len(catalog))
	for _, id := range portfolio.DefaultFreeStrategyIDs {
		if _, ok := catalog[id]; ok && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, id := range rest {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	for _, id := range ids {
		if owned[id] {
			continue
		}
		meta := catalog[id]
		recs = append(recs, opportunity.StrategyRecommendation{
			StrategyID: id,
			Name:       meta.Name,
			Benefit:    "surfaces additional opportunity types",
			Reason:     "not yet active for this user",
			Type:       "strategy",
		})
		if len(recs) == 3 {
			break
		}
	}
	if profile.UserTier == portfolio.UserTierBasic {
		recs = append(recs, opportunity.StrategyRecommendation{
			StrategyID: "tier_upgrade",
			Name:       "Upgrade to Pro",
			Benefit:    "raises asset tier ceiling and scan limit",
			Reason:     "current tier is basic",
			Type:       "tier_upgrade",
		})
	}
	return recs
}

func userProfileSummary(profile portfolio.Profile) opportunity.UserProfileSummary {
	return opportunity.UserProfileSummary{
		ActiveStrategies:    profile.ActiveStrategyCount,
		ActiveStrategyCount: profile.ActiveStrategyCount,
		UserTier:            string(profile.UserTier),
		MonthlyStrategyCost: profile.TotalMonthlyStrategyCost,
		ScanLimit:           profile.OpportunityScanLimit,
		StrategyFingerprint: profile.StrategyFingerprint,
	}
}
