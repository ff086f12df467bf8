package orchestrator

import (
	"context"
	"time"

	"cryptoscan/opportunity"
)

// Fallback is the C11 degradation layer (spec.md §4.11): when the live
// pipeline cannot produce a response, it either replays the user's most
// recent cached snapshot or, failing that, returns a static
// risk_management-derived minimal set. It never returns an error itself.
type Fallback struct {
	cache   *opportunity.Cache
	metrics *ErrorMetrics
}

// NewFallback builds a Fallback over the C10 cache and the C11 error
// metrics recorder.
func NewFallback(cache *opportunity.Cache, metrics *ErrorMetrics) *Fallback {
	return &Fallback{cache: cache, metrics: metrics}
}

// Degrade builds a fallback envelope for userID/scanID (spec.md §4.11 steps
// 1-2) and records the failure (step 3). It always returns a structurally
// valid envelope, never an error.
func (f *Fallback) Degrade(ctx context.Context, userID, scanID string) opportunity.Envelope {
	if f.metrics != nil {
		f.metrics.RecordPipelineFailure(ctx, userID, scanID, "pipeline degraded to fallback", time.Now())
	}

	if env, ok := f.cachedFallback(ctx, userID); ok {
		env.ScanID = scanID
		env.Metadata = &opportunity.ResponseMetadata{
			ScanState:    opportunity.ScanStatePartial,
			FallbackUsed: true,
			Source:       "cached_fallback",
			Warning:      "live scan failed; showing your most recent cached opportunities",
		}
		return env
	}

	return f.basicFallback(userID, scanID)
}

// cachedFallback implements spec.md §4.11 step 1: scan the user's cache
// namespace for any recent entry and truncate its opportunities to 5. Among
// multiple matches, the most recently cached entry wins.
func (f *Fallback) cachedFallback(ctx context.Context, userID string) (opportunity.Envelope, bool) {
	if f.cache == nil {
		return opportunity.Envelope{}, false
	}
	keys, err := f.cache.ScanUserKeys(ctx, userID)
	if err != nil || len(keys) == 0 {
		return opportunity.Envelope{}, false
	}

	var best opportunity.CachedOpportunitySet
	found := false
	for _, key := range keys {
		set, ok := f.cache.GetAny(ctx, key)
		if !ok {
			continue
		}
		if !found || set.Metadata.CachedAt.After(best.Metadata.CachedAt) {
			best = set
			found = true
		}
	}
	if !found {
		return opportunity.Envelope{}, false
	}

	env := best.Payload
	if len(env.Opportunities) > 5 {
		env.Opportunities = env.Opportunities[:5]
	}
	env.TotalOpportunities = len(env.Opportunities)
	return env, true
}

// basicFallback implements spec.md §4.11 step 2: a minimal, statically
// constructed set of portfolio-protection hints from the risk_management
// strategy.
func (f *Fallback) basicFallback(userID, scanID string) opportunity.Envelope {
	now := time.Now().UTC()
	hint := opportunity.SerializedOpportunity{
		StrategyID:         "risk_management",
		StrategyName:       "Risk Management",
		OpportunityType:    "portfolio_protection",
		Symbol:             "PORTFOLIO",
		Exchange:           "",
		ProfitPotentialUSD: 0,
		ConfidenceScore:    0.5,
		RiskLevel:          opportunity.RiskLow,
		RequiredCapitalUSD: 0,
		EstimatedTimeframe: "ongoing",
		Metadata: map[string]any{
			"advice": "review open positions and stop-loss coverage while live scanning is unavailable",
		},
		DiscoveredAt: now.Format(time.RFC3339),
	}

	return opportunity.Envelope{
		Success:            true,
		ScanID:             scanID,
		UserID:             userID,
		Opportunities:      []opportunity.SerializedOpportunity{hint},
		TotalOpportunities: 1,
		SignalAnalysis: opportunity.SignalAnalysis{
			TotalSignalsAnalyzed: 1,
		},
		ThresholdTransparency: opportunity.ThresholdTransparency{
			Message:        "Live scanning is temporarily unavailable; showing basic portfolio guidance only.",
			Recommendation: "Retry shortly for a full opportunity scan.",
		},
		UserProfile:         opportunity.UserProfileSummary{},
		StrategyPerformance: map[string]opportunity.StrategyPerformance{},
		AssetDiscovery:      opportunity.AssetDiscoverySummary{},
		LastUpdated:         now.Format(time.RFC3339),
		Metadata: &opportunity.ResponseMetadata{
			ScanState:    opportunity.ScanStatePartial,
			FallbackUsed: true,
			Source:       "basic_fallback",
			Warning:      "live scan failed; showing minimal risk-management guidance",
		},
	}
}
