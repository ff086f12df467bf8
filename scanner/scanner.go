// Package scanner implements the C8 Strategy Scanners: fourteen adapters,
// one per user-visible strategy, sharing the common scan template spec.md
// §4.8 describes. Each adapter is grounded on the teacher's per-exchange
// Trader adapter pattern (`trader/*_trader.go`, one struct per concrete
// implementation of a shared interface) and on `debate/engine.go`'s bounded
// concurrent fan-out.
package scanner

import (
	"context"
	"sort"

	"golang.org/x/sync/semaphore"

	"cryptoscan/asset"
	"cryptoscan/logger"
	"cryptoscan/opportunity"
	"cryptoscan/router"
)

// Input is the per-scan context every adapter needs: the resolved universe,
// the exchanges in play, and which strategies the user owns (spec.md §4.8
// step 1 "verify ownership").
type Input struct {
	UserID          string
	Exchanges       []string
	Classified      map[asset.Tier][]asset.Asset
	MaxTier         asset.Tier
	OwnedStrategies map[string]bool
	NotionalUSD     float64 // capital assumed per position for trade-plan enrichment
}

// thresholds gates which raw signal values produce a low/medium/high
// quality_tier opportunity, or none at all (spec.md §4.8 step 4 and the
// "Inclusion thresholds" table). All three are expressed on the same scale
// as the router backend's Signal.Strength for that function.
type thresholds struct {
	min, consider, strong float64
}

// Adapter is one C8 scanner: a strategy_id, the router function it drives,
// its symbol-policy limits, its concurrency budget, and its signal
// thresholds (spec.md §4.8).
type Adapter struct {
	StrategyID   string
	StrategyName string
	Function     string
	MaxSymbols   int
	Concurrency  int64
	Thresholds   thresholds
	PerSymbol    bool // false for risk_management/portfolio_optimization (spec.md §4.8 "special")
}

// Scan runs the adapter's template against in and returns every qualifying
// Opportunity (spec.md §4.8 steps 1-6). A user who does not own the
// strategy gets an empty result, never an error.
func (a Adapter) Scan(ctx context.Context, r *router.Router, in Input) []opportunity.Opportunity {
	if !in.OwnedStrategies[a.StrategyID] {
		return nil
	}
	if !a.PerSymbol {
		return a.scanPortfolioLevel(ctx, r, in)
	}
	return a.scanPerSymbol(ctx, r, in)
}

// symbolSet derives the scan's symbol set (spec.md §4.8 step 2): top-N by
// 24h volume among assets at or above MaxTier, across every exchange in
// play.
func (a Adapter) symbolSet(in Input) []candidateSymbol {
	filtered := asset.FilterByMinTier(in.Classified, in.MaxTier)
	top := asset.TopN(filtered, a.MaxSymbols)
	out := make([]candidateSymbol, 0, len(top))
	for _, as := range top {
		out = append(out, candidateSymbol{symbol: as.Symbol + as.Quote, exchange: as.Exchange, asset: as})
	}
	return out
}

type candidateSymbol struct {
	symbol   string
	exchange string
	asset    asset.Asset
}

// scanPerSymbol fans out execute_strategy across the adapter's symbol set
// under a bounded semaphore (spec.md §4.8 step 3).
func (a Adapter) scanPerSymbol(ctx context.Context, r *router.Router, in Input) []opportunity.Opportunity {
	symbols := a.symbolSet(in)
	if len(symbols) == 0 {
		return nil
	}

	concurrency := a.Concurrency
	if concurrency <= 0 {
		concurrency = 3
	}
	sem := semaphore.NewWeighted(concurrency)

	results := make([]*opportunity.Opportunity, len(symbols))
	done := make(chan struct{}, len(symbols))

	for i, cand := range symbols {
		i, cand := i, cand
		if err := sem.Acquire(ctx, 1); err != nil {
			logger.Warnf("scanner %s: acquire failed for %s: %v", a.StrategyID, cand.symbol, err)
			done <- struct{}{}
			continue
		}
		go func() {
			defer sem.Release(1)
			defer func() { done <- struct{}{} }()
			opp := a.evaluateSymbol(ctx, r, in, cand)
			results[i] = opp
		}()
	}
	for range symbols {
		<-done
	}

	out := make([]opportunity.Opportunity, 0, len(symbols))
	for _, opp := range results {
		if opp != nil {
			out = append(out, *opp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ProfitPotentialUSD > out[j].ProfitPotentialUSD })
	return out
}

// evaluateSymbol runs one execute_strategy call plus extraction/enrichment
// (spec.md §4.8 steps 3-5). It returns nil when the backend failed, no
// signal was present, or the signal did not meet the minimum inclusion
// threshold.
func (a Adapter) evaluateSymbol(ctx context.Context, r *router.Router, in Input, cand candidateSymbol) *opportunity.Opportunity {
	req := router.Request{
		Function: a.Function,
		Symbol:   cand.symbol,
		Exchange: cand.exchange,
		UserID:   in.UserID,
		Parameters: map[string]any{
			"strategy_id": a.StrategyID,
		},
	}
	result := r.Execute(ctx, req)
	if !result.Success || result.Signal == nil {
		if !result.Success {
			logger.Warnf("scanner %s: execute_strategy(%s) failed for %s/%s: %s", a.StrategyID, a.Function, cand.exchange, cand.symbol, result.Error)
		}
		return nil
	}

	tier := opportunity.QualityTier(result.Signal.Strength, a.Thresholds.strong, a.Thresholds.consider, a.Thresholds.min)
	if tier == "" {
		return nil
	}

	confidence := opportunity.ConfidenceFromSignal(result.Signal.Strength, result.Signal.Confidence)
	riskLevel := opportunity.RiskLevelForStrength(result.Signal.Strength)

	entry := cand.asset.PriceUSD
	if result.Indicators != nil {
		entry = result.Indicators.PriceSnapshot.Current
	}

	side := opportunity.SideLong
	if result.Signal.Action == router.ActionSell {
		side = opportunity.SideShort
	}

	notional := in.NotionalUSD
	if notional <= 0 {
		notional = 1000
	}

	opp := opportunity.Opportunity{
		StrategyID:         a.StrategyID,
		StrategyName:       a.StrategyName,
		OpportunityType:    a.Function,
		Symbol:             cand.symbol,
		Exchange:           cand.exchange,
		ConfidenceScore:    confidence,
		RiskLevel:          riskLevel,
		RequiredCapitalUSD: notional,
		EstimatedTimeframe: "short_term",
		Metadata: map[string]any{
			"quality_tier":     tier,
			"signal_strength":  result.Signal.Strength,
			"signal_action":    string(result.Signal.Action),
		},
	}

	if result.RiskManagement != nil {
		applyBackendRiskManagement(&opp, result.RiskManagement)
	} else if entry > 0 {
		plan := opportunity.EnrichTradePlan(entry, notional, side)
		plan.Apply(&opp)
		opp.ProfitPotentialUSD = plan.PotentialProfit
	}
	if opp.ProfitPotentialUSD == 0 && opp.TakeProfit != nil && opp.EntryPrice != nil {
		opp.ProfitPotentialUSD = notional / *opp.EntryPrice * absFloat(*opp.TakeProfit-*opp.EntryPrice)
	}

	return &opp
}

// scanPortfolioLevel invokes the adapter's backend exactly once, not
// per-symbol (spec.md §4.8 "Risk-management and portfolio-optimization
// scanners are special").
func (a Adapter) scanPortfolioLevel(ctx context.Context, r *router.Router, in Input) []opportunity.Opportunity {
	req := router.Request{Function: a.Function, UserID: in.UserID}
	result := r.Execute(ctx, req)
	if !result.Success {
		logger.Warnf("scanner %s: portfolio-level execute_strategy(%s) failed: %s", a.StrategyID, a.Function, result.Error)
		return nil
	}

	opp := opportunity.Opportunity{
		StrategyID:         a.StrategyID,
		StrategyName:       a.StrategyName,
		OpportunityType:    a.Function,
		Symbol:             "PORTFOLIO",
		ConfidenceScore:    75,
		RiskLevel:          opportunity.RiskMedium,
		EstimatedTimeframe: "ongoing",
		Metadata:           map[string]any{},
	}
	if result.RiskManagement != nil {
		applyBackendRiskManagement(&opp, result.RiskManagement)
	}
	for k, v := range result.Analysis {
		opp.Metadata[k] = v
	}
	return []opportunity.Opportunity{opp}
}

// applyBackendRiskManagement copies a backend-supplied risk_management
// payload onto opp (spec.md §4.7: "otherwise the orchestrator's enrichment
// step infers them" implies a backend-supplied payload always wins).
func applyBackendRiskManagement(opp *opportunity.Opportunity, rm *router.RiskManagement) {
	sl, tp := rm.StopLossPrice, rm.TakeProfitPrice
	opp.StopLoss = &sl
	opp.TakeProfit = &tp
	opp.ProfitPotentialUSD = rm.PotentialProfit
	opp.RequiredCapitalUSD = rm.PositionNotional
	if opp.Metadata == nil {
		opp.Metadata = map[string]any{}
	}
	opp.Metadata["risk_reward_ratio"] = rm.RiskRewardRatio
	opp.Metadata["max_risk_percent"] = rm.MaxRiskPercent
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
