package router

import (
	"context"
	"fmt"
	"math"
)

// clamp bounds v to [lo,hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// quoteOrAbsent fetches the shared price quote for req, returning an error
// when none is available. Per spec.md §9 Open Questions, a missing quote
// must produce an empty contribution, never a fabricated price.
func (r *Router) quoteOrAbsent(ctx context.Context, req Request) (Quote, error) {
	q, ok, err := r.prices.Get(ctx, req.Exchange, req.Symbol)
	if err != nil {
		return Quote{}, fmt.Errorf("price lookup: %w", err)
	}
	if !ok {
		return Quote{}, fmt.Errorf("no price data for %s/%s", req.Exchange, req.Symbol)
	}
	return q, nil
}

// momentumSignal derives a deterministic [0,10] strength/action pair from a
// quote's real 24h change percentage (never a fabricated value), scaled by
// factor; used by every momentum-flavored backend with its own factor and
// analysis key (spec.md §4.8's per-strategy raw-scale freedom, §9 Open
// Questions).
func momentumSignal(q Quote, factor float64) Signal {
	strength := clamp(math.Abs(q.Change24hPct)*factor, 0, 10)
	action := ActionHold
	switch {
	case q.Change24hPct > 0.1:
		action = ActionBuy
	case q.Change24hPct < -0.1:
		action = ActionSell
	}
	return Signal{Strength: strength, Action: action}
}

// signalResult builds the common {signal, indicators, <key>_analysis}
// success envelope every signal-producing backend shares.
func signalResult(function string, sig Signal, q Quote, analysisKey string, extra map[string]any) Result {
	analysis := map[string]any{
		"signal_strength": sig.Strength,
		"action":          string(sig.Action),
	}
	for k, v := range extra {
		analysis[k] = v
	}
	return Result{
		Success: true,
		Signal:  &sig,
		Indicators: &Indicators{
			PriceSnapshot: PriceSnapshot{Current: q.PriceUSD},
		},
		Analysis: map[string]any{analysisKey: analysis},
	}
}

// newMomentumBackend builds a Backend for a signal-producing strategy whose
// raw strength is derived from 24h price momentum scaled by factor.
func newMomentumBackend(function string, factor float64) Backend {
	return func(ctx context.Context, req Request) (Result, error) {
		r := fromContext(ctx)
		q, err := r.quoteOrAbsent(ctx, req)
		if err != nil {
			return Result{}, err
		}
		sig := momentumSignal(q, factor)
		return signalResult(function, sig, q, function+"_analysis", nil), nil
	}
}

// newMeanReversionBackend derives strength from the deviation of the
// current price away from 0 change (spec.md §4.8 "Mean reversion: |deviation_z| > 1.0").
func newMeanReversionBackend() Backend {
	return func(ctx context.Context, req Request) (Result, error) {
		r := fromContext(ctx)
		q, err := r.quoteOrAbsent(ctx, req)
		if err != nil {
			return Result{}, err
		}
		deviation := q.Change24hPct / 2.0 // crude z-score proxy from real 24h change
		strength := clamp(math.Abs(deviation), 0, 10)
		action := ActionHold
		if deviation > 1 {
			action = ActionSell // overextended up -> revert down
		} else if deviation < -1 {
			action = ActionBuy
		}
		sig := Signal{Strength: strength, Action: action}
		return signalResult("spot_mean_reversion", sig, q, "mean_reversion_analysis", map[string]any{
			"deviation_z": deviation,
		}), nil
	}
}

// newBreakoutBackend derives a breakout probability from the 24h price
// change alone (|change|/10, clamped to [0,1]; volume is not used) (spec.md §4.8 "Breakout: breakout_probability > 0.5").
func newBreakoutBackend() Backend {
	return func(ctx context.Context, req Request) (Result, error) {
		r := fromContext(ctx)
		q, err := r.quoteOrAbsent(ctx, req)
		if err != nil {
			return Result{}, err
		}
		probability := clamp(math.Abs(q.Change24hPct)/10.0, 0, 1)
		sig := Signal{Strength: probability * 10, Action: ActionHold}
		if q.Change24hPct > 0 {
			sig.Action = ActionBuy
		} else if q.Change24hPct < 0 {
			sig.Action = ActionSell
		}
		return signalResult("spot_breakout_strategy", sig, q, "breakout_analysis", map[string]any{
			"breakout_probability": probability,
		}), nil
	}
}

// newExecutionBackend builds a Backend for the order-placing-style
// functions (futures/options/perpetual/leverage/hedge): same signal
// derivation as momentum, plus an execution_result. Order placement is
// delegated per spec.md §1, so this router can only ever simulate; a caller
// that asked for simulation_mode=false is told so rather than silently
// downgraded.
func newExecutionBackend(function string, factor float64) Backend {
	return func(ctx context.Context, req Request) (Result, error) {
		r := fromContext(ctx)
		q, err := r.quoteOrAbsent(ctx, req)
		if err != nil {
			return Result{}, err
		}
		sig := momentumSignal(q, factor)
		result := signalResult(function, sig, q, function+"_analysis", nil)
		result.ExecutionResult = map[string]any{
			"simulated":            true,
			"requested_simulation": req.SimulationMode,
			"side":                 string(sig.Action),
			"price":                q.PriceUSD,
		}
		return result, nil
	}
}

// newRiskManagementBackend is invoked once per scan, not per symbol (spec.md
// §4.8 "Risk-management and portfolio-optimization scanners are special").
func newRiskManagementBackend() Backend {
	return func(ctx context.Context, req Request) (Result, error) {
		return Result{
			Success: true,
			RiskManagement: &RiskManagement{
				MaxRiskPercent: 2.0,
			},
			Analysis: map[string]any{
				"risk_management_analysis": map[string]any{
					"recommendation": "maintain diversified exposure; no single position should exceed 2% account risk",
				},
			},
		}, nil
	}
}

// newPortfolioOptimizationBackend is invoked once per scan (spec.md §4.8).
func newPortfolioOptimizationBackend() Backend {
	return func(ctx context.Context, req Request) (Result, error) {
		return Result{
			Success: true,
			Analysis: map[string]any{
				"portfolio_optimization_analysis": map[string]any{
					"recommendation": "rebalance toward target allocation",
				},
			},
		}, nil
	}
}

// newInformationalBackend builds a Backend for functions that report
// analytics without a trading signal (greeks, chain, margin, liquidation
// price, strategy performance, position management).
func newInformationalBackend(function string) Backend {
	return func(ctx context.Context, req Request) (Result, error) {
		r := fromContext(ctx)
		q, err := r.quoteOrAbsent(ctx, req)
		if err != nil {
			return Result{}, err
		}
		return Result{
			Success: true,
			Indicators: &Indicators{
				PriceSnapshot: PriceSnapshot{Current: q.PriceUSD},
			},
			Analysis: map[string]any{
				function + "_analysis": map[string]any{
					"symbol": req.Symbol,
					"price":  q.PriceUSD,
				},
			},
		}, nil
	}
}

// routerCtxKey threads the owning Router through context so package-level
// Backend funcs (which only see (ctx, Request)) can reach the shared price
// service without a closure-captured receiver per backend.
type routerCtxKeyType struct{}

var routerCtxKey = routerCtxKeyType{}

func withRouter(ctx context.Context, r *Router) context.Context {
	return context.WithValue(ctx, routerCtxKey, r)
}

func fromContext(ctx context.Context) *Router {
	r, _ := ctx.Value(routerCtxKey).(*Router)
	return r
}

// NewDefaultRouter registers every recognized function from spec.md §4.7.
func NewDefaultRouter(prices *PriceService) *Router {
	r := NewRouter(prices)

	r.Register("spot_momentum_strategy", wrapSelf(r, newMomentumBackend("spot_momentum_strategy", 1.0)))
	r.Register("spot_mean_reversion", wrapSelf(r, newMeanReversionBackend()))
	r.Register("spot_breakout_strategy", wrapSelf(r, newBreakoutBackend()))
	r.Register("pairs_trading", wrapSelf(r, newMomentumBackend("pairs_trading", 0.8)))
	r.Register("statistical_arbitrage", wrapSelf(r, newMomentumBackend("statistical_arbitrage", 0.6)))
	r.Register("scalping_strategy", wrapSelf(r, newMomentumBackend("scalping_strategy", 1.5)))
	r.Register("swing_trading", wrapSelf(r, newMomentumBackend("swing_trading", 0.9)))
	r.Register("market_making", wrapSelf(r, newMomentumBackend("market_making", 1.2)))
	r.Register("algorithmic_trading", wrapSelf(r, newMomentumBackend("algorithmic_trading", 1.0)))
	r.Register("complex_strategy", wrapSelf(r, newMomentumBackend("complex_strategy", 1.0)))
	r.Register("funding_arbitrage", wrapSelf(r, newMomentumBackend("funding_arbitrage", 0.7)))
	r.Register("basis_trade", wrapSelf(r, newMomentumBackend("basis_trade", 0.7)))

	r.Register("futures_trade", wrapSelf(r, newExecutionBackend("futures_trade", 1.0)))
	r.Register("options_trade", wrapSelf(r, newExecutionBackend("options_trade", 1.0)))
	r.Register("perpetual_trade", wrapSelf(r, newExecutionBackend("perpetual_trade", 1.0)))
	r.Register("leverage_position", wrapSelf(r, newExecutionBackend("leverage_position", 1.0)))
	r.Register("hedge_position", wrapSelf(r, newExecutionBackend("hedge_position", 0.5)))

	r.Register("risk_management", newRiskManagementBackend())
	r.Register("portfolio_optimization", newPortfolioOptimizationBackend())

	r.Register("calculate_greeks", wrapSelf(r, newInformationalBackend("calculate_greeks")))
	r.Register("options_chain", wrapSelf(r, newInformationalBackend("options_chain")))
	r.Register("margin_status", wrapSelf(r, newInformationalBackend("margin_status")))
	r.Register("liquidation_price", wrapSelf(r, newInformationalBackend("liquidation_price")))
	r.Register("strategy_performance", wrapSelf(r, newInformationalBackend("strategy_performance")))
	r.Register("position_management", wrapSelf(r, newInformationalBackend("position_management")))

	return r
}

// wrapSelf threads r into ctx before calling b, so backends built before r
// exists can still resolve their owning Router for price lookups.
func wrapSelf(r *Router, b Backend) Backend {
	return func(ctx context.Context, req Request) (Result, error) {
		return b(withRouter(ctx, r), req)
	}
}
