package scanner

// Registry maps strategy_id -> Adapter (spec.md §9 "registry map<strategy_id,
// Scanner> populated at startup", mirrored from the router's own registry
// redesign).
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds a Registry over the given adapters, keyed by
// StrategyID.
func NewRegistry(adapters ...Adapter) *Registry {
	byID := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		byID[a.StrategyID] = a
	}
	return &Registry{adapters: byID}
}

// Get returns the adapter for a strategy id, if registered.
func (r *Registry) Get(strategyID string) (Adapter, bool) {
	a, ok := r.adapters[strategyID]
	return a, ok
}

// IDs lists every registered strategy id.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	return ids
}

// NewDefaultRegistry builds the fourteen C8 scanners (spec.md §4.8). Two
// catalog-only strategies, algorithmic_trading and complex_strategy, are
// intentionally left without a dedicated scanner: original_source treats
// them as router-level building blocks other strategies compose, not
// standalone user-visible scans.
func NewDefaultRegistry() *Registry {
	momentum := thresholds{min: 2.5, consider: 4.0, strong: 6.0}
	return NewRegistry(
		Adapter{
			StrategyID: "risk_management", StrategyName: "Risk Management",
			Function: "risk_management", PerSymbol: false,
		},
		Adapter{
			StrategyID: "portfolio_optimization", StrategyName: "Portfolio Optimization",
			Function: "portfolio_optimization", PerSymbol: false,
		},
		Adapter{
			StrategyID: "spot_momentum_strategy", StrategyName: "Spot Momentum",
			Function: "spot_momentum_strategy", MaxSymbols: 30, Concurrency: 8,
			Thresholds: momentum, PerSymbol: true,
		},
		Adapter{
			StrategyID: "spot_mean_reversion", StrategyName: "Spot Mean Reversion",
			Function: "spot_mean_reversion", MaxSymbols: 30, Concurrency: 8,
			Thresholds: thresholds{min: 1.0, consider: 1.5, strong: 2.0}, PerSymbol: true,
		},
		Adapter{
			StrategyID: "spot_breakout_strategy", StrategyName: "Spot Breakout",
			Function: "spot_breakout_strategy", MaxSymbols: 30, Concurrency: 8,
			Thresholds: thresholds{min: 5.0, consider: 6.0, strong: 7.5}, PerSymbol: true,
		},
		Adapter{
			StrategyID: "scalping_strategy", StrategyName: "Scalping",
			Function: "scalping_strategy", MaxSymbols: 15, Concurrency: 10,
			Thresholds: momentum, PerSymbol: true,
		},
		Adapter{
			StrategyID: "swing_trading", StrategyName: "Swing Trading",
			Function: "swing_trading", MaxSymbols: 25, Concurrency: 6,
			Thresholds: momentum, PerSymbol: true,
		},
		Adapter{
			StrategyID: "market_making", StrategyName: "Market Making",
			Function: "market_making", MaxSymbols: 10, Concurrency: 10,
			Thresholds: momentum, PerSymbol: true,
		},
		Adapter{
			StrategyID: "pairs_trading", StrategyName: "Pairs Trading",
			Function: "pairs_trading", MaxSymbols: 20, Concurrency: 5,
			Thresholds: thresholds{min: 3.0, consider: 4.0, strong: 5.0}, PerSymbol: true,
		},
		Adapter{
			StrategyID: "statistical_arbitrage", StrategyName: "Statistical Arbitrage",
			Function: "statistical_arbitrage", MaxSymbols: 20, Concurrency: 4,
			Thresholds: momentum, PerSymbol: true,
		},
		Adapter{
			StrategyID: "funding_arbitrage", StrategyName: "Funding Arbitrage",
			Function: "funding_arbitrage", MaxSymbols: 20, Concurrency: 4,
			Thresholds: momentum, PerSymbol: true,
		},
		Adapter{
			StrategyID: "futures_trade", StrategyName: "Futures Trading",
			Function: "futures_trade", MaxSymbols: 20, Concurrency: 6,
			Thresholds: momentum, PerSymbol: true,
		},
		Adapter{
			StrategyID: "options_trade", StrategyName: "Options Trading",
			Function: "options_trade", MaxSymbols: 10, Concurrency: 3,
			Thresholds: momentum, PerSymbol: true,
		},
		Adapter{
			StrategyID: "perpetual_trade", StrategyName: "Perpetual Trading",
			Function: "perpetual_trade", MaxSymbols: 20, Concurrency: 6,
			Thresholds: momentum, PerSymbol: true,
		},
	)
}
