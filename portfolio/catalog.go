// Package portfolio implements the Strategy Catalog & Portfolio (C6): the
// static catalog of strategy metadata, per-user portfolio resolution, the
// UserOpportunityProfile derivation, and strategy-fingerprint computation
// (spec.md §3, §4.6).
package portfolio

// StrategyTier gates whether a strategy requires a paid plan.
type StrategyTier string

const (
	StrategyTierFree       StrategyTier = "free"
	StrategyTierPro        StrategyTier = "pro"
	StrategyTierEnterprise StrategyTier = "enterprise"
)

// Meta describes one catalog strategy (spec.md §4.6 StrategyMeta).
type Meta struct {
	ID                string
	Name              string
	MonthlyCreditCost int
	Tier              StrategyTier
	Capabilities      map[string]bool
}

// IsFree reports whether the strategy is a zero-cost free-tier strategy
// (spec.md §4.6: "Free strategies are identified by monthly_credit_cost==0
// and tier==free").
func (m Meta) IsFree() bool {
	return m.MonthlyCreditCost == 0 && m.Tier == StrategyTierFree
}

// DefaultFreeStrategyIDs are provisioned for users with zero active
// strategies (spec.md §4.6, SPEC_FULL "Onboarding default strategies").
var DefaultFreeStrategyIDs = []string{
	"risk_management",
	"portfolio_optimization",
	"spot_momentum_strategy",
}

// Catalog is the static strategy metadata table (spec.md §4.6 get_catalog).
// It is read-only once built.
type Catalog struct {
	byID map[string]Meta
}

// NewCatalog builds a Catalog over the given entries, keyed by ID.
func NewCatalog(entries ...Meta) *Catalog {
	byID := make(map[string]Meta, len(entries))
	for _, m := range entries {
		byID[m.ID] = m
	}
	return &Catalog{byID: byID}
}

// Get returns a strategy's metadata by id.
func (c *Catalog) Get(id string) (Meta, bool) {
	m, ok := c.byID[id]
	return m, ok
}

// All returns a copy of the full catalog keyed by ID; as a map it has no
// iteration order.
func (c *Catalog) All() map[string]Meta {
	out := make(map[string]Meta, len(c.byID))
	for id, m := range c.byID {
		out[id] = m
	}
	return out
}

// NewDefaultCatalog returns the catalog entry for each of the fourteen
// strategies the C8 scanners cover, plus algorithmic_trading and
// complex_strategy, which have no dedicated scanner. Router functions such as
// basis_trade or calculate_greeks have no catalog entry.
func NewDefaultCatalog() *Catalog {
	return NewCatalog(
		Meta{ID: "risk_management", Name: "Risk Management", MonthlyCreditCost: 0, Tier: StrategyTierFree},
		Meta{ID: "portfolio_optimization", Name: "Portfolio Optimization", MonthlyCreditCost: 0, Tier: StrategyTierFree},
		Meta{ID: "spot_momentum_strategy", Name: "Spot Momentum", MonthlyCreditCost: 0, Tier: StrategyTierFree},
		Meta{ID: "spot_mean_reversion", Name: "Spot Mean Reversion", MonthlyCreditCost: 20, Tier: StrategyTierPro},
		Meta{ID: "spot_breakout_strategy", Name: "Spot Breakout", MonthlyCreditCost: 20, Tier: StrategyTierPro},
		Meta{ID: "scalping_strategy", Name: "Scalping", MonthlyCreditCost: 30, Tier: StrategyTierPro},
		Meta{ID: "swing_trading", Name: "Swing Trading", MonthlyCreditCost: 25, Tier: StrategyTierPro},
		Meta{ID: "market_making", Name: "Market Making", MonthlyCreditCost: 40, Tier: StrategyTierPro},
		Meta{ID: "pairs_trading", Name: "Pairs Trading", MonthlyCreditCost: 35, Tier: StrategyTierPro},
		Meta{ID: "statistical_arbitrage", Name: "Statistical Arbitrage", MonthlyCreditCost: 50, Tier: StrategyTierEnterprise},
		Meta{ID: "funding_arbitrage", Name: "Funding Arbitrage", MonthlyCreditCost: 45, Tier: StrategyTierEnterprise},
		Meta{ID: "futures_trade", Name: "Futures Trading", MonthlyCreditCost: 40, Tier: StrategyTierPro},
		Meta{ID: "options_trade", Name: "Options Trading", MonthlyCreditCost: 60, Tier: StrategyTierEnterprise},
		Meta{ID: "perpetual_trade", Name: "Perpetual Trading", MonthlyCreditCost: 40, Tier: StrategyTierPro},
		Meta{ID: "algorithmic_trading", Name: "Algorithmic Trading", MonthlyCreditCost: 55, Tier: StrategyTierEnterprise},
		Meta{ID: "complex_strategy", Name: "Complex Strategy", MonthlyCreditCost: 60, Tier: StrategyTierEnterprise},
	)
}
