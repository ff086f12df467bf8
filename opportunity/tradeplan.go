package opportunity

import "math"

// Side is the recommended trade direction used by trade-plan enrichment.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// TradePlan carries the derived stop/take/position-size fields an
// Opportunity needs for trade-plan completeness (spec.md §8).
type TradePlan struct {
	Entry             float64
	StopLoss          float64
	TakeProfit        float64
	PositionSize      float64
	PositionNotional  float64
	RiskAmount        float64
	PotentialProfit   float64
	RiskRewardRatio   float64
	MaxRiskPercent    float64
	PotentialGainPct  float64
}

// DefaultStopPercent/DefaultTakeProfitPercent/DefaultMaxRiskPercent are the
// §4.8 step 5 enrichment defaults used when the strategy backend did not
// supply risk_management levels itself.
const (
	DefaultStopPercent       = 0.02
	DefaultTakeProfitPercent = 0.04
	DefaultMaxRiskPercent    = 2.0
)

// EnrichTradePlan computes stop/take/position-size/risk-reward for an entry
// price and notional capital when the backend did not supply them (spec.md
// §4.8 step 5). notional must be > 0; entry must be > 0.
func EnrichTradePlan(entry, notional float64, side Side) TradePlan {
	var stop, take float64
	if side == SideShort {
		stop = entry * (1 + DefaultStopPercent)
		take = entry * (1 - DefaultTakeProfitPercent)
	} else {
		stop = entry * (1 - DefaultStopPercent)
		take = entry * (1 + DefaultTakeProfitPercent)
	}

	positionSize := 0.0
	if entry > 0 {
		positionSize = notional / entry
	}
	riskAmount := positionSize * math.Abs(entry-stop)
	potentialProfit := positionSize * math.Abs(take-entry)

	riskReward := 0.0
	if riskAmount > 0 {
		riskReward = potentialProfit / riskAmount
	}

	gainPct := 0.0
	if entry > 0 {
		gainPct = math.Abs(take-entry) / entry * 100
	}

	return TradePlan{
		Entry:            entry,
		StopLoss:         stop,
		TakeProfit:       take,
		PositionSize:     positionSize,
		PositionNotional: notional,
		RiskAmount:       riskAmount,
		PotentialProfit:  potentialProfit,
		RiskRewardRatio:  riskReward,
		MaxRiskPercent:   DefaultMaxRiskPercent,
		PotentialGainPct: gainPct,
	}
}

// Apply writes the plan's fields onto opp's trade-plan pointers and
// metadata, leaving any already-set fields untouched.
func (p TradePlan) Apply(opp *Opportunity) {
	if opp.EntryPrice == nil {
		entry := p.Entry
		opp.EntryPrice = &entry
	}
	if opp.StopLoss == nil {
		sl := p.StopLoss
		opp.StopLoss = &sl
	}
	if opp.TakeProfit == nil {
		tp := p.TakeProfit
		opp.TakeProfit = &tp
	}
	if opp.Metadata == nil {
		opp.Metadata = map[string]any{}
	}
	if _, ok := opp.Metadata["position_size"]; !ok {
		opp.Metadata["position_size"] = p.PositionSize
	}
	if _, ok := opp.Metadata["risk_reward_ratio"]; !ok {
		opp.Metadata["risk_reward_ratio"] = p.RiskRewardRatio
	}
	if _, ok := opp.Metadata["max_risk_percent"]; !ok {
		opp.Metadata["max_risk_percent"] = p.MaxRiskPercent
	}
	if _, ok := opp.Metadata["potential_gain_percent"]; !ok {
		opp.Metadata["potential_gain_percent"] = p.PotentialGainPct
	}
}
