// Package opportunity holds the Opportunity/CachedOpportunitySet data model
// (spec.md §3), the ranking law and confidence normalization (§8), and the
// response envelope shape consumed by callers (§6).
package opportunity

import (
	"fmt"
	"sort"
	"time"
)

// RiskLevel is the risk bucket attached to an Opportunity (spec.md §3).
type RiskLevel string

const (
	RiskLow        RiskLevel = "low"
	RiskMedium     RiskLevel = "medium"
	RiskMediumHigh RiskLevel = "medium_high"
	RiskHigh       RiskLevel = "high"
	RiskVeryHigh   RiskLevel = "very_high"
)

// RiskLevelForStrength buckets a raw 0-10 signal strength into a risk level
// per spec.md §4.8 step 4.
func RiskLevelForStrength(strength float64) RiskLevel {
	switch {
	case strength > 7:
		return RiskLow
	case strength > 5:
		return RiskMedium
	case strength > 3:
		return RiskMediumHigh
	default:
		return RiskHigh
	}
}

// Opportunity is a single ranked, metadata-annotated actionable trade idea
// (spec.md §3). Immutable once emitted by a scanner.
type Opportunity struct {
	StrategyID          string
	StrategyName        string
	OpportunityType     string
	Symbol              string
	Exchange            string
	ProfitPotentialUSD  float64
	ConfidenceScore     float64 // [0,100]
	RiskLevel           RiskLevel
	RequiredCapitalUSD  float64
	EstimatedTimeframe  string
	EntryPrice          *float64
	ExitPrice           *float64
	StopLoss            *float64
	TakeProfit          *float64
	Metadata            map[string]any
	DiscoveredAt        time.Time
	sequence            int // insertion order, for stable-sort tie-break (§5)
}

// Validate enforces the §3 Opportunity invariants.
func (o Opportunity) Validate() error {
	if o.ProfitPotentialUSD < 0 {
		return fmt.Errorf("opportunity %s/%s: profit_potential_usd must be >= 0", o.StrategyID, o.Symbol)
	}
	if o.RequiredCapitalUSD < 0 {
		return fmt.Errorf("opportunity %s/%s: required_capital_usd must be >= 0", o.StrategyID, o.Symbol)
	}
	if o.ConfidenceScore < 0 || o.ConfidenceScore > 100 {
		return fmt.Errorf("opportunity %s/%s: confidence_score must be in [0,100], got %v", o.StrategyID, o.Symbol, o.ConfidenceScore)
	}
	return nil
}

// MetadataValue returns a metadata field, or nil if absent.
func (o Opportunity) MetadataValue(key string) any {
	if o.Metadata == nil {
		return nil
	}
	return o.Metadata[key]
}

// RankKey is the ranking law's sort key (spec.md §8 "Ranking law"):
// profit_potential_usd * confidence_score, descending.
func (o Opportunity) RankKey() float64 {
	return o.ProfitPotentialUSD * o.ConfidenceScore
}

// Rank assigns insertion-order sequence numbers (for the stable tie-break)
// and sorts opportunities by RankKey descending, then truncates to limit.
// limit < 0 means unlimited.
func Rank(opportunities []Opportunity, limit int) []Opportunity {
	out := make([]Opportunity, len(opportunities))
	for i, o := range opportunities {
		o.sequence = i
		out[i] = o
	}
	sort.SliceStable(out, func(i, j int) bool {
		ki, kj := out[i].RankKey(), out[j].RankKey()
		if ki != kj {
			return ki > kj
		}
		return out[i].sequence < out[j].sequence
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// NormalizeConfidence maps a raw confidence-ish value from one of several
// expected scales into [0,1] (spec.md §8 "Confidence normalization"):
// decimals already in [0,1], percents in (1,100], basis points in
// (100,10000]; anything above 10000 maps to 1. It has no signal-strength
// interpretation: a value in (1,10] is read as a percent, not as a 0-10
// strength (ConfidenceFromSignal derives confidence from strength instead).
func NormalizeConfidence(value float64) float64 {
	switch {
	case value < 0:
		return 0
	case value <= 1:
		return value
	case value <= 100:
		return value / 100
	case value <= 10000:
		return value / 10000
	default:
		return 1
	}
}

// ConfidenceFromSignal derives a [0,100] confidence_score from a strategy
// signal: prefer an explicit confidence value, else derive from strength*10
// (spec.md §4.7 "signal.confidence ... may be absent; fall back to
// strength*10").
func ConfidenceFromSignal(strength float64, confidence *float64) float64 {
	if confidence != nil {
		c := NormalizeConfidence(*confidence) * 100
		return clamp(c, 0, 100)
	}
	return clamp(strength*10, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// QualityTier classifies a raw strategy signal value against its
// strong/consider/minimum thresholds (spec.md §4.8 step 4).
func QualityTier(value, strongThreshold, considerThreshold, minThreshold float64) string {
	switch {
	case value >= strongThreshold:
		return "high"
	case value >= considerThreshold:
		return "medium"
	case value >= minThreshold:
		return "low"
	default:
		return ""
	}
}
