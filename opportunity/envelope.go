package opportunity

import "time"

// ScanState is the three-state partial-result machine (spec.md §4.9).
type ScanState string

const (
	ScanStatePending  ScanState = "pending"
	ScanStatePartial  ScanState = "partial"
	ScanStateComplete ScanState = "complete"
)

// SerializedOpportunity mirrors Opportunity flat, with an ISO-8601 timestamp
// (spec.md §6 "SerializedOpportunity").
type SerializedOpportunity struct {
	StrategyID         string         `json:"strategy_id"`
	StrategyName       string         `json:"strategy_name"`
	OpportunityType    string         `json:"opportunity_type"`
	Symbol             string         `json:"symbol"`
	Exchange           string         `json:"exchange"`
	ProfitPotentialUSD float64        `json:"profit_potential_usd"`
	ConfidenceScore    float64        `json:"confidence_score"`
	RiskLevel          RiskLevel      `json:"risk_level"`
	RequiredCapitalUSD float64        `json:"required_capital_usd"`
	EstimatedTimeframe string         `json:"estimated_timeframe"`
	EntryPrice         *float64       `json:"entry_price,omitempty"`
	ExitPrice          *float64       `json:"exit_price,omitempty"`
	StopLoss           *float64       `json:"stop_loss,omitempty"`
	TakeProfit         *float64       `json:"take_profit,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
	DiscoveredAt       string         `json:"discovered_at"`
}

// Serialize converts an Opportunity to its wire shape.
func Serialize(o Opportunity) SerializedOpportunity {
	return SerializedOpportunity{
		StrategyID:         o.StrategyID,
		StrategyName:       o.StrategyName,
		OpportunityType:    o.OpportunityType,
		Symbol:             o.Symbol,
		Exchange:           o.Exchange,
		ProfitPotentialUSD: o.ProfitPotentialUSD,
		ConfidenceScore:    o.ConfidenceScore,
		RiskLevel:          o.RiskLevel,
		RequiredCapitalUSD: o.RequiredCapitalUSD,
		EstimatedTimeframe: o.EstimatedTimeframe,
		EntryPrice:         o.EntryPrice,
		ExitPrice:          o.ExitPrice,
		StopLoss:           o.StopLoss,
		TakeProfit:         o.TakeProfit,
		Metadata:           o.Metadata,
		DiscoveredAt:       o.DiscoveredAt.UTC().Format(time.RFC3339),
	}
}

// SignalsByStrength counts opportunities in the four §6 signal-strength
// buckets used by threshold-transparency reporting.
type SignalsByStrength struct {
	VeryStrong int `json:"very_strong"`
	Strong     int `json:"strong"`
	Moderate   int `json:"moderate"`
	Weak       int `json:"weak"`
}

// ThresholdAnalysis is SPEC_FULL's pinned-down computation of the original
// source's threshold-transparency block (see SPEC_FULL.md "Supplemented
// features").
type ThresholdAnalysis struct {
	OriginalThreshold              float64 `json:"original_threshold"`
	OpportunitiesAboveOriginal     int     `json:"opportunities_above_original"`
	OpportunitiesShown             int     `json:"opportunities_shown"`
	AdditionalOpportunitiesRevealed int    `json:"additional_opportunities_revealed"`
}

// SignalAnalysis is the §6 signal_analysis block.
type SignalAnalysis struct {
	TotalSignalsAnalyzed int               `json:"total_signals_analyzed"`
	SignalsByStrength    SignalsByStrength `json:"signals_by_strength"`
	ThresholdAnalysis    ThresholdAnalysis `json:"threshold_analysis"`
}

// ThresholdTransparency is the §6 threshold_transparency block.
type ThresholdTransparency struct {
	Message        string `json:"message"`
	Recommendation string `json:"recommendation"`
}

// UserProfileSummary is the §6 user_profile block.
type UserProfileSummary struct {
	ActiveStrategies      int    `json:"active_strategies"`
	ActiveStrategyCount   int    `json:"active_strategy_count"`
	UserTier              string `json:"user_tier"`
	MonthlyStrategyCost   int    `json:"monthly_strategy_cost"`
	ScanLimit             int    `json:"scan_limit"`
	StrategyFingerprint   string `json:"strategy_fingerprint"`
}

// StrategyPerformance is one entry of the §6 strategy_performance map.
type StrategyPerformance struct {
	Count         int     `json:"count"`
	TotalPotential float64 `json:"total_potential"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// AssetDiscoverySummary is the §6 asset_discovery block.
type AssetDiscoverySummary struct {
	TotalAssetsScanned int      `json:"total_assets_scanned"`
	AssetTiers         []string `json:"asset_tiers"`
	MaxTierAccessed    string   `json:"max_tier_accessed"`
}

// StrategyRecommendation is one entry of the §6 strategy_recommendations list.
type StrategyRecommendation struct {
	StrategyID string `json:"strategy_id"`
	Name       string `json:"name"`
	Benefit    string `json:"benefit"`
	Reason     string `json:"reason"`
	Type       string `json:"type"`
}

// PerformanceMetrics is the §6 performance_metrics block.
type PerformanceMetrics struct {
	PortfolioFetchTimeMs float64 `json:"portfolio_fetch_time_ms"`
	CacheHitRate         float64 `json:"cache_hit_rate"`
	TotalTimeouts        int     `json:"total_timeouts"`
	TotalErrors          int     `json:"total_errors"`
}

// ResponseMetadata carries the scan-state machine and any degradation
// markers (spec.md §4.9, §4.11).
type ResponseMetadata struct {
	ScanState    ScanState `json:"scan_state,omitempty"`
	FallbackUsed bool      `json:"fallback_used,omitempty"`
	Source       string    `json:"source,omitempty"`
	ErrorType    string    `json:"error_type,omitempty"`
	Warning      string    `json:"warning,omitempty"`
}

// Envelope is the top-level response of discover_opportunities_for_user
// (spec.md §6).
type Envelope struct {
	Success                bool                           `json:"success"`
	ScanID                 string                         `json:"scan_id"`
	UserID                 string                         `json:"user_id"`
	Opportunities          []SerializedOpportunity        `json:"opportunities"`
	TotalOpportunities     int                            `json:"total_opportunities"`
	SignalAnalysis         SignalAnalysis                 `json:"signal_analysis"`
	ThresholdTransparency  ThresholdTransparency           `json:"threshold_transparency"`
	UserProfile            UserProfileSummary              `json:"user_profile"`
	StrategyPerformance    map[string]StrategyPerformance `json:"strategy_performance"`
	AssetDiscovery         AssetDiscoverySummary           `json:"asset_discovery"`
	StrategyRecommendations []StrategyRecommendation       `json:"strategy_recommendations"`
	ExecutionTimeMs        float64                         `json:"execution_time_ms"`
	LastUpdated            string                          `json:"last_updated"`
	PerformanceMetrics     PerformanceMetrics              `json:"performance_metrics"`
	Metadata               *ResponseMetadata               `json:"metadata,omitempty"`
	Error                  string                          `json:"error,omitempty"`
}

// BuildSignalAnalysis computes the signal-strength histogram and
// threshold-transparency numbers from the final ranked opportunity set
// (SPEC_FULL "Supplemented features" — threshold-transparency computation).
// originalThreshold is the strategy's "strong" signal-strength cutoff (the
// original source's hardcoded 6.0; SPEC_FULL keeps that default).
func BuildSignalAnalysis(opportunities []Opportunity, originalThreshold float64) SignalAnalysis {
	sa := SignalAnalysis{
		ThresholdAnalysis: ThresholdAnalysis{
			OriginalThreshold:   originalThreshold,
			OpportunitiesShown:  len(opportunities),
		},
	}
	for _, o := range opportunities {
		sa.TotalSignalsAnalyzed++
		strength, _ := o.MetadataValue("signal_strength").(float64)
		switch {
		case strength > 6.0:
			sa.SignalsByStrength.VeryStrong++
		case strength > 4.5:
			sa.SignalsByStrength.Strong++
		case strength > 3.0:
			sa.SignalsByStrength.Moderate++
		default:
			sa.SignalsByStrength.Weak++
		}
		if strength > originalThreshold {
			sa.ThresholdAnalysis.OpportunitiesAboveOriginal++
		}
	}
	sa.ThresholdAnalysis.AdditionalOpportunitiesRevealed =
		sa.ThresholdAnalysis.OpportunitiesShown - sa.ThresholdAnalysis.OpportunitiesAboveOriginal
	return sa
}

// BuildThresholdTransparency mirrors the original's human-readable message
// (SPEC_FULL "Supplemented features").
func BuildThresholdTransparency(sa SignalAnalysis) ThresholdTransparency {
	return ThresholdTransparency{
		Message: formatTransparencyMessage(sa),
		Recommendation: "Focus on HIGH confidence opportunities for best results",
	}
}
