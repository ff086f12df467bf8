// Package router implements the Strategy Execution Router (C7): a uniform
// execute_strategy(function, ...) dispatch layer with one backend per
// recognized function, a tagged-union result envelope, and the shared price
// service every backend consults (spec.md §4.7, §9 "Envelope polymorphism").
package router

import (
	"context"
	"time"
)

// Request is the uniform execute_strategy(...) call (spec.md §4.7).
type Request struct {
	Function       string
	StrategyType   string
	Symbol         string
	Parameters     map[string]any
	RiskMode       string
	Exchange       string
	UserID         string
	SimulationMode bool
}

// Action is a recognized signal action (spec.md §4.7 "signal.action").
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Signal is the uniform trading-signal payload variant (spec.md §4.7
// contract: strength in [0,10], confidence in [0,100] optional).
type Signal struct {
	Strength   float64
	Confidence *float64
	Action     Action
}

// RiskManagement is the uniform risk-management payload variant (spec.md
// §4.7 "risk_management.{stop_loss_price, take_profit_price, ...}").
type RiskManagement struct {
	StopLossPrice    float64
	TakeProfitPrice  float64
	PositionSize     float64
	PositionNotional float64
	RiskAmount       float64
	PotentialProfit  float64
	RiskRewardRatio  float64
	MaxRiskPercent   float64
}

// PriceSnapshot is the uniform indicators payload variant's canonical
// entry-price carrier (spec.md §4.7 "indicators.price_snapshot.current").
type PriceSnapshot struct {
	Current float64
}

// Indicators is the uniform indicators payload variant.
type Indicators struct {
	PriceSnapshot PriceSnapshot
	Extra         map[string]any
}

// Result is the tagged-union execute_strategy envelope (spec.md §4.7,
// §9 "Envelope polymorphism"): a shared header plus whichever
// function-specific payload variants the backend populated. Scanners match
// on which pointer is non-nil.
type Result struct {
	Success   bool
	Function  string
	Timestamp time.Time

	Signal          *Signal
	ExecutionResult map[string]any
	Analysis        map[string]any
	TradePlan       map[string]any
	RiskManagement  *RiskManagement
	Indicators      *Indicators

	Error              string
	AvailableFunctions []string
}

// Backend is one execute_strategy function implementation (spec.md §9:
// "Replace [dynamic method lookup] with a registry map<strategy_id,
// Scanner> populated at startup").
type Backend func(ctx context.Context, req Request) (Result, error)
