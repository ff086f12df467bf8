package router

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cryptoscan/logger"
)

// Router is the C7 Strategy Execution Router: execute_strategy dispatch
// over a registry of named backends (spec.md §9: "Replace dynamic method
// lookup by name with a registry map<strategy_id, Scanner>; unknown IDs are
// a registry miss, not a runtime attribute error").
type Router struct {
	backends map[string]Backend
	prices   *PriceService
}

// NewRouter builds an empty router bound to a shared price service.
func NewRouter(prices *PriceService) *Router {
	return &Router{backends: make(map[string]Backend), prices: prices}
}

// Register binds a function name to its backend.
func (r *Router) Register(function string, b Backend) {
	r.backends[function] = b
}

// Execute dispatches req.Function to its registered backend (spec.md §4.7
// execute_strategy). Unknown functions return a structured failure
// envelope rather than an error, matching the "exceptions-as-control-flow
// across component boundaries" redesign (§9): every boundary converts
// failures into data.
func (r *Router) Execute(ctx context.Context, req Request) Result {
	backend, ok := r.backends[req.Function]
	if !ok {
		return Result{
			Success:            false,
			Function:           req.Function,
			Timestamp:          time.Now().UTC(),
			Error:              fmt.Sprintf("unrecognized function %q", req.Function),
			AvailableFunctions: r.FunctionNames(),
		}
	}

	result, err := backend(ctx, req)
	if err != nil {
		logger.Warnf("router: function %s failed for %s/%s: %v", req.Function, req.Exchange, req.Symbol, err)
		return Result{
			Success:   false,
			Function:  req.Function,
			Timestamp: time.Now().UTC(),
			Error:     err.Error(),
		}
	}
	result.Function = req.Function
	if result.Timestamp.IsZero() {
		result.Timestamp = time.Now().UTC()
	}
	return result
}

// FunctionNames lists every registered function, sorted, for the
// unknown-function error payload and for diagnostics.
func (r *Router) FunctionNames() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Diagnose exercises every recognized function once against a synthetic
// symbol and reports which ones errored (SPEC_FULL "Diagnostics tooling",
// grounded on original_source/tools/run_strategy_diagnostics.py). It is a
// plain function, not a CLI, since thin CLIs are excluded from this core's
// scope.
func (r *Router) Diagnose(ctx context.Context) map[string]string {
	failures := make(map[string]string)
	for _, name := range r.FunctionNames() {
		req := Request{
			Function: name,
			Symbol:   "BTC",
			Exchange: "binance",
			UserID:   "diagnostic",
			Parameters: map[string]any{},
		}
		result := r.Execute(ctx, req)
		if !result.Success {
			failures[name] = result.Error
		}
	}
	return failures
}
