package universe

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"cryptoscan/asset"
	"cryptoscan/cache"
	"cryptoscan/logger"
	"cryptoscan/store"
)

// AccountLister is the external-account read model the resolver needs
// (spec.md §6 "Database (read-only for this core)"); store.ExchangeAccountStore
// implements it.
type AccountLister interface {
	ListActiveByUser(userID string) ([]store.ExchangeAccount, error)
}

// Resolver is the C5 Exchange Universe Resolver.
type Resolver struct {
	accounts AccountLister
	ttl      *cache.TTLCache
	cacheTTL time.Duration

	defaultExchanges []string
}

// NewResolver builds a C5 resolver.
func NewResolver(accounts AccountLister, ttl *cache.TTLCache, cacheTTL time.Duration, defaultExchanges []string) *Resolver {
	return &Resolver{accounts: accounts, ttl: ttl, cacheTTL: cacheTTL, defaultExchanges: defaultExchanges}
}

// GetUserExchanges resolves the exchange list a scan should run against
// (spec.md §4.5 get_user_exchanges). requested, if non-empty, wins outright
// (deduplicated, order preserved). Otherwise the user's ACTIVE,
// trading-enabled exchange accounts are used (cached); failing that,
// defaults, then the platform defaults.
func (r *Resolver) GetUserExchanges(ctx context.Context, userID string, requested, defaults []string) []string {
	if len(requested) > 0 {
		return dedupe(requested)
	}

	cacheKey := fmt.Sprintf("user_exchanges:%s", userID)
	var cached []string
	if ok, err := r.ttl.GetJSON(ctx, cacheKey, &cached); err != nil {
		logger.Warnf("universe resolver: exchange cache read error for %s: %v", userID, err)
	} else if ok && len(cached) > 0 {
		return cached
	}

	accounts, err := r.accounts.ListActiveByUser(userID)
	if err != nil {
		logger.Warnf("universe resolver: account lookup failed for %s, falling back: %v", userID, err)
		accounts = nil
	}

	var ids []string
	for _, a := range accounts {
		ids = append(ids, strings.ToLower(a.ExchangeName))
	}
	ids = dedupe(ids)

	if len(ids) == 0 {
		if len(defaults) > 0 {
			ids = dedupe(defaults)
		} else {
			ids = dedupe(r.defaultExchanges)
		}
	}

	if err := r.ttl.SetJSON(ctx, cacheKey, ids, r.cacheTTL); err != nil {
		logger.Warnf("universe resolver: exchange cache write error for %s: %v", userID, err)
	}
	return ids
}

// GetSymbolUniverse resolves the per-user symbol universe (spec.md §4.5
// get_symbol_universe). requested wins outright (truncated to limit). Else
// the user's per-account allowed_symbols are collected, ranked by the
// classified universe's volume/tier data, and filtered to maxTier; an empty
// result falls back to the classified universe's top-N by volume, and
// finally to an empty list.
func (r *Resolver) GetSymbolUniverse(
	ctx context.Context,
	userID string,
	requested []string,
	exchangeIDs []string,
	classified map[asset.Tier][]asset.Asset,
	maxTier asset.Tier,
	limit int,
) []string {
	if len(requested) > 0 {
		out := dedupe(requested)
		if limit >= 0 && len(out) > limit {
			out = out[:limit]
		}
		return out
	}

	cacheKey := fmt.Sprintf("symbols:%s:%s:%s", userID, strings.Join(sortedCopy(exchangeIDs), ","), maxTier)
	var cached []string
	if ok, err := r.ttl.GetJSON(ctx, cacheKey, &cached); err != nil {
		logger.Warnf("universe resolver: symbol cache read error for %s: %v", userID, err)
	} else if ok && len(cached) > 0 {
		return applyLimit(cached, limit)
	}

	accounts, err := r.accounts.ListActiveByUser(userID)
	if err != nil {
		logger.Warnf("universe resolver: account lookup failed for %s, falling back to universe top-N: %v", userID, err)
		accounts = nil
	}

	allowed := map[string]bool{}
	for _, a := range accounts {
		for _, s := range a.Symbols() {
			allowed[s] = true
		}
	}

	byVolume := asset.FilterByMinTier(classified, maxTier)
	var ranked []asset.Asset
	if len(allowed) > 0 {
		for _, assets := range byVolume {
			for _, a := range assets {
				if allowed[a.Symbol] {
					ranked = append(ranked, a)
				}
			}
		}
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Volume24hUSD > ranked[j].Volume24hUSD })
	}

	var symbols []string
	if len(ranked) > 0 {
		for _, a := range ranked {
			symbols = append(symbols, a.Symbol)
		}
	} else {
		// Final fallback: top-N of the enterprise universe by volume (spec.md
		// §4.5 "If nothing remains, fall back to the enterprise universe's
		// top-N by volume").
		top := asset.TopN(byVolume, limit)
		for _, a := range top {
			symbols = append(symbols, a.Symbol)
		}
	}

	if err := r.ttl.SetJSON(ctx, cacheKey, symbols, r.cacheTTL); err != nil {
		logger.Warnf("universe resolver: symbol cache write error for %s: %v", userID, err)
	}
	return applyLimit(symbols, limit)
}

func applyLimit(symbols []string, limit int) []string {
	if limit >= 0 && len(symbols) > limit {
		return symbols[:limit]
	}
	return symbols
}

func dedupe(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}
