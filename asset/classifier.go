package asset

import "sort"

// ExchangePriority resolves an exchange id to its registry priority, used to
// break best-quote ties deterministically (spec.md §4.3 step 1, §5 "ordering
// guarantees").
type ExchangePriority func(exchangeID string) int

// SelectBestQuotes collapses per-exchange ticker maps to one Asset per
// symbol: the highest 24h USD volume, ties broken by ascending exchange
// priority (spec.md §8 "Best-quote selection").
//
// perExchange maps exchange id -> (symbol -> Asset fetched from that
// exchange). The result is deterministic given the input.
func SelectBestQuotes(perExchange map[string]map[string]Asset, priority ExchangePriority) map[string]Asset {
	best := make(map[string]Asset)
	bestExchangePriority := make(map[string]int)

	// Iterate exchanges in a stable order so ties are resolved the same way
	// regardless of map iteration order.
	exchangeIDs := make([]string, 0, len(perExchange))
	for ex := range perExchange {
		exchangeIDs = append(exchangeIDs, ex)
	}
	sort.Strings(exchangeIDs)

	for _, ex := range exchangeIDs {
		exPriority := priority(ex)
		for symbol, a := range perExchange[ex] {
			current, exists := best[symbol]
			if !exists {
				best[symbol] = a
				bestExchangePriority[symbol] = exPriority
				continue
			}
			switch {
			case a.Volume24hUSD > current.Volume24hUSD:
				best[symbol] = a
				bestExchangePriority[symbol] = exPriority
			case a.Volume24hUSD == current.Volume24hUSD && exPriority < bestExchangePriority[symbol]:
				best[symbol] = a
				bestExchangePriority[symbol] = exPriority
			}
		}
	}
	return best
}

// Classify assigns each asset its Tier (highest tier whose threshold it
// meets, spec.md §3 "Tier" invariant) and buckets assets by tier, sorted
// descending by volume within each bucket (spec.md §4.3 step 4). The
// returned map always has an entry (possibly empty) for every tier.
func Classify(bySymbol map[string]Asset) map[Tier][]Asset {
	buckets := make(map[Tier][]Asset, len(orderedTiers))
	for _, t := range AllTiers() {
		buckets[t] = nil
	}

	for _, a := range bySymbol {
		a.Tier = ClassifyVolume(a.Volume24hUSD)
		buckets[a.Tier] = append(buckets[a.Tier], a)
	}

	for t := range buckets {
		list := buckets[t]
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Volume24hUSD > list[j].Volume24hUSD
		})
		buckets[t] = list
	}
	return buckets
}

// FilterByMinTier keeps only tiers at least as exclusive as minTier
// (priority <= Priority(minTier)), per spec.md §4.3 "Filtering".
func FilterByMinTier(buckets map[Tier][]Asset, minTier Tier) map[Tier][]Asset {
	out := make(map[Tier][]Asset)
	minPriority := Priority(minTier)
	for t, assets := range buckets {
		if Priority(t) <= minPriority {
			out[t] = assets
		}
	}
	return out
}

// Flatten concatenates every bucket's assets, tier by tier in priority
// order, preserving each bucket's internal volume-descending order.
func Flatten(buckets map[Tier][]Asset) []Asset {
	var out []Asset
	for _, t := range AllTiers() {
		out = append(out, buckets[t]...)
	}
	return out
}

// TopN returns the top n assets by 24h volume across every tier in buckets.
func TopN(buckets map[Tier][]Asset, n int) []Asset {
	all := Flatten(buckets)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Volume24hUSD > all[j].Volume24hUSD
	})
	if n >= 0 && len(all) > n {
		all = all[:n]
	}
	return all
}
