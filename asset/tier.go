// Package asset holds the normalized Asset entity and the volume-tier
// classifier (spec.md C3, §3 "Asset", "Tier").
package asset

// Tier is a volume bucket used to gate which assets a user may see.
type Tier string

const (
	TierInstitutional Tier = "institutional"
	TierEnterprise    Tier = "enterprise"
	TierProfessional  Tier = "professional"
	TierRetail        Tier = "retail"
	TierEmerging      Tier = "emerging"
	TierMicro         Tier = "micro"
	TierAny           Tier = "any"
)

// tierThreshold pairs a tier with its inclusive lower-bound 24h USD volume
// and its priority (1 = highest / most exclusive, per spec.md §3).
type tierThreshold struct {
	tier      Tier
	minVolume float64
	priority  int
}

// orderedTiers is sorted by priority ascending (most exclusive first), which
// is also descending by minVolume. Classify relies on this order.
var orderedTiers = []tierThreshold{
	{TierInstitutional, 100_000_000, 1},
	{TierEnterprise, 50_000_000, 2},
	{TierProfessional, 10_000_000, 3},
	{TierRetail, 1_000_000, 4},
	{TierEmerging, 100_000, 5},
	{TierMicro, 10_000, 6},
	{TierAny, 0, 7},
}

// AllTiers returns every tier in priority order (institutional first).
func AllTiers() []Tier {
	out := make([]Tier, len(orderedTiers))
	for i, t := range orderedTiers {
		out[i] = t.tier
	}
	return out
}

// Priority returns the tier's priority (1 = institutional ... 7 = any).
// Unknown tiers return 0, which sorts before every real tier; callers should
// treat that as "invalid" rather than "most exclusive".
func Priority(t Tier) int {
	for _, th := range orderedTiers {
		if th.tier == t {
			return th.priority
		}
	}
	return 0
}

// Threshold returns the minimum 24h USD volume required for t.
func Threshold(t Tier) float64 {
	for _, th := range orderedTiers {
		if th.tier == t {
			return th.minVolume
		}
	}
	return 0
}

// ClassifyVolume returns the highest tier (lowest priority number) whose
// threshold volume meets or is below the given 24h USD volume.
// Invariant (spec.md §8 "Tier monotonicity"): the result is the
// priority-minimum tier with threshold <= volume.
func ClassifyVolume(volumeUSD float64) Tier {
	for _, th := range orderedTiers {
		if volumeUSD >= th.minVolume {
			return th.tier
		}
	}
	return TierAny
}

// AtLeast reports whether tier t meets or exceeds the exclusivity of min
// (i.e. t's priority number is <= min's), the filter rule used throughout
// C3/C5 ("tiers with priority <= min_tier's priority").
func AtLeast(t, min Tier) bool {
	return Priority(t) <= Priority(min)
}
