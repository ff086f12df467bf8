package asset

import "testing"

func TestClassifyVolumeMonotonic(t *testing.T) {
	cases := []struct {
		volume float64
		want   Tier
	}{
		{200_000_000, TierInstitutional},
		{100_000_000, TierInstitutional},
		{99_999_999, TierEnterprise},
		{50_000_000, TierEnterprise},
		{10_000_000, TierProfessional},
		{1_000_000, TierRetail},
		{100_000, TierEmerging},
		{10_000, TierMicro},
		{9_999, TierAny},
		{0, TierAny},
	}
	for _, tc := range cases {
		if got := ClassifyVolume(tc.volume); got != tc.want {
			t.Errorf("ClassifyVolume(%v) = %s, want %s", tc.volume, got, tc.want)
		}
	}
}

// Tier monotonicity (spec.md §8): a higher volume never yields a less
// exclusive (higher-priority-number) tier than a lower volume.
func TestTierMonotonicity(t *testing.T) {
	volumes := []float64{0, 5_000, 10_000, 99_999, 100_000, 999_999, 1_000_000,
		9_999_999, 10_000_000, 49_999_999, 50_000_000, 99_999_999, 100_000_000, 1e12}

	prevPriority := 0
	for i, v := range volumes {
		tier := ClassifyVolume(v)
		p := Priority(tier)
		if i > 0 && p > prevPriority {
			t.Fatalf("volume %v classified to tier %s (priority %d) is less exclusive than a smaller volume's priority %d", v, tier, p, prevPriority)
		}
		prevPriority = p
	}
}

func TestAtLeast(t *testing.T) {
	if !AtLeast(TierInstitutional, TierRetail) {
		t.Error("institutional should satisfy a retail-or-better filter")
	}
	if AtLeast(TierMicro, TierRetail) {
		t.Error("micro should not satisfy a retail-or-better filter")
	}
	if !AtLeast(TierRetail, TierRetail) {
		t.Error("a tier should satisfy its own filter")
	}
}

func TestAllTiersOrderedByPriority(t *testing.T) {
	tiers := AllTiers()
	for i := 1; i < len(tiers); i++ {
		if Priority(tiers[i]) <= Priority(tiers[i-1]) {
			t.Fatalf("AllTiers() not ascending by priority at index %d: %v", i, tiers)
		}
	}
}
