package portfolio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cryptoscan/asset"
)

// UserTier is the user's overall account tier, derived from their strategy
// portfolio (spec.md §3 "UserOpportunityProfile").
type UserTier string

const (
	UserTierBasic      UserTier = "basic"
	UserTierPro        UserTier = "pro"
	UserTierEnterprise UserTier = "enterprise"
)

// ActiveStrategy is one entry of a user's active strategy portfolio (spec.md
// §4.6 get_user_portfolio "active_strategies").
type ActiveStrategy struct {
	StrategyID string
	Name       string
	MonthlyCost int
}

// Result is the C6 get_user_portfolio() response (spec.md §4.6).
type Result struct {
	Success           bool
	ActiveStrategies  []ActiveStrategy
	TotalMonthlyCost  int
}

// Reader is the external collaborator this core reads a user's activated
// strategy set from (out of scope per spec.md §1: credit billing / strategy
// marketplace ownership lives elsewhere; this is the capability interface
// spec.md §9 "cyclic service references" calls for pushing behind).
type Reader interface {
	GetUserPortfolio(ctx context.Context, userID string) (Result, error)
}

// OnboardingProvisioner provisions the default free strategies for a user
// with an empty portfolio (spec.md §4.6).
type OnboardingProvisioner interface {
	ProvisionDefaults(ctx context.Context, userID string, strategyIDs []string) error
}

// Service is the C6 Strategy Catalog & Portfolio component: wraps a Reader
// with the onboarding hook and the UserOpportunityProfile derivation.
type Service struct {
	catalog      *Catalog
	reader       Reader
	provisioner  OnboardingProvisioner

	onboardMu      sync.Mutex
	onboardedUsers map[string]bool // once-per-user latch guarded by onboardMu (SPEC_FULL onboarding guard)
}

// NewService builds a C6 service. provisioner may be nil, in which case
// onboarding is a no-op (callers still get the empty-portfolio shortcut).
func NewService(catalog *Catalog, reader Reader, provisioner OnboardingProvisioner) *Service {
	return &Service{
		catalog:        catalog,
		reader:         reader,
		provisioner:    provisioner,
		onboardedUsers: make(map[string]bool),
	}
}

// Catalog exposes the underlying strategy catalog.
func (s *Service) Catalog() *Catalog { return s.catalog }

// GetUserPortfolio resolves the user's active strategies, onboarding them
// with the default free set exactly once if the portfolio is empty (spec.md
// §4.6, guarded against recursion per SPEC_FULL "Onboarding default
// strategies" via an in-process per-user latch plus the single retry).
func (s *Service) GetUserPortfolio(ctx context.Context, userID string) (Result, error) {
	result, err := s.reader.GetUserPortfolio(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("get user portfolio for %s: %w", userID, err)
	}
	if len(result.ActiveStrategies) > 0 || s.provisioner == nil {
		return result, nil
	}

	s.onboardMu.Lock()
	alreadyOnboarded := s.onboardedUsers[userID]
	if !alreadyOnboarded {
		s.onboardedUsers[userID] = true
	}
	s.onboardMu.Unlock()
	if alreadyOnboarded {
		return result, nil
	}

	if err := s.provisioner.ProvisionDefaults(ctx, userID, DefaultFreeStrategyIDs); err != nil {
		return result, fmt.Errorf("provision onboarding defaults for %s: %w", userID, err)
	}

	retried, err := s.reader.GetUserPortfolio(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("get user portfolio for %s after onboarding: %w", userID, err)
	}
	return retried, nil
}

// strategyIDs extracts the plain ID list from a portfolio result, for
// fingerprinting.
func strategyIDs(r Result) []string {
	ids := make([]string, len(r.ActiveStrategies))
	for i, a := range r.ActiveStrategies {
		ids[i] = a.StrategyID
	}
	return ids
}

// DeriveTier computes the user tier from portfolio size/cost (spec.md §3:
// "tier is basic unless (strategies>=5 and cost>=100) -> pro;
// (strategies>=10 and cost>=300) -> enterprise").
func DeriveTier(activeCount, monthlyCost int) UserTier {
	if activeCount >= 10 && monthlyCost >= 300 {
		return UserTierEnterprise
	}
	if activeCount >= 5 && monthlyCost >= 100 {
		return UserTierPro
	}
	return UserTierBasic
}

// tierLimits pairs a user tier with the max asset tier it may see and its
// default opportunity scan limit (spec.md §4.5 tier-to-limit mapping).
type tierLimits struct {
	maxAssetTier asset.Tier
	scanLimit    int
}

var tierLimitTable = map[UserTier]tierLimits{
	UserTierBasic:      {asset.TierRetail, 50},
	UserTierPro:        {asset.TierProfessional, 200},
	UserTierEnterprise: {asset.TierInstitutional, 1000},
}

// MaxAssetTierFor returns the max asset tier a user tier may see.
func MaxAssetTierFor(t UserTier) asset.Tier {
	return tierLimitTable[t].maxAssetTier
}

// ScanLimitFor returns the default opportunity scan limit for a user tier.
func ScanLimitFor(t UserTier) int {
	return tierLimitTable[t].scanLimit
}

// Profile is the C9-consumed UserOpportunityProfile (spec.md §3).
type Profile struct {
	UserID                  string
	ActiveStrategies        []ActiveStrategy
	ActiveStrategyCount     int
	TotalMonthlyStrategyCost int
	UserTier                UserTier
	MaxAssetTier            asset.Tier
	OpportunityScanLimit    int
	LastScanTime            time.Time
	StrategyFingerprint     string
}

// BuildProfile derives a UserOpportunityProfile from a raw portfolio result
// (spec.md §3 "Derived" rules).
func BuildProfile(userID string, r Result) Profile {
	tier := DeriveTier(len(r.ActiveStrategies), r.TotalMonthlyCost)
	return Profile{
		UserID:                   userID,
		ActiveStrategies:         r.ActiveStrategies,
		ActiveStrategyCount:      len(r.ActiveStrategies),
		TotalMonthlyStrategyCost: r.TotalMonthlyCost,
		UserTier:                 tier,
		MaxAssetTier:             MaxAssetTierFor(tier),
		OpportunityScanLimit:     ScanLimitFor(tier),
		StrategyFingerprint:      Fingerprint(strategyIDs(r)),
	}
}

// EmptyProfile is the circuit-breaker shell profile returned while the
// portfolio backend is unreachable (spec.md §4.9 step 2, §5 circuit
// breaker OPEN state).
func EmptyProfile(userID string) Profile {
	return Profile{
		UserID:               userID,
		UserTier:             UserTierBasic,
		MaxAssetTier:         MaxAssetTierFor(UserTierBasic),
		OpportunityScanLimit: ScanLimitFor(UserTierBasic),
		StrategyFingerprint:  "none",
	}
}
