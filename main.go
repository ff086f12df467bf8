package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cryptoscan/cache"
	"cryptoscan/config"
	"cryptoscan/exchange"
	"cryptoscan/logger"
	"cryptoscan/opportunity"
	"cryptoscan/orchestrator"
	"cryptoscan/portfolio"
	"cryptoscan/resilience"
	"cryptoscan/scanner"
	"cryptoscan/store"
	"cryptoscan/universe"
)

func main() {
	_ = godotenv.Load()

	_ = logger.Init(nil)
	logger.Info("Opportunity Discovery Engine starting")

	config.Init()
	cfg := config.Get()
	logger.Info("configuration loaded")

	dbType := store.DBTypeSQLite
	if cfg.DBType == "postgres" {
		dbType = store.DBTypePostgres
	}
	st, err := store.Open(store.DBConfig{
		Type:     dbType,
		Path:     cfg.DBPath,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		logger.Fatalf("failed to open database: %v", err)
	}
	defer st.Close()

	var primary cache.Store
	if cfg.RedisAddr != "" {
		primary = cache.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		logger.Infof("cache: using redis at %s", cfg.RedisAddr)
	} else {
		logger.Info("cache: no REDIS_ADDR set, running in-process only")
	}
	backing := cache.NewTieredStore(primary, cache.NewMemoryStore())
	ttl := cache.NewTTLCache(backing)

	exchangeRegistry := exchange.NewDefaultRegistry()
	limiter := cache.NewRateLimiter(backing, cfg.RateLimitWindow, cfg.RateLimitCooldown)
	fetcher := exchange.NewFetcher(exchangeRegistry, limiter, nil, cfg.HTTPTimeout)
	discoverer := exchange.NewDiscoverer(int64(cfg.DiscoverySemaphore), cfg.DiscoveryBudget)
	_ = discoverer // wired for operators to call DiscoverAndRegister against candidate exchanges ad hoc; no fixed candidate list ships with this core

	universeCache := universe.NewCache(ttl, exchangeRegistry, fetcher, cfg.CacheTTLUniverseRead, cfg.CacheTTLUniverseWrite)
	resolver := universe.NewResolver(st.ExchangeAccounts(), ttl, cfg.CacheTTLUserExchanges, cfg.DefaultExchanges)

	catalog := portfolio.NewDefaultCatalog()
	portfolioSvc := portfolio.NewService(catalog, newDemoPortfolioReader(), nil)
	breaker := resilience.New[portfolio.Result](cfg.CircuitBreakerThreshold, cfg.CircuitBreakerOpenDuration)

	scanners := scanner.NewDefaultRegistry()
	oppCache := opportunity.NewCache(ttl, cfg.CacheTTLOpportunitiesNonEmpty, cfg.CacheTTLOpportunitiesEmpty,
		cfg.CacheTTLOpportunitiesNonEmpty, cfg.CacheTTLOpportunitiesEmpty)
	errorMetrics := orchestrator.NewErrorMetrics(backing)

	orch := orchestrator.New(portfolioSvc, breaker, universeCache, resolver, ttl, scanners, oppCache, errorMetrics,
		cfg.ScannerSemaphore, cfg.PortfolioFetchTimeout)

	logger.Info("engine ready")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	if userID := os.Getenv("DEMO_USER_ID"); userID != "" {
		go runDemoScan(orch, userID)
	}

	<-quit
	logger.Info("shutdown signal received")
}

// runDemoScan exercises the full pipeline once for a single user, useful
// for manual smoke-testing this composition without an API layer (spec.md
// §1 excludes any external-facing server from this core's scope).
func runDemoScan(orch *orchestrator.Orchestrator, userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	env := orch.Discover(ctx, orchestrator.Params{UserID: userID, IncludeRecommendations: true})
	logger.Infof("demo scan %s for %s: success=%v total_opportunities=%d",
		env.ScanID, userID, env.Success, env.TotalOpportunities)
}

// demoPortfolioReader is a placeholder portfolio.Reader standing in for the
// credit-billing/strategy-marketplace service this core treats as an
// external collaborator (spec.md §1, §9 "cyclic service references").
// Every user resolves to an empty portfolio, which triggers the onboarding
// default-strategy path (spec.md §4.6) on first scan.
type demoPortfolioReader struct{}

func newDemoPortfolioReader() *demoPortfolioReader { return &demoPortfolioReader{} }

func (demoPortfolioReader) GetUserPortfolio(_ context.Context, _ string) (portfolio.Result, error) {
	return portfolio.Result{Success: true}, nil
}
