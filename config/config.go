// Package config loads this core's runtime knobs from the environment,
// following the teacher's global-singleton-loaded-from-env style.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Global configuration instance.
var global *Config

// Config is the global configuration (loaded from .env). Every timing and
// concurrency knob named in spec.md §6 lives here.
type Config struct {
	// Database configuration (store package, C5 ExchangeAccount read-model).
	DBType     string
	DBPath     string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Cache backend (cache package, C4/C10).
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Cache TTLs.
	CacheTTLUniverseRead         time.Duration
	CacheTTLUniverseWrite        time.Duration
	CacheTTLSymbolUniverse       time.Duration
	CacheTTLOpportunitiesNonEmpty time.Duration
	CacheTTLOpportunitiesEmpty   time.Duration
	CacheTTLUserExchanges        time.Duration
	CacheTTLErrorLog             time.Duration
	CacheTTLPerUserErrorCounter  time.Duration

	// HTTP/exchange tuning (C1/C2).
	HTTPTimeout             time.Duration
	RateLimitWindow         time.Duration
	RateLimitCooldown       time.Duration
	DiscoverySemaphore      int
	DiscoveryBudget         time.Duration

	// Portfolio / circuit breaker (C6, §5).
	PortfolioFetchTimeout       time.Duration
	CircuitBreakerThreshold     int
	CircuitBreakerOpenDuration  time.Duration

	// Orchestrator concurrency (C9, §5).
	ScannerSemaphore        int
	PerScannerConcurrencyMin int
	PerScannerConcurrencyMax int
	PricePreloadConcurrency int
	PricePreloadBatchSize   int

	// Platform defaults (§6).
	DefaultExchanges []string
}

// Init initializes global configuration from environment variables.
func Init() {
	cfg := &Config{
		DBType:    "sqlite",
		DBPath:    "data/opportunity_engine.db",
		DBHost:    "localhost",
		DBPort:    5432,
		DBUser:    "postgres",
		DBName:    "opportunity_engine",
		DBSSLMode: "disable",

		RedisAddr: "",
		RedisDB:   0,

		CacheTTLUniverseRead:          300 * time.Second,
		CacheTTLUniverseWrite:         600 * time.Second,
		CacheTTLSymbolUniverse:        900 * time.Second,
		CacheTTLOpportunitiesNonEmpty: 900 * time.Second,
		CacheTTLOpportunitiesEmpty:    120 * time.Second,
		CacheTTLUserExchanges:         300 * time.Second,
		CacheTTLErrorLog:              3 * 24 * time.Hour,
		CacheTTLPerUserErrorCounter:   24 * time.Hour,

		HTTPTimeout:       15 * time.Second,
		RateLimitWindow:   60 * time.Second,
		RateLimitCooldown: 300 * time.Second,

		DiscoverySemaphore: 10,
		DiscoveryBudget:    15 * time.Second,

		PortfolioFetchTimeout:      45 * time.Second,
		CircuitBreakerThreshold:    3,
		CircuitBreakerOpenDuration: 60 * time.Second,

		ScannerSemaphore:         3,
		PerScannerConcurrencyMin: 3,
		PerScannerConcurrencyMax: 10,
		PricePreloadConcurrency:  50,
		PricePreloadBatchSize:    50,

		DefaultExchanges: []string{"binance", "kraken", "kucoin"},
	}

	if v := os.Getenv("DB_TYPE"); v != "" {
		cfg.DBType = strings.ToLower(v)
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.DBHost = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.DBPort = port
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.DBUser = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.DBPassword = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.DBName = v
	}
	if v := os.Getenv("DB_SSLMODE"); v != "" {
		cfg.DBSSLMode = v
	}

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RedisDB = n
		}
	}

	durationEnv("CACHE_TTL_UNIVERSE_READ", &cfg.CacheTTLUniverseRead)
	durationEnv("CACHE_TTL_UNIVERSE_WRITE", &cfg.CacheTTLUniverseWrite)
	durationEnv("CACHE_TTL_SYMBOL_UNIVERSE", &cfg.CacheTTLSymbolUniverse)
	durationEnv("CACHE_TTL_OPPORTUNITIES_NONEMPTY", &cfg.CacheTTLOpportunitiesNonEmpty)
	durationEnv("CACHE_TTL_OPPORTUNITIES_EMPTY", &cfg.CacheTTLOpportunitiesEmpty)
	durationEnv("CACHE_TTL_USER_EXCHANGES", &cfg.CacheTTLUserExchanges)
	durationEnv("HTTP_TIMEOUT", &cfg.HTTPTimeout)
	durationEnv("RATE_LIMIT_WINDOW", &cfg.RateLimitWindow)
	durationEnv("RATE_LIMIT_COOLDOWN", &cfg.RateLimitCooldown)
	durationEnv("DISCOVERY_BUDGET", &cfg.DiscoveryBudget)
	durationEnv("PORTFOLIO_FETCH_TIMEOUT", &cfg.PortfolioFetchTimeout)
	durationEnv("CIRCUIT_BREAKER_OPEN_DURATION", &cfg.CircuitBreakerOpenDuration)

	intEnv("DISCOVERY_SEMAPHORE", &cfg.DiscoverySemaphore)
	intEnv("CIRCUIT_BREAKER_THRESHOLD", &cfg.CircuitBreakerThreshold)
	intEnv("SCANNER_SEMAPHORE", &cfg.ScannerSemaphore)
	intEnv("PRICE_PRELOAD_CONCURRENCY", &cfg.PricePreloadConcurrency)
	intEnv("PRICE_PRELOAD_BATCH_SIZE", &cfg.PricePreloadBatchSize)

	if v := os.Getenv("DEFAULT_EXCHANGES"); v != "" {
		parts := strings.Split(v, ",")
		exchanges := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(strings.ToLower(p))
			if p != "" {
				exchanges = append(exchanges, p)
			}
		}
		if len(exchanges) > 0 {
			cfg.DefaultExchanges = exchanges
		}
	}

	global = cfg
}

func durationEnv(key string, dst *time.Duration) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		*dst = time.Duration(secs) * time.Second
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}

func intEnv(key string, dst *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 0 {
		*dst = n
	}
}

// Get returns the global configuration, initializing it on first use.
func Get() *Config {
	if global == nil {
		Init()
	}
	return global
}
