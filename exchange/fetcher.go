package exchange

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"cryptoscan/asset"
	"cryptoscan/cache"
	"cryptoscan/logger"
)

// Fetcher is the C2 Ticker Fetcher: one HTTP request per (exchange, asset
// type) — a GET unless the descriptor sets another method (Hyperliquid POST) —
// gated by the shared rate limiter, dispatched to the registered parser.
// Errors never propagate as failures to callers — absence of data is a
// valid outcome (spec.md §4.2) — every non-nil error this returns indicates
// a programmer mistake (unknown exchange/parser), not a runtime condition.
type Fetcher struct {
	registry *Registry
	limiter  *cache.RateLimiter
	client   *http.Client
	timeout  time.Duration
}

// NewFetcher builds a Fetcher. client may be nil, in which case a default
// client with the given timeout is used; the hook package is not consulted
// here, so tests pass their own client directly.
func NewFetcher(registry *Registry, limiter *cache.RateLimiter, client *http.Client, timeout time.Duration) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Fetcher{registry: registry, limiter: limiter, client: client, timeout: timeout}
}

// Fetch performs one ticker fetch for (exchangeID, assetType). On any
// runtime failure (rate limit exceeded, timeout, non-200, parse error) it
// logs and returns an empty map with a nil error.
func (f *Fetcher) Fetch(ctx context.Context, exchangeID string, assetType AssetType) (map[string]asset.Asset, error) {
	d, ok := f.registry.Get(exchangeID)
	if !ok {
		return nil, fmt.Errorf("exchange %s is not registered", exchangeID)
	}
	parser, ok := f.registry.Parser(d.ParserKey)
	if !ok {
		return nil, fmt.Errorf("exchange %s: no parser registered for key %s", exchangeID, d.ParserKey)
	}
	url, ok := d.URLFor(assetType)
	if !ok {
		logger.Warnf("exchange %s does not support asset type %s", exchangeID, assetType)
		return map[string]asset.Asset{}, nil
	}

	if f.limiter != nil {
		allowed, err := f.limiter.Allow(ctx, exchangeID, d.RateLimitPerMinute)
		if err != nil {
			logger.Warnf("exchange %s: rate limiter error, proceeding cold: %v", exchangeID, err)
		} else if !allowed {
			logger.Debugf("exchange %s: rate limit budget exhausted, skipping fetch", exchangeID)
			return map[string]asset.Asset{}, nil
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	method := d.RequestMethod
	if method == "" {
		method = http.MethodGet
	}
	var bodyReader io.Reader
	if len(d.RequestBody) > 0 {
		bodyReader = bytes.NewReader(d.RequestBody)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, tickerEndpoint(url, assetType), bodyReader)
	if err != nil {
		logger.Warnf("exchange %s: build request: %v", exchangeID, err)
		return map[string]asset.Asset{}, nil
	}
	req.Header.Set("User-Agent", "cryptoscan-opportunity-engine/1.0")
	req.Header.Set("Accept", "application/json")
	if len(d.RequestBody) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		logger.Warnf("exchange %s: request failed: %v", exchangeID, err)
		return map[string]asset.Asset{}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		if f.limiter != nil {
			if err := f.limiter.MarkRateLimited(ctx, exchangeID); err != nil {
				logger.Warnf("exchange %s: failed to record rate-limit cooldown: %v", exchangeID, err)
			}
		}
		logger.Warnf("exchange %s: HTTP 429, entering cooldown", exchangeID)
		return map[string]asset.Asset{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		logger.Warnf("exchange %s: unexpected status %d", exchangeID, resp.StatusCode)
		return map[string]asset.Asset{}, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		logger.Warnf("exchange %s: read response: %v", exchangeID, err)
		return map[string]asset.Asset{}, nil
	}

	assets, err := parser(exchangeID, body)
	if err != nil {
		logger.Warnf("exchange %s: parse response: %v", exchangeID, err)
		return map[string]asset.Asset{}, nil
	}
	return assets, nil
}

// FetchAll fetches the tickers of assetType for each of exchangeIDs
// concurrently, collecting results into a per-exchange map suitable for
// asset.SelectBestQuotes. A single exchange's failure never aborts the
// others.
func (f *Fetcher) FetchAll(ctx context.Context, exchangeIDs []string, assetType AssetType) map[string]map[string]asset.Asset {
	type result struct {
		id     string
		assets map[string]asset.Asset
	}
	results := make(chan result, len(exchangeIDs))

	for _, id := range exchangeIDs {
		go func(exchangeID string) {
			assets, err := f.Fetch(ctx, exchangeID, assetType)
			if err != nil {
				logger.Warnf("exchange %s: fetch error: %v", exchangeID, err)
				assets = map[string]asset.Asset{}
			}
			results <- result{id: exchangeID, assets: assets}
		}(id)
	}

	out := make(map[string]map[string]asset.Asset, len(exchangeIDs))
	for range exchangeIDs {
		r := <-results
		out[r.id] = r.assets
	}
	return out
}

// tickerEndpoint appends the conventional ticker path for spot (24hr
// aggregated ticker) vs futures endpoints to the bare base URLs the default
// registry stores (Binance, Bybit, Kraken, KuCoin, Hyperliquid). Any other
// URL, such as a dynamically discovered exchange's, is used unchanged.
func tickerEndpoint(base string, assetType AssetType) string {
	switch base {
	case "https://api.binance.com":
		return base + "/api/v3/ticker/24hr"
	case "https://fapi.binance.com":
		return base + "/fapi/v1/ticker/24hr"
	case "https://api.bybit.com":
		if assetType == AssetTypeFutures {
			return base + "/v5/market/tickers?category=linear"
		}
		return base + "/v5/market/tickers?category=spot"
	case "https://api.kraken.com":
		return base + "/0/public/Ticker"
	case "https://api.kucoin.com":
		return base + "/api/v1/market/allTickers"
	case "https://api.hyperliquid.xyz":
		return base + "/info"
	default:
		return base
	}
}
