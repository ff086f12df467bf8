package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"cryptoscan/hook"
	"cryptoscan/logger"
	"cryptoscan/security"
)

// Candidate is a dynamically discovered exchange awaiting a compatibility
// test before it is allowed to participate (spec.md §4.1 dynamic exchange
// discovery). TrustScore and Volume24hBTC come from the third-party exchange
// metadata source named in §4.1 ("Registry format only: id, name, api_url,
// capability flags, trust score, 24h volume in BTC") and drive capability
// and rate-limit inference; a source that omits them contributes zero,
// which maps to the lowest inference bucket.
type Candidate struct {
	ID           string
	APIURL       string
	TrustScore   float64
	Volume24hBTC float64
}

// inferCapabilities applies spec.md §4.1's capability inference rule to a
// candidate's trust score and 24h BTC volume.
func inferCapabilities(c Candidate) map[Capability]bool {
	caps := map[Capability]bool{CapSpotTrading: true}
	if c.TrustScore >= 7 || c.Volume24hBTC >= 1000 {
		caps[CapTradingHistory] = true
		caps[CapWebsocketStream] = true
	}
	if c.TrustScore >= 8 || c.Volume24hBTC >= 5000 {
		caps[CapFuturesTrading] = true
	}
	if c.TrustScore >= 9 || c.Volume24hBTC >= 10000 {
		caps[CapOptionsTrading] = true
	}
	return caps
}

// inferRateLimit applies spec.md §4.1's rate-limit inference rule.
func inferRateLimit(c Candidate) int {
	switch {
	case c.TrustScore >= 9 && c.Volume24hBTC >= 10000:
		return 1200
	case c.TrustScore >= 7 && c.Volume24hBTC >= 5000:
		return 600
	case c.TrustScore >= 5 && c.Volume24hBTC >= 1000:
		return 300
	default:
		return 60
	}
}

// compatibilityEndpoints are the candidate probes tried for a new exchange,
// in the order given in spec.md §4.1, grounded on
// original_source/app/services/dynamic_exchange_discovery.py's
// _test_single_exchange.
var compatibilityEndpoints = []struct {
	path        string
	expectedKey string
}{
	{"/ticker", "price"},
	{"/ticker/BTCUSDT", "price"},
	{"/markets", ""},
	{"/time", "serverTime"},
	{"/tickers", ""},
}

// Discoverer runs the C1 compatibility test against candidate exchanges:
// bounded concurrency, SSRF-guarded requests, a per-exchange time budget.
type Discoverer struct {
	sem         *semaphore.Weighted
	budget      time.Duration
	client      *http.Client
	validateURL bool
}

// NewDiscoverer builds a Discoverer. maxConcurrent and budget come from
// spec.md §6 (discovery_semaphore=10, 15s overall budget per exchange).
func NewDiscoverer(maxConcurrent int64, budget time.Duration) *Discoverer {
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	client := security.SafeHTTPClient(10 * time.Second)
	validateURL := true
	// Tests register SET_HTTP_CLIENT to point probes at an httptest server.
	// That server is necessarily loopback, so the SSRF guard — which exists
	// to stop a candidate's api_url from redirecting a real probe into the
	// host's private network — is switched off along with the guarded
	// dialer; a caller-supplied client is trusted to already be scoped to
	// the destination it wants probed.
	if override := hook.HookExec[hook.SetHTTPClientResult](hook.SET_HTTP_CLIENT, client); override != nil {
		if c := override.GetResult(); c != nil {
			client = c
			validateURL = false
		}
	}
	return &Discoverer{
		sem:         semaphore.NewWeighted(maxConcurrent),
		budget:      budget,
		client:      client,
		validateURL: validateURL,
	}
}

// TestCompatible probes every candidate concurrently (bounded by the
// discovery semaphore) and returns the ids of those that responded with a
// recognizable ticker/markets/time payload.
func (d *Discoverer) TestCompatible(ctx context.Context, candidates []Candidate) []string {
	type result struct {
		id string
		ok bool
	}
	results := make(chan result, len(candidates))

	for _, c := range candidates {
		go func(cand Candidate) {
			if err := d.sem.Acquire(ctx, 1); err != nil {
				results <- result{id: cand.ID, ok: false}
				return
			}
			defer d.sem.Release(1)

			probeCtx, cancel := context.WithTimeout(ctx, d.budget)
			defer cancel()
			ok := d.testSingle(probeCtx, cand)
			results <- result{id: cand.ID, ok: ok}
		}(c)
	}

	var compatible []string
	for range candidates {
		r := <-results
		if r.ok {
			compatible = append(compatible, r.id)
		}
	}
	return compatible
}

// testSingle issues requests against each candidate endpoint in sequence,
// returning true on the first structurally valid response. Real exchange
// discovery would race these concurrently under FIRST_COMPLETED semantics
// (as the Python original does); this core keeps the simpler sequential
// form since the per-exchange budget already bounds total latency.
func (d *Discoverer) testSingle(ctx context.Context, c Candidate) bool {
	if c.APIURL == "" {
		return false
	}
	for _, ep := range compatibilityEndpoints {
		url := c.APIURL + ep.path
		if d.validateURL {
			if err := security.ValidateURL(url); err != nil {
				logger.Debugf("discovery: %s endpoint %s blocked: %v", c.ID, ep.path, err)
				continue
			}
		}
		if d.probe(ctx, url, ep.expectedKey) {
			return true
		}
	}
	return false
}

func (d *Discoverer) probe(ctx context.Context, url, expectedKey string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return false
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return false
	}
	return validateShape(decoded, expectedKey)
}

// validateShape mirrors _validate_response_structure: a generic non-empty
// object/array passes when no specific key is named; a named key must
// appear in the (first element of an) object, and a "serverTime"-style key
// must parse as a timestamp greater than 1e9.
func validateShape(data any, expectedKey string) bool {
	switch v := data.(type) {
	case map[string]any:
		if len(v) == 0 {
			return false
		}
		if expectedKey == "" {
			return true
		}
		if expectedKey == "serverTime" {
			return hasValidTimestamp(v)
		}
		_, ok := v[expectedKey]
		return ok
	case []any:
		if len(v) == 0 {
			return false
		}
		if expectedKey == "" {
			return true
		}
		first, ok := v[0].(map[string]any)
		if !ok {
			return false
		}
		_, ok = first[expectedKey]
		return ok
	default:
		return false
	}
}

func hasValidTimestamp(v map[string]any) bool {
	for _, key := range []string{"serverTime", "timestamp", "time"} {
		raw, ok := v[key]
		if !ok {
			continue
		}
		switch n := raw.(type) {
		case float64:
			if n > 1e9 {
				return true
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil && f > 1e9 {
				return true
			}
		}
	}
	return false
}

// DiscoverAndRegister tests candidates and registers the compatible ones
// into registry using a generic ccxt-style ticker parser, grounded on
// original_source's "no hardcoded limitations" dynamic integration: a newly
// discovered exchange gets its priority placed after every platform default,
// and its capabilities and rate limit derived from its trust score and 24h
// BTC volume (spec.md §4.1 inference rule) rather than the hand-tuned
// descriptors of the platform defaults.
func (d *Discoverer) DiscoverAndRegister(ctx context.Context, registry *Registry, candidates []Candidate) []string {
	compatible := d.TestCompatible(ctx, candidates)
	byID := make(map[string]Candidate, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}

	nextPriority := len(registry.All()) + 1
	var registered []string
	for _, id := range compatible {
		c := byID[id]
		parserKey := fmt.Sprintf("generic:%s", c.ID)
		err := registry.Register(Descriptor{
			ID:                 c.ID,
			DisplayName:        c.ID,
			SpotURL:            c.APIURL,
			ParserKey:          parserKey,
			RateLimitPerMinute: inferRateLimit(c),
			Priority:           nextPriority,
			Capabilities:       inferCapabilities(c),
		}, genericParserFor(c.ID))
		if err != nil {
			logger.Warnf("discovery: failed to register %s: %v", c.ID, err)
			continue
		}
		registered = append(registered, c.ID)
		nextPriority++
	}
	return registered
}
