// Package exchange implements the Exchange Registry (C1) and Ticker Fetcher
// (C2): exchange descriptors, per-exchange payload parsers, dynamic
// discovery of new exchanges, and rate-limited ticker ingestion.
package exchange

import (
	"fmt"
	"net/http"
	"sort"
	"sync"
)

// Capability is an optional feature an exchange descriptor may advertise.
type Capability string

const (
	CapSpotTrading     Capability = "spot_trading"
	CapFuturesTrading  Capability = "futures_trading"
	CapOptionsTrading  Capability = "options_trading"
	CapOrderBook       Capability = "order_book"
	CapWebsocketStream Capability = "websocket_streams"
	CapTradingHistory  Capability = "trading_history"
)

// AssetType selects which URL template a fetch uses.
type AssetType string

const (
	AssetTypeSpot    AssetType = "spot"
	AssetTypeFutures AssetType = "futures"
)

// Descriptor describes one exchange's endpoints, parser, and limits
// (spec.md §3 "ExchangeDescriptor").
type Descriptor struct {
	ID                 string
	DisplayName        string
	SpotURL            string
	FuturesURL         string
	ParserKey          string
	RateLimitPerMinute int
	Capabilities       map[Capability]bool
	Priority           int

	// RequestMethod/RequestBody override the default GET-with-no-body
	// request, needed by exchanges whose ticker endpoint is POST-based
	// (Hyperliquid's /info). Empty RequestMethod means GET.
	RequestMethod string
	RequestBody   []byte
}

// Validate enforces the descriptor invariant: either a spot or futures URL
// must be populated to participate.
func (d Descriptor) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("exchange descriptor: id must not be empty")
	}
	if d.SpotURL == "" && d.FuturesURL == "" {
		return fmt.Errorf("exchange %s: either spot_url or futures_url must be set", d.ID)
	}
	return nil
}

// HasCapability reports whether the descriptor advertises cap.
func (d Descriptor) HasCapability(cap Capability) bool {
	return d.Capabilities != nil && d.Capabilities[cap]
}

// URLFor returns the endpoint template for the given asset type, and
// whether the descriptor supports it.
func (d Descriptor) URLFor(t AssetType) (string, bool) {
	switch t {
	case AssetTypeFutures:
		return d.FuturesURL, d.FuturesURL != ""
	default:
		return d.SpotURL, d.SpotURL != ""
	}
}

// Registry is the C1 Exchange Registry: enumerates exchanges, their
// endpoint templates, parsers, and rate-limit budgets.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[string]Descriptor
	parsers     map[string]Parser
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		descriptors: make(map[string]Descriptor),
		parsers:     make(map[string]Parser),
	}
}

// Register adds (or replaces) a descriptor and binds it to a parser.
func (r *Registry) Register(d Descriptor, p Parser) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("exchange %s: parser must not be nil", d.ID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.descriptors[d.ID] = d
	r.parsers[d.ParserKey] = p
	return nil
}

// Get returns the descriptor for id.
func (r *Registry) Get(id string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[id]
	return d, ok
}

// Parser returns the parser bound to a descriptor's ParserKey.
func (r *Registry) Parser(key string) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parsers[key]
	return p, ok
}

// All returns every registered descriptor, sorted by Priority ascending
// then ID, for deterministic iteration (spec.md §5 "ordering guarantees").
func (r *Registry) All() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// IDs returns every registered exchange id in the same deterministic order
// as All.
func (r *Registry) IDs() []string {
	all := r.All()
	ids := make([]string, len(all))
	for i, d := range all {
		ids[i] = d.ID
	}
	return ids
}

// Priority returns a registered exchange's priority, used by the asset
// classifier's best-quote tie-break (§4.3). Unregistered exchanges sort
// last.
func (r *Registry) Priority(exchangeID string) int {
	if d, ok := r.Get(exchangeID); ok {
		return d.Priority
	}
	return 1 << 30
}

// NewDefaultRegistry returns a registry pre-populated with the exchanges
// named in spec.md §6 platform defaults plus the pack-grounded parsers this
// core ships, each bound to its own dedicated parser (binance, bybit,
// kraken, kucoin, hyperliquid).
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	must := func(d Descriptor, p Parser) {
		if err := r.Register(d, p); err != nil {
			panic(fmt.Sprintf("default exchange registry: %v", err))
		}
	}

	must(Descriptor{
		ID:                 "binance",
		DisplayName:        "Binance",
		SpotURL:            "https://api.binance.com",
		FuturesURL:         "https://fapi.binance.com",
		ParserKey:          "binance",
		RateLimitPerMinute: 1200,
		Priority:           1,
		Capabilities: map[Capability]bool{
			CapSpotTrading: true, CapFuturesTrading: true, CapOrderBook: true, CapWebsocketStream: true,
		},
	}, ParseBinance)

	must(Descriptor{
		ID:                 "bybit",
		DisplayName:        "Bybit",
		SpotURL:            "https://api.bybit.com",
		FuturesURL:         "https://api.bybit.com",
		ParserKey:          "bybit",
		RateLimitPerMinute: 600,
		Priority:           2,
		Capabilities: map[Capability]bool{
			CapSpotTrading: true, CapFuturesTrading: true, CapOrderBook: true,
		},
	}, ParseBybit)

	must(Descriptor{
		ID:                 "kraken",
		DisplayName:        "Kraken",
		SpotURL:            "https://api.kraken.com",
		ParserKey:          "kraken",
		RateLimitPerMinute: 60,
		Priority:           3,
		Capabilities: map[Capability]bool{
			CapSpotTrading: true, CapOrderBook: true,
		},
	}, ParseKraken)

	must(Descriptor{
		ID:                 "kucoin",
		DisplayName:        "KuCoin",
		SpotURL:            "https://api.kucoin.com",
		ParserKey:          "kucoin",
		RateLimitPerMinute: 180,
		Priority:           4,
		Capabilities: map[Capability]bool{
			CapSpotTrading: true, CapOrderBook: true,
		},
	}, ParseKucoinTickers)

	must(Descriptor{
		ID:                 "hyperliquid",
		DisplayName:        "Hyperliquid",
		FuturesURL:         "https://api.hyperliquid.xyz",
		ParserKey:          "hyperliquid",
		RateLimitPerMinute: 1200,
		Priority:           5,
		Capabilities: map[Capability]bool{
			CapFuturesTrading: true, CapOrderBook: true,
		},
		RequestMethod: http.MethodPost,
		RequestBody:   []byte(`{"type":"metaAndAssetCtxs"}`),
	}, ParseHyperliquid)

	return r
}
