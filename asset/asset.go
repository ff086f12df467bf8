package asset

import (
	"fmt"
	"strings"
	"time"
)

// knownQuoteSuffixes are stripped from raw exchange symbols in this order,
// per spec.md §4.2.
var knownQuoteSuffixes = []string{"USDT", "BUSD", "USDC", "BTC", "ETH", "BNB", "USD", "EUR"}

// Asset is a normalized tradeable instrument, identified by (Symbol,
// Exchange). Immutable once published (spec.md §3): after classification it
// must not be mutated.
type Asset struct {
	Symbol       string // base symbol, uppercase, quote stripped
	Quote        string
	Exchange     string
	PriceUSD     float64
	Volume24hUSD float64
	MarketCapUSD float64 // optional, 0 if unknown
	Metadata     map[string]any
	LastUpdated  time.Time
	Tier         Tier // assigned by the classifier; zero value until then
}

// Validate enforces the §3 Asset invariants.
func (a Asset) Validate() error {
	if strings.TrimSpace(a.Symbol) == "" {
		return fmt.Errorf("asset: symbol must not be empty")
	}
	if a.PriceUSD <= 0 {
		return fmt.Errorf("asset %s: price_usd must be > 0, got %v", a.Symbol, a.PriceUSD)
	}
	if a.Volume24hUSD < 0 {
		return fmt.Errorf("asset %s: volume_24h_usd must be >= 0, got %v", a.Symbol, a.Volume24hUSD)
	}
	return nil
}

// Key identifies an asset by (symbol, exchange).
type Key struct {
	Symbol   string
	Exchange string
}

func (a Asset) Key() Key { return Key{Symbol: a.Symbol, Exchange: a.Exchange} }

// SplitSymbolQuote strips the first matching known quote suffix from a raw
// exchange symbol (e.g. "BTCUSDT" -> "BTC", "USDT"). Returns ok=false if no
// known suffix matches or the remaining base is shorter than 2 characters,
// per spec.md §4.2.
func SplitSymbolQuote(raw string) (base, quote string, ok bool) {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	for _, suffix := range knownQuoteSuffixes {
		if strings.HasSuffix(upper, suffix) && len(upper) > len(suffix) {
			base = strings.TrimSuffix(upper, suffix)
			if len(base) >= 2 {
				return base, suffix, true
			}
		}
	}
	return "", "", false
}
