package exchange

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"cryptoscan/asset"
)

// binanceTicker mirrors the fields go-binance/v2's futures.PriceChangeStats
// exposes for GET /fapi/v1/ticker/24hr (and the spot equivalent), decoded
// directly from JSON rather than through the client so the parser can be
// exercised against arbitrary recorded fixtures in tests.
type binanceTicker struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	QuoteVolume        string `json:"quoteVolume"`
	PriceChangePercent string `json:"priceChangePercent"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
}

// ParseBinance parses a Binance 24hr ticker array (spot or futures; both
// endpoints share this shape) into normalized assets, grounded on the
// fields go-binance/v2/futures.PriceChangeStats exposes.
func ParseBinance(exchangeID string, body []byte) (map[string]asset.Asset, error) {
	var tickers []binanceTicker
	if err := json.Unmarshal(body, &tickers); err != nil {
		return nil, fmt.Errorf("binance: decode ticker array: %w", err)
	}

	out := make(map[string]asset.Asset)
	now := time.Now().UTC()
	for _, t := range tickers {
		base, quote, ok := asset.SplitSymbolQuote(t.Symbol)
		if !ok {
			continue
		}
		price, _ := strconv.ParseFloat(t.LastPrice, 64)
		quoteVolume, _ := strconv.ParseFloat(t.QuoteVolume, 64)
		high, _ := strconv.ParseFloat(t.HighPrice, 64)
		low, _ := strconv.ParseFloat(t.LowPrice, 64)
		changePct, _ := strconv.ParseFloat(t.PriceChangePercent, 64)

		a := asset.Asset{
			Symbol:       base,
			Quote:        quote,
			Exchange:     exchangeID,
			PriceUSD:     price,
			Volume24hUSD: quoteVolume,
			LastUpdated:  now,
			Metadata: map[string]any{
				"high_24h":        high,
				"low_24h":         low,
				"change_pct_24h":  changePct,
				"source_exchange": exchangeID,
			},
		}
		if !accept(a) {
			continue
		}
		if existing, ok := out[a.Symbol]; ok && existing.Volume24hUSD >= a.Volume24hUSD {
			continue
		}
		out[a.Symbol] = a
	}
	return out, nil
}
