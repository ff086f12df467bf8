package exchange

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cryptoscan/asset"
)

// krakenTickerResponse mirrors GET /0/public/Ticker's { "result": { PAIR:
// {"c": [price, ...], "v": [vol today, vol24h], "h": [...], "l": [...]} } }
// shape, grounded on original_source's _parse_kraken.
type krakenTickerResponse struct {
	Error  []string                    `json:"error"`
	Result map[string]krakenPairTicker `json:"result"`
}

type krakenPairTicker struct {
	C []string `json:"c"` // [last trade price, lot volume]
	V []string `json:"v"` // [volume today, volume last 24h]
	H []string `json:"h"`
	L []string `json:"l"`
}

// ParseKraken parses a Kraken public ticker response into normalized
// assets.
func ParseKraken(exchangeID string, body []byte) (map[string]asset.Asset, error) {
	var resp krakenTickerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("kraken: decode ticker response: %w", err)
	}
	if len(resp.Error) > 0 {
		return nil, fmt.Errorf("kraken: API error: %s", strings.Join(resp.Error, "; "))
	}

	out := make(map[string]asset.Asset)
	now := time.Now().UTC()
	for pair, t := range resp.Result {
		// Kraken uses XBT for Bitcoin and often prefixes legacy pairs with X/Z.
		normalized := strings.ReplaceAll(strings.ToUpper(pair), "XBT", "BTC")
		base, quote, ok := asset.SplitSymbolQuote(normalized)
		if !ok {
			continue
		}
		var price, volumeUnits float64
		if len(t.C) > 0 {
			price, _ = strconv.ParseFloat(t.C[0], 64)
		}
		if len(t.V) > 1 {
			volumeUnits, _ = strconv.ParseFloat(t.V[1], 64)
		}

		a := asset.Asset{
			Symbol:       base,
			Quote:        quote,
			Exchange:     exchangeID,
			PriceUSD:     price,
			Volume24hUSD: volumeUnits * price,
			LastUpdated:  now,
			Metadata:     map[string]any{},
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
