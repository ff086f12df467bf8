package exchange

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cryptoscan/asset"
)

// kucoinTickersResponse mirrors GET /api/v1/market/allTickers's
// {"data": {"ticker": [{symbol, last, volValue, changeRate, high, low}...]}},
// grounded on original_source's kucoin_parser.
type kucoinTickersResponse struct {
	Data struct {
		Ticker []kucoinTicker `json:"ticker"`
	} `json:"data"`
}

type kucoinTicker struct {
	Symbol     string `json:"symbol"`
	Last       string `json:"last"`
	VolValue   string `json:"volValue"`
	ChangeRate string `json:"changeRate"`
	High       string `json:"high"`
	Low        string `json:"low"`
}

// ParseKucoinTickers parses KuCoin's allTickers response into normalized
// assets.
func ParseKucoinTickers(exchangeID string, body []byte) (map[string]asset.Asset, error) {
	var resp kucoinTickersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("kucoin: decode tickers response: %w", err)
	}

	out := make(map[string]asset.Asset)
	now := time.Now().UTC()
	for _, t := range resp.Data.Ticker {
		// KuCoin symbols are hyphen-delimited ("BTC-USDT"), unlike the
		// concatenated form the other parsers strip a known suffix from.
		parts := strings.SplitN(t.Symbol, "-", 2)
		if len(parts) != 2 || len(parts[0]) < 2 || parts[1] == "" {
			continue
		}
		base, quote := strings.ToUpper(parts[0]), strings.ToUpper(parts[1])
		price, _ := strconv.ParseFloat(t.Last, 64)
		volumeUSD, _ := strconv.ParseFloat(t.VolValue, 64)
		changeRate, _ := strconv.ParseFloat(t.ChangeRate, 64)
		high, _ := strconv.ParseFloat(t.High, 64)
		low, _ := strconv.ParseFloat(t.Low, 64)

		a := asset.Asset{
			Symbol:       base,
			Quote:        quote,
			Exchange:     exchangeID,
			PriceUSD:     price,
			Volume24hUSD: volumeUSD,
			LastUpdated:  now,
			Metadata: map[string]any{
				"change_pct_24h": changeRate,
				"high_24h":       high,
				"low_24h":        low,
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
