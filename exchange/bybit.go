package exchange

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"cryptoscan/asset"
)

// bybitTickersResponse mirrors the v5 /market/tickers envelope
// (github.com/bybit-exchange/bybit.go.api's ServerResponse.Result, as used
// by the teacher's BybitTrader.GetMarketPrice: result.Result is a
// map[string]any with a "list" array of per-symbol ticker objects).
type bybitTickersResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		List []bybitTicker `json:"list"`
	} `json:"result"`
}

type bybitTicker struct {
	Symbol      string `json:"symbol"`
	LastPrice   string `json:"lastPrice"`
	Volume24h   string `json:"volume24h"`
	Turnover24h string `json:"turnover24h"`
	HighPrice24h string `json:"highPrice24h"`
	LowPrice24h  string `json:"lowPrice24h"`
	FundingRate  string `json:"fundingRate"`
}

// ParseBybit parses a Bybit v5 market tickers response into normalized
// assets.
func ParseBybit(exchangeID string, body []byte) (map[string]asset.Asset, error) {
	var resp bybitTickersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("bybit: decode tickers response: %w", err)
	}
	if resp.RetCode != 0 {
		return nil, fmt.Errorf("bybit: API error %d: %s", resp.RetCode, resp.RetMsg)
	}

	out := make(map[string]asset.Asset)
	now := time.Now().UTC()
	for _, t := range resp.Result.List {
		base, quote, ok := asset.SplitSymbolQuote(t.Symbol)
		if !ok {
			continue
		}
		price, _ := strconv.ParseFloat(t.LastPrice, 64)
		turnover, _ := strconv.ParseFloat(t.Turnover24h, 64)
		high, _ := strconv.ParseFloat(t.HighPrice24h, 64)
		low, _ := strconv.ParseFloat(t.LowPrice24h, 64)
		funding, _ := strconv.ParseFloat(t.FundingRate, 64)

		a := asset.Asset{
			Symbol:       base,
			Quote:        quote,
			Exchange:     exchangeID,
			PriceUSD:     price,
			Volume24hUSD: turnover,
			LastUpdated:  now,
			Metadata: map[string]any{
				"high_24h":     high,
				"low_24h":      low,
				"funding_rate": funding,
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
