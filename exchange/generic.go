package exchange

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cryptoscan/asset"
)

// genericTicker is the lowest-common-denominator ccxt-style ticker shape:
// a flat object or array of objects each carrying symbol/price/volume under
// one of several commonly used key spellings. Dynamically discovered
// exchanges (spec.md §4.1) are not hand-mapped to a bespoke struct, so
// parsing them falls back to this tolerant shape instead of a strict one.
type genericTicker struct {
	Symbol string `json:"symbol"`
	Pair   string `json:"pair"`
	Price  any    `json:"price"`
	Last   any    `json:"last"`
	Volume any    `json:"volume"`
	Vol    any    `json:"vol"`
}

// genericParserFor builds a Parser for a dynamically discovered exchange.
// It tolerates either a bare array of tickers or an object wrapping one
// under "data"/"result"/"tickers", and accepts numeric or stringified
// price/volume fields — this is deliberately loose since the exchange's
// exact response shape was never hand-verified, only smoke-tested by the
// compatibility probe.
func genericParserFor(exchangeID string) Parser {
	return func(parserExchangeID string, body []byte) (map[string]asset.Asset, error) {
		tickers, err := decodeGenericTickers(body)
		if err != nil {
			return nil, fmt.Errorf("%s: decode generic tickers: %w", exchangeID, err)
		}

		out := make(map[string]asset.Asset)
		now := time.Now().UTC()
		for _, t := range tickers {
			raw := t.Symbol
			if raw == "" {
				raw = t.Pair
			}
			raw = strings.ToUpper(strings.ReplaceAll(raw, "-", ""))
			raw = strings.ReplaceAll(raw, "/", "")
			base, quote, ok := asset.SplitSymbolQuote(raw)
			if !ok {
				continue
			}
			price := toFloat(t.Price)
			if price == 0 {
				price = toFloat(t.Last)
			}
			volume := toFloat(t.Volume)
			if volume == 0 {
				volume = toFloat(t.Vol)
			}

			a := asset.Asset{
				Symbol:       base,
				Quote:        quote,
				Exchange:     parserExchangeID,
				PriceUSD:     price,
				Volume24hUSD: volume,
				LastUpdated:  now,
				Metadata:     map[string]any{"generic_parser": true},
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
}

func decodeGenericTickers(body []byte) ([]genericTicker, error) {
	var asArray []genericTicker
	if err := json.Unmarshal(body, &asArray); err == nil {
		return asArray, nil
	}

	var wrapper struct {
		Data    []genericTicker `json:"data"`
		Result  []genericTicker `json:"result"`
		Tickers []genericTicker `json:"tickers"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, err
	}
	switch {
	case len(wrapper.Data) > 0:
		return wrapper.Data, nil
	case len(wrapper.Result) > 0:
		return wrapper.Result, nil
	case len(wrapper.Tickers) > 0:
		return wrapper.Tickers, nil
	default:
		return nil, nil
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	default:
		return 0
	}
}
