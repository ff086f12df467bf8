package exchange

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"cryptoscan/asset"
)

// hyperliquidMeta/hyperliquidAssetCtx mirror the two-element array Hyperliquid's
// POST /info {"type":"metaAndAssetCtxs"} returns: [{universe:[{name}...]},
// [{markPx, dayNtlVlm, funding}...]] — the same raw-HTTP-to-/info pattern the
// teacher's HyperliquidTrader uses for xyz-dex meta/state (it builds a JSON
// body {"type": "..."} and POSTs to https://api.hyperliquid.xyz/info).
type hyperliquidMeta struct {
	Universe []struct {
		Name string `json:"name"`
	} `json:"universe"`
}

type hyperliquidAssetCtx struct {
	MarkPx    string `json:"markPx"`
	DayNtlVlm string `json:"dayNtlVlm"`
	Funding   string `json:"funding"`
	PrevDayPx string `json:"prevDayPx"`
}

// ParseHyperliquid decodes the two-element [meta, assetCtxs] array Hyperliquid
// returns for metaAndAssetCtxs into normalized perpetual assets.
func ParseHyperliquid(exchangeID string, body []byte) (map[string]asset.Asset, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("hyperliquid: decode metaAndAssetCtxs envelope: %w", err)
	}
	if len(raw) != 2 {
		return nil, fmt.Errorf("hyperliquid: expected 2-element metaAndAssetCtxs array, got %d", len(raw))
	}

	var meta hyperliquidMeta
	if err := json.Unmarshal(raw[0], &meta); err != nil {
		return nil, fmt.Errorf("hyperliquid: decode meta: %w", err)
	}
	var ctxs []hyperliquidAssetCtx
	if err := json.Unmarshal(raw[1], &ctxs); err != nil {
		return nil, fmt.Errorf("hyperliquid: decode asset contexts: %w", err)
	}
	if len(meta.Universe) != len(ctxs) {
		return nil, fmt.Errorf("hyperliquid: universe/assetCtxs length mismatch (%d vs %d)", len(meta.Universe), len(ctxs))
	}

	out := make(map[string]asset.Asset)
	now := time.Now().UTC()
	for i, u := range meta.Universe {
		ctx := ctxs[i]
		base, _, ok := asset.SplitSymbolQuote(u.Name + "USD")
		if !ok {
			base = u.Name
		}
		price, _ := strconv.ParseFloat(ctx.MarkPx, 64)
		volume, _ := strconv.ParseFloat(ctx.DayNtlVlm, 64)
		funding, _ := strconv.ParseFloat(ctx.Funding, 64)
		prevPx, _ := strconv.ParseFloat(ctx.PrevDayPx, 64)

		a := asset.Asset{
			Symbol:       base,
			Quote:        "USD",
			Exchange:     exchangeID,
			PriceUSD:     price,
			Volume24hUSD: volume,
			LastUpdated:  now,
			Metadata: map[string]any{
				"funding_rate":   funding,
				"prev_day_price": prevPx,
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
