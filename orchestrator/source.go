package orchestrator

import (
	"context"

	"cryptoscan/asset"
	"cryptoscan/router"
)

// universeSource adapts a discovered universe snapshot to router.Source, so
// strategy backends read prices from the already-fetched, already-ranked
// asset data rather than issuing a fresh ungated exchange call (spec.md §9
// Open Questions: "this spec disallows synthetic prices").
type universeSource struct {
	byKey map[string]asset.Asset // "<exchange>:<symbol><quote>" -> Asset
}

func newUniverseSource(classified map[asset.Tier][]asset.Asset) *universeSource {
	byKey := make(map[string]asset.Asset)
	for _, assets := range classified {
		for _, a := range assets {
			byKey[a.Exchange+":"+a.Symbol+a.Quote] = a
		}
	}
	return &universeSource{byKey: byKey}
}

func (s *universeSource) Quote(_ context.Context, exchangeID, symbol string) (router.Quote, bool, error) {
	a, ok := s.byKey[exchangeID+":"+symbol]
	if !ok {
		return router.Quote{}, false, nil
	}
	var changePct float64
	if a.Metadata != nil {
		changePct, _ = a.Metadata["change_pct_24h"].(float64)
	}
	return router.Quote{
		PriceUSD:     a.PriceUSD,
		Change24hPct: changePct,
		Volume24hUSD: a.Volume24hUSD,
	}, true, nil
}
