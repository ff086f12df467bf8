package exchange

import "cryptoscan/asset"

// Parser decodes one exchange's raw ticker payload into a normalized
// symbol->Asset map, applying the §4.2 rules: strip known quote suffixes,
// require volume_24h_usd > 0 and price_usd > 0, preserve secondary fields
// in Metadata. Parsers must never panic on malformed input — skip the
// offending entry and continue.
type Parser func(exchangeID string, body []byte) (map[string]asset.Asset, error)

// accept applies the §4.2 discard rule shared by every parser.
func accept(a asset.Asset) bool {
	return a.Volume24hUSD > 0 && a.PriceUSD > 0
}
