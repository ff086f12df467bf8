package asset

import "testing"

func priorityTable(p map[string]int) ExchangePriority {
	return func(ex string) int { return p[ex] }
}

// Best-quote selection (spec.md §8): the same symbol quoted on two
// exchanges must resolve to the higher-volume one.
func TestSelectBestQuotesPicksHigherVolume(t *testing.T) {
	perExchange := map[string]map[string]Asset{
		"binance": {"BTC": {Symbol: "BTC", Exchange: "binance", Volume24hUSD: 500_000_000, PriceUSD: 65000}},
		"bybit":   {"BTC": {Symbol: "BTC", Exchange: "bybit", Volume24hUSD: 750_000_000, PriceUSD: 65010}},
	}
	best := SelectBestQuotes(perExchange, priorityTable(map[string]int{"binance": 1, "bybit": 2}))

	got, ok := best["BTC"]
	if !ok {
		t.Fatal("expected BTC in result")
	}
	if got.Exchange != "bybit" {
		t.Errorf("expected bybit (higher volume) to win, got %s", got.Exchange)
	}
}

func TestSelectBestQuotesTieBreaksOnExchangePriority(t *testing.T) {
	perExchange := map[string]map[string]Asset{
		"binance": {"ETH": {Symbol: "ETH", Exchange: "binance", Volume24hUSD: 100_000_000, PriceUSD: 3000}},
		"bybit":   {"ETH": {Symbol: "ETH", Exchange: "bybit", Volume24hUSD: 100_000_000, PriceUSD: 3001}},
	}
	// binance has the lower (better) priority number, so it should win the tie.
	best := SelectBestQuotes(perExchange, priorityTable(map[string]int{"binance": 1, "bybit": 2}))
	if best["ETH"].Exchange != "binance" {
		t.Errorf("expected binance to win equal-volume tie via priority, got %s", best["ETH"].Exchange)
	}
}

func TestClassifyBucketsAndSortsDescending(t *testing.T) {
	bySymbol := map[string]Asset{
		"BTC":  {Symbol: "BTC", Volume24hUSD: 200_000_000},
		"ETH":  {Symbol: "ETH", Volume24hUSD: 150_000_000},
		"DOGE": {Symbol: "DOGE", Volume24hUSD: 2_000_000},
		"SHIB": {Symbol: "SHIB", Volume24hUSD: 50_000},
	}
	buckets := Classify(bySymbol)

	inst := buckets[TierInstitutional]
	if len(inst) != 2 || inst[0].Symbol != "BTC" || inst[1].Symbol != "ETH" {
		t.Fatalf("expected institutional bucket sorted [BTC, ETH], got %+v", inst)
	}
	if len(buckets[TierRetail]) != 1 || buckets[TierRetail][0].Symbol != "DOGE" {
		t.Fatalf("expected retail bucket to contain DOGE, got %+v", buckets[TierRetail])
	}
	if len(buckets[TierMicro]) != 1 || buckets[TierMicro][0].Symbol != "SHIB" {
		t.Fatalf("expected micro bucket to contain SHIB, got %+v", buckets[TierMicro])
	}
	// every tier must be present, even if empty.
	for _, tier := range AllTiers() {
		if _, ok := buckets[tier]; !ok {
			t.Errorf("missing bucket for tier %s", tier)
		}
	}
}

func TestFilterByMinTier(t *testing.T) {
	buckets := Classify(map[string]Asset{
		"BTC":  {Symbol: "BTC", Volume24hUSD: 200_000_000},
		"DOGE": {Symbol: "DOGE", Volume24hUSD: 2_000_000},
		"SHIB": {Symbol: "SHIB", Volume24hUSD: 50_000},
	})

	filtered := FilterByMinTier(buckets, TierRetail)
	if _, ok := filtered[TierMicro]; ok {
		t.Error("micro tier (less exclusive than retail) should be filtered out")
	}
	if _, ok := filtered[TierInstitutional]; !ok {
		t.Error("institutional tier (more exclusive than retail) should remain")
	}
	if _, ok := filtered[TierRetail]; !ok {
		t.Error("retail tier itself should remain")
	}
}

func TestTopN(t *testing.T) {
	buckets := Classify(map[string]Asset{
		"A": {Symbol: "A", Volume24hUSD: 300},
		"B": {Symbol: "B", Volume24hUSD: 100},
		"C": {Symbol: "C", Volume24hUSD: 200},
	})
	top := TopN(buckets, 2)
	if len(top) != 2 || top[0].Symbol != "A" || top[1].Symbol != "C" {
		t.Fatalf("expected [A, C] by descending volume, got %+v", top)
	}
}
