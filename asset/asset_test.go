package asset

import "testing"

func TestAssetValidate(t *testing.T) {
	valid := Asset{Symbol: "BTC", Exchange: "binance", PriceUSD: 65000, Volume24hUSD: 1_000_000}
	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid asset to pass, got %v", err)
	}

	noSymbol := valid
	noSymbol.Symbol = "  "
	if err := noSymbol.Validate(); err == nil {
		t.Error("expected empty symbol to fail validation")
	}

	badPrice := valid
	badPrice.PriceUSD = 0
	if err := badPrice.Validate(); err == nil {
		t.Error("expected zero price to fail validation")
	}

	negVolume := valid
	negVolume.Volume24hUSD = -1
	if err := negVolume.Validate(); err == nil {
		t.Error("expected negative volume to fail validation")
	}
}

func TestSplitSymbolQuote(t *testing.T) {
	cases := []struct {
		raw       string
		wantBase  string
		wantQuote string
		wantOK    bool
	}{
		{"BTCUSDT", "BTC", "USDT", true},
		{"ethusdt", "ETH", "USDT", true},
		{"solbusd", "SOL", "BUSD", true},
		{"ETHBTC", "ETH", "BTC", true},
		{"USDT", "", "", false}, // base would be empty
		{"X", "", "", false},    // no known suffix
		{"", "", "", false},
	}
	for _, tc := range cases {
		base, quote, ok := SplitSymbolQuote(tc.raw)
		if ok != tc.wantOK || base != tc.wantBase || quote != tc.wantQuote {
			t.Errorf("SplitSymbolQuote(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tc.raw, base, quote, ok, tc.wantBase, tc.wantQuote, tc.wantOK)
		}
	}
}

func TestAssetKey(t *testing.T) {
	a := Asset{Symbol: "BTC", Exchange: "binance"}
	b := Asset{Symbol: "BTC", Exchange: "bybit"}
	if a.Key() == b.Key() {
		t.Error("assets on different exchanges must have distinct keys")
	}
	if a.Key() != (Key{Symbol: "BTC", Exchange: "binance"}) {
		t.Error("Key() must reflect Symbol/Exchange")
	}
}
