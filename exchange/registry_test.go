package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoscan/asset"
)

func noopParser(exchangeID string, body []byte) (map[string]asset.Asset, error) {
	return map[string]asset.Asset{}, nil
}

func TestDescriptorValidate(t *testing.T) {
	cases := []struct {
		name string
		d    Descriptor
		ok   bool
	}{
		{"valid spot", Descriptor{ID: "x", SpotURL: "https://x.test"}, true},
		{"valid futures", Descriptor{ID: "x", FuturesURL: "https://x.test"}, true},
		{"missing id", Descriptor{SpotURL: "https://x.test"}, false},
		{"missing both urls", Descriptor{ID: "x"}, false},
	}
	for _, tc := range cases {
		err := tc.d.Validate()
		if tc.ok {
			assert.NoError(t, err, tc.name)
		} else {
			assert.Error(t, err, tc.name)
		}
	}
}

func TestDescriptorURLFor(t *testing.T) {
	d := Descriptor{ID: "x", SpotURL: "https://spot.test", FuturesURL: "https://fut.test"}
	u, ok := d.URLFor(AssetTypeSpot)
	assert.True(t, ok)
	assert.Equal(t, "https://spot.test", u)

	u, ok = d.URLFor(AssetTypeFutures)
	assert.True(t, ok)
	assert.Equal(t, "https://fut.test", u)

	spotOnly := Descriptor{ID: "y", SpotURL: "https://spot.test"}
	_, ok = spotOnly.URLFor(AssetTypeFutures)
	assert.False(t, ok)
}

func TestDescriptorHasCapability(t *testing.T) {
	d := Descriptor{ID: "x", SpotURL: "https://x.test", Capabilities: map[Capability]bool{CapSpotTrading: true}}
	assert.True(t, d.HasCapability(CapSpotTrading))
	assert.False(t, d.HasCapability(CapFuturesTrading))

	bare := Descriptor{ID: "y", SpotURL: "https://y.test"}
	assert.False(t, bare.HasCapability(CapSpotTrading))
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	err := r.Register(Descriptor{ID: "binance", SpotURL: "https://api.binance.com", ParserKey: "binance", Priority: 1}, noopParser)
	require.NoError(t, err)

	d, ok := r.Get("binance")
	require.True(t, ok)
	assert.Equal(t, "binance", d.ID)

	p, ok := r.Parser("binance")
	require.True(t, ok)
	assert.NotNil(t, p)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistryRegisterRejectsNilParser(t *testing.T) {
	r := NewRegistry()
	err := r.Register(Descriptor{ID: "x", SpotURL: "https://x.test"}, nil)
	assert.Error(t, err)
}

func TestRegistryRegisterRejectsInvalidDescriptor(t *testing.T) {
	r := NewRegistry()
	err := r.Register(Descriptor{ID: "x"}, noopParser)
	assert.Error(t, err)
}

func TestRegistryAllOrdersByPriorityThenID(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Descriptor{ID: "zeta", SpotURL: "https://z.test", Priority: 2}, noopParser))
	require.NoError(t, r.Register(Descriptor{ID: "alpha", SpotURL: "https://a.test", Priority: 2}, noopParser))
	require.NoError(t, r.Register(Descriptor{ID: "binance", SpotURL: "https://b.test", Priority: 1}, noopParser))

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, []string{"binance", "alpha", "zeta"}, []string{all[0].ID, all[1].ID, all[2].ID})
}

func TestRegistryPriorityUnregisteredSortsLast(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Descriptor{ID: "binance", SpotURL: "https://b.test", Priority: 1}, noopParser))

	assert.Equal(t, 1, r.Priority("binance"))
	assert.Greater(t, r.Priority("unknown"), 1<<20)
}

func TestNewDefaultRegistryRegistersExpectedExchanges(t *testing.T) {
	r := NewDefaultRegistry()
	ids := r.IDs()
	assert.Equal(t, []string{"binance", "bybit", "kraken", "kucoin", "hyperliquid"}, ids)

	hl, ok := r.Get("hyperliquid")
	require.True(t, ok)
	assert.Equal(t, "POST", hl.RequestMethod)
	assert.NotEmpty(t, hl.RequestBody)
}
