package exchange

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoscan/hook"
)

func TestInferCapabilities(t *testing.T) {
	cases := []struct {
		name string
		c    Candidate
		want map[Capability]bool
	}{
		{
			"below every threshold",
			Candidate{TrustScore: 1, Volume24hBTC: 10},
			map[Capability]bool{CapSpotTrading: true},
		},
		{
			"trust crosses trading-history threshold",
			Candidate{TrustScore: 7, Volume24hBTC: 0},
			map[Capability]bool{CapSpotTrading: true, CapTradingHistory: true, CapWebsocketStream: true},
		},
		{
			"volume crosses trading-history threshold",
			Candidate{TrustScore: 0, Volume24hBTC: 1000},
			map[Capability]bool{CapSpotTrading: true, CapTradingHistory: true, CapWebsocketStream: true},
		},
		{
			"trust crosses futures threshold",
			Candidate{TrustScore: 8, Volume24hBTC: 0},
			map[Capability]bool{
				CapSpotTrading: true, CapTradingHistory: true, CapWebsocketStream: true, CapFuturesTrading: true,
			},
		},
		{
			"trust and volume both cross options threshold",
			Candidate{TrustScore: 9, Volume24hBTC: 10000},
			map[Capability]bool{
				CapSpotTrading: true, CapTradingHistory: true, CapWebsocketStream: true,
				CapFuturesTrading: true, CapOptionsTrading: true,
			},
		},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, inferCapabilities(tc.c), tc.name)
	}
}

func TestInferRateLimit(t *testing.T) {
	cases := []struct {
		name string
		c    Candidate
		want int
	}{
		{"no metadata", Candidate{}, 60},
		{"trust 5 volume 1000", Candidate{TrustScore: 5, Volume24hBTC: 1000}, 300},
		{"trust 7 volume 5000", Candidate{TrustScore: 7, Volume24hBTC: 5000}, 600},
		{"trust 9 volume 10000", Candidate{TrustScore: 9, Volume24hBTC: 10000}, 1200},
		{"high trust alone does not clear a volume-gated bucket", Candidate{TrustScore: 9, Volume24hBTC: 0}, 60},
		{"high volume alone does not clear a trust-gated bucket", Candidate{TrustScore: 0, Volume24hBTC: 10000}, 60},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, inferRateLimit(tc.c), tc.name)
	}
}

func TestDiscoverAndRegisterInfersCapabilitiesAndRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price":"100.0"}`))
	}))
	defer srv.Close()

	hook.RegisterHook(hook.SET_HTTP_CLIENT, func(args ...any) any {
		return &hook.SetHTTPClientResult{Client: srv.Client()}
	})
	defer delete(hook.Hooks, hook.SET_HTTP_CLIENT)

	registry := NewRegistry()
	d := NewDiscoverer(4, 2*time.Second)
	candidates := []Candidate{
		{ID: "newexchange", APIURL: srv.URL, TrustScore: 9, Volume24hBTC: 10000},
	}

	registered := d.DiscoverAndRegister(t.Context(), registry, candidates)
	require.Equal(t, []string{"newexchange"}, registered)

	desc, ok := registry.Get("newexchange")
	require.True(t, ok)
	assert.Equal(t, 1200, desc.RateLimitPerMinute)
	assert.True(t, desc.HasCapability(CapOptionsTrading))
	assert.True(t, desc.HasCapability(CapFuturesTrading))
	assert.True(t, desc.HasCapability(CapTradingHistory))
	assert.True(t, desc.HasCapability(CapWebsocketStream))
}
