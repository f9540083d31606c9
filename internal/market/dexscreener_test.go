package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/token-radar/pkg/fetcher"
)

const pairsResponse = `{
  "pairs": [
    {
      "dexId": "raydium",
      "pairAddress": "pair-low",
      "priceUsd": "0.001",
      "liquidity": {"usd": 10000},
      "volume": {"m5": 100, "h1": 800, "h24": 5000},
      "priceChange": {"m5": 1, "h1": 2, "h24": 5},
      "txns": {"m5": {"buys": 3, "sells": 2}, "h24": {"buys": 40, "sells": 30}},
      "marketCap": 200000
    },
    {
      "dexId": "pumpswap",
      "pairAddress": "pair-high",
      "priceUsd": "0.0012",
      "liquidity": {"usd": 60000},
      "volume": {"m5": 900, "h1": 4000, "h24": 150000},
      "priceChange": {"m5": 3, "h1": 8, "h24": 25},
      "txns": {"m5": {"buys": 12, "sells": 9}, "h24": {"buys": 700, "sells": 500}},
      "marketCap": 450000
    }
  ]
}`

func newTestProvider(t *testing.T, handler http.HandlerFunc) *DexscreenerProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := fetcher.DefaultConfig()
	cfg.RatePerSecond = 1000
	cfg.RetryCount = 0
	return NewDexscreenerProvider(server.URL, fetcher.New(cfg))
}

func TestTokenMarketPicksBestLiquidityPair(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest/dex/tokens/mint-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(pairsResponse))
	})

	m, err := provider.TokenMarket(context.Background(), "mint-1")
	require.NoError(t, err)

	// 多交易对时取流动性最高的
	assert.Equal(t, "pair-high", m.PairAddress)
	assert.Equal(t, "pumpswap", m.DexID)
	assert.InDelta(t, 0.0012, m.PriceUSD, 1e-9)
	assert.Equal(t, 60_000.0, m.LiquidityUSD)
	assert.Equal(t, 150_000.0, m.Volume24h)
	assert.Equal(t, 25.0, m.PriceChange24h)
	assert.Equal(t, 21, m.TxCount5m)
	assert.Equal(t, 1200, m.TxCount24h)
}

func TestTokenMarketNotFound(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pairs": []}`))
	})

	_, err := provider.TokenMarket(context.Background(), "mint-x")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestTokenMarketUpstreamError(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := provider.TokenMarket(context.Background(), "mint-x")
	assert.Error(t, err)
}

func TestParsePrice(t *testing.T) {
	assert.Equal(t, 0.0, parsePrice(""))
	assert.Equal(t, 0.0, parsePrice("not-a-number"))
	assert.InDelta(t, 0.00000123, parsePrice("0.00000123"), 1e-12)
}
