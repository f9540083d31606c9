package enrich

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/token-radar/internal/model"
)

type fakeProvider struct {
	market *model.Market
	err    error
	calls  int
}

func (p *fakeProvider) TokenMarket(ctx context.Context, address string) (*model.Market, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.market, nil
}

func (p *fakeProvider) String() string {
	return "fake"
}

func TestEnrichFillsOnlyMissingFields(t *testing.T) {
	provider := &fakeProvider{
		market: &model.Market{
			PriceUSD:     0.5,
			LiquidityUSD: 80_000,
			Volume24h:    120_000,
			MarketCapUSD: 999_999,
		},
	}
	e := New(DefaultConfig(), provider)

	stamp := time.Now()
	e.now = func() time.Time { return stamp }

	token := &model.Token{
		Address: "addr-1",
		Source:  model.SourcePumpfun,
		Market:  &model.Market{MarketCapUSD: 42_000},
	}

	enriched, err := e.Enrich(context.Background(), token)
	require.NoError(t, err)
	require.True(t, enriched)

	// 已有的非零字段不许被覆盖
	assert.Equal(t, 42_000.0, token.Market.MarketCapUSD)
	// 缺失字段从二级数据补上
	assert.Equal(t, 0.5, token.Market.PriceUSD)
	assert.Equal(t, 80_000.0, token.Market.LiquidityUSD)
	assert.Equal(t, 120_000.0, token.Market.Volume24h)

	assert.Equal(t, stamp, token.EnrichedAt)
	assert.Equal(t, "fake", token.EnrichedBy)
}

func TestEnrichSkipsCanonicalSource(t *testing.T) {
	provider := &fakeProvider{market: &model.Market{LiquidityUSD: 1}}
	e := New(DefaultConfig(), provider)

	token := &model.Token{
		Address: "addr-1",
		Source:  model.SourceDexscreener,
	}

	enriched, err := e.Enrich(context.Background(), token)
	require.NoError(t, err)
	assert.False(t, enriched)
	assert.Zero(t, provider.calls)
	assert.True(t, token.EnrichedAt.IsZero())
}

func TestEnrichDisabled(t *testing.T) {
	provider := &fakeProvider{market: &model.Market{LiquidityUSD: 1}}
	cfg := DefaultConfig()
	cfg.Enabled = false
	e := New(cfg, provider)

	token := &model.Token{Address: "addr-1", Source: model.SourcePumpfun}

	enriched, err := e.Enrich(context.Background(), token)
	require.NoError(t, err)
	assert.False(t, enriched)
	assert.Zero(t, provider.calls)
}

func TestEnrichFailurePassesThrough(t *testing.T) {
	provider := &fakeProvider{err: errors.New("upstream down")}
	e := New(DefaultConfig(), provider)

	token := &model.Token{
		Address: "addr-1",
		Source:  model.SourceBirdeye,
		Market:  &model.Market{LiquidityUSD: 7_000},
	}

	// 查询失败时记录原样通过，错误上抛给调用方计数，不打标
	enriched, err := e.Enrich(context.Background(), token)
	require.Error(t, err)
	assert.False(t, enriched)
	assert.Equal(t, 7_000.0, token.Market.LiquidityUSD)
	assert.True(t, token.EnrichedAt.IsZero())
	assert.Empty(t, token.EnrichedBy)
}

func TestEnrichInitializesMarket(t *testing.T) {
	provider := &fakeProvider{market: &model.Market{PriceUSD: 0.01}}
	e := New(DefaultConfig(), provider)

	token := &model.Token{Address: "addr-1", Source: model.SourceChainscan}

	enriched, err := e.Enrich(context.Background(), token)
	require.NoError(t, err)
	require.True(t, enriched)
	require.NotNil(t, token.Market)
	assert.Equal(t, 0.01, token.Market.PriceUSD)
}
