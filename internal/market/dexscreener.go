package market

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/ninja0404/token-radar/internal/model"
	"github.com/ninja0404/token-radar/pkg/fetcher"
)

// ErrNotFound 地址没有任何交易对数据
var ErrNotFound = errors.New("market data not found")

const defaultDexscreenerEndpoint = "https://api.dexscreener.com"

// DexscreenerProvider 基于dexscreener的市场数据实现
type DexscreenerProvider struct {
	endpoint string
	client   *fetcher.Client
}

// NewDexscreenerProvider 创建provider，endpoint为空时使用官方地址
func NewDexscreenerProvider(endpoint string, client *fetcher.Client) *DexscreenerProvider {
	if endpoint == "" {
		endpoint = defaultDexscreenerEndpoint
	}
	return &DexscreenerProvider{
		endpoint: endpoint,
		client:   client,
	}
}

// pairPayload dexscreener交易对响应里用到的字段
type pairPayload struct {
	DexID       string `json:"dexId"`
	PairAddress string `json:"pairAddress"`
	PriceUSD    string `json:"priceUsd"`
	BaseToken   struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	Volume struct {
		M5  float64 `json:"m5"`
		H1  float64 `json:"h1"`
		H24 float64 `json:"h24"`
	} `json:"volume"`
	PriceChange struct {
		M5  float64 `json:"m5"`
		H1  float64 `json:"h1"`
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
	Txns struct {
		M5 struct {
			Buys  int `json:"buys"`
			Sells int `json:"sells"`
		} `json:"m5"`
		H24 struct {
			Buys  int `json:"buys"`
			Sells int `json:"sells"`
		} `json:"h24"`
	} `json:"txns"`
	MarketCap float64 `json:"marketCap"`
}

type tokenPairsPayload struct {
	Pairs []pairPayload `json:"pairs"`
}

// TokenMarket 查询地址的市场数据，多个交易对时取流动性最高的
func (p *DexscreenerProvider) TokenMarket(ctx context.Context, address string) (*model.Market, error) {
	url := fmt.Sprintf("%s/latest/dex/tokens/%s", p.endpoint, address)

	var payload tokenPairsPayload
	if err := p.client.GetJSON(ctx, "dexscreener:"+address, url, nil, &payload); err != nil {
		return nil, errors.Wrapf(err, "query dexscreener for %s", address)
	}
	if len(payload.Pairs) == 0 {
		return nil, ErrNotFound
	}

	best := payload.Pairs[0]
	for _, pair := range payload.Pairs[1:] {
		if pair.Liquidity.USD > best.Liquidity.USD {
			best = pair
		}
	}

	return best.toMarket(), nil
}

func (p *DexscreenerProvider) String() string {
	return model.SourceDexscreener
}

// parsePrice dexscreener的价格是字符串，先走高精度解析再转float
func parsePrice(s string) float64 {
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}

func (pp *pairPayload) toMarket() *model.Market {
	return &model.Market{
		PriceUSD:       parsePrice(pp.PriceUSD),
		Volume5m:       pp.Volume.M5,
		Volume1h:       pp.Volume.H1,
		Volume24h:      pp.Volume.H24,
		LiquidityUSD:   pp.Liquidity.USD,
		MarketCapUSD:   pp.MarketCap,
		PriceChange5m:  pp.PriceChange.M5,
		PriceChange1h:  pp.PriceChange.H1,
		PriceChange24h: pp.PriceChange.H24,
		TxCount5m:      pp.Txns.M5.Buys + pp.Txns.M5.Sells,
		TxCount24h:     pp.Txns.H24.Buys + pp.Txns.H24.Sells,
		DexID:          pp.DexID,
		PairAddress:    pp.PairAddress,
	}
}
