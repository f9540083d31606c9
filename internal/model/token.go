package model

import "time"

// 数据源标签
const (
	SourcePumpfun     = "pumpfun"     // 实时推送源
	SourceDexscreener = "dexscreener" // 市场数据轮询源
	SourceChainscan   = "chainscan"   // 链上扫描源
	SourceBirdeye     = "birdeye"     // 聚合器轮询源
	SourceAnalyzer    = "analyzer"    // 深度交易分析回流
)

// Market 二级市场数据。零值字段表示该来源没有提供，补全阶段只填空不覆盖
type Market struct {
	PriceUSD       float64 `json:"price_usd,omitempty"`
	Volume5m       float64 `json:"volume_5m,omitempty"`
	Volume1h       float64 `json:"volume_1h,omitempty"`
	Volume24h      float64 `json:"volume_24h,omitempty"`
	LiquidityUSD   float64 `json:"liquidity_usd,omitempty"`
	MarketCapUSD   float64 `json:"market_cap_usd,omitempty"`
	PriceChange5m  float64 `json:"price_change_5m,omitempty"`
	PriceChange1h  float64 `json:"price_change_1h,omitempty"`
	PriceChange24h float64 `json:"price_change_24h,omitempty"`
	TxCount5m      int     `json:"tx_count_5m,omitempty"`
	TxCount24h     int     `json:"tx_count_24h,omitempty"`
	DexID          string  `json:"dex_id,omitempty"`
	PairAddress    string  `json:"pair_address,omitempty"`
}

// Social 社交情绪数据，nil表示没有任何情绪来源
type Social struct {
	Mentions  int     `json:"mentions"`
	Sentiment float64 `json:"sentiment"` // 0~1 情绪极性
}

// Token 一条新代币发现记录。Address是唯一身份，其余字段各来源尽力填充
type Token struct {
	Address    string    `json:"address"`
	Symbol     string    `json:"symbol,omitempty"`
	Name       string    `json:"name,omitempty"`
	Source     string    `json:"source"`
	DetectedAt time.Time `json:"detected_at"`

	Market *Market `json:"market,omitempty"`
	Social *Social `json:"social,omitempty"`

	// 补全来源信息，补全阶段写入
	EnrichedAt time.Time `json:"enriched_at,omitempty"`
	EnrichedBy string    `json:"enriched_by,omitempty"`
}

// EnsureMarket 返回market字段，必要时初始化
func (t *Token) EnsureMarket() *Market {
	if t.Market == nil {
		t.Market = &Market{}
	}
	return t.Market
}

// AgeAt 从发现时刻到ts的时长
func (t *Token) AgeAt(ts time.Time) time.Duration {
	return ts.Sub(t.DetectedAt)
}
