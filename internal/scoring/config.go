package scoring

import (
	"time"

	"github.com/ninja0404/token-radar/pkg/config"
)

// PriorityWeights 优先级各信号权重，命中即累加，结果封顶10
type PriorityWeights struct {
	Pump      int `yaml:"pump" json:"pump"`
	New       int `yaml:"new" json:"new"`
	Volume    int `yaml:"volume" json:"volume"`
	Liquidity int `yaml:"liquidity" json:"liquidity"`
	LowAge    int `yaml:"low_age" json:"low_age"`
}

// Config 评分阈值与权重，全部可配置
type Config struct {
	// 年龄分档
	VeryNewAge config.Duration `yaml:"very_new_age" json:"very_new_age"`
	NewAge     config.Duration `yaml:"new_age" json:"new_age"`

	// 流动性分档(USD)
	HighLiquidityUSD float64 `yaml:"high_liquidity_usd" json:"high_liquidity_usd"`
	MidLiquidityUSD  float64 `yaml:"mid_liquidity_usd" json:"mid_liquidity_usd"`

	// 24h交易量分档(USD)
	HighVolumeUSD float64 `yaml:"high_volume_usd" json:"high_volume_usd"`
	MidVolumeUSD  float64 `yaml:"mid_volume_usd" json:"mid_volume_usd"`

	// 24h涨幅分档(百分比)
	PumpChangePct float64 `yaml:"pump_change_pct" json:"pump_change_pct"`
	RiseChangePct float64 `yaml:"rise_change_pct" json:"rise_change_pct"`

	Priority PriorityWeights `yaml:"priority" json:"priority"`
}

// DefaultConfig 默认评分参数
func DefaultConfig() Config {
	return Config{
		VeryNewAge:       config.Duration(5 * time.Minute),
		NewAge:           config.Duration(15 * time.Minute),
		HighLiquidityUSD: 50_000,
		MidLiquidityUSD:  10_000,
		HighVolumeUSD:    100_000,
		MidVolumeUSD:     10_000,
		PumpChangePct:    20,
		RiseChangePct:    10,
		Priority: PriorityWeights{
			Pump:      10,
			New:       8,
			Volume:    7,
			Liquidity: 5,
			LowAge:    6,
		},
	}
}

// normalize 填充未配置的字段，防止零值配置把所有分档打穿
func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.VeryNewAge <= 0 {
		c.VeryNewAge = def.VeryNewAge
	}
	if c.NewAge <= 0 {
		c.NewAge = def.NewAge
	}
	if c.HighLiquidityUSD <= 0 {
		c.HighLiquidityUSD = def.HighLiquidityUSD
	}
	if c.MidLiquidityUSD <= 0 {
		c.MidLiquidityUSD = def.MidLiquidityUSD
	}
	if c.HighVolumeUSD <= 0 {
		c.HighVolumeUSD = def.HighVolumeUSD
	}
	if c.MidVolumeUSD <= 0 {
		c.MidVolumeUSD = def.MidVolumeUSD
	}
	if c.PumpChangePct <= 0 {
		c.PumpChangePct = def.PumpChangePct
	}
	if c.RiseChangePct <= 0 {
		c.RiseChangePct = def.RiseChangePct
	}
	if c.Priority == (PriorityWeights{}) {
		c.Priority = def.Priority
	}
	return c
}
