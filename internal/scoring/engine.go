package scoring

import (
	"time"

	"github.com/ninja0404/token-radar/internal/model"
)

// 各维度基准分。字段缺失时只保留基准，不加也不减
const (
	confidenceBase  = 70
	riskBase        = 50
	opportunityBase = 50
	technicalBase   = 50
	marketBase      = 50
	socialBase      = 50

	priorityBase = 1
	priorityMax  = 10
)

// Evaluation 一次评分的完整输出
type Evaluation struct {
	Confidence int
	Priority   int
	Signals    []string
	Scores     model.AuxScores
}

// Engine 多维评分引擎，无内部状态，可并发使用
type Engine struct {
	cfg Config

	veryNewAge time.Duration
	newAge     time.Duration
}

// NewEngine 创建评分引擎
func NewEngine(cfg Config) *Engine {
	cfg = cfg.normalize()
	return &Engine{
		cfg:        cfg,
		veryNewAge: cfg.VeryNewAge.Std(),
		newAge:     cfg.NewAge.Std(),
	}
}

// Evaluate 对一条代币记录做全量评分。now用于计算发现年龄
func (e *Engine) Evaluate(token *model.Token, now time.Time) *Evaluation {
	age := token.AgeAt(now)
	signals := e.collectSignals(token, age)

	eval := &Evaluation{
		Confidence: e.confidenceScore(token, age),
		Signals:    signals,
		Scores: model.AuxScores{
			Risk:        e.riskScore(token, age),
			Opportunity: e.opportunityScore(token, age),
			Technical:   e.technicalScore(token),
			Market:      e.marketScore(token),
			Social:      e.socialScore(token),
		},
	}
	eval.Priority = e.priorityScore(signals, age)
	return eval
}

// collectSignals 按固定顺序收集命中的信号
func (e *Engine) collectSignals(token *model.Token, age time.Duration) []string {
	signals := make([]string, 0, 5)

	if token.Source == model.SourceChainscan {
		signals = append(signals, model.SignalBlockchainVerified)
	}

	m := token.Market
	if m != nil && m.LiquidityUSD >= e.cfg.HighLiquidityUSD {
		signals = append(signals, model.SignalHighLiquidity)
	}

	if age < e.veryNewAge {
		signals = append(signals, model.SignalVeryNew)
	} else if age < e.newAge {
		signals = append(signals, model.SignalNew)
	}

	if m != nil && m.Volume24h > e.cfg.HighVolumeUSD {
		signals = append(signals, model.SignalHighVolume)
	}

	if m != nil {
		if m.PriceChange24h > e.cfg.PumpChangePct {
			signals = append(signals, model.SignalPumping)
		} else if m.PriceChange24h > e.cfg.RiseChangePct {
			signals = append(signals, model.SignalRising)
		}
	}

	return signals
}

// confidenceScore 置信度：基准70 + 来源加成 + 流动性 + 年龄 + 交易量 + 涨幅
func (e *Engine) confidenceScore(token *model.Token, age time.Duration) int {
	score := confidenceBase

	switch token.Source {
	case model.SourceChainscan:
		score += 15
	case model.SourcePumpfun:
		score += 12
	case model.SourceDexscreener:
		score += 10
	case model.SourceAnalyzer:
		score += 8
	}

	m := token.Market
	if m != nil && m.LiquidityUSD > 0 {
		if m.LiquidityUSD >= e.cfg.HighLiquidityUSD {
			score += 10
		} else if m.LiquidityUSD >= e.cfg.MidLiquidityUSD {
			score += 5
		}
	}

	if age < e.veryNewAge {
		score += 8
	} else if age < e.newAge {
		score += 5
	}

	if m != nil && m.Volume24h > 0 {
		if m.Volume24h > e.cfg.HighVolumeUSD {
			score += 8
		} else if m.Volume24h > e.cfg.MidVolumeUSD {
			score += 4
		}
	}

	if m != nil {
		if m.PriceChange24h > e.cfg.PumpChangePct {
			score += 6
		} else if m.PriceChange24h > e.cfg.RiseChangePct {
			score += 3
		}
	}

	return clampScore(score)
}

// riskScore 风险分，越低越安全。基准50
func (e *Engine) riskScore(token *model.Token, age time.Duration) int {
	score := riskBase
	m := token.Market

	if m != nil && m.LiquidityUSD > 0 {
		switch {
		case m.LiquidityUSD < 5_000:
			score += 20
		case m.LiquidityUSD < 20_000:
			score += 10
		case m.LiquidityUSD > 100_000:
			score -= 10
		}
	}

	if age < e.veryNewAge {
		score += 15
	} else if age > 24*time.Hour {
		score -= 5
	}

	if m != nil && m.Volume24h > 0 {
		if m.Volume24h < 1_000 {
			score += 15
		} else if m.Volume24h > 50_000 {
			score -= 5
		}
	}

	if m != nil && m.MarketCapUSD > 0 {
		if m.MarketCapUSD < 100_000 {
			score += 10
		} else if m.MarketCapUSD > 1_000_000 {
			score -= 5
		}
	}

	return clampScore(score)
}

// opportunityScore 机会分，越高越好。基准50
func (e *Engine) opportunityScore(token *model.Token, age time.Duration) int {
	score := opportunityBase
	m := token.Market

	if m != nil {
		switch {
		case m.PriceChange24h > 50:
			score += 20
		case m.PriceChange24h > 20:
			score += 10
		case m.PriceChange24h < -20:
			score -= 10
		}

		if m.Volume24h > 100_000 {
			score += 15
		} else if m.Volume24h > 50_000 {
			score += 10
		}

		if m.LiquidityUSD > 50_000 && m.LiquidityUSD < 500_000 {
			score += 10
		}
	}

	// 5~30分钟的黄金窗口
	if age >= 5*time.Minute && age <= 30*time.Minute {
		score += 10
	}

	return clampScore(score)
}

// technicalScore 技术面分。基准50
func (e *Engine) technicalScore(token *model.Token) int {
	score := technicalBase
	m := token.Market
	if m == nil {
		return score
	}

	if m.PriceChange5m > 10 {
		score += 15
	}
	if m.PriceChange1h > 20 {
		score += 10
	}
	// 5分钟量超过1小时均摊(1/12)说明短时放量
	if m.Volume1h > 0 && m.Volume5m > m.Volume1h/12 {
		score += 10
	}
	if m.TxCount5m > 20 {
		score += 10
	}

	return clampScore(score)
}

// marketScore 市场结构分。基准50
func (e *Engine) marketScore(token *model.Token) int {
	score := marketBase
	m := token.Market
	if m == nil {
		return score
	}

	if m.DexID != "" {
		score += 10
	}
	if m.PairAddress != "" {
		score += 5
	}
	if m.LiquidityUSD > 100_000 {
		score += 15
	} else if m.LiquidityUSD > 50_000 {
		score += 10
	}
	if m.TxCount24h > 100 {
		score += 10
	}

	return clampScore(score)
}

// socialScore 社交情绪分。没有情绪数据时保持基准50
func (e *Engine) socialScore(token *model.Token) int {
	s := token.Social
	if s == nil {
		return socialBase
	}

	score := socialBase
	if s.Mentions > 100 {
		score += 15
	} else if s.Mentions > 50 {
		score += 10
	}

	if s.Sentiment > 0.6 {
		score += 10
	} else if s.Sentiment < 0.4 {
		score -= 10
	}

	return clampScore(score)
}

// priorityScore 依据命中信号累加权重，基准1封顶10
func (e *Engine) priorityScore(signals []string, age time.Duration) int {
	w := e.cfg.Priority
	score := priorityBase

	for _, sig := range signals {
		switch sig {
		case model.SignalPumping:
			score += w.Pump
		case model.SignalVeryNew:
			score += w.New
		case model.SignalHighVolume:
			score += w.Volume
		case model.SignalHighLiquidity:
			score += w.Liquidity
		}
	}
	if age < e.veryNewAge {
		score += w.LowAge
	}

	if score > priorityMax {
		score = priorityMax
	}
	if score < priorityBase {
		score = priorityBase
	}
	return score
}

// clampScore 把分值夹到[0,100]
func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
