package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/token-radar/internal/model"
)

func TestEvaluateChainscanHotToken(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	now := time.Now()
	token := &model.Token{
		Address:    "So11111111111111111111111111111111111111112",
		Source:     model.SourceChainscan,
		DetectedAt: now.Add(-200 * time.Second),
		Market: &model.Market{
			LiquidityUSD:   60_000,
			Volume24h:      150_000,
			PriceChange24h: 25,
		},
	}

	eval := engine.Evaluate(token, now)

	// 70基准 +15链上源 +10流动性 +8极新 +8放量 +6拉升 = 117 → 封顶100
	assert.Equal(t, 100, eval.Confidence)
	assert.Equal(t, []string{
		model.SignalBlockchainVerified,
		model.SignalHighLiquidity,
		model.SignalVeryNew,
		model.SignalHighVolume,
		model.SignalPumping,
	}, eval.Signals)
	assert.Equal(t, 10, eval.Priority)
}

func TestEvaluateBareToken(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	now := time.Now()
	token := &model.Token{
		Address:    "bare",
		Source:     model.SourceBirdeye,
		DetectedAt: now.Add(-time.Hour),
	}

	eval := engine.Evaluate(token, now)

	// 没有市场数据时各辅助分保持基准
	assert.Equal(t, 70, eval.Confidence)
	assert.Equal(t, 50, eval.Scores.Risk)
	assert.Equal(t, 50, eval.Scores.Opportunity)
	assert.Equal(t, 50, eval.Scores.Technical)
	assert.Equal(t, 50, eval.Scores.Market)
	assert.Equal(t, 50, eval.Scores.Social)
	assert.Equal(t, 1, eval.Priority)
	assert.Empty(t, eval.Signals)
}

func TestScoreBounds(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	now := time.Now()

	tokens := []*model.Token{
		{
			Address:    "extreme-high",
			Source:     model.SourceChainscan,
			DetectedAt: now.Add(-time.Minute),
			Market: &model.Market{
				PriceUSD:       1,
				Volume5m:       500_000,
				Volume1h:       600_000,
				Volume24h:      9_000_000,
				LiquidityUSD:   400_000,
				MarketCapUSD:   50_000_000,
				PriceChange5m:  80,
				PriceChange1h:  120,
				PriceChange24h: 900,
				TxCount5m:      500,
				TxCount24h:     20_000,
				DexID:          "raydium",
				PairAddress:    "pair",
			},
			Social: &model.Social{Mentions: 5000, Sentiment: 0.99},
		},
		{
			Address:    "extreme-low",
			Source:     "unknown",
			DetectedAt: now.Add(-30 * time.Second),
			Market: &model.Market{
				Volume24h:      10,
				LiquidityUSD:   100,
				MarketCapUSD:   500,
				PriceChange24h: -95,
			},
			Social: &model.Social{Mentions: 1, Sentiment: 0.05},
		},
	}

	for _, token := range tokens {
		eval := engine.Evaluate(token, now)

		all := []int{
			eval.Confidence,
			eval.Scores.Risk,
			eval.Scores.Opportunity,
			eval.Scores.Technical,
			eval.Scores.Market,
			eval.Scores.Social,
		}
		for _, score := range all {
			assert.GreaterOrEqual(t, score, 0, "token %s", token.Address)
			assert.LessOrEqual(t, score, 100, "token %s", token.Address)
		}
		assert.GreaterOrEqual(t, eval.Priority, 1)
		assert.LessOrEqual(t, eval.Priority, 10)
	}
}

func TestSignalAgeBands(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	now := time.Now()

	// 10分钟：new而非very_new
	token := &model.Token{
		Address:    "mid-age",
		Source:     model.SourcePumpfun,
		DetectedAt: now.Add(-10 * time.Minute),
	}
	eval := engine.Evaluate(token, now)
	require.Contains(t, eval.Signals, model.SignalNew)
	assert.NotContains(t, eval.Signals, model.SignalVeryNew)

	// 20分钟：两者都不触发
	token.DetectedAt = now.Add(-20 * time.Minute)
	eval = engine.Evaluate(token, now)
	assert.NotContains(t, eval.Signals, model.SignalNew)
	assert.NotContains(t, eval.Signals, model.SignalVeryNew)
}

func TestRisingVersusPumping(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	now := time.Now()

	token := &model.Token{
		Address:    "riser",
		Source:     model.SourceDexscreener,
		DetectedAt: now.Add(-time.Hour),
		Market:     &model.Market{PriceChange24h: 15},
	}

	eval := engine.Evaluate(token, now)
	assert.Contains(t, eval.Signals, model.SignalRising)
	assert.NotContains(t, eval.Signals, model.SignalPumping)
}

func TestPriorityWeightsConfigurable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Priority = PriorityWeights{Pump: 2, New: 1, Volume: 1, Liquidity: 1, LowAge: 1}
	engine := NewEngine(cfg)

	now := time.Now()
	token := &model.Token{
		Address:    "weighted",
		Source:     model.SourcePumpfun,
		DetectedAt: now.Add(-time.Minute),
		Market:     &model.Market{PriceChange24h: 30},
	}

	eval := engine.Evaluate(token, now)
	// 1基准 +2拉升 +1极新 +1低年龄 = 5
	assert.Equal(t, 5, eval.Priority)
}
