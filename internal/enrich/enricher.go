package enrich

import (
	"context"
	"time"

	"dario.cat/mergo"

	"github.com/ninja0404/token-radar/internal/market"
	"github.com/ninja0404/token-radar/internal/model"
	"github.com/ninja0404/token-radar/pkg/logger"
)

// Config 补全阶段配置
type Config struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// CanonicalSource 市场数据的权威来源，来自该源的记录不再补全
	CanonicalSource string `yaml:"canonical_source" json:"canonical_source"`
}

// DefaultConfig 默认开启，权威源为dexscreener
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		CanonicalSource: model.SourceDexscreener,
	}
}

// Enricher 用二级市场数据补全发现记录。只填空，从不覆盖已有字段
type Enricher struct {
	cfg      Config
	provider market.Provider

	// 便于测试注入时钟
	now func() time.Time
}

// New 创建补全器
func New(cfg Config, provider market.Provider) *Enricher {
	return &Enricher{
		cfg:      cfg,
		provider: provider,
		now:      time.Now,
	}
}

// Enrich 原地补全一条记录，返回是否真正做了补全。
// 查询失败只告警不中断，记录按原样继续走评分，错误交给调用方计数
func (e *Enricher) Enrich(ctx context.Context, token *model.Token) (bool, error) {
	if !e.cfg.Enabled || e.provider == nil {
		return false, nil
	}
	// 权威源自带市场数据，没有补全的必要
	if token.Source == e.cfg.CanonicalSource {
		return false, nil
	}

	fetched, err := e.provider.TokenMarket(ctx, token.Address)
	if err != nil {
		logger.Warn("⚠️ 市场数据补全失败，记录按原样继续",
			logger.FieldToken(token.Address),
			logger.FieldSource(token.Source),
			logger.FieldErr(err))
		return false, err
	}

	dst := token.EnsureMarket()
	if err := mergo.Merge(dst, fetched); err != nil {
		logger.Warn("⚠️ 市场数据合并失败",
			logger.FieldToken(token.Address),
			logger.FieldErr(err))
		return false, err
	}

	token.EnrichedAt = e.now()
	token.EnrichedBy = e.provider.String()

	logger.Debug("💧 市场数据补全完成",
		logger.FieldToken(token.Address),
		logger.String("enriched_by", token.EnrichedBy))
	return true, nil
}
