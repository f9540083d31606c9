package analysis

import (
	"time"

	"github.com/ninja0404/token-radar/pkg/config"
)

const (
	defaultTickInterval = 1000 * time.Millisecond
	defaultBatchSize    = 10
	minBatchSize        = 5
	maxBatchSize        = 50

	// seen集合的高低水位，超过高水位时裁剪到低水位
	defaultSeenHighWatermark = 10000
	defaultSeenLowWatermark  = 5000
)

// Config 深度分析队列配置
type Config struct {
	Enabled      bool            `yaml:"enabled" json:"enabled"`
	TickInterval config.Duration `yaml:"tick_interval" json:"tick_interval"`
	BatchSize    int             `yaml:"batch_size" json:"batch_size"`

	SeenHighWatermark int `yaml:"seen_high_watermark" json:"seen_high_watermark"`
	SeenLowWatermark  int `yaml:"seen_low_watermark" json:"seen_low_watermark"`
}

// DefaultConfig 默认队列配置
func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		TickInterval:      config.Duration(defaultTickInterval),
		BatchSize:         defaultBatchSize,
		SeenHighWatermark: defaultSeenHighWatermark,
		SeenLowWatermark:  defaultSeenLowWatermark,
	}
}

func (c *Config) normalize() {
	if c.TickInterval <= 0 {
		c.TickInterval = config.Duration(defaultTickInterval)
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.BatchSize < minBatchSize {
		c.BatchSize = minBatchSize
	}
	if c.BatchSize > maxBatchSize {
		c.BatchSize = maxBatchSize
	}
	if c.SeenHighWatermark <= 0 {
		c.SeenHighWatermark = defaultSeenHighWatermark
	}
	if c.SeenLowWatermark <= 0 || c.SeenLowWatermark >= c.SeenHighWatermark {
		c.SeenLowWatermark = c.SeenHighWatermark / 2
	}
}
