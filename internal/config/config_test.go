package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 随仓库发布的默认配置必须能被完整加载，时间段字段按"5m"这类写法解析
func TestLoadShippedConfig(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Load("../../config/config.yaml"))

	cfg := m.GetAppConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL.Std())
	assert.Equal(t, time.Minute, cfg.Cache.SweepInterval.Std())
	assert.Equal(t, time.Second, cfg.Analysis.TickInterval.Std())
	assert.Equal(t, 10*time.Second, cfg.Fetcher.Timeout.Std())
	assert.Equal(t, 500*time.Millisecond, cfg.Fetcher.RetryBackoff.Std())
	assert.Equal(t, 30*time.Second, cfg.Sources.Settings["dexscreener"].PollInterval.Std())
	assert.Equal(t, 15*time.Second, cfg.Sources.Settings["chainscan"].PollInterval.Std())

	assert.Equal(t, []string{"pumpfun", "dexscreener", "chainscan"}, cfg.Sources.Enabled)
	assert.True(t, cfg.Enrich.Enabled)
	assert.False(t, cfg.Mysql.Enabled)
	assert.Equal(t, "token-radar.detections", cfg.Publisher.KafkaTopic)
}
