package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/token-radar/internal/model"
	"github.com/ninja0404/token-radar/pkg/config"
)

func newTestResult(address string, detectedAt time.Time) *model.DetectionResult {
	return &model.DetectionResult{
		ID: "test-" + address,
		Token: &model.Token{
			Address:    address,
			Source:     model.SourcePumpfun,
			DetectedAt: detectedAt,
		},
		Confidence: 70,
		Priority:   1,
	}
}

func TestSeenWithinTTL(t *testing.T) {
	c := New(Config{TTL: config.Duration(5 * time.Minute)})

	base := time.Now()
	c.now = func() time.Time { return base }

	require.False(t, c.Seen("addr-1"))
	c.Put("addr-1", newTestResult("addr-1", base))

	// 窗口内重复提交要被拦下
	assert.True(t, c.Seen("addr-1"))

	c.now = func() time.Time { return base.Add(4 * time.Minute) }
	assert.True(t, c.Seen("addr-1"))
}

func TestSeenAfterTTLExpiry(t *testing.T) {
	c := New(Config{TTL: config.Duration(5 * time.Minute)})

	base := time.Now()
	c.now = func() time.Time { return base }
	c.Put("addr-1", newTestResult("addr-1", base))

	// t0+TTL+1ms 必须允许再次检测
	c.now = func() time.Time { return base.Add(5*time.Minute + time.Millisecond) }
	assert.False(t, c.Seen("addr-1"))

	// 过期条目要被顺手删除
	assert.Equal(t, 0, c.Len())
}

func TestRecentOrderAndLimit(t *testing.T) {
	c := New(Config{TTL: config.Duration(5 * time.Minute)})

	base := time.Now()
	c.now = func() time.Time { return base }

	for i := 0; i < 5; i++ {
		addr := fmt.Sprintf("addr-%d", i)
		c.Put(addr, newTestResult(addr, base.Add(time.Duration(i)*time.Second)))
	}

	results := c.Recent(3)
	require.Len(t, results, 3)

	// 按发现时间倒序
	assert.Equal(t, "addr-4", results[0].Token.Address)
	assert.Equal(t, "addr-3", results[1].Token.Address)
	assert.Equal(t, "addr-2", results[2].Token.Address)
}

func TestRecentExcludesExpired(t *testing.T) {
	c := New(Config{TTL: config.Duration(5 * time.Minute)})

	base := time.Now()
	c.now = func() time.Time { return base }
	c.Put("old", newTestResult("old", base))

	c.now = func() time.Time { return base.Add(3 * time.Minute) }
	c.Put("fresh", newTestResult("fresh", base.Add(3*time.Minute)))

	// old已过期，fresh还在窗口内
	c.now = func() time.Time { return base.Add(5*time.Minute + time.Millisecond) }
	results := c.Recent(0)
	require.Len(t, results, 1)
	assert.Equal(t, "fresh", results[0].Token.Address)
}

func TestEvictExpired(t *testing.T) {
	c := New(Config{TTL: config.Duration(5 * time.Minute)})

	base := time.Now()
	c.now = func() time.Time { return base }
	c.Put("a", newTestResult("a", base))
	c.Put("b", newTestResult("b", base))
	require.Equal(t, 2, c.Len())

	c.now = func() time.Time { return base.Add(5*time.Minute + time.Millisecond) }
	removed := c.evictExpired()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, c.Len())
}

func TestPutResetsWindow(t *testing.T) {
	c := New(Config{TTL: config.Duration(5 * time.Minute)})

	base := time.Now()
	c.now = func() time.Time { return base }
	c.Put("addr-1", newTestResult("addr-1", base))

	// 第4分钟重新写入，窗口从头算
	c.now = func() time.Time { return base.Add(4 * time.Minute) }
	c.Put("addr-1", newTestResult("addr-1", base.Add(4*time.Minute)))

	c.now = func() time.Time { return base.Add(8 * time.Minute) }
	assert.True(t, c.Seen("addr-1"))
}
