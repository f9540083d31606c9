package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ninja0404/token-radar/internal/model"
	"github.com/ninja0404/token-radar/pkg/config"
	"github.com/ninja0404/token-radar/pkg/logger"
)

const (
	// DefaultTTL 同一地址在窗口内只允许产出一次检测结果
	DefaultTTL = 5 * time.Minute
	// DefaultSweepInterval 过期清理周期
	DefaultSweepInterval = time.Minute
)

// Config 新鲜度缓存配置
type Config struct {
	TTL           config.Duration `yaml:"ttl" json:"ttl"`
	SweepInterval config.Duration `yaml:"sweep_interval" json:"sweep_interval"`
}

type entry struct {
	result     *model.DetectionResult
	insertedAt time.Time
}

// FreshnessCache 按地址记录最近一次检测结果，用于管道去重和最近结果查询
type FreshnessCache struct {
	mutex   sync.RWMutex
	entries map[string]*entry

	ttl   time.Duration
	sweep time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	// 便于测试注入时钟
	now func() time.Time
}

// New 创建缓存
func New(cfg Config) *FreshnessCache {
	ttl := cfg.TTL.Std()
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	sweep := cfg.SweepInterval.Std()
	if sweep <= 0 {
		sweep = DefaultSweepInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &FreshnessCache{
		entries: make(map[string]*entry),
		ttl:     ttl,
		sweep:   sweep,
		ctx:     ctx,
		cancel:  cancel,
		now:     time.Now,
	}
}

// Start 启动周期清理协程
func (c *FreshnessCache) Start() {
	go func() {
		ticker := time.NewTicker(c.sweep)
		defer ticker.Stop()

		for {
			select {
			case <-c.ctx.Done():
				return
			case <-ticker.C:
				removed := c.evictExpired()
				if removed > 0 {
					logger.Debug("🧹 清理过期缓存", logger.Int("removed", removed))
				}
			}
		}
	}()
}

// Stop 停止清理协程，幂等
func (c *FreshnessCache) Stop() {
	c.cancel()
}

// Seen 地址是否还在TTL窗口内。过期条目顺手删除
func (c *FreshnessCache) Seen(address string) bool {
	now := c.now()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	e, ok := c.entries[address]
	if !ok {
		return false
	}
	if now.Sub(e.insertedAt) >= c.ttl {
		delete(c.entries, address)
		return false
	}
	return true
}

// Put 写入一条检测结果，重置该地址的TTL窗口
func (c *FreshnessCache) Put(address string, result *model.DetectionResult) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries[address] = &entry{
		result:     result,
		insertedAt: c.now(),
	}
}

// Recent 返回TTL窗口内的结果，按发现时间倒序，最多limit条
func (c *FreshnessCache) Recent(limit int) []*model.DetectionResult {
	now := c.now()

	c.mutex.RLock()
	results := make([]*model.DetectionResult, 0, len(c.entries))
	for _, e := range c.entries {
		if now.Sub(e.insertedAt) >= c.ttl {
			continue
		}
		results = append(results, e.result)
	}
	c.mutex.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		return results[i].Token.DetectedAt.After(results[j].Token.DetectedAt)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// Len 当前缓存条数（含未被清理的过期条目）
func (c *FreshnessCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}

// evictExpired 删除所有过期条目，返回删除数量
func (c *FreshnessCache) evictExpired() int {
	now := c.now()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	removed := 0
	for addr, e := range c.entries {
		if now.Sub(e.insertedAt) >= c.ttl {
			delete(c.entries, addr)
			removed++
		}
	}
	return removed
}
