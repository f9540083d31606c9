package fetcher

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/ninja0404/token-radar/pkg/config"
	"github.com/ninja0404/token-radar/pkg/logger"
)

// Config 外部请求执行器配置
type Config struct {
	// 每秒允许的请求数
	RatePerSecond float64 `yaml:"rate_per_second" json:"rate_per_second"`
	// 突发容量
	Burst int `yaml:"burst" json:"burst"`
	// 单次请求超时
	Timeout config.Duration `yaml:"timeout" json:"timeout"`
	// 失败重试次数
	RetryCount int `yaml:"retry_count" json:"retry_count"`
	// 重试退避基数
	RetryBackoff config.Duration `yaml:"retry_backoff" json:"retry_backoff"`
}

func DefaultConfig() Config {
	return Config{
		RatePerSecond: 5,
		Burst:         10,
		Timeout:       config.Duration(10 * time.Second),
		RetryCount:    2,
		RetryBackoff:  config.Duration(500 * time.Millisecond),
	}
}

// Client 带限流和按key去重的HTTP执行器，策略访问上游API都经过它
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	group   singleflight.Group
	retries int
	backoff time.Duration
}

// New 创建执行器
func New(cfg Config) *Client {
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = DefaultConfig().RatePerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultConfig().Burst
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = DefaultConfig().RetryBackoff
	}

	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout.Std()},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		retries: cfg.RetryCount,
		backoff: cfg.RetryBackoff.Std(),
	}
}

// GetJSON 发起GET请求并解析JSON响应。相同key的并发请求只会打到上游一次
func (c *Client) GetJSON(ctx context.Context, key string, url string, header map[string]string, out interface{}) error {
	body, err, shared := c.group.Do(key, func() (interface{}, error) {
		return c.get(ctx, url, header)
	})
	if err != nil {
		return err
	}
	if shared {
		logger.Debug("请求命中去重", logger.FieldKey(key))
	}
	return errors.Wrap(json.Unmarshal(body.([]byte), out), "decode response")
}

func (c *Client) get(ctx context.Context, url string, header map[string]string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff * time.Duration(attempt)):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, err := c.doOnce(ctx, url, header)
		if err == nil {
			return body, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, url string, header map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// 读掉body让连接可复用
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, errors.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}
	return body, nil
}
