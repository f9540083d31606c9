package birdeye

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/ninja0404/token-radar/internal/model"
	"github.com/ninja0404/token-radar/internal/source"
	"github.com/ninja0404/token-radar/pkg/fetcher"
	"github.com/ninja0404/token-radar/pkg/logger"
)

const (
	SourceName = model.SourceBirdeye

	defaultEndpoint     = "https://public-api.birdeye.so"
	defaultPollInterval = 60 * time.Second

	emittedLimit = 20000
)

func init() {
	source.Register(SourceName, func(settings source.Settings, deps source.Deps) (source.Strategy, error) {
		if deps.Fetcher == nil {
			return nil, errors.New("birdeye数据源需要fetcher")
		}
		if settings.APIKey == "" {
			return nil, errors.New("birdeye数据源需要API key")
		}
		return NewSource(settings, deps.Fetcher), nil
	})
}

// listingItem 新上线代币条目
type listingItem struct {
	Address          string  `json:"address"`
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name"`
	Liquidity        float64 `json:"liquidity"`
	LiquidityAddedAt string  `json:"liquidityAddedAt"`
}

// listingPayload 新上线代币接口响应
type listingPayload struct {
	Success bool `json:"success"`
	Data    struct {
		Items []listingItem `json:"items"`
	} `json:"data"`
}

// Source birdeye聚合器轮询源
type Source struct {
	endpoint     string
	apiKey       string
	pollInterval time.Duration
	client       *fetcher.Client

	tokenChan chan *model.Token
	errChan   chan error

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	emitted map[string]struct{}

	running  atomic.Bool
	detected atomic.Uint64
	errCount atomic.Uint64

	stopOnce sync.Once
}

// NewSource 创建birdeye轮询源
func NewSource(settings source.Settings, client *fetcher.Client) *Source {
	endpoint := settings.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	pollInterval := settings.PollInterval.Std()
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Source{
		endpoint:     endpoint,
		apiKey:       settings.APIKey,
		pollInterval: pollInterval,
		client:       client,
		tokenChan:    make(chan *model.Token, 1000),
		errChan:      make(chan error, 100),
		emitted:      make(map[string]struct{}),
	}
}

// Start 启动轮询
func (s *Source) Start(ctx context.Context) error {
	if s.running.Load() {
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running.Store(true)

	s.wg.Add(1)
	go s.pollLoop()

	logger.Info("🚀 birdeye轮询源已启动",
		logger.String("endpoint", s.endpoint),
		logger.String("interval", s.pollInterval.String()))
	return nil
}

// Stop 停止轮询
func (s *Source) Stop() error {
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.wg.Wait()
		s.running.Store(false)
		close(s.tokenChan)
		close(s.errChan)
		logger.Info("🛑 birdeye轮询源已停止")
	})
	return nil
}

// Status 实现Strategy接口
func (s *Source) Status() source.Status {
	return source.Status{
		Name:     SourceName,
		Running:  s.running.Load(),
		Detected: s.detected.Load(),
		Errors:   s.errCount.Load(),
	}
}

// Subscribe 实现Strategy接口
func (s *Source) Subscribe() <-chan *model.Token {
	return s.tokenChan
}

// Errors 实现Strategy接口
func (s *Source) Errors() <-chan error {
	return s.errChan
}

func (s *Source) String() string {
	return SourceName
}

func (s *Source) pollLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	s.pollOnce()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.pollOnce()
		}
	}
}

// pollOnce 拉一次新上线代币列表
func (s *Source) pollOnce() {
	url := fmt.Sprintf("%s/defi/v2/tokens/new_listing?limit=20", s.endpoint)
	header := map[string]string{
		"X-API-KEY": s.apiKey,
		"x-chain":   "solana",
	}

	var payload listingPayload
	if err := s.client.GetJSON(s.ctx, "birdeye:new_listing", url, header, &payload); err != nil {
		s.reportError(errors.Wrap(err, "拉取新上线代币失败"))
		return
	}
	if !payload.Success {
		s.reportError(errors.New("birdeye接口返回失败"))
		return
	}

	now := time.Now()
	for _, item := range payload.Data.Items {
		if item.Address == "" {
			continue
		}
		if _, dup := s.emitted[item.Address]; dup {
			continue
		}
		s.markEmitted(item.Address)

		token := &model.Token{
			Address:    item.Address,
			Symbol:     item.Symbol,
			Name:       item.Name,
			Source:     SourceName,
			DetectedAt: now,
		}
		if item.Liquidity > 0 {
			token.EnsureMarket().LiquidityUSD = item.Liquidity
		}

		select {
		case s.tokenChan <- token:
			s.detected.Add(1)
		default:
			logger.Warn("⚠️ birdeye通道已满，丢弃代币", logger.FieldToken(item.Address))
		}
	}
}

func (s *Source) markEmitted(address string) {
	if len(s.emitted) >= emittedLimit {
		s.emitted = make(map[string]struct{})
	}
	s.emitted[address] = struct{}{}
}

func (s *Source) reportError(err error) {
	s.errCount.Add(1)
	select {
	case s.errChan <- err:
	default:
	}
}
