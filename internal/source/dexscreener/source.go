package dexscreener

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/ninja0404/token-radar/internal/market"
	"github.com/ninja0404/token-radar/internal/model"
	"github.com/ninja0404/token-radar/internal/source"
	"github.com/ninja0404/token-radar/pkg/fetcher"
	"github.com/ninja0404/token-radar/pkg/logger"
)

const (
	SourceName = model.SourceDexscreener

	defaultEndpoint     = "https://api.dexscreener.com"
	defaultPollInterval = 30 * time.Second

	// 本地已发射集合的上限，防止长时间运行撑爆内存
	emittedLimit = 20000
)

func init() {
	source.Register(SourceName, func(settings source.Settings, deps source.Deps) (source.Strategy, error) {
		if deps.Fetcher == nil {
			return nil, errors.New("dexscreener数据源需要fetcher")
		}
		return NewSource(settings, deps.Fetcher), nil
	})
}

// profilePayload 最新代币档案条目
type profilePayload struct {
	ChainID      string `json:"chainId"`
	TokenAddress string `json:"tokenAddress"`
}

// Source dexscreener轮询数据源。
// 轮询最新代币档案，再按地址查市场数据后发射
type Source struct {
	endpoint     string
	pollInterval time.Duration
	client       *fetcher.Client
	provider     *market.DexscreenerProvider

	tokenChan chan *model.Token
	errChan   chan error

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// 本轮询周期内已发射过的地址
	emitted map[string]struct{}

	running  atomic.Bool
	detected atomic.Uint64
	errCount atomic.Uint64

	stopOnce sync.Once
}

// NewSource 创建dexscreener轮询源
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
		pollInterval: pollInterval,
		client:       client,
		provider:     market.NewDexscreenerProvider(endpoint, client),
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

	logger.Info("🚀 dexscreener轮询源已启动",
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
		logger.Info("🛑 dexscreener轮询源已停止")
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

	// 启动后先拉一次，不等第一个tick
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

// pollOnce 拉一次最新代币档案，新地址补上市场数据后发射
func (s *Source) pollOnce() {
	url := fmt.Sprintf("%s/token-profiles/latest/v1", s.endpoint)

	var profiles []profilePayload
	if err := s.client.GetJSON(s.ctx, "dexscreener:profiles", url, nil, &profiles); err != nil {
		s.reportError(errors.Wrap(err, "拉取最新代币档案失败"))
		return
	}

	for _, profile := range profiles {
		if s.ctx.Err() != nil {
			return
		}
		if profile.ChainID != "solana" || profile.TokenAddress == "" {
			continue
		}
		if _, dup := s.emitted[profile.TokenAddress]; dup {
			continue
		}
		s.markEmitted(profile.TokenAddress)
		s.emitToken(profile.TokenAddress)
	}
}

func (s *Source) emitToken(address string) {
	token := &model.Token{
		Address:    address,
		Source:     SourceName,
		DetectedAt: time.Now(),
	}

	// 自带市场数据，这类记录不再走补全
	data, err := s.provider.TokenMarket(s.ctx, address)
	if err != nil {
		if !errors.Is(err, market.ErrNotFound) {
			s.reportError(errors.Wrapf(err, "查询市场数据失败: %s", address))
		}
	} else {
		token.Market = data
	}

	select {
	case s.tokenChan <- token:
		s.detected.Add(1)
	default:
		logger.Warn("⚠️ dexscreener通道已满，丢弃代币", logger.FieldToken(address))
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
