package pumpfun

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/ninja0404/token-radar/internal/model"
	"github.com/ninja0404/token-radar/internal/source"
	"github.com/ninja0404/token-radar/pkg/logger"
)

const (
	SourceName = model.SourcePumpfun

	defaultEndpoint = "wss://pumpportal.fun/api/data"

	reconnectDelay    = 1 * time.Second
	maxReconnectDelay = 30 * time.Second
	readTimeout       = 60 * time.Second
	writeTimeout      = 10 * time.Second
)

// 估算市值用的SOL价格，精确价格由补全阶段矫正
var solPriceUSD = decimal.NewFromInt(150)

func init() {
	source.Register(SourceName, func(settings source.Settings, _ source.Deps) (source.Strategy, error) {
		return NewSource(settings), nil
	})
}

// subscribeRequest 订阅新代币推送的请求体
type subscribeRequest struct {
	Method string `json:"method"`
}

// newTokenEvent 推送过来的新代币事件
type newTokenEvent struct {
	Mint         string  `json:"mint"`
	Name         string  `json:"name"`
	Symbol       string  `json:"symbol"`
	SolAmount    float64 `json:"solAmount"`
	MarketCapSol float64 `json:"marketCapSol"`
	TxType       string  `json:"txType"`
}

// Source pump.fun实时推送数据源，断线自动重连
type Source struct {
	endpoint  string
	tokenChan chan *model.Token
	errChan   chan error

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	running  atomic.Bool
	detected atomic.Uint64
	errCount atomic.Uint64

	stopOnce sync.Once
}

// NewSource 创建pump.fun数据源
func NewSource(settings source.Settings) *Source {
	endpoint := settings.WSEndpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Source{
		endpoint:  endpoint,
		tokenChan: make(chan *model.Token, 1000),
		errChan:   make(chan error, 100),
	}
}

// Start 启动推送监听
func (s *Source) Start(ctx context.Context) error {
	if s.running.Load() {
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running.Store(true)

	s.wg.Add(1)
	go s.connectLoop()

	logger.Info("🚀 pump.fun推送源已启动", logger.String("endpoint", s.endpoint))
	return nil
}

// Stop 停止监听
func (s *Source) Stop() error {
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.wg.Wait()
		s.running.Store(false)
		close(s.tokenChan)
		close(s.errChan)
		logger.Info("🛑 pump.fun推送源已停止")
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

// connectLoop 连接循环，断线后指数退避重连
func (s *Source) connectLoop() {
	defer s.wg.Done()

	delay := reconnectDelay
	for {
		if s.ctx.Err() != nil {
			return
		}

		if err := s.runConnection(); err != nil {
			s.reportError(errors.Wrap(err, "pump.fun连接中断"))
		}

		select {
		case <-s.ctx.Done():
			return
		case <-time.After(delay):
		}

		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

// runConnection 单次连接的完整生命周期
func (s *Source) runConnection() error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(s.ctx, s.endpoint, nil)
	if err != nil {
		return errors.Wrap(err, "websocket连接失败")
	}
	defer conn.Close()

	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(subscribeRequest{Method: "subscribeNewToken"}); err != nil {
		return errors.Wrap(err, "发送订阅请求失败")
	}

	logger.Info("✅ pump.fun推送订阅成功")

	// 连接建立后goroutine盯着ctx取消，踢掉阻塞的读
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-s.ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if s.ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "读取推送消息失败")
		}
		s.handleMessage(payload)
	}
}

// handleMessage 解析一条推送并转成发现记录
func (s *Source) handleMessage(payload []byte) {
	var event newTokenEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.reportError(errors.Wrap(err, "解析推送消息失败"))
		return
	}
	// 订阅确认等非代币消息没有mint字段，直接忽略
	if event.Mint == "" {
		return
	}
	if event.TxType != "" && event.TxType != "create" {
		return
	}

	token := &model.Token{
		Address:    event.Mint,
		Symbol:     event.Symbol,
		Name:       event.Name,
		Source:     SourceName,
		DetectedAt: time.Now(),
	}
	if event.MarketCapSol > 0 {
		mcap, _ := decimal.NewFromFloat(event.MarketCapSol).Mul(solPriceUSD).Float64()
		token.EnsureMarket().MarketCapUSD = mcap
	}

	select {
	case s.tokenChan <- token:
		s.detected.Add(1)
	default:
		logger.Warn("⚠️ pump.fun通道已满，丢弃代币", logger.FieldToken(event.Mint))
	}
}

func (s *Source) reportError(err error) {
	s.errCount.Add(1)
	select {
	case s.errChan <- err:
	default:
	}
}
