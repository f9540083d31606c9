package source

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/ninja0404/token-radar/internal/model"
	"github.com/ninja0404/token-radar/pkg/logger"
)

// Status 单个数据源的运行状态摘要
type Status struct {
	Name     string `json:"name"`
	Running  bool   `json:"running"`
	Detected uint64 `json:"detected"`
	Errors   uint64 `json:"errors"`
}

// Strategy 代币发现数据源接口
type Strategy interface {
	// Start 启动数据源，可重复调用
	Start(ctx context.Context) error

	// Stop 停止数据源，可重复调用
	Stop() error

	// Status 运行状态摘要
	Status() Status

	// Subscribe 订阅发现的代币流
	Subscribe() <-chan *model.Token

	// Errors 错误通道
	Errors() <-chan error

	// String 数据源名称
	String() string
}

// Manager 数据源管理器，把各源的发现汇聚到一条通道。
// 单源故障只影响自身，不会打断其他源
type Manager struct {
	sources   []Strategy
	tokenChan chan *model.Token
	errorChan chan error
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	once      sync.Once
}

// NewManager 创建数据源管理器
func NewManager() *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		sources:   make([]Strategy, 0),
		tokenChan: make(chan *model.Token, 10_000),
		errorChan: make(chan error, 100),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// AddSource 添加数据源
func (m *Manager) AddSource(source Strategy) {
	m.sources = append(m.sources, source)
}

// Start 启动所有数据源。单源启动失败只告警，不拖垮其他源
func (m *Manager) Start() error {
	for _, source := range m.sources {
		if err := source.Start(m.ctx); err != nil {
			logger.Error("数据源启动失败",
				logger.FieldSource(source.String()),
				logger.FieldErr(err))
			continue
		}

		m.wg.Add(1)
		go m.listenSource(source)

		logger.Info("✅ 数据源已启动", logger.FieldSource(source.String()))
	}

	return nil
}

// Stop 停止所有数据源，聚合各源的停止错误
func (m *Manager) Stop() error {
	var result error

	m.once.Do(func() {
		m.cancel()

		for _, source := range m.sources {
			if err := source.Stop(); err != nil {
				result = multierror.Append(result, err)
			}
		}

		m.wg.Wait()
		close(m.tokenChan)
		close(m.errorChan)
	})

	return result
}

// Tokens 汇聚后的代币发现流
func (m *Manager) Tokens() <-chan *model.Token {
	return m.tokenChan
}

// Errors 汇聚后的错误流
func (m *Manager) Errors() <-chan error {
	return m.errorChan
}

// Statuses 所有数据源的状态摘要
func (m *Manager) Statuses() []Status {
	statuses := make([]Status, 0, len(m.sources))
	for _, source := range m.sources {
		statuses = append(statuses, source.Status())
	}
	return statuses
}

// listenSource 监听单个数据源并转发到汇聚通道
func (m *Manager) listenSource(source Strategy) {
	defer m.wg.Done()

	tokenChan := source.Subscribe()
	errChan := source.Errors()

	for {
		select {
		case <-m.ctx.Done():
			return
		case token, ok := <-tokenChan:
			if !ok {
				return
			}
			select {
			case m.tokenChan <- token:
			case <-m.ctx.Done():
				return
			}
		case err, ok := <-errChan:
			if !ok {
				return
			}
			select {
			case m.errorChan <- err:
			case <-m.ctx.Done():
				return
			}
		}
	}
}
