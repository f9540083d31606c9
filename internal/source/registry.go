package source

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/ninja0404/token-radar/internal/model"
	"github.com/ninja0404/token-radar/pkg/config"
	"github.com/ninja0404/token-radar/pkg/fetcher"
)

// TaskSink 深度分析任务的接收端
type TaskSink interface {
	Enqueue(task *model.AnalysisTask)
}

// Settings 单个数据源的构建参数，不同变体各取所需
type Settings struct {
	Endpoint     string          `yaml:"endpoint" json:"endpoint"`
	WSEndpoint   string          `yaml:"ws_endpoint" json:"ws_endpoint"`
	APIKey       string          `yaml:"api_key" json:"api_key"`
	PollInterval config.Duration `yaml:"poll_interval" json:"poll_interval"`
}

// Deps 构建数据源时注入的共享依赖
type Deps struct {
	Fetcher *fetcher.Client
	Tasks   TaskSink
}

// Factory 数据源构造函数
type Factory func(settings Settings, deps Deps) (Strategy, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register 注册一个数据源变体，变体包在init里调用
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Create 按名称构建数据源
func Create(name string, settings Settings, deps Deps) (Strategy, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, errors.Errorf("未知数据源: %s", name)
	}
	return factory(settings, deps)
}

// Registered 已注册的数据源名称
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
