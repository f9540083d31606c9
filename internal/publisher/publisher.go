package publisher

import (
	"encoding/json"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/ninja0404/token-radar/internal/model"
	"github.com/ninja0404/token-radar/pkg/logger"
)

// Config 发布器配置
type Config struct {
	FeishuWebhookURL string `yaml:"feishu_webhook_url" json:"feishu_webhook_url"`
	KafkaTopic       string `yaml:"kafka_topic" json:"kafka_topic"`
	KafkaEnabled     bool   `yaml:"kafka_enabled" json:"kafka_enabled"`
}

// Publisher 检测结果发布器接口
type Publisher interface {
	// Publish 发布一条检测结果
	Publish(result *model.DetectionResult) error

	// GetType 获取发布器类型
	GetType() string

	// Close 关闭发布器
	Close() error
}

// Manager 检测结果发布管理器。发布失败按发布器隔离，不相互影响
type Manager struct {
	config     Config
	publishers []Publisher
	mutex      sync.RWMutex
}

// NewManager 创建发布管理器
func NewManager(config Config) *Manager {
	return &Manager{
		config:     config,
		publishers: make([]Publisher, 0),
	}
}

// AddPublisher 添加发布器
func (m *Manager) AddPublisher(publisher Publisher) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.publishers = append(m.publishers, publisher)
}

// registerDefaultPublishers 注册默认发布器
func (m *Manager) registerDefaultPublishers() {
	m.AddPublisher(&LogPublisher{})

	if m.config.FeishuWebhookURL != "" {
		m.AddPublisher(NewFeishuPublisher(m.config.FeishuWebhookURL))
	}

	if m.config.KafkaEnabled && m.config.KafkaTopic != "" {
		m.AddPublisher(NewKafkaPublisher(m.config.KafkaTopic))
	}
}

// PublishResult 把结果发布到所有已注册的发布器。
// 发布失败按发布器隔离，聚合后的错误返回给调用方计数
func (m *Manager) PublishResult(result *model.DetectionResult) error {
	m.mutex.RLock()
	publishers := m.publishers
	m.mutex.RUnlock()

	var errs *multierror.Error
	for _, publisher := range publishers {
		if err := publisher.Publish(result); err != nil {
			errs = multierror.Append(errs, err)
			logger.Error("发布检测结果失败",
				logger.String("publisher", publisher.GetType()),
				logger.String("result_id", result.ID),
				logger.FieldToken(result.Token.Address),
				logger.FieldErr(err))
			continue
		}
		logger.Debug("✅ 检测结果发布成功",
			logger.String("publisher", publisher.GetType()),
			logger.String("result_id", result.ID),
			logger.FieldToken(result.Token.Address),
			logger.FieldPriority(result.Priority))
	}
	return errs.ErrorOrNil()
}

// Start 启动发布管理器
func (m *Manager) Start() error {
	m.registerDefaultPublishers()

	m.mutex.RLock()
	for _, publisher := range m.publishers {
		logger.Info("✅ 已加载结果发布器", logger.String("type", publisher.GetType()))
	}
	m.mutex.RUnlock()

	logger.Info("📡 结果发布管理器已启动")
	return nil
}

// Stop 停止发布管理器并关闭所有发布器
func (m *Manager) Stop() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, publisher := range m.publishers {
		if err := publisher.Close(); err != nil {
			logger.Error("关闭发布器失败",
				logger.String("type", publisher.GetType()),
				logger.FieldErr(err))
		}
	}

	logger.Info("结果发布管理器已停止")
	return nil
}

// LogPublisher 日志发布器，把检测结果输出到日志
type LogPublisher struct{}

func (p *LogPublisher) GetType() string {
	return "log"
}

func (p *LogPublisher) Publish(result *model.DetectionResult) error {
	logger.Info("🚨 发现新代币",
		logger.String("result_id", result.ID),
		logger.FieldToken(result.Token.Address),
		logger.String("symbol", result.Token.Symbol),
		logger.FieldSource(result.Token.Source),
		logger.Int("confidence", result.Confidence),
		logger.FieldPriority(result.Priority),
		logger.Strings("signals", result.Signals))
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}

// ConsolePublisher 控制台发布器，格式化完整JSON输出
type ConsolePublisher struct{}

func (p *ConsolePublisher) GetType() string {
	return "console"
}

func (p *ConsolePublisher) Publish(result *model.DetectionResult) error {
	resultJSON, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	logger.Info("🚨 检测结果详情", logger.String("result", string(resultJSON)))
	return nil
}

func (p *ConsolePublisher) Close() error {
	return nil
}
