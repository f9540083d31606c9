package config

import (
	"github.com/ninja0404/token-radar/internal/analysis"
	"github.com/ninja0404/token-radar/internal/cache"
	"github.com/ninja0404/token-radar/internal/enrich"
	"github.com/ninja0404/token-radar/internal/publisher"
	"github.com/ninja0404/token-radar/internal/scoring"
	"github.com/ninja0404/token-radar/internal/source"
	"github.com/ninja0404/token-radar/pkg/config"
	csource "github.com/ninja0404/token-radar/pkg/config/source"
	"github.com/ninja0404/token-radar/pkg/config/source/file"
	"github.com/ninja0404/token-radar/pkg/database/mysql"
	"github.com/ninja0404/token-radar/pkg/fetcher"
	"github.com/ninja0404/token-radar/pkg/logger"
)

// AppConfig 应用配置结构
type AppConfig struct {
	Sources   SourcesConfig    `yaml:"sources" json:"sources"`
	Cache     cache.Config     `yaml:"cache" json:"cache"`
	Enrich    enrich.Config    `yaml:"enrich" json:"enrich"`
	Scoring   scoring.Config   `yaml:"scoring" json:"scoring"`
	Analysis  analysis.Config  `yaml:"analysis" json:"analysis"`
	Publisher publisher.Config `yaml:"publisher" json:"publisher"`
	Fetcher   fetcher.Config   `yaml:"fetcher" json:"fetcher"`
	Mysql     mysql.Config     `yaml:"mysql" json:"mysql"`
	Kafka     KafkaConfig      `yaml:"kafka" json:"kafka"`
}

// SourcesConfig 数据源开关和各源参数
type SourcesConfig struct {
	Enabled  []string                   `yaml:"enabled" json:"enabled"`
	Settings map[string]source.Settings `yaml:"settings" json:"settings"`
}

// KafkaConfig 结果投递用的Kafka连接配置
type KafkaConfig struct {
	Brokers []string `yaml:"brokers" json:"brokers"`
}

// Manager 配置管理器
type Manager struct {
	config *AppConfig
}

// NewManager 创建配置管理器
func NewManager() *Manager {
	return &Manager{}
}

// Load 加载配置文件
func (m *Manager) Load(configPath string) error {
	err := config.Load(file.NewSource(
		file.WithPath(configPath),
		csource.WithFormat("yaml"),
	))
	if err != nil {
		return err
	}

	appConfig := defaultAppConfig()
	if err := config.Scan(appConfig); err != nil {
		return err
	}

	m.config = appConfig
	return nil
}

// defaultAppConfig 各组件的默认值，配置文件里没写的字段保持默认
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Sources: SourcesConfig{
			Enabled:  []string{"pumpfun", "dexscreener"},
			Settings: make(map[string]source.Settings),
		},
		Cache: cache.Config{
			TTL:           config.Duration(cache.DefaultTTL),
			SweepInterval: config.Duration(cache.DefaultSweepInterval),
		},
		Enrich:   enrich.DefaultConfig(),
		Scoring:  scoring.DefaultConfig(),
		Analysis: analysis.DefaultConfig(),
		Fetcher:  fetcher.DefaultConfig(),
	}
}

// GetAppConfig 获取应用配置
func (m *Manager) GetAppConfig() *AppConfig {
	return m.config
}

// InitLogger 初始化日志系统
func (m *Manager) InitLogger() error {
	loggerConfig := logger.FromConfig("logger")
	loggerInstance := loggerConfig.Build()
	logger.SetDefault(loggerInstance)
	logger.SetDefaultL1(loggerInstance)
	return nil
}
