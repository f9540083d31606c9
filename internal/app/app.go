package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ninja0404/token-radar/internal/analysis"
	"github.com/ninja0404/token-radar/internal/cache"
	"github.com/ninja0404/token-radar/internal/config"
	"github.com/ninja0404/token-radar/internal/enrich"
	"github.com/ninja0404/token-radar/internal/market"
	"github.com/ninja0404/token-radar/internal/pipeline"
	"github.com/ninja0404/token-radar/internal/publisher"
	"github.com/ninja0404/token-radar/internal/repo"
	"github.com/ninja0404/token-radar/internal/scoring"
	"github.com/ninja0404/token-radar/internal/source"
	"github.com/ninja0404/token-radar/internal/stats"
	"github.com/ninja0404/token-radar/pkg/database/mysql"
	"github.com/ninja0404/token-radar/pkg/fetcher"
	"github.com/ninja0404/token-radar/pkg/logger"
	"github.com/ninja0404/token-radar/pkg/mq/kafka"

	// 数据源变体在init里注册到registry
	_ "github.com/ninja0404/token-radar/internal/source/birdeye"
	_ "github.com/ninja0404/token-radar/internal/source/chainscan"
	_ "github.com/ninja0404/token-radar/internal/source/dexscreener"
	_ "github.com/ninja0404/token-radar/internal/source/pumpfun"
)

// Application 新代币发现与评分服务
type Application struct {
	configManager *config.Manager

	sourceManager *source.Manager
	freshCache    *cache.FreshnessCache
	queue         *analysis.Queue
	analyzer      analysis.Analyzer
	pipeline      *pipeline.Pipeline
	publisher     *publisher.Manager
	aggregator    *stats.Aggregator

	kafkaEnabled bool
	mysqlEnabled bool

	cancel context.CancelFunc
}

// New 创建应用实例
func New() *Application {
	return &Application{
		configManager: config.NewManager(),
	}
}

// Initialize 初始化应用
func (app *Application) Initialize(configPath string) error {
	if err := app.configManager.Load(configPath); err != nil {
		return err
	}
	if err := app.configManager.InitLogger(); err != nil {
		return err
	}
	logger.Info("🚀 新代币发现服务初始化开始", logger.String("config_path", configPath))

	cfg := app.configManager.GetAppConfig()

	httpClient := fetcher.New(cfg.Fetcher)

	// 深度分析器与工作队列
	chainSettings := cfg.Sources.Settings["chainscan"]
	analyzer := analysis.NewChainAnalyzer(chainSettings.Endpoint)
	app.analyzer = analyzer
	app.queue = analysis.NewQueue(cfg.Analysis, analyzer)

	// 数据源
	app.sourceManager = source.NewManager()
	deps := source.Deps{Fetcher: httpClient, Tasks: app.queue}
	for _, name := range cfg.Sources.Enabled {
		strategy, err := source.Create(name, cfg.Sources.Settings[name], deps)
		if err != nil {
			logger.Error("❌ 构建数据源失败", logger.FieldSource(name), logger.FieldErr(err))
			continue
		}
		app.sourceManager.AddSource(strategy)
	}

	// 外部基础设施
	var detectRepo repo.DetectionRepo
	if cfg.Mysql.Enabled {
		if err := mysql.SetupDatabaseFromDefaultConfig(); err != nil {
			return err
		}
		db, err := mysql.GetDb()
		if err != nil {
			return err
		}
		detectRepo = repo.NewDetectionRepo(db)
		app.mysqlEnabled = true
		logger.Info("📊 数据库连接已建立")
	}

	if cfg.Publisher.KafkaEnabled {
		if len(cfg.Kafka.Brokers) == 0 {
			logger.Warn("⚠️ 已开启Kafka投递但未配置broker，跳过生产者初始化")
		} else {
			if err := kafka.SetupProducer(cfg.Kafka.Brokers, kafka.ProducerConfig{ClientID: "token-radar"}); err != nil {
				return err
			}
			app.kafkaEnabled = true
			logger.Info("📨 Kafka生产者已就绪")
		}
	}

	// 管道各阶段
	app.freshCache = cache.New(cfg.Cache)
	app.aggregator = stats.NewAggregator()
	app.queue.SetErrorSink(app.aggregator)
	app.publisher = publisher.NewManager(cfg.Publisher)

	enricher := enrich.New(cfg.Enrich, market.NewDexscreenerProvider("", httpClient))

	app.pipeline = pipeline.New(pipeline.Options{
		Cache:     app.freshCache,
		Enricher:  enricher,
		Engine:    scoring.NewEngine(cfg.Scoring),
		Stats:     app.aggregator,
		Publisher: app.publisher,
		Repo:      detectRepo,
		Tokens:    app.sourceManager.Tokens(),
		Errors:    app.sourceManager.Errors(),
		Feedback:  app.analyzer.Results(),
	})

	logger.Info("✅ 新代币发现服务初始化完成",
		logger.Strings("sources", cfg.Sources.Enabled),
		logger.Strings("registered", source.Registered()))
	return nil
}

// Run 运行应用直到收到终止信号
func (app *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel

	app.freshCache.Start()
	if err := app.publisher.Start(); err != nil {
		return err
	}
	app.pipeline.Start(ctx)
	app.queue.Start(ctx)
	if err := app.sourceManager.Start(); err != nil {
		return err
	}

	logger.Info("🔥 新代币发现服务已启动，开始监控各数据源...")

	app.waitForShutdown()
	return nil
}

// waitForShutdown 等待关闭信号
func (app *Application) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	logger.Info("📤 收到终止信号，开始优雅关闭应用...", logger.String("signal", sig.String()))

	app.Shutdown()
}

// Shutdown 优雅关闭应用，先停源头再停下游
func (app *Application) Shutdown() {
	logger.Info("🛑 开始关闭新代币发现服务...")

	if err := app.sourceManager.Stop(); err != nil {
		logger.Error("停止数据源失败", logger.FieldErr(err))
	}
	app.queue.Stop()
	app.pipeline.Stop()
	if err := app.publisher.Stop(); err != nil {
		logger.Error("停止发布管理器失败", logger.FieldErr(err))
	}
	app.freshCache.Stop()

	if app.kafkaEnabled {
		if err := kafka.CloseProducer(); err != nil {
			logger.Error("关闭Kafka生产者失败", logger.FieldErr(err))
		}
	}
	if app.mysqlEnabled {
		if err := mysql.Stop(); err != nil {
			logger.Error("关闭数据库连接失败", logger.FieldErr(err))
		}
	}

	if app.cancel != nil {
		app.cancel()
	}

	snap := app.aggregator.Snapshot()
	logger.Info("📈 服务运行统计",
		logger.Uint64("total_detected", snap.TotalDetected),
		logger.Uint64("total_filtered", snap.TotalFiltered),
		logger.Float64("success_rate", snap.SuccessRate),
		logger.Float64("avg_confidence", snap.AverageConfidence),
		logger.String("avg_detection_time", snap.AverageDetectionTime.String()),
		logger.Any("by_source", snap.BySource))

	logger.Info("✨ 新代币发现服务已成功关闭")
	logger.Close()
}

// Start 启动应用的便捷方法
func (app *Application) Start(configPath string) error {
	if err := app.Initialize(configPath); err != nil {
		logger.Error("❌ 新代币发现服务初始化失败", logger.FieldErr(err))
		return err
	}
	if err := app.Run(); err != nil {
		logger.Error("❌ 新代币发现服务运行失败", logger.FieldErr(err))
		return err
	}
	return nil
}

// GetPipeline 获取检测管道（用于调试和监控）
func (app *Application) GetPipeline() *pipeline.Pipeline {
	return app.pipeline
}

// GetConfigManager 获取配置管理器
func (app *Application) GetConfigManager() *config.Manager {
	return app.configManager
}
