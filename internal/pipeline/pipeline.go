package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/ninja0404/token-radar/internal/cache"
	"github.com/ninja0404/token-radar/internal/enrich"
	"github.com/ninja0404/token-radar/internal/model"
	"github.com/ninja0404/token-radar/internal/repo"
	"github.com/ninja0404/token-radar/internal/scoring"
	"github.com/ninja0404/token-radar/internal/security"
	"github.com/ninja0404/token-radar/internal/stats"
	"github.com/ninja0404/token-radar/pkg/logger"
	"github.com/ninja0404/token-radar/pkg/utils"
)

const (
	subscriberBuffer  = 1000
	statsDumpInterval = 1 * time.Minute
)

// 错误分类计数用的类别名
const (
	errClassSource   = "source"
	errClassEnrich   = "enrich"
	errClassPublish  = "publish"
	errClassPersist  = "persist"
	errClassSecurity = "security"
)

// ResultSink 检测结果的下游投递端
type ResultSink interface {
	PublishResult(result *model.DetectionResult) error
}

// Pipeline 检测管道协调器。
// 准入去重 → 补全 → 评分 → 写缓存 → 统计 → 发布 → 落库，
// 处理循环单goroutine跑，顺序即各来源汇聚后的到达顺序
type Pipeline struct {
	cache      *cache.FreshnessCache
	enricher   *enrich.Enricher
	engine     *scoring.Engine
	stats      *stats.Aggregator
	publisher  ResultSink
	detectRepo repo.DetectionRepo
	security   security.Checker

	tokens   <-chan *model.Token
	srcErrs  <-chan error
	feedback <-chan *model.Token

	subscribers []chan *model.DetectionResult
	subMutex    sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once

	// 便于测试注入时钟
	now func() time.Time
}

// Options 构建管道的依赖
type Options struct {
	Cache     *cache.FreshnessCache
	Enricher  *enrich.Enricher
	Engine    *scoring.Engine
	Stats     *stats.Aggregator
	Publisher ResultSink
	Repo      repo.DetectionRepo
	// Security 外部合约安全检查，实现由调用方注入，不注入则跳过该环节
	Security  security.Checker

	Tokens   <-chan *model.Token
	Errors   <-chan error
	Feedback <-chan *model.Token
}

// New 创建管道
func New(opts Options) *Pipeline {
	return &Pipeline{
		cache:      opts.Cache,
		enricher:   opts.Enricher,
		engine:     opts.Engine,
		stats:      opts.Stats,
		publisher:  opts.Publisher,
		detectRepo: opts.Repo,
		security:   opts.Security,
		tokens:     opts.Tokens,
		srcErrs:    opts.Errors,
		feedback:   opts.Feedback,
		now:        time.Now,
	}
}

// Start 启动处理循环
func (p *Pipeline) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.loop()

	logger.Info("🚀 检测管道已启动")
}

// Stop 停止处理循环并关闭订阅通道
func (p *Pipeline) Stop() {
	p.once.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}
		p.wg.Wait()

		p.subMutex.Lock()
		for _, sub := range p.subscribers {
			close(sub)
		}
		p.subscribers = nil
		p.subMutex.Unlock()

		logger.Info("🛑 检测管道已停止")
	})
}

// Subscribe 订阅检测结果流。单订阅者内保证FIFO，跨订阅者无顺序约定
func (p *Pipeline) Subscribe() <-chan *model.DetectionResult {
	ch := make(chan *model.DetectionResult, subscriberBuffer)

	p.subMutex.Lock()
	p.subscribers = append(p.subscribers, ch)
	p.subMutex.Unlock()

	return ch
}

// RecentResults 最近的检测结果，按发现时间倒序
func (p *Pipeline) RecentResults(limit int) []*model.DetectionResult {
	return p.cache.Recent(limit)
}

// Stats 当前统计快照
func (p *Pipeline) Stats() stats.Snapshot {
	return p.stats.Snapshot()
}

func (p *Pipeline) loop() {
	defer p.wg.Done()

	ticker := time.NewTicker(statsDumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case token, ok := <-p.tokens:
			if !ok {
				return
			}
			p.Process(token)
		case token, ok := <-p.feedback:
			if !ok {
				p.feedback = nil
				continue
			}
			p.Process(token)
		case err, ok := <-p.srcErrs:
			if !ok {
				p.srcErrs = nil
				continue
			}
			p.stats.RecordError(errClassSource)
			logger.Warn("⚠️ 数据源上报错误", logger.FieldErr(err))
		case <-ticker.C:
			p.dumpStats()
		}
	}
}

// Process 同步跑完一条记录的完整管道，返回产出的结果，被去重时返回nil
func (p *Pipeline) Process(token *model.Token) *model.DetectionResult {
	if token == nil || token.Address == "" {
		return nil
	}

	// 准入：TTL窗口内同地址只处理一次
	if p.cache.Seen(token.Address) {
		p.stats.RecordFiltered()
		logger.Debug("⏭️ 地址在去重窗口内，跳过",
			logger.FieldToken(token.Address),
			logger.FieldSource(token.Source))
		return nil
	}

	if token.DetectedAt.IsZero() {
		token.DetectedAt = p.now()
	}

	if p.enricher != nil {
		if _, err := p.enricher.Enrich(p.ctxOrBackground(), token); err != nil {
			p.stats.RecordError(errClassEnrich)
		}
	}

	report := p.checkSecurity(token)
	if report != nil && !report.Passed {
		p.stats.RecordFiltered()
		logger.Info("🛡️ 安全检查未通过，丢弃",
			logger.FieldToken(token.Address),
			logger.FieldSource(token.Source))
		return nil
	}

	eval := p.engine.Evaluate(token, p.now())

	result := &model.DetectionResult{
		ID:               utils.GenerateResultID(),
		Token:            token,
		Confidence:       eval.Confidence,
		Sources:          []string{token.Source},
		DetectionLatency: p.now().Sub(token.DetectedAt),
		Priority:         eval.Priority,
		Signals:          eval.Signals,
		Scores:           eval.Scores,
		Security:         report,
	}

	p.cache.Put(token.Address, result)
	p.stats.RecordDetection(result)

	if p.publisher != nil {
		if err := p.publisher.PublishResult(result); err != nil {
			p.stats.RecordError(errClassPublish)
		}
	}
	p.persist(result)
	p.fanOut(result)

	logger.Info("🎯 检测结果产出",
		logger.FieldToken(token.Address),
		logger.FieldSource(token.Source),
		logger.Int("confidence", result.Confidence),
		logger.FieldPriority(result.Priority),
		logger.Strings("signals", result.Signals),
		logger.FieldCost(result.DetectionLatency))

	return result
}

// checkSecurity 调用外部安全检查，查询失败时放行，结论留空
func (p *Pipeline) checkSecurity(token *model.Token) *security.Report {
	if p.security == nil {
		return nil
	}
	report, err := p.security.Check(p.ctxOrBackground(), token.Address)
	if err != nil {
		p.stats.RecordError(errClassSecurity)
		logger.Warn("⚠️ 安全检查失败，记录按原样继续",
			logger.FieldToken(token.Address),
			logger.FieldErr(err))
		return nil
	}
	return report
}

// persist 尽力落库，失败不影响主流程
func (p *Pipeline) persist(result *model.DetectionResult) {
	if p.detectRepo == nil {
		return
	}
	if err := p.detectRepo.Save(result); err != nil {
		p.stats.RecordError(errClassPersist)
		logger.Warn("⚠️ 检测结果落库失败",
			logger.FieldToken(result.Token.Address),
			logger.FieldErr(err))
	}
}

// fanOut 把结果广播给所有订阅者，慢订阅者丢弃不阻塞
func (p *Pipeline) fanOut(result *model.DetectionResult) {
	p.subMutex.RLock()
	defer p.subMutex.RUnlock()

	for _, sub := range p.subscribers {
		select {
		case sub <- result:
		default:
			logger.Warn("⚠️ 订阅通道已满，丢弃结果", logger.String("result_id", result.ID))
		}
	}
}

func (p *Pipeline) dumpStats() {
	snap := p.stats.Snapshot()
	logger.Info("📊 管道运行统计",
		logger.Uint64("detected", snap.TotalDetected),
		logger.Uint64("filtered", snap.TotalFiltered),
		logger.Float64("success_rate", snap.SuccessRate),
		logger.Float64("avg_confidence", snap.AverageConfidence),
		logger.String("avg_latency", snap.AverageDetectionTime.String()),
		logger.Int("cached", p.cache.Len()))
}

func (p *Pipeline) ctxOrBackground() context.Context {
	if p.ctx != nil {
		return p.ctx
	}
	return context.Background()
}
