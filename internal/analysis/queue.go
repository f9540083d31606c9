package analysis

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ninja0404/token-radar/internal/model"
	"github.com/ninja0404/token-radar/pkg/logger"
)

// 派发失败在错误计数里的类别名
const errClassAnalysis = "analysis"

// ErrorSink 错误分类计数的接收端
type ErrorSink interface {
	RecordError(class string)
}

// Queue 深度分析工作队列。
// 按优先级降序、同优先级按入队时间升序出队，定时批量派发给分析器。
// 已派发过的签名通过有界seen集合去重，超过高水位时只保留最近低水位条
type Queue struct {
	cfg      Config
	analyzer Analyzer
	errs     ErrorSink

	mu      sync.Mutex
	pending []*model.AnalysisTask
	seen    map[string]uint64
	seenSeq uint64

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewQueue 创建分析队列
func NewQueue(cfg Config, analyzer Analyzer) *Queue {
	cfg.normalize()
	return &Queue{
		cfg:      cfg,
		analyzer: analyzer,
		seen:     make(map[string]uint64),
		done:     make(chan struct{}),
	}
}

// SetErrorSink 注入派发失败的计数端，启动前调用
func (q *Queue) SetErrorSink(errs ErrorSink) {
	q.errs = errs
}

// Enqueue 入队一个分析任务。已处理过的签名直接丢弃
func (q *Queue) Enqueue(task *model.AnalysisTask) {
	if task == nil || task.Signature == "" {
		return
	}
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now()
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, dup := q.seen[task.Signature]; dup {
		return
	}
	q.pending = append(q.pending, task)
}

// Start 启动定时排空循环
func (q *Queue) Start(ctx context.Context) {
	if !q.cfg.Enabled {
		logger.Info("⏸️ 分析队列未启用")
		close(q.done)
		return
	}

	ctx, q.cancel = context.WithCancel(ctx)
	go q.loop(ctx)

	logger.Info("🚀 分析队列已启动",
		logger.String("tick", q.cfg.TickInterval.String()),
		logger.Int("batch_size", q.cfg.BatchSize))
}

// Stop 停止排空循环并等待退出
func (q *Queue) Stop() {
	q.once.Do(func() {
		if q.cancel != nil {
			q.cancel()
		}
		<-q.done
		logger.Info("🛑 分析队列已停止")
	})
}

// Len 当前积压任务数
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *Queue) loop(ctx context.Context) {
	defer close(q.done)

	ticker := time.NewTicker(q.cfg.TickInterval.Std())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.drainOnce(ctx)
		}
	}
}

// drainOnce 排空一个批次，单任务失败不影响批内其他任务
func (q *Queue) drainOnce(ctx context.Context) {
	batch := q.pop(q.cfg.BatchSize)
	if len(batch) == 0 {
		return
	}

	for _, task := range batch {
		if ctx.Err() != nil {
			return
		}
		start := time.Now()
		if _, err := q.analyzer.Analyze(ctx, task.Signature); err != nil {
			if q.errs != nil {
				q.errs.RecordError(errClassAnalysis)
			}
			logger.Warn("⚠️ 深度分析失败",
				logger.FieldSignature(task.Signature),
				logger.FieldSource(task.Source),
				logger.FieldErr(err))
			continue
		}
		logger.Debug("🔬 深度分析完成",
			logger.FieldSignature(task.Signature),
			logger.FieldPriority(task.Priority),
			logger.FieldCost(time.Since(start)))
	}
}

// pop 取出按序的前n个未处理任务，并把它们标记为已处理
func (q *Queue) pop(n int) []*model.AnalysisTask {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil
	}

	sort.SliceStable(q.pending, func(i, j int) bool {
		if q.pending[i].Priority != q.pending[j].Priority {
			return q.pending[i].Priority > q.pending[j].Priority
		}
		return q.pending[i].EnqueuedAt.Before(q.pending[j].EnqueuedAt)
	})

	batch := make([]*model.AnalysisTask, 0, n)
	idx := 0
	for ; idx < len(q.pending) && len(batch) < n; idx++ {
		task := q.pending[idx]
		if _, dup := q.seen[task.Signature]; dup {
			continue
		}
		q.markSeen(task.Signature)
		batch = append(batch, task)
	}
	q.pending = q.pending[idx:]

	return batch
}

func (q *Queue) markSeen(signature string) {
	q.seenSeq++
	q.seen[signature] = q.seenSeq

	if len(q.seen) <= q.cfg.SeenHighWatermark {
		return
	}

	// 超过高水位，按序号保留最近的低水位条
	seqs := make([]uint64, 0, len(q.seen))
	for _, seq := range q.seen {
		seqs = append(seqs, seq)
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] > seqs[j] })
	cutoff := seqs[q.cfg.SeenLowWatermark-1]

	for sig, seq := range q.seen {
		if seq < cutoff {
			delete(q.seen, sig)
		}
	}
	logger.Debug("🧹 seen集合已裁剪", logger.Int("kept", len(q.seen)))
}
