package chainscan

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"

	"github.com/ninja0404/token-radar/internal/model"
	"github.com/ninja0404/token-radar/internal/source"
	"github.com/ninja0404/token-radar/pkg/logger"
)

const (
	SourceName = model.SourceChainscan

	defaultPollInterval = 15 * time.Second

	// 每轮扫描拉取的签名上限
	signatureLimit = 50
	// 每轮就地解析的签名数，其余进深度分析队列
	inlineScanLimit = 5

	// 很新的签名给更高的分析优先级
	hotSignatureAge  = 60 * time.Second
	hotTaskPriority  = 8
	coldTaskPriority = 5
)

// pump.fun主程序，新代币创建都经过它
var defaultProgram = solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")

func init() {
	source.Register(SourceName, func(settings source.Settings, deps source.Deps) (source.Strategy, error) {
		return NewSource(settings, deps.Tasks), nil
	})
}

// Source 链上签名扫描源。
// 轮询目标程序的最新签名，少量就地解析出新mint，大头交给深度分析队列
type Source struct {
	client       *rpc.Client
	program      solana.PublicKey
	pollInterval time.Duration
	tasks        source.TaskSink

	tokenChan chan *model.Token
	errChan   chan error

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// 上一轮扫到的最新签名，作为下一轮的截止点
	lastSignature solana.Signature

	running  atomic.Bool
	detected atomic.Uint64
	errCount atomic.Uint64

	stopOnce sync.Once
}

// NewSource 创建链上扫描源
func NewSource(settings source.Settings, tasks source.TaskSink) *Source {
	endpoint := settings.Endpoint
	if endpoint == "" {
		endpoint = rpc.MainNetBeta_RPC
	}
	pollInterval := settings.PollInterval.Std()
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Source{
		client:       rpc.New(endpoint),
		program:      defaultProgram,
		pollInterval: pollInterval,
		tasks:        tasks,
		tokenChan:    make(chan *model.Token, 1000),
		errChan:      make(chan error, 100),
	}
}

// Start 启动扫描
func (s *Source) Start(ctx context.Context) error {
	if s.running.Load() {
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running.Store(true)

	s.wg.Add(1)
	go s.scanLoop()

	logger.Info("🚀 链上扫描源已启动",
		logger.String("program", s.program.String()),
		logger.String("interval", s.pollInterval.String()))
	return nil
}

// Stop 停止扫描
func (s *Source) Stop() error {
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.wg.Wait()
		s.running.Store(false)
		close(s.tokenChan)
		close(s.errChan)
		logger.Info("🛑 链上扫描源已停止")
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

func (s *Source) scanLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	s.scanOnce()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.scanOnce()
		}
	}
}

// scanOnce 拉一轮新签名
func (s *Source) scanOnce() {
	limit := signatureLimit
	opts := &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: rpc.CommitmentConfirmed,
	}
	if !s.lastSignature.IsZero() {
		opts.Until = s.lastSignature
	}

	sigs, err := s.client.GetSignaturesForAddressWithOpts(s.ctx, s.program, opts)
	if err != nil {
		s.reportError(errors.Wrap(err, "拉取签名列表失败"))
		return
	}
	if len(sigs) == 0 {
		return
	}

	// 返回按时间倒序，第一条是最新的
	s.lastSignature = sigs[0].Signature

	now := time.Now()
	for i, sig := range sigs {
		if s.ctx.Err() != nil {
			return
		}
		if sig.Err != nil {
			continue
		}

		if i < inlineScanLimit {
			s.inspectInline(sig.Signature)
			continue
		}
		s.enqueueTask(sig, now)
	}

	logger.Debug("🔍 链上扫描完成一轮", logger.Int("signatures", len(sigs)))
}

// inspectInline 就地拉交易详情，首次出现的mint直接作为发现发射
func (s *Source) inspectInline(sig solana.Signature) {
	maxVersion := uint64(0)
	tx, err := s.client.GetTransaction(s.ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		s.reportError(errors.Wrap(err, "拉取交易详情失败"))
		return
	}
	if tx == nil || tx.Meta == nil {
		return
	}

	pre := make(map[string]struct{}, len(tx.Meta.PreTokenBalances))
	for _, b := range tx.Meta.PreTokenBalances {
		pre[b.Mint.String()] = struct{}{}
	}
	for _, b := range tx.Meta.PostTokenBalances {
		mint := b.Mint.String()
		if _, ok := pre[mint]; ok {
			continue
		}

		token := &model.Token{
			Address:    mint,
			Source:     SourceName,
			DetectedAt: time.Now(),
		}
		select {
		case s.tokenChan <- token:
			s.detected.Add(1)
		default:
			logger.Warn("⚠️ 链上扫描通道已满，丢弃代币", logger.FieldToken(mint))
		}
	}
}

func (s *Source) reportError(err error) {
	s.errCount.Add(1)
	select {
	case s.errChan <- err:
	default:
	}
}

// enqueueTask 把签名交给深度分析队列
func (s *Source) enqueueTask(sig *rpc.TransactionSignature, now time.Time) {
	if s.tasks == nil {
		return
	}

	priority := coldTaskPriority
	if sig.BlockTime != nil && now.Sub(sig.BlockTime.Time()) < hotSignatureAge {
		priority = hotTaskPriority
	}

	s.tasks.Enqueue(&model.AnalysisTask{
		Signature:  sig.Signature.String(),
		Source:     SourceName,
		Priority:   priority,
		EnqueuedAt: now,
	})
}
