package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/token-radar/internal/cache"
	"github.com/ninja0404/token-radar/internal/enrich"
	"github.com/ninja0404/token-radar/internal/model"
	"github.com/ninja0404/token-radar/internal/scoring"
	"github.com/ninja0404/token-radar/internal/security"
	"github.com/ninja0404/token-radar/internal/stats"
	"github.com/ninja0404/token-radar/pkg/config"
)

type captureSink struct {
	results []*model.DetectionResult
	err     error
}

func (s *captureSink) PublishResult(result *model.DetectionResult) error {
	s.results = append(s.results, result)
	return s.err
}

type stubProvider struct {
	err error
}

func (p *stubProvider) TokenMarket(ctx context.Context, address string) (*model.Market, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &model.Market{}, nil
}

func (p *stubProvider) String() string { return "stub" }

type stubChecker struct {
	report *security.Report
	err    error
}

func (c *stubChecker) Check(ctx context.Context, address string) (*security.Report, error) {
	return c.report, c.err
}

func newTestPipeline(sink *captureSink) *Pipeline {
	return New(Options{
		Cache:     cache.New(cache.Config{TTL: config.Duration(5 * time.Minute)}),
		Engine:    scoring.NewEngine(scoring.DefaultConfig()),
		Stats:     stats.NewAggregator(),
		Publisher: sink,
	})
}

func newToken(address string) *model.Token {
	return &model.Token{
		Address:    address,
		Source:     model.SourcePumpfun,
		DetectedAt: time.Now(),
	}
}

func TestProcessProducesResult(t *testing.T) {
	sink := &captureSink{}
	p := newTestPipeline(sink)

	result := p.Process(newToken("addr-1"))
	require.NotNil(t, result)

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, []string{model.SourcePumpfun}, result.Sources)
	assert.GreaterOrEqual(t, result.Confidence, 0)
	assert.LessOrEqual(t, result.Confidence, 100)
	assert.GreaterOrEqual(t, result.Priority, 1)
	require.Len(t, sink.results, 1)
}

func TestProcessDedupWithinWindow(t *testing.T) {
	sink := &captureSink{}
	p := newTestPipeline(sink)

	first := p.Process(newToken("addr-1"))
	require.NotNil(t, first)

	// 窗口内同地址只产出一次，不区分来源
	dup := newToken("addr-1")
	dup.Source = model.SourceChainscan
	assert.Nil(t, p.Process(dup))

	assert.Len(t, sink.results, 1)

	snap := p.Stats()
	assert.Equal(t, uint64(1), snap.TotalDetected)
	assert.Equal(t, uint64(1), snap.TotalFiltered)
}

func TestProcessRedetectionAfterExpiry(t *testing.T) {
	sink := &captureSink{}
	p := New(Options{
		Cache:     cache.New(cache.Config{TTL: config.Duration(50 * time.Millisecond)}),
		Engine:    scoring.NewEngine(scoring.DefaultConfig()),
		Stats:     stats.NewAggregator(),
		Publisher: sink,
	})

	require.NotNil(t, p.Process(newToken("addr-1")))
	time.Sleep(60 * time.Millisecond)

	// TTL过后同地址可以再次产出，且是独立结果
	second := p.Process(newToken("addr-1"))
	require.NotNil(t, second)
	require.Len(t, sink.results, 2)
	assert.NotEqual(t, sink.results[0].ID, sink.results[1].ID)
}

func TestProcessIgnoresInvalidToken(t *testing.T) {
	p := newTestPipeline(&captureSink{})

	assert.Nil(t, p.Process(nil))
	assert.Nil(t, p.Process(&model.Token{Address: ""}))
}

func TestRecentResults(t *testing.T) {
	p := newTestPipeline(&captureSink{})

	for _, addr := range []string{"a", "b", "c"} {
		token := newToken(addr)
		require.NotNil(t, p.Process(token))
	}

	recent := p.RecentResults(2)
	assert.Len(t, recent, 2)
}

func TestProcessCountsEnrichErrors(t *testing.T) {
	sink := &captureSink{}
	p := New(Options{
		Cache:     cache.New(cache.Config{TTL: config.Duration(5 * time.Minute)}),
		Enricher:  enrich.New(enrich.DefaultConfig(), &stubProvider{err: errors.New("upstream down")}),
		Engine:    scoring.NewEngine(scoring.DefaultConfig()),
		Stats:     stats.NewAggregator(),
		Publisher: sink,
	})

	// 补全失败不拦截结果，但要计入错误统计
	result := p.Process(newToken("addr-1"))
	require.NotNil(t, result)
	require.Len(t, sink.results, 1)

	snap := p.Stats()
	assert.Equal(t, uint64(1), snap.Errors["enrich"])
}

func TestProcessCountsPublishErrors(t *testing.T) {
	sink := &captureSink{err: errors.New("webhook 502")}
	p := newTestPipeline(sink)

	result := p.Process(newToken("addr-1"))
	require.NotNil(t, result)

	snap := p.Stats()
	assert.Equal(t, uint64(1), snap.Errors["publish"])
}

func TestProcessDropsTokenFailingSecurityCheck(t *testing.T) {
	sink := &captureSink{}
	p := New(Options{
		Cache:     cache.New(cache.Config{TTL: config.Duration(5 * time.Minute)}),
		Engine:    scoring.NewEngine(scoring.DefaultConfig()),
		Stats:     stats.NewAggregator(),
		Publisher: sink,
		Security:  &stubChecker{report: &security.Report{Passed: false, Score: 12}},
	})

	assert.Nil(t, p.Process(newToken("addr-1")))
	assert.Empty(t, sink.results)

	snap := p.Stats()
	assert.Equal(t, uint64(0), snap.TotalDetected)
	assert.Equal(t, uint64(1), snap.TotalFiltered)
}

func TestProcessAttachesSecurityReport(t *testing.T) {
	report := &security.Report{Passed: true, Score: 88}
	p := New(Options{
		Cache:     cache.New(cache.Config{TTL: config.Duration(5 * time.Minute)}),
		Engine:    scoring.NewEngine(scoring.DefaultConfig()),
		Stats:     stats.NewAggregator(),
		Publisher: &captureSink{},
		Security:  &stubChecker{report: report},
	})

	result := p.Process(newToken("addr-1"))
	require.NotNil(t, result)
	assert.Equal(t, report, result.Security)
}

func TestProcessSecurityCheckFailureIsOpen(t *testing.T) {
	p := New(Options{
		Cache:     cache.New(cache.Config{TTL: config.Duration(5 * time.Minute)}),
		Engine:    scoring.NewEngine(scoring.DefaultConfig()),
		Stats:     stats.NewAggregator(),
		Publisher: &captureSink{},
		Security:  &stubChecker{err: errors.New("checker timeout")},
	})

	// 检查服务不可用时放行，结论留空，错误计数
	result := p.Process(newToken("addr-1"))
	require.NotNil(t, result)
	assert.Nil(t, result.Security)

	snap := p.Stats()
	assert.Equal(t, uint64(1), snap.Errors["security"])
}

func TestSubscribeReceivesResults(t *testing.T) {
	p := newTestPipeline(&captureSink{})
	sub := p.Subscribe()

	result := p.Process(newToken("addr-1"))
	require.NotNil(t, result)

	select {
	case got := <-sub:
		assert.Equal(t, result.ID, got.ID)
	default:
		t.Fatal("subscriber should have received the result")
	}
}
