package publisher

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/token-radar/internal/model"
)

type stubPublisher struct {
	typ   string
	err   error
	calls int
}

func (p *stubPublisher) Publish(result *model.DetectionResult) error {
	p.calls++
	return p.err
}

func (p *stubPublisher) GetType() string { return p.typ }

func (p *stubPublisher) Close() error { return nil }

func newPublishedResult() *model.DetectionResult {
	return &model.DetectionResult{
		ID:         "result-1",
		Token:      &model.Token{Address: "addr-1", Source: model.SourcePumpfun},
		Confidence: 70,
		Priority:   1,
	}
}

func TestPublishResultIsolatesFailures(t *testing.T) {
	m := NewManager(Config{})
	bad := &stubPublisher{typ: "bad", err: errors.New("webhook 502")}
	good := &stubPublisher{typ: "good"}
	m.AddPublisher(bad)
	m.AddPublisher(good)

	// 单个发布器失败不影响其他发布器，聚合错误返回给调用方
	err := m.PublishResult(newPublishedResult())
	require.Error(t, err)
	assert.Equal(t, 1, bad.calls)
	assert.Equal(t, 1, good.calls)
}

func TestPublishResultAllHealthy(t *testing.T) {
	m := NewManager(Config{})
	first := &stubPublisher{typ: "first"}
	second := &stubPublisher{typ: "second"}
	m.AddPublisher(first)
	m.AddPublisher(second)

	require.NoError(t, m.PublishResult(newPublishedResult()))
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}
