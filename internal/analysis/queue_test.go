package analysis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/token-radar/internal/model"
)

type scriptedAnalyzer struct {
	failOn string
	calls  []string
}

func (a *scriptedAnalyzer) Analyze(ctx context.Context, signature string) (*Result, error) {
	a.calls = append(a.calls, signature)
	if signature == a.failOn {
		return nil, errors.New("rpc timeout")
	}
	return &Result{Signature: signature}, nil
}

func (a *scriptedAnalyzer) Results() <-chan *model.Token { return nil }

type countingSink struct {
	classes map[string]int
}

func (s *countingSink) RecordError(class string) {
	if s.classes == nil {
		s.classes = make(map[string]int)
	}
	s.classes[class]++
}

func newTask(signature string, priority int, enqueuedAt time.Time) *model.AnalysisTask {
	return &model.AnalysisTask{
		Signature:  signature,
		Source:     model.SourceChainscan,
		Priority:   priority,
		EnqueuedAt: enqueuedAt,
	}
}

func TestPopOrdering(t *testing.T) {
	q := NewQueue(DefaultConfig(), nil)

	base := time.Now()
	q.Enqueue(newTask("sig-p3", 3, base))
	q.Enqueue(newTask("sig-p7-old", 7, base))
	q.Enqueue(newTask("sig-p7-new", 7, base.Add(500*time.Millisecond)))
	q.Enqueue(newTask("sig-p1", 1, base))

	batch := q.pop(10)
	require.Len(t, batch, 4)

	// 优先级降序，同优先级按入队时间升序
	assert.Equal(t, "sig-p7-old", batch[0].Signature)
	assert.Equal(t, "sig-p7-new", batch[1].Signature)
	assert.Equal(t, "sig-p3", batch[2].Signature)
	assert.Equal(t, "sig-p1", batch[3].Signature)
}

func TestPopBatchSize(t *testing.T) {
	q := NewQueue(DefaultConfig(), nil)

	base := time.Now()
	for i := 0; i < 8; i++ {
		q.Enqueue(newTask(fmt.Sprintf("sig-%d", i), i%10, base))
	}

	batch := q.pop(5)
	assert.Len(t, batch, 5)
	assert.Equal(t, 3, q.Len())
}

func TestSignatureDispatchedOnce(t *testing.T) {
	q := NewQueue(DefaultConfig(), nil)

	base := time.Now()
	q.Enqueue(newTask("sig-dup", 5, base))

	batch := q.pop(10)
	require.Len(t, batch, 1)

	// 已派发的签名在入队时就被丢弃
	q.Enqueue(newTask("sig-dup", 9, base.Add(time.Second)))
	assert.Equal(t, 0, q.Len())
	assert.Empty(t, q.pop(10))
}

func TestPendingDuplicateDroppedAtPop(t *testing.T) {
	q := NewQueue(DefaultConfig(), nil)

	base := time.Now()
	// 两条同签名任务都还没进seen集合，先到的派发，后到的在出队时被丢
	q.Enqueue(newTask("sig-x", 9, base))
	q.Enqueue(newTask("sig-x", 3, base.Add(time.Millisecond)))

	batch := q.pop(10)
	require.Len(t, batch, 1)
	assert.Equal(t, 9, batch[0].Priority)
	assert.Empty(t, q.pop(10))
}

func TestSeenSetTrimmedAtWatermark(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SeenHighWatermark = 10
	cfg.SeenLowWatermark = 5
	q := NewQueue(cfg, nil)

	for i := 0; i < 11; i++ {
		q.markSeen(fmt.Sprintf("sig-%d", i))
	}

	// 超过高水位后只保留最近的低水位条
	assert.Len(t, q.seen, 5)
	for i := 6; i < 11; i++ {
		_, kept := q.seen[fmt.Sprintf("sig-%d", i)]
		assert.True(t, kept, "sig-%d should survive the trim", i)
	}
	_, dropped := q.seen["sig-0"]
	assert.False(t, dropped)
}

func TestEnqueueIgnoresEmptySignature(t *testing.T) {
	q := NewQueue(DefaultConfig(), nil)

	q.Enqueue(nil)
	q.Enqueue(&model.AnalysisTask{Signature: ""})
	assert.Equal(t, 0, q.Len())
}

func TestDrainContinuesAfterDispatchFailure(t *testing.T) {
	analyzer := &scriptedAnalyzer{failOn: "sig-bad"}
	sink := &countingSink{}

	q := NewQueue(DefaultConfig(), analyzer)
	q.SetErrorSink(sink)

	base := time.Now()
	q.Enqueue(newTask("sig-bad", 9, base))
	q.Enqueue(newTask("sig-ok-1", 5, base))
	q.Enqueue(newTask("sig-ok-2", 3, base))

	q.drainOnce(context.Background())

	// 单任务失败不影响批内其余任务，失败要计入错误统计
	assert.Equal(t, []string{"sig-bad", "sig-ok-1", "sig-ok-2"}, analyzer.calls)
	assert.Equal(t, 1, sink.classes["analysis"])
	assert.Zero(t, q.Len())
}
