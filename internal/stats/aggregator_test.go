package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ninja0404/token-radar/internal/model"
)

func newResult(source string, confidence int, priority int, latency time.Duration) *model.DetectionResult {
	return &model.DetectionResult{
		ID:               "r-" + source,
		Token:            &model.Token{Address: "addr", Source: source},
		Confidence:       confidence,
		Priority:         priority,
		DetectionLatency: latency,
	}
}

func TestRunningMeanConfidence(t *testing.T) {
	agg := NewAggregator()

	for _, confidence := range []int{70, 85, 100} {
		agg.RecordDetection(newResult(model.SourcePumpfun, confidence, 5, time.Millisecond))
	}

	snap := agg.Snapshot()
	assert.InDelta(t, 85.0, snap.AverageConfidence, 1e-6)
}

func TestRunningMeanLatency(t *testing.T) {
	agg := NewAggregator()

	agg.RecordDetection(newResult(model.SourcePumpfun, 70, 5, 100*time.Millisecond))
	agg.RecordDetection(newResult(model.SourcePumpfun, 70, 5, 300*time.Millisecond))

	snap := agg.Snapshot()
	assert.Equal(t, 200*time.Millisecond, snap.AverageDetectionTime)
}

func TestSuccessRateAndBreakdowns(t *testing.T) {
	agg := NewAggregator()

	agg.RecordDetection(newResult(model.SourcePumpfun, 80, 3, time.Millisecond))
	agg.RecordDetection(newResult(model.SourceChainscan, 90, 8, time.Millisecond))
	agg.RecordDetection(newResult(model.SourcePumpfun, 75, 3, time.Millisecond))
	agg.RecordFiltered()

	snap := agg.Snapshot()
	assert.Equal(t, uint64(3), snap.TotalDetected)
	assert.Equal(t, uint64(1), snap.TotalFiltered)
	assert.Equal(t, uint64(4), snap.TotalProcessed)
	assert.InDelta(t, 75.0, snap.SuccessRate, 1e-6)

	assert.Equal(t, uint64(2), snap.BySource[model.SourcePumpfun])
	assert.Equal(t, uint64(1), snap.BySource[model.SourceChainscan])
	assert.Equal(t, uint64(2), snap.ByPriority[3])
	assert.Equal(t, uint64(1), snap.ByPriority[8])
}

func TestErrorCounters(t *testing.T) {
	agg := NewAggregator()

	agg.RecordError("source")
	agg.RecordError("source")
	agg.RecordError("publish")

	snap := agg.Snapshot()
	assert.Equal(t, uint64(2), snap.Errors["source"])
	assert.Equal(t, uint64(1), snap.Errors["publish"])
}

func TestEmptySnapshot(t *testing.T) {
	agg := NewAggregator()

	snap := agg.Snapshot()
	assert.Zero(t, snap.TotalProcessed)
	assert.Zero(t, snap.SuccessRate)
	assert.Zero(t, snap.AverageConfidence)
}
