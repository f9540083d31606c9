package stats

import (
	"sync"
	"time"

	"github.com/ninja0404/token-radar/internal/model"
)

// Snapshot 统计快照，对外只读
type Snapshot struct {
	TotalDetected  uint64             `json:"total_detected"`
	TotalProcessed uint64             `json:"total_processed"`
	TotalFiltered  uint64             `json:"total_filtered"`
	SuccessRate    float64            `json:"success_rate"`
	BySource       map[string]uint64  `json:"by_source"`
	ByPriority     map[int]uint64     `json:"by_priority"`
	Errors         map[string]uint64  `json:"errors"`

	AverageConfidence    float64       `json:"average_confidence"`
	AverageDetectionTime time.Duration `json:"average_detection_time"`

	StartedAt time.Time `json:"started_at"`
}

// Aggregator 管道运行统计。均值用增量公式更新，不回扫历史
type Aggregator struct {
	mu sync.Mutex

	totalDetected uint64
	totalFiltered uint64

	bySource   map[string]uint64
	byPriority map[int]uint64
	errors     map[string]uint64

	avgConfidence float64
	avgLatency    float64
	sampleCount   uint64

	startedAt time.Time
}

// NewAggregator 创建统计器
func NewAggregator() *Aggregator {
	return &Aggregator{
		bySource:   make(map[string]uint64),
		byPriority: make(map[int]uint64),
		errors:     make(map[string]uint64),
		startedAt:  time.Now(),
	}
}

// RecordDetection 记录一条通过管道的检测结果
func (a *Aggregator) RecordDetection(result *model.DetectionResult) {
	if result == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalDetected++
	a.bySource[result.Token.Source]++
	a.byPriority[result.Priority]++

	// avg' = avg + (x - avg) / n
	a.sampleCount++
	n := float64(a.sampleCount)
	a.avgConfidence += (float64(result.Confidence) - a.avgConfidence) / n
	a.avgLatency += (float64(result.DetectionLatency) - a.avgLatency) / n
}

// RecordFiltered 记录一条被去重或准入拦下的记录
func (a *Aggregator) RecordFiltered() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalFiltered++
}

// RecordError 按错误类别计数
func (a *Aggregator) RecordError(class string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errors[class]++
}

// Snapshot 导出当前统计的一份拷贝
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	processed := a.totalDetected + a.totalFiltered
	rate := 0.0
	if processed > 0 {
		rate = float64(a.totalDetected) / float64(processed) * 100
	}

	snap := Snapshot{
		TotalDetected:        a.totalDetected,
		TotalProcessed:       processed,
		TotalFiltered:        a.totalFiltered,
		SuccessRate:          rate,
		BySource:             make(map[string]uint64, len(a.bySource)),
		ByPriority:           make(map[int]uint64, len(a.byPriority)),
		Errors:               make(map[string]uint64, len(a.errors)),
		AverageConfidence:    a.avgConfidence,
		AverageDetectionTime: time.Duration(a.avgLatency),
		StartedAt:            a.startedAt,
	}
	for k, v := range a.bySource {
		snap.BySource[k] = v
	}
	for k, v := range a.byPriority {
		snap.ByPriority[k] = v
	}
	for k, v := range a.errors {
		snap.Errors[k] = v
	}
	return snap
}
