package model

import (
	"encoding/json"
	"time"
)

// DetectionRecord 检测结果落库模型
type DetectionRecord struct {
	ID               uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	ResultID         string    `gorm:"column:result_id;size:32;uniqueIndex"`
	TokenAddress     string    `gorm:"column:token_address;size:64;index"`
	Symbol           string    `gorm:"column:symbol;size:32"`
	Source           string    `gorm:"column:source;size:24;index"`
	Confidence       float64   `gorm:"column:confidence"`
	Priority         int       `gorm:"column:priority;index"`
	Signals          string    `gorm:"column:signals;type:text"`
	Scores           string    `gorm:"column:scores;type:text"`
	DetectionLatency int64     `gorm:"column:detection_latency_ms"`
	DetectedAt       time.Time `gorm:"column:detected_at;index"`
	CreatedAt        time.Time `gorm:"column:created_at"`
}

// TableName 指定表名
func (DetectionRecord) TableName() string {
	return "detection_records"
}

// NewDetectionRecord 从检测结果构建落库模型
func NewDetectionRecord(result *DetectionResult) *DetectionRecord {
	signals, _ := json.Marshal(result.Signals)
	scores, _ := json.Marshal(result.Scores)

	return &DetectionRecord{
		ResultID:         result.ID,
		TokenAddress:     result.Token.Address,
		Symbol:           result.Token.Symbol,
		Source:           result.Token.Source,
		Confidence:       float64(result.Confidence),
		Priority:         result.Priority,
		Signals:          string(signals),
		Scores:           string(scores),
		DetectionLatency: result.DetectionLatency.Milliseconds(),
		DetectedAt:       result.Token.DetectedAt,
	}
}
