package model

import "time"

// AnalysisTask 一个待深度分析的交易签名。同一签名至多被分发一次
type AnalysisTask struct {
	Signature  string    `json:"signature"`
	Source     string    `json:"source"`
	Priority   int       `json:"priority"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}
