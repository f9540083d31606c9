package security

import "context"

// Report 外部安全分析结论。评分引擎只透传，不复现其内部判定
type Report struct {
	Passed  bool              `json:"passed"`
	Score   float64           `json:"score"`
	Details map[string]string `json:"details,omitempty"`
}

// Checker 外部合约安全分析服务
type Checker interface {
	Check(ctx context.Context, address string) (*Report, error)
}
