package model

import (
	"time"

	"github.com/ninja0404/token-radar/internal/security"
)

// 信号名称目录。信号同时驱动置信度展示和优先级计算
const (
	SignalBlockchainVerified = "blockchain_verified" // 来自链上扫描源
	SignalHighLiquidity      = "high_liquidity"      // 流动性≥5万USD
	SignalVeryNew            = "very_new"            // 发现后5分钟内
	SignalNew                = "new"                 // 发现后15分钟内
	SignalHighVolume         = "high_volume"         // 24h交易量>10万USD
	SignalPumping            = "pumping"             // 24h涨幅>20%
	SignalRising             = "rising"              // 24h涨幅>10%
)

// AuxScores 五个辅助分，均在[0,100]
type AuxScores struct {
	Risk        int `json:"risk"`
	Opportunity int `json:"opportunity"`
	Technical   int `json:"technical"`
	Market      int `json:"market"`
	Social      int `json:"social"`
}

// DetectionResult 对外发布的检测结果
type DetectionResult struct {
	ID               string           `json:"id"`
	Token            *Token           `json:"token"`
	Confidence       int              `json:"confidence"` // [0,100]
	Sources          []string         `json:"sources"`
	DetectionLatency time.Duration    `json:"detection_latency"`
	Priority         int              `json:"priority"` // [1,10]
	Signals          []string         `json:"signals"`
	Scores           AuxScores        `json:"scores"`
	Security         *security.Report `json:"security,omitempty"` // 外部安全检查结论，原样透传
}

// HasSignal 判断某个信号是否触发
func (r *DetectionResult) HasSignal(name string) bool {
	for _, s := range r.Signals {
		if s == name {
			return true
		}
	}
	return false
}
