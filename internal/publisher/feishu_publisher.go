package publisher

import (
	"fmt"
	"strings"
	"time"

	"github.com/ninja0404/token-radar/internal/model"
	"github.com/ninja0404/token-radar/internal/notifier"
)

// FeishuPublisher 飞书发布器
type FeishuPublisher struct {
	webhookURL string
}

// NewFeishuPublisher 创建飞书发布器
func NewFeishuPublisher(webhookURL string) *FeishuPublisher {
	return &FeishuPublisher{webhookURL: webhookURL}
}

func (p *FeishuPublisher) GetType() string {
	return "feishu"
}

func (p *FeishuPublisher) Publish(result *model.DetectionResult) error {
	message := p.formatResultMessage(result)
	return notifier.SendToLark(message, p.webhookURL)
}

func (p *FeishuPublisher) Close() error {
	return nil
}

// priorityEmoji 按优先级选emoji
func (p *FeishuPublisher) priorityEmoji(priority int) string {
	switch {
	case priority >= 8:
		return "🔥"
	case priority >= 5:
		return "⚡"
	default:
		return "📋"
	}
}

// formatUSD 格式化美元金额，支持k/M/B单位
func (p *FeishuPublisher) formatUSD(amount float64) string {
	if amount <= 0 {
		return "N/A"
	}
	if amount >= 1000000000 {
		return fmt.Sprintf("$%.1fB", amount/1000000000)
	} else if amount >= 1000000 {
		return fmt.Sprintf("$%.1fM", amount/1000000)
	} else if amount >= 1000 {
		return fmt.Sprintf("$%.1fk", amount/1000)
	}
	return fmt.Sprintf("$%.2f", amount)
}

// formatResultMessage 格式化检测结果消息
func (p *FeishuPublisher) formatResultMessage(result *model.DetectionResult) string {
	loc, _ := time.LoadLocation("Asia/Shanghai")

	symbol := result.Token.Symbol
	if symbol == "" {
		symbol = "UNKNOWN"
	}

	liquidity := "N/A"
	volume24h := "N/A"
	marketCap := "N/A"
	priceChange := "N/A"
	if m := result.Token.Market; m != nil {
		liquidity = p.formatUSD(m.LiquidityUSD)
		volume24h = p.formatUSD(m.Volume24h)
		marketCap = p.formatUSD(m.MarketCapUSD)
		if m.PriceChange24h != 0 {
			priceChange = fmt.Sprintf("%.2f%%", m.PriceChange24h)
		}
	}

	signals := "无"
	if len(result.Signals) > 0 {
		signals = strings.Join(result.Signals, ", ")
	}

	message := fmt.Sprintf(`🚨 新代币检测信号

%s 优先级: %d/10
🪙 代币符号: %s
📍 代币地址: %s
🛰️ 发现来源: %s
🎯 置信度: %d/100
⚠️ 风险分: %d/100
💧 流动性: %s
💵 24h交易量: %s
💎 市值: %s
📈 24h涨幅: %s
📶 触发信号: %s

🔗 GMGN链接: https://gmgn.ai/sol/token/%s
⏰ 发现时间: %s`,
		p.priorityEmoji(result.Priority),
		result.Priority,
		symbol,
		result.Token.Address,
		strings.Join(result.Sources, ", "),
		result.Confidence,
		result.Scores.Risk,
		liquidity,
		volume24h,
		marketCap,
		priceChange,
		signals,
		result.Token.Address,
		result.Token.DetectedAt.In(loc).Format("2006-01-02 15:04:05"))

	return message
}
