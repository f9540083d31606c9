package notifier

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/ninja0404/token-radar/pkg/logger"
)

// larkTextContent 飞书文本消息内容
type larkTextContent struct {
	Text string `json:"text"`
}

// larkMessage 飞书机器人消息体
type larkMessage struct {
	MsgType string          `json:"msg_type"`
	Content larkTextContent `json:"content"`
}

// larkResponse 飞书机器人应答，code为0表示成功
type larkResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

var larkClient = &http.Client{Timeout: 10 * time.Second}

// SendToLark 发送文本消息到飞书Webhook
func SendToLark(messageText string, webhookURL string) error {
	if webhookURL == "" {
		return errors.New("飞书 Webhook URL 为空")
	}
	if messageText == "" {
		logger.Warn("尝试发送空消息到飞书，已跳过")
		return nil
	}

	payload, err := json.Marshal(larkMessage{
		MsgType: "text",
		Content: larkTextContent{Text: messageText},
	})
	if err != nil {
		return errors.Wrap(err, "序列化飞书消息失败")
	}

	req, err := http.NewRequest(http.MethodPost, webhookURL, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "创建飞书请求失败")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := larkClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "发送飞书消息失败")
	}
	defer resp.Body.Close()

	var larkResp larkResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&larkResp)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil {
			return errors.Errorf("飞书返回错误状态码 %d, Code: %d, Msg: %s",
				resp.StatusCode, larkResp.Code, larkResp.Msg)
		}
		return errors.Errorf("飞书返回错误状态码 %d", resp.StatusCode)
	}
	if decodeErr == nil && larkResp.Code != 0 {
		return errors.Errorf("飞书API返回错误 Code: %d, Msg: %s", larkResp.Code, larkResp.Msg)
	}

	return nil
}
