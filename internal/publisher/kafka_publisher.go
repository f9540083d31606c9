package publisher

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/ninja0404/token-radar/internal/model"
	"github.com/ninja0404/token-radar/pkg/mq/kafka"
)

// KafkaPublisher 把检测结果投递到Kafka，key用代币地址保证同币有序
type KafkaPublisher struct {
	topic string
}

// NewKafkaPublisher 创建Kafka发布器，依赖进程级producer已初始化
func NewKafkaPublisher(topic string) *KafkaPublisher {
	return &KafkaPublisher{topic: topic}
}

func (p *KafkaPublisher) GetType() string {
	return "kafka"
}

func (p *KafkaPublisher) Publish(result *model.DetectionResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, "序列化检测结果失败")
	}
	return kafka.SendMessageWithKey(p.topic, result.Token.Address, payload)
}

func (p *KafkaPublisher) Close() error {
	return nil
}
