package kafka

import (
	"sync"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"

	"github.com/ninja0404/token-radar/pkg/logger"
)

// ErrProducerNotReady 默认producer尚未通过SetupProducer初始化
var ErrProducerNotReady = errors.New("kafka producer not initialized")

var defaultProducer *Producer
var producerMutex sync.RWMutex

var startOnce sync.Once

func initKafka() {
	startOnce.Do(func() {
		sarama.Logger = newSaramaLogger(logger.DefaultL1().Named("kafka-core"))
	})
}

// SetupProducer 初始化默认producer
func SetupProducer(brokers []string, cfg ProducerConfig) error {
	initKafka()
	producer, err := NewProducer(brokers, cfg)
	if err != nil {
		return err
	}
	producerMutex.Lock()
	defaultProducer = producer
	producerMutex.Unlock()
	return nil
}

func getDefaultProducer() *Producer {
	producerMutex.RLock()
	defer producerMutex.RUnlock()
	return defaultProducer
}

// SendMessage 通过默认producer发送消息
func SendMessage(topic string, value []byte) error {
	p := getDefaultProducer()
	if p == nil {
		return ErrProducerNotReady
	}
	return p.SendMessage(topic, value)
}

// SendMessageWithKey 通过默认producer发送带key的消息
func SendMessageWithKey(topic string, key string, value []byte) error {
	p := getDefaultProducer()
	if p == nil {
		return ErrProducerNotReady
	}
	return p.SendMessageWithKey(topic, key, value)
}

// CloseProducer 关闭默认producer
func CloseProducer() error {
	p := getDefaultProducer()
	if p == nil {
		return nil
	}
	return p.Close()
}
