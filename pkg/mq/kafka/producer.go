package kafka

import (
	"github.com/IBM/sarama"
	"github.com/pkg/errors"

	"github.com/ninja0404/token-radar/pkg/logger"
)

// Producer 对sarama同步producer的简单封装
type Producer struct {
	producer sarama.SyncProducer
}

func NewProducer(brokers []string, cfg ProducerConfig) (*Producer, error) {
	saramaConfig, err := newProducerConfig(cfg)
	if err != nil {
		return nil, err
	}

	producer, err := sarama.NewSyncProducer(brokers, saramaConfig)
	if err != nil {
		return nil, errors.Wrap(err, "create kafka producer")
	}

	logger.Info("kafka producer connected",
		logger.Strings("brokers", brokers),
		logger.String("client_id", cfg.ClientID))

	return &Producer{producer: producer}, nil
}

func (p *Producer) SendMessage(topic string, value []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(value),
	}
	_, _, err := p.producer.SendMessage(msg)
	return err
}

func (p *Producer) SendMessageWithKey(topic string, key string, value []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	}
	_, _, err := p.producer.SendMessage(msg)
	return err
}

func (p *Producer) Close() error {
	logger.Info("closing kafka producer...")
	return p.producer.Close()
}
