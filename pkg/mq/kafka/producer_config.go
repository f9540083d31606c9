package kafka

import (
	"time"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
)

const (
	_  = iota
	KB = 1 << (10 * iota)
	MB = 1 << (10 * iota)
)

type ProducerConfig struct {
	ClientID        string `json:"client_id" yaml:"client_id"`
	Version         string `json:"version" yaml:"version"`
	MessageMaxBytes int    `json:"message_max_bytes" yaml:"message_max_bytes"`
	RetryMax        int    `json:"retry_max" yaml:"retry_max"`
	RetryBackoffMs  int    `json:"retry_backoff_ms" yaml:"retry_backoff_ms"`
	RequiredAcks    int16  `json:"required_acks" yaml:"required_acks"`

	SaslEnable    bool   `json:"sasl_enable" yaml:"sasl_enable"`
	SaslUsername  string `json:"sasl_username" yaml:"sasl_username"`
	SaslPassword  string `json:"sasl_password" yaml:"sasl_password"`
	SaslMechanism string `json:"sasl_mechanism" yaml:"sasl_mechanism"`
}

func newProducerConfig(cfg ProducerConfig) (*sarama.Config, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Retry.Backoff = time.Second
	saramaConfig.Producer.MaxMessageBytes = 10 * MB

	if cfg.ClientID != "" {
		saramaConfig.ClientID = cfg.ClientID
	}
	if cfg.Version != "" {
		version, err := sarama.ParseKafkaVersion(cfg.Version)
		if err != nil {
			return nil, errors.Wrapf(err, "parse kafka version %s", cfg.Version)
		}
		saramaConfig.Version = version
	}
	if cfg.MessageMaxBytes != 0 {
		saramaConfig.Producer.MaxMessageBytes = cfg.MessageMaxBytes
	}
	if cfg.RetryMax != 0 {
		saramaConfig.Producer.Retry.Max = cfg.RetryMax
	}
	if cfg.RetryBackoffMs != 0 {
		saramaConfig.Producer.Retry.Backoff = time.Duration(cfg.RetryBackoffMs) * time.Millisecond
	}
	if cfg.RequiredAcks != 0 {
		saramaConfig.Producer.RequiredAcks = sarama.RequiredAcks(cfg.RequiredAcks)
	}

	if cfg.SaslEnable {
		saramaConfig.Net.SASL.Enable = true
		saramaConfig.Net.SASL.User = cfg.SaslUsername
		saramaConfig.Net.SASL.Password = cfg.SaslPassword
		if cfg.SaslMechanism != "" {
			saramaConfig.Net.SASL.Mechanism = sarama.SASLMechanism(cfg.SaslMechanism)
		}
	}

	return saramaConfig, nil
}
