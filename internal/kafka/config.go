package kafka

import (
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	TopicPaymentEvents   = "paygate.payment.events"
	TopicWebhookReceived = "paygate.webhook.received"
)

const (
	GroupAuditWorker = "paygate.audit.worker"
)

// DeadLetterTopic names the topic holding records from topic that could not be processed.
func DeadLetterTopic(topic string) string {
	return topic + ".dlq"
}

type Config struct {
	Brokers           []string
	ProducerTimeout   time.Duration
	RequiredAcks      kgo.Acks
	SessionTimeout    time.Duration
	HeartbeatInterval time.Duration
	MaxRetries        int
	RetryBackoff      time.Duration
}

func DefaultConfig(brokers []string) *Config {
	return &Config{
		Brokers:           brokers,
		ProducerTimeout:   5 * time.Second,
		RequiredAcks:      kgo.AllISRAcks(),
		SessionTimeout:    10 * time.Second,
		HeartbeatInterval: 3 * time.Second,
		MaxRetries:        5,
		RetryBackoff:      1 * time.Second,
	}
}
