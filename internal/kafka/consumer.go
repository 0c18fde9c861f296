package kafka

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Message is a simplified wrapper around Kafka records
type Message struct {
	Topic     string
	Key       []byte
	Value     []byte
	Partition int32
	Offset    int64
	Timestamp time.Time
	Headers   map[string]string
}

// Handler processes a single message. Return error to trigger retry.
type Handler func(ctx context.Context, msg *Message) error

type Consumer struct {
	client     *kgo.Client
	cfg        *Config
	logger     *zerolog.Logger
	deadLetter Publisher
}

type ConsumerOption func(*Consumer)

// WithDeadLetter sends records that exhaust their retries to DeadLetterTopic(topic).
func WithDeadLetter(p Publisher) ConsumerOption {
	return func(c *Consumer) { c.deadLetter = p }
}

func NewConsumer(cfg *Config, group string, logger *zerolog.Logger, topics []string, opts ...ConsumerOption) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topics...),
		kgo.SessionTimeout(cfg.SessionTimeout),
		kgo.HeartbeatInterval(cfg.HeartbeatInterval),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	c := &Consumer{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run polls until ctx is cancelled. Offsets are committed after each batch,
// including records that failed and went to the dead-letter topic.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if ctx.Err() != nil {
			return nil
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			if !errors.Is(err, context.Canceled) {
				c.logger.Warn().Err(err).Str("topic", topic).Int32("partition", partition).Msg("fetch error")
			}
		})

		fetches.EachRecord(func(record *kgo.Record) {
			c.handle(ctx, handler, toMessage(record))
		})

		if err := c.client.CommitUncommittedOffsets(ctx); err != nil && ctx.Err() == nil {
			c.logger.Error().Err(err).Msg("failed to commit offsets")
		}
	}
}

func (c *Consumer) handle(ctx context.Context, handler Handler, msg *Message) {
	err := processWithRetry(ctx, c.cfg, handler, msg)
	if err == nil || ctx.Err() != nil {
		return
	}

	log := c.logger.With().
		Str("topic", msg.Topic).
		Int32("partition", msg.Partition).
		Int64("offset", msg.Offset).
		Logger()

	if c.deadLetter == nil {
		log.Error().Err(err).Msg("message processing failed after retries, dropping")
		return
	}

	if dlqErr := sendToDeadLetter(ctx, c.deadLetter, msg, err); dlqErr != nil {
		log.Error().Err(dlqErr).AnErr("cause", err).Msg("failed to publish to dead-letter topic")
		return
	}
	log.Warn().Err(err).Msg("message moved to dead-letter topic")
}

func processWithRetry(ctx context.Context, cfg *Config, handler Handler, msg *Message) error {
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff(cfg.RetryBackoff, attempt)):
			}
		}

		if lastErr = handler(ctx, msg); lastErr == nil {
			return nil
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// backoff doubles base for every attempt after the first.
func backoff(base time.Duration, attempt int) time.Duration {
	return base * time.Duration(1<<(attempt-1))
}

func sendToDeadLetter(ctx context.Context, p Publisher, msg *Message, cause error) error {
	headers := make(map[string]string, len(msg.Headers)+3)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers["dlq_error"] = cause.Error()
	headers["dlq_source_partition"] = strconv.Itoa(int(msg.Partition))
	headers["dlq_source_offset"] = strconv.FormatInt(msg.Offset, 10)

	return p.Publish(ctx, DeadLetterTopic(msg.Topic), msg.Key, msg.Value, headers)
}

func (c *Consumer) Close() {
	c.client.Close()
}

func toMessage(record *kgo.Record) *Message {
	return &Message{
		Topic:     record.Topic,
		Key:       record.Key,
		Value:     record.Value,
		Partition: record.Partition,
		Offset:    record.Offset,
		Timestamp: record.Timestamp,
		Headers:   headersToMap(record.Headers),
	}
}

func headersToMap(headers []kgo.RecordHeader) map[string]string {
	m := make(map[string]string, len(headers))
	for _, h := range headers {
		m[h.Key] = string(h.Value)
	}
	return m
}
