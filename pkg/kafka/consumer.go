// Package kafka wraps segmentio/kafka-go for the parse event stream: a
// batching JSON producer and a consumer that retries failed messages before
// skipping them.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/resilience"
)

// ErrSkip marks a message that can never be processed. The consumer commits
// it without retrying.
var ErrSkip = errors.New("skipping message")

// Skip wraps err with ErrSkip.
func Skip(err error) error {
	return fmt.Errorf("%w: %w", ErrSkip, err)
}

// MessageHandler processes one message value. Returning an error wrapping
// ErrSkip drops the message; any other error is retried.
type MessageHandler func(ctx context.Context, key []byte, value []byte) error

type ConsumerStats struct {
	Processed int64
	Skipped   int64
	Failed    int64
	Lag       int64
}

type Consumer struct {
	reader  *kafka.Reader
	logger  *slog.Logger
	handler MessageHandler
	retry   resilience.RetryConfig

	processed atomic.Int64
	skipped   atomic.Int64
	failed    atomic.Int64
	lag       atomic.Int64
}

func NewConsumer(cfg config.KafkaConfig, topic string, handler MessageHandler) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          topic,
		GroupID:        cfg.ConsumerGroup,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        time.Second,
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
	})
	return &Consumer{
		reader:  r,
		logger:  slog.Default().With("component", "kafka-consumer", "topic", topic),
		handler: handler,
		retry: resilience.RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     2 * time.Second,
		},
	}
}

// Start consumes until ctx is cancelled. Every fetched message is committed
// once handled, retried out or skipped, so a poison message cannot stall the
// partition.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")
	defer c.reader.Close()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", "reason", ctx.Err())
				return nil
			}
			c.logger.Error("failed to fetch message", "error", err)
			continue
		}
		c.lag.Store(msg.HighWaterMark - msg.Offset - 1)
		c.process(ctx, msg)
		if ctx.Err() != nil {
			return nil
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error("failed to commit message", "partition", msg.Partition, "offset", msg.Offset, "error", err)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	err := resilience.Retry(ctx, "handle message", c.retry, func() error {
		err := c.handler(ctx, msg.Key, msg.Value)
		if errors.Is(err, ErrSkip) {
			return resilience.Permanent(err)
		}
		return err
	})
	switch {
	case err == nil:
		c.processed.Add(1)
	case errors.Is(err, ErrSkip):
		c.skipped.Add(1)
		c.logger.Warn("message skipped", "partition", msg.Partition, "offset", msg.Offset, "error", err)
	default:
		c.failed.Add(1)
		c.logger.Error("message dropped after retries", "partition", msg.Partition, "offset", msg.Offset, "error", err)
	}
}

// Stats reports message counts and the lag seen on the last fetch.
func (c *Consumer) Stats() ConsumerStats {
	return ConsumerStats{
		Processed: c.processed.Load(),
		Skipped:   c.skipped.Load(),
		Failed:    c.failed.Load(),
		Lag:       c.lag.Load(),
	}
}

// DecodeJSON unmarshals a message value into T. Decode failures wrap ErrSkip.
func DecodeJSON[T any](value []byte) (T, error) {
	var result T
	if err := json.Unmarshal(value, &result); err != nil {
		return result, Skip(fmt.Errorf("decoding kafka message: %w", err))
	}
	return result, nil
}
