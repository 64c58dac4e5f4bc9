package kafka

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/resilience"
)

func TestDecodeJSON(t *testing.T) {
	type event struct {
		Query string `json:"query"`
	}

	got, err := DecodeJSON[event]([]byte(`{"query":"foo bar"}`))
	require.NoError(t, err)
	assert.Equal(t, "foo bar", got.Query)

	_, err = DecodeJSON[event]([]byte(`{"query":`))
	assert.ErrorContains(t, err, "decoding kafka message")
	assert.ErrorIs(t, err, ErrSkip)
}

func testConsumer(handler MessageHandler) *Consumer {
	return &Consumer{
		logger:  slog.Default(),
		handler: handler,
		retry:   resilience.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond},
	}
}

func TestProcess(t *testing.T) {
	t.Run("transient failure is retried", func(t *testing.T) {
		calls := 0
		c := testConsumer(func(context.Context, []byte, []byte) error {
			calls++
			if calls < 2 {
				return errors.New("busy")
			}
			return nil
		})
		c.process(context.Background(), kafka.Message{})
		assert.Equal(t, 2, calls)
		assert.Equal(t, ConsumerStats{Processed: 1}, c.Stats())
	})

	t.Run("skip is not retried", func(t *testing.T) {
		calls := 0
		c := testConsumer(func(context.Context, []byte, []byte) error {
			calls++
			return Skip(errors.New("bad payload"))
		})
		c.process(context.Background(), kafka.Message{})
		assert.Equal(t, 1, calls)
		assert.Equal(t, ConsumerStats{Skipped: 1}, c.Stats())
	})

	t.Run("persistent failure is dropped", func(t *testing.T) {
		calls := 0
		c := testConsumer(func(context.Context, []byte, []byte) error {
			calls++
			return errors.New("down")
		})
		c.process(context.Background(), kafka.Message{})
		assert.Equal(t, 3, calls)
		assert.Equal(t, ConsumerStats{Failed: 1}, c.Stats())
	})
}
