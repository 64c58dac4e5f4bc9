package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/kafka"
)

type fakePublisher struct {
	mu      sync.Mutex
	batches [][]kafka.Event
	err     error
}

func (f *fakePublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, events)
	return nil
}

func (f *fakePublisher) published() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

func TestFlushOnSize(t *testing.T) {
	pub := &fakePublisher{}
	bc := NewBatchCollector(pub, nil, 2, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		bc.Run(ctx)
		close(done)
	}()

	bc.Track(analytics.ParseEvent{Query: "a"})
	bc.Track(analytics.ParseEvent{Query: "b"})
	assert.Eventually(t, func() bool { return pub.published() == 2 }, time.Second, 5*time.Millisecond)

	bc.Track(analytics.ParseEvent{Query: "c"})
	cancel()
	<-done
	assert.Equal(t, 3, pub.published(), "final flush on shutdown")
}

func TestFailedFlushRequeues(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	bc := NewBatchCollector(pub, nil, 2, time.Hour)

	for i := 0; i < 5; i++ {
		bc.Track(analytics.ParseEvent{Query: "q"})
	}
	bc.flush(context.Background())
	assert.Equal(t, 5, bc.BufferLen())

	for i := 0; i < 3; i++ {
		bc.Track(analytics.ParseEvent{Query: "q"})
	}
	bc.flush(context.Background())
	assert.Equal(t, 6, bc.BufferLen(), "capped at three batches")

	pub.err = nil
	bc.flush(context.Background())
	require.Equal(t, 0, bc.BufferLen())
	assert.Equal(t, 6, pub.published())
}
