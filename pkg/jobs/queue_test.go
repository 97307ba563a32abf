package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesAndDrainsOnStop(t *testing.T) {
	var processed int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&processed, 1)
		return nil
	}, QueueConfig{Workers: 2, BufferSize: 16})

	q.Start(context.Background())
	for i := 0; i < 10; i++ {
		require.NoError(t, q.Offer(Job{Type: "audit"}))
	}
	q.Stop()

	assert.EqualValues(t, 10, atomic.LoadInt32(&processed))
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var attempts int32
	done := make(chan struct{})
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: 5 * time.Millisecond})

	q.Start(context.Background())
	require.NoError(t, q.Offer(Job{Type: "audit"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
	q.Stop()
	assert.EqualValues(t, 3, atomic.LoadInt32(&attempts))
}

func TestOfferRejectsWhenNotRunningOrFull(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue("full", func(ctx context.Context, job Job) error {
		<-block
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1, DrainTimeout: time.Second})

	assert.Error(t, q.Offer(Job{}))

	q.Start(context.Background())
	require.NoError(t, q.Offer(Job{}))
	// worker may or may not have picked up the first job yet
	var full error
	for i := 0; i < 3 && full == nil; i++ {
		full = q.Offer(Job{})
	}
	assert.ErrorIs(t, full, ErrQueueFull)

	close(block)
	q.Stop()
}
