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

func TestQueueRetriesFailedJobs(t *testing.T) {
	var attempts int32
	q := NewQueue("test", func(ctx context.Context, job Job[string]) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("transient")
		}
		return nil
	}, QueueConfig{RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job[string]{ID: "1", Payload: "audit"}))
	require.Eventually(t, func() bool { return q.Stats().Processed == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	assert.Zero(t, q.Stats().Failed)
}

func TestQueueGivesUpAfterMaxRetries(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, job Job[int]) error {
		return errors.New("permanent")
	}, QueueConfig{MaxRetries: 2, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job[int]{ID: "1", Payload: 7}))
	require.Eventually(t, func() bool { return q.Stats().Failed == 1 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, q.Stats().Processed)
}

func TestQueueRejectsWhenStoppedOrFull(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, job Job[string]) error {
		<-block
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})

	assert.ErrorIs(t, q.Enqueue(Job[string]{ID: "early"}), ErrQueueStopped)

	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job[string]{ID: "1"}))
	require.Eventually(t, func() bool { return q.Stats().Pending == 0 }, time.Second, time.Millisecond)
	require.NoError(t, q.Enqueue(Job[string]{ID: "2"}))
	assert.ErrorIs(t, q.Enqueue(Job[string]{ID: "3"}), ErrQueueFull)

	close(block)
	q.Stop()
	assert.ErrorIs(t, q.Enqueue(Job[string]{ID: "late"}), ErrQueueStopped)
	assert.GreaterOrEqual(t, q.Stats().Dropped, uint64(3))
}
