package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/admin-console/internal/listsync"
	"github.com/noah-isme/admin-console/internal/repository"
)

type countSink struct {
	mu     sync.Mutex
	values []*int
}

func (s *countSink) SetLiveCount(count *int) {
	s.mu.Lock()
	s.values = append(s.values, count)
	s.mu.Unlock()
}

func (s *countSink) last() (*int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return nil, 0
	}
	return s.values[len(s.values)-1], len(s.values)
}

func TestLiveCountServiceFollowsRedisChannel(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	repo := repository.NewLiveCountRepository(client, "console:live:user_count", zap.NewNop())
	seed := 10
	require.NoError(t, repo.Publish(context.Background(), listsync.LiveCountUpdate{TotalUserCount: &seed}))

	metrics := NewMetricsService()
	svc := NewLiveCountService(repo, metrics, zap.NewNop())
	sink := &countSink{}
	unregister := svc.Register(sink)
	defer unregister()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	require.Eventually(t, func() bool {
		v, _ := sink.last()
		return v != nil && *v == 10
	}, 2*time.Second, 10*time.Millisecond)

	next := 11
	require.Eventually(t, func() bool {
		_ = svc.Publish(context.Background(), &next)
		v, _ := sink.last()
		return v != nil && *v == 11
	}, 2*time.Second, 50*time.Millisecond)

	last, _, err := svc.Last(context.Background())
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, 11, *last)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("live count loop did not stop")
	}
}

func TestLiveCountServiceSeedsLateSinksAndClears(t *testing.T) {
	svc := NewLiveCountService(nil, nil, zap.NewNop())
	total := 5
	require.NoError(t, svc.Publish(context.Background(), &total))

	sink := &countSink{}
	unregister := svc.Register(sink)
	v, n := sink.last()
	require.Equal(t, 1, n)
	assert.Equal(t, 5, *v)

	require.NoError(t, svc.Publish(context.Background(), nil))
	v, n = sink.last()
	assert.Equal(t, 2, n)
	assert.Nil(t, v)

	unregister()
	require.NoError(t, svc.Publish(context.Background(), &total))
	_, n = sink.last()
	assert.Equal(t, 2, n)
}
