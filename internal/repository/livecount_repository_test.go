package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/admin-console/internal/listsync"
)

func newLiveCountRepo(t *testing.T) (*LiveCountRepository, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLiveCountRepository(client, "console:live:user_count", nil), mr
}

func TestLiveCountLastBeforePublish(t *testing.T) {
	repo, _ := newLiveCountRepo(t)

	_, found, err := repo.Last(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLiveCountPublishStoresLast(t *testing.T) {
	repo, mr := newLiveCountRepo(t)
	total := 128

	require.NoError(t, repo.Publish(context.Background(), listsync.LiveCountUpdate{TotalUserCount: &total}))

	raw, err := mr.Get("console:live:user_count:last")
	require.NoError(t, err)
	assert.JSONEq(t, `{"totalUserCount":128}`, raw)

	update, found, err := repo.Last(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	require.NotNil(t, update.TotalUserCount)
	assert.Equal(t, 128, *update.TotalUserCount)
}

func TestLiveCountSubscribeDeliversUpdates(t *testing.T) {
	repo, mr := newLiveCountRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := repo.Subscribe(ctx)
	require.NoError(t, err)

	mr.Publish("console:live:user_count", `not json`)
	mr.Publish("console:live:user_count", `{"totalUserCount":7}`)

	select {
	case update := <-updates:
		require.NotNil(t, update.TotalUserCount)
		assert.Equal(t, 7, *update.TotalUserCount)
	case <-time.After(2 * time.Second):
		t.Fatal("live count update not delivered")
	}

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-updates:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}
