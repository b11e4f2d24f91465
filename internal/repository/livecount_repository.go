package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/admin-console/internal/listsync"
)

// LiveCountRepository carries live count updates over Redis pub/sub and
// keeps the last published value under "<channel>:last".
type LiveCountRepository struct {
	client  redis.UniversalClient
	channel string
	logger  *zap.Logger
}

// NewLiveCountRepository constructs the repository.
func NewLiveCountRepository(client redis.UniversalClient, channel string, logger *zap.Logger) *LiveCountRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LiveCountRepository{client: client, channel: channel, logger: logger}
}

func (r *LiveCountRepository) lastKey() string {
	return r.channel + ":last"
}

// Publish stores update as the last value and fans it out to subscribers.
func (r *LiveCountRepository) Publish(ctx context.Context, update listsync.LiveCountUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("marshal live count: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.lastKey(), payload, 0)
	pipe.Publish(ctx, r.channel, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis publish %s: %w", r.channel, err)
	}
	return nil
}

// Last returns the most recently published update. found is false when
// nothing has been published yet.
func (r *LiveCountRepository) Last(ctx context.Context) (listsync.LiveCountUpdate, bool, error) {
	raw, err := r.client.Get(ctx, r.lastKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return listsync.LiveCountUpdate{}, false, nil
		}
		return listsync.LiveCountUpdate{}, false, fmt.Errorf("redis get %s: %w", r.lastKey(), err)
	}
	update, err := listsync.DecodeLiveCount(raw)
	if err != nil {
		return listsync.LiveCountUpdate{}, false, fmt.Errorf("decode live count: %w", err)
	}
	return update, true, nil
}

// Subscribe implements listsync.LiveCountSource. Undecodable payloads are
// logged and skipped.
func (r *LiveCountRepository) Subscribe(ctx context.Context) (<-chan listsync.LiveCountUpdate, error) {
	pubsub := r.client.Subscribe(ctx, r.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", r.channel, err)
	}

	out := make(chan listsync.LiveCountUpdate)
	go func() {
		defer close(out)
		defer pubsub.Close() //nolint:errcheck

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				update, err := listsync.DecodeLiveCount([]byte(msg.Payload))
				if err != nil {
					r.logger.Warn("discarding malformed live count", zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				select {
				case out <- update:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
