package listsync

import (
	"context"
	"encoding/json"
)

// LiveCountUpdate is one out-of-band push of the unfiltered global total.
type LiveCountUpdate struct {
	TotalUserCount *int `json:"totalUserCount"`
}

// DecodeLiveCount parses a live count payload.
func DecodeLiveCount(payload []byte) (LiveCountUpdate, error) {
	var update LiveCountUpdate
	if err := json.Unmarshal(payload, &update); err != nil {
		return LiveCountUpdate{}, err
	}
	return update, nil
}

// LiveCountSource delivers live count updates until ctx is cancelled, after
// which the returned channel is closed.
type LiveCountSource interface {
	Subscribe(ctx context.Context) (<-chan LiveCountUpdate, error)
}

// LiveCountSink accepts live count values.
type LiveCountSink interface {
	SetLiveCount(count *int)
}

// FollowLiveCount forwards every update from source to sinks until ctx is
// done or the source channel closes.
func FollowLiveCount(ctx context.Context, source LiveCountSource, sinks ...LiveCountSink) error {
	updates, err := source.Subscribe(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			for _, sink := range sinks {
				sink.SetLiveCount(update.TotalUserCount)
			}
		}
	}
}
