package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/admin-console/internal/listsync"
)

type liveCountRepository interface {
	listsync.LiveCountSource
	Publish(ctx context.Context, update listsync.LiveCountUpdate) error
	Last(ctx context.Context) (listsync.LiveCountUpdate, bool, error)
}

type liveCountObserver interface {
	ObserveLiveCount(count *int)
}

// LiveCountService fans the live count channel out to every mounted screen
// that shows the global user total.
type LiveCountService struct {
	repo     liveCountRepository
	observer liveCountObserver
	logger   *zap.Logger
	backoff  time.Duration

	mu       sync.Mutex
	last     *int
	known    bool
	observed time.Time
	sinks    map[int]listsync.LiveCountSink
	nextID   int
}

var _ listsync.LiveCountSink = (*LiveCountService)(nil)

// NewLiveCountService constructs the hub. repo may be nil when the live
// channel is disabled; screens then only ever show the fetched total.
func NewLiveCountService(repo liveCountRepository, observer liveCountObserver, logger *zap.Logger) *LiveCountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LiveCountService{
		repo:     repo,
		observer: observer,
		logger:   logger,
		backoff:  2 * time.Second,
		sinks:    make(map[int]listsync.LiveCountSink),
	}
}

// Register adds sink and seeds it with the last known value.
func (s *LiveCountService) Register(sink listsync.LiveCountSink) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.sinks[id] = sink
	last, known := copyCount(s.last), s.known
	s.mu.Unlock()

	if known {
		sink.SetLiveCount(last)
	}
	return func() {
		s.mu.Lock()
		delete(s.sinks, id)
		s.mu.Unlock()
	}
}

// SetLiveCount records count and forwards it to every registered sink.
func (s *LiveCountService) SetLiveCount(count *int) {
	s.mu.Lock()
	s.last = copyCount(count)
	s.known = true
	s.observed = time.Now().UTC()
	sinks := make([]listsync.LiveCountSink, 0, len(s.sinks))
	for _, sink := range s.sinks {
		sinks = append(sinks, sink)
	}
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.ObserveLiveCount(count)
	}
	for _, sink := range sinks {
		sink.SetLiveCount(copyCount(count))
	}
}

// Current returns the last value seen by this process.
func (s *LiveCountService) Current() (*int, time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCount(s.last), s.observed, s.known
}

// Last returns the last published value, preferring the shared store.
func (s *LiveCountService) Last(ctx context.Context) (*int, time.Time, error) {
	if s.repo != nil {
		update, found, err := s.repo.Last(ctx)
		if err != nil {
			return nil, time.Time{}, err
		}
		if found {
			_, observed, _ := s.Current()
			return update.TotalUserCount, observed, nil
		}
	}
	count, observed, _ := s.Current()
	return count, observed, nil
}

// Publish broadcasts a new value. Without a store it is applied locally.
func (s *LiveCountService) Publish(ctx context.Context, count *int) error {
	if s.repo == nil {
		s.SetLiveCount(count)
		return nil
	}
	return s.repo.Publish(ctx, listsync.LiveCountUpdate{TotalUserCount: count})
}

// Run seeds the hub from the store and follows the channel until ctx ends,
// resubscribing after failures.
func (s *LiveCountService) Run(ctx context.Context) error {
	if s.repo == nil {
		<-ctx.Done()
		return nil
	}

	if update, found, err := s.repo.Last(ctx); err != nil {
		s.logger.Warn("live count seed failed", zap.Error(err))
	} else if found {
		s.SetLiveCount(update.TotalUserCount)
	}

	for {
		err := listsync.FollowLiveCount(ctx, s.repo, s)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("live count subscription lost", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.backoff):
		}
	}
}

func copyCount(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
