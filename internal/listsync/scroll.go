package listsync

import (
	"context"
	"sync"
)

// VisibilityThreshold is the visible ratio at which a sentinel counts as intersecting.
const VisibilityThreshold = 0.10

// LoadMoreFunc asks the owning screen for its next page.
type LoadMoreFunc func(ctx context.Context)

// IntersectFunc runs when a sentinel comes into view and reports whether it
// actually requested more rows.
type IntersectFunc func(ctx context.Context) bool

// Watcher observes the visibility of one sentinel element.
type Watcher interface {
	// Report delivers a visibility ratio in [0,1]. It returns true only when
	// the report was a transition into view and onIntersect requested rows.
	Report(ctx context.Context, ratio float64) bool
	Disconnect()
}

// WatcherFactory creates a watcher for sentinel that calls onIntersect on
// every not-visible to visible transition at or above threshold.
type WatcherFactory func(sentinel string, threshold float64, onIntersect IntersectFunc) Watcher

// NewIntersectionWatcher is the default WatcherFactory.
func NewIntersectionWatcher(sentinel string, threshold float64, onIntersect IntersectFunc) Watcher {
	return &intersectionWatcher{sentinel: sentinel, threshold: threshold, onIntersect: onIntersect}
}

type intersectionWatcher struct {
	sentinel    string
	threshold   float64
	onIntersect IntersectFunc

	mu           sync.Mutex
	visible      bool
	disconnected bool
}

func (w *intersectionWatcher) Report(ctx context.Context, ratio float64) bool {
	w.mu.Lock()
	if w.disconnected {
		w.mu.Unlock()
		return false
	}
	nowVisible := ratio >= w.threshold
	fire := nowVisible && !w.visible
	w.visible = nowVisible
	w.mu.Unlock()

	if !fire || w.onIntersect == nil {
		return false
	}
	return w.onIntersect(ctx)
}

func (w *intersectionWatcher) Disconnect() {
	w.mu.Lock()
	w.disconnected = true
	w.mu.Unlock()
}

// ScrollCoordinator keeps at most one watcher attached to the current
// sentinel of a screen and triggers load-more when it becomes visible.
//
// The load-more callback lives in a cell refreshed on every Render, so a
// watcher created earlier always calls the latest callback. The watcher
// itself is rebuilt only when the sentinel or hasMore changes; hasMore is
// captured by the watcher when it is built.
type ScrollCoordinator struct {
	factory WatcherFactory

	mu       sync.Mutex
	watcher  Watcher
	sentinel string
	hasMore  bool
	callback LoadMoreFunc
	seq      uint64
}

// NewScrollCoordinator returns a coordinator building watchers with factory,
// or with NewIntersectionWatcher when factory is nil.
func NewScrollCoordinator(factory WatcherFactory) *ScrollCoordinator {
	if factory == nil {
		factory = NewIntersectionWatcher
	}
	return &ScrollCoordinator{factory: factory}
}

// Observe attaches a watcher to sentinel, disconnecting the previous one
// first. An empty sentinel only detaches.
func (s *ScrollCoordinator) Observe(sentinel string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachLocked(sentinel, s.hasMore)
}

// Render applies the latest committed screen state. The callback cell is
// always refreshed; the watcher is rebuilt only if sentinel or hasMore moved.
func (s *ScrollCoordinator) Render(sentinel string, hasMore bool, fn LoadMoreFunc) {
	s.RenderState(0, sentinel, hasMore, fn)
}

// RenderState is Render for a state stamped with its commit sequence. A state
// older than one already rendered is ignored and false is returned. A zero
// seq is always applied.
func (s *ScrollCoordinator) RenderState(seq uint64, sentinel string, hasMore bool, fn LoadMoreFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != 0 {
		if seq < s.seq {
			return false
		}
		s.seq = seq
	}
	s.callback = fn
	if s.watcher != nil && sentinel == s.sentinel && hasMore == s.hasMore {
		return true
	}
	s.attachLocked(sentinel, hasMore)
	return true
}

// Intersect forwards a visibility report for sentinel to the active watcher.
// Reports for any other element are ignored. It returns whether the report
// triggered the load-more callback.
func (s *ScrollCoordinator) Intersect(ctx context.Context, sentinel string, ratio float64) bool {
	s.mu.Lock()
	w := s.watcher
	current := s.sentinel
	s.mu.Unlock()

	if w == nil || sentinel != current {
		return false
	}
	return w.Report(ctx, ratio)
}

// Sentinel returns the element currently observed.
func (s *ScrollCoordinator) Sentinel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sentinel
}

// Close detaches the active watcher.
func (s *ScrollCoordinator) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachLocked("", s.hasMore)
}

func (s *ScrollCoordinator) attachLocked(sentinel string, hasMore bool) {
	if s.watcher != nil {
		s.watcher.Disconnect()
		s.watcher = nil
	}
	s.sentinel = sentinel
	s.hasMore = hasMore
	if sentinel == "" {
		return
	}

	captured := hasMore
	s.watcher = s.factory(sentinel, VisibilityThreshold, func(ctx context.Context) bool {
		if !captured {
			return false
		}
		s.mu.Lock()
		fn := s.callback
		s.mu.Unlock()
		if fn == nil {
			return false
		}
		fn(ctx)
		return true
	})
}
