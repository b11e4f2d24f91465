package listsync

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/admin-console/pkg/errors"
)

// Options configures a Controller.
type Options struct {
	Resource string
	PerPage  int
	Location *time.Location
	Clock    func() time.Time
	Logger   *zap.Logger
	Observer Observer
}

// Controller owns the FilterState, PagingState and DisplaySet of one list
// screen. Its exported methods are the only mutators of that state.
//
// Every fetch is tagged with a generation number taken when the operation
// starts. A response is committed only if no newer operation has started
// since; superseded responses and failures are dropped.
type Controller[T Item] struct {
	fetcher  Fetcher[T]
	resource string
	perPage  int
	location *time.Location
	clock    func() time.Time
	logger   *zap.Logger
	observer Observer

	mu         sync.Mutex
	filter     FilterState
	applied    FilterState
	paging     PagingState
	items      []T
	loading    bool
	liveCount  *int
	generation uint64
	seq        uint64
	closed     bool

	listeners  map[int]Listener
	listenerID int
	pending    []Event
	draining   bool
}

// NewController builds a controller fetching pages through fetcher.
func NewController[T Item](fetcher Fetcher[T], opts Options) *Controller[T] {
	if opts.PerPage <= 0 {
		opts.PerPage = DefaultPerPage
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}

	return &Controller[T]{
		fetcher:   fetcher,
		resource:  opts.Resource,
		perPage:   opts.PerPage,
		location:  opts.Location,
		clock:     opts.Clock,
		logger:    opts.Logger.With(zap.String("resource", opts.Resource)),
		observer:  opts.Observer,
		paging:    PagingState{PerPage: opts.PerPage},
		listeners: make(map[int]Listener),
	}
}

// Resource returns the remote resource name the controller lists.
func (c *Controller[T]) Resource() string {
	return c.resource
}

// Mount loads the first page using the current filter.
func (c *Controller[T]) Mount(ctx context.Context) error {
	return c.reload(ctx, OpMount, nil)
}

// ApplyStatusFilter shows only items with the given status.
func (c *Controller[T]) ApplyStatusFilter(ctx context.Context, status string) error {
	status = strings.TrimSpace(status)
	return c.reload(ctx, OpStatus, func(f *FilterState) {
		*f = FilterState{Status: status}
	})
}

// ApplySearch shows only items matching term.
func (c *Controller[T]) ApplySearch(ctx context.Context, term string) error {
	term = strings.TrimSpace(term)
	return c.reload(ctx, OpSearch, func(f *FilterState) {
		*f = FilterState{SearchTerm: term}
	})
}

// ApplyRoleFilter shows only items belonging to role.
func (c *Controller[T]) ApplyRoleFilter(ctx context.Context, role string) error {
	role = strings.TrimSpace(role)
	return c.reload(ctx, OpRole, func(f *FilterState) {
		*f = FilterState{Role: role}
	})
}

// ApplyDateRangeFilter restricts the list to a preset or custom range. A
// custom preset missing either bound clears all filters instead. An inverted
// custom range is rejected before the operation starts: no loading flag, no
// new generation, no event.
func (c *Controller[T]) ApplyDateRangeFilter(ctx context.Context, preset DatePreset, start, end *time.Time) error {
	if preset == PresetCustom && (start == nil || end == nil) {
		return c.ClearFilters(ctx)
	}

	rng, err := ResolveDateRange(preset, c.clock().In(c.location), start, end)
	if err != nil {
		return err
	}

	return c.reload(ctx, OpDateRange, func(f *FilterState) {
		*f = FilterState{DateRange: rng}
	})
}

// ClearFilters resets every filter dimension and reloads the first page.
func (c *Controller[T]) ClearFilters(ctx context.Context) error {
	return c.reload(ctx, OpClear, func(f *FilterState) {
		*f = FilterState{}
	})
}

// LoadMore appends the next page of the last applied filter. It is a no-op
// when no more pages exist or another operation is in flight.
func (c *Controller[T]) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if c.closed || c.loading || !c.paging.HasMore {
		c.mu.Unlock()
		return nil
	}
	page := c.paging.CurrentPage + 1
	query := c.applied.query(page, c.perPage)
	gen := c.beginLocked()
	c.publishStateLocked()
	c.mu.Unlock()
	c.deliver()

	return c.execute(ctx, OpLoadMore, gen, query, func(result Page[T]) {
		c.items = append(c.items, result.Data...)
		c.paging = nextPaging(page, c.perPage, len(result.Data), result.Meta.Total)
	})
}

// SetLiveCount records the latest out-of-band global total. It only affects
// the headline total, never paging.
func (c *Controller[T]) SetLiveCount(count *int) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if count != nil {
		v := *count
		count = &v
	}
	c.liveCount = count
	c.publishStateLocked()
	c.mu.Unlock()
	c.deliver()
}

// Snapshot returns a typed copy of the committed state.
func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot[T]{
		Items:         append([]T(nil), c.items...),
		Filter:        c.filter,
		Applied:       c.applied,
		Paging:        c.paging,
		Loading:       c.loading,
		LiveCount:     copyInt(c.liveCount),
		HeadlineTotal: c.headlineLocked(),
		Generation:    c.generation,
		Seq:           c.seq,
	}
}

// State returns the type-erased committed state.
func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Dataset returns export headers and rows for the displayed items. Items
// that do not implement Exportable are skipped.
func (c *Controller[T]) Dataset() ([]string, []map[string]string) {
	c.mu.Lock()
	items := append([]T(nil), c.items...)
	c.mu.Unlock()

	var headers []string
	var zero T
	if exp, ok := any(zero).(Exportable); ok {
		headers = exp.ExportHeaders()
	}

	rows := make([]map[string]string, 0, len(items))
	for _, item := range items {
		exp, ok := any(item).(Exportable)
		if !ok {
			continue
		}
		if headers == nil {
			headers = exp.ExportHeaders()
		}
		rows = append(rows, exp.ExportRow())
	}
	return headers, rows
}

// Subscribe registers l for future events and returns a function removing it.
func (c *Controller[T]) Subscribe(l Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listenerID++
	id := c.listenerID
	c.listeners[id] = l
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Close tears the screen down. In-flight responses are discarded.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.generation++
	c.items = nil
	c.loading = false
	c.listeners = make(map[int]Listener)
	c.pending = nil
}

func (c *Controller[T]) reload(ctx context.Context, op Operation, mutate func(*FilterState)) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "screen is closed")
	}
	if mutate != nil {
		mutate(&c.filter)
	}
	filter := c.filter
	query := filter.query(1, c.perPage)
	gen := c.beginLocked()
	c.publishStateLocked()
	c.mu.Unlock()
	c.deliver()

	return c.execute(ctx, op, gen, query, func(result Page[T]) {
		c.items = append([]T(nil), result.Data...)
		c.paging = nextPaging(1, c.perPage, len(result.Data), result.Meta.Total)
		c.applied = filter
	})
}

// beginLocked starts a new generation and raises the loading flag.
func (c *Controller[T]) beginLocked() uint64 {
	c.generation++
	c.loading = true
	return c.generation
}

// execute runs the fetch for generation gen and commits it with apply. The
// loading flag is cleared on every exit path, including a panicking fetcher.
func (c *Controller[T]) execute(ctx context.Context, op Operation, gen uint64, query Query, apply func(Page[T])) error {
	settled := false
	defer func() {
		if !settled {
			c.settle(gen, nil)
		}
	}()

	start := time.Now()
	result, err := c.fetcher.Fetch(ctx, query)
	c.observer.ObserveFetch(c.resource, op, time.Since(start), err)
	settled = true

	if err != nil {
		return c.fail(op, gen, err)
	}

	if !c.settle(gen, func() { apply(result) }) {
		c.observer.ObserveStale(c.resource, op)
		c.logger.Debug("dropped superseded list response", zap.String("operation", string(op)), zap.Uint64("generation", gen))
	}
	return nil
}

// settle clears the loading flag and runs apply when gen is still the latest
// generation. It reports whether gen was current.
func (c *Controller[T]) settle(gen uint64, apply func()) bool {
	c.mu.Lock()
	if gen != c.generation || c.closed {
		c.mu.Unlock()
		return false
	}
	if apply != nil {
		apply()
	}
	c.loading = false
	c.publishStateLocked()
	c.mu.Unlock()
	c.deliver()
	return true
}

func (c *Controller[T]) fail(op Operation, gen uint64, err error) error {
	if !c.settle(gen, nil) {
		c.observer.ObserveStale(c.resource, op)
		c.logger.Debug("dropped superseded list failure", zap.String("operation", string(op)), zap.Error(err))
		return nil
	}

	notification := c.notificationFor(op, err)
	c.logger.Error("list operation failed", zap.String("operation", string(op)), zap.Error(err))
	c.mu.Lock()
	c.publishLocked(Event{Notification: &notification})
	c.mu.Unlock()
	c.deliver()

	return &OperationError{Op: op, Notification: notification, Err: err}
}

func (c *Controller[T]) notificationFor(op Operation, err error) Notification {
	n := Notification{
		Kind:      NotifyFilterFailed,
		Title:     "Filtering failed",
		Message:   genericFilterMessage,
		Operation: op,
		At:        c.clock(),
	}
	if op == OpLoadMore {
		n.Kind = NotifyLoadFailed
		n.Title = "Loading failed"
		n.Message = genericLoadMessage
	}
	if msg := appErrors.RemoteMessage(err); msg != "" {
		n.Message = msg
	}
	return n
}

func (c *Controller[T]) stateLocked() State {
	items := append([]T(nil), c.items...)
	state := State{
		Resource:      c.resource,
		Items:         items,
		ItemCount:     len(items),
		Filter:        c.filter,
		Applied:       c.applied,
		Paging:        c.paging,
		Loading:       c.loading,
		LiveCount:     copyInt(c.liveCount),
		HeadlineTotal: c.headlineLocked(),
		Generation:    c.generation,
		Seq:           c.seq,
	}
	if len(items) > 0 {
		state.Sentinel = items[len(items)-1].ItemID()
	}
	return state
}

func (c *Controller[T]) headlineLocked() int {
	if c.liveCount != nil {
		return *c.liveCount
	}
	return c.paging.TotalCount
}

// publishStateLocked queues the current state as the next event.
func (c *Controller[T]) publishStateLocked() {
	c.seq++
	state := c.stateLocked()
	c.pending = append(c.pending, Event{Seq: c.seq, State: &state})
}

func (c *Controller[T]) publishLocked(event Event) {
	c.seq++
	event.Seq = c.seq
	c.pending = append(c.pending, event)
}

// deliver hands queued events to listeners in Seq order. If another goroutine
// is already delivering, the events are left for it.
func (c *Controller[T]) deliver() {
	c.mu.Lock()
	if c.draining {
		c.mu.Unlock()
		return
	}
	c.draining = true
	defer func() {
		if r := recover(); r != nil {
			c.mu.Lock()
			c.draining = false
			c.mu.Unlock()
			panic(r)
		}
	}()

	for len(c.pending) > 0 {
		event := c.pending[0]
		c.pending = c.pending[1:]
		listeners := c.listenersLocked()
		c.mu.Unlock()
		for _, l := range listeners {
			l(event)
		}
		c.mu.Lock()
	}
	c.draining = false
	c.mu.Unlock()
}

func (c *Controller[T]) listenersLocked() []Listener {
	ids := make([]int, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, c.listeners[id])
	}
	return listeners
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
