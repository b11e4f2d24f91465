package listsync

import (
	"sync"
	"time"
)

// DefaultSearchDebounce is the quiet period before a typed search is applied.
const DefaultSearchDebounce = 300 * time.Millisecond

// Debouncer applies the last pushed search term once input has been quiet
// for the configured delay.
type Debouncer struct {
	delay time.Duration
	apply func(term string)

	mu      sync.Mutex
	timer   *time.Timer
	pending string
	armed   bool
	stopped bool
}

// NewDebouncer returns a debouncer calling apply after delay of inactivity.
func NewDebouncer(delay time.Duration, apply func(term string)) *Debouncer {
	if delay <= 0 {
		delay = DefaultSearchDebounce
	}
	return &Debouncer{delay: delay, apply: apply}
}

// Push records a keystroke and restarts the quiet period.
func (d *Debouncer) Push(term string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending = term
	d.armed = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

// Flush applies a pending term immediately, as on an explicit submit.
// It reports whether a term was pending.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()
	return d.take()
}

// Cancel drops any pending term without applying it.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.armed = false
	d.pending = ""
}

// Stop cancels pending work and ignores further pushes.
func (d *Debouncer) Stop() {
	d.Cancel()
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
}

func (d *Debouncer) fire() {
	d.take()
}

func (d *Debouncer) take() bool {
	d.mu.Lock()
	if !d.armed || d.stopped {
		d.mu.Unlock()
		return false
	}
	term := d.pending
	d.armed = false
	d.pending = ""
	d.mu.Unlock()

	d.apply(term)
	return true
}
