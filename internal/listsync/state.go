package listsync

import (
	"fmt"
	"time"
)

// Operation identifies the controller operation that produced a fetch.
type Operation string

const (
	OpMount     Operation = "mount"
	OpStatus    Operation = "status"
	OpDateRange Operation = "date_range"
	OpSearch    Operation = "search"
	OpRole      Operation = "role"
	OpClear     Operation = "clear"
	OpLoadMore  Operation = "load_more"
)

// FilterState holds the filter dimensions of a list screen. The controller
// keeps at most one dimension set at a time.
type FilterState struct {
	SearchTerm string    `json:"search_term"`
	Status     string    `json:"status"`
	DateRange  DateRange `json:"date_range"`
	Role       string    `json:"role"`
}

// IsZero reports whether no filter dimension is active.
func (f FilterState) IsZero() bool {
	return f.SearchTerm == "" && f.Status == "" && f.Role == "" && f.DateRange.IsZero()
}

func (f FilterState) query(page, perPage int) Query {
	return Query{
		Page:      page,
		PerPage:   perPage,
		Search:    f.SearchTerm,
		Status:    f.Status,
		StartDate: f.DateRange.Start,
		EndDate:   f.DateRange.End,
		Role:      f.Role,
	}
}

// PagingState tracks how much of the filtered result set has been fetched.
type PagingState struct {
	CurrentPage int  `json:"current_page"`
	PerPage     int  `json:"per_page"`
	TotalPages  int  `json:"total_pages"`
	TotalCount  int  `json:"total_count"`
	HasMore     bool `json:"has_more"`
}

// nextPaging derives paging after a batch of batchSize items arrived for page.
// A short batch always ends the list. A full batch continues it unless the
// server total says page was the last one; a non-positive total is treated as
// unknown and only the batch size is trusted.
func nextPaging(page, perPage, batchSize, total int) PagingState {
	totalPages := 0
	if total > 0 && perPage > 0 {
		totalPages = (total + perPage - 1) / perPage
	}

	hasMore := batchSize == perPage
	if hasMore && total > 0 {
		hasMore = page < totalPages
	}

	return PagingState{
		CurrentPage: page,
		PerPage:     perPage,
		TotalPages:  totalPages,
		TotalCount:  total,
		HasMore:     hasMore,
	}
}

// NotificationKind classifies user-visible notifications.
type NotificationKind string

const (
	NotifyFilterFailed NotificationKind = "filter_failed"
	NotifyLoadFailed   NotificationKind = "load_failed"
)

const (
	genericFilterMessage = "Failed to apply filters. Please try again."
	genericLoadMessage   = "Failed to load more items. Please try again."
)

// Notification is a transient toast emitted after a recovered failure.
type Notification struct {
	Kind      NotificationKind `json:"kind"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Operation Operation        `json:"operation"`
	At        time.Time        `json:"at"`
}

// OperationError reports a remote failure the controller recovered from,
// together with the notification shown to the user.
type OperationError struct {
	Op           Operation
	Notification Notification
	Err          error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// State is the committed, type-erased view of a screen consumed by the view
// layer. Items holds a copy of the DisplaySet.
type State struct {
	Resource      string      `json:"resource"`
	Items         interface{} `json:"items"`
	ItemCount     int         `json:"item_count"`
	Filter        FilterState `json:"filter"`
	Applied       FilterState `json:"applied_filter"`
	Paging        PagingState `json:"paging"`
	Loading       bool        `json:"loading"`
	LiveCount     *int        `json:"live_count,omitempty"`
	HeadlineTotal int         `json:"headline_total"`
	Sentinel      string      `json:"sentinel,omitempty"`
	Generation    uint64      `json:"generation"`
	Seq           uint64      `json:"seq"`
}

// Snapshot is the typed counterpart of State.
type Snapshot[T Item] struct {
	Items         []T
	Filter        FilterState
	Applied       FilterState
	Paging        PagingState
	Loading       bool
	LiveCount     *int
	HeadlineTotal int
	Generation    uint64
	Seq           uint64
}

// Sentinel returns the id of the last displayed row, or "" when empty.
func (s Snapshot[T]) Sentinel() string {
	if len(s.Items) == 0 {
		return ""
	}
	return s.Items[len(s.Items)-1].ItemID()
}

// Event is delivered to listeners after every committed change. Exactly one
// of State and Notification is set. Seq increases by one per event and
// listeners see events in Seq order.
type Event struct {
	Seq          uint64
	State        *State
	Notification *Notification
}

// Listener receives controller events. Only one goroutine delivers events at
// a time; a listener that blocks delays later events, it never reorders them.
type Listener func(Event)

// Observer receives instrumentation callbacks from controllers.
type Observer interface {
	ObserveFetch(resource string, op Operation, duration time.Duration, err error)
	ObserveStale(resource string, op Operation)
}

type nopObserver struct{}

func (nopObserver) ObserveFetch(string, Operation, time.Duration, error) {}
func (nopObserver) ObserveStale(string, Operation)                        {}
