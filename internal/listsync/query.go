package listsync

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// DefaultPerPage is the page size used by dashboard list screens.
const DefaultPerPage = 15

// Item is the constraint satisfied by every row rendered in a list screen.
type Item interface {
	ItemID() string
}

// Exportable rows can be rendered into tabular exports.
type Exportable interface {
	ExportHeaders() []string
	ExportRow() map[string]string
}

// Query is the request sent to the remote list service for a single page.
type Query struct {
	Page      int
	PerPage   int
	Search    string
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
	Role      string
}

// Values encodes the query using the remote list service parameter names.
// Empty dimensions are omitted.
func (q Query) Values() url.Values {
	values := url.Values{}
	values.Set("page", strconv.Itoa(q.Page))
	values.Set("per_page", strconv.Itoa(q.PerPage))
	if q.Search != "" {
		values.Set("search", q.Search)
	}
	if q.Status != "" {
		values.Set("status", q.Status)
	}
	if q.StartDate != nil {
		values.Set("start_date", FormatISO(*q.StartDate))
	}
	if q.EndDate != nil {
		values.Set("end_date", FormatISO(*q.EndDate))
	}
	if q.Role != "" {
		values.Set("role", q.Role)
	}
	return values
}

// Meta carries the server-declared total for the current filter.
type Meta struct {
	Total int `json:"total"`
}

// Page is the unwrapped remote list response.
type Page[T any] struct {
	Data []T `json:"data"`
	Meta Meta `json:"meta"`
}

// Fetcher retrieves one page of items from the remote list service.
type Fetcher[T any] interface {
	Fetch(ctx context.Context, query Query) (Page[T], error)
}
