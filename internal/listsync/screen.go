package listsync

import (
	"context"
	"time"
)

// Screen is the type-erased surface of a Controller used by the gateway,
// which hosts screens of different item types side by side.
type Screen interface {
	Resource() string
	Mount(ctx context.Context) error
	ApplyStatusFilter(ctx context.Context, status string) error
	ApplyDateRangeFilter(ctx context.Context, preset DatePreset, start, end *time.Time) error
	ApplySearch(ctx context.Context, term string) error
	ApplyRoleFilter(ctx context.Context, role string) error
	ClearFilters(ctx context.Context) error
	LoadMore(ctx context.Context) error
	SetLiveCount(count *int)
	State() State
	Dataset() ([]string, []map[string]string)
	Subscribe(l Listener) func()
	Close()
}

var _ Screen = (*Controller[stubItem])(nil)

type stubItem struct{}

func (stubItem) ItemID() string { return "" }
