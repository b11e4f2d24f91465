package dto

import (
	"time"

	"github.com/noah-isme/admin-console/internal/listsync"
)

// OpenSessionRequest opens a dashboard session for an operator.
type OpenSessionRequest struct {
	Operator string `json:"operator" validate:"required,max=120"`
}

// StatusFilterRequest selects a status filter.
type StatusFilterRequest struct {
	Status string `json:"status" validate:"required,max=64"`
}

// RoleFilterRequest selects a role filter.
type RoleFilterRequest struct {
	Role string `json:"role" validate:"required,max=64"`
}

// DateRangeFilterRequest selects a date preset or a custom range. Custom
// bounds may be omitted, which clears every filter.
type DateRangeFilterRequest struct {
	Preset string     `json:"preset" validate:"required,oneof=today week month custom"`
	Start  *time.Time `json:"start_date"`
	End    *time.Time `json:"end_date"`
}

// SearchRequest submits a search term. An empty term removes the search.
type SearchRequest struct {
	Term string `json:"term" validate:"max=255"`
}

// SearchInputRequest reports a keystroke in the search box. Submit marks the
// Enter key, which applies the term without waiting for the quiet period.
type SearchInputRequest struct {
	Term   string `json:"term" validate:"max=255"`
	Submit bool   `json:"submit"`
}

// SentinelRequest reports the visibility of the last rendered row.
type SentinelRequest struct {
	Sentinel string  `json:"sentinel" validate:"required"`
	Ratio    float64 `json:"ratio" validate:"gte=0,lte=1"`
}

// LiveCountRequest publishes a live user count. A nil count clears the
// override.
type LiveCountRequest struct {
	TotalUserCount *int `json:"totalUserCount" validate:"omitempty,gte=0"`
}

// IntentResponse is returned by every intent endpoint.
type IntentResponse struct {
	State        listsync.State         `json:"state"`
	Notification *listsync.Notification `json:"notification,omitempty"`
}

// SentinelResponse reports whether the sentinel report triggered a load.
type SentinelResponse struct {
	Triggered bool           `json:"triggered"`
	State     listsync.State `json:"state"`
}

// LiveCountResponse reports the last published live count.
type LiveCountResponse struct {
	TotalUserCount *int      `json:"totalUserCount"`
	ObservedAt     time.Time `json:"observed_at,omitempty"`
}
