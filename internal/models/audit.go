package models

import (
	"encoding/json"
	"time"
)

// AuditAction constants represent the console intents that are logged.
const (
	AuditActionSessionOpen  = "SESSION_OPEN"
	AuditActionSessionClose = "SESSION_CLOSE"
	AuditActionMount        = "SCREEN_MOUNT"
	AuditActionFilter       = "FILTER_APPLY"
	AuditActionClear        = "FILTER_CLEAR"
	AuditActionLoadMore     = "LOAD_MORE"
	AuditActionExport       = "EXPORT"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string          `db:"id" json:"id"`
	SessionID  string          `db:"session_id" json:"session_id"`
	Operator   string          `db:"operator" json:"operator"`
	Action     string          `db:"action" json:"action"`
	Screen     string          `db:"screen" json:"screen"`
	Operation  string          `db:"operation" json:"operation"`
	Filter     json.RawMessage `db:"filter" json:"filter,omitempty"`
	Outcome    string          `db:"outcome" json:"outcome"`
	Generation int64           `db:"generation" json:"generation"`
	IPAddress  string          `db:"ip_address" json:"ip_address"`
	Client     string          `db:"client" json:"client"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// AuditFilter narrows audit listings.
type AuditFilter struct {
	SessionID string
	Screen    string
	Limit     int
}
