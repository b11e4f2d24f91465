package models

import "time"

// GatewayMetrics is a lightweight summary of gateway activity served by the
// health endpoint.
type GatewayMetrics struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"avg_request_duration_ms"`
	RemoteFetches            uint64    `json:"remote_fetches"`
	RemoteFailures           uint64    `json:"remote_failures"`
	StaleResponses           uint64    `json:"stale_responses"`
	ActiveSessions           int64     `json:"active_sessions"`
	GateRejections           uint64    `json:"gate_rejections"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
