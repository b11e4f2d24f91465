package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/admin-console/internal/service"
)

type sessionCounter int

func (s sessionCounter) Count() int { return int(s) }

func TestMetricsHandlerReady(t *testing.T) {
	handler := NewMetricsHandler(nil, nil, map[string]ReadinessCheck{
		"redis": func(context.Context) error { return nil },
	})
	c, rec := newScreenContext(http.MethodGet, "/ready", "", false)
	handler.Ready(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready","checks":{"redis":"ok"}}`, rec.Body.String())

	handler = NewMetricsHandler(nil, nil, map[string]ReadinessCheck{
		"postgres": func(context.Context) error { return errors.New("connection refused") },
	})
	c, rec = newScreenContext(http.MethodGet, "/ready", "", false)
	handler.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestMetricsHandlerSummaryAndPrometheus(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.ObserveGateRejection("invalid_credentials")
	handler := NewMetricsHandler(metrics, sessionCounter(3), nil)

	c, rec := newScreenContext(http.MethodGet, "/console/metrics", "", false)
	handler.Summary(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"active_sessions":3`)
	assert.Contains(t, rec.Body.String(), `"gate_rejections":1`)

	c, rec = newScreenContext(http.MethodGet, "/metrics", "", false)
	handler.Prometheus(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "console_gate_rejections_total")
}
