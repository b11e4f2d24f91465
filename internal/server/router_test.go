package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/admin-console/internal/service"
	"github.com/noah-isme/admin-console/pkg/config"
	"github.com/noah-isme/admin-console/pkg/listclient"
)

type remoteOrders struct {
	mu      sync.Mutex
	total   int
	queries []string
}

func (r *remoteOrders) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	r.queries = append(r.queries, req.URL.RawQuery)
	r.mu.Unlock()

	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(req.URL.Query().Get("per_page"))
	total := r.total
	if req.URL.Query().Get("status") == "shipped" {
		total = 2
	}
	rows := []map[string]interface{}{}
	for i := (page - 1) * perPage; i < total && i < page*perPage; i++ {
		rows = append(rows, map[string]interface{}{
			"id":           i + 1,
			"order_number": fmt.Sprintf("SO-%04d", i+1),
			"status":       "pending",
			"created_at":   "2024-05-15T10:00:00Z",
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"data": map[string]interface{}{"data": rows},
		"meta": map[string]interface{}{"total": total},
	})
}

type routerFixture struct {
	router *gin.Engine
	remote *remoteOrders
}

func newRouterFixture(t *testing.T, env string) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	remote := &remoteOrders{total: 20}
	upstream := httptest.NewServer(remote)
	t.Cleanup(upstream.Close)

	cfg := &config.Config{
		Env:  env,
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Gate: config.GateConfig{
			Username:          "admin",
			Password:          "s3cret",
			HealthCheckMarker: "ELB-HealthChecker",
			ExcludedPrefixes:  []string{"/api/"},
			RatePerSecond:     1,
			RateBurst:         5,
		},
	}
	logger := zap.NewNop()
	metrics := service.NewMetricsService()
	catalog := service.DefaultCatalog(listclient.New(listclient.Config{BaseURL: upstream.URL, Logger: logger}))
	live := service.NewLiveCountService(nil, metrics, logger)
	tokens := service.NewTokenService(service.TokenConfig{Secret: "test-secret", Issuer: "admin-console", TTL: time.Hour})
	sessions := service.NewSessionService(catalog, tokens, live, nil, metrics, nil, logger, service.SessionConfig{PerPage: 15})
	t.Cleanup(sessions.Shutdown)

	router := NewRouter(Dependencies{
		Config:    cfg,
		Logger:    logger,
		Metrics:   metrics,
		Sessions:  sessions,
		Catalog:   catalog,
		Exports:   service.NewExportService(logger, nil, nil),
		LiveCount: live,
	})
	return &routerFixture{router: router, remote: remote}
}

func (fx *routerFixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)
	return w
}

type stateBody struct {
	Data struct {
		State struct {
			ItemCount     int `json:"item_count"`
			HeadlineTotal int `json:"headline_total"`
			Paging        struct {
				Page    int  `json:"current_page"`
				HasMore bool `json:"has_more"`
			} `json:"paging"`
			Sentinel string `json:"sentinel"`
		} `json:"state"`
	} `json:"data"`
}

func decodeState(t *testing.T, w *httptest.ResponseRecorder) stateBody {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body stateBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func openSession(t *testing.T, fx *routerFixture) string {
	t.Helper()
	w := fx.do(http.MethodPost, "/console/sessions", "", `{"operator":"ops"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var body struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Data.Token)
	return body.Data.Token
}

func TestRouterListSyncFlow(t *testing.T) {
	fx := newRouterFixture(t, "development")
	token := openSession(t, fx)

	state := decodeState(t, fx.do(http.MethodGet, "/console/screens/orders", token, ""))
	assert.Equal(t, 15, state.Data.State.ItemCount)
	assert.Equal(t, 20, state.Data.State.HeadlineTotal)
	assert.True(t, state.Data.State.Paging.HasMore)
	assert.Equal(t, "order-15", state.Data.State.Sentinel)

	state = decodeState(t, fx.do(http.MethodPost, "/console/screens/orders/sentinel", token, `{"sentinel":"order-15","ratio":0.5}`))
	assert.Equal(t, 20, state.Data.State.ItemCount)
	assert.False(t, state.Data.State.Paging.HasMore)

	state = decodeState(t, fx.do(http.MethodPost, "/console/screens/orders/filters/status", token, `{"status":"shipped"}`))
	assert.Equal(t, 2, state.Data.State.ItemCount)
	assert.Equal(t, 1, state.Data.State.Paging.Page)

	w := fx.do(http.MethodGet, "/console/screens/orders/export?format=csv", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "SO-0002")

	fx.remote.mu.Lock()
	queries := append([]string(nil), fx.remote.queries...)
	fx.remote.mu.Unlock()
	require.Len(t, queries, 3)
	assert.Contains(t, queries[1], "page=2")
	assert.Contains(t, queries[2], "status=shipped")
	assert.Contains(t, queries[2], "page=1")

	w = fx.do(http.MethodDelete, "/console/sessions", token, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = fx.do(http.MethodGet, "/console/screens/orders", token, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouterRejectsMissingSessionAndUnknownScreen(t *testing.T) {
	fx := newRouterFixture(t, "development")

	w := fx.do(http.MethodGet, "/console/screens/orders", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := openSession(t, fx)
	w = fx.do(http.MethodGet, "/console/screens/invoices", token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = fx.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterGatesConsoleInProduction(t *testing.T) {
	fx := newRouterFixture(t, config.EnvProduction)

	req := httptest.NewRequest(http.MethodPost, "https://console.example.com/console/sessions", strings.NewReader(`{"operator":"ops"}`))
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Basic")

	req = httptest.NewRequest(http.MethodPost, "https://console.example.com/console/sessions", strings.NewReader(`{"operator":"ops"}`))
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("admin", "s3cret")
	w = httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	req = httptest.NewRequest(http.MethodGet, "https://console.example.com/health", nil)
	req.Header.Set("User-Agent", "ELB-HealthChecker/2.0")
	w = httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
