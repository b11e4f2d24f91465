package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/admin-console/pkg/config"
)

type rejectionSpy struct {
	reasons []string
}

func (s *rejectionSpy) ObserveGateRejection(reason string) {
	s.reasons = append(s.reasons, reason)
}

func gateConfig() config.GateConfig {
	return config.GateConfig{
		Username:          "admin",
		Password:          "s3cret",
		HealthCheckMarker: "ELB-HealthChecker",
		ExcludedPrefixes:  []string{"/api/", "/_next/", "/favicon.ico"},
		Realm:             "Secure Area",
		RatePerSecond:     1,
		RateBurst:         3,
	}
}

func newGateRouter(opts GateOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Gate(opts))
	router.NoRoute(func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return router
}

func serve(router *gin.Engine, path string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "192.0.2.10:5000"
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGateChallengesMissingCredentials(t *testing.T) {
	router := newGateRouter(GateOptions{GateConfig: gateConfig(), Production: true})

	w := serve(router, "/console/screens/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, `Basic realm="Secure Area"`, w.Header().Get("WWW-Authenticate"))
}

func TestGateAcceptsValidCredentials(t *testing.T) {
	router := newGateRouter(GateOptions{GateConfig: gateConfig(), Production: true})

	w := serve(router, "/console/screens/orders", func(r *http.Request) { r.SetBasicAuth("admin", "s3cret") })
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(router, "/console/screens/orders", func(r *http.Request) { r.SetBasicAuth("admin", "wrong") })
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGateAcceptsBcryptPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	cfg := gateConfig()
	cfg.Password = string(hash)
	router := newGateRouter(GateOptions{GateConfig: cfg, Production: true})

	w := serve(router, "/", func(r *http.Request) { r.SetBasicAuth("admin", "s3cret") })
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGateBypasses(t *testing.T) {
	router := newGateRouter(GateOptions{GateConfig: gateConfig(), Production: true})

	for _, path := range []string{"/api/orders", "/_next/static/app.js", "/favicon.ico"} {
		w := serve(router, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := serve(router, "/console", func(r *http.Request) { r.Header.Set("User-Agent", "ELB-HealthChecker/2.0") })
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(router, "/apiary", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGateInactiveOutsideProduction(t *testing.T) {
	router := newGateRouter(GateOptions{GateConfig: gateConfig(), Production: false})

	w := serve(router, "/console/screens/orders", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGateRateLimitsRepeatedFailures(t *testing.T) {
	now := time.Date(2024, time.May, 15, 10, 0, 0, 0, time.UTC)
	spy := &rejectionSpy{}
	router := newGateRouter(GateOptions{GateConfig: gateConfig(), Production: true, Metrics: spy, Now: func() time.Time { return now }})

	for i := 0; i < 3; i++ {
		w := serve(router, "/console", func(r *http.Request) { r.SetBasicAuth("admin", "guess") })
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := serve(router, "/console", func(r *http.Request) { r.SetBasicAuth("admin", "guess") })
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = serve(router, "/console", func(r *http.Request) { r.SetBasicAuth("admin", "s3cret") })
	assert.Equal(t, http.StatusOK, w.Code)

	now = now.Add(2 * time.Second)
	w = serve(router, "/console", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	assert.Equal(t, []string{"invalid_credentials", "invalid_credentials", "invalid_credentials", "rate_limited", "missing_credentials"}, spy.reasons)
}
