package middleware

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/noah-isme/admin-console/pkg/config"
	appErrors "github.com/noah-isme/admin-console/pkg/errors"
	"github.com/noah-isme/admin-console/pkg/logger"
	"github.com/noah-isme/admin-console/pkg/response"
)

const (
	defaultRealm      = "Secure Area"
	visitorIdleExpiry = 5 * time.Minute
)

type gateMetrics interface {
	ObserveGateRejection(reason string)
}

// GateOptions configures the access gate.
type GateOptions struct {
	config.GateConfig
	Production bool
	Logger     *zap.Logger
	Metrics    gateMetrics
	Now        func() time.Time
}

// Gate demands HTTP basic credentials in production. Health-check probes
// and excluded path prefixes pass untouched. Repeated failures from one
// client IP are answered with 429.
func Gate(opts GateOptions) gin.HandlerFunc {
	if !opts.Production {
		return func(c *gin.Context) { c.Next() }
	}
	if opts.Realm == "" {
		opts.Realm = defaultRealm
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	limiter := newVisitorLimiter(opts.RatePerSecond, opts.RateBurst, opts.Now)
	challenge := fmt.Sprintf("Basic realm=%q", opts.Realm)

	return func(c *gin.Context) {
		if bypassGate(c.Request, opts.GateConfig) {
			c.Next()
			return
		}

		username, password, ok := c.Request.BasicAuth()
		if ok && credentialsMatch(opts.GateConfig, username, password) {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if !limiter.allow(ip) {
			observeRejection(opts.Metrics, "rate_limited")
			opts.Logger.Warn("gate rate limit exceeded", zap.String("ip", ip), zap.String("client", logger.Client(c.Request.UserAgent())))
			response.Error(c, appErrors.ErrTooManyRequests)
			c.Abort()
			return
		}

		reason := "missing_credentials"
		if ok {
			reason = "invalid_credentials"
		}
		observeRejection(opts.Metrics, reason)
		opts.Logger.Info("gate rejected request", zap.String("reason", reason), zap.String("path", c.Request.URL.Path), zap.String("ip", ip))
		c.Header("WWW-Authenticate", challenge)
		c.AbortWithStatus(http.StatusUnauthorized)
	}
}

func bypassGate(r *http.Request, cfg config.GateConfig) bool {
	if cfg.HealthCheckMarker != "" && strings.Contains(r.UserAgent(), cfg.HealthCheckMarker) {
		return true
	}
	for _, prefix := range cfg.ExcludedPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// credentialsMatch compares against the configured pair. A password value
// starting with "$2" is treated as a bcrypt hash.
func credentialsMatch(cfg config.GateConfig, username, password string) bool {
	if cfg.Username == "" || cfg.Password == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(cfg.Username)) == 1
	var passOK bool
	if strings.HasPrefix(cfg.Password, "$2") {
		passOK = bcrypt.CompareHashAndPassword([]byte(cfg.Password), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(cfg.Password)) == 1
	}
	return userOK && passOK
}

func observeRejection(m gateMetrics, reason string) {
	if m != nil {
		m.ObserveGateRejection(reason)
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// visitorLimiter tracks failed gate attempts per client IP.
type visitorLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

func newVisitorLimiter(perSecond float64, burst int, now func() time.Time) *visitorLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &visitorLimiter{limit: limit, burst: burst, now: now, visitors: make(map[string]*visitor), lastSweep: now()}
}

func (l *visitorLimiter) allow(ip string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > time.Minute {
		for key, v := range l.visitors {
			if now.Sub(v.lastSeen) > visitorIdleExpiry {
				delete(l.visitors, key)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}
