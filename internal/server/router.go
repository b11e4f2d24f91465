package server

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/admin-console/internal/handler"
	"github.com/noah-isme/admin-console/internal/middleware"
	"github.com/noah-isme/admin-console/internal/service"
	"github.com/noah-isme/admin-console/pkg/config"
	"github.com/noah-isme/admin-console/pkg/logger"
	corsmiddleware "github.com/noah-isme/admin-console/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/admin-console/pkg/middleware/requestid"
)

// Dependencies collects everything the router mounts.
type Dependencies struct {
	Config    *config.Config
	Logger    *zap.Logger
	Metrics   *service.MetricsService
	Sessions  *service.SessionService
	Catalog   *service.ScreenCatalog
	Exports   *service.ExportService
	LiveCount *service.LiveCountService
	// Audit is nil when the audit trail is disabled.
	Audit  *service.AuditService
	Checks map[string]handler.ReadinessCheck
}

// NewRouter builds the gateway engine.
func NewRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.SecureHeaders(cfg.IsProduction()))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Gate(middleware.GateOptions{
		GateConfig: cfg.Gate,
		Production: cfg.IsProduction(),
		Logger:     deps.Logger,
		Metrics:    deps.Metrics,
	}))

	metricsHandler := handler.NewMetricsHandler(deps.Metrics, deps.Sessions, deps.Checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if !cfg.IsProduction() {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	sessionHandler := handler.NewSessionHandler(deps.Sessions, nil)
	if deps.Audit != nil {
		sessionHandler = handler.NewSessionHandler(deps.Sessions, deps.Audit)
	}
	screenHandler := handler.NewScreenHandler(deps.Sessions, deps.Exports, deps.Catalog, nil, deps.Logger)
	liveHandler := handler.NewLiveCountHandler(deps.LiveCount, nil)

	console := r.Group("/console")
	console.Use(middleware.WithResponseMeta())
	console.POST("/sessions", sessionHandler.Open)

	secured := console.Group("")
	secured.Use(middleware.Session(deps.Sessions))
	secured.GET("/sessions/current", sessionHandler.Current)
	secured.GET("/sessions/current/audit", sessionHandler.Audit)
	secured.DELETE("/sessions", sessionHandler.Close)
	secured.GET("/metrics", metricsHandler.Summary)
	secured.GET("/live-count", liveHandler.Get)
	secured.POST("/live-count", liveHandler.Publish)

	screens := secured.Group("/screens")
	screens.GET("", screenHandler.List)
	screens.GET("/:screen", screenHandler.Snapshot)
	screens.POST("/:screen/mount", screenHandler.Mount)
	screens.POST("/:screen/filters/status", screenHandler.ApplyStatus)
	screens.POST("/:screen/filters/date-range", screenHandler.ApplyDateRange)
	screens.POST("/:screen/filters/role", screenHandler.ApplyRole)
	screens.DELETE("/:screen/filters", screenHandler.ClearFilters)
	screens.POST("/:screen/search", screenHandler.Search)
	screens.POST("/:screen/search/input", screenHandler.SearchInput)
	screens.POST("/:screen/sentinel", screenHandler.Sentinel)
	screens.POST("/:screen/more", screenHandler.LoadMore)
	screens.GET("/:screen/events", screenHandler.Events)
	screens.GET("/:screen/export", screenHandler.Export)

	return r
}
