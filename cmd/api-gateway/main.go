package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "github.com/noah-isme/admin-console/api/swagger"
	"github.com/noah-isme/admin-console/internal/handler"
	"github.com/noah-isme/admin-console/internal/repository"
	"github.com/noah-isme/admin-console/internal/server"
	"github.com/noah-isme/admin-console/internal/service"
	"github.com/noah-isme/admin-console/pkg/cache"
	"github.com/noah-isme/admin-console/pkg/config"
	"github.com/noah-isme/admin-console/pkg/database"
	"github.com/noah-isme/admin-console/pkg/listclient"
	"github.com/noah-isme/admin-console/pkg/logger"
)

// @title Admin Console Gateway
// @version 1.0.0
// @description Filtered, paginated list sync for the admin dashboard.
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("gateway stopped with error", zap.Error(err))
	}
	logr.Info("gateway stopped")
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	checks := map[string]handler.ReadinessCheck{}

	var redisClient *redis.Client
	if cfg.LiveCount.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()
		redisClient = client
		checks["redis"] = func(ctx context.Context) error { return cache.Ping(ctx, client) }
	}

	var db *sqlx.DB
	if cfg.Audit.Enabled {
		conn, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer conn.Close()
		db = conn
		checks["postgres"] = conn.PingContext
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	client := listclient.New(listclient.Config{
		BaseURL: cfg.Remote.BaseURL,
		Token:   cfg.Remote.Token,
		Timeout: cfg.Remote.Timeout,
		Logger:  logr.Named("listclient"),
	})
	catalog := service.DefaultCatalog(client)

	var live *service.LiveCountService
	if redisClient != nil {
		repo := repository.NewLiveCountRepository(redisClient, cfg.LiveCount.Channel, logr)
		live = service.NewLiveCountService(repo, metrics, logr)
	} else {
		live = service.NewLiveCountService(nil, metrics, logr)
	}

	var audit *service.AuditService
	if db != nil {
		audit = service.NewAuditService(repository.NewAuditRepository(db), cfg.Audit.Workers, logr)
		audit.Start(ctx)
		defer func() {
			audit.Stop()
			stats := audit.Stats()
			logr.Info("audit queue stopped",
				zap.Uint64("processed", stats.Processed),
				zap.Uint64("failed", stats.Failed),
				zap.Uint64("dropped", stats.Dropped),
			)
		}()
	}

	tokens := service.NewTokenService(service.TokenConfig{
		Secret: cfg.Session.Secret,
		Issuer: cfg.Session.Issuer,
		TTL:    cfg.Session.TTL,
	})
	sessionCfg := service.SessionConfig{
		TTL:            cfg.Session.TTL,
		MaxSessions:    cfg.Session.MaxCount,
		PerPage:        cfg.List.PerPage,
		SearchDebounce: cfg.List.SearchDebounce,
		RequestTimeout: cfg.Remote.Timeout,
		Location:       cfg.Location(),
	}
	var sessions *service.SessionService
	if audit != nil {
		sessions = service.NewSessionService(catalog, tokens, live, audit, metrics, validate, logr, sessionCfg)
	} else {
		sessions = service.NewSessionService(catalog, tokens, live, nil, metrics, validate, logr, sessionCfg)
	}
	defer sessions.Shutdown()

	router := server.NewRouter(server.Dependencies{
		Config:    cfg,
		Logger:    logr,
		Metrics:   metrics,
		Sessions:  sessions,
		Catalog:   catalog,
		Exports:   service.NewExportService(logr, nil, nil),
		LiveCount: live,
		Audit:     audit,
		Checks:    checks,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Event streams end with the process context.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return sessions.RunJanitor(gctx, cfg.Session.Janitor)
	})
	if redisClient != nil {
		g.Go(func() error {
			return live.Run(gctx)
		})
	}
	return g.Wait()
}
