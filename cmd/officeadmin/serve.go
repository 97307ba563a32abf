package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/office-admin/internal/apiclient"
	"github.com/noah-isme/office-admin/internal/handler"
	"github.com/noah-isme/office-admin/internal/middleware"
	"github.com/noah-isme/office-admin/internal/records"
	"github.com/noah-isme/office-admin/internal/repository"
	"github.com/noah-isme/office-admin/internal/server"
	"github.com/noah-isme/office-admin/internal/service"
	"github.com/noah-isme/office-admin/internal/session"
	"github.com/noah-isme/office-admin/internal/view"
	"github.com/noah-isme/office-admin/pkg/cache"
	"github.com/noah-isme/office-admin/pkg/config"
	"github.com/noah-isme/office-admin/pkg/database"
	"github.com/noah-isme/office-admin/pkg/export"
	"github.com/noah-isme/office-admin/pkg/jobs"
)

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web console",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a.cfg, a.logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}

	apiOpts := apiclient.Options{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout, Logger: logr}
	managerOpts := session.ManagerOptions{
		IdleTTL:   cfg.Session.IdleTTL,
		StaleTime: cfg.Cache.StaleTime,
		Validator: records.NewValidator(),
		Logger:    logr,
	}
	if metrics != nil {
		apiOpts.Metrics = metrics
		managerOpts.Cache = metrics
		managerOpts.Dangling = metrics
		managerOpts.Gauge = metrics
		managerOpts.Mutations = append(managerOpts.Mutations, metrics.ObserveMutation)
	}
	managerOpts.API = apiclient.New(apiOpts)

	checks := map[string]handler.Check{}

	var bus *repository.InvalidationBus
	if cfg.Cache.Backend == config.CacheBackendRedis {
		rdb, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()
		var snapshotMetrics repository.SnapshotMetrics
		if metrics != nil {
			snapshotMetrics = metrics
		}
		managerOpts.Store = repository.NewSnapshotRepository(rdb, cfg.Session.IdleTTL, snapshotMetrics, logr)
		bus = repository.NewInvalidationBus(rdb, logr)
		managerOpts.Publisher = bus
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	var audit *service.AuditService
	if cfg.Audit.Enabled {
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer db.Close()
		repo := repository.NewAuditRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("prepare audit table: %w", err)
		}
		var auditMetrics interface {
			ObserveAuditWrite(ok bool, duration time.Duration)
		}
		if metrics != nil {
			auditMetrics = metrics
		}
		audit = service.NewAuditService(repo, nil, auditMetrics, logr)
		queue := jobs.NewQueue("audit", audit.Handle, jobs.QueueConfig{
			Workers:    cfg.Audit.Workers,
			MaxRetries: 3,
			Logger:     logr,
		})
		audit.SetQueue(queue)
		queue.Start(ctx)
		defer queue.Stop()
		managerOpts.Mutations = append(managerOpts.Mutations, audit.Observe)
		checks["postgres"] = db.PingContext
	}

	manager := session.NewManager(managerOpts)
	go manager.Run(ctx, time.Minute)
	if bus != nil {
		go func() {
			if err := bus.Listen(ctx, manager.ApplyRemoteInvalidation); err != nil {
				logr.Warn("invalidation listener stopped", zap.Error(err))
			}
		}()
	}

	renderer, err := view.New()
	if err != nil {
		return err
	}
	codec, err := session.NewCodec(cfg.Session.Secret)
	if err != nil {
		return err
	}
	cookie := middleware.Cookie{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.CookieSecure,
		MaxAge: int(cfg.Session.IdleTTL.Seconds()),
		Codec:  codec,
	}

	console := handler.NewConsole(renderer, cookie, logr)
	handlers := server.Handlers{
		Auth:      handler.NewAuthHandler(console, manager, middleware.NewRateLimiter(cfg.Login.RateLimit, cfg.Login.RateBurst)),
		Dashboard: handler.NewDashboardHandler(console, service.NewDashboardService(logr), nil),
		Entities:  handler.NewEntityHandler(console, managerOpts.Validator, export.NewCSVExporter(), export.NewPDFExporter(cfg.Export.PDFFont)),
		Admin:     handler.NewAdminHandler(console, nil),
		Metrics:   handler.NewMetricsHandler(metrics, checks),
	}
	routerOpts := server.RouterOptions{
		Sessions:       manager,
		Cookie:         cookie,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         logr,
	}
	if metrics != nil {
		handlers.Dashboard = handler.NewDashboardHandler(console, service.NewDashboardService(logr), metrics)
		routerOpts.RequestMetrics = metrics
	}
	if audit != nil {
		handlers.Admin = handler.NewAdminHandler(console, audit)
	}

	logr.Info("console configured",
		zap.String("env", cfg.Env),
		zap.String("api", cfg.API.BaseURL),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.Bool("audit", audit != nil),
	)
	return server.Run(ctx, fmt.Sprintf(":%d", cfg.Port), server.NewRouter(handlers, routerOpts), 15*time.Second, logr)
}
