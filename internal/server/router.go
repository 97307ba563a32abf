// Package server assembles the console router and runs it.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/office-admin/internal/apiclient"
	"github.com/noah-isme/office-admin/internal/entities"
	"github.com/noah-isme/office-admin/internal/handler"
	"github.com/noah-isme/office-admin/internal/middleware"
	"github.com/noah-isme/office-admin/internal/session"
	"github.com/noah-isme/office-admin/pkg/logger"
	corsmiddleware "github.com/noah-isme/office-admin/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/office-admin/pkg/middleware/requestid"
)

type resumer interface {
	Resume(ctx context.Context, token string) (*session.Entry, error)
}

// Handlers are the page handlers mounted by NewRouter.
type Handlers struct {
	Auth      *handler.AuthHandler
	Dashboard *handler.DashboardHandler
	Entities  *handler.EntityHandler
	Admin     *handler.AdminHandler
	Metrics   *handler.MetricsHandler
}

// RouterOptions configures NewRouter.
type RouterOptions struct {
	Sessions       resumer
	Cookie         middleware.Cookie
	AllowedOrigins []string
	// RequestMetrics is nil when metrics are disabled.
	RequestMetrics interface {
		ObserveHTTPRequest(method, path string, status int, duration time.Duration)
	}
	Logger *zap.Logger
}

// NewRouter mounts every console route.
func NewRouter(h Handlers, opts RouterOptions) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	if opts.RequestMetrics != nil {
		r.Use(middleware.Metrics(opts.RequestMetrics))
	}

	if h.Metrics != nil {
		r.GET("/health", h.Metrics.Health)
		r.GET("/ready", h.Metrics.Ready)
		r.GET("/metrics", h.Metrics.Prometheus)
	}

	r.GET(middleware.LoginPath, h.Auth.LoginPage)
	r.POST(middleware.LoginPath, h.Auth.Login)
	r.POST("/logout", h.Auth.Logout)

	console := r.Group("/", middleware.RequireSession(opts.Sessions, opts.Cookie, log))
	console.GET("/", h.Dashboard.Show)
	for _, key := range entities.CollectionKeys {
		mountCollection(console, h.Entities, key)
	}
	console.POST("/"+apiclient.CollectionUsers+"/:id/toggle-active", h.Admin.ToggleActive)
	console.GET("/admin/audit", h.Admin.Audit)

	return r
}

func mountCollection(g *gin.RouterGroup, h *handler.EntityHandler, key string) {
	base := "/" + key
	g.GET(base, h.List(key))
	g.POST(base, h.Create(key))
	g.POST(base+"/:id", h.Update(key))
	g.GET(base+"/:id/delete", h.ConfirmDelete(key))
	g.POST(base+"/:id/delete", h.Delete(key))
	for _, ext := range h.Formats() {
		g.GET(base+"/export."+ext, h.Export(key, ext))
	}
}

// Run serves handler on addr until ctx is cancelled, then drains in-flight
// requests for up to grace.
func Run(ctx context.Context, addr string, handler http.Handler, grace time.Duration, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Info("server starting", zap.String("addr", addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	log.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
