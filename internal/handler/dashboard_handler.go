package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/office-admin/internal/entities"
	"github.com/noah-isme/office-admin/internal/models"
	"github.com/noah-isme/office-admin/internal/records"
	"github.com/noah-isme/office-admin/internal/view"
	appErrors "github.com/noah-isme/office-admin/pkg/errors"
	"github.com/noah-isme/office-admin/pkg/response"
)

type dashboardService interface {
	Build(ctx context.Context, set *entities.Set, env records.Env) models.Dashboard
}

type metricsSnapshotter interface {
	Snapshot() models.SystemMetrics
}

// DashboardHandler renders the landing page.
type DashboardHandler struct {
	*Console
	service dashboardService
	metrics metricsSnapshotter
}

// NewDashboardHandler constructs the handler. metrics may be nil.
func NewDashboardHandler(console *Console, service dashboardService, metrics metricsSnapshotter) *DashboardHandler {
	return &DashboardHandler{Console: console, service: service, metrics: metrics}
}

// Show renders counters of every collection.
func (h *DashboardHandler) Show(c *gin.Context) {
	entry, err := currentSession(c)
	if err != nil {
		h.fail(c, nil, err)
		return
	}
	start := time.Now()
	dash := h.service.Build(c.Request.Context(), entry.Entities, entry.Env())
	if !entry.Session.Authenticated() {
		h.fail(c, entry, appErrors.ErrUnauthorized)
		return
	}

	page := view.DashboardPage{Dashboard: dash}
	if h.metrics != nil && dash.Admin {
		snapshot := h.metrics.Snapshot()
		page.Metrics = &snapshot
	}
	if response.WantsJSON(c) {
		response.JSON(c, http.StatusOK, page, map[string]interface{}{"processing_time_ms": time.Since(start).Milliseconds()})
		return
	}
	h.view.HTML(c, http.StatusOK, view.PageDashboard, h.layout(entry, "Dashboard", "", page))
}
