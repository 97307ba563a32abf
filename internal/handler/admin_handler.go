package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/office-admin/internal/apiclient"
	"github.com/noah-isme/office-admin/internal/models"
	appErrors "github.com/noah-isme/office-admin/pkg/errors"
	"github.com/noah-isme/office-admin/pkg/response"
)

type auditReader interface {
	Recent(ctx context.Context, collection string, limit int) ([]models.AuditEntry, error)
}

const defaultAuditLimit = 50

// AdminHandler serves the account actions that sit outside the generic
// record pattern.
type AdminHandler struct {
	*Console
	audit auditReader
}

// NewAdminHandler constructs the handler. audit may be nil when the trail is
// disabled.
func NewAdminHandler(console *Console, audit auditReader) *AdminHandler {
	return &AdminHandler{Console: console, audit: audit}
}

// ToggleActive flips is_active of user :id.
func (h *AdminHandler) ToggleActive(c *gin.Context) {
	entry, err := currentSession(c)
	if err != nil {
		h.fail(c, nil, err)
		return
	}
	id, err := recordID(c)
	if err != nil {
		h.fail(c, entry, err)
		return
	}
	notices, err := entry.Entities.ToggleActive(c.Request.Context(), entry.Env(), id)
	if err != nil && (rejected(entry, err) || response.WantsJSON(c)) {
		h.fail(c, entry, err)
		return
	}
	if response.WantsJSON(c) {
		response.JSON(c, http.StatusOK, gin.H{"id": id})
		return
	}
	entry.Flash.Push(notices...)
	h.redirect(c, "/"+apiclient.CollectionUsers)
}

// Audit lists recorded mutations, newest first. ?collection narrows the list
// and ?limit bounds it.
func (h *AdminHandler) Audit(c *gin.Context) {
	entry, err := currentSession(c)
	if err != nil {
		h.fail(c, nil, err)
		return
	}
	if h.audit == nil {
		h.fail(c, entry, appErrors.Clone(appErrors.ErrNotFound, "audit trail disabled"))
		return
	}
	limit := defaultAuditLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.fail(c, entry, appErrors.Clone(appErrors.ErrValidation, "limit must be a positive number"))
			return
		}
		limit = n
	}
	entries, err := h.audit.Recent(c.Request.Context(), c.Query("collection"), limit)
	if err != nil {
		h.fail(c, entry, err)
		return
	}
	response.List(c, entries, len(entries), "")
}
