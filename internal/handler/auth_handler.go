package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/office-admin/internal/middleware"
	"github.com/noah-isme/office-admin/internal/models"
	"github.com/noah-isme/office-admin/internal/session"
	"github.com/noah-isme/office-admin/internal/view"
	appErrors "github.com/noah-isme/office-admin/pkg/errors"
	"github.com/noah-isme/office-admin/pkg/response"
)

type sessionManager interface {
	Login(ctx context.Context, email, password string) (*session.Entry, error)
	Resume(ctx context.Context, token string) (*session.Entry, error)
	Logout(ctx context.Context, token string) error
}

// AuthHandler signs browsers in and out.
type AuthHandler struct {
	*Console
	sessions sessionManager
	limiter  *middleware.RateLimiter
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(console *Console, sessions sessionManager, limiter *middleware.RateLimiter) *AuthHandler {
	return &AuthHandler{Console: console, sessions: sessions, limiter: limiter}
}

// LoginPage shows the sign-in form, or the dashboard when the cookie still
// holds a live session.
func (h *AuthHandler) LoginPage(c *gin.Context) {
	if token := h.cookie.Token(c); token != "" {
		if _, err := h.sessions.Resume(c.Request.Context(), token); err == nil {
			h.redirect(c, "/")
			return
		}
		h.cookie.Clear(c)
	}
	h.view.HTML(c, http.StatusOK, view.PageLogin, h.layout(nil, "ورود", "", view.LoginPage{}))
}

// Login exchanges the submitted credentials for a session cookie. Form posts
// and JSON bodies are both accepted.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if strings.HasPrefix(c.ContentType(), gin.MIMEJSON) {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
			return
		}
	} else {
		req.Email = c.PostForm("email")
		req.Password = c.PostForm("password")
	}

	if !h.limiter.Allow(c.ClientIP()) {
		h.loginFailed(c, req.Email, appErrors.ErrTooManyRequests)
		return
	}

	entry, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Info("console login failed", zap.String("ip", c.ClientIP()), zap.Error(err))
		h.loginFailed(c, req.Email, err)
		return
	}
	if err := h.cookie.Set(c, entry.Session.Token()); err != nil {
		response.Error(c, err)
		return
	}

	if response.WantsJSON(c) || strings.HasPrefix(c.ContentType(), gin.MIMEJSON) {
		id, _ := entry.Session.Identity()
		response.JSON(c, http.StatusOK, id)
		return
	}
	h.redirect(c, "/")
}

func (h *AuthHandler) loginFailed(c *gin.Context, email string, err error) {
	if response.WantsJSON(c) || strings.HasPrefix(c.ContentType(), gin.MIMEJSON) {
		response.Error(c, err)
		return
	}
	appErr := appErrors.FromError(err)
	h.view.HTML(c, appErr.Status, view.PageLogin, h.layout(nil, "ورود", "", view.LoginPage{Email: email, Error: appErr.Message}))
}

// Logout ends the session whatever the API answers.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Request.Context(), h.cookie.Token(c)); err != nil {
		h.logger.Info("server logout failed", zap.Error(err))
	}
	h.cookie.Clear(c)
	if response.WantsJSON(c) {
		response.NoContent(c)
		return
	}
	h.redirect(c, middleware.LoginPath)
}
