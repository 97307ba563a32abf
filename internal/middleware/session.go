package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/office-admin/internal/session"
	appErrors "github.com/noah-isme/office-admin/pkg/errors"
	"github.com/noah-isme/office-admin/pkg/response"
)

// ContextSessionKey is the gin context key holding the *session.Entry.
const ContextSessionKey = "consoleSession"

// LoginPath is where unauthenticated browsers are sent.
const LoginPath = "/login"

type sessionResumer interface {
	Resume(ctx context.Context, token string) (*session.Entry, error)
}

// Cookie describes the session cookie.
type Cookie struct {
	Name   string
	Secure bool
	MaxAge int
	Codec  *session.Codec
}

// Set seals token into the cookie.
func (ck Cookie) Set(c *gin.Context, token string) error {
	value, err := ck.Codec.Seal(token)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(ck.Name, value, ck.MaxAge, "/", "", ck.Secure, true)
	return nil
}

// Clear expires the cookie.
func (ck Cookie) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(ck.Name, "", -1, "/", "", ck.Secure, true)
}

// Token returns the credential in the request cookie, or "".
func (ck Cookie) Token(c *gin.Context) string {
	value, err := c.Cookie(ck.Name)
	if err != nil || value == "" {
		return ""
	}
	token, err := ck.Codec.Open(value)
	if err != nil {
		return ""
	}
	return token
}

// RequireSession resumes the session named by the cookie. Browsers without
// one are redirected to the login page; JSON callers get 401.
func RequireSession(manager sessionResumer, cookie Cookie, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		token := cookie.Token(c)
		entry, err := manager.Resume(c.Request.Context(), token)
		if err != nil {
			if token != "" {
				logger.Info("session not resumed", zap.Error(err))
				cookie.Clear(c)
			}
			Unauthenticated(c, err)
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		if id, ok := entry.Session.Identity(); ok {
			ctx = session.WithIdentity(ctx, id)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Set(ContextSessionKey, entry)
		c.Next()

		if !entry.Session.Authenticated() && !c.Writer.Written() {
			cookie.Clear(c)
			Unauthenticated(c, appErrors.ErrUnauthorized)
		}
	}
}

// Unauthenticated answers a request that needs a session it does not have.
func Unauthenticated(c *gin.Context, err error) {
	if response.WantsJSON(c) {
		if !errors.Is(err, appErrors.ErrUnauthorized) {
			err = appErrors.ErrNotAuthenticated
		}
		response.Error(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, LoginPath)
}

// SessionFrom returns the entry stored by RequireSession.
func SessionFrom(c *gin.Context) (*session.Entry, bool) {
	value, ok := c.Get(ContextSessionKey)
	if !ok {
		return nil, false
	}
	entry, ok := value.(*session.Entry)
	return entry, ok
}
