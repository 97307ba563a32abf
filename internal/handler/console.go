package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/office-admin/internal/middleware"
	"github.com/noah-isme/office-admin/internal/records"
	"github.com/noah-isme/office-admin/internal/session"
	"github.com/noah-isme/office-admin/internal/view"
	appErrors "github.com/noah-isme/office-admin/pkg/errors"
	"github.com/noah-isme/office-admin/pkg/response"
)

const adminPrefix = "admin/"

// Console holds what every page handler needs to answer a browser.
type Console struct {
	view   *view.Renderer
	cookie middleware.Cookie
	logger *zap.Logger
}

// NewConsole constructs the shared page plumbing.
func NewConsole(renderer *view.Renderer, cookie middleware.Cookie, logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Console{view: renderer, cookie: cookie, logger: logger}
}

// layout assembles the chrome of a signed-in page and drains pending notices.
func (h *Console) layout(entry *session.Entry, title, active string, content interface{}, notices ...records.Notice) view.Layout {
	l := view.Layout{Title: title, Content: content}
	if entry == nil {
		l.Notices = notices
		return l
	}
	if id, ok := entry.Session.Identity(); ok {
		l.User = id.Subject
	}
	l.Nav = append(l.Nav, view.NavItem{Title: "Dashboard", Href: "/", Active: active == ""})
	adminShown := false
	for _, col := range entry.Entities.Collections() {
		if strings.HasPrefix(col.Key(), adminPrefix) {
			if !adminShown {
				l.Nav = append(l.Nav, view.NavItem{Title: "مدیریت", Href: "/admin/users", Active: strings.HasPrefix(active, adminPrefix)})
				adminShown = true
			}
			continue
		}
		l.Nav = append(l.Nav, view.NavItem{Title: col.Title(), Href: "/" + col.Key(), Active: active == col.Key()})
	}
	l.Notices = append(entry.Flash.Drain(), notices...)
	return l
}

// fail answers err. A rejected credential sends the browser back to login.
func (h *Console) fail(c *gin.Context, entry *session.Entry, err error) {
	if errors.Is(err, appErrors.ErrUnauthorized) || (entry != nil && !entry.Session.Authenticated()) {
		h.cookie.Clear(c)
		middleware.Unauthenticated(c, err)
		return
	}
	if response.WantsJSON(c) {
		response.Error(c, err)
		return
	}
	appErr := appErrors.FromError(err)
	h.view.HTML(c, appErr.Status, view.PageError, h.layout(entry, "Error", "", view.ErrorPage{Status: appErr.Status, Message: appErr.Message}))
}

func (h *Console) redirect(c *gin.Context, to string) {
	c.Redirect(http.StatusSeeOther, to)
}

func currentSession(c *gin.Context) (*session.Entry, error) {
	entry, ok := middleware.SessionFrom(c)
	if !ok {
		return nil, appErrors.ErrNotAuthenticated
	}
	return entry, nil
}
