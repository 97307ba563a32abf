// Package view renders the console pages from embedded templates. Every page
// is parsed together with layout.html, which carries the right-to-left chrome.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/office-admin/internal/entities"
	"github.com/noah-isme/office-admin/internal/models"
	"github.com/noah-isme/office-admin/internal/records"
)

//go:embed templates/*.html
var files embed.FS

// Page names.
const (
	PageLogin     = "login"
	PageDashboard = "dashboard"
	PageList      = "list"
	PageConfirm   = "confirm"
	PageError     = "error"
)

var pages = []string{PageLogin, PageDashboard, PageList, PageConfirm, PageError}

// NavItem is one sidebar or tab link.
type NavItem struct {
	Title  string
	Href   string
	Active bool
}

// Layout is what every page shares.
type Layout struct {
	Title   string
	User    string
	Nav     []NavItem
	Notices []records.Notice
	Content interface{}
}

// LoginPage is the sign-in form.
type LoginPage struct {
	Email string
	Error string
}

// DashboardPage shows counters and recent projects.
type DashboardPage struct {
	models.Dashboard
	Metrics *models.SystemMetrics
}

// ListPage is one collection screen with its optional modal form.
type ListPage struct {
	Listing  entities.Listing
	Base     string
	Editable bool
	Form     *entities.FormView
	Tabs     []NavItem
}

// ConfirmPage asks before deleting.
type ConfirmPage struct {
	Prompt string
	Action string
	Cancel string
}

// ErrorPage is shown when nothing better can be rendered.
type ErrorPage struct {
	Status  int
	Message string
}

// Renderer executes parsed pages.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses every embedded page.
func New() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		tpl, err := template.New(name).Funcs(funcs).ParseFS(files, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = tpl
	}
	return r, nil
}

// Render writes page into a buffer first so a failing template never sends
// half a document.
func (r *Renderer) Render(page string, data Layout) ([]byte, error) {
	tpl, ok := r.pages[page]
	if !ok {
		return nil, fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// HTML renders page as the response.
func (r *Renderer) HTML(c *gin.Context, status int, page string, data Layout) {
	body, err := r.Render(page, data)
	if err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "render failed")
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(status, "text/html; charset=utf-8", body)
}

var funcs = template.FuncMap{
	"noticeClass": func(level records.Level) string {
		switch level {
		case records.LevelSuccess:
			return "notice notice-success"
		case records.LevelError:
			return "notice notice-error"
		default:
			return "notice"
		}
	},
	"inputType": func(kind records.Kind) string {
		switch kind {
		case records.KindNumber:
			return "number"
		case records.KindDate:
			return "date"
		case records.KindTime:
			return "time"
		case records.KindURL:
			return "url"
		default:
			return "text"
		}
	},
	"isKind": func(kind records.Kind, name string) bool { return string(kind) == name },
	"id":     func(id int64) string { return strconv.FormatInt(id, 10) },
	"hasAction": func(actions []records.Action, name string) bool {
		for _, a := range actions {
			if string(a) == name {
				return true
			}
		}
		return false
	},
}
