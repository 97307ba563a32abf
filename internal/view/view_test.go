package view

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/office-admin/internal/entities"
	"github.com/noah-isme/office-admin/internal/models"
	"github.com/noah-isme/office-admin/internal/records"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New()
	require.NoError(t, err)
	return r
}

func TestLayoutIsRightToLeft(t *testing.T) {
	body, err := newRenderer(t).Render(PageLogin, Layout{Title: "ورود", Content: LoginPage{Email: "a@b.c", Error: "Invalid credentials"}})
	require.NoError(t, err)
	html := string(body)
	assert.Contains(t, html, `dir="rtl"`)
	assert.Contains(t, html, `value="a@b.c"`)
	assert.Contains(t, html, "Invalid credentials")
	assert.NotContains(t, html, `class="sidebar"`)
}

func TestListRendersRowsActionsAndNotices(t *testing.T) {
	page := ListPage{
		Base:     "/tasks",
		Editable: true,
		Listing: entities.Listing{
			Key: "tasks",
			View: records.View{
				Headers:    []string{"Description", "Assignor"},
				HasActions: true,
				Rows: []records.Row{
					{ID: 7, Cells: []string{"Review drawings", "Unknown"}, Actions: []records.Action{records.ActionEdit, records.ActionDelete}},
				},
			},
			Total: 1,
			Shown: 1,
		},
	}
	body, err := newRenderer(t).Render(PageList, Layout{
		Title:   "Tasks",
		Nav:     []NavItem{{Title: "Tasks", Href: "/tasks", Active: true}},
		Notices: []records.Notice{records.Success("وظیفه با موفقیت حذف شد")},
		Content: page,
	})
	require.NoError(t, err)
	html := string(body)
	assert.Contains(t, html, "<th>Assignor</th>")
	assert.Contains(t, html, "<td>Unknown</td>")
	assert.Contains(t, html, `href="/tasks/7/delete"`)
	assert.Contains(t, html, `href="/tasks?edit=7"`)
	assert.Contains(t, html, "notice-success")
	assert.Contains(t, html, `class="active"`)
}

func TestListLoadingShowsPlaceholderOnly(t *testing.T) {
	page := ListPage{Base: "/staffs", Listing: entities.Listing{View: records.View{
		Headers:     []string{"Name"},
		Loading:     true,
		Placeholder: records.LoadingPlaceholder,
		Rows:        []records.Row{{ID: 1, Cells: []string{"Ali"}}},
	}}}
	body, err := newRenderer(t).Render(PageList, Layout{Title: "Staff", Content: page})
	require.NoError(t, err)
	assert.Contains(t, string(body), records.LoadingPlaceholder)
	assert.NotContains(t, string(body), "<td>Ali</td>")
}

func TestListRendersOpenForm(t *testing.T) {
	form := &entities.FormView{
		Key:      "tasks",
		Mode:     records.ModeEdit,
		RecordID: 4,
		Open:     true,
		Fields: []entities.FieldView{
			{Field: records.Field{Name: "body", Label: "شرح وظیفه", Kind: records.KindTextarea}, Value: "short", Error: "متن وظیفه باید حداقل ۱۰ کاراکتر باشد"},
			{Field: records.Field{Name: "assignor", Label: "تخصیص دهنده", Kind: records.KindReference}, Value: "2",
				Options: []records.Option{{Value: "1", Label: "Ali Rezai"}, {Value: "2", Label: "Sara Ahmadi"}}},
			{Field: records.Field{Name: "ded_line", Label: "ددلاین", Kind: records.KindDate}, Value: "2024-05-01"},
		},
	}
	body, err := newRenderer(t).Render(PageList, Layout{Title: "Tasks", Content: ListPage{Base: "/tasks", Editable: true, Form: form}})
	require.NoError(t, err)
	html := string(body)
	assert.Contains(t, html, `action="/tasks/4"`)
	assert.Contains(t, html, `<option value="2" selected>Sara Ahmadi</option>`)
	assert.Contains(t, html, `type="date" value="2024-05-01"`)
	assert.Contains(t, html, "متن وظیفه باید حداقل ۱۰ کاراکتر باشد")
}

func TestDashboardAndConfirm(t *testing.T) {
	r := newRenderer(t)
	body, err := r.Render(PageDashboard, Layout{Title: "Dashboard", Content: DashboardPage{Dashboard: models.Dashboard{
		Stats:          models.DashboardStats{Staff: 2, CompletionRate: 33},
		RecentProjects: []models.Project{{ID: 1, ProjectName: "Tower", Employer: "City"}},
	}}})
	require.NoError(t, err)
	assert.Contains(t, string(body), "Completion Rate: 33%")
	assert.Contains(t, string(body), "Tower")

	body, err = r.Render(PageConfirm, Layout{Title: "Tasks", Content: ConfirmPage{
		Prompt: "Are you sure you want to delete this task?", Action: "/tasks/7/delete", Cancel: "/tasks",
	}})
	require.NoError(t, err)
	assert.Contains(t, string(body), `action="/tasks/7/delete"`)
}

func TestHTMLWritesResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	newRenderer(t).HTML(c, http.StatusNotFound, PageError, Layout{Title: "Error", Content: ErrorPage{Status: 404, Message: "resource not found"}})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "resource not found")
}

func TestUnknownPage(t *testing.T) {
	_, err := newRenderer(t).Render("missing", Layout{})
	assert.Error(t, err)
}
