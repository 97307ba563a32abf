package records

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/noah-isme/office-admin/internal/apiclient"
	"github.com/noah-isme/office-admin/internal/models"
	"github.com/noah-isme/office-admin/internal/querycache"
)

type apiCall struct {
	Method string
	Path   string
	Body   map[string]interface{}
}

type fakeAPI struct {
	mu    sync.Mutex
	calls []apiCall
}

func (f *fakeAPI) record(r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	call := apiCall{Method: r.Method, Path: r.URL.Path}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &call.Body)
	}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeAPI) Calls() []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]apiCall(nil), f.calls...)
}

// newFakeAPI records every request before handing it to handler.
func newFakeAPI(t *testing.T, handler http.HandlerFunc) (*fakeAPI, *apiclient.Client) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.record(r)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return api, apiclient.New(apiclient.Options{BaseURL: srv.URL})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type danglingCounter struct {
	mu    sync.Mutex
	count map[string]int
}

func (d *danglingCounter) RecordDanglingReference(collection string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.count == nil {
		d.count = map[string]int{}
	}
	d.count[collection]++
}

func countInvalidations(c *querycache.Client, key string) *int {
	n := 0
	c.Subscribe(key, func(ev querycache.Event) {
		if ev.Kind == querycache.EventInvalidated {
			n++
		}
	})
	return &n
}

func staffLabel(s models.Staff) string { return s.FullName() }

func taskDefinition() *Definition[models.Task] {
	return &Definition[models.Task]{
		Key:   "tasks",
		Title: "Tasks",
		Columns: func(env Env) []Column[models.Task] {
			staff := NewLookup(env, "staffs", staffLabel)
			return []Column[models.Task]{
				{Field: "body", Label: "Description"},
				RefColumn[models.Task]("assignor", "Assignor", staff),
				{Field: "state", Label: "Status"},
			}
		},
		Actions: []Action{ActionEdit, ActionDelete},
		Schema: Schema{
			{Name: "body", Kind: KindTextarea, Rules: []Rule{
				Required("متن وظیفه الزامی است"),
				MinLength(10, "متن وظیفه باید حداقل ۱۰ کاراکتر باشد"),
			}},
			{Name: "ded_line", Kind: KindDate, Rules: []Rule{Required("مهلت انجام الزامی است")}},
			{Name: "evaluation", Kind: KindText, Rules: []Rule{Required("ارزیابی الزامی است")}},
			{Name: "state", Kind: KindSelect, Default: models.TaskStateInProgress},
			{Name: "assignor", Kind: KindReference, Rules: []Rule{Required("تعیین کننده الزامی است"), Positive("تعیین کننده نامعتبر است")},
				Choices: RefChoices("staffs", staffLabel)},
			{Name: "assigned_to", Kind: KindReference, Rules: []Rule{Required("مسئول الزامی است"), Positive("مسئول نامعتبر است")}},
			{Name: "project", Kind: KindReference, Rules: []Rule{Required("پروژه الزامی است"), Positive("پروژه نامعتبر است")}},
			{Name: "end_date", Kind: KindDate, EditOnly: true},
		},
		Search:   func(t models.Task) []string { return []string{t.Body} },
		Messages: withDelete(NounMessages("وظیفه"), "Task deleted successfully", "Failed to delete task"),
	}
}

func withDelete(m Messages, ok, failed string) Messages {
	m.Deleted = ok
	m.DeleteFailed = failed
	m.ConfirmDelete = "Are you sure you want to delete this task?"
	return m
}
