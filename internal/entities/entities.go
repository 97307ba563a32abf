// Package entities configures the generic record pattern for every
// collection the console manages.
package entities

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/office-admin/internal/apiclient"
	"github.com/noah-isme/office-admin/internal/models"
	"github.com/noah-isme/office-admin/internal/records"
	appErrors "github.com/noah-isme/office-admin/pkg/errors"
	"github.com/noah-isme/office-admin/pkg/export"
)

// CollectionKeys lists every collection in menu order.
var CollectionKeys = []string{
	apiclient.CollectionStaffs,
	apiclient.CollectionProjects,
	apiclient.CollectionTasks,
	apiclient.CollectionTimesheets,
	apiclient.CollectionMails,
	apiclient.CollectionMessages,
	apiclient.CollectionUsers,
	apiclient.CollectionGroups,
	apiclient.CollectionPermissions,
}

// Set binds every entity definition to one API client.
type Set struct {
	api *apiclient.Client

	Staff       *records.Definition[models.Staff]
	Projects    *records.Definition[models.Project]
	Tasks       *records.Definition[models.Task]
	Timesheets  *records.Definition[models.TimeSheet]
	Mails       *records.Definition[models.Mail]
	Messages    *records.Definition[models.Message]
	Users       *records.Definition[models.AdminUser]
	Groups      *records.Definition[models.AdminGroup]
	Permissions *records.Definition[models.AdminPermission]

	byKey map[string]Collection
	order []Collection
}

// NewSet builds the definitions for api.
func NewSet(api *apiclient.Client) *Set {
	s := &Set{
		api:         api,
		Staff:       staffDefinition(),
		Projects:    projectDefinition(),
		Tasks:       taskDefinition(api),
		Timesheets:  timesheetDefinition(api),
		Mails:       mailDefinition(api),
		Messages:    messageDefinition(api),
		Users:       userDefinition(),
		Groups:      groupDefinition(),
		Permissions: permissionDefinition(),
		byKey:       map[string]Collection{},
	}
	s.add(bind(s.Staff, apiclient.NewResource[models.Staff](api, apiclient.CollectionStaffs), true))
	s.add(bind(s.Projects, apiclient.NewResource[models.Project](api, apiclient.CollectionProjects), true))
	s.add(bind(s.Tasks, apiclient.NewResource[models.Task](api, apiclient.CollectionTasks), true))
	s.add(bind(s.Timesheets, apiclient.NewResource[models.TimeSheet](api, apiclient.CollectionTimesheets), true))
	s.add(bind(s.Mails, apiclient.NewResource[models.Mail](api, apiclient.CollectionMails), true))
	s.add(bind(s.Messages, apiclient.NewResource[models.Message](api, apiclient.CollectionMessages), true))
	s.add(bind(s.Users, apiclient.NewResource[models.AdminUser](api, apiclient.CollectionUsers), false))
	s.add(bind(s.Groups, apiclient.NewResource[models.AdminGroup](api, apiclient.CollectionGroups), false))
	s.add(bind(s.Permissions, apiclient.NewResource[models.AdminPermission](api, apiclient.CollectionPermissions), false))
	return s
}

func (s *Set) add(c Collection) {
	s.byKey[c.Key()] = c
	s.order = append(s.order, c)
}

// Collection returns the collection named key.
func (s *Set) Collection(key string) (Collection, bool) {
	c, ok := s.byKey[key]
	return c, ok
}

// Collections lists every collection in menu order.
func (s *Set) Collections() []Collection { return s.order }

// Keys lists every collection name in menu order.
func (s *Set) Keys() []string {
	keys := make([]string, len(s.order))
	for i, c := range s.order {
		keys[i] = c.Key()
	}
	return keys
}

// Listing is a type-erased render of one collection.
type Listing struct {
	Key    string
	Title  string
	Search string
	View   records.View
	Items  interface{}
	Total  int
	Shown  int
	Err    error
}

// FieldView is a form field with its current value, error and choices.
type FieldView struct {
	records.Field
	Value   string
	Error   string
	Options []records.Option
}

// FormView is a type-erased form.
type FormView struct {
	Key      string
	Mode     records.Mode
	RecordID int64
	Open     bool
	Fields   []FieldView
}

// Collection is the generic record pattern of one entity without its type
// parameter, for handlers and commands that pick the entity at run time.
type Collection interface {
	Key() string
	Title() string
	Editable() bool
	ConfirmPrompt() string
	Schema() records.Schema
	Load(ctx context.Context, env records.Env, search string) Listing
	Form(ctx context.Context, env records.Env, id int64) (*FormView, error)
	Submit(ctx context.Context, env records.Env, v *validator.Validate, id int64, values records.Values) (*FormView, []records.Notice, error)
	Delete(ctx context.Context, env records.Env, id int64) ([]records.Notice, error)
	Export(ctx context.Context, env records.Env, search string) (export.Dataset, error)
}

type collection[T models.Record] struct {
	def      *records.Definition[T]
	src      *apiclient.Resource[T]
	editable bool
}

func bind[T models.Record](def *records.Definition[T], src *apiclient.Resource[T], editable bool) Collection {
	return &collection[T]{def: def, src: src, editable: editable}
}

func (c *collection[T]) Key() string            { return c.def.Key }
func (c *collection[T]) Title() string          { return c.def.Title }
func (c *collection[T]) Editable() bool         { return c.editable }
func (c *collection[T]) ConfirmPrompt() string  { return c.def.Messages.ConfirmDelete }
func (c *collection[T]) Schema() records.Schema { return c.def.Schema }

func (c *collection[T]) Load(ctx context.Context, env records.Env, search string) Listing {
	page := records.NewPage(c.def)
	page.SearchText = search
	l := page.Load(ctx, env, c.src)
	return Listing{
		Key:    c.def.Key,
		Title:  c.def.Title,
		Search: search,
		View:   l.View,
		Items:  nonNil(l.Records),
		Total:  len(l.All),
		Shown:  len(l.Records),
		Err:    l.Err,
	}
}

// Form opens a create form when id is zero and an edit form otherwise.
// Reference collections are read first so selectors are filled.
func (c *collection[T]) Form(ctx context.Context, env records.Env, id int64) (*FormView, error) {
	if !c.editable {
		return nil, appErrors.ErrForbidden
	}
	c.loadRefs(ctx, env)
	page := records.NewPage(c.def)
	if id == 0 {
		page.OpenCreate()
	} else {
		record, err := c.record(ctx, env, id)
		if err != nil {
			return nil, err
		}
		page.OpenEdit(record)
	}
	return c.view(env, page.Form()), nil
}

func (c *collection[T]) Submit(ctx context.Context, env records.Env, v *validator.Validate, id int64, values records.Values) (*FormView, []records.Notice, error) {
	if !c.editable {
		return nil, nil, appErrors.ErrForbidden
	}
	var form *records.Form[T]
	if id == 0 {
		form = records.NewCreateForm(c.def)
	} else {
		record, err := c.record(ctx, env, id)
		if err != nil {
			return nil, nil, err
		}
		form = records.NewEditForm(c.def, record)
	}
	notices, err := form.Submit(ctx, env, v, c.src, values)
	if err != nil {
		c.loadRefs(ctx, env)
	}
	return c.view(env, form), notices, err
}

func (c *collection[T]) Delete(ctx context.Context, env records.Env, id int64) ([]records.Notice, error) {
	if !c.deletable() {
		return nil, appErrors.ErrForbidden
	}
	record, err := c.record(ctx, env, id)
	if err != nil {
		return []records.Notice{records.ErrorNotice(err), records.Failure(c.def.Messages.DeleteFailed)}, err
	}
	return records.NewPage(c.def).Delete(ctx, env, c.src, record, records.Confirmed)
}

func (c *collection[T]) Export(ctx context.Context, env records.Env, search string) (export.Dataset, error) {
	l := c.Load(ctx, env, search)
	if l.Err != nil && l.Total == 0 {
		return export.Dataset{}, l.Err
	}
	headers, rows := l.View.Plain()
	return export.Dataset{Title: c.def.Title, Headers: headers, Rows: rows}, nil
}

// record prefers the cached copy and falls back to the API.
func (c *collection[T]) record(ctx context.Context, env records.Env, id int64) (T, error) {
	if record, ok := records.NewPage(c.def).Find(env, id); ok {
		return record, nil
	}
	return c.src.Get(ctx, id)
}

func (c *collection[T]) deletable() bool {
	for _, a := range c.def.Actions {
		if a == records.ActionDelete {
			return true
		}
	}
	return false
}

func (c *collection[T]) loadRefs(ctx context.Context, env records.Env) {
	for _, ref := range c.def.Refs {
		if ref.Load != nil {
			_ = ref.Load(ctx, env.Cache)
		}
	}
}

func (c *collection[T]) view(env records.Env, form *records.Form[T]) *FormView {
	fv := &FormView{Key: c.def.Key, Mode: form.Mode, RecordID: form.RecordID, Open: form.Open}
	for _, field := range form.Schema() {
		fv.Fields = append(fv.Fields, FieldView{
			Field:   field,
			Value:   form.Values[field.Name],
			Error:   form.Errors[field.Name],
			Options: form.Options(env.Cache, field),
		})
	}
	return fv
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func staffRef(api *apiclient.Client) records.Ref {
	return records.LoadRef(apiclient.CollectionStaffs, apiclient.NewResource[models.Staff](api, apiclient.CollectionStaffs).List)
}

func projectRef(api *apiclient.Client) records.Ref {
	return records.LoadRef(apiclient.CollectionProjects, apiclient.NewResource[models.Project](api, apiclient.CollectionProjects).List)
}

func taskRef(api *apiclient.Client) records.Ref {
	return records.LoadRef(apiclient.CollectionTasks, apiclient.NewResource[models.Task](api, apiclient.CollectionTasks).List)
}
