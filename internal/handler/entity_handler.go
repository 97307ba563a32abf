package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/office-admin/internal/entities"
	"github.com/noah-isme/office-admin/internal/records"
	"github.com/noah-isme/office-admin/internal/session"
	"github.com/noah-isme/office-admin/internal/view"
	appErrors "github.com/noah-isme/office-admin/pkg/errors"
	"github.com/noah-isme/office-admin/pkg/export"
	"github.com/noah-isme/office-admin/pkg/response"
)

// EntityHandler serves the list, form, delete and export screens of every
// collection through the generic record pattern.
type EntityHandler struct {
	*Console
	validator *validator.Validate
	exporters map[string]export.Renderer
}

// NewEntityHandler constructs the handler with the given export formats.
func NewEntityHandler(console *Console, v *validator.Validate, exporters ...export.Renderer) *EntityHandler {
	if v == nil {
		v = records.NewValidator()
	}
	h := &EntityHandler{Console: console, validator: v, exporters: map[string]export.Renderer{}}
	for _, e := range exporters {
		h.exporters[e.Extension()] = e
	}
	return h
}

// Formats lists the export extensions served.
func (h *EntityHandler) Formats() []string {
	out := make([]string, 0, len(h.exporters))
	for ext := range h.exporters {
		out = append(out, ext)
	}
	return out
}

// List renders the collection filtered by ?q. ?modal=create opens an empty
// form and ?edit=<id> opens the record editor.
func (h *EntityHandler) List(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		entry, col, ok := h.collection(c, key)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		search := strings.TrimSpace(c.Query("q"))
		listing := col.Load(ctx, entry.Env(), search)
		if rejected(entry, listing.Err) {
			h.fail(c, entry, listing.Err)
			return
		}

		if response.WantsJSON(c) {
			if listing.Err != nil && listing.Total == 0 {
				response.Error(c, listing.Err)
				return
			}
			response.List(c, listing.Items, listing.Total, search)
			return
		}

		var notices []records.Notice
		if listing.Err != nil && !listing.View.Loading {
			notices = append(notices, records.ErrorNotice(listing.Err))
		}

		var form *entities.FormView
		if col.Editable() {
			var err error
			switch {
			case c.Query("modal") == "create":
				form, err = col.Form(ctx, entry.Env(), 0)
			case c.Query("edit") != "":
				id, perr := strconv.ParseInt(c.Query("edit"), 10, 64)
				if perr != nil {
					err = appErrors.Clone(appErrors.ErrValidation, "invalid record id")
				} else {
					form, err = col.Form(ctx, entry.Env(), id)
				}
			}
			if err != nil {
				if rejected(entry, err) {
					h.fail(c, entry, err)
					return
				}
				notices = append(notices, records.ErrorNotice(err))
			}
		}
		h.renderList(c, entry, col, listing, form, http.StatusOK, notices)
	}
}

// Create submits a create form.
func (h *EntityHandler) Create(key string) gin.HandlerFunc {
	return func(c *gin.Context) { h.submit(c, key, 0) }
}

// Update submits an edit form for :id.
func (h *EntityHandler) Update(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := recordID(c)
		if err != nil {
			h.fail(c, nil, err)
			return
		}
		h.submit(c, key, id)
	}
}

func (h *EntityHandler) submit(c *gin.Context, key string, id int64) {
	entry, col, ok := h.collection(c, key)
	if !ok {
		return
	}
	values, err := formValues(c, col.Schema())
	if err != nil {
		h.fail(c, entry, err)
		return
	}

	ctx := c.Request.Context()
	form, notices, err := col.Submit(ctx, entry.Env(), h.validator, id, values)
	if err != nil {
		if rejected(entry, err) || form == nil {
			h.fail(c, entry, err)
			return
		}
		if response.WantsJSON(c) {
			appErr := appErrors.FromError(err)
			response.JSON(c, appErr.Status, nil, map[string]interface{}{"errors": fieldErrors(form), "error": appErr})
			return
		}
		listing := col.Load(ctx, entry.Env(), strings.TrimSpace(c.Query("q")))
		status := http.StatusOK
		if errors.Is(err, appErrors.ErrValidation) {
			status = http.StatusUnprocessableEntity
		}
		h.renderList(c, entry, col, listing, form, status, notices)
		return
	}

	if response.WantsJSON(c) {
		if id == 0 {
			response.Created(c, gin.H{"id": form.RecordID})
		} else {
			response.JSON(c, http.StatusOK, gin.H{"id": form.RecordID})
		}
		return
	}
	entry.Flash.Push(notices...)
	h.redirect(c, "/"+key)
}

// ConfirmDelete asks before deleting :id.
func (h *EntityHandler) ConfirmDelete(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		entry, col, ok := h.collection(c, key)
		if !ok {
			return
		}
		id, err := recordID(c)
		if err != nil {
			h.fail(c, entry, err)
			return
		}
		page := view.ConfirmPage{
			Prompt: col.ConfirmPrompt(),
			Action: fmt.Sprintf("/%s/%d/delete", key, id),
			Cancel: "/" + key,
		}
		h.view.HTML(c, http.StatusOK, view.PageConfirm, h.layout(entry, col.Title(), key, page))
	}
}

// Delete removes :id once the confirmation form was posted.
func (h *EntityHandler) Delete(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		entry, col, ok := h.collection(c, key)
		if !ok {
			return
		}
		id, err := recordID(c)
		if err != nil {
			h.fail(c, entry, err)
			return
		}
		notices, err := col.Delete(c.Request.Context(), entry.Env(), id)
		if err != nil && (rejected(entry, err) || errors.Is(err, appErrors.ErrForbidden) || response.WantsJSON(c)) {
			h.fail(c, entry, err)
			return
		}
		if response.WantsJSON(c) {
			response.NoContent(c)
			return
		}
		entry.Flash.Push(notices...)
		h.redirect(c, "/"+key)
	}
}

// Export downloads the filtered table as ext.
func (h *EntityHandler) Export(key, ext string) gin.HandlerFunc {
	return func(c *gin.Context) {
		entry, col, ok := h.collection(c, key)
		if !ok {
			return
		}
		renderer, ok := h.exporters[ext]
		if !ok {
			h.fail(c, entry, appErrors.Clone(appErrors.ErrNotFound, "unknown export format"))
			return
		}
		data, err := col.Export(c.Request.Context(), entry.Env(), strings.TrimSpace(c.Query("q")))
		if err != nil {
			h.fail(c, entry, err)
			return
		}
		body, err := renderer.Render(data)
		if err != nil {
			h.fail(c, entry, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "export failed"))
			return
		}
		name := strings.ReplaceAll(key, "/", "-") + "." + renderer.Extension()
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		c.Data(http.StatusOK, renderer.ContentType(), body)
	}
}

func (h *EntityHandler) collection(c *gin.Context, key string) (*session.Entry, entities.Collection, bool) {
	entry, err := currentSession(c)
	if err != nil {
		h.fail(c, nil, err)
		return nil, nil, false
	}
	col, ok := entry.Entities.Collection(key)
	if !ok {
		h.fail(c, entry, appErrors.ErrNotFound)
		return nil, nil, false
	}
	return entry, col, true
}

func (h *EntityHandler) renderList(c *gin.Context, entry *session.Entry, col entities.Collection, listing entities.Listing, form *entities.FormView, status int, notices []records.Notice) {
	page := view.ListPage{
		Listing:  listing,
		Base:     "/" + col.Key(),
		Editable: col.Editable(),
		Form:     form,
	}
	if strings.HasPrefix(col.Key(), adminPrefix) {
		for _, other := range entry.Entities.Collections() {
			if strings.HasPrefix(other.Key(), adminPrefix) {
				page.Tabs = append(page.Tabs, view.NavItem{Title: other.Title(), Href: "/" + other.Key(), Active: other.Key() == col.Key()})
			}
		}
	}
	h.view.HTML(c, status, view.PageList, h.layout(entry, col.Title(), col.Key(), page, notices...))
}

// formValues reads schema fields from a form post or a JSON object. An
// unchecked checkbox is absent from a form post and reads as false.
func formValues(c *gin.Context, schema records.Schema) (records.Values, error) {
	values := records.Values{}
	if strings.HasPrefix(c.ContentType(), gin.MIMEJSON) {
		var body map[string]interface{}
		if err := c.ShouldBindJSON(&body); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
		}
		for _, field := range schema {
			if v, ok := body[field.Name]; ok {
				values[field.Name] = records.Text(v)
			}
		}
		return values, nil
	}

	if err := c.Request.ParseForm(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid form")
	}
	form := c.Request.PostForm
	for _, field := range schema {
		if _, ok := form[field.Name]; ok {
			values[field.Name] = form.Get(field.Name)
		} else if field.Kind == records.KindCheckbox {
			values[field.Name] = "false"
		}
	}
	return values, nil
}

func fieldErrors(form *entities.FormView) map[string]string {
	out := map[string]string{}
	for _, f := range form.Fields {
		if f.Error != "" {
			out[f.Name] = f.Error
		}
	}
	return out
}

func recordID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid record id")
	}
	return id, nil
}

func rejected(entry *session.Entry, err error) bool {
	return errors.Is(err, appErrors.ErrUnauthorized) || !entry.Session.Authenticated()
}
