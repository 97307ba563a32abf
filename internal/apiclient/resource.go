package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/noah-isme/office-admin/internal/models"
	appErrors "github.com/noah-isme/office-admin/pkg/errors"
)

// Collection names understood by the API.
const (
	CollectionStaffs      = "staffs"
	CollectionProjects    = "projects"
	CollectionTasks       = "tasks"
	CollectionTimesheets  = "timesheets"
	CollectionMails       = "mails"
	CollectionMessages    = "messages"
	CollectionUsers       = "admin/users"
	CollectionGroups      = "admin/groups"
	CollectionPermissions = "admin/permissions"
)

// Resource is the CRUD client of one collection.
type Resource[T models.Record] struct {
	client     *Client
	collection string
}

// NewResource binds a collection to a client.
func NewResource[T models.Record](client *Client, collection string) *Resource[T] {
	return &Resource[T]{client: client, collection: collection}
}

// Collection returns the collection name.
func (r *Resource[T]) Collection() string { return r.collection }

// List fetches the whole collection. Paginated envelopes are unwrapped.
func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	var raw json.RawMessage
	if err := r.client.Do(ctx, http.MethodGet, listPath(r.collection), nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[T](raw)
}

// Get fetches one record.
func (r *Resource[T]) Get(ctx context.Context, id int64) (T, error) {
	var out T
	err := r.client.Do(ctx, http.MethodGet, itemPath(r.collection, id), nil, &out)
	return out, err
}

// Create posts a new record with every collected field.
func (r *Resource[T]) Create(ctx context.Context, payload map[string]interface{}) (T, error) {
	var out T
	err := r.client.Do(ctx, http.MethodPost, listPath(r.collection), payload, &out)
	return out, err
}

// Update patches only the supplied fields of record id.
func (r *Resource[T]) Update(ctx context.Context, id int64, payload map[string]interface{}) (T, error) {
	var out T
	err := r.client.Do(ctx, http.MethodPatch, itemPath(r.collection, id), payload, &out)
	return out, err
}

// Delete removes record id.
func (r *Resource[T]) Delete(ctx context.Context, id int64) error {
	return r.client.Do(ctx, http.MethodDelete, itemPath(r.collection, id), nil, nil)
}

func decodeList[T any](raw json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}
	if trimmed[0] == '{' {
		var page struct {
			Results []T `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, http.StatusBadGateway, "unexpected list response from API")
		}
		if page.Results == nil {
			page.Results = []T{}
		}
		return page.Results, nil
	}
	var items []T
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, http.StatusBadGateway, "unexpected list response from API")
	}
	return items, nil
}
