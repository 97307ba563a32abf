package records

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/noah-isme/office-admin/internal/models"
	"github.com/noah-isme/office-admin/internal/querycache"
)

// Ref is a collection a page reads besides its own, for lookups and
// reference selectors.
type Ref struct {
	Key  string
	Load func(ctx context.Context, cache *querycache.Client) error
}

// Definition is the data-driven configuration of one entity page.
type Definition[T models.Record] struct {
	Key      string
	Title    string
	Columns  func(env Env) []Column[T]
	Actions  []Action
	Schema   Schema
	Search   func(T) []string
	Messages Messages
	Refs     []Ref
	// Invalidates lists extra keys a mutation makes stale.
	Invalidates []string
}

func (d *Definition[T]) invalidates() []string {
	return append([]string{d.Key}, d.Invalidates...)
}

// Table builds the table of the definition for env.
func (d *Definition[T]) Table(env Env) Table[T] {
	var cols []Column[T]
	if d.Columns != nil {
		cols = d.Columns(env)
	}
	return Table[T]{Columns: cols, Actions: d.Actions}
}

// Confirmer asks the user to confirm a destructive action.
type Confirmer func(prompt string) bool

// Confirmed is a Confirmer for callers that already asked.
func Confirmed(string) bool { return true }

// Page is the controller of one entity screen.
type Page[T models.Record] struct {
	Def        *Definition[T]
	ModalOpen  bool
	Editing    *T
	SearchText string
}

// NewPage constructs a closed page.
func NewPage[T models.Record](def *Definition[T]) *Page[T] {
	return &Page[T]{Def: def}
}

func (p *Page[T]) OpenCreate() {
	p.Editing = nil
	p.ModalOpen = true
}

func (p *Page[T]) OpenEdit(record T) {
	p.Editing = &record
	p.ModalOpen = true
}

// CloseModal discards any unsaved edit.
func (p *Page[T]) CloseModal() {
	p.ModalOpen = false
	p.Editing = nil
}

// Form returns the form for the current modal state, or nil when closed.
func (p *Page[T]) Form() *Form[T] {
	if !p.ModalOpen {
		return nil
	}
	if p.Editing != nil {
		return NewEditForm(p.Def, *p.Editing)
	}
	return NewCreateForm(p.Def)
}

// Filter returns the records whose search fields contain SearchText,
// ignoring case. all is never modified.
func (p *Page[T]) Filter(all []T) []T {
	out := make([]T, 0, len(all))
	if p.SearchText == "" || p.Def.Search == nil {
		return append(out, all...)
	}
	fold := cases.Fold()
	needle := fold.String(p.SearchText)
	for _, record := range all {
		for _, value := range p.Def.Search(record) {
			if strings.Contains(fold.String(value), needle) {
				out = append(out, record)
				break
			}
		}
	}
	return out
}

// Delete removes record once the user confirms. On success the collection
// key is invalidated; on failure nothing changes.
func (p *Page[T]) Delete(ctx context.Context, env Env, src Source[T], record T, confirm Confirmer) ([]Notice, error) {
	if confirm == nil || !confirm(p.Def.Messages.ConfirmDelete) {
		return nil, nil
	}
	id := record.RecordID()
	err := env.Cache.Mutate(ctx, querycache.Mutation{
		Name:     p.Def.Key,
		Action:   models.AuditActionDelete,
		RecordID: id,
		Keys:     p.Def.invalidates(),
		Run: func(ctx context.Context) error {
			return src.Delete(ctx, id)
		},
	})
	if err != nil {
		env.logger().Info("record delete failed",
			zap.String("collection", p.Def.Key),
			zap.Int64("id", id),
			zap.Error(err),
		)
		return []Notice{ErrorNotice(err), Failure(p.Def.Messages.DeleteFailed)}, err
	}
	return []Notice{Success(p.Def.Messages.Deleted)}, nil
}

// Listing is one render of a page.
type Listing[T models.Record] struct {
	All     []T
	Records []T
	View    View
	Err     error
}

// Load reads the page's references and collection, filters and renders it.
// When ctx ends before the collection arrives the view is the loading
// placeholder. A failed read still renders the last good snapshot, if any.
func (p *Page[T]) Load(ctx context.Context, env Env, src Source[T]) Listing[T] {
	for _, ref := range p.Def.Refs {
		if ref.Load == nil {
			continue
		}
		if err := ref.Load(ctx, env.Cache); err != nil {
			env.logger().Debug("reference collection unavailable", zap.String("key", ref.Key), zap.Error(err))
		}
	}

	all, err := querycache.Read(ctx, env.Cache, p.Def.Key, src.List)
	table := p.Def.Table(env)
	if err != nil && all == nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return Listing[T]{View: table.Build(nil, true), Err: err}
		}
		return Listing[T]{View: table.Build(nil, false), Err: err}
	}

	filtered := p.Filter(all)
	return Listing[T]{All: all, Records: filtered, View: table.Build(filtered, false), Err: err}
}

// Find returns the cached record with id.
func (p *Page[T]) Find(env Env, id int64) (T, bool) {
	items, _ := querycache.Peek[T](env.Cache, p.Def.Key)
	for _, item := range items {
		if item.RecordID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// LoadRef returns a Ref that reads key through src.
func LoadRef[R models.Record](key string, list func(ctx context.Context) ([]R, error)) Ref {
	return Ref{
		Key: key,
		Load: func(ctx context.Context, cache *querycache.Client) error {
			_, err := querycache.Read(ctx, cache, key, list)
			return err
		},
	}
}
