package records

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/office-admin/internal/models"
	"github.com/noah-isme/office-admin/internal/querycache"
	appErrors "github.com/noah-isme/office-admin/pkg/errors"
)

// Mode tells whether a form creates or edits.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

// Form is the modal editor of one record.
type Form[T models.Record] struct {
	Mode     Mode
	RecordID int64
	Values   Values
	Errors   Errors
	Open     bool

	def *Definition[T]
}

// NewCreateForm opens an empty form filled with defaults.
func NewCreateForm[T models.Record](def *Definition[T]) *Form[T] {
	return &Form[T]{Mode: ModeCreate, Values: def.Schema.Defaults(), Open: true, def: def}
}

// NewEditForm opens a form pre-populated from record.
func NewEditForm[T models.Record](def *Definition[T], record T) *Form[T] {
	return &Form[T]{
		Mode:     ModeEdit,
		RecordID: record.RecordID(),
		Values:   def.Schema.ValuesFrom(record),
		Open:     true,
		def:      def,
	}
}

// Schema returns the fields the form shows in its mode.
func (f *Form[T]) Schema() Schema { return f.def.Schema.For(f.Mode) }

// Options returns the choices of field, static or from the cache.
func (f *Form[T]) Options(cache *querycache.Client, field Field) []Option {
	if field.Choices != nil {
		return field.Choices(cache)
	}
	return field.Options
}

// Submit validates input and, when it passes, creates or patches the record.
// A validation failure makes no API call. On success the collection key is
// invalidated and the form closes; on failure the form stays open with the
// entered values.
func (f *Form[T]) Submit(ctx context.Context, env Env, v *validator.Validate, src Source[T], input Values) ([]Notice, error) {
	schema := f.Schema()
	for name, value := range input {
		if _, ok := schema.Field(name); ok {
			f.Values[name] = value
		}
	}

	f.Errors = schema.Validate(v, f.Values)
	if len(f.Errors) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "")
	}

	payload := schema.Payload(f.Values)
	msgs := f.def.Messages
	mutation := querycache.Mutation{Name: f.def.Key, Keys: f.def.invalidates()}
	ok, failed := msgs.Created, msgs.CreateFailed
	if f.Mode == ModeEdit {
		id := f.RecordID
		mutation.Action = models.AuditActionUpdate
		mutation.RecordID = id
		mutation.Run = func(ctx context.Context) error {
			_, err := src.Update(ctx, id, payload)
			return err
		}
		ok, failed = msgs.Updated, msgs.UpdateFailed
	} else {
		mutation.Action = models.AuditActionCreate
		mutation.Run = func(ctx context.Context) error {
			created, err := src.Create(ctx, payload)
			if err == nil {
				f.RecordID = created.RecordID()
			}
			return err
		}
	}

	if err := env.Cache.Mutate(ctx, mutation); err != nil {
		env.logger().Info("record mutation failed",
			zap.String("collection", f.def.Key),
			zap.String("action", mutation.Action),
			zap.Error(err),
		)
		return []Notice{ErrorNotice(err), Failure(failed)}, err
	}

	f.Open = false
	return []Notice{Success(ok)}, nil
}
