package records

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/office-admin/internal/models"
	"github.com/noah-isme/office-admin/internal/querycache"
)

// UnknownLabel is displayed for a reference with no matching cached record.
const UnknownLabel = "Unknown"

// DanglingRecorder counts references that point at nothing.
type DanglingRecorder interface {
	RecordDanglingReference(collection string)
}

// Env is what a page needs besides its own collection.
type Env struct {
	Cache    *querycache.Client
	Dangling DanglingRecorder
	Logger   *zap.Logger
}

func (e Env) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// Lookup resolves foreign keys against the cached collection of R.
type Lookup[R models.Record] struct {
	key    string
	byID   map[int64]R
	loaded bool
	label  func(R) string
	env    Env
}

// NewLookup indexes whatever is cached under key right now.
func NewLookup[R models.Record](env Env, key string, label func(R) string) *Lookup[R] {
	l := &Lookup[R]{key: key, byID: map[int64]R{}, label: label, env: env}
	if env.Cache == nil {
		return l
	}
	if items, ok := querycache.Peek[R](env.Cache, key); ok {
		l.loaded = true
		for _, item := range items {
			l.byID[item.RecordID()] = item
		}
	}
	return l
}

// Get returns the referenced record.
func (l *Lookup[R]) Get(id int64) (R, bool) {
	r, ok := l.byID[id]
	return r, ok
}

// Label is the display text of id. A dangling reference renders as
// UnknownLabel and is logged so the data problem is not silent.
func (l *Lookup[R]) Label(id int64) string {
	if r, ok := l.byID[id]; ok {
		return l.label(r)
	}
	if l.loaded && id != 0 {
		l.env.logger().Warn("dangling reference",
			zap.String("collection", l.key),
			zap.Int64("id", id),
		)
		if l.env.Dangling != nil {
			l.env.Dangling.RecordDanglingReference(l.key)
		}
	}
	return UnknownLabel
}

// Render adapts Label to a column renderer.
func (l *Lookup[R]) Render(value interface{}) string {
	id, ok := toID(value)
	if !ok {
		return UnknownLabel
	}
	return l.Label(id)
}

// RefColumn is a column whose value is a foreign key into l.
func RefColumn[T models.Record, R models.Record](field, label string, l *Lookup[R]) Column[T] {
	return Column[T]{
		Field: field,
		Label: label,
		Render: func(value interface{}, _ T) string {
			return l.Render(value)
		},
	}
}

// RefChoices lists the cached records of key as form options.
func RefChoices[R models.Record](key string, label func(R) string) func(*querycache.Client) []Option {
	return func(cache *querycache.Client) []Option {
		if cache == nil {
			return nil
		}
		items, ok := querycache.Peek[R](cache, key)
		if !ok {
			return nil
		}
		options := make([]Option, 0, len(items))
		for _, item := range items {
			options = append(options, Option{
				Value: strconv.FormatInt(item.RecordID(), 10),
				Label: label(item),
			})
		}
		return options
	}
}

func toID(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case string:
		return models.ParseID(v)
	}
	return 0, false
}
