// Package records holds the generic record-management pattern every console
// page is built from: a column-driven table, a schema-driven form, a page
// controller with search and delete, foreign-key lookups and user notices.
package records

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mitchellh/mapstructure"

	"github.com/noah-isme/office-admin/internal/models"
)

// Source is the API side of one collection.
type Source[T models.Record] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, payload map[string]interface{}) (T, error)
	Update(ctx context.Context, id int64, payload map[string]interface{}) (T, error)
	Delete(ctx context.Context, id int64) error
}

// Fields flattens a record into its API field names.
func Fields(record interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	if record == nil {
		return out
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &out,
	})
	if err != nil {
		return out
	}
	if err := decoder.Decode(record); err != nil {
		return out
	}
	return out
}

// Text coerces a field value into display text. Missing values become an
// empty string, never "null".
func Text(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case models.Text:
		return string(v)
	case fmt.Stringer:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.RawMessage:
		if len(v) == 0 || string(v) == "null" {
			return ""
		}
		return string(v)
	case []byte:
		return string(v)
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case *int64:
		if v == nil {
			return ""
		}
		return strconv.FormatInt(*v, 10)
	default:
		return fmt.Sprint(v)
	}
}

// Truncate shortens s to n runes followed by "..." when it is longer.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
