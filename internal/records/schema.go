package records

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/office-admin/internal/querycache"
)

// Kind is the input widget of a form field.
type Kind string

const (
	KindText      Kind = "text"
	KindTextarea  Kind = "textarea"
	KindNumber    Kind = "number"
	KindDate      Kind = "date"
	KindTime      Kind = "time"
	KindSelect    Kind = "select"
	KindReference Kind = "reference"
	KindCheckbox  Kind = "checkbox"
	KindURL       Kind = "url"
)

// RuleKind names a validation constraint.
type RuleKind string

const (
	RuleRequired  RuleKind = "required"
	RuleMinLength RuleKind = "min"
	RulePositive  RuleKind = "positive"
	RuleNumeric   RuleKind = "numeric"
)

// Rule is one validation constraint with the message shown when it fails.
type Rule struct {
	Kind    RuleKind
	Min     int
	Message string
}

func Required(message string) Rule { return Rule{Kind: RuleRequired, Message: message} }

func MinLength(n int, message string) Rule {
	return Rule{Kind: RuleMinLength, Min: n, Message: message}
}

func Positive(message string) Rule { return Rule{Kind: RulePositive, Message: message} }

func Numeric(message string) Rule { return Rule{Kind: RuleNumeric, Message: message} }

func (r Rule) tag() string {
	switch r.Kind {
	case RuleMinLength:
		return fmt.Sprintf("min=%d", r.Min)
	case RulePositive:
		return "positive"
	default:
		return string(r.Kind)
	}
}

// Option is one choice of a select or reference field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Field describes one form input.
type Field struct {
	Name    string
	Label   string
	Kind    Kind
	Rules   []Rule
	Options []Option
	// Choices lists the records of a referenced collection. It only sees
	// what is already cached.
	Choices func(cache *querycache.Client) []Option
	Default string
	// EditOnly fields are hidden from create forms and never posted on create.
	EditOnly bool
}

// Required reports whether the field carries a required rule.
func (f Field) Required() bool {
	for _, r := range f.Rules {
		if r.Kind == RuleRequired {
			return true
		}
	}
	return false
}

// Values are raw form inputs keyed by field name.
type Values map[string]string

// Errors are per-field validation messages.
type Errors map[string]string

// Schema is the ordered field list of a form.
type Schema []Field

// NewValidator returns a validator that knows the "positive" rule.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("positive", func(fl validator.FieldLevel) bool {
		n, err := strconv.ParseFloat(strings.TrimSpace(fl.Field().String()), 64)
		return err == nil && n > 0
	})
	return v
}

// Validate runs every field's rules and reports the first failing rule of
// each field. Empty optional fields are not checked further.
func (s Schema) Validate(v *validator.Validate, values Values) Errors {
	if v == nil {
		v = NewValidator()
	}
	errs := Errors{}
	for _, field := range s {
		value := strings.TrimSpace(values[field.Name])
		if value == "" && !field.Required() {
			continue
		}
		for _, rule := range field.Rules {
			if err := v.Var(value, rule.tag()); err != nil {
				errs[field.Name] = rule.Message
				break
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Payload converts values into the JSON body the API expects. Numbers and
// references become numbers, checkboxes become booleans and empty optional
// values are left out.
func (s Schema) Payload(values Values) map[string]interface{} {
	payload := make(map[string]interface{}, len(s))
	for _, field := range s {
		raw := strings.TrimSpace(values[field.Name])
		switch field.Kind {
		case KindCheckbox:
			payload[field.Name] = truthy(raw)
		case KindNumber, KindReference:
			if raw == "" {
				continue
			}
			if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
				payload[field.Name] = n
			} else if f, err := strconv.ParseFloat(raw, 64); err == nil {
				payload[field.Name] = f
			} else {
				payload[field.Name] = raw
			}
		default:
			if raw == "" && !field.Required() {
				continue
			}
			payload[field.Name] = raw
		}
	}
	return payload
}

// For returns the fields a form in mode shows and submits.
func (s Schema) For(mode Mode) Schema {
	if mode == ModeEdit {
		return s
	}
	out := make(Schema, 0, len(s))
	for _, field := range s {
		if !field.EditOnly {
			out = append(out, field)
		}
	}
	return out
}

// Defaults returns the initial values of a create form.
func (s Schema) Defaults() Values {
	values := Values{}
	for _, field := range s.For(ModeCreate) {
		if field.Default != "" {
			values[field.Name] = field.Default
		}
	}
	return values
}

// ValuesFrom pre-populates a form from an existing record.
func (s Schema) ValuesFrom(record interface{}) Values {
	fields := Fields(record)
	values := Values{}
	for _, field := range s {
		value, ok := fields[field.Name]
		if !ok {
			continue
		}
		values[field.Name] = Text(value)
	}
	return values
}

// Field returns the named field.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func truthy(raw string) bool {
	switch strings.ToLower(raw) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
