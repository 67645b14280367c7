package form

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind is the HTML input used to render a field.
type Kind string

// Type is the JSON type a field value is coerced to before submission.
type Type string

const (
	KindSelect   Kind = "select"
	KindNumber   Kind = "number"
	KindCheckbox Kind = "checkbox"
	KindText     Kind = "text"

	TypeInt    Type = "int"
	TypeFloat  Type = "float"
	TypeBool   Type = "bool"
	TypeString Type = "string"
)

var (
	//go:embed fields.yaml
	defaultFields []byte

	ErrInvalidField = errors.New("invalid field definition")
)

type Option struct {
	Label string `yaml:"label" json:"label"`
	Value string `yaml:"value" json:"value"`
}

// Field describes one entry of the application form. The key is the name
// the prediction service expects in the request payload.
type Field struct {
	Key     string   `yaml:"key" json:"key"`
	Label   string   `yaml:"label" json:"label"`
	Section string   `yaml:"section,omitempty" json:"section,omitempty"`
	Kind    Kind     `yaml:"kind" json:"kind"`
	Type    Type     `yaml:"type" json:"type"`
	Default string   `yaml:"default,omitempty" json:"default,omitempty"`
	Options []Option `yaml:"options,omitempty" json:"options,omitempty"`
}

// DefaultFields returns the built-in field catalogue.
func DefaultFields() []Field {
	fields, err := ParseFields(defaultFields)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in field catalogue: %v", err))
	}
	return fields
}

// ParseFields decodes and validates a YAML field catalogue.
func ParseFields(b []byte) ([]Field, error) {
	var fields []Field
	if err := yaml.Unmarshal(b, &fields); err != nil {
		return nil, fmt.Errorf("decoding field catalogue: %w", err)
	}
	if err := Validate(fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// Validate checks the catalogue for empty or duplicate keys and for
// kind/type combinations the form cannot render.
func Validate(fields []Field) error {
	if len(fields) == 0 {
		return fmt.Errorf("%w: catalogue is empty", ErrInvalidField)
	}

	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		if f.Key == "" {
			return fmt.Errorf("%w: field %d has no key", ErrInvalidField, i)
		}
		if seen[f.Key] {
			return fmt.Errorf("%w: duplicate key %q", ErrInvalidField, f.Key)
		}
		seen[f.Key] = true

		switch f.Kind {
		case KindSelect:
			if len(f.Options) == 0 {
				return fmt.Errorf("%w: select %q has no options", ErrInvalidField, f.Key)
			}
		case KindCheckbox:
			if f.Type != TypeBool {
				return fmt.Errorf("%w: checkbox %q must be of type bool", ErrInvalidField, f.Key)
			}
		case KindNumber, KindText:
		default:
			return fmt.Errorf("%w: unknown kind %q for %q", ErrInvalidField, f.Kind, f.Key)
		}

		switch f.Type {
		case TypeInt, TypeFloat, TypeString:
		case TypeBool:
			if f.Kind != KindCheckbox {
				return fmt.Errorf("%w: bool field %q must be a checkbox", ErrInvalidField, f.Key)
			}
		default:
			return fmt.Errorf("%w: unknown type %q for %q", ErrInvalidField, f.Type, f.Key)
		}
	}
	return nil
}

// ParseError lists per-field coercion failures keyed by field key.
type ParseError struct {
	Fields map[string]string
}

func (e *ParseError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid form values: " + strings.Join(parts, ", ")
}

// Parse converts submitted form values into the application record.
// Blank inputs are left out of the record, checkboxes are always present.
func Parse(fields []Field, values url.Values) (map[string]any, error) {
	data := make(map[string]any, len(fields))
	errs := make(map[string]string)

	for _, f := range fields {
		raw := strings.TrimSpace(values.Get(f.Key))

		if f.Kind == KindCheckbox {
			data[f.Key] = isChecked(raw)
			continue
		}
		if raw == "" {
			continue
		}
		if f.Kind == KindSelect && !hasOption(f, raw) {
			errs[f.Key] = "unknown option"
			continue
		}

		v, err := coerce(f.Type, raw)
		if err != nil {
			errs[f.Key] = err.Error()
			continue
		}
		data[f.Key] = v
	}

	if len(errs) > 0 {
		return nil, &ParseError{Fields: errs}
	}
	return data, nil
}

func coerce(t Type, raw string) (any, error) {
	switch t {
	case TypeInt:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.New("must be a whole number")
		}
		return v, nil
	case TypeFloat:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.New("must be a number")
		}
		return v, nil
	default:
		return raw, nil
	}
}

func isChecked(raw string) bool {
	switch strings.ToLower(raw) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

func hasOption(f Field, v string) bool {
	for _, o := range f.Options {
		if o.Value == v {
			return true
		}
	}
	return false
}
