// Package schema provides declarative validation for request bodies, query
// parameters and path parameters.
//
// A schema is a map of field name to Field. Validation is all-or-nothing:
// either every declared field validates (producing a normalized value map) or
// the whole input is rejected with a ValidationError enumerating every
// violated field. Defaults and coercion apply only where declared.
package schema

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindUUID
	KindEnum
	KindAny
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindUUID:
		return "uuid"
	case KindEnum:
		return "enum"
	case KindAny:
		return "any"
	}
	return "unknown"
}

// Field declares the shape and constraints of a single value.
type Field struct {
	kind     Kind
	required bool
	nullable bool
	coerce   bool
	def      any
	hasDef   bool
	max      float64
	hasMax   bool
	enum     []string
	literals []string // extra accepted literals for uuid fields, e.g. "me"
}

func String() Field            { return Field{kind: KindString} }
func Number() Field            { return Field{kind: KindNumber} }
func Bool() Field              { return Field{kind: KindBool} }
func UUID() Field              { return Field{kind: KindUUID} }
func Enum(values ...string) Field { return Field{kind: KindEnum, enum: values} }

// Any declares a field whose value passes through unchecked.
func Any() Field { return Field{kind: KindAny} }

// Required marks the field as mandatory. Absence fails validation unless a
// default is declared.
func (f Field) Required() Field {
	f.required = true
	return f
}

// Nullable accepts an explicit null and passes it through.
func (f Field) Nullable() Field {
	f.nullable = true
	return f
}

// Default is applied when the field is absent from the input.
func (f Field) Default(v any) Field {
	f.def = v
	f.hasDef = true
	return f
}

// Max sets an inclusive upper bound for number fields.
func (f Field) Max(v float64) Field {
	f.max = v
	f.hasMax = true
	return f
}

// Coerce opts the field into string coercion (numeric strings to numbers,
// "true"/"false" to booleans). Query and path parameters arrive as strings,
// so their schemas typically declare it.
func (f Field) Coerce() Field {
	f.coerce = true
	return f
}

// AllowLiterals accepts the given literal strings for a uuid field in
// addition to well-formed UUIDs (e.g. "me" for user id fields).
func (f Field) AllowLiterals(values ...string) Field {
	f.literals = append(f.literals, values...)
	return f
}

// Object maps field names to their declared shapes. Fields not declared are
// dropped from the normalized output.
type Object map[string]Field

// ValidationError reports every violated field of a single input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Code() string    { return "SCHEMA_VALIDATION_FAILED" }
func (e *ValidationError) HTTPStatus() int { return http.StatusBadRequest }

// Validate checks raw input against the declared shape and returns the
// normalized value map. A nil input is treated as empty. Validation never
// partially succeeds.
func (o Object) Validate(raw map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(o))
	violations := make(map[string]string)

	for name, field := range o {
		value, present := raw[name]
		if !present {
			if field.hasDef {
				out[name] = field.def
				continue
			}
			if field.required {
				violations[name] = "is required"
			}
			continue
		}

		if value == nil {
			if field.nullable {
				out[name] = nil
				continue
			}
			violations[name] = "must not be null"
			continue
		}

		normalized, err := field.normalize(value)
		if err != nil {
			violations[name] = err.Error()
			continue
		}
		out[name] = normalized
	}

	if len(violations) > 0 {
		return nil, &ValidationError{Fields: violations}
	}
	return out, nil
}

func (f Field) normalize(value any) (any, error) {
	switch f.kind {
	case KindAny:
		return value, nil

	case KindString:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("must be a string")
		}
		return s, nil

	case KindUUID:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("must be a uuid string")
		}
		for _, lit := range f.literals {
			if s == lit {
				return s, nil
			}
		}
		if _, err := uuid.Parse(s); err != nil {
			return nil, fmt.Errorf("must be a valid uuid")
		}
		return s, nil

	case KindEnum:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("must be a string")
		}
		for _, allowed := range f.enum {
			if s == allowed {
				return s, nil
			}
		}
		return nil, fmt.Errorf("must be one of [%s]", strings.Join(f.enum, ", "))

	case KindNumber:
		n, err := f.toNumber(value)
		if err != nil {
			return nil, err
		}
		if f.hasMax && n > f.max {
			return nil, fmt.Errorf("must be at most %v", strconv.FormatFloat(f.max, 'f', -1, 64))
		}
		return n, nil

	case KindBool:
		if b, ok := value.(bool); ok {
			return b, nil
		}
		if s, ok := value.(string); ok && f.coerce {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return nil, fmt.Errorf("must be a boolean")
			}
			return b, nil
		}
		return nil, fmt.Errorf("must be a boolean")
	}
	return nil, fmt.Errorf("unsupported field kind")
}

func (f Field) toNumber(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		if !f.coerce {
			return 0, fmt.Errorf("must be a number")
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("must be a number")
		}
		return n, nil
	}
	return 0, fmt.Errorf("must be a number")
}
