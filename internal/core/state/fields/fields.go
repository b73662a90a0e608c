// Package fields implements the generic mechanism that maps event payload
// keys onto declared state fields. A Section is built from an ordered list of
// field descriptors and updated in place by Apply; it has no knowledge of
// market or chat semantics.
package fields

import (
	"errors"
	"fmt"
)

// Kind is the declared semantic type of a field. It drives payload coercion.
type Kind string

const (
	Int       Kind = "int"
	Float     Kind = "float"
	String    Kind = "string"
	Bool      Kind = "bool"
	FloatList Kind = "float_list"
	AnyList   Kind = "list"
	Map       Kind = "map"
	MapList   Kind = "map_list"
)

// Spec describes one declared field.
//
// EventKey is the payload key that feeds the field; it defaults to Name.
// ExcludeFromMapping removes the field from generic routing entirely; it is
// only ever written through Section.Set. ExcludeEvents lists event types that
// must not trigger an update even when the key is present.
type Spec struct {
	Name               string
	Kind               Kind
	EventKey           string
	ExcludeFromMapping bool
	ExcludeEvents      []string
	Default            any
}

func (s Spec) key() string {
	if s.EventKey != "" {
		return s.EventKey
	}
	return s.Name
}

// CoercionError reports a payload value that cannot be coerced to a field's
// declared kind. Unlike a missing key, this is a protocol mismatch and is
// surfaced to the caller.
type CoercionError struct {
	Field string
	Kind  Kind
	Value any
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("field %q: cannot coerce %T (%v) to %s", e.Field, e.Value, e.Value, e.Kind)
}

// Section holds a group of declared fields and their current values.
// Field order follows the declaration order.
type Section struct {
	specs  []Spec
	values map[string]any
}

// NewSection builds a section from field descriptors. Duplicate names and
// unknown kinds are configuration errors.
func NewSection(specs []Spec) (*Section, error) {
	s := &Section{
		specs:  make([]Spec, 0, len(specs)),
		values: make(map[string]any, len(specs)),
	}
	for _, sp := range specs {
		if sp.Name == "" {
			return nil, fmt.Errorf("field with empty name")
		}
		if _, dup := s.values[sp.Name]; dup {
			return nil, fmt.Errorf("duplicate field %q", sp.Name)
		}
		def, err := defaultFor(sp)
		if err != nil {
			return nil, err
		}
		s.specs = append(s.specs, sp)
		s.values[sp.Name] = def
	}
	return s, nil
}

func defaultFor(sp Spec) (any, error) {
	if sp.Default != nil {
		v, err := coerce(sp.Kind, sp.Default)
		if err != nil {
			return nil, fmt.Errorf("default for %q: %w", sp.Name, err)
		}
		return v, nil
	}
	switch sp.Kind {
	case Int:
		return 0, nil
	case Float:
		return 0.0, nil
	case String:
		return "", nil
	case Bool:
		return false, nil
	case FloatList:
		return []float64{}, nil
	case AnyList:
		return []any{}, nil
	case Map:
		return map[string]any{}, nil
	case MapList:
		return []map[string]any{}, nil
	default:
		return nil, fmt.Errorf("field %q: unknown kind %q", sp.Name, sp.Kind)
	}
}

// Apply routes an event payload onto the section's fields. Every eligible
// field whose event key is present in the payload is overwritten with the
// coerced payload value. Missing keys are not an error; an event with no
// matching keys is a no-op.
func (s *Section) Apply(eventType string, data map[string]any) error {
	for _, sp := range s.specs {
		if sp.ExcludeFromMapping {
			continue
		}
		if excluded(sp.ExcludeEvents, eventType) {
			continue
		}
		raw, ok := data[sp.key()]
		if !ok {
			continue
		}
		v, err := coerce(sp.Kind, raw)
		if err != nil {
			return named(err, sp.Name)
		}
		s.values[sp.Name] = v
	}
	return nil
}

func named(err error, field string) error {
	var ce *CoercionError
	if errors.As(err, &ce) {
		ce.Field = field
	}
	return err
}

func excluded(list []string, eventType string) bool {
	for _, e := range list {
		if e == eventType {
			return true
		}
	}
	return false
}

// Set writes a field through the explicit non-generic path. This is the only
// way to write a field marked ExcludeFromMapping.
func (s *Section) Set(name string, value any) error {
	for _, sp := range s.specs {
		if sp.Name != name {
			continue
		}
		v, err := coerce(sp.Kind, value)
		if err != nil {
			return named(err, name)
		}
		s.values[name] = v
		return nil
	}
	return fmt.Errorf("no declared field %q", name)
}

// Has reports whether a field is declared in this section.
func (s *Section) Has(name string) bool {
	_, ok := s.values[name]
	return ok
}

// Names returns the declared field names in declaration order.
func (s *Section) Names() []string {
	out := make([]string, len(s.specs))
	for i, sp := range s.specs {
		out[i] = sp.Name
	}
	return out
}

func (s *Section) Value(name string) any { return s.values[name] }

func (s *Section) Int(name string) int {
	v, _ := s.values[name].(int)
	return v
}

func (s *Section) Float(name string) float64 {
	v, _ := s.values[name].(float64)
	return v
}

func (s *Section) String(name string) string {
	v, _ := s.values[name].(string)
	return v
}

func (s *Section) Bool(name string) bool {
	v, _ := s.values[name].(bool)
	return v
}

func (s *Section) FloatList(name string) []float64 {
	v, _ := s.values[name].([]float64)
	return v
}

func (s *Section) AnyList(name string) []any {
	v, _ := s.values[name].([]any)
	return v
}

func (s *Section) Map(name string) map[string]any {
	v, _ := s.values[name].(map[string]any)
	return v
}

func (s *Section) MapList(name string) []map[string]any {
	v, _ := s.values[name].([]map[string]any)
	return v
}

// coerce converts a JSON-decoded payload value to the field's kind.
// encoding/json decodes all numbers as float64, so the numeric paths accept
// float64 plus the native Go types used by tests and defaults.
func coerce(kind Kind, raw any) (any, error) {
	switch kind {
	case Int:
		switch n := raw.(type) {
		case int:
			return n, nil
		case int64:
			return int(n), nil
		case float64:
			return int(n), nil
		}
	case Float:
		switch n := raw.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
	case String:
		if v, ok := raw.(string); ok {
			return v, nil
		}
	case Bool:
		if v, ok := raw.(bool); ok {
			return v, nil
		}
	case FloatList:
		switch list := raw.(type) {
		case []float64:
			return list, nil
		case []any:
			out := make([]float64, 0, len(list))
			for _, item := range list {
				f, err := coerce(Float, item)
				if err != nil {
					break
				}
				out = append(out, f.(float64))
			}
			if len(out) == len(list) {
				return out, nil
			}
		}
	case AnyList:
		if v, ok := raw.([]any); ok {
			return v, nil
		}
	case Map:
		if v, ok := raw.(map[string]any); ok {
			return v, nil
		}
	case MapList:
		switch list := raw.(type) {
		case []map[string]any:
			return list, nil
		case []any:
			out := make([]map[string]any, 0, len(list))
			for _, item := range list {
				m, ok := item.(map[string]any)
				if !ok {
					break
				}
				out = append(out, m)
			}
			if len(out) == len(list) {
				return out, nil
			}
		}
	default:
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
	return nil, &CoercionError{Kind: kind, Value: raw}
}
