package tgspec

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

var specTypes = map[Kind]reflect.Type{
	KindGeneric: reflect.TypeOf(Generic{}),
	KindUDP:     reflect.TypeOf(UDP{}),
	KindHTTP:    reflect.TypeOf(HTTP{}),
	KindFlowGen: reflect.TypeOf(FlowGen{}),
}

// New creates a Spec of the given kind with default values.
func New(kind Kind) (Spec, error) {
	typ, ok := specTypes[kind]
	if !ok {
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
	spec := reflect.New(typ).Interface().(Spec)
	spec.common().Kind = kind
	spec.applyDefaults()
	return spec, nil
}

// Finish applies defaults to a constructed Spec and validates it.
// Kind is set according to the concrete type.
func Finish(spec Spec) error {
	typ := reflect.TypeOf(spec).Elem()
	for kind, t := range specTypes {
		if t == typ {
			spec.common().Kind = kind
		}
	}
	spec.applyDefaults()
	return spec.Validate()
}

// Parse parses Spec from JSON string.
func Parse(input string) (Spec, error) {
	var w Wrapper
	if e := json.Unmarshal([]byte(input), &w); e != nil {
		return nil, e
	}
	if w.Spec == nil {
		return nil, errors.New("spec is null")
	}
	return w.Spec, nil
}

// Wrapper wraps Spec to facilitate JSON serialization.
// The "kind" property selects the variant; it defaults to "generic".
type Wrapper struct {
	Spec
}

// MarshalJSON implements json.Marshaler.
func (w Wrapper) MarshalJSON() ([]byte, error) {
	if w.Spec == nil {
		return []byte("null"), nil
	}
	return json.Marshal(w.Spec)
}

// UnmarshalJSON implements json.Unmarshaler.
func (w *Wrapper) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		w.Spec = nil
		return nil
	}

	kindObj := struct {
		Kind Kind `json:"kind"`
	}{}
	if e := json.Unmarshal(data, &kindObj); e != nil {
		return e
	}
	if kindObj.Kind == "" {
		kindObj.Kind = KindGeneric
	}

	typ, ok := specTypes[kindObj.Kind]
	if !ok {
		return fmt.Errorf("unknown kind %q", kindObj.Kind)
	}

	spec := reflect.New(typ).Interface().(Spec)
	if e := json.Unmarshal(data, spec); e != nil {
		return e
	}
	spec.common().Kind = kindObj.Kind
	spec.applyDefaults()
	if e := spec.Validate(); e != nil {
		return e
	}

	w.Spec = spec
	return nil
}
