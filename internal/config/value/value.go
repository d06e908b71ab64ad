// Package value defines the configuration value tree used throughout the
// memento configuration engine.
//
// A Value is a tagged union over the six kinds a configuration file can
// express: null, boolean, number, string, array and mapping. Mappings keep
// insertion order so that files written back to disk stay stable, but
// equality between mappings ignores order.
package value

import (
	"fmt"
	"math"
	"sort"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	// KindNull is the zero kind; a zero Value is null.
	KindNull Kind = iota
	// KindBool holds a boolean.
	KindBool
	// KindNumber holds a float64.
	KindNumber
	// KindString holds a string.
	KindString
	// KindArray holds an ordered list of values.
	KindArray
	// KindMap holds a string-keyed mapping.
	KindMap
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindMap:
		return "mapping"
	default:
		return "unknown"
	}
}

// Value is a single configuration value.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	a    []Value
	m    *Map
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a float64.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// Int wraps an integer as a number.
func Int(i int) Value { return Value{kind: KindNumber, n: float64(i)} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array wraps the given values. A nil argument list yields an empty array.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, a: items}
}

// Strings builds an array of string values.
func Strings(items ...string) Value {
	out := make([]Value, len(items))
	for i, s := range items {
		out[i] = String(s)
	}
	return Value{kind: KindArray, a: out}
}

// Mapping wraps a map. A nil map is treated as empty.
func Mapping(m *Map) Value {
	if m == nil {
		m = NewMap()
	}
	return Value{kind: KindMap, m: m}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns the number held by v.
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsArray returns the items held by v. The slice is shared; callers must
// not modify it.
func (v Value) AsArray() ([]Value, bool) { return v.a, v.kind == KindArray }

// AsMap returns the mapping held by v. The map is shared.
func (v Value) AsMap() (*Map, bool) { return v.m, v.kind == KindMap }

// AsStrings returns the items of an array whose every element is a string.
func (v Value) AsStrings() ([]string, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	out := make([]string, 0, len(v.a))
	for _, item := range v.a {
		s, ok := item.AsString()
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindArray:
		items := make([]Value, len(v.a))
		for i, item := range v.a {
			items[i] = item.Clone()
		}
		return Value{kind: KindArray, a: items}
	case KindMap:
		return Value{kind: KindMap, m: v.m.Clone()}
	default:
		return v
	}
}

// Equal reports whether a and b hold the same kind and content.
// Mapping key order is ignored.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n || (math.IsNaN(a.n) && math.IsNaN(b.n))
	case KindString:
		return a.s == b.s
	case KindArray:
		if len(a.a) != len(b.a) {
			return false
		}
		for i := range a.a {
			if !Equal(a.a[i], b.a[i]) {
				return false
			}
		}
		return true
	case KindMap:
		return MapEqual(a.m, b.m)
	default:
		return false
	}
}

// Interface converts v to plain Go values: nil, bool, float64 (or int64
// when integral), string, []any and map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		if i, ok := Integral(v.n); ok {
			return i
		}
		return v.n
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.a))
		for i, item := range v.a {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		return v.m.Interface()
	default:
		return nil
	}
}

// String formats v for diagnostics.
func (v Value) String() string {
	return fmt.Sprintf("%v", v.Interface())
}

// FromInterface converts plain Go values into a Value. Map keys are sorted
// so the result is deterministic.
func FromInterface(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t.Clone(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case int:
		return Number(float64(t)), nil
	case int8:
		return Number(float64(t)), nil
	case int16:
		return Number(float64(t)), nil
	case int32:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case uint:
		return Number(float64(t)), nil
	case uint8:
		return Number(float64(t)), nil
	case uint16:
		return Number(float64(t)), nil
	case uint32:
		return Number(float64(t)), nil
	case uint64:
		return Number(float64(t)), nil
	case float32:
		return Number(float64(t)), nil
	case float64:
		return Number(t), nil
	case []string:
		return Strings(t...), nil
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			v, err := FromInterface(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return Array(items...), nil
	case map[string]any:
		m, err := MapFromInterface(t)
		if err != nil {
			return Value{}, err
		}
		return Mapping(m), nil
	case fmt.Stringer:
		return String(t.String()), nil
	default:
		return Value{}, fmt.Errorf("unsupported config value type %T", x)
	}
}

// MapFromInterface converts a plain Go map into a Map with sorted keys.
func MapFromInterface(src map[string]any) (*Map, error) {
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	m := NewMap()
	for _, k := range keys {
		v, err := FromInterface(src[k])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		m.Set(k, v)
	}
	return m, nil
}

// Integral reports n as an int64 when it is a whole number that float64
// represents exactly. Encoders use it to print integers without exponents.
func Integral(n float64) (int64, bool) {
	const maxExact = 1 << 53
	if n != math.Trunc(n) || math.Abs(n) > maxExact {
		return 0, false
	}
	return int64(n), true
}
