package vars

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Value is a sealed interface over the variable value shapes the
// inventory stores. Only Null, String, Number, Bool, List, and Map
// implement it.
//
// Values are untyped on the wire (plain JSON); the shape is inferred
// from the encoded form and preserved exactly through a round-trip.
// Numbers keep their decimal text so large integers never degrade to
// float64.
type Value interface {
	value() // Sealed - only these types implement it
}

// Null represents a JSON null.
type Null struct{}

func (Null) value() {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// String represents a string value.
type String string

func (String) value() {}

// Number represents a numeric value as its decimal text.
// Kept textual so 2^53+1 survives a round-trip unchanged.
type Number string

func (Number) value() {}

// MarshalJSON implements json.Marshaler for Number.
// The stored text is emitted verbatim.
func (n Number) MarshalJSON() ([]byte, error) {
	if n == "" {
		return []byte("0"), nil
	}
	return []byte(n), nil
}

// Bool represents a boolean value.
type Bool bool

func (Bool) value() {}

// List represents an ordered sequence of values.
type List []Value

func (List) value() {}

// Map represents an unordered string-keyed mapping of values.
type Map map[string]Value

func (Map) value() {}

// MarshalJSON implements json.Marshaler for Map with sorted keys,
// so encoded blobs are deterministic.
func (m Map) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// FromJSON decodes a JSON document into a Value, preserving shape.
// Numbers decode via json.Number to keep their exact decimal text.
func FromJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return fromAny(raw)
}

// FromAny converts the result of a json.Number-aware decode into a Value.
func FromAny(raw any) (Value, error) {
	return fromAny(raw)
}

func fromAny(raw any) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return Null{}, nil
	case string:
		return String(v), nil
	case json.Number:
		return Number(v.String()), nil
	case bool:
		return Bool(v), nil
	case []any:
		list := make(List, 0, len(v))
		for _, elem := range v {
			val, err := fromAny(elem)
			if err != nil {
				return nil, err
			}
			list = append(list, val)
		}
		return list, nil
	case map[string]any:
		m := make(Map, len(v))
		for k, elem := range v {
			val, err := fromAny(elem)
			if err != nil {
				return nil, err
			}
			m[k] = val
		}
		return m, nil
	// float64 only appears when the caller decoded without UseNumber.
	case float64:
		num, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return Number(num), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", raw)
	}
}

// Equal reports whether two values are structurally identical.
// Numbers compare by decimal text, lists by element order, maps by key set.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case Null:
		_, ok := b.(Null)
		return ok
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Number:
		bv, ok := b.(Number)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Map:
		bv, ok := b.(Map)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, elem := range av {
			other, present := bv[k]
			if !present || !Equal(elem, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Clone returns a deep copy of v. Scalars are returned as-is.
func Clone(v Value) Value {
	switch val := v.(type) {
	case List:
		out := make(List, len(val))
		for i, elem := range val {
			out[i] = Clone(elem)
		}
		return out
	case Map:
		out := make(Map, len(val))
		for k, elem := range val {
			out[k] = Clone(elem)
		}
		return out
	default:
		return v
	}
}

// Display renders a value for audit messages and text output.
// Strings render bare, everything else as compact JSON.
func Display(v Value) string {
	if s, ok := v.(String); ok {
		return string(s)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
