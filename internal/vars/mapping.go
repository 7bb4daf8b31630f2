package vars

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Mapping is one entity's key/value variable set.
// Keys are unique; last write wins. The whole mapping serializes as one
// opaque property blob on the owning entity's row.
type Mapping map[string]Value

// KeyNotFoundError is returned when a removal names an absent key.
type KeyNotFoundError struct {
	Key string
}

// Error implements the error interface.
func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("variable %q not found", e.Key)
}

// Get returns the value for key and whether it is present.
func (m Mapping) Get(key string) (Value, bool) {
	v, ok := m[key]
	return v, ok
}

// Set creates or replaces the value for key.
func (m Mapping) Set(key string, value Value) {
	m[key] = value
}

// Remove deletes key from the mapping.
// Returns *KeyNotFoundError if the key is absent.
func (m Mapping) Remove(key string) error {
	if _, ok := m[key]; !ok {
		return &KeyNotFoundError{Key: key}
	}
	delete(m, key)
	return nil
}

// Clone returns a deep copy of the mapping.
func (m Mapping) Clone() Mapping {
	out := make(Mapping, len(m))
	for k, v := range m {
		out[k] = Clone(v)
	}
	return out
}

// SortedKeys returns the mapping's keys in ascending order.
func (m Mapping) SortedKeys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Blob serializes the mapping to its stored property blob.
// An empty mapping serializes to the empty string, matching a fresh row.
func (m Mapping) Blob() (string, error) {
	if len(m) == 0 {
		return "", nil
	}
	keys := m.SortedKeys()

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return "", fmt.Errorf("marshal mapping: %w", err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m[k])
		if err != nil {
			return "", fmt.Errorf("marshal mapping: %w", err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.String(), nil
}

// ParseBlob deserializes a stored property blob into a Mapping.
// Empty or absent blobs parse to an empty mapping.
func ParseBlob(blob string) (Mapping, error) {
	if blob == "" {
		return Mapping{}, nil
	}
	val, err := FromJSON([]byte(blob))
	if err != nil {
		return nil, fmt.Errorf("parse properties: %w", err)
	}
	obj, ok := val.(Map)
	if !ok {
		return nil, fmt.Errorf("parse properties: blob is %T, not an object", val)
	}
	return Mapping(obj), nil
}

// MarshalJSON encodes the mapping as a plain JSON object with sorted keys.
func (m Mapping) MarshalJSON() ([]byte, error) {
	return Map(m).MarshalJSON()
}

// UnmarshalJSON decodes a plain JSON object into the mapping.
func (m *Mapping) UnmarshalJSON(data []byte) error {
	val, err := FromJSON(data)
	if err != nil {
		return err
	}
	obj, ok := val.(Map)
	if !ok {
		return fmt.Errorf("vars: expected object, got %T", val)
	}
	*m = Mapping(obj)
	return nil
}
