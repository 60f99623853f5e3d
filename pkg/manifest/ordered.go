package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// OrderedMap is a string map that remembers insertion order. Dependency and
// script maps keep the order they had in package.json because framework
// selection takes the first matching dependency.
type OrderedMap struct {
	keys []string
	vals map[string]string
}

// NewOrderedMap builds a map from alternating key/value pairs.
func NewOrderedMap(pairs ...string) OrderedMap {
	var m OrderedMap
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Set(pairs[i], pairs[i+1])
	}
	return m
}

// Len returns the number of entries.
func (m OrderedMap) Len() int {
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m OrderedMap) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Get returns the value stored for key.
func (m OrderedMap) Get(key string) (string, bool) {
	v, ok := m.vals[key]
	return v, ok
}

// Has reports whether key is present with a non-empty value.
func (m OrderedMap) Has(key string) bool {
	v, ok := m.vals[key]
	return ok && v != ""
}

// Set stores value under key. An existing key keeps its position.
func (m *OrderedMap) Set(key, value string) {
	if m.vals == nil {
		m.vals = make(map[string]string)
	}
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = value
}

// Each calls fn for every entry in order.
func (m OrderedMap) Each(fn func(key, value string)) {
	for _, k := range m.keys {
		fn(k, m.vals[k])
	}
}

// Clone returns an independent copy.
func (m OrderedMap) Clone() OrderedMap {
	var out OrderedMap
	m.Each(out.Set)
	return out
}

// Map returns a plain Go map copy.
func (m OrderedMap) Map() map[string]string {
	out := make(map[string]string, len(m.keys))
	m.Each(func(k, v string) { out[k] = v })
	return out
}

// Merge overlays the given maps onto a copy of m. Later maps win on key
// collision; a key keeps the position where it was first seen.
func (m OrderedMap) Merge(others ...OrderedMap) OrderedMap {
	out := m.Clone()
	for _, o := range others {
		o.Each(out.Set)
	}
	return out
}

// UnmarshalJSON decodes a JSON object preserving key order. Non-string
// values are skipped; null decodes to an empty map.
func (m *OrderedMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*m = OrderedMap{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}

	var out OrderedMap
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("unexpected key token %v", kt)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			continue
		}
		out.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = out
	return nil
}

// MarshalJSON encodes the map as a JSON object in insertion order.
func (m OrderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(m.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
