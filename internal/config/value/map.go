package value

// Map is a string-keyed mapping that remembers insertion order.
// A nil *Map behaves as an empty, read-only mapping.
type Map struct {
	keys    []string
	entries map[string]Value
}

// NewMap creates an empty mapping.
func NewMap() *Map {
	return &Map{entries: make(map[string]Value)}
}

// Len returns the number of keys.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.entries[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores v under key. New keys are appended; existing keys keep their
// position.
func (m *Map) Set(key string, v Value) {
	if m.entries == nil {
		m.entries = make(map[string]Value)
	}
	if _, exists := m.entries[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.entries[key] = v
}

// Delete removes key. Returns true if it was present.
func (m *Map) Delete(key string) bool {
	if m == nil {
		return false
	}
	if _, exists := m.entries[key]; !exists {
		return false
	}
	delete(m.entries, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

// Range calls fn for each entry in insertion order until fn returns false.
func (m *Map) Range(fn func(key string, v Value) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.entries[k]) {
			return
		}
	}
}

// Clone returns a deep copy. Cloning nil yields an empty map.
func (m *Map) Clone() *Map {
	out := NewMap()
	if m == nil {
		return out
	}
	out.keys = make([]string, len(m.keys))
	copy(out.keys, m.keys)
	for k, v := range m.entries {
		out.entries[k] = v.Clone()
	}
	return out
}

// Interface converts the mapping to map[string]any.
func (m *Map) Interface() map[string]any {
	out := make(map[string]any, m.Len())
	m.Range(func(k string, v Value) bool {
		out[k] = v.Interface()
		return true
	})
	return out
}

// MapEqual compares two mappings ignoring key order. Nil equals empty.
func MapEqual(a, b *Map) bool {
	if a.Len() != b.Len() {
		return false
	}
	equal := true
	a.Range(func(k string, va Value) bool {
		vb, ok := b.Get(k)
		if !ok || !Equal(va, vb) {
			equal = false
		}
		return equal
	})
	return equal
}
