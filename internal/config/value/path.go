package value

import (
	"sort"
	"strings"
)

// SplitPath splits a dot-separated path. Every segment is kept, including
// empty ones, so "a..b" addresses the key "" under "a".
func SplitPath(path string) []string {
	return strings.Split(path, ".")
}

// ValidPath reports whether path has no empty segments.
func ValidPath(path string) bool {
	for _, part := range SplitPath(path) {
		if part == "" {
			return false
		}
	}
	return true
}

// Get retrieves the value at a dot-separated path. It returns false if any
// segment is missing or an intermediate value is not a mapping.
func Get(tree *Map, path string) (Value, bool) {
	parts := SplitPath(path)
	current := tree

	for i, part := range parts {
		v, ok := current.Get(part)
		if !ok {
			return Value{}, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		next, ok := v.AsMap()
		if !ok {
			return Value{}, false
		}
		current = next
	}

	return Value{}, false
}

// Set returns a copy of tree with v stored at path. Intermediate mappings
// are created as needed; non-mapping intermediates are replaced.
func Set(tree *Map, path string, v Value) *Map {
	out := tree.Clone()
	parts := SplitPath(path)

	current := out
	for _, part := range parts[:len(parts)-1] {
		existing, _ := current.Get(part)
		next, ok := existing.AsMap()
		if !ok {
			next = NewMap()
			current.Set(part, Mapping(next))
		}
		current = next
	}

	current.Set(parts[len(parts)-1], v.Clone())
	return out
}

// Unset returns a copy of tree without the leaf at path. Missing paths are
// a no-op and emptied parent mappings are kept.
func Unset(tree *Map, path string) *Map {
	out := tree.Clone()
	parts := SplitPath(path)

	current := out
	for _, part := range parts[:len(parts)-1] {
		existing, ok := current.Get(part)
		if !ok {
			return out
		}
		next, ok := existing.AsMap()
		if !ok {
			return out
		}
		current = next
	}

	current.Delete(parts[len(parts)-1])
	return out
}

// Flatten returns the dot paths of every non-mapping leaf, sorted.
// Empty mappings are reported as leaves.
func Flatten(tree *Map) []string {
	var paths []string
	flattenInto(tree, "", &paths)
	sort.Strings(paths)
	return paths
}

func flattenInto(m *Map, prefix string, out *[]string) {
	m.Range(func(key string, v Value) bool {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := v.AsMap(); ok && nested.Len() > 0 {
			flattenInto(nested, full, out)
		} else {
			*out = append(*out, full)
		}
		return true
	})
}
