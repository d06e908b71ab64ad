package layer

import (
	"sort"

	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/value"
)

// Merge folds trees left to right; later trees win. Nil trees contribute
// nothing. The inputs are never modified.
func Merge(trees ...*value.Map) *value.Map {
	result := value.NewMap()
	for _, t := range trees {
		result = DeepMerge(result, t)
	}
	return result
}

// DeepMerge returns a new tree with src laid over dst.
// Keys that are mappings on both sides merge recursively; otherwise src
// replaces dst. Keys only in dst survive.
func DeepMerge(dst, src *value.Map) *value.Map {
	out := dst.Clone()
	src.Range(func(key string, srcVal value.Value) bool {
		dstVal, exists := out.Get(key)
		if !exists {
			out.Set(key, srcVal.Clone())
			return true
		}

		srcMap, srcIsMap := srcVal.AsMap()
		dstMap, dstIsMap := dstVal.AsMap()
		if srcIsMap && dstIsMap {
			out.Set(key, value.Mapping(DeepMerge(dstMap, srcMap)))
		} else {
			out.Set(key, srcVal.Clone())
		}
		return true
	})
	return out
}

// Diff returns the leaf paths that differ between two trees.
func Diff(old, next *value.Map) (added, modified, removed []string) {
	oldPaths := make(map[string]bool)
	for _, p := range value.Flatten(old) {
		oldPaths[p] = true
	}

	for _, p := range value.Flatten(next) {
		if !oldPaths[p] {
			added = append(added, p)
			continue
		}
		delete(oldPaths, p)
		ov, _ := value.Get(old, p)
		nv, _ := value.Get(next, p)
		if !value.Equal(ov, nv) {
			modified = append(modified, p)
		}
	}

	for p := range oldPaths {
		removed = append(removed, p)
	}
	sort.Strings(removed)

	return added, modified, removed
}
