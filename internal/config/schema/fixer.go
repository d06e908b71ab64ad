package schema

import (
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/value"
)

// Fix returns a corrected copy of tree and whether anything changed.
//
// A nil tree stands for a missing file and yields the defaults. Otherwise,
// field by field in table order: an invalid value is replaced by the
// field's default, or deleted when there is none; an absent field with a
// default is inserted when its parent exists and the tree is non-empty.
// Unknown keys are kept. Fix is idempotent.
func Fix(tree *value.Map) (*value.Map, bool) {
	if tree == nil {
		return Defaults(), true
	}

	out := tree.Clone()
	nonEmpty := tree.Len() > 0
	changed := false

	for _, f := range Fields() {
		if parent := f.Parent(); parent != "" {
			pv, ok := value.Get(out, parent)
			if !ok || pv.Kind() != value.KindMap {
				continue
			}
		}

		got, ok := value.Get(out, f.Path)
		switch {
		case !ok:
			if f.HasDefault() && nonEmpty {
				out = value.Set(out, f.Path, f.Default.Clone())
				changed = true
			}
		case f.Valid(got):
			// nothing to do
		case f.HasDefault():
			out = value.Set(out, f.Path, f.Default.Clone())
			changed = true
		default:
			out = value.Unset(out, f.Path)
			changed = true
		}
	}

	return out, changed
}
