package schema

import (
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/value"
)

// Result is the outcome of validating a tree. Errors block a save;
// warnings do not.
type Result struct {
	Valid    bool
	Errors   []string
	Warnings []string

	// Failures carries the path of each error.
	Failures []*Failure
}

// Validator validates configuration trees against the field table.
type Validator struct {
	fields []Field

	// strictMode reports unknown top-level keys as errors on full
	// validation instead of warnings.
	strictMode bool
}

// NewValidator creates a validator over the standard field table.
func NewValidator() *Validator {
	return &Validator{fields: Fields()}
}

// WithStrictMode enables strict mode (unknown keys are errors).
func (v *Validator) WithStrictMode(strict bool) *Validator {
	v.strictMode = strict
	return v
}

// Validate checks tree. With partial set only keys present in the tree are
// checked; otherwise unknown top-level keys are reported as well. The tree
// is never modified.
func (v *Validator) Validate(tree *value.Map, partial bool) Result {
	errs := v.check(tree)

	var warnings []string
	if !partial {
		tree.Range(func(key string, _ value.Value) bool {
			if Known(key) {
				return true
			}
			unknown := unknownKey(key)
			if v.strictMode {
				errs = append(errs, unknown)
			} else {
				warnings = append(warnings, unknown.Message)
			}
			return true
		})
	}

	return Result{
		Valid:    len(errs) == 0,
		Errors:   errs.messages(),
		Warnings: warnings,
		Failures: errs,
	}
}

// check type-checks every present field. Children of a parent that is
// present but not a mapping are skipped; the parent is already reported.
func (v *Validator) check(tree *value.Map) failures {
	var errs failures
	for _, f := range v.fields {
		if parent := f.Parent(); parent != "" {
			pv, ok := value.Get(tree, parent)
			if !ok || pv.Kind() != value.KindMap {
				continue
			}
		}

		got, ok := value.Get(tree, f.Path)
		if !ok {
			continue
		}
		if !f.Valid(got) {
			errs.add(f.Path, f.Message(), got)
		}
	}
	return errs
}

// Validate checks tree with the default validator.
func Validate(tree *value.Map, partial bool) Result {
	return NewValidator().Validate(tree, partial)
}
