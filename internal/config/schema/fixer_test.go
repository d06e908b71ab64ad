package schema

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/value"
)

func TestFix(t *testing.T) {
	tests := []struct {
		name    string
		data    map[string]any
		want    map[string]any
		changed bool
	}{
		{
			name:    "empty tree stays empty",
			data:    map[string]any{},
			want:    map[string]any{},
			changed: false,
		},
		{
			name: "valid tree unchanged",
			data: map[string]any{
				"defaultMode":        "architect",
				"preferredWorkflows": []any{"a"},
				"ui":                 map[string]any{"colorOutput": false, "verboseLogging": true},
			},
			want: map[string]any{
				"defaultMode":        "architect",
				"preferredWorkflows": []any{"a"},
				"ui":                 map[string]any{"colorOutput": false, "verboseLogging": true},
			},
			changed: false,
		},
		{
			name: "wrong defaultMode replaced",
			data: map[string]any{"defaultMode": 7},
			want: map[string]any{
				"defaultMode":        "engineer",
				"preferredWorkflows": []any{},
				"ui":                 map[string]any{"colorOutput": true, "verboseLogging": false},
			},
			changed: true,
		},
		{
			name: "ui scalar replaced by full default",
			data: map[string]any{"defaultMode": "engineer", "preferredWorkflows": []any{}, "ui": "loud"},
			want: map[string]any{
				"defaultMode":        "engineer",
				"preferredWorkflows": []any{},
				"ui":                 map[string]any{"colorOutput": true, "verboseLogging": false},
			},
			changed: true,
		},
		{
			name: "ui subfields fixed individually",
			data: map[string]any{
				"defaultMode":        "engineer",
				"preferredWorkflows": []any{},
				"ui":                 map[string]any{"colorOutput": false, "verboseLogging": "no", "outputFormat": "xml"},
			},
			want: map[string]any{
				"defaultMode":        "engineer",
				"preferredWorkflows": []any{},
				"ui":                 map[string]any{"colorOutput": false, "verboseLogging": false},
			},
			changed: true,
		},
		{
			name: "array without default deleted",
			data: map[string]any{
				"defaultMode":           "engineer",
				"preferredWorkflows":    []any{},
				"ui":                    map[string]any{"colorOutput": true, "verboseLogging": false},
				"customTemplateSources": "http://x",
				"components":            map[string]any{"modes": "engineer", "agents": []any{"a"}},
			},
			want: map[string]any{
				"defaultMode":        "engineer",
				"preferredWorkflows": []any{},
				"ui":                 map[string]any{"colorOutput": true, "verboseLogging": false},
				"components":         map[string]any{"agents": []any{"a"}},
			},
			changed: true,
		},
		{
			name: "unknown keys survive",
			data: map[string]any{"theme": "dark"},
			want: map[string]any{
				"theme":              "dark",
				"defaultMode":        "engineer",
				"preferredWorkflows": []any{},
				"ui":                 map[string]any{"colorOutput": true, "verboseLogging": false},
			},
			changed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := mustTree(t, tt.data)
			before := tree.Clone()

			got, changed := Fix(tree)
			if changed != tt.changed {
				t.Errorf("changed = %v, want %v", changed, tt.changed)
			}
			if want := mustTree(t, tt.want); !value.MapEqual(got, want) {
				t.Errorf("Fix() = %v, want %v", got.Interface(), want.Interface())
			}
			if !value.MapEqual(tree, before) {
				t.Error("Fix must not modify its input")
			}
			if res := Validate(got, true); !res.Valid {
				t.Errorf("fixed tree is invalid: %v", res.Errors)
			}
		})
	}
}

func TestFix_MissingFile(t *testing.T) {
	got, changed := Fix(nil)
	if !changed {
		t.Error("Fix(nil) should report a change")
	}
	if !value.MapEqual(got, Defaults()) {
		t.Errorf("Fix(nil) = %v, want defaults", got.Interface())
	}

	got.Set("defaultMode", value.String("mutated"))
	if v, _ := Defaults().Get("defaultMode"); !value.Equal(v, value.String("engineer")) {
		t.Error("Defaults() must return a fresh copy")
	}
}

func genFieldValue() gopter.Gen {
	return gen.OneGenOf(
		gen.Const(value.Null()),
		gen.Bool().Map(func(b bool) value.Value { return value.Bool(b) }),
		gen.IntRange(-5, 5).Map(func(i int) value.Value { return value.Int(i) }),
		gen.OneConstOf("engineer", "text", "json", "xml", "").Map(func(s string) value.Value { return value.String(s) }),
		gen.SliceOf(gen.AlphaString()).Map(func(s []string) value.Value { return value.Strings(s...) }),
		gen.Const(value.Array(value.Int(1), value.String("a"))),
		gen.Const(value.Mapping(nil)),
	)
}

// genSchemaTree assigns random values to a random subset of schema paths
// plus an unknown key.
func genSchemaTree() gopter.Gen {
	paths := []string{"theme"}
	for _, f := range Fields() {
		paths = append(paths, f.Path)
	}
	return gen.SliceOfN(len(paths), gen.PtrOf(genFieldValue())).Map(func(vals []*value.Value) *value.Map {
		m := value.NewMap()
		for i, v := range vals {
			if v != nil {
				m = value.Set(m, paths[i], *v)
			}
		}
		return m
	})
}

func TestFix_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("fix is idempotent", prop.ForAll(
		func(tree *value.Map) bool {
			once, _ := Fix(tree)
			twice, changed := Fix(once)
			return !changed && value.MapEqual(once, twice)
		},
		genSchemaTree(),
	))

	properties.Property("fixed trees validate", prop.ForAll(
		func(tree *value.Map) bool {
			fixed, _ := Fix(tree)
			return Validate(fixed, false).Valid
		},
		genSchemaTree(),
	))

	properties.Property("valid values are kept", prop.ForAll(
		func(tree *value.Map) bool {
			fixed, _ := Fix(tree)
			for _, f := range Fields() {
				v, ok := value.Get(tree, f.Path)
				if !ok || !f.Valid(v) {
					continue
				}
				if parent := f.Parent(); parent != "" {
					if pv, _ := value.Get(tree, parent); pv.Kind() != value.KindMap {
						continue
					}
				}
				got, _ := value.Get(fixed, f.Path)
				if !value.Equal(got, v) {
					return false
				}
			}
			return true
		},
		genSchemaTree(),
	))

	properties.TestingRun(t)
}
