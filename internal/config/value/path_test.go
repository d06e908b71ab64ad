package value

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func sampleTree() *Map {
	ui := NewMap()
	ui.Set("colorOutput", Bool(true))
	ui.Set("verboseLogging", Bool(false))

	root := NewMap()
	root.Set("defaultMode", String("engineer"))
	root.Set("ui", Mapping(ui))
	root.Set("preferredWorkflows", Strings("review", "summarize"))
	return root
}

func TestGet(t *testing.T) {
	tree := sampleTree()

	tests := []struct {
		path  string
		want  Value
		found bool
	}{
		{"defaultMode", String("engineer"), true},
		{"ui.colorOutput", Bool(true), true},
		{"ui.verboseLogging", Bool(false), true},
		{"ui.missing", Value{}, false},
		{"defaultMode.length", Value{}, false},
		{"", Value{}, false},
		{"a.b.c.d.e", Value{}, false},
		{"preferredWorkflows.0", Value{}, false},
	}

	for _, tt := range tests {
		got, ok := Get(tree, tt.path)
		if ok != tt.found {
			t.Errorf("Get(%q) found = %v, want %v", tt.path, ok, tt.found)
			continue
		}
		if ok && !Equal(got, tt.want) {
			t.Errorf("Get(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestGet_Mapping(t *testing.T) {
	v, ok := Get(sampleTree(), "ui")
	if !ok {
		t.Fatal("Get(ui) not found")
	}
	if v.Kind() != KindMap {
		t.Fatalf("Get(ui) kind = %v, want mapping", v.Kind())
	}
}

func TestGet_NilTree(t *testing.T) {
	if _, ok := Get(nil, "anything"); ok {
		t.Error("Get on nil tree should not find anything")
	}
}

func TestSet(t *testing.T) {
	tree := sampleTree()

	updated := Set(tree, "ui.colorOutput", Bool(false))
	if v, _ := Get(updated, "ui.colorOutput"); !Equal(v, Bool(false)) {
		t.Errorf("ui.colorOutput = %v, want false", v)
	}
	if v, _ := Get(tree, "ui.colorOutput"); !Equal(v, Bool(true)) {
		t.Error("Set mutated the input tree")
	}
	if v, _ := Get(updated, "ui.verboseLogging"); !Equal(v, Bool(false)) {
		t.Error("Set dropped a sibling key")
	}
}

func TestSet_CreatesIntermediates(t *testing.T) {
	updated := Set(nil, "integrations.git.autoCommit", Bool(true))

	v, ok := Get(updated, "integrations.git.autoCommit")
	if !ok || !Equal(v, Bool(true)) {
		t.Fatalf("integrations.git.autoCommit = %v (found %v), want true", v, ok)
	}
}

func TestSet_ReplacesScalarIntermediate(t *testing.T) {
	updated := Set(sampleTree(), "defaultMode.name", String("architect"))

	v, ok := Get(updated, "defaultMode.name")
	if !ok || !Equal(v, String("architect")) {
		t.Fatalf("defaultMode.name = %v (found %v), want architect", v, ok)
	}
}

func TestSet_PreservesOrder(t *testing.T) {
	updated := Set(sampleTree(), "defaultMode", String("architect"))
	updated = Set(updated, "customTemplateSources", Strings("https://example.com"))

	want := []string{"defaultMode", "ui", "preferredWorkflows", "customTemplateSources"}
	if got := updated.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
}

func TestUnset(t *testing.T) {
	tree := sampleTree()

	updated := Unset(tree, "ui.colorOutput")
	if _, ok := Get(updated, "ui.colorOutput"); ok {
		t.Error("ui.colorOutput still present after Unset")
	}
	if _, ok := Get(tree, "ui.colorOutput"); !ok {
		t.Error("Unset mutated the input tree")
	}

	// Parent mapping is kept even when emptied.
	updated = Unset(updated, "ui.verboseLogging")
	ui, ok := Get(updated, "ui")
	if !ok {
		t.Fatal("ui pruned after removing its last key")
	}
	if m, _ := ui.AsMap(); m.Len() != 0 {
		t.Errorf("ui has %d keys, want 0", m.Len())
	}
}

func TestUnset_MissingPath(t *testing.T) {
	tree := sampleTree()
	for _, path := range []string{"nope", "nope.deeper", "defaultMode.x", "", "ui.colorOutput.x"} {
		updated := Unset(tree, path)
		if !MapEqual(updated, tree) {
			t.Errorf("Unset(%q) changed the tree", path)
		}
	}
}

func TestFlatten(t *testing.T) {
	got := Flatten(sampleTree())
	want := []string{"defaultMode", "preferredWorkflows", "ui.colorOutput", "ui.verboseLogging"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Flatten() = %v, want %v", got, want)
	}
}

func TestValidPath(t *testing.T) {
	tests := map[string]bool{
		"defaultMode":    true,
		"ui.colorOutput": true,
		"":               false,
		"ui.":            false,
		".ui":            false,
		"a..b":           false,
	}
	for path, want := range tests {
		if got := ValidPath(path); got != want {
			t.Errorf("ValidPath(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestPathAccessorTotality(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	genPath := gen.SliceOf(gen.OneConstOf("", "ui", "colorOutput", "defaultMode", "x", "preferredWorkflows")).
		Map(func(parts []string) string {
			path := ""
			for i, p := range parts {
				if i > 0 {
					path += "."
				}
				path += p
			}
			return path
		})

	properties.Property("get, set and unset never panic", prop.ForAll(
		func(path string) bool {
			tree := sampleTree()
			_, _ = Get(tree, path)
			_ = Set(tree, path, String("v"))
			_ = Unset(tree, path)
			return true
		},
		genPath,
	))

	properties.Property("set then get returns the value", prop.ForAll(
		func(path string) bool {
			updated := Set(sampleTree(), path, Int(7))
			v, ok := Get(updated, path)
			return ok && Equal(v, Int(7))
		},
		genPath,
	))

	properties.Property("unset after set removes the leaf", prop.ForAll(
		func(path string) bool {
			updated := Unset(Set(sampleTree(), path, Int(7)), path)
			_, ok := Get(updated, path)
			return !ok
		},
		genPath,
	))

	properties.TestingRun(t)
}
