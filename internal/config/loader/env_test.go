package loader

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/value"
)

func envOf(vars map[string]string) EnvFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestEnvMapper_Load(t *testing.T) {
	var logs bytes.Buffer
	m := NewEnvMapper(envOf(map[string]string{
		"MEMENTO_DEFAULT_MODE": "reviewer",
		"MEMENTO_COLOR_OUTPUT": "FALSE",
		"MEMENTO_VERBOSE":      "True",
		"MEMENTO_MODES":        " engineer, ,architect ,",
		"MEMENTO_UNRELATED":    "x",
	}), zerolog.New(&logs))

	tree, applied := m.Load()

	checks := map[string]value.Value{
		"defaultMode":       value.String("reviewer"),
		"ui.colorOutput":    value.Bool(false),
		"ui.verboseLogging": value.Bool(true),
		"components.modes":  value.Strings("engineer", "architect"),
	}
	for path, want := range checks {
		if got, _ := value.Get(tree, path); !value.Equal(got, want) {
			t.Errorf("%s = %v, want %v", path, got, want)
		}
	}

	if _, ok := value.Get(tree, "components.workflows"); ok {
		t.Error("unset variables must not contribute")
	}
	if len(applied) != 4 {
		t.Errorf("applied = %d, want 4", len(applied))
	}
	if logs.Len() != 0 {
		t.Errorf("unexpected warnings: %s", logs.String())
	}
}

func TestEnvMapper_InvalidValueSkipped(t *testing.T) {
	var logs bytes.Buffer
	m := NewEnvMapper(envOf(map[string]string{
		"MEMENTO_COLOR_OUTPUT": "yes",
		"MEMENTO_DEFAULT_MODE": "engineer",
	}), zerolog.New(&logs))

	tree, applied := m.Load()

	if _, ok := value.Get(tree, "ui.colorOutput"); ok {
		t.Error("invalid boolean should be skipped")
	}
	if len(applied) != 1 || applied[0].Var != "MEMENTO_DEFAULT_MODE" {
		t.Errorf("applied = %+v", applied)
	}
	if !strings.Contains(logs.String(), "MEMENTO_COLOR_OUTPUT") {
		t.Errorf("expected a warning naming the variable, got %q", logs.String())
	}
}

func TestEnvMapper_EmptyValues(t *testing.T) {
	m := NewEnvMapper(envOf(map[string]string{
		"MEMENTO_DEFAULT_MODE": "",
		"MEMENTO_WORKFLOWS":    "",
	}), zerolog.Nop())

	tree, _ := m.Load()
	if v, _ := value.Get(tree, "defaultMode"); !value.Equal(v, value.String("")) {
		t.Errorf("empty string should be kept as a value, got %v", v)
	}
	if v, _ := value.Get(tree, "components.workflows"); !value.Equal(v, value.Array()) {
		t.Errorf("empty list = %v, want []", v)
	}
}

func TestEnvMapper_CustomTable(t *testing.T) {
	m := NewEnvMapperWithTable(envOf(map[string]string{
		"MEMENTO_RETRIES": "3",
		"MEMENTO_LIMIT":   "lots",
	}), []EnvBinding{
		{Var: "MEMENTO_RETRIES", Path: "network.retries", Coerce: CoerceInt},
		{Var: "MEMENTO_LIMIT", Path: "network.limit", Coerce: CoerceInt},
	}, zerolog.Nop())

	tree, _ := m.Load()
	if v, _ := value.Get(tree, "network.retries"); !value.Equal(v, value.Int(3)) {
		t.Errorf("network.retries = %v, want 3", v)
	}
	if _, ok := value.Get(tree, "network.limit"); ok {
		t.Error("non-integer should be skipped")
	}

	if len(m.Table()) != 2 {
		t.Errorf("Table() = %v", m.Table())
	}
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		raw  string
		c    Coercion
		want value.Value
		ok   bool
	}{
		{"x y", CoerceString, value.String("x y"), true},
		{"true", CoerceBool, value.Bool(true), true},
		{" false ", CoerceBool, value.Bool(false), true},
		{"1", CoerceBool, value.Value{}, false},
		{"42", CoerceInt, value.Int(42), true},
		{"-7", CoerceInt, value.Int(-7), true},
		{"4.5", CoerceInt, value.Value{}, false},
		{"a,b", CoerceList, value.Strings("a", "b"), true},
		{",,", CoerceList, value.Array(), true},
	}
	for _, tt := range tests {
		got, ok := Coerce(tt.raw, tt.c)
		if ok != tt.ok || (ok && !value.Equal(got, tt.want)) {
			t.Errorf("Coerce(%q, %s) = %v, %v; want %v, %v", tt.raw, tt.c, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDefaultEnvTable(t *testing.T) {
	table := DefaultEnvTable()
	if len(table) != 6 {
		t.Fatalf("len(DefaultEnvTable()) = %d, want 6", len(table))
	}
	for _, b := range table {
		if !strings.HasPrefix(b.Var, EnvPrefix) {
			t.Errorf("%s lacks the %s prefix", b.Var, EnvPrefix)
		}
	}
}
