package value

import (
	"testing"
)

func TestEqual(t *testing.T) {
	a := NewMap()
	a.Set("x", Int(1))
	a.Set("y", Strings("p", "q"))
	b := NewMap()
	b.Set("y", Strings("p", "q"))
	b.Set("x", Number(1.0))

	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"null", Null(), Null(), true},
		{"bool", Bool(true), Bool(true), true},
		{"bool differs", Bool(true), Bool(false), false},
		{"number", Int(3), Number(3), true},
		{"string vs number", String("3"), Int(3), false},
		{"array order matters", Strings("a", "b"), Strings("b", "a"), false},
		{"empty arrays", Array(), Strings(), true},
		{"map order ignored", Mapping(a), Mapping(b), true},
		{"map vs null", Mapping(nil), Null(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClone_Deep(t *testing.T) {
	inner := NewMap()
	inner.Set("k", String("v"))
	orig := NewMap()
	orig.Set("inner", Mapping(inner))

	clone := orig.Clone()
	innerClone, _ := clone.Get("inner")
	m, _ := innerClone.AsMap()
	m.Set("k", String("changed"))

	if v, _ := Get(orig, "inner.k"); !Equal(v, String("v")) {
		t.Errorf("original mutated through clone: inner.k = %v", v)
	}
}

func TestAsStrings(t *testing.T) {
	if got, ok := Strings("a", "b").AsStrings(); !ok || len(got) != 2 {
		t.Errorf("AsStrings() = %v, %v", got, ok)
	}
	if _, ok := Array(String("a"), Int(1)).AsStrings(); ok {
		t.Error("AsStrings() accepted a mixed array")
	}
	if _, ok := String("a").AsStrings(); ok {
		t.Error("AsStrings() accepted a scalar")
	}
}

func TestFromInterface(t *testing.T) {
	v, err := FromInterface(map[string]any{
		"b": []any{"x", int64(2), nil},
		"a": map[string]any{"flag": true},
	})
	if err != nil {
		t.Fatalf("FromInterface() error = %v", err)
	}

	m, ok := v.AsMap()
	if !ok {
		t.Fatalf("kind = %v, want mapping", v.Kind())
	}
	if keys := m.Keys(); keys[0] != "a" || keys[1] != "b" {
		t.Errorf("keys = %v, want sorted [a b]", keys)
	}

	want := Array(String("x"), Int(2), Null())
	if got, _ := m.Get("b"); !Equal(got, want) {
		t.Errorf("b = %v, want %v", got, want)
	}
}

func TestFromInterface_Unsupported(t *testing.T) {
	if _, err := FromInterface(struct{}{}); err == nil {
		t.Error("expected error for unsupported type")
	}
}

func TestInterface_Integral(t *testing.T) {
	if got := Int(4).Interface(); got != int64(4) {
		t.Errorf("Int(4).Interface() = %#v, want int64(4)", got)
	}
	if got := Number(0.5).Interface(); got != 0.5 {
		t.Errorf("Number(0.5).Interface() = %#v, want 0.5", got)
	}
}

func TestMapDelete(t *testing.T) {
	m := NewMap()
	m.Set("a", Int(1))
	m.Set("b", Int(2))
	m.Set("c", Int(3))

	if !m.Delete("b") {
		t.Fatal("Delete(b) = false")
	}
	if m.Delete("b") {
		t.Error("second Delete(b) = true")
	}
	if keys := m.Keys(); len(keys) != 2 || keys[0] != "a" || keys[1] != "c" {
		t.Errorf("Keys() = %v, want [a c]", keys)
	}

	var nilMap *Map
	if nilMap.Delete("a") || nilMap.Len() != 0 || nilMap.Has("a") {
		t.Error("nil map should behave as empty")
	}
}
