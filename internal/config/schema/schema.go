// Package schema describes the recognized memento configuration keys and
// checks and repairs configuration trees against them.
//
// The field table is closed. Keys it does not name are passed through
// untouched; a full validation only warns about unknown top-level keys.
package schema

import (
	"strings"

	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/value"
)

// Type is the expected kind of a schema field.
type Type uint8

const (
	// TypeString requires a string.
	TypeString Type = iota
	// TypeBoolean requires a boolean.
	TypeBoolean
	// TypeStringArray requires an array whose items are all strings.
	TypeStringArray
	// TypeObject requires a mapping.
	TypeObject
)

// String returns the name used in messages.
func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeBoolean:
		return "boolean"
	case TypeStringArray:
		return "array of strings"
	case TypeObject:
		return "object"
	default:
		return "unknown"
	}
}

// Matches reports whether v has kind t.
func (t Type) Matches(v value.Value) bool {
	switch t {
	case TypeString:
		return v.Kind() == value.KindString
	case TypeBoolean:
		return v.Kind() == value.KindBool
	case TypeStringArray:
		_, ok := v.AsStrings()
		return ok
	case TypeObject:
		return v.Kind() == value.KindMap
	default:
		return false
	}
}

// Field is one recognized key.
type Field struct {
	// Path is the dot-path of the key.
	Path string

	// Type is the expected kind.
	Type Type

	// Label names the key in error messages, e.g. "Default mode".
	Label string

	// Default is used by the fixer; nil when the field has none.
	Default *value.Value

	// Enum lists the allowed string values, if restricted.
	Enum []string
}

// HasDefault reports whether the field carries a default.
func (f Field) HasDefault() bool {
	return f.Default != nil
}

// Parent returns the dot-path of the enclosing key, or "" for top-level
// fields.
func (f Field) Parent() string {
	if i := strings.LastIndex(f.Path, "."); i >= 0 {
		return f.Path[:i]
	}
	return ""
}

// Message is the error reported when the field holds the wrong value.
func (f Field) Message() string {
	if len(f.Enum) > 0 {
		return f.Label + " must be one of: " + strings.Join(f.Enum, ", ")
	}
	switch f.Type {
	case TypeString:
		return f.Label + " must be a string"
	case TypeBoolean:
		return f.Label + " must be a boolean"
	case TypeStringArray:
		return f.Label + " must be an array of strings"
	default:
		return f.Label + " must be an object"
	}
}

// Valid reports whether v satisfies the field.
func (f Field) Valid(v value.Value) bool {
	if !f.Type.Matches(v) {
		return false
	}
	if len(f.Enum) == 0 {
		return true
	}
	s, _ := v.AsString()
	for _, allowed := range f.Enum {
		if s == allowed {
			return true
		}
	}
	return false
}

func def(v value.Value) *value.Value { return &v }

func uiDefault() value.Value {
	ui := value.NewMap()
	ui.Set("colorOutput", value.Bool(true))
	ui.Set("verboseLogging", value.Bool(false))
	return value.Mapping(ui)
}

// Fields returns the field table. Parents always precede their children.
func Fields() []Field {
	return []Field{
		{Path: "defaultMode", Type: TypeString, Label: "Default mode", Default: def(value.String("engineer"))},
		{Path: "preferredWorkflows", Type: TypeStringArray, Label: "Preferred workflows", Default: def(value.Array())},
		{Path: "customTemplateSources", Type: TypeStringArray, Label: "Custom template sources"},
		{Path: "ui", Type: TypeObject, Label: "UI", Default: def(uiDefault())},
		{Path: "ui.colorOutput", Type: TypeBoolean, Label: "UI.colorOutput", Default: def(value.Bool(true))},
		{Path: "ui.verboseLogging", Type: TypeBoolean, Label: "UI.verboseLogging", Default: def(value.Bool(false))},
		{Path: "ui.outputFormat", Type: TypeString, Label: "UI.outputFormat", Enum: []string{"text", "json"}},
		{Path: "components", Type: TypeObject, Label: "Components"},
		{Path: "components.modes", Type: TypeStringArray, Label: "Components.modes"},
		{Path: "components.workflows", Type: TypeStringArray, Label: "Components.workflows"},
		{Path: "components.agents", Type: TypeStringArray, Label: "Components.agents"},
		{Path: "components.hooks", Type: TypeStringArray, Label: "Components.hooks"},
		{Path: "integrations", Type: TypeObject, Label: "Integrations"},
		{Path: "integrations.git", Type: TypeObject, Label: "Integrations.git"},
		{Path: "integrations.git.autoCommit", Type: TypeBoolean, Label: "Integrations.git.autoCommit"},
	}
}

// Lookup returns the field for path.
func Lookup(path string) (Field, bool) {
	for _, f := range Fields() {
		if f.Path == path {
			return f, true
		}
	}
	return Field{}, false
}

// Known reports whether key is a recognized top-level key.
func Known(key string) bool {
	for _, f := range Fields() {
		if f.Parent() == "" && f.Path == key {
			return true
		}
	}
	return false
}

// Defaults returns a fresh copy of the built-in default tree.
func Defaults() *value.Map {
	m := value.NewMap()
	for _, f := range Fields() {
		if f.Parent() == "" && f.HasDefault() {
			m.Set(f.Path, f.Default.Clone())
		}
	}
	return m
}
