// Package registry describes every setting memento knows about.
//
// The catalog combines the schema's field table with human-readable
// descriptions and the environment variables that override each setting.
// It backs `memento config keys`.
package registry

import (
	"strings"

	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/codec"
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/schema"
)

// Setting describes one configuration key.
type Setting struct {
	// Path is the dot path, e.g. "ui.colorOutput".
	Path string

	Type schema.Type

	// Default is the encoded default, empty when the key has none.
	Default string

	// Enum lists the allowed values of enumerated strings.
	Enum []string

	// Description is human-readable documentation.
	Description string

	// Env is the overriding environment variable, if any.
	Env string

	// Tags group related settings.
	Tags []string
}

// Section returns the first segment of the path.
func (s *Setting) Section() string {
	if i := strings.IndexByte(s.Path, '.'); i >= 0 {
		return s.Path[:i]
	}
	return s.Path
}

// HasDefault reports whether the setting has a default.
func (s *Setting) HasDefault() bool {
	return s.Default != ""
}

// matches reports whether the lower-cased query occurs in the path,
// description, env variable or a tag.
func (s *Setting) matches(query string) bool {
	if query == "" {
		return true
	}
	if strings.Contains(strings.ToLower(s.Path), query) ||
		strings.Contains(strings.ToLower(s.Description), query) ||
		strings.Contains(strings.ToLower(s.Env), query) {
		return true
	}
	for _, tag := range s.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func fromField(f schema.Field) Setting {
	s := Setting{
		Path: f.Path,
		Type: f.Type,
		Enum: append([]string(nil), f.Enum...),
	}
	if f.HasDefault() {
		if enc, err := codec.EncodeValue(*f.Default); err == nil {
			s.Default = enc
		}
	}
	return s
}
