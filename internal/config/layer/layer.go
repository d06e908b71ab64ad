// Package layer merges configuration sources in precedence order.
//
// Each source becomes a Layer; higher priority layers override lower ones.
// Mappings present in two layers merge recursively. Every other value,
// arrays included, is replaced wholesale by the higher layer.
package layer

import (
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/value"
)

// Layer represents a single configuration source.
type Layer struct {
	// Name identifies the layer (e.g. "defaults", "project").
	Name string

	// Priority determines merge order (higher overrides lower).
	Priority int

	// Source indicates where this layer was loaded from.
	Source Source

	// Path is the file the layer was read from, if any.
	Path string

	// Data holds the layer's configuration tree.
	Data *value.Map
}

// NewLayer creates an empty layer with the standard name and priority for
// source.
func NewLayer(source Source) *Layer {
	return &Layer{
		Name:     source.String(),
		Source:   source,
		Priority: DefaultPriority(source),
		Data:     value.NewMap(),
	}
}

// NewLayerWithData creates a layer holding data. A nil tree is kept as an
// empty mapping.
func NewLayerWithData(source Source, path string, data *value.Map) *Layer {
	l := NewLayer(source)
	l.Path = path
	if data != nil {
		l.Data = data
	}
	return l
}
