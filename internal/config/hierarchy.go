package config

import (
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/layer"
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/loader"
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/scope"
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/value"
)

// SourceReport describes one source of the last resolution.
type SourceReport struct {
	Source layer.Source

	// Name is the source's display name.
	Name string

	// Path is the file read, or the first candidate when none was found.
	// Empty for defaults and the environment.
	Path string

	// Exists reports whether the file was present. For the environment it
	// reports whether any variable applied.
	Exists bool

	// Loaded reports whether the source contributed a tree.
	Loaded bool

	// Err is the read or parse failure of a present file.
	Err error

	// Data is the contribution; nil when nothing loaded.
	Data *value.Map
}

// HierarchyReport explains where the merged configuration came from.
type HierarchyReport struct {
	Layout scope.Layout

	// Sources are listed from lowest to highest precedence.
	Sources []SourceReport

	// Env lists the environment variables that applied.
	Env []loader.Applied

	// Merged is the effective configuration.
	Merged *value.Map

	// Attribution maps each effective leaf path to the source it came from.
	Attribution map[string]layer.Source
}

// Source returns the report for s.
func (h HierarchyReport) Source(s layer.Source) (SourceReport, bool) {
	for _, rep := range h.Sources {
		if rep.Source == s {
			return rep, true
		}
	}
	return SourceReport{}, false
}

// Hierarchy reports every source of the current resolution. It resolves
// first if needed and never writes.
func (r *Resolver) Hierarchy() HierarchyReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateResolved {
		r.resolveLocked()
	}
	return r.report.clone()
}

func (h HierarchyReport) clone() HierarchyReport {
	out := HierarchyReport{
		Layout:      h.Layout,
		Sources:     make([]SourceReport, len(h.Sources)),
		Env:         make([]loader.Applied, len(h.Env)),
		Merged:      h.Merged.Clone(),
		Attribution: make(map[string]layer.Source, len(h.Attribution)),
	}
	for i, s := range h.Sources {
		if s.Data != nil {
			s.Data = s.Data.Clone()
		}
		out.Sources[i] = s
	}
	copy(out.Env, h.Env)
	for k, v := range h.Attribution {
		out.Attribution[k] = v
	}
	return out
}
