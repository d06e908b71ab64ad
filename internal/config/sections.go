package config

import (
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/value"
)

// Section accessors return snapshot structs built from one resolution.
// Mutating a snapshot does not change the configuration; use Set.
// Values of the wrong type fall back to the default with a warning.

// Settings is the typed view of the merged configuration.
type Settings struct {
	// DefaultMode is the mode activated when none is requested.
	DefaultMode string

	// PreferredWorkflows are suggested first, in order.
	PreferredWorkflows []string

	// CustomTemplateSources are extra template locations.
	CustomTemplateSources []string

	UI           UIConfig
	Components   ComponentsConfig
	Integrations IntegrationsConfig
}

// UIConfig holds terminal output settings.
type UIConfig struct {
	ColorOutput    bool
	VerboseLogging bool

	// OutputFormat is "text" or "json".
	OutputFormat string
}

// ComponentsConfig lists the components to install.
type ComponentsConfig struct {
	Modes     []string
	Workflows []string
	Agents    []string
	Hooks     []string
}

// IntegrationsConfig holds settings for external tools.
type IntegrationsConfig struct {
	Git GitConfig
}

// GitConfig holds git integration settings.
type GitConfig struct {
	// AutoCommit commits generated files.
	AutoCommit bool
}

// Settings returns the typed view of the merged configuration.
func (r *Resolver) Settings() Settings {
	s := section{tree: r.Load(), r: r}
	return Settings{
		DefaultMode:           s.stringOr("defaultMode", "engineer"),
		PreferredWorkflows:    s.stringsOr("preferredWorkflows", nil),
		CustomTemplateSources: s.stringsOr("customTemplateSources", nil),
		UI:                    s.ui(),
		Components: ComponentsConfig{
			Modes:     s.stringsOr("components.modes", nil),
			Workflows: s.stringsOr("components.workflows", nil),
			Agents:    s.stringsOr("components.agents", nil),
			Hooks:     s.stringsOr("components.hooks", nil),
		},
		Integrations: IntegrationsConfig{
			Git: GitConfig{AutoCommit: s.boolOr("integrations.git.autoCommit", false)},
		},
	}
}

// UI returns the terminal output settings.
func (r *Resolver) UI() UIConfig {
	s := section{tree: r.Load(), r: r}
	return s.ui()
}

type section struct {
	tree *value.Map
	r    *Resolver
}

func (s section) ui() UIConfig {
	return UIConfig{
		ColorOutput:    s.boolOr("ui.colorOutput", true),
		VerboseLogging: s.boolOr("ui.verboseLogging", false),
		OutputFormat:   s.stringOr("ui.outputFormat", "text"),
	}
}

func (s section) lookup(path string) (value.Value, bool) {
	v, ok := value.Get(s.tree, path)
	if !ok || v.IsNull() {
		return value.Value{}, false
	}
	return v, true
}

func (s section) mismatch(path, want string, v value.Value) {
	s.r.log.Warn().Str("key", path).Str("expected", want).Str("got", v.Kind().String()).
		Msg("ignoring configuration value of the wrong type")
}

func (s section) stringOr(path, def string) string {
	v, ok := s.lookup(path)
	if !ok {
		return def
	}
	str, ok := v.AsString()
	if !ok {
		s.mismatch(path, "string", v)
		return def
	}
	return str
}

func (s section) boolOr(path string, def bool) bool {
	v, ok := s.lookup(path)
	if !ok {
		return def
	}
	b, ok := v.AsBool()
	if !ok {
		s.mismatch(path, "boolean", v)
		return def
	}
	return b
}

func (s section) stringsOr(path string, def []string) []string {
	v, ok := s.lookup(path)
	if !ok {
		return append([]string{}, def...)
	}
	items, ok := v.AsStrings()
	if !ok {
		s.mismatch(path, "array of strings", v)
		return append([]string{}, def...)
	}
	return items
}
