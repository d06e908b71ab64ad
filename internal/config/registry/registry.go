package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/loader"
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/schema"
)

// ErrSettingAlreadyRegistered is returned when registering a path twice.
var ErrSettingAlreadyRegistered = errors.New("setting already registered")

// Registry is a catalog of settings, safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	settings map[string]*Setting
	order    []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{settings: make(map[string]*Setting)}
}

// NewWithDefaults creates a registry holding every schema field, described
// and linked to the default environment table.
func NewWithDefaults() *Registry {
	r := New()
	r.RegisterDefaults(loader.DefaultEnvTable())
	return r
}

// Register adds a setting. Registering a path twice is an error.
func (r *Registry) Register(setting Setting) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.settings[setting.Path]; exists {
		return fmt.Errorf("%w: %s", ErrSettingAlreadyRegistered, setting.Path)
	}
	s := setting
	r.settings[s.Path] = &s
	r.order = append(r.order, s.Path)
	return nil
}

// MustRegister registers a setting and panics on error.
func (r *Registry) MustRegister(setting Setting) {
	if err := r.Register(setting); err != nil {
		panic(err)
	}
}

// Get returns the setting at path, or nil.
func (r *Registry) Get(path string) *Setting {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings[path]
}

// Has reports whether path is registered.
func (r *Registry) Has(path string) bool {
	return r.Get(path) != nil
}

// All returns every setting in registration order.
func (r *Registry) All() []*Setting {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Setting, 0, len(r.order))
	for _, p := range r.order {
		out = append(out, r.settings[p])
	}
	return out
}

// Section returns the settings whose first path segment is name.
func (r *Registry) Section(name string) []*Setting {
	var out []*Setting
	for _, s := range r.All() {
		if s.Section() == name {
			out = append(out, s)
		}
	}
	return out
}

// Sections returns the section names, sorted.
func (r *Registry) Sections() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range r.All() {
		if sec := s.Section(); !seen[sec] {
			seen[sec] = true
			out = append(out, sec)
		}
	}
	sort.Strings(out)
	return out
}

// Search returns settings matching query, case-insensitive, in
// registration order. An empty query matches everything.
func (r *Registry) Search(query string) []*Setting {
	query = strings.ToLower(strings.TrimSpace(query))
	var out []*Setting
	for _, s := range r.All() {
		if s.matches(query) {
			out = append(out, s)
		}
	}
	return out
}

// ByTag returns settings carrying tag.
func (r *Registry) ByTag(tag string) []*Setting {
	var out []*Setting
	for _, s := range r.All() {
		for _, t := range s.Tags {
			if t == tag {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

var descriptions = map[string]struct {
	text string
	tags []string
}{
	"defaultMode":                 {"Mode activated when none is requested explicitly.", []string{"modes"}},
	"preferredWorkflows":          {"Workflows suggested first, in order.", []string{"workflows"}},
	"customTemplateSources":       {"Extra directories or URLs that templates are installed from.", []string{"templates"}},
	"ui":                          {"Terminal output settings.", []string{"ui"}},
	"ui.colorOutput":              {"Colored terminal output.", []string{"ui"}},
	"ui.verboseLogging":           {"Extra diagnostics on stderr.", []string{"ui", "logging"}},
	"ui.outputFormat":             {"Output of list-style commands.", []string{"ui"}},
	"components":                  {"Components to install.", []string{"components"}},
	"components.modes":            {"Modes to install.", []string{"components", "modes"}},
	"components.workflows":        {"Workflows to install.", []string{"components", "workflows"}},
	"components.agents":           {"Agents to install.", []string{"components"}},
	"components.hooks":            {"Hooks to install.", []string{"components", "hooks"}},
	"integrations":                {"Settings for external tools.", []string{"integrations"}},
	"integrations.git":            {"Git integration.", []string{"integrations", "git"}},
	"integrations.git.autoCommit": {"Commit generated files automatically.", []string{"integrations", "git"}},
}

// RegisterDefaults registers every schema field, linking each to the
// variable in env that overrides it.
func (r *Registry) RegisterDefaults(env []loader.EnvBinding) {
	vars := make(map[string]string, len(env))
	for _, b := range env {
		vars[b.Path] = b.Var
	}

	for _, f := range schema.Fields() {
		s := fromField(f)
		d := descriptions[f.Path]
		s.Description = d.text
		s.Tags = d.tags
		s.Env = vars[f.Path]
		r.MustRegister(s)
	}
}
