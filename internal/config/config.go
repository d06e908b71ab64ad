package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/layer"
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/loader"
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/migrate"
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/notify"
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/schema"
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/scope"
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/value"
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/logging"
)

// State is the resolution state of a Resolver.
type State int

const (
	// StateUnresolved means no merged tree is cached.
	StateUnresolved State = iota

	// StateResolving means sources are being read.
	StateResolving

	// StateResolved means the cached tree is current.
	StateResolved
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateResolving:
		return "resolving"
	case StateResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Resolver merges every configuration source and edits the structured
// files of both scopes.
type Resolver struct {
	mu    sync.Mutex
	state State

	// Layer manager holding the six sources of the last resolution
	layers *layer.Manager

	// report describes the last resolution.
	report HierarchyReport

	notifier  *notify.Notifier
	validator *schema.Validator
	loader    *loader.Loader
	env       *loader.EnvMapper
	migrator  *migrate.Migrator
	layout    scope.Layout

	// Options
	fs       afero.Fs
	log      zerolog.Logger
	homeDir  string
	workDir  string
	lookup   loader.EnvFunc
	envTable []loader.EnvBinding
	now      func() time.Time
	strict   bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHomeDir sets the root of the global scope.
func WithHomeDir(dir string) Option {
	return func(r *Resolver) {
		r.homeDir = dir
	}
}

// WithWorkDir sets the root of the project scope.
func WithWorkDir(dir string) Option {
	return func(r *Resolver) {
		r.workDir = dir
	}
}

// WithFS sets the filesystem. The default is the OS filesystem.
func WithFS(fsys afero.Fs) Option {
	return func(r *Resolver) {
		r.fs = fsys
	}
}

// WithLogger sets the logger for warnings about skipped sources.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Resolver) {
		r.log = log
	}
}

// WithEnv sets the environment lookup. The default is os.LookupEnv.
func WithEnv(lookup loader.EnvFunc) Option {
	return func(r *Resolver) {
		r.lookup = lookup
	}
}

// WithEnvTable replaces the environment variable table.
func WithEnvTable(table []loader.EnvBinding) Option {
	return func(r *Resolver) {
		r.envTable = table
	}
}

// WithClock sets the time source used for migration backups.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// WithStrictValidation makes unknown top-level keys errors in ValidateFile.
func WithStrictValidation(strict bool) Option {
	return func(r *Resolver) {
		r.strict = strict
	}
}

// New creates a Resolver. The home and working directories default to the
// process's; failing to determine either is an error.
func New(opts ...Option) (*Resolver, error) {
	r := &Resolver{
		layers:   layer.NewManager(),
		notifier: notify.New(),
		log:      logging.Component("config"),
		envTable: loader.DefaultEnvTable(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.homeDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("determining home directory: %w", err)
		}
		r.homeDir = home
	}
	if r.workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determining working directory: %w", err)
		}
		r.workDir = wd
	}
	if r.fs == nil {
		r.fs = afero.NewOsFs()
	}
	if r.now == nil {
		r.now = time.Now
	}

	r.layout = scope.Resolve(r.homeDir, r.workDir)
	r.loader = loader.New(r.fs, r.log)
	r.env = loader.NewEnvMapperWithTable(r.lookup, r.envTable, r.log)
	r.migrator = migrate.New(r.fs, r.now, r.log)
	r.validator = schema.NewValidator().WithStrictMode(r.strict)

	return r, nil
}

// Layout returns the candidate paths of both scopes.
func (r *Resolver) Layout() scope.Layout {
	return r.layout
}

// State returns the current resolution state.
func (r *Resolver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Load returns the merged configuration of all six sources. Missing or
// broken sources contribute nothing, so Load never fails. The returned
// tree belongs to the caller.
func (r *Resolver) Load() *value.Map {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateResolved {
		r.resolveLocked()
	}
	return r.layers.Merge()
}

// Get returns the merged value at a dot path.
func (r *Resolver) Get(path string) (value.Value, bool) {
	return value.Get(r.Load(), path)
}

// Invalidate drops the cached resolution.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidateLocked()
}

func (r *Resolver) invalidateLocked() {
	r.state = StateUnresolved
	r.layers.Invalidate()
}

// Migrate converts legacy JSON structured files of both scopes. The cache
// is dropped when anything was migrated.
func (r *Resolver) Migrate() []migrate.Result {
	results := r.migrator.MigrateAll(r.layout)
	for _, res := range results {
		if res.Migrated {
			r.Invalidate()
			break
		}
	}
	return results
}

// Subscribe registers an observer for changes to the merged tree. Changes
// are published after writes made through the Resolver and by Reload.
func (r *Resolver) Subscribe(observer notify.Observer) *notify.Subscription {
	return r.notifier.Subscribe(observer)
}

// SubscribePath registers an observer for changes at or below path.
func (r *Resolver) SubscribePath(path string, observer notify.Observer) *notify.Subscription {
	return r.notifier.SubscribePath(path, observer)
}

// Reload re-reads every source and publishes the differences from the
// last resolution, even one invalidated since. source names the trigger
// in the published changes. Before the first resolution there is no
// baseline and nothing is published.
func (r *Resolver) Reload(source string) []notify.Change {
	r.mu.Lock()
	old := r.report.Merged
	r.resolveLocked()
	next := r.report.Merged
	r.mu.Unlock()

	if old == nil {
		return nil
	}
	changes := notify.Compute(old, next, source)
	r.notifier.Publish(source, changes)
	return changes
}

// changed is called after a write. Subscribers get the diff; otherwise the
// cache is only dropped.
func (r *Resolver) changed(source string) {
	if !r.notifier.HasSubscribers() {
		r.Invalidate()
		return
	}
	r.Reload(source)
}

// resolveLocked reads all sources into the layer manager. Must be called
// with r.mu held.
func (r *Resolver) resolveLocked() {
	r.state = StateResolving
	r.layers.Clear()

	defaults := layer.NewLayerWithData(layer.SourceDefaults, "", schema.Defaults())

	reports := []SourceReport{{
		Source: layer.SourceDefaults,
		Name:   layer.SourceDefaults.String(),
		Exists: true,
		Loaded: true,
		Data:   defaults.Data.Clone(),
	}}
	r.layers.AddLayer(defaults)

	for _, p := range []scope.Paths{r.layout.Global, r.layout.Project} {
		rcSource, structuredSource := layer.SourceProjectRC, layer.SourceProjectStructured
		if p.Scope == scope.Global {
			rcSource, structuredSource = layer.SourceGlobalRC, layer.SourceGlobalStructured
		}

		winner, attempts := r.loader.LoadFirst(p.RC)
		reports = append(reports, r.addFileLayer(rcSource, rcReport(p, winner, attempts)))

		structured := r.loader.LoadStructured(p.Structured, p.StructuredAlt)
		reports = append(reports, r.addFileLayer(structuredSource, structured))
	}

	envTree, applied := r.env.Load()
	env := layer.NewLayerWithData(layer.SourceEnv, "", envTree)
	r.layers.AddLayer(env)
	reports = append(reports, SourceReport{
		Source: layer.SourceEnv,
		Name:   layer.SourceEnv.String(),
		Exists: len(applied) > 0,
		Loaded: len(applied) > 0,
		Data:   envTree.Clone(),
	})

	merged := r.layers.Merge()
	r.report = HierarchyReport{
		Layout:      r.layout,
		Sources:     reports,
		Env:         applied,
		Merged:      merged,
		Attribution: r.attribute(merged),
	}
	r.state = StateResolved

	r.log.Debug().Int("layers", r.layers.LayerCount()).Int("env", len(applied)).Msg("resolved configuration")
}

func (r *Resolver) addFileLayer(source layer.Source, res loader.Result) SourceReport {
	rep := SourceReport{
		Source: source,
		Name:   source.String(),
		Path:   res.Path,
		Exists: res.Exists,
		Loaded: res.Loaded(),
		Err:    res.Err,
	}
	if res.Loaded() {
		r.layers.AddLayer(layer.NewLayerWithData(source, res.Path, res.Data))
		rep.Data = res.Data.Clone()
	}
	return rep
}

// rcReport picks what to report for an RC scope: the winning candidate,
// else the first one that exists but failed, else the first candidate.
func rcReport(p scope.Paths, winner loader.Result, attempts []loader.Result) loader.Result {
	if winner.Loaded() {
		return winner
	}
	for _, a := range attempts {
		if a.Exists {
			return a
		}
	}
	if len(p.RC) > 0 {
		return loader.Result{Path: p.RC[0]}
	}
	return loader.Result{}
}

// attribute maps each effective leaf to the source that supplied it.
func (r *Resolver) attribute(merged *value.Map) map[string]layer.Source {
	out := make(map[string]layer.Source)
	for _, path := range value.Flatten(merged) {
		if _, l, ok := r.layers.Get(path); ok {
			out[path] = l.Source
		}
	}
	return out
}
