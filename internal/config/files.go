package config

import (
	"fmt"

	"github.com/spf13/afero"

	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/codec"
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/schema"
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/scope"
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/value"
)

// StructuredPath returns the structured file of a scope: config.yml when
// only that exists, config.yaml otherwise.
func (r *Resolver) StructuredPath(global bool) string {
	p := r.layout.For(scope.FromGlobal(global))
	return r.loader.PickExisting(p.Structured, p.StructuredAlt)
}

// ReadFile returns the parsed structured file of a scope. A missing file
// yields ErrNotFound; a broken one its *ParseError.
func (r *Resolver) ReadFile(global bool) (*value.Map, error) {
	p := r.layout.For(scope.FromGlobal(global))
	res := r.loader.LoadStructured(p.Structured, p.StructuredAlt)
	if res.Err != nil {
		return nil, res.Err
	}
	if !res.Exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, res.Path)
	}
	return res.Data, nil
}

// readForUpdate is ReadFile with a missing file treated as empty.
func (r *Resolver) readForUpdate(global bool) (*value.Map, error) {
	tree, err := r.ReadFile(global)
	if err == nil {
		return tree, nil
	}
	if isNotFound(err) {
		return value.NewMap(), nil
	}
	return nil, err
}

// List returns a scope's structured file contents, or an empty tree when
// the file is missing or unreadable.
func (r *Resolver) List(global bool) *value.Map {
	tree, err := r.ReadFile(global)
	if err != nil {
		return value.NewMap()
	}
	return tree
}

// Set stores v at path in a scope's structured file. A file that fails to
// parse blocks the write, as does a value the schema rejects.
func (r *Resolver) Set(path string, v value.Value, global bool) error {
	if !value.ValidPath(path) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	tree, err := r.readForUpdate(global)
	if err != nil {
		return fmt.Errorf("reading %s config: %w", scope.FromGlobal(global), err)
	}

	next := value.Set(tree, path, v)
	if res := r.validator.Validate(next, true); !res.Valid {
		return &ValidationError{Errors: res.Errors}
	}
	return r.Save(next, global)
}

// Unset removes path from a scope's structured file. Nothing is written
// when the file or the key does not exist.
func (r *Resolver) Unset(path string, global bool) error {
	if !value.ValidPath(path) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	tree, err := r.ReadFile(global)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s config: %w", scope.FromGlobal(global), err)
	}

	if _, ok := value.Get(tree, path); !ok {
		return nil
	}
	return r.Save(value.Unset(tree, path), global)
}

// Save validates tree and writes it as a scope's structured file. Any
// validation error aborts the write and every message is reported. An
// existing file that does not parse is never overwritten.
func (r *Resolver) Save(tree *value.Map, global bool) error {
	if _, err := r.ReadFile(global); err != nil && !isNotFound(err) {
		return fmt.Errorf("reading %s config: %w", scope.FromGlobal(global), err)
	}
	if res := schema.Validate(tree, false); !res.Valid {
		return &ValidationError{Errors: res.Errors}
	}

	path, err := r.write(tree, global)
	if err != nil {
		return err
	}
	r.log.Debug().Str("path", path).Str("source", scope.FromGlobal(global).String()).Msg("saved configuration")
	r.changed(path)
	return nil
}

// write serializes tree to the structured file without validating it.
func (r *Resolver) write(tree *value.Map, global bool) (string, error) {
	p := r.layout.For(scope.FromGlobal(global))
	path := r.StructuredPath(global)

	out, err := codec.Serialize(tree, codec.FormatYAML)
	if err != nil {
		return path, fmt.Errorf("encoding %s: %w", path, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.fs.MkdirAll(p.ConfigDir, 0o755); err != nil {
		return path, fmt.Errorf("creating %s: %w", p.ConfigDir, err)
	}
	if err := afero.WriteFile(r.fs, path, out, 0o644); err != nil {
		return path, fmt.Errorf("writing %s: %w", path, err)
	}
	r.invalidateLocked()
	return path, nil
}

// ValidateFile checks a scope's structured file. A missing file is valid
// with a warning; one that does not parse is invalid.
func (r *Resolver) ValidateFile(global bool) schema.Result {
	tree, err := r.ReadFile(global)
	switch {
	case isNotFound(err):
		return schema.Result{
			Valid:    true,
			Warnings: []string{fmt.Sprintf("No configuration file found at %s", r.StructuredPath(global))},
		}
	case err != nil:
		return schema.Result{Valid: false, Errors: []string{err.Error()}}
	}
	return r.validator.Validate(tree, false)
}

// FixFile repairs a scope's structured file and reports success. A file
// that is already valid counts as success. A missing file is created with
// the defaults. Unparseable files and write failures leave the disk
// untouched and return false.
func (r *Resolver) FixFile(global bool) bool {
	_, err := r.Repair(global)
	return err == nil
}

// Repair is FixFile with the outcome spelled out: changed reports whether
// the file was rewritten, err why it could not be.
func (r *Resolver) Repair(global bool) (changed bool, err error) {
	tree, err := r.ReadFile(global)
	switch {
	case isNotFound(err):
		tree = nil
	case err != nil:
		r.log.Warn().Err(err).Str("source", scope.FromGlobal(global).String()).Msg("cannot fix config file that does not parse")
		return false, fmt.Errorf("reading %s config: %w", scope.FromGlobal(global), err)
	}

	fixed, changed := schema.Fix(tree)
	if !changed {
		return false, nil
	}

	path, err := r.write(fixed, global)
	if err != nil {
		r.log.Warn().Err(err).Str("path", path).Msg("cannot write fixed config file")
		return false, err
	}
	r.log.Info().Str("path", path).Msg("fixed configuration file")
	r.changed(path)
	return true, nil
}
