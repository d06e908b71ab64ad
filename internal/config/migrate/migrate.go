// Package migrate converts the legacy JSON structured file to YAML.
//
// Older releases stored each scope's structured configuration at
// .memento/config.json. Migration rewrites it as .memento/config.yaml,
// keeps a timestamped backup of the original bytes and removes the legacy
// file. It runs only when asked; loading configuration never migrates.
package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/codec"
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/layer"
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/scope"
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/value"
)

// BackupInfix separates the legacy file name from the backup timestamp.
const BackupInfix = ".backup-"

// Migration steps reported in MigrationError.Op.
const (
	OpRead          = "read"
	OpParse         = "parse"
	OpReadCanonical = "read-canonical"
	OpWrite         = "write"
	OpBackup        = "backup"
	OpRemove        = "remove"
)

// MigrationError reports a failed migration step.
type MigrationError struct {
	// Path is the file the step operated on.
	Path string
	// Op is the failing step.
	Op string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *MigrationError) Error() string {
	return fmt.Sprintf("migrate %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *MigrationError) Unwrap() error {
	return e.Err
}

// Result describes what happened to one scope.
type Result struct {
	Scope scope.Scope

	// Legacy is the legacy file that was looked for.
	Legacy string

	// Target is the YAML file written, empty when nothing was written.
	Target string

	// Backup is the copy of the legacy bytes.
	Backup string

	// Migrated is true when the legacy file was converted and removed.
	Migrated bool

	// Merged is true when an existing YAML file was combined with the
	// legacy contents.
	Merged bool

	// Err is the failure, always a *MigrationError.
	Err error
}

// Migrator performs legacy migrations over a filesystem.
type Migrator struct {
	fs  afero.Fs
	now func() time.Time
	log zerolog.Logger
}

// New creates a migrator. A nil clock uses time.Now.
func New(fsys afero.Fs, now func() time.Time, log zerolog.Logger) *Migrator {
	if now == nil {
		now = time.Now
	}
	return &Migrator{fs: fsys, now: now, log: log}
}

// NeedsMigration reports whether p has a legacy file.
func (m *Migrator) NeedsMigration(p scope.Paths) bool {
	info, err := m.fs.Stat(p.Legacy)
	return err == nil && !info.IsDir()
}

// MigrateAll migrates the global scope and then the project scope. When
// both scopes share a root the second pass finds nothing to do.
func (m *Migrator) MigrateAll(layout scope.Layout) []Result {
	return []Result{
		m.Migrate(layout.Global),
		m.Migrate(layout.Project),
	}
}

// Migrate converts p's legacy file if one exists. Failures leave the
// legacy file in place and are logged as warnings.
func (m *Migrator) Migrate(p scope.Paths) Result {
	res := Result{Scope: p.Scope, Legacy: p.Legacy}

	if !m.NeedsMigration(p) {
		return res
	}

	if err := m.migrate(p, &res); err != nil {
		res.Err = err
		res.Target = ""
		m.log.Warn().Err(err).Str("source", p.Scope.String()).Str("path", p.Legacy).
			Msg("legacy config migration failed, leaving file in place")
		return res
	}

	res.Migrated = true
	m.log.Info().Str("source", p.Scope.String()).Str("from", p.Legacy).Str("to", res.Target).
		Str("backup", res.Backup).Msg("migrated legacy config")
	return res
}

func (m *Migrator) migrate(p scope.Paths, res *Result) error {
	raw, err := afero.ReadFile(m.fs, p.Legacy)
	if err != nil {
		return &MigrationError{Path: p.Legacy, Op: OpRead, Err: err}
	}

	legacy, err := codec.ParseFile(p.Legacy, raw, codec.FormatJSON)
	if err != nil {
		return &MigrationError{Path: p.Legacy, Op: OpParse, Err: err}
	}

	target := p.Structured
	if !m.isFile(p.Structured) && m.isFile(p.StructuredAlt) {
		target = p.StructuredAlt
	}
	res.Target = target

	tree := legacy
	canonical, err := m.readCanonical(target)
	if err != nil {
		return &MigrationError{Path: target, Op: OpReadCanonical, Err: err}
	}
	if canonical != nil {
		tree = layer.DeepMerge(legacy, canonical)
		res.Merged = true
	}

	out, err := codec.Serialize(tree, codec.FormatYAML)
	if err != nil {
		return &MigrationError{Path: target, Op: OpWrite, Err: err}
	}
	if err := m.fs.MkdirAll(p.ConfigDir, 0o755); err != nil {
		return &MigrationError{Path: p.ConfigDir, Op: OpWrite, Err: err}
	}
	if err := afero.WriteFile(m.fs, target, out, 0o644); err != nil {
		return &MigrationError{Path: target, Op: OpWrite, Err: err}
	}

	backup := BackupPath(p.Legacy, m.now())
	if err := afero.WriteFile(m.fs, backup, raw, 0o644); err != nil {
		return &MigrationError{Path: backup, Op: OpBackup, Err: err}
	}
	res.Backup = backup

	if err := m.fs.Remove(p.Legacy); err != nil {
		return &MigrationError{Path: p.Legacy, Op: OpRemove, Err: err}
	}
	return nil
}

// readCanonical returns the existing YAML tree at path, or nil when the
// file does not exist.
func (m *Migrator) readCanonical(path string) (*value.Map, error) {
	raw, err := afero.ReadFile(m.fs, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return codec.ParseFile(path, raw, codec.FormatYAML)
}

func (m *Migrator) isFile(path string) bool {
	info, err := m.fs.Stat(path)
	return err == nil && !info.IsDir()
}

// BackupPath returns the backup name for legacy taken at t.
func BackupPath(legacy string, t time.Time) string {
	return legacy + BackupInfix + strconv.FormatInt(t.UnixMilli(), 10)
}

// IsMigrationError reports whether err is a *MigrationError.
func IsMigrationError(err error) bool {
	var me *MigrationError
	return errors.As(err, &me)
}
