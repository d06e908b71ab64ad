// Package loader reads configuration sources into value trees.
//
// File sources go through an afero.Fs so tests can run against an
// in-memory filesystem. A missing file is not an error. A file that cannot
// be read or parsed is logged as a warning and treated as absent; the
// failure is kept on the Result for diagnostics.
package loader

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/codec"
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/value"
)

// Result describes one attempt to load a file.
type Result struct {
	// Path is the file that was tried.
	Path string

	// Format is the dialect the file was decoded as.
	Format codec.Format

	// Exists reports whether the file was present.
	Exists bool

	// Data is the parsed tree; nil when the file is absent or broken.
	Data *value.Map

	// Err is the read or parse failure, if any.
	Err error
}

// Loaded reports whether the attempt produced a tree.
func (r Result) Loaded() bool {
	return r.Data != nil
}

// Loader reads configuration files.
type Loader struct {
	fs  afero.Fs
	log zerolog.Logger
}

// New creates a loader over fsys.
func New(fsys afero.Fs, log zerolog.Logger) *Loader {
	return &Loader{fs: fsys, log: log}
}

// Load reads and parses path as format.
func (l *Loader) Load(path string, format codec.Format) Result {
	res := Result{Path: path, Format: format}

	raw, err := afero.ReadFile(l.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return res
		}
		res.Exists = true
		res.Err = fmt.Errorf("reading config file %s: %w", path, err)
		l.log.Warn().Err(err).Str("path", path).Msg("cannot read config file, ignoring it")
		return res
	}
	res.Exists = true

	data, err := codec.ParseFile(path, raw, format)
	if err != nil {
		res.Err = err
		l.log.Warn().Err(err).Str("path", path).Msg("cannot parse config file, ignoring it")
		return res
	}

	res.Data = data
	l.log.Debug().Str("path", path).Str("format", format.String()).Int("keys", data.Len()).Msg("loaded config file")
	return res
}

// LoadFirst tries candidates in order and returns the first one that
// exists and parses, along with every attempt made. The format of each
// candidate comes from its extension. When none loads, the returned
// Result has no Data.
func (l *Loader) LoadFirst(candidates []string) (Result, []Result) {
	attempts := make([]Result, 0, len(candidates))
	for _, path := range candidates {
		res := l.Load(path, codec.Detect(path))
		attempts = append(attempts, res)
		if res.Loaded() {
			return res, attempts
		}
	}
	return Result{}, attempts
}

// LoadStructured loads the canonical structured file, falling back to alt
// only when primary does not exist. If neither exists the Result names
// primary.
func (l *Loader) LoadStructured(primary, alt string) Result {
	path := l.PickExisting(primary, alt)
	return l.Load(path, codec.FormatYAML)
}

// PickExisting returns the first path that exists, or the first path when
// none does.
func (l *Loader) PickExisting(paths ...string) string {
	for _, p := range paths {
		if l.Exists(p) {
			return p
		}
	}
	if len(paths) == 0 {
		return ""
	}
	return paths[0]
}

// Exists reports whether a regular file exists at path.
func (l *Loader) Exists(path string) bool {
	info, err := l.fs.Stat(path)
	return err == nil && !info.IsDir()
}
