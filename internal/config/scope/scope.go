// Package scope computes where memento looks for configuration files.
//
// There are two scopes. Global is rooted at the user's home directory and
// Project at the directory memento was invoked from. Both own the same set
// of candidate paths. Nothing here touches the filesystem.
package scope

import (
	"path/filepath"
)

// Names of the files and directories memento reads.
const (
	// DirName is the per-scope configuration directory.
	DirName = ".memento"

	// StructuredName is the canonical structured config file.
	StructuredName = "config.yaml"

	// StructuredAltName is accepted when StructuredName does not exist.
	StructuredAltName = "config.yml"

	// LegacyName is the obsolete JSON encoding of the structured file.
	LegacyName = "config.json"

	// RCName is the base name of the RC override files.
	RCName = ".mementorc"
)

// RCNames lists the RC candidates in the order they are tried.
var RCNames = []string{
	RCName,
	RCName + ".yaml",
	RCName + ".yml",
	RCName + ".json",
}

// Scope selects the global or project namespace.
type Scope uint8

const (
	// Project is rooted at the working directory.
	Project Scope = iota
	// Global is rooted at the home directory.
	Global
)

// String returns the scope name.
func (s Scope) String() string {
	if s == Global {
		return "global"
	}
	return "project"
}

// FromGlobal maps the boolean flag used by callers to a Scope.
func FromGlobal(global bool) Scope {
	if global {
		return Global
	}
	return Project
}

// Paths holds the candidate files of one scope.
type Paths struct {
	Scope Scope

	// Root is the scope root (home or working directory).
	Root string

	// ConfigDir is Root/.memento.
	ConfigDir string

	// Structured is the canonical structured file, ConfigDir/config.yaml.
	Structured string

	// StructuredAlt is ConfigDir/config.yml.
	StructuredAlt string

	// Legacy is ConfigDir/config.json.
	Legacy string

	// RC lists the RC candidates in priority order.
	RC []string
}

// All returns every path of the scope: RC candidates first, then the
// structured files and the legacy file.
func (p Paths) All() []string {
	out := make([]string, 0, len(p.RC)+3)
	out = append(out, p.RC...)
	return append(out, p.Structured, p.StructuredAlt, p.Legacy)
}

// Layout is the pair of scopes for one invocation.
type Layout struct {
	Global  Paths
	Project Paths
}

// For returns the paths of scope s.
func (l Layout) For(s Scope) Paths {
	if s == Global {
		return l.Global
	}
	return l.Project
}

// Resolve computes the layout from the home and working directories.
func Resolve(home, workDir string) Layout {
	return Layout{
		Global:  pathsFor(Global, home),
		Project: pathsFor(Project, workDir),
	}
}

func pathsFor(s Scope, root string) Paths {
	root = filepath.Clean(root)
	dir := filepath.Join(root, DirName)

	rc := make([]string, len(RCNames))
	for i, name := range RCNames {
		rc[i] = filepath.Join(root, name)
	}

	return Paths{
		Scope:         s,
		Root:          root,
		ConfigDir:     dir,
		Structured:    filepath.Join(dir, StructuredName),
		StructuredAlt: filepath.Join(dir, StructuredAltName),
		Legacy:        filepath.Join(dir, LegacyName),
		RC:            rc,
	}
}
