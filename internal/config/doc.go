// Package config resolves memento's configuration.
//
// A Resolver merges configuration fragments from built-in defaults, the
// global scope (rooted at the user's home directory), the project scope
// (rooted at the working directory) and MEMENTO_* environment variables
// into one tree, and edits the structured file of either scope.
//
// # Precedence
//
// Sources are merged lowest to highest:
//
//	┌──────────────────────────────────────┐
//	│  6. Environment (MEMENTO_*)          │  ← Highest priority
//	├──────────────────────────────────────┤
//	│  5. Project structured file          │  ← ./.memento/config.yaml
//	├──────────────────────────────────────┤
//	│  4. Project RC file                  │  ← ./.mementorc[.yaml|.yml|.json]
//	├──────────────────────────────────────┤
//	│  3. Global structured file           │  ← ~/.memento/config.yaml
//	├──────────────────────────────────────┤
//	│  2. Global RC file                   │  ← ~/.mementorc[.yaml|.yml|.json]
//	├──────────────────────────────────────┤
//	│  1. Built-in defaults                │  ← Lowest priority
//	└──────────────────────────────────────┘
//
// Mappings present in two sources merge key by key. Everything else,
// arrays included, is replaced by the higher source. For the RC files the
// first candidate that exists and parses is used; a candidate that fails
// to parse is skipped with a warning.
//
// # Sub-packages
//
//   - value: configuration values, ordered mappings, dot-path access
//   - codec: YAML, JSON-with-comments and TOML encodings
//   - schema: the closed settings table, validation and repair
//   - scope: where each scope's files live
//   - loader: file and environment sources
//   - layer: prioritized layers and the merge
//   - migrate: conversion of the legacy config.json
//   - notify: change subscriptions
//   - watcher: file watching for live re-resolution
//
// # Basic Usage
//
//	r, err := config.New()
//	if err != nil {
//	    return err
//	}
//	r.Migrate()
//
//	mode, _ := r.Get("defaultMode")
//	fmt.Println(mode)
//
//	// Persist a project setting
//	if err := r.Set("ui.colorOutput", value.Bool(false), false); err != nil {
//	    return err
//	}
//
// # Writes
//
// Only the structured files are written, always as YAML. Writes are
// validated against the schema first; a structured file that does not
// parse is never overwritten by Set, Unset or FixFile.
//
// # Concurrency
//
// A Resolver may be shared between goroutines; its cache is guarded by a
// mutex. There is no locking between processes: when two processes write
// the same file the last writer wins.
package config
