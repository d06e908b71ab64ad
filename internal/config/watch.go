package config

import (
	"context"
	"fmt"

	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/scope"
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/watcher"
)

// SourcePaths returns every file that can contribute to the merged tree,
// global scope first. Duplicates from a shared root are dropped.
func (r *Resolver) SourcePaths() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range []scope.Paths{r.layout.Global, r.layout.Project} {
		candidates := append(append([]string{}, p.RC...), p.Structured, p.StructuredAlt)
		for _, path := range candidates {
			if !seen[path] {
				seen[path] = true
				out = append(out, path)
			}
		}
	}
	return out
}

// Watch re-resolves whenever a source file changes and publishes the
// differences to subscribers. It blocks until ctx is done. Watching needs
// the OS filesystem; paths are taken from Layout.
func (r *Resolver) Watch(ctx context.Context, opts ...watcher.Option) error {
	w, err := watcher.New(append([]watcher.Option{watcher.WithLogger(r.log)}, opts...)...)
	if err != nil {
		return fmt.Errorf("starting config watcher: %w", err)
	}
	for _, p := range []scope.Paths{r.layout.Global, r.layout.Project} {
		paths := append(append([]string{}, p.RC...), p.Structured, p.StructuredAlt)
		if err := w.WatchAll(p.Root, paths); err != nil {
			w.Close()
			return fmt.Errorf("watching config files: %w", err)
		}
	}

	// Establish a baseline so the first change has something to diff against.
	r.Load()

	w.OnChange(func(ev watcher.Event) {
		r.log.Debug().Str("path", ev.Path).Str("op", ev.Op.String()).Msg("config source changed")
		r.Reload(ev.Path)
	})
	return w.Run(ctx)
}
