// Package watcher reports changes to configuration files.
//
// Files are tracked by watching their parent directories with fsnotify,
// so files that do not exist yet are picked up when they are created.
// When a parent directory is missing, the nearest existing ancestor below
// the file's root is watched until the directory appears; the walk never
// leaves the root. Bursts of events on one file are
// coalesced and delivered once the file has been quiet for the debounce
// window.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ErrClosed is returned when using a closed watcher.
var ErrClosed = errors.New("watcher is closed")

// Event is a change to one tracked file.
type Event struct {
	// Path is the absolute path of the file.
	Path string

	Op Operation

	// Time is when the last raw event in the burst arrived.
	Time time.Time
}

// Operation is the kind of change.
type Operation int

const (
	// OpWrite indicates the file was modified.
	OpWrite Operation = iota

	// OpCreate indicates the file appeared.
	OpCreate

	// OpRemove indicates the file was deleted.
	OpRemove

	// OpRename indicates the file was moved away.
	OpRename
)

// String returns the operation name.
func (op Operation) String() string {
	switch op {
	case OpWrite:
		return "write"
	case OpCreate:
		return "create"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Handler is called for each debounced event.
type Handler func(event Event)

// Watcher tracks a set of files.
type Watcher struct {
	mu sync.RWMutex

	fsw *fsnotify.Watcher

	// files maps each tracked file to the root bounding its ancestor walk.
	files map[string]string

	// dirs are the directories registered with fsnotify.
	dirs map[string]bool

	handlers []Handler
	debounce time.Duration
	log      zerolog.Logger
	closed   bool

	pendingMu sync.Mutex
	pending   map[string]pendingEvent
}

type pendingEvent struct {
	Op   Operation
	Time time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before an event is delivered.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger for watch errors.
func WithLogger(log zerolog.Logger) Option {
	return func(w *Watcher) {
		w.log = log
	}
}

// New creates a watcher.
func New(opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		files:    make(map[string]string),
		dirs:     make(map[string]bool),
		debounce: 100 * time.Millisecond,
		log:      zerolog.Nop(),
		pending:  make(map[string]pendingEvent),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Watch tracks path, which does not need to exist. Directories above root
// are never watched; an empty root means the file's own directory. When
// root itself is missing nothing is registered for path.
func (w *Watcher) Watch(path, root string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if root == "" {
		root = filepath.Dir(abs)
	} else if root, err = filepath.Abs(root); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	w.files[abs] = root
	return w.watchAncestorLocked(filepath.Dir(abs), root)
}

// WatchAll tracks every path under root, stopping at the first error.
func (w *Watcher) WatchAll(root string, paths []string) error {
	for _, p := range paths {
		if err := w.Watch(p, root); err != nil {
			return err
		}
	}
	return nil
}

// OnChange registers a handler.
func (w *Watcher) OnChange(handler Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, handler)
}

// WatchedFiles returns the tracked files, sorted.
func (w *Watcher) WatchedFiles() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// WatchedDirs returns the directories registered with fsnotify, sorted.
func (w *Watcher) WatchedDirs() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]string, 0, len(w.dirs))
	for d := range w.dirs {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Run delivers events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Close()

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleFSEvent(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("config watch error")

		case <-ticker.C:
			w.processPendingEvents(time.Now())
		}
	}
}

// Close releases the fsnotify watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	return w.fsw.Close()
}

// watchAncestorLocked registers dir, or its nearest existing ancestor when
// dir does not exist yet. Nothing above root is registered.
func (w *Watcher) watchAncestorLocked(dir, root string) error {
	for {
		if dir != root && !isAncestor(root, dir) {
			w.log.Debug().Str("root", root).Msg("config root missing, not watching")
			return nil
		}
		if w.dirs[dir] {
			return nil
		}
		info, err := os.Stat(dir)
		if err == nil && info.IsDir() {
			if err := w.fsw.Add(dir); err != nil {
				return err
			}
			w.dirs[dir] = true
			return nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil
		}
		dir = parent
	}
}

// wantedRoot reports whether dir contains, or leads to, a tracked file, and
// returns that file's root.
func (w *Watcher) wantedRoot(dir string) (string, bool) {
	for f, root := range w.files {
		fd := filepath.Dir(f)
		if (fd == dir || isAncestor(dir, fd)) && (dir == root || isAncestor(root, dir)) {
			return root, true
		}
	}
	return "", false
}

func (w *Watcher) handleFSEvent(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	op, ok := convertOp(ev.Op)
	if !ok {
		return
	}

	w.mu.Lock()
	_, tracked := w.files[path]
	var appeared []string
	if op == OpCreate && !tracked && !w.closed {
		root, wanted := w.wantedRoot(path)
		if info, err := os.Stat(path); err == nil && info.IsDir() && wanted {
			if err := w.watchAncestorLocked(path, root); err != nil {
				w.log.Warn().Err(err).Str("path", path).Msg("cannot watch config directory")
			}
			// Files may have been created before the directory was added.
			for f := range w.files {
				if isAncestor(path, f) {
					if _, err := os.Stat(f); err == nil {
						appeared = append(appeared, f)
					}
				}
			}
		}
	}
	w.mu.Unlock()

	now := time.Now()
	if tracked {
		w.queueEvent(Event{Path: path, Op: op, Time: now})
	}
	for _, f := range appeared {
		w.queueEvent(Event{Path: f, Op: OpCreate, Time: now})
	}
}

// convertOp maps an fsnotify op to the most significant Operation.
// Chmod-only events are dropped.
func convertOp(op fsnotify.Op) (Operation, bool) {
	switch {
	case op.Has(fsnotify.Remove):
		return OpRemove, true
	case op.Has(fsnotify.Rename):
		return OpRename, true
	case op.Has(fsnotify.Create):
		return OpCreate, true
	case op.Has(fsnotify.Write):
		return OpWrite, true
	default:
		return 0, false
	}
}

// queueEvent records an event for debounced delivery. Within a burst the
// newest operation wins, except that a write does not hide an earlier
// create or remove.
func (w *Watcher) queueEvent(event Event) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	existing, exists := w.pending[event.Path]
	op := event.Op
	if exists && op == OpWrite && existing.Op != OpWrite {
		op = existing.Op
	}
	w.pending[event.Path] = pendingEvent{Op: op, Time: event.Time}
}

// processPendingEvents emits events whose file has been quiet for the
// debounce window as of now.
func (w *Watcher) processPendingEvents(now time.Time) {
	threshold := now.Add(-w.debounce)

	w.pendingMu.Lock()
	var ready []Event
	for path, p := range w.pending {
		if p.Time.Before(threshold) {
			ready = append(ready, Event{Path: path, Op: p.Op, Time: p.Time})
			delete(w.pending, path)
		}
	}
	w.pendingMu.Unlock()

	sort.Slice(ready, func(i, j int) bool { return ready[i].Path < ready[j].Path })
	for _, ev := range ready {
		w.emit(ev)
	}
}

func (w *Watcher) emit(event Event) {
	w.mu.RLock()
	handlers := make([]Handler, len(w.handlers))
	copy(handlers, w.handlers)
	w.mu.RUnlock()

	for _, h := range handlers {
		w.safeCall(h, event)
	}
}

func (w *Watcher) safeCall(h Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error().Interface("panic", r).Str("path", event.Path).Msg("config watch handler panicked")
		}
	}()
	h(event)
}

// isAncestor reports whether dir is a strict ancestor of path.
func isAncestor(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
