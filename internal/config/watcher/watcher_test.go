package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
	ch     chan Event
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan Event, 16)}
}

func (r *recorder) handle(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	select {
	case r.ch <- ev:
	default:
	}
}

func (r *recorder) wait(t *testing.T, path string) Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-r.ch:
			if ev.Path == path {
				return ev
			}
		case <-deadline:
			t.Fatalf("no event for %s", path)
			return Event{}
		}
	}
}

func startWatcher(t *testing.T, root string, paths ...string) (*Watcher, *recorder) {
	t.Helper()
	w, err := New(WithDebounce(20 * time.Millisecond))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.WatchAll(root, paths); err != nil {
		t.Fatalf("WatchAll() error = %v", err)
	}
	rec := newRecorder()
	w.OnChange(rec.handle)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return w, rec
}

func TestOperation_String(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{OpWrite, "write"},
		{OpCreate, "create"},
		{OpRemove, "remove"},
		{OpRename, "rename"},
		{Operation(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func TestConvertOp(t *testing.T) {
	tests := []struct {
		in   fsnotify.Op
		want Operation
		ok   bool
	}{
		{fsnotify.Write, OpWrite, true},
		{fsnotify.Create, OpCreate, true},
		{fsnotify.Create | fsnotify.Write, OpCreate, true},
		{fsnotify.Remove, OpRemove, true},
		{fsnotify.Rename, OpRename, true},
		{fsnotify.Chmod, 0, false},
	}
	for _, tt := range tests {
		got, ok := convertOp(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("convertOp(%v) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestWatcher_Watch(t *testing.T) {
	dir := t.TempDir()
	w, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	rc := filepath.Join(dir, ".mementorc")
	structured := filepath.Join(dir, ".memento", "config.yaml")
	if err := w.WatchAll(dir, []string{rc, structured}); err != nil {
		t.Fatalf("WatchAll() error = %v", err)
	}

	if got := w.WatchedFiles(); len(got) != 2 {
		t.Errorf("WatchedFiles() = %v", got)
	}
	// .memento does not exist, so only the root is registered.
	dirs := w.WatchedDirs()
	if len(dirs) != 1 || dirs[0] != dir {
		t.Errorf("WatchedDirs() = %v, want [%s]", dirs, dir)
	}

	w.Close()
	if err := w.Watch(rc, dir); err != ErrClosed {
		t.Errorf("Watch() after Close = %v, want ErrClosed", err)
	}
}

func TestWatcher_StaysUnderRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "home")
	structured := filepath.Join(root, ".memento", "config.yaml")

	w, rec := startWatcher(t, root, filepath.Join(root, ".mementorc"), structured)
	if dirs := w.WatchedDirs(); len(dirs) != 0 {
		t.Errorf("WatchedDirs() = %v, want none while root is missing", dirs)
	}

	// Sibling activity in the parent is invisible.
	if err := os.WriteFile(filepath.Join(parent, "other.yaml"), []byte("x: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(structured), 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.events) != 0 {
		t.Errorf("events = %v, want none", rec.events)
	}
	for _, d := range w.WatchedDirs() {
		if d == parent {
			t.Errorf("WatchedDirs() includes %s above the root", parent)
		}
	}
}

func TestWatcher_EmptyRootIsFileDir(t *testing.T) {
	dir := t.TempDir()
	w, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch(filepath.Join(dir, "missing", "config.yaml"), ""); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	if dirs := w.WatchedDirs(); len(dirs) != 0 {
		t.Errorf("WatchedDirs() = %v, want none", dirs)
	}
}

func TestWatcher_DetectsWrite(t *testing.T) {
	dir := t.TempDir()
	rc := filepath.Join(dir, ".mementorc")
	if err := os.WriteFile(rc, []byte("defaultMode: a\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, rec := startWatcher(t, dir, rc)

	if err := os.WriteFile(rc, []byte("defaultMode: b\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ev := rec.wait(t, rc)
	if ev.Op != OpWrite && ev.Op != OpCreate {
		t.Errorf("op = %v", ev.Op)
	}
}

func TestWatcher_IgnoresUntrackedFiles(t *testing.T) {
	dir := t.TempDir()
	rc := filepath.Join(dir, ".mementorc")
	_, rec := startWatcher(t, dir, rc)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(rc, []byte("x: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec.wait(t, rc)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	for _, ev := range rec.events {
		if ev.Path != rc {
			t.Errorf("unexpected event for %s", ev.Path)
		}
	}
}

func TestWatcher_DirectoryCreatedLater(t *testing.T) {
	dir := t.TempDir()
	structured := filepath.Join(dir, ".memento", "config.yaml")
	w, rec := startWatcher(t, dir, structured)

	if err := os.MkdirAll(filepath.Dir(structured), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(structured, []byte("ui:\n  colorOutput: false\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ev := rec.wait(t, structured)
	if ev.Op != OpCreate && ev.Op != OpWrite {
		t.Errorf("op = %v", ev.Op)
	}

	found := false
	for _, d := range w.WatchedDirs() {
		if d == filepath.Dir(structured) {
			found = true
		}
	}
	if !found {
		t.Errorf("WatchedDirs() = %v, want .memento registered", w.WatchedDirs())
	}
}

func TestWatcher_Coalesce(t *testing.T) {
	w, err := New(WithDebounce(50 * time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	var got []Event
	w.OnChange(func(ev Event) { got = append(got, ev) })

	base := time.Now()
	w.queueEvent(Event{Path: "/a", Op: OpCreate, Time: base})
	w.queueEvent(Event{Path: "/a", Op: OpWrite, Time: base.Add(time.Millisecond)})
	w.queueEvent(Event{Path: "/b", Op: OpWrite, Time: base})
	w.queueEvent(Event{Path: "/b", Op: OpRemove, Time: base.Add(time.Millisecond)})
	w.queueEvent(Event{Path: "/c", Op: OpWrite, Time: base.Add(time.Second)})

	w.processPendingEvents(base.Add(100 * time.Millisecond))

	if len(got) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(got), got)
	}
	if got[0].Path != "/a" || got[0].Op != OpCreate {
		t.Errorf("got[0] = %+v, want create /a", got[0])
	}
	if got[1].Path != "/b" || got[1].Op != OpRemove {
		t.Errorf("got[1] = %+v, want remove /b", got[1])
	}

	// /c is not quiet yet.
	w.processPendingEvents(base.Add(2 * time.Second))
	if len(got) != 3 || got[2].Path != "/c" {
		t.Errorf("expected /c after it settled, got %+v", got)
	}
}

func TestWatcher_HandlerPanic(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	called := false
	w.OnChange(func(Event) { panic("boom") })
	w.OnChange(func(Event) { called = true })

	w.emit(Event{Path: "/x"})
	if !called {
		t.Error("second handler should run after a panic")
	}
}

func TestWatcher_RunStopsOnCancel(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestIsAncestor(t *testing.T) {
	tests := []struct {
		dir, path string
		want      bool
	}{
		{"/a", "/a/b", true},
		{"/a", "/a/b/c", true},
		{"/a", "/a", false},
		{"/a", "/ab", false},
		{"/a/b", "/a", false},
	}
	for _, tt := range tests {
		if got := isAncestor(tt.dir, tt.path); got != tt.want {
			t.Errorf("isAncestor(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}
