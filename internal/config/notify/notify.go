// Package notify delivers configuration change events to subscribers.
//
// The resolver publishes one Change per effective leaf that differs
// between two resolutions. Subscribers either receive everything or only
// the changes under a dot path.
package notify

import (
	"strings"
	"sync"

	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/layer"
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/value"
)

// ChangeType classifies a change.
type ChangeType int

const (
	// ChangeAdded means the path did not resolve before.
	ChangeAdded ChangeType = iota

	// ChangeModified means the path resolved to a different value.
	ChangeModified

	// ChangeRemoved means the path no longer resolves.
	ChangeRemoved

	// ChangeReload is sent once per re-resolution, after the path changes.
	ChangeReload
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeAdded:
		return "added"
	case ChangeModified:
		return "modified"
	case ChangeRemoved:
		return "removed"
	case ChangeReload:
		return "reload"
	default:
		return "unknown"
	}
}

// Change describes one effective difference.
type Change struct {
	// Path is the dot path of the leaf. Empty for reload events.
	Path string

	Type ChangeType

	// Old is Null for additions.
	Old value.Value

	// New is Null for removals.
	New value.Value

	// Source names what triggered the change: a file path or an operation.
	Source string
}

// Observer receives changes.
type Observer func(change Change)

// Subscription is a registered observer.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes the observer. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s != nil && s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

type subscriber struct {
	prefix   string
	observer Observer
}

// Notifier fans changes out to subscribers. Delivery is synchronous and
// happens outside the notifier's lock, so observers may call back into
// whatever published the change.
type Notifier struct {
	mu     sync.RWMutex
	subs   map[uint64]subscriber
	nextID uint64
	closed bool
}

// New creates a notifier.
func New() *Notifier {
	return &Notifier{subs: make(map[uint64]subscriber)}
}

// Subscribe registers an observer for every change.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	return n.SubscribePath("", observer)
}

// SubscribePath registers an observer for changes at path or below it.
// Reload events reach every subscriber.
func (n *Notifier) SubscribePath(path string, observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.subs[id] = subscriber{prefix: path, observer: observer}
	return &Subscription{id: id, notifier: n}
}

// HasSubscribers reports whether anyone is listening.
func (n *Notifier) HasSubscribers() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs) > 0
}

// Notify delivers change to the matching subscribers.
func (n *Notifier) Notify(change Change) {
	for _, obs := range n.matching(change) {
		obs(change)
	}
}

// Publish delivers a set of changes followed by a reload event naming
// source. Nothing is sent when changes is empty.
func (n *Notifier) Publish(source string, changes []Change) {
	if len(changes) == 0 {
		return
	}
	for _, c := range changes {
		n.Notify(c)
	}
	n.Notify(Change{Type: ChangeReload, Source: source})
}

// Close drops every subscriber; later notifications are discarded.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	n.subs = make(map[uint64]subscriber)
}

func (n *Notifier) matching(change Change) []Observer {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		return nil
	}

	var out []Observer
	for _, s := range n.subs {
		if change.Type == ChangeReload || under(s.prefix, change.Path) {
			out = append(out, s.observer)
		}
	}
	return out
}

func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subs, id)
}

// under reports whether path equals prefix or lies below it.
func under(prefix, path string) bool {
	if prefix == "" || prefix == path {
		return true
	}
	return strings.HasPrefix(path, prefix+".")
}

// Compute returns the changes that turn old into next: additions, then
// modifications, then removals.
func Compute(old, next *value.Map, source string) []Change {
	added, modified, removed := layer.Diff(old, next)

	changes := make([]Change, 0, len(added)+len(modified)+len(removed))
	for _, p := range added {
		nv, _ := value.Get(next, p)
		changes = append(changes, Change{Path: p, Type: ChangeAdded, New: nv, Source: source})
	}
	for _, p := range modified {
		ov, _ := value.Get(old, p)
		nv, _ := value.Get(next, p)
		changes = append(changes, Change{Path: p, Type: ChangeModified, Old: ov, New: nv, Source: source})
	}
	for _, p := range removed {
		ov, _ := value.Get(old, p)
		changes = append(changes, Change{Path: p, Type: ChangeRemoved, Old: ov, Source: source})
	}
	return changes
}
