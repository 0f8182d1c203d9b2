// Package watch tracks pending subscription watchers keyed by path.
// Each watcher carries a predicate over incoming events and is settled
// at most once: resolved when a dispatched event matches, rejected on
// caller request, or cancelled on removal. An external transport drives
// the registry by calling Dispatch for every received (path, event,
// mark) triple.
package watch

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"settingsd/pkg/types"
)

// Hook decides whether an incoming event satisfies a watcher.
type Hook func(event types.Event, mark string) bool

// ErrWatcherCancelled settles a watcher that was removed before any
// matching event arrived.
var ErrWatcherCancelled = errors.New("watcher cancelled")

var (
	errPathRequired = errors.New("watch: path required")
	errHookRequired = errors.New("watch: hook required")
)

// Watcher is a single pending subscription. Obtain one from
// Registry.Track and wait on it with Wait.
type Watcher struct {
	id   string
	path string
	hook Hook

	// done carries the settlement; buffered so settling never blocks
	// the dispatcher. settled is guarded by the owning registry's mutex.
	done    chan error
	settled bool
}

// ID returns the watcher's registry-assigned identifier, used for
// removal.
func (w *Watcher) ID() string { return w.id }

// Path returns the path the watcher was registered under.
func (w *Watcher) Path() string { return w.path }

// Wait blocks until the watcher settles or ctx is done. A nil return
// means a matching event arrived. Abandoning the wait does not remove
// the watcher; callers that give up must call Registry.Remove with the
// watcher's ID, or the entry stays pending forever.
func (w *Watcher) Wait(ctx context.Context) error {
	select {
	case err := <-w.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Option configures a Registry.
type Option func(*Registry)

// WithLegacyRemove reproduces the original front-end's Remove behavior
// for compatibility: the filter is inverted (only the identified
// watcher is KEPT, everything else at the path is dropped) and the
// removed watchers are not settled. Do not use outside of
// compatibility testing.
func WithLegacyRemove() Option {
	return func(r *Registry) { r.legacyRemove = true }
}

// Registry is a path-keyed collection of pending watchers. It is an
// explicitly owned object, safe for concurrent use; construct one per
// server and inject it wherever events are dispatched.
type Registry struct {
	mu           sync.Mutex
	watchers     map[string][]*Watcher
	legacyRemove bool
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{watchers: make(map[string][]*Watcher)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Track registers a new watcher under path and returns it pending. The
// watcher settles only through a future Dispatch, Reject or Remove;
// with none of those it stays pending forever.
func (r *Registry) Track(path string, hook Hook) (*Watcher, error) {
	if path == "" {
		return nil, errPathRequired
	}
	if hook == nil {
		return nil, errHookRequired
	}
	w := &Watcher{
		id:   uuid.NewString(),
		path: path,
		hook: hook,
		done: make(chan error, 1),
	}
	r.mu.Lock()
	r.watchers[path] = append(r.watchers[path], w)
	r.mu.Unlock()
	return w, nil
}

// Dispatch delivers an event to the watchers at path, in registration
// order. The first watcher whose hook accepts the event is resolved
// and unlinked in the same critical section, so a second matching
// event can never re-settle it. Reports whether a watcher was settled.
func (r *Registry) Dispatch(path string, event types.Event, mark string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws := r.watchers[path]
	for i, w := range ws {
		if !w.hook(event, mark) {
			continue
		}
		r.settleLocked(w, nil)
		r.unlinkLocked(path, i)
		return true
	}
	return false
}

// Remove drops the watcher with the given id from path, leaving every
// other watcher at that path untouched, and settles it with
// ErrWatcherCancelled so its waiter is not left hanging. In legacy
// mode the original inverted filter is reproduced instead (see
// WithLegacyRemove).
func (r *Registry) Remove(path, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.legacyRemove {
		kept := r.watchers[path][:0]
		for _, w := range r.watchers[path] {
			if w.id == id {
				kept = append(kept, w)
			}
		}
		r.setLocked(path, kept)
		return
	}
	for i, w := range r.watchers[path] {
		if w.id == id {
			r.settleLocked(w, ErrWatcherCancelled)
			r.unlinkLocked(path, i)
			return
		}
	}
}

// Reject settles the watcher with the given id using err and removes
// it from the registry.
func (r *Registry) Reject(path, id string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, w := range r.watchers[path] {
		if w.id == id {
			r.settleLocked(w, err)
			r.unlinkLocked(path, i)
			return
		}
	}
}

// Len returns the number of watchers pending at path.
func (r *Registry) Len(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.watchers[path])
}

// Pending returns the total number of watchers pending across all
// paths.
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ws := range r.watchers {
		n += len(ws)
	}
	return n
}

func (r *Registry) settleLocked(w *Watcher, err error) {
	if w.settled {
		return
	}
	w.settled = true
	w.done <- err
}

func (r *Registry) unlinkLocked(path string, i int) {
	ws := r.watchers[path]
	r.setLocked(path, append(ws[:i], ws[i+1:]...))
}

func (r *Registry) setLocked(path string, ws []*Watcher) {
	if len(ws) == 0 {
		delete(r.watchers, path)
		return
	}
	r.watchers[path] = ws
}
