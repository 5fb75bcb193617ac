// Package registry implements the process-wide named channel registry: a
// bidirectional, mutex-guarded map between human-readable names and channel
// handles used for discovery.
//
// It is grounded on the teacher's catalog.Catalog (a name-to-ID map bound to
// a peer), generalized in two ways a discovery registry needs that a
// per-peer method catalog does not: safety for concurrent registration from
// many threads, and a reverse mapping from a channel back to all of the
// names it is currently known by.
package registry

import (
	"sync"

	"github.com/loopcore/actorbus/channel"
)

// A Registry is a thread-safe bidirectional map between names and channel
// handles. The zero value is not ready for use; construct one with [New].
type Registry struct {
	mu      sync.Mutex
	forward map[string]*channel.Channel
	reverse map[*channel.Channel]map[string]struct{}
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{
		forward: make(map[string]*channel.Channel),
		reverse: make(map[*channel.Channel]map[string]struct{}),
	}
}

// Locate returns the channel registered under name, or nil if none.
func (r *Registry) Locate(name string) *channel.Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.forward[name]
}

// Register maps name to ch. It reports false, leaving the registry
// unchanged, if name is already registered or if ch is closed.
func (r *Registry) Register(name string, ch *channel.Channel) bool {
	if ch.IsClosed() {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.forward[name]; exists {
		return false
	}
	r.forward[name] = ch
	if r.reverse[ch] == nil {
		r.reverse[ch] = make(map[string]struct{})
	}
	r.reverse[ch][name] = struct{}{}
	return true
}

// Unregister removes name from the registry and reports whether it had been
// present.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, exists := r.forward[name]
	if !exists {
		return false
	}
	delete(r.forward, name)
	delete(r.reverse[ch], name)
	if len(r.reverse[ch]) == 0 {
		delete(r.reverse, ch)
	}
	return true
}

// NamesOf returns the (possibly empty) set of names currently mapped to ch.
// The registry does not observe channel closure asynchronously; a caller
// that closes ch is responsible for unregistering its names itself.
func (r *Registry) NamesOf(ch *channel.Channel) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := r.reverse[ch]
	out := make([]string, 0, len(names))
	for name := range names {
		out = append(out, name)
	}
	return out
}

// Default is the process-wide registry used by the package-level
// convenience functions Register, Locate, and Unregister.
var Default = New()

// Register maps name to ch in the process-wide default Registry.
func Register(name string, ch *channel.Channel) bool { return Default.Register(name, ch) }

// Locate returns the channel registered under name in the process-wide
// default Registry, or nil if none.
func Locate(name string) *channel.Channel { return Default.Locate(name) }

// Unregister removes name from the process-wide default Registry.
func Unregister(name string) bool { return Default.Unregister(name) }
