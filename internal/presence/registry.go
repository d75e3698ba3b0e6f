// Package presence holds the authoritative in-memory record of which
// identities currently have a live connection. It is the single source of
// truth the roster broadcast and message delivery read from.
package presence

import "sync"

// Registry maps a user identity to its one live connection handle.
// At most one entry exists per identity at any instant: a new connection for
// the same identity replaces the previous one (last connection wins).
//
// The registry is safe for concurrent use. Every mutation bumps a monotonic
// version; broadcasters use it to enforce that the last roster sent reflects
// the last mutation applied, regardless of goroutine interleaving.
type Registry[H comparable] struct {
	mu      sync.RWMutex
	entries map[string]H
	version uint64
}

// NewRegistry creates an empty registry.
func NewRegistry[H comparable]() *Registry[H] {
	return &Registry[H]{entries: make(map[string]H)}
}

// Register inserts or replaces the entry for identity. When a previous
// handle is replaced it is returned with replaced=true so the caller can
// dispose of the superseded connection. Registering is never an error.
func (r *Registry[H]) Register(identity string, handle H) (prior H, replaced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prior, replaced = r.entries[identity]
	r.entries[identity] = handle
	r.version++
	return prior, replaced
}

// Deregister removes the entry for identity, but only if it still points at
// handle. The guard makes a late disconnect of a superseded connection a
// no-op instead of evicting its replacement. Calling it for an absent
// identity (or twice) is a no-op, not an error.
func (r *Registry[H]) Deregister(identity string, handle H) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.entries[identity]
	if !ok || current != handle {
		return false
	}

	delete(r.entries, identity)
	r.version++
	return true
}

// Lookup returns the live handle for identity, if any.
func (r *Registry[H]) Lookup(identity string) (H, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handle, ok := r.entries[identity]
	return handle, ok
}

// Snapshot returns the current roster and the version it corresponds to.
// The set reflects only registrations completed before the call.
func (r *Registry[H]) Snapshot() ([]string, uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roster := make([]string, 0, len(r.entries))
	for identity := range r.entries {
		roster = append(roster, identity)
	}
	return roster, r.version
}

// Len returns the number of distinct connected identities.
func (r *Registry[H]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
