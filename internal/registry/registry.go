// Package registry holds the media state of every live connection.
package registry

import (
	"slices"
	"sync"

	"github.com/nowplaying-redux/adapter-go/internal/models"
)

// Peer is the transport side of a connection: something that can be sent a
// line and told to close.
type Peer interface {
	Send(line string) error
	Close() error
}

type entry struct {
	mu    sync.Mutex
	seq   uint64
	peer  Peer
	state models.ConnectionState
}

// Registry maps connection IDs to their media state.
// Mutations of one ID are serialized on that entry's lock; different IDs
// only contend on the map lock for the lookup itself.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	nextSeq uint64
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// lookup returns the entry for id, creating a default one if absent.
func (r *Registry) lookup(id string) *entry {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if ok {
		return e
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		return e
	}
	e = &entry{seq: r.nextSeq, state: models.NewConnectionState(id)}
	r.nextSeq++
	r.entries[id] = e
	return e
}

// UpsertDefault ensures a default entry exists for id and attaches peer.
// An existing entry keeps its state; a nil peer leaves the current one.
func (r *Registry) UpsertDefault(id string, peer Peer) {
	e := r.lookup(id)
	if peer == nil {
		return
	}
	e.mu.Lock()
	e.peer = peer
	e.mu.Unlock()
}

// Get returns a copy of the state for id.
func (r *Registry) Get(id string) (models.ConnectionState, bool) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return models.ConnectionState{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, true
}

// Peer returns the transport peer attached to id.
func (r *Registry) Peer(id string) (Peer, bool) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.peer, e.peer != nil
}

// Mutate applies fn to the state for id under the entry lock and returns a
// copy of the result. A missing entry is created with default values first,
// so a message that overtakes its connect notification is not lost.
// If fn returns an error the entry is left untouched.
func (r *Registry) Mutate(id string, fn func(*models.ConnectionState) error) (models.ConnectionState, error) {
	e := r.lookup(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.state
	if err := fn(&next); err != nil {
		return e.state, err
	}
	next.ID = id
	e.state = next
	return next, nil
}

// Remove deletes id and returns its last state.
func (r *Registry) Remove(id string) (models.ConnectionState, bool) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	r.mu.Unlock()
	if !ok {
		return models.ConnectionState{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, true
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// SnapshotByFreshness returns copies of all entries ordered by Timestamp,
// newest first. Equal timestamps keep insertion order, so an unchanged
// registry always yields the same sequence.
func (r *Registry) SnapshotByFreshness() []models.ConnectionState {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	type item struct {
		seq   uint64
		state models.ConnectionState
	}
	items := make([]item, len(entries))
	for i, e := range entries {
		e.mu.Lock()
		items[i] = item{seq: e.seq, state: e.state}
		e.mu.Unlock()
	}

	slices.SortFunc(items, func(a, b item) int {
		switch {
		case a.state.Timestamp > b.state.Timestamp:
			return -1
		case a.state.Timestamp < b.state.Timestamp:
			return 1
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})

	out := make([]models.ConnectionState, len(items))
	for i, it := range items {
		out[i] = it.state
	}
	return out
}
