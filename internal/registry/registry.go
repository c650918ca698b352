// Package registry holds the session-scoped resource registry: a flat
// map of Resource values keyed by id, exclusively owned by the
// registry for the lifetime of one session. The lookup core only
// produces Resource values (see pattern.ToFileResource and friends);
// this registry is where a caller — the out-of-scope transport layer,
// in a full deployment — would stash them between a lookup and a
// later fetch-by-id.
package registry

import (
	"sync"

	"github.com/apex-run/apex-core/internal/apexerr"
	"github.com/apex-run/apex-core/internal/pattern"
)

// Registry is a mutex-guarded flat map[string]Resource.
type Registry struct {
	mu    sync.Mutex
	items map[string]pattern.Resource
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{items: make(map[string]pattern.Resource)}
}

// Put stores r under r.ID, overwriting any existing entry with that id.
func (reg *Registry) Put(r pattern.Resource) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.items[r.ID] = r
}

// Get returns the resource stored under id, or a *apexerr.NotFoundError.
func (reg *Registry) Get(id string) (pattern.Resource, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.items[id]
	if !ok {
		return pattern.Resource{}, &apexerr.NotFoundError{ID: id}
	}
	return r, nil
}

// Delete removes id from the registry; deleting an unknown id is not an error.
func (reg *Registry) Delete(id string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.items, id)
}

// Len reports how many resources are currently registered.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.items)
}
