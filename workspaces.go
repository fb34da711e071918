package socialmuse

import (
	"context"
	"sync"
	"time"
)

// Workspaces is the registry of live workspaces, keyed by the id stored in
// each browser's session cookie.
type Workspaces struct {
	mu    sync.Mutex
	items map[string]*Workspace
	build func(id string) *Workspace
}

// NewWorkspaces returns a registry that creates workspaces with build.
func NewWorkspaces(build func(id string) *Workspace) *Workspaces {
	return &Workspaces{items: make(map[string]*Workspace), build: build}
}

// Get returns the workspace with id, creating and loading it on first use.
// Loading runs outside the registry lock; when two requests race to load the
// same id, the first one registered wins and the other copy is dropped.
func (r *Workspaces) Get(ctx context.Context, id string) (*Workspace, error) {
	if w := r.lookup(id); w != nil {
		return w, nil
	}

	w := r.build(id)
	if err := w.Load(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.items[id]; ok {
		existing.markSeen()
		return existing, nil
	}
	w.markSeen()
	r.items[id] = w
	return w, nil
}

func (r *Workspaces) lookup(id string) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.items[id]
	if !ok {
		return nil
	}
	w.markSeen()
	return w
}

// Evict drops workspaces idle for longer than maxIdle that have no model
// call in flight. Their stored data stays in the KV and is reloaded on the
// next request. Get marks a workspace as seen under the registry lock, so a
// workspace just handed out is never evicted.
func (r *Workspaces) Evict(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, w := range r.items {
		if w.IdleSince(cutoff) {
			delete(r.items, id)
			n++
		}
	}
	return n
}

// Len returns the number of live workspaces.
func (r *Workspaces) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
