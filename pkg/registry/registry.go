package registry

import (
	"sync"

	"github.com/Luminous-Dynamics/adaptive-engine/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Registry owns the set of live component descriptors. Every read returns a
// copy; the registry never hands out references to its own entries.
type Registry struct {
	mu      sync.RWMutex
	order   []model.ComponentID
	entries map[model.ComponentID]model.ComponentState
}

// New creates a registry seeded with components in the given order
func New(components ...model.ComponentState) (*Registry, error) {
	r := &Registry{
		entries: make(map[model.ComponentID]model.ComponentState, len(components)),
	}
	for _, c := range components {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a new component. The id must be non-empty and unused.
func (r *Registry) Register(c model.ComponentState) error {
	if err := c.Validate(); err != nil {
		return goerr.Wrap(err, "failed to register component", goerr.V("type", c.Type))
	}
	c = c.Copy()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[c.ID]; exists {
		return goerr.Wrap(model.ErrDuplicateComponent, "failed to register component", goerr.V("id", c.ID))
	}
	r.order = append(r.order, c.ID)
	r.entries[c.ID] = c
	return nil
}

// List returns a snapshot of all components in registration order
func (r *Registry) List() []model.ComponentState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.ComponentState, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id].Copy())
	}
	return out
}

// Get returns a copy of the component with id
func (r *Registry) Get(id model.ComponentID) (model.ComponentState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.entries[id]
	if !ok {
		return model.ComponentState{}, false
	}
	return c.Copy(), true
}

// GetState returns the state document of the component with id
func (r *Registry) GetState(id model.ComponentID) (model.Value, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.entries[id]
	if !ok {
		return model.Value{}, false
	}
	return c.State, true
}

// SetState replaces the whole state document of an existing component. It
// reports false, and creates nothing, when id is unknown.
func (r *Registry) SetState(id model.ComponentID, state model.Value) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.entries[id]
	if !ok {
		return false
	}
	c.State = state
	r.entries[id] = c
	return true
}

// Len returns the number of registered components
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Has reports whether every id is registered and returns the first missing one
func (r *Registry) Has(ids ...model.ComponentID) (model.ComponentID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range ids {
		if _, ok := r.entries[id]; !ok {
			return id, false
		}
	}
	return "", true
}
