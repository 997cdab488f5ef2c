package registry

import "github.com/Luminous-Dynamics/adaptive-engine/pkg/model"

// Selector matches components. Empty fields match anything; all set fields
// must match.
type Selector struct {
	ID         model.ComponentID `json:"id,omitempty"`
	Type       string            `json:"type,omitempty"`
	Capability string            `json:"capability,omitempty"`
}

// Match reports whether c satisfies the selector
func (s Selector) Match(c *model.ComponentState) bool {
	if s.ID != "" && c.ID != s.ID {
		return false
	}
	if s.Type != "" && c.Type != s.Type {
		return false
	}
	if s.Capability != "" && !c.HasCapability(s.Capability) {
		return false
	}
	return true
}

// Find returns matching components in registration order
func (r *Registry) Find(sel Selector) []model.ComponentState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.ComponentState
	for _, id := range r.order {
		c := r.entries[id]
		if sel.Match(&c) {
			out = append(out, c.Copy())
		}
	}
	return out
}
