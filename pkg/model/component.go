package model

import "slices"

type ComponentID string

// ComponentState is a UI component's identity, type tag, opaque state and
// advertised capabilities
type ComponentState struct {
	ID           ComponentID `json:"id" yaml:"id"`
	Type         string      `json:"componentType" yaml:"type"`
	State        Value       `json:"state" yaml:"state"`
	Capabilities []string    `json:"capabilities" yaml:"capabilities"`
}

// Validate checks if the component can be registered
func (c *ComponentState) Validate() error {
	if c.ID == "" {
		return ErrInvalidComponent
	}
	return nil
}

// Copy returns a copy that shares no mutable memory with c
func (c ComponentState) Copy() ComponentState {
	c.Capabilities = slices.Clone(c.Capabilities)
	return c
}

// HasCapability reports whether the component advertises capability
func (c *ComponentState) HasCapability(capability string) bool {
	return slices.Contains(c.Capabilities, capability)
}
