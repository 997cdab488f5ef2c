package model

import (
	"slices"
	"strings"

	"github.com/google/uuid"
)

type LayoutID string

// NewLayoutID generates a new unique LayoutID
func NewLayoutID() LayoutID {
	return LayoutID(uuid.New().String())
}

// Layout is a named arrangement of components plus a grid description.
// Components are referenced by id; the registry stays authoritative for
// their state.
type Layout struct {
	ID         LayoutID      `json:"id" yaml:"id"`
	Name       string        `json:"name" yaml:"name"`
	Components []ComponentID `json:"components" yaml:"components"`
	Grid       Value         `json:"grid" yaml:"grid"`
}

// Validate checks if the layout can be stored
func (l *Layout) Validate() error {
	if !validKey(string(l.ID)) {
		return ErrInvalidLayout
	}
	return nil
}

// validKey reports whether id can be used as a storage key, including as a
// file name
func validKey(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && !strings.Contains(id, "..")
}

// Copy returns a copy that shares no mutable memory with l
func (l Layout) Copy() Layout {
	l.Components = slices.Clone(l.Components)
	return l
}
