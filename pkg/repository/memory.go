package repository

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/Luminous-Dynamics/adaptive-engine/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Memory keeps layouts and profiles in process memory
type Memory struct {
	mu       sync.RWMutex
	layouts  map[model.LayoutID]model.Layout
	profiles map[model.ProfileID]model.UserProfile
}

var _ Repository = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		layouts:  make(map[model.LayoutID]model.Layout),
		profiles: make(map[model.ProfileID]model.UserProfile),
	}
}

func (m *Memory) GetLayout(_ context.Context, id model.LayoutID) (*model.Layout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.layouts[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrLayoutNotFound, "failed to get layout", goerr.V("id", id))
	}
	out := l.Copy()
	return &out, nil
}

func (m *Memory) PutLayout(_ context.Context, layout *model.Layout) error {
	if err := layout.Validate(); err != nil {
		return goerr.Wrap(err, "invalid layout", goerr.V("id", layout.ID))
	}

	m.mu.Lock()
	m.layouts[layout.ID] = layout.Copy()
	m.mu.Unlock()
	return nil
}

func (m *Memory) ListLayouts(_ context.Context) ([]*model.Layout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*model.Layout, 0, len(m.layouts))
	for _, l := range m.layouts {
		c := l.Copy()
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *model.Layout) int {
		return strings.Compare(string(a.ID), string(b.ID))
	})
	return out, nil
}

func (m *Memory) GetProfile(_ context.Context, id model.ProfileID) (*model.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrProfileNotFound, "failed to get profile", goerr.V("id", id))
	}
	return &p, nil
}

func (m *Memory) PutProfile(_ context.Context, profile *model.UserProfile) error {
	if err := profile.Validate(); err != nil {
		return goerr.Wrap(err, "invalid profile", goerr.V("id", profile.ID))
	}

	m.mu.Lock()
	m.profiles[profile.ID] = *profile
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }
