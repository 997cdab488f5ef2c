package layout

import (
	"context"
	"errors"
	"sync"

	"github.com/Luminous-Dynamics/adaptive-engine/pkg/model"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Loader resolves stored layouts. It must report a missing layout with
// model.ErrLayoutNotFound.
type Loader interface {
	GetLayout(ctx context.Context, id model.LayoutID) (*model.Layout, error)
}

// Components is the read side of the component registry
type Components interface {
	List() []model.ComponentState
}

// Manager owns the current layout slot
type Manager struct {
	components Components
	loader     Loader

	mu      sync.RWMutex
	current *model.Layout
}

type Option func(*Manager)

// WithLoader makes Switch resolve layouts through a persistence collaborator
func WithLoader(l Loader) Option {
	return func(m *Manager) {
		m.loader = l
	}
}

func New(components Components, opts ...Option) *Manager {
	m := &Manager{components: components}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Switch installs the layout identified by id as current. Without a loader
// the layout is built from a snapshot of the registered components. The
// current layout is unchanged when Switch fails.
func (m *Manager) Switch(ctx context.Context, id model.LayoutID) (model.Layout, error) {
	if id == "" {
		return model.Layout{}, goerr.Wrap(model.ErrLayoutNotFound, "empty layout id")
	}

	next, err := m.resolve(ctx, id)
	if err != nil {
		return model.Layout{}, err
	}

	m.mu.Lock()
	m.current = &next
	m.mu.Unlock()

	logging.From(ctx).Debug("layout switched", "id", id, "components", len(next.Components))
	return next.Copy(), nil
}

func (m *Manager) resolve(ctx context.Context, id model.LayoutID) (model.Layout, error) {
	if m.loader == nil {
		list := m.components.List()
		ids := make([]model.ComponentID, 0, len(list))
		for _, c := range list {
			ids = append(ids, c.ID)
		}
		return model.Layout{
			ID:         id,
			Name:       string(id),
			Components: ids,
			Grid:       model.Object(),
		}, nil
	}

	l, err := m.loader.GetLayout(ctx, id)
	switch {
	case errors.Is(err, model.ErrLayoutNotFound):
		return model.Layout{}, err
	case err != nil:
		return model.Layout{}, goerr.Wrap(errors.Join(model.ErrCollaboratorFailure, err), "failed to load layout", goerr.V("id", id))
	case l == nil:
		return model.Layout{}, goerr.Wrap(model.ErrLayoutNotFound, "loader returned no layout", goerr.V("id", id))
	}
	return l.Copy(), nil
}

// Current returns a copy of the current layout
func (m *Manager) Current() (model.Layout, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.current == nil {
		return model.Layout{}, false
	}
	return m.current.Copy(), true
}
