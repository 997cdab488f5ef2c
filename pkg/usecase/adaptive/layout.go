package adaptive

import (
	"context"

	"github.com/Luminous-Dynamics/adaptive-engine/pkg/model"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// SwitchLayout installs a layout as current. With a repository the layout
// must exist there; otherwise it is built from the registered components.
func (uc *UseCase) SwitchLayout(ctx context.Context, id model.LayoutID) (model.Layout, error) {
	return uc.layouts.Switch(ctx, id)
}

// CurrentLayout returns the current layout, if one was installed
func (uc *UseCase) CurrentLayout(ctx context.Context) (model.Layout, bool) {
	return uc.layouts.Current()
}

// CreateLayout stores a new layout referencing registered components
func (uc *UseCase) CreateLayout(ctx context.Context, name string, ids []model.ComponentID, grid model.Value) (model.Layout, error) {
	if uc.repo == nil {
		return model.Layout{}, goerr.Wrap(ErrNoRepository, "cannot create layout")
	}
	if missing, ok := uc.registry.Has(ids...); !ok {
		return model.Layout{}, goerr.Wrap(model.ErrComponentNotFound, "layout references unknown component", goerr.V("component", missing))
	}
	if grid.IsNull() {
		grid = model.Object()
	}

	l := model.Layout{
		ID:         model.NewLayoutID(),
		Name:       name,
		Components: append([]model.ComponentID(nil), ids...),
		Grid:       grid,
	}
	if err := uc.repo.PutLayout(ctx, &l); err != nil {
		return model.Layout{}, goerr.Wrap(err, "failed to store layout", goerr.V("name", name))
	}

	logging.From(ctx).Info("layout created", "id", l.ID, "name", name)
	return l, nil
}

// ListLayouts returns the stored layouts
func (uc *UseCase) ListLayouts(ctx context.Context) ([]*model.Layout, error) {
	if uc.repo == nil {
		return nil, goerr.Wrap(ErrNoRepository, "cannot list layouts")
	}
	return uc.repo.ListLayouts(ctx)
}
