package adaptive

import (
	"context"

	"github.com/Luminous-Dynamics/adaptive-engine/pkg/model"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/registry"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/utils/logging"
)

// ListComponents returns copies of all components in registration order
func (uc *UseCase) ListComponents(ctx context.Context) []model.ComponentState {
	return uc.registry.List()
}

// GetComponentState returns the state document of a component. A missing
// component is reported with false, not an error.
func (uc *UseCase) GetComponentState(ctx context.Context, id model.ComponentID) (model.Value, bool) {
	return uc.registry.GetState(id)
}

// SetComponentState replaces the whole state document of an existing
// component. It never creates a component.
func (uc *UseCase) SetComponentState(ctx context.Context, id model.ComponentID, state model.Value) bool {
	ok := uc.registry.SetState(id, state)
	logging.From(ctx).Debug("component state set", "id", id, "found", ok)
	return ok
}

// RegisterComponent adds a component after construction
func (uc *UseCase) RegisterComponent(ctx context.Context, c model.ComponentState) error {
	if err := uc.registry.Register(c); err != nil {
		return err
	}
	logging.From(ctx).Debug("component registered", "id", c.ID, "type", c.Type)
	return nil
}

// FindComponents returns the components matching every set field of sel
func (uc *UseCase) FindComponents(ctx context.Context, sel registry.Selector) []model.ComponentState {
	return uc.registry.Find(sel)
}

// ComponentCount is the number of registered components
func (uc *UseCase) ComponentCount() int {
	return uc.registry.Len()
}
