package adaptive

import (
	"context"

	"github.com/Luminous-Dynamics/adaptive-engine/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Adapt evaluates the adaptation policy. A nil profile falls back to the
// active profile.
func (uc *UseCase) Adapt(ctx context.Context, state model.Value, p *model.UserProfile) model.Value {
	if p == nil {
		if active, ok := uc.profiles.Active(); ok {
			p = &active
		}
	}
	return uc.policy.Adapt(ctx, state, p)
}

// SetProfile activates p, clamping its consciousness state
func (uc *UseCase) SetProfile(ctx context.Context, p model.UserProfile) model.UserProfile {
	return uc.profiles.Set(p)
}

func (uc *UseCase) ActiveProfile(ctx context.Context) (model.UserProfile, bool) {
	return uc.profiles.Active()
}

func (uc *UseCase) ClearProfile(ctx context.Context) {
	uc.profiles.Clear()
}

// LoadProfile activates a profile stored in the repository
func (uc *UseCase) LoadProfile(ctx context.Context, id model.ProfileID) (model.UserProfile, error) {
	if uc.repo == nil {
		return model.UserProfile{}, goerr.Wrap(ErrNoRepository, "cannot load profile", goerr.V("id", id))
	}
	return uc.profiles.Load(ctx, uc.repo, id)
}

// SaveProfile stores p in the repository without activating it
func (uc *UseCase) SaveProfile(ctx context.Context, p model.UserProfile) error {
	if uc.repo == nil {
		return goerr.Wrap(ErrNoRepository, "cannot save profile", goerr.V("id", p.ID))
	}
	clamped := p.Clamped()
	return uc.repo.PutProfile(ctx, &clamped)
}
