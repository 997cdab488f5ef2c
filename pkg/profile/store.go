package profile

import (
	"context"
	"errors"
	"sync"

	"github.com/Luminous-Dynamics/adaptive-engine/pkg/model"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Source fetches profiles from persistence
type Source interface {
	GetProfile(ctx context.Context, id model.ProfileID) (*model.UserProfile, error)
}

// Store holds at most one active profile
type Store struct {
	mu     sync.RWMutex
	active *model.UserProfile
}

func New() *Store {
	return &Store{}
}

// Set installs p as the active profile. An out of range consciousness state
// is clamped instead of rejected.
func (s *Store) Set(p model.UserProfile) model.UserProfile {
	clamped := p.Clamped()

	s.mu.Lock()
	s.active = &clamped
	s.mu.Unlock()

	return clamped
}

// Active returns the active profile, if any
func (s *Store) Active() (model.UserProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.active == nil {
		return model.UserProfile{}, false
	}
	return *s.active, true
}

func (s *Store) Clear() {
	s.mu.Lock()
	s.active = nil
	s.mu.Unlock()
}

// Load fetches a profile from src and installs it. On failure the active
// profile is left unchanged.
func (s *Store) Load(ctx context.Context, src Source, id model.ProfileID) (model.UserProfile, error) {
	p, err := src.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrProfileNotFound) {
			return model.UserProfile{}, err
		}
		return model.UserProfile{}, goerr.Wrap(errors.Join(model.ErrCollaboratorFailure, err), "failed to load profile", goerr.V("id", id))
	}
	if p == nil {
		return model.UserProfile{}, goerr.Wrap(model.ErrProfileNotFound, "source returned no profile", goerr.V("id", id))
	}

	installed := s.Set(*p)
	logging.From(ctx).Debug("profile activated", "id", installed.ID)
	return installed, nil
}
