package profile_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Luminous-Dynamics/adaptive-engine/pkg/model"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/profile"
	"github.com/m-mizutani/gt"
)

type stubSource struct {
	profiles map[model.ProfileID]model.UserProfile
	err      error
}

func (s *stubSource) GetProfile(_ context.Context, id model.ProfileID) (*model.UserProfile, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.profiles[id]
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	return &p, nil
}

func TestSetClampsConsciousnessState(t *testing.T) {
	s := profile.New()

	_, ok := s.Active()
	gt.False(t, ok)

	got := s.Set(model.UserProfile{ID: "u1", ConsciousnessState: 1.5})
	gt.Equal(t, got.ConsciousnessState, 1.0)

	active, ok := s.Active()
	gt.True(t, ok)
	gt.Equal(t, active.ID, model.ProfileID("u1"))
	gt.Equal(t, active.ConsciousnessState, 1.0)
}

func TestSetReplacesActive(t *testing.T) {
	s := profile.New()
	s.Set(model.UserProfile{ID: "u1"})
	s.Set(model.UserProfile{ID: "u2", ConsciousnessState: 0.2})

	active, _ := s.Active()
	gt.Equal(t, active.ID, model.ProfileID("u2"))

	s.Clear()
	_, ok := s.Active()
	gt.False(t, ok)
}

func TestLoad(t *testing.T) {
	src := &stubSource{profiles: map[model.ProfileID]model.UserProfile{
		"dev": {ID: "dev", Persona: "developer", ConsciousnessState: -3},
	}}
	s := profile.New()

	p, err := s.Load(context.Background(), src, "dev")
	gt.NoError(t, err)
	gt.Equal(t, p.Persona, "developer")
	gt.Equal(t, p.ConsciousnessState, 0.0)
}

func TestLoadFailureKeepsActive(t *testing.T) {
	s := profile.New()
	s.Set(model.UserProfile{ID: "keep"})

	_, err := s.Load(context.Background(), &stubSource{}, "missing")
	gt.True(t, errors.Is(err, model.ErrProfileNotFound))

	_, err = s.Load(context.Background(), &stubSource{err: errors.New("network down")}, "any")
	gt.True(t, errors.Is(err, model.ErrCollaboratorFailure))

	active, ok := s.Active()
	gt.True(t, ok)
	gt.Equal(t, active.ID, model.ProfileID("keep"))
}
