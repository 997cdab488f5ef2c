package model

import "math"

const (
	MinConsciousnessState = 0.0
	MaxConsciousnessState = 1.0

	// DefaultConsciousnessState is assumed when a profile does not report
	// the metric
	DefaultConsciousnessState = 0.5
)

type ProfileID string

// UserProfile carries persona, preferences and the engagement metric read by
// the adaptation policy
type UserProfile struct {
	ID                 ProfileID `json:"id" yaml:"id"`
	Persona            string    `json:"persona" yaml:"persona"`
	Preferences        Value     `json:"preferences" yaml:"preferences"`
	ConsciousnessState float64   `json:"consciousnessState" yaml:"consciousness_state"`
}

// Validate checks if the profile can be stored
func (p *UserProfile) Validate() error {
	if !validKey(string(p.ID)) {
		return ErrInvalidProfile
	}
	return nil
}

// Clamped returns the profile with ConsciousnessState forced into range
func (p UserProfile) Clamped() UserProfile {
	switch {
	case math.IsNaN(p.ConsciousnessState), p.ConsciousnessState < MinConsciousnessState:
		p.ConsciousnessState = MinConsciousnessState
	case p.ConsciousnessState > MaxConsciousnessState:
		p.ConsciousnessState = MaxConsciousnessState
	}
	return p
}
