package adaptation

import (
	"context"

	"github.com/Luminous-Dynamics/adaptive-engine/pkg/model"
)

const (
	DefaultCognitiveLoad = 0.5
	cognitiveLoadLimit   = 0.8
	flowLevelLimit       = 0.7
	stressLevelLimit     = 0.6
	lowEngagementLimit   = 0.3
)

// DefaultRules returns the built-in chain. With only cognitiveLoad in the
// snapshot and no profile, only CognitiveLoadRule can fire.
func DefaultRules() []Rule {
	return []Rule{
		CognitiveLoadRule(),
		FlowRule(),
		StressRule(),
		LowEngagementRule(),
	}
}

// NumberOr reads a numeric field from an object snapshot. Missing or
// non-numeric fields yield fallback.
func NumberOr(state model.Value, key string, fallback float64) float64 {
	f, ok := state.Get(key)
	if !ok {
		return fallback
	}
	n, ok := f.AsNumber()
	if !ok {
		return fallback
	}
	return n
}

// ThresholdRule emits Directives when a numeric snapshot field is strictly
// above Threshold
type ThresholdRule struct {
	RuleName   string
	Field      string
	Default    float64
	Threshold  float64
	Directives model.Value
}

func (r *ThresholdRule) Name() string { return r.RuleName }

func (r *ThresholdRule) Evaluate(_ context.Context, in Input) (model.Value, error) {
	if NumberOr(in.State, r.Field, r.Default) > r.Threshold {
		return r.Directives, nil
	}
	return model.Null(), nil
}

// CognitiveLoadRule simplifies the interface under high cognitive load
func CognitiveLoadRule() *ThresholdRule {
	return &ThresholdRule{
		RuleName:  "cognitive_load",
		Field:     "cognitiveLoad",
		Default:   DefaultCognitiveLoad,
		Threshold: cognitiveLoadLimit,
		Directives: model.Object(
			model.F("layout", model.String("minimal")),
			model.F("fontSizeIncrease", model.Number(1.2)),
		),
	}
}

// FlowRule removes distractions while the user is in flow
func FlowRule() *ThresholdRule {
	return &ThresholdRule{
		RuleName:   "flow",
		Field:      "flowLevel",
		Threshold:  flowLevelLimit,
		Directives: model.Object(model.F("focusMode", model.Bool(true))),
	}
}

// StressRule switches to a calming theme under stress
func StressRule() *ThresholdRule {
	return &ThresholdRule{
		RuleName:  "stress",
		Field:     "stressLevel",
		Threshold: stressLevelLimit,
		Directives: model.Object(
			model.F("theme", model.String("calming")),
			model.F("animations", model.Bool(false)),
		),
	}
}

// LowEngagementRule turns on guidance when the active profile reports low
// engagement
func LowEngagementRule() Rule {
	return RuleFunc{
		RuleName: "low_engagement",
		Fn: func(_ context.Context, in Input) (model.Value, error) {
			if in.Profile == nil || in.Profile.ConsciousnessState >= lowEngagementLimit {
				return model.Null(), nil
			}
			return model.Object(model.F("showHints", model.Bool(true))), nil
		},
	}
}
