package adaptation

import (
	"context"

	"github.com/Luminous-Dynamics/adaptive-engine/pkg/model"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/utils/logging"
)

// Input is what every rule sees: the caller's user-state snapshot and the
// optional active profile
type Input struct {
	State   model.Value
	Profile *model.UserProfile
}

// Rule inspects the input and may contribute directives. A null (or any
// non-object) result contributes nothing.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, in Input) (model.Value, error)
}

// RuleFunc adapts a function to Rule
type RuleFunc struct {
	RuleName string
	Fn       func(ctx context.Context, in Input) (model.Value, error)
}

func (f RuleFunc) Name() string { return f.RuleName }

func (f RuleFunc) Evaluate(ctx context.Context, in Input) (model.Value, error) {
	return f.Fn(ctx, in)
}

// Policy is an ordered rule chain. Rule outputs are merged left to right;
// a later rule overrides an earlier one for the same key.
type Policy struct {
	rules []Rule
}

// New creates a policy evaluating rules in order
func New(rules ...Rule) *Policy {
	return &Policy{rules: append([]Rule(nil), rules...)}
}

// Default returns the policy built from DefaultRules
func Default() *Policy {
	return New(DefaultRules()...)
}

// With returns a new policy with rules appended after the existing chain
func (p *Policy) With(rules ...Rule) *Policy {
	chain := make([]Rule, 0, len(p.rules)+len(rules))
	chain = append(chain, p.rules...)
	chain = append(chain, rules...)
	return &Policy{rules: chain}
}

// Rules returns the rule names in evaluation order
func (p *Policy) Rules() []string {
	names := make([]string, 0, len(p.rules))
	for _, r := range p.rules {
		names = append(names, r.Name())
	}
	return names
}

// Adapt maps a user-state snapshot to directives. It never fails: a rule
// error is logged and that rule is skipped.
func (p *Policy) Adapt(ctx context.Context, state model.Value, profile *model.UserProfile) model.Value {
	in := Input{State: state, Profile: profile}
	directives := model.Object()

	for _, r := range p.rules {
		out, err := r.Evaluate(ctx, in)
		if err != nil {
			logging.From(ctx).Warn("adaptation rule failed", "rule", r.Name(), "error", err)
			continue
		}
		if out.Kind() != model.KindObject {
			continue
		}
		directives = directives.Merge(out)
	}

	return directives
}
