package adaptation_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Luminous-Dynamics/adaptive-engine/pkg/adaptation"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/model"
	"github.com/m-mizutani/gt"
	"go.uber.org/goleak"
)

const sidebarPolicy = `package adapt

directives := {"sidebar": "collapsed", "layout": "focus"} if {
	input.state.cognitiveLoad > 0.85
}
`

const hintsPolicy = `package adapt

directives := {"tour": true} if {
	input.profile.persona == "newcomer"
}
`

func writePolicy(t *testing.T, dir, name, body string) {
	t.Helper()
	gt.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestRegoRule(t *testing.T) {
	dir := t.TempDir()
	writePolicy(t, dir, "adapt.rego", sidebarPolicy)

	rule, err := adaptation.NewRegoRule(context.Background(), dir)
	gt.NoError(t, err)

	p := adaptation.Default().With(rule)

	d := p.Adapt(context.Background(), load(0.9), nil)
	gt.Equal(t, str(t, d, "sidebar"), "collapsed")
	// policy output is merged after the built-in rules
	gt.Equal(t, str(t, d, "layout"), "focus")

	d = p.Adapt(context.Background(), load(0.5), nil)
	gt.Equal(t, d.Len(), 0)
}

func TestRegoRuleSeesProfile(t *testing.T) {
	dir := t.TempDir()
	writePolicy(t, dir, "hints.rego", hintsPolicy)

	rule, err := adaptation.NewRegoRule(context.Background(), dir)
	gt.NoError(t, err)

	out, err := rule.Evaluate(context.Background(), adaptation.Input{
		State:   model.Object(),
		Profile: &model.UserProfile{ID: "u1", Persona: "newcomer", ConsciousnessState: 0.9},
	})
	gt.NoError(t, err)
	tour, ok := out.Get("tour")
	gt.True(t, ok)
	b, _ := tour.AsBool()
	gt.True(t, b)

	out, err = rule.Evaluate(context.Background(), adaptation.Input{State: model.Object()})
	gt.NoError(t, err)
	gt.True(t, out.IsNull())
}

func TestRegoRuleEmptyDir(t *testing.T) {
	rule, err := adaptation.NewRegoRule(context.Background(), t.TempDir())
	gt.NoError(t, err)

	out, err := rule.Evaluate(context.Background(), adaptation.Input{State: load(1)})
	gt.NoError(t, err)
	gt.True(t, out.IsNull())
}

func TestRegoRuleCompileError(t *testing.T) {
	dir := t.TempDir()
	writePolicy(t, dir, "broken.rego", "package adapt\n\ndirectives := {\n")

	_, err := adaptation.NewRegoRule(context.Background(), dir)
	gt.Error(t, err)
}

func TestRegoRuleReloadKeepsPreviousOnError(t *testing.T) {
	dir := t.TempDir()
	writePolicy(t, dir, "adapt.rego", sidebarPolicy)

	rule, err := adaptation.NewRegoRule(context.Background(), dir)
	gt.NoError(t, err)

	writePolicy(t, dir, "adapt.rego", "package adapt\n\ndirectives := {\n")
	gt.Error(t, rule.Reload(context.Background()))

	out, err := rule.Evaluate(context.Background(), adaptation.Input{State: load(0.9)})
	gt.NoError(t, err)
	gt.Equal(t, str(t, out, "sidebar"), "collapsed")
}

func TestWatcherReloadsPolicy(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	rule, err := adaptation.NewRegoRule(context.Background(), dir)
	gt.NoError(t, err)

	reloaded := make(chan struct{}, 1)
	w := adaptation.NewWatcher(rule,
		adaptation.WithDebounce(20*time.Millisecond),
		adaptation.WithReloadNotify(reloaded),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// give the watcher a moment to register the directory
	time.Sleep(50 * time.Millisecond)
	writePolicy(t, dir, "adapt.rego", sidebarPolicy)

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("policy was not reloaded")
	}

	out, err := rule.Evaluate(context.Background(), adaptation.Input{State: load(0.9)})
	gt.NoError(t, err)
	gt.Equal(t, str(t, out, "sidebar"), "collapsed")

	cancel()
	gt.NoError(t, <-done)
}
