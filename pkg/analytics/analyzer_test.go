package analytics_test

import (
	"fmt"
	"testing"

	"github.com/Luminous-Dynamics/adaptive-engine/pkg/analytics"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/history"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/model"
	"github.com/m-mizutani/gt"
)

func interaction(action, target string, success bool, ts float64) model.Value {
	return model.Object(
		model.F("action", model.String(action)),
		model.F("target", model.String(target)),
		model.F("success", model.Bool(success)),
		model.F("timestamp", model.Number(ts)),
	)
}

func TestEmptyHistory(t *testing.T) {
	a := analytics.New(history.New(), analytics.WithDetectors(analytics.DefaultDetectors()...))

	m := a.ComputeMetrics()
	gt.Equal(t, m.TotalInteractions, 0)
	gt.Equal(t, m.SuccessRate, 0.0)
	gt.A(t, m.Patterns).Length(0)
}

func TestSuccessRate(t *testing.T) {
	h := history.New()
	for i := 0; i < 10; i++ {
		h.Record(model.Object(model.F("success", model.Bool(i < 3))))
	}

	m := analytics.New(h).ComputeMetrics()
	gt.Equal(t, m.TotalInteractions, 10)
	gt.Equal(t, m.SuccessRate, 0.3)
	gt.A(t, m.Patterns).Length(0)
}

func TestSuccessRateIgnoresNonBool(t *testing.T) {
	h := history.New()
	h.Record(model.Object(model.F("success", model.String("true"))))
	h.Record(model.Object(model.F("success", model.Number(1))))
	h.Record(model.String("opaque"))
	h.Record(model.Object(model.F("success", model.Bool(true))))

	m := analytics.New(h).ComputeMetrics()
	gt.Equal(t, m.TotalInteractions, 4)
	gt.Equal(t, m.SuccessRate, 0.25)
}

func TestMinEventsGatesDetectors(t *testing.T) {
	h := history.New()
	for i := 0; i < 9; i++ {
		h.Record(interaction("click", "button", true, float64(i)))
	}

	a := analytics.New(h,
		analytics.WithDetectors(analytics.DefaultDetectors()...),
		analytics.WithMinEvents(10),
	)
	gt.A(t, a.ComputeMetrics().Patterns).Length(0)

	h.Record(interaction("click", "button", true, 9))
	gt.A(t, a.ComputeMetrics().Patterns).Longer(0)
}

func TestCommonActions(t *testing.T) {
	events := []model.Value{}
	for _, action := range []string{"type", "search", "search", "click", "search", "click", "scroll", "zoom", "open", "close"} {
		events = append(events, interaction(action, "x", true, 0))
	}

	patterns := (&analytics.CommonActions{}).Detect(events)
	gt.A(t, patterns).Length(5)
	gt.Equal(t, patterns[0].Label, "search")
	gt.Equal(t, patterns[0].Support, 3)
	gt.Equal(t, patterns[1].Label, "click")
	gt.Equal(t, patterns[1].Support, 2)
	// ties keep first-seen order
	gt.Equal(t, patterns[2].Label, "type")
	gt.Equal(t, patterns[3].Label, "scroll")
}

func TestSequences(t *testing.T) {
	var events []model.Value
	for _, action := range []string{"open", "search", "click", "open", "search", "click", "close"} {
		events = append(events, interaction(action, "x", true, 0))
	}

	patterns := (&analytics.Sequences{}).Detect(events)
	gt.A(t, patterns).Length(4)
	gt.Equal(t, patterns[0].Label, "open > search > click")
	gt.Equal(t, patterns[0].Support, 2)

	steps, ok := patterns[0].Attributes.Get("steps")
	gt.True(t, ok)
	gt.Equal(t, steps.Len(), 3)
}

func TestSequencesTooShort(t *testing.T) {
	events := []model.Value{interaction("a", "x", true, 0), interaction("b", "x", true, 0)}
	gt.A(t, (&analytics.Sequences{}).Detect(events)).Length(0)
}

func TestErrorTargets(t *testing.T) {
	events := []model.Value{
		interaction("click", "save", false, 0),
		interaction("click", "save", false, 0),
		interaction("click", "open", true, 0),
		interaction("type", "search", false, 0),
		model.Object(model.F("action", model.String("noop"))),
	}

	patterns := (&analytics.ErrorTargets{}).Detect(events)
	gt.A(t, patterns).Length(2)
	gt.Equal(t, patterns[0].Label, "save")
	gt.Equal(t, patterns[0].Support, 2)
	gt.Equal(t, patterns[1].Label, "search")
}

func TestTiming(t *testing.T) {
	events := []model.Value{
		interaction("a", "x", true, 10),
		interaction("b", "x", true, 11),
		model.Object(model.F("action", model.String("untimed"))),
		interaction("c", "x", true, 14),
	}

	patterns := (&analytics.Timing{}).Detect(events)
	gt.A(t, patterns).Length(1)
	gt.Equal(t, patterns[0].Support, 2)

	avg, _ := patterns[0].Attributes.Get("avg")
	n, _ := avg.AsNumber()
	gt.Equal(t, n, 2.0)
	lo, _ := patterns[0].Attributes.Get("min")
	n, _ = lo.AsNumber()
	gt.Equal(t, n, 1.0)
	hi, _ := patterns[0].Attributes.Get("max")
	n, _ = hi.AsNumber()
	gt.Equal(t, n, 3.0)

	gt.A(t, (&analytics.Timing{}).Detect(events[:1])).Length(0)
}

func TestSuggest(t *testing.T) {
	h := history.New()
	for i := 0; i < 4; i++ {
		h.Record(interaction("search", "search-input", true, float64(i)))
	}
	for i := 0; i < 6; i++ {
		h.Record(interaction("click", "settings", false, float64(10+i)))
	}

	a := analytics.New(h, analytics.WithDetectors(analytics.DefaultDetectors()...))
	suggestions := analytics.Suggest(a.ComputeMetrics())
	gt.A(t, suggestions).Length(2)
	gt.Equal(t, suggestions[0].Type, "move_component")
	gt.Equal(t, suggestions[0].Component, "SearchBar")
	gt.Equal(t, suggestions[1].Type, "simplify_layout")
}

func TestSuggestNothing(t *testing.T) {
	gt.A(t, analytics.Suggest(model.Metrics{})).Length(0)
}

func TestSuggestCountsFailuresAcrossManyTargets(t *testing.T) {
	h := history.New()
	for i := 0; i < 8; i++ {
		h.Record(interaction("click", fmt.Sprintf("t%d", i), false, float64(i)))
	}

	a := analytics.New(h,
		analytics.WithDetectors(analytics.DefaultDetectors()...),
		analytics.WithMinEvents(1),
	)
	m := a.ComputeMetrics()
	gt.Equal(t, m.FailedInteractions, 8)
	gt.A(t, m.PatternsBy(analytics.DetectorErrorTargets)).Length(5)

	suggestions := analytics.Suggest(m)
	gt.A(t, suggestions).Length(1)
	gt.Equal(t, suggestions[0].Type, "simplify_layout")
}

func TestFailedInteractionsIgnoreNonBool(t *testing.T) {
	h := history.New()
	h.Record(model.Object(model.F("success", model.Bool(false))))
	h.Record(model.Object(model.F("success", model.String("false"))))
	h.Record(model.Object(model.F("action", model.String("noop"))))

	m := analytics.New(h).ComputeMetrics()
	gt.Equal(t, m.FailedInteractions, 1)
}

func TestNonPositiveSettingsUseDefaults(t *testing.T) {
	var events []model.Value
	for _, action := range []string{"a", "b", "c", "a", "b", "c", "d"} {
		events = append(events, interaction(action, action, false, 0))
	}

	seq := (&analytics.Sequences{Length: -1, Limit: -2}).Detect(events)
	gt.A(t, seq).Length(4)
	gt.Equal(t, seq[0].Label, "a > b > c")

	gt.A(t, (&analytics.CommonActions{Limit: -1}).Detect(events)).Length(4)
	gt.A(t, (&analytics.ErrorTargets{Limit: 0}).Detect(events)).Length(4)
}

type countingDetector struct {
	calls int
}

func (d *countingDetector) Name() string { return "counting" }

func (d *countingDetector) Detect(events []model.Value) []model.Pattern {
	d.calls++
	return nil
}

func TestSuccessRateSkipsDetectors(t *testing.T) {
	h := history.New()
	for i := 0; i < 4; i++ {
		h.Record(model.Object(model.F("success", model.Bool(i == 0))))
	}

	d := &countingDetector{}
	a := analytics.New(h, analytics.WithDetectors(d))

	gt.Equal(t, a.SuccessRate(), 0.25)
	gt.Equal(t, d.calls, 0)

	a.ComputeMetrics()
	gt.Equal(t, d.calls, 1)

	gt.Equal(t, analytics.New(history.New()).SuccessRate(), 0.0)
}
