package analytics

import (
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/model"
)

// DefaultMinEvents is the history length below which pattern learning is
// skipped
const DefaultMinEvents = 10

// Source provides a copy of the interaction log, oldest first
type Source interface {
	Snapshot() []model.Value
}

// Detector derives higher-order patterns from a snapshot of interactions
type Detector interface {
	Name() string
	Detect(events []model.Value) []model.Pattern
}

// Analyzer computes aggregate metrics over a history source. Detectors run
// on a snapshot, so no history lock is held during analysis.
type Analyzer struct {
	source    Source
	detectors []Detector
	minEvents int
}

// Option configures Analyzer
type Option func(*Analyzer)

// WithDetectors appends pattern detectors, run in the given order
func WithDetectors(detectors ...Detector) Option {
	return func(a *Analyzer) {
		a.detectors = append(a.detectors, detectors...)
	}
}

// WithMinEvents skips pattern detection until the history holds n events
func WithMinEvents(n int) Option {
	return func(a *Analyzer) {
		a.minEvents = n
	}
}

// New creates an Analyzer. Without detectors it reports an empty pattern
// list.
func New(source Source, opts ...Option) *Analyzer {
	a := &Analyzer{source: source}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ComputeMetrics analyzes the current history
func (a *Analyzer) ComputeMetrics() model.Metrics {
	return a.Analyze(a.source.Snapshot())
}

// Analyze computes metrics over the given events
func (a *Analyzer) Analyze(events []model.Value) model.Metrics {
	m := model.Metrics{
		TotalInteractions: len(events),
		Patterns:          []model.Pattern{},
	}
	if len(events) == 0 {
		return m
	}

	succeeded, failed := countOutcomes(events)
	m.SuccessRate = float64(succeeded) / float64(len(events))
	m.FailedInteractions = failed

	if len(events) < a.minEvents {
		return m
	}
	for _, d := range a.detectors {
		m.Patterns = append(m.Patterns, d.Detect(events)...)
	}
	return m
}

// SuccessRate computes only the success rate of the current history, without
// running detectors
func (a *Analyzer) SuccessRate() float64 {
	events := a.source.Snapshot()
	if len(events) == 0 {
		return 0
	}
	succeeded, _ := countOutcomes(events)
	return float64(succeeded) / float64(len(events))
}

// countOutcomes counts events whose success field is true and false. Events
// without a bool success field count as neither.
func countOutcomes(events []model.Value) (succeeded, failed int) {
	for _, ev := range events {
		ok, present := boolField(ev, "success")
		switch {
		case !present:
		case ok:
			succeeded++
		default:
			failed++
		}
	}
	return succeeded, failed
}

// boolField returns (value, present) for a bool field of an object event
func boolField(ev model.Value, key string) (bool, bool) {
	f, ok := ev.Get(key)
	if !ok {
		return false, false
	}
	return f.AsBool()
}

func stringField(ev model.Value, key string) (string, bool) {
	f, ok := ev.Get(key)
	if !ok {
		return "", false
	}
	return f.AsString()
}

func numberField(ev model.Value, key string) (float64, bool) {
	f, ok := ev.Get(key)
	if !ok {
		return 0, false
	}
	return f.AsNumber()
}
