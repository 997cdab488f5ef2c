package analytics

import (
	"cmp"
	"math"
	"sort"
	"strings"

	"github.com/Luminous-Dynamics/adaptive-engine/pkg/model"
)

const (
	DetectorCommonActions = "common_actions"
	DetectorSequences     = "sequences"
	DetectorErrorTargets  = "error_targets"
	DetectorTiming        = "timing"
)

// DefaultDetectors returns the built-in detectors with their default settings
func DefaultDetectors() []Detector {
	return []Detector{
		&CommonActions{},
		&Sequences{},
		&ErrorTargets{},
		&Timing{},
	}
}

// positiveOr returns n, or fallback when n is not positive
func positiveOr(n, fallback int) int {
	if n <= 0 {
		return fallback
	}
	return n
}

// counter tallies labels keeping first-seen order
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(label string) {
	if _, ok := c.counts[label]; !ok {
		c.order = append(c.order, label)
	}
	c.counts[label]++
}

// CommonActions reports the most frequent action names
type CommonActions struct {
	Field string // default "action"
	Limit int    // default 5
}

func (d *CommonActions) Name() string { return DetectorCommonActions }

func (d *CommonActions) Detect(events []model.Value) []model.Pattern {
	field := cmp.Or(d.Field, "action")
	c := newCounter()
	for _, ev := range events {
		if action, ok := stringField(ev, field); ok {
			c.add(action)
		}
	}

	labels := append([]string(nil), c.order...)
	sort.SliceStable(labels, func(i, j int) bool {
		return c.counts[labels[i]] > c.counts[labels[j]]
	})

	limit := positiveOr(d.Limit, 5)
	if len(labels) > limit {
		labels = labels[:limit]
	}

	out := make([]model.Pattern, 0, len(labels))
	for _, l := range labels {
		out = append(out, model.Pattern{
			Detector: DetectorCommonActions,
			Label:    l,
			Support:  c.counts[l],
		})
	}
	return out
}

// Sequences reports repeated runs of consecutive actions
type Sequences struct {
	Field  string // default "action"
	Length int    // default 3
	Limit  int    // default 5
}

func (d *Sequences) Name() string { return DetectorSequences }

func (d *Sequences) Detect(events []model.Value) []model.Pattern {
	field := cmp.Or(d.Field, "action")
	length := positiveOr(d.Length, 3)

	actions := make([]string, 0, len(events))
	for _, ev := range events {
		if action, ok := stringField(ev, field); ok {
			actions = append(actions, action)
		}
	}

	c := newCounter()
	steps := make(map[string][]string)
	for i := 0; i+length <= len(actions); i++ {
		window := actions[i : i+length]
		label := strings.Join(window, " > ")
		if _, ok := steps[label]; !ok {
			steps[label] = append([]string(nil), window...)
		}
		c.add(label)
	}

	limit := positiveOr(d.Limit, 5)
	labels := c.order
	if len(labels) > limit {
		labels = labels[:limit]
	}

	out := make([]model.Pattern, 0, len(labels))
	for _, l := range labels {
		items := make([]model.Value, 0, length)
		for _, s := range steps[l] {
			items = append(items, model.String(s))
		}
		out = append(out, model.Pattern{
			Detector:   DetectorSequences,
			Label:      l,
			Support:    c.counts[l],
			Attributes: model.Object(model.F("steps", model.List(items...))),
		})
	}
	return out
}

// ErrorTargets reports targets of interactions marked success=false
type ErrorTargets struct {
	Field string // default "target"
	Limit int    // default 5
}

func (d *ErrorTargets) Name() string { return DetectorErrorTargets }

func (d *ErrorTargets) Detect(events []model.Value) []model.Pattern {
	field := cmp.Or(d.Field, "target")
	c := newCounter()
	for _, ev := range events {
		success, present := boolField(ev, "success")
		if !present || success {
			continue
		}
		target, ok := stringField(ev, field)
		if !ok {
			target = "unknown"
		}
		c.add(target)
	}

	limit := positiveOr(d.Limit, 5)
	labels := c.order
	if len(labels) > limit {
		labels = labels[:limit]
	}

	out := make([]model.Pattern, 0, len(labels))
	for _, l := range labels {
		out = append(out, model.Pattern{
			Detector: DetectorErrorTargets,
			Label:    l,
			Support:  c.counts[l],
		})
	}
	return out
}

// Timing summarizes intervals between consecutive timestamped interactions
type Timing struct {
	Field string // default "timestamp", seconds
}

func (d *Timing) Name() string { return DetectorTiming }

func (d *Timing) Detect(events []model.Value) []model.Pattern {
	field := cmp.Or(d.Field, "timestamp")

	var (
		prev     float64
		havePrev bool
		count    int
		sum      float64
		lo       = math.Inf(1)
		hi       = math.Inf(-1)
	)
	for _, ev := range events {
		ts, ok := numberField(ev, field)
		if !ok {
			continue
		}
		if havePrev {
			interval := ts - prev
			sum += interval
			lo = math.Min(lo, interval)
			hi = math.Max(hi, interval)
			count++
		}
		prev, havePrev = ts, true
	}
	if count == 0 {
		return nil
	}

	return []model.Pattern{{
		Detector: DetectorTiming,
		Label:    "interval",
		Support:  count,
		Attributes: model.Object(
			model.F("avg", model.Number(sum/float64(count))),
			model.F("min", model.Number(lo)),
			model.F("max", model.Number(hi)),
		),
	}}
}
