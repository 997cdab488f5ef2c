package adaptive

import (
	"context"

	"github.com/Luminous-Dynamics/adaptive-engine/pkg/analytics"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/model"
)

// Record appends an interaction event to the bounded history
func (uc *UseCase) Record(ctx context.Context, event model.Value) {
	uc.history.Record(event)
}

// History returns the recorded interactions, oldest first
func (uc *UseCase) History(ctx context.Context) []model.Value {
	return uc.history.Snapshot()
}

// InteractionCount is the current history length
func (uc *UseCase) InteractionCount() int {
	return uc.history.Len()
}

// HistoryCapacity is the maximum history length
func (uc *UseCase) HistoryCapacity() int {
	return uc.history.Capacity()
}

// ComputeMetrics derives metrics from a snapshot of the history
func (uc *UseCase) ComputeMetrics(ctx context.Context) model.Metrics {
	return uc.analyzer.ComputeMetrics()
}

// SuccessRate is the share of successful interactions. Pattern detectors
// are not run.
func (uc *UseCase) SuccessRate() float64 {
	return uc.analyzer.SuccessRate()
}

// SuggestLayoutImprovements turns the current metrics into layout hints
func (uc *UseCase) SuggestLayoutImprovements(ctx context.Context) []model.Suggestion {
	return analytics.Suggest(uc.analyzer.ComputeMetrics())
}
