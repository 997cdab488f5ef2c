package analytics

import "github.com/Luminous-Dynamics/adaptive-engine/pkg/model"

const errorRateThreshold = 5

// Suggest derives layout improvements from metrics produced with the
// default detectors
func Suggest(m model.Metrics) []model.Suggestion {
	suggestions := []model.Suggestion{}

	common := m.PatternsBy(DetectorCommonActions)
	for i, p := range common {
		if i >= 3 {
			break
		}
		if p.Label == "search" {
			suggestions = append(suggestions, model.Suggestion{
				Type:       "move_component",
				Component:  "SearchBar",
				Reason:     "Frequently used",
				Suggestion: "Move to more prominent position",
			})
			break
		}
	}

	if m.FailedInteractions > errorRateThreshold {
		suggestions = append(suggestions, model.Suggestion{
			Type:       "simplify_layout",
			Reason:     "High error rate",
			Suggestion: "Reduce complexity",
		})
	}

	return suggestions
}
