package model

// Metrics is the result of analyzing the interaction history
type Metrics struct {
	TotalInteractions  int       `json:"totalInteractions"`
	SuccessRate        float64   `json:"successRate"`
	FailedInteractions int       `json:"failedInteractions"`
	Patterns           []Pattern `json:"patterns"`
}

// Pattern is a descriptor produced by a pattern detector
type Pattern struct {
	Detector   string `json:"detector"`
	Label      string `json:"label"`
	Support    int    `json:"support"`
	Attributes Value  `json:"attributes"`
}

// PatternsBy returns patterns produced by the named detector, in order
func (m *Metrics) PatternsBy(detector string) []Pattern {
	var out []Pattern
	for _, p := range m.Patterns {
		if p.Detector == detector {
			out = append(out, p)
		}
	}
	return out
}

// Suggestion is a layout improvement derived from metrics
type Suggestion struct {
	Type       string `json:"type"`
	Component  string `json:"component,omitempty"`
	Reason     string `json:"reason"`
	Suggestion string `json:"suggestion"`
}
