package model

// Severity grades how strongly a manipulation tactic degrades credibility
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ManipulationTactic describes one detected persuasion/manipulation technique
type ManipulationTactic struct {
	Name        string   `json:"name"`
	Severity    Severity `json:"severity"`
	Confidence  float64  `json:"confidence"` // 0-1
	Description string   `json:"description,omitempty"`
	Excerpts    []string `json:"excerpts,omitempty"` // matched fragments, document order
}
