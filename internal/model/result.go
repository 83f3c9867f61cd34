package model

import "time"

// Variant identifies one analyzer capability
type Variant string

const (
	VariantTextCredibility    Variant = "text_credibility"
	VariantSourceTracking     Variant = "source_tracking"
	VariantTacticsBreakdown   Variant = "tactics_breakdown"
	VariantSafetyCheck        Variant = "safety_check"
	VariantContextCorrelation Variant = "context_correlation"
)

// OutcomeStatus distinguishes usable results from failure stubs
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailure OutcomeStatus = "failure"
)

// Outcome is the typed result of one analyzer variant's run.
// A Failure always carries Confidence 0 and contributes zero weight
// to the aggregate.
type Outcome struct {
	Variant       Variant                `json:"variant"`
	Status        OutcomeStatus          `json:"status"`
	Score         float64                `json:"score"`      // 0-100, meaningful only on success
	Confidence    float64                `json:"confidence"` // 0-1
	Payload       map[string]interface{} `json:"payload,omitempty"`
	FailureReason string                 `json:"failure_reason,omitempty"`
}

// Success builds a well-formed success outcome with score and confidence clamped
func Success(v Variant, score, confidence float64, payload map[string]interface{}) Outcome {
	if score < 0 {
		score = 0
	} else if score > 100 {
		score = 100
	}
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}
	return Outcome{
		Variant:    v,
		Status:     OutcomeSuccess,
		Score:      score,
		Confidence: confidence,
		Payload:    payload,
	}
}

// Failure builds a failure stub. Confidence is pinned to zero.
func Failure(v Variant, reason string) Outcome {
	return Outcome{
		Variant:       v,
		Status:        OutcomeFailure,
		Confidence:    0,
		FailureReason: reason,
	}
}

// IsFailure reports whether the outcome is a failure stub
func (o Outcome) IsFailure() bool {
	return o.Status == OutcomeFailure
}

// ThreatLevel classifies the inverse of credibility for triage
type ThreatLevel string

const (
	ThreatLow    ThreatLevel = "LOW"
	ThreatMedium ThreatLevel = "MEDIUM"
	ThreatHigh   ThreatLevel = "HIGH"
)

// SafetyReport is produced by the safety check variant. It is reported
// alongside the credibility score and never enters the weighted mean.
type SafetyReport struct {
	IsSafe            bool     `json:"is_safe"`
	SafetyScore       float64  `json:"safety_score"` // 0-100
	FlaggedCategories []string `json:"flagged_categories,omitempty"`
	FlaggedTerms      []string `json:"flagged_terms,omitempty"`
}

// AnalysisResult is the composite verdict for one request.
// Created once by the aggregator, cached by fingerprint+options key,
// immutable thereafter.
type AnalysisResult struct {
	ID          string             `json:"id"`
	Fingerprint ContentFingerprint `json:"fingerprint"`
	Level       Level              `json:"level"`
	Focus       Focus              `json:"focus,omitempty"`

	CredibilityScore float64     `json:"credibility_score"` // 0-100
	Confidence       float64     `json:"confidence"`        // 0-1
	ThreatLevel      ThreatLevel `json:"threat_level"`

	Outcomes map[Variant]Outcome  `json:"outcomes"`
	Tactics  []ManipulationTactic `json:"manipulation_tactics"`
	Temporal *TemporalSignal      `json:"temporal_signal,omitempty"` // forensic level only
	Safety   *SafetyReport        `json:"safety,omitempty"`

	Recommendations []string `json:"recommendations,omitempty"`

	Duration  time.Duration `json:"duration_ns"`
	CreatedAt time.Time     `json:"created_at"`
}

// ContentFingerprint identifies content for caching and duplicate detection.
// Derived deterministically from normalized text, never mutated.
type ContentFingerprint struct {
	FullHash    string `json:"full_hash"`
	PartialHash string `json:"partial_hash"`
	TokenCount  int    `json:"token_count"`
}
