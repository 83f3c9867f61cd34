package model

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxTextLength bounds the size of analyzable content in bytes
const MaxTextLength = 10000

// MinTextLength rejects content too short to carry any usable signal
const MinTextLength = 10

// Level controls how many analyzer variants run for a request
type Level string

const (
	LevelQuickScan      Level = "quick_scan"
	LevelDeepAnalysis   Level = "deep_analysis"
	LevelForensicReview Level = "forensic_review"
)

// ParseLevel maps user-facing level names onto the Level enum
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quick", "quick_scan", "quick-scan", "quickscan":
		return LevelQuickScan, nil
	case "deep", "deep_analysis", "deep-analysis", "deepanalysis":
		return LevelDeepAnalysis, nil
	case "forensic", "forensic_review", "forensic-review", "forensicreview":
		return LevelForensicReview, nil
	default:
		return "", fmt.Errorf("unknown analysis level: %q (supported: quick, deep, forensic)", s)
	}
}

// Focus narrows analysis toward a sensitive content domain
type Focus string

const (
	FocusNone      Focus = ""
	FocusHealth    Focus = "health"
	FocusPolitical Focus = "political"
	FocusFinancial Focus = "financial"
	FocusCommunal  Focus = "communal"
)

// AnalysisRequest describes one piece of content to analyze.
// Immutable once validated.
type AnalysisRequest struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"` // optional hint (en, hi, ...)
	Level    Level  `json:"level"`
	Focus    Focus  `json:"focus,omitempty"`
}

// RejectedError is returned for requests that fail pre-dispatch validation.
// These never reach the analyzers and are never cached.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return "request rejected: " + e.Reason
}

// Validate checks the request before any analyzer is dispatched
func (r *AnalysisRequest) Validate() error {
	trimmed := strings.TrimSpace(r.Text)
	if trimmed == "" {
		return &RejectedError{Reason: "text is empty"}
	}
	if utf8.RuneCountInString(trimmed) < MinTextLength {
		return &RejectedError{Reason: fmt.Sprintf("text too short (minimum %d characters)", MinTextLength)}
	}
	if len(r.Text) > MaxTextLength {
		return &RejectedError{Reason: fmt.Sprintf("text too long (maximum %d bytes)", MaxTextLength)}
	}
	switch r.Level {
	case LevelQuickScan, LevelDeepAnalysis, LevelForensicReview:
	default:
		return &RejectedError{Reason: fmt.Sprintf("unsupported analysis level: %q", r.Level)}
	}
	return nil
}
