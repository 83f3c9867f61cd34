// Package score folds heterogeneous analyzer outcomes into one
// composite credibility verdict.
package score

import (
	"time"

	"github.com/google/uuid"

	"github.com/veridict/veridict/internal/model"
)

// Aggregator computes the confidence-weighted composite score
type Aggregator struct {
	cfg model.ScoringConfig
}

// NewAggregator builds an aggregator with the given scoring parameters
func NewAggregator(cfg model.ScoringConfig) *Aggregator {
	if cfg.NeutralScore <= 0 {
		cfg.NeutralScore = 50
	}
	return &Aggregator{cfg: cfg}
}

// Input carries everything the aggregator needs for one verdict
type Input struct {
	Request     *model.AnalysisRequest
	Fingerprint model.ContentFingerprint
	Outcomes    map[model.Variant]model.Outcome
	Tactics     []model.ManipulationTactic
	Temporal    *model.TemporalSignal
	Safety      *model.SafetyReport
	Started     time.Time
}

// Aggregate folds the per-variant outcomes into a composite result.
// Success outcomes from credibility-bearing variants contribute
// score weighted by confidence; failures abstain entirely. The safety
// check rides alongside and never enters the mean. When every
// contributor abstained the verdict is the neutral midpoint with zero
// confidence, never an error.
func (a *Aggregator) Aggregate(in Input) *model.AnalysisResult {
	var weightedSum, totalWeight float64
	for variant, out := range in.Outcomes {
		if variant == model.VariantSafetyCheck || out.IsFailure() {
			continue
		}
		weightedSum += out.Score * out.Confidence
		totalWeight += out.Confidence
	}

	score := a.cfg.NeutralScore
	confidence := 0.0
	if totalWeight > 0 {
		score = weightedSum / totalWeight
		confidence = a.meanConfidence(in.Outcomes)
	}

	score -= a.tacticPenalty(in.Tactics)
	if score < 0 {
		score = 0
	} else if score > 100 {
		score = 100
	}

	result := &model.AnalysisResult{
		ID:               uuid.NewString(),
		Fingerprint:      in.Fingerprint,
		Level:            in.Request.Level,
		Focus:            in.Request.Focus,
		CredibilityScore: score,
		Confidence:       confidence,
		ThreatLevel:      threatLevel(score, in.Tactics),
		Outcomes:         in.Outcomes,
		Tactics:          in.Tactics,
		Temporal:         in.Temporal,
		Safety:           in.Safety,
		Duration:         time.Since(in.Started),
		CreatedAt:        time.Now().UTC(),
	}
	result.Recommendations = recommendations(result)
	return result
}

// tacticPenalty sums the severity-graded subtraction for detected tactics
func (a *Aggregator) tacticPenalty(tactics []model.ManipulationTactic) float64 {
	var penalty float64
	for _, t := range tactics {
		switch t.Severity {
		case model.SeverityHigh:
			penalty += a.cfg.PenaltyHigh
		case model.SeverityMedium:
			penalty += a.cfg.PenaltyMedium
		default:
			penalty += a.cfg.PenaltyLow
		}
	}
	return penalty
}

// meanConfidence averages confidence over the contributing variants
func (a *Aggregator) meanConfidence(outcomes map[model.Variant]model.Outcome) float64 {
	var sum float64
	var n int
	for variant, out := range outcomes {
		if variant == model.VariantSafetyCheck || out.IsFailure() {
			continue
		}
		sum += out.Confidence
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// threatLevel triages the score for downstream consumers. High-severity
// tactics escalate a borderline score.
func threatLevel(score float64, tactics []model.ManipulationTactic) model.ThreatLevel {
	highTactics := 0
	for _, t := range tactics {
		if t.Severity == model.SeverityHigh {
			highTactics++
		}
	}

	switch {
	case score < 35 || (score < 50 && highTactics >= 2):
		return model.ThreatHigh
	case score < 65 || highTactics > 0:
		return model.ThreatMedium
	default:
		return model.ThreatLow
	}
}

// recommendations turns the verdict into reader-facing guidance
func recommendations(r *model.AnalysisResult) []string {
	var recs []string

	switch r.ThreatLevel {
	case model.ThreatHigh:
		recs = append(recs, "Do not share this content without independent verification from multiple trusted sources.")
	case model.ThreatMedium:
		recs = append(recs, "Verify key claims with established sources before sharing.")
	default:
		recs = append(recs, "No strong misinformation signals detected; standard source checking still applies.")
	}

	if len(r.Tactics) > 0 {
		recs = append(recs, "Manipulation techniques were detected; read critically and check whether emotional framing replaces evidence.")
	}
	if r.Temporal != nil && (r.Temporal.CoordinatedTiming || r.Temporal.BotLikeIntervals) {
		recs = append(recs, "Spread pattern suggests coordinated amplification rather than organic sharing.")
	}
	if r.Safety != nil && !r.Safety.IsSafe {
		recs = append(recs, "Content contains potentially unsafe material; consider reporting it on the platform where it appeared.")
	}
	if r.Confidence < 0.3 {
		recs = append(recs, "Analysis confidence is low; treat the score as indicative only.")
	}

	return recs
}
