package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/veridict/veridict/internal/fingerprint"
	"github.com/veridict/veridict/internal/model"
	"github.com/veridict/veridict/internal/search"
	"github.com/veridict/veridict/internal/temporal"
)

// queryTokenLimit bounds how many significant tokens seed the search query
const queryTokenLimit = 12

// searchMaxRetries bounds retries of transient search-provider failures
const searchMaxRetries = 3

// SourceAnalyzer traces where else the analyzed content appears. It
// queries the duplicate-content search collaborator, deduplicates the
// sightings, optionally probes origins for liveness, and hands the
// timeline to the temporal detector.
type SourceAnalyzer struct {
	searcher search.Searcher
	verifier *search.Verifier
	detector *temporal.Detector
	verify   bool
}

// NewSourceAnalyzer wires the search collaborator into the source-tracking
// variant. verifier may be nil to skip origin probing.
func NewSourceAnalyzer(searcher search.Searcher, verifier *search.Verifier, detector *temporal.Detector, verify bool) *SourceAnalyzer {
	return &SourceAnalyzer{
		searcher: searcher,
		verifier: verifier,
		detector: detector,
		verify:   verify,
	}
}

func (a *SourceAnalyzer) Name() model.Variant {
	return model.VariantSourceTracking
}

func (a *SourceAnalyzer) Analyze(ctx context.Context, text string, actx *Context) model.Outcome {
	if a.searcher == nil {
		return model.Failure(a.Name(), "no search provider configured")
	}

	query := buildQuery(text)
	if query == "" {
		return model.Failure(a.Name(), "no significant tokens to search for")
	}

	sightings, err := a.searchWithRetry(ctx, query)
	if err != nil {
		return model.Failure(a.Name(), fmt.Sprintf("duplicate-content search failed: %v", err))
	}
	sightings = search.Dedupe(sightings)

	if a.verify && a.verifier != nil && len(sightings) > 0 {
		sightings = a.verifier.Verify(ctx, sightings)
	}

	signal := a.detector.Detect(sightings)

	score, confidence := scoreSpread(signal, sightings)

	payload := map[string]interface{}{
		"query":           query,
		"sightings":       sightings,
		"temporal_signal": signal,
	}
	return model.Success(a.Name(), score, confidence, payload)
}

// searchWithRetry retries transient search-provider failures with
// exponential backoff. Non-transient errors and cancellation fail fast.
func (a *SourceAnalyzer) searchWithRetry(ctx context.Context, query string) ([]model.SourceSighting, error) {
	var lastErr error
	for attempt := 0; attempt < searchMaxRetries; attempt++ {
		sightings, err := a.searcher.Search(ctx, query)
		if err == nil {
			return sightings, nil
		}
		lastErr = err
		if !isTransientError(err) || ctx.Err() != nil {
			return nil, err
		}
		if attempt < searchMaxRetries-1 {
			retrySleepFunc(time.Duration(1<<uint(attempt)) * time.Second)
		}
	}
	return nil, lastErr
}

// buildQuery seeds the duplicate search with the text's most significant
// tokens, mirroring how the partial fingerprint is built so that near
// duplicates with edited tails still match
func buildQuery(text string) string {
	tokens := fingerprint.SignificantTokens(text)
	if len(tokens) > queryTokenLimit {
		tokens = tokens[:queryTokenLimit]
	}
	return strings.Join(tokens, " ")
}

// scoreSpread maps the spread shape onto a credibility contribution.
// Coordinated or scripted diffusion is the strongest negative signal
// this variant can produce; organic spread is mildly reassuring.
// Confidence is inversely related to ambiguity: a pile of weak matches
// means we may be scoring someone else's content.
func scoreSpread(signal model.TemporalSignal, sightings []model.SourceSighting) (float64, float64) {
	var score float64
	switch signal.Pattern {
	case model.PatternCoordinated:
		score = 25
	case model.PatternRapid:
		score = 45
	case model.PatternOrganic:
		score = 70
	default: // insufficient data: nothing to hold against the content
		return 60, 0.3
	}

	var weak int
	for _, s := range sightings {
		if s.MatchConfidence < 0.5 {
			weak++
		}
	}
	ambiguity := float64(weak) / float64(len(sightings))

	confidence := signal.Confidence * (1 - 0.5*ambiguity)
	return score, confidence
}
