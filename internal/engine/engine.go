// Package engine orchestrates analysis requests: validation, cache
// lookup, concurrent analyzer fan-out with per-variant failure
// isolation, aggregation, and cache population.
package engine

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/veridict/veridict/internal/analyzer"
	"github.com/veridict/veridict/internal/cache"
	"github.com/veridict/veridict/internal/fingerprint"
	"github.com/veridict/veridict/internal/model"
	"github.com/veridict/veridict/internal/provider"
	"github.com/veridict/veridict/internal/score"
	"github.com/veridict/veridict/internal/search"
	"github.com/veridict/veridict/internal/temporal"
	"github.com/veridict/veridict/internal/worker"
)

// levelVariants is the dispatch table: which analyzer variants each
// analysis level activates. Kept as data so it can be listed and tested
// directly.
var levelVariants = map[model.Level][]model.Variant{
	model.LevelQuickScan: {
		model.VariantTextCredibility,
	},
	model.LevelDeepAnalysis: {
		model.VariantTextCredibility,
		model.VariantSourceTracking,
		model.VariantTacticsBreakdown,
	},
	model.LevelForensicReview: {
		model.VariantTextCredibility,
		model.VariantSourceTracking,
		model.VariantTacticsBreakdown,
		model.VariantSafetyCheck,
		model.VariantContextCorrelation,
	},
}

// VariantsForLevel returns the analyzer variants a level activates
func VariantsForLevel(level model.Level) []model.Variant {
	variants := levelVariants[level]
	out := make([]model.Variant, len(variants))
	copy(out, variants)
	return out
}

// Engine runs the full analysis flow for single requests and batches
type Engine struct {
	cfg        *model.Config
	analyzers  map[model.Variant]analyzer.Analyzer
	aggregator *score.Aggregator
	results    *cache.ResultCache
	limiter    *rate.Limiter
	verbose    bool
}

// NewEngine wires an engine from configuration, constructing the real
// collaborators (AI judge, duplicate-content searcher, layered cache)
func NewEngine(cfg *model.Config) (*Engine, error) {
	judge, err := provider.NewJudge(provider.ConfigFromModel(cfg.Provider))
	if err != nil {
		return nil, fmt.Errorf("initialize provider: %w", err)
	}

	var searcher search.Searcher
	var verifier *search.Verifier
	if cfg.Search.Endpoint != "" {
		searcher = search.NewHTTPSearcher(cfg.Search)
		hostLimiter := worker.NewPerHostLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
		verifier = search.NewVerifier(cfg.Search, hostLimiter)
	}

	var store cache.Store
	if cfg.Cache.Enabled {
		if cfg.Cache.DiskDir != "" {
			store = cache.NewLayeredStore(cfg.Cache.MemoryTTL, cfg.Cache.DiskDir, cfg.Cache.DiskTTL)
		} else {
			store = cache.NewMemoryStore(cfg.Cache.MemoryTTL, 10*time.Minute)
		}
	}

	return NewEngineWith(cfg, judge, searcher, verifier, store), nil
}

// NewEngineWith wires an engine around explicit collaborators. A nil
// judge or searcher disables the variants that need them (they report
// Failure outcomes); a nil store disables persistence but keeps request
// coalescing.
func NewEngineWith(cfg *model.Config, judge provider.Judge, searcher search.Searcher, verifier *search.Verifier, store cache.Store) *Engine {
	detector := temporal.NewDetector(cfg.Temporal)

	analyzers := map[model.Variant]analyzer.Analyzer{
		model.VariantTextCredibility:    analyzer.NewCredibilityAnalyzer(judge, cfg.Provider),
		model.VariantSourceTracking:     analyzer.NewSourceAnalyzer(searcher, verifier, detector, cfg.Search.VerifyOrigins),
		model.VariantTacticsBreakdown:   analyzer.NewTacticsAnalyzer(),
		model.VariantSafetyCheck:        analyzer.NewSafetyAnalyzer(),
		model.VariantContextCorrelation: analyzer.NewContextAnalyzer(),
	}

	var limiter *rate.Limiter
	if cfg.RateLimiting.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimiting.RequestsPerSecond), cfg.RateLimiting.BurstSize)
	}

	return &Engine{
		cfg:        cfg,
		analyzers:  analyzers,
		aggregator: score.NewAggregator(cfg.Scoring),
		results:    cache.NewResultCache(store, cfg.Cache.MemoryTTL),
		limiter:    limiter,
		verbose:    cfg.Output.Verbose,
	}
}

// Analyze runs one request through validation, cache, fan-out, and
// aggregation. Validation failures surface as RejectedError before any
// dispatch; everything after validation always produces a well-formed
// result.
func (e *Engine) Analyze(ctx context.Context, req *model.AnalysisRequest) (*model.AnalysisResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	fp := fingerprint.New(req.Text)
	key := cache.ResultKey(fp, req.Level, req.Focus)

	return e.results.GetOrCompute(ctx, key, func(ctx context.Context) (*model.AnalysisResult, error) {
		return e.compute(ctx, req, fp)
	})
}

// AnalyzeBatch analyzes many requests with bounded concurrency and
// returns outcomes in input order
func (e *Engine) AnalyzeBatch(ctx context.Context, reqs []*model.AnalysisRequest, maxConcurrency int) []*worker.AnalysisOutcome {
	if maxConcurrency <= 0 {
		maxConcurrency = e.cfg.Concurrency.Workers
	}
	return worker.NewBatchProcessor(e, maxConcurrency).Process(ctx, reqs)
}

// compute is the cache-miss path: dispatch the level's variants
// concurrently, wait for all of them, then aggregate
func (e *Engine) compute(ctx context.Context, req *model.AnalysisRequest, fp model.ContentFingerprint) (*model.AnalysisResult, error) {
	started := time.Now()

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	actx := &analyzer.Context{
		Language:    req.Language,
		Level:       req.Level,
		Focus:       req.Focus,
		Fingerprint: fp,
	}

	variants := levelVariants[req.Level]
	outcomes := make(map[model.Variant]model.Outcome, len(variants))

	// Fan out every variant except correlation, which runs afterwards so
	// it can read the wave's outcomes
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, variant := range variants {
		if variant == model.VariantContextCorrelation {
			continue
		}
		wg.Add(1)
		go func(v model.Variant) {
			defer wg.Done()
			out := e.runVariant(ctx, v, req.Text, actx)
			mu.Lock()
			outcomes[v] = out
			mu.Unlock()
		}(variant)
	}
	wg.Wait()

	if containsVariant(variants, model.VariantContextCorrelation) {
		prior := make(map[model.Variant]model.Outcome, len(outcomes))
		for v, out := range outcomes {
			prior[v] = out
		}
		corrCtx := &analyzer.Context{
			Language:    actx.Language,
			Level:       actx.Level,
			Focus:       actx.Focus,
			Fingerprint: actx.Fingerprint,
			Prior:       prior,
		}
		outcomes[model.VariantContextCorrelation] = e.runVariant(ctx, model.VariantContextCorrelation, req.Text, corrCtx)
	}

	result := e.aggregator.Aggregate(score.Input{
		Request:     req,
		Fingerprint: fp,
		Outcomes:    outcomes,
		Tactics:     extractTactics(outcomes, req.Level),
		Temporal:    extractTemporal(outcomes, req.Level),
		Safety:      extractSafety(outcomes),
		Started:     started,
	})

	if e.verbose {
		fmt.Fprintf(os.Stderr, "analyzed %s: score=%.1f threat=%s variants=%d in %s\n",
			fp.PartialHash[:12], result.CredibilityScore, result.ThreatLevel, len(outcomes), result.Duration.Round(time.Millisecond))
	}
	return result, nil
}

// runVariant executes one analyzer under its individual timeout. A
// variant that overruns becomes a timeout Failure without delaying its
// siblings beyond the deadline.
func (e *Engine) runVariant(ctx context.Context, v model.Variant, text string, actx *analyzer.Context) model.Outcome {
	a, ok := e.analyzers[v]
	if !ok {
		return model.Failure(v, "no analyzer registered")
	}

	timeout := time.Duration(e.cfg.Concurrency.AnalyzerTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan model.Outcome, 1)
	go func() {
		done <- analyzer.Run(runCtx, a, text, actx)
	}()

	select {
	case out := <-done:
		return out
	case <-runCtx.Done():
		return model.Failure(v, fmt.Sprintf("timeout: variant did not complete within %s", timeout))
	}
}

func containsVariant(variants []model.Variant, want model.Variant) bool {
	for _, v := range variants {
		if v == want {
			return true
		}
	}
	return false
}

// extractTactics lifts the detected tactic list out of the breakdown
// variant's payload. At forensic level the AI judge's reported
// techniques augment the catalogue matches as low-severity entries.
func extractTactics(outcomes map[model.Variant]model.Outcome, level model.Level) []model.ManipulationTactic {
	var tactics []model.ManipulationTactic
	if out, ok := outcomes[model.VariantTacticsBreakdown]; ok && !out.IsFailure() {
		tactics, _ = out.Payload["tactics"].([]model.ManipulationTactic)
	}
	if level != model.LevelForensicReview {
		return tactics
	}

	cred, ok := outcomes[model.VariantTextCredibility]
	if !ok || cred.IsFailure() {
		return tactics
	}
	reported, _ := cred.Payload["reported_tactics"].([]string)
	if len(reported) == 0 {
		return tactics
	}

	known := make(map[string]bool, len(tactics))
	for _, t := range tactics {
		known[t.Name] = true
	}
	for _, name := range reported {
		name = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
		if name == "" || known[name] {
			continue
		}
		known[name] = true
		tactics = append(tactics, model.ManipulationTactic{
			Name:        name,
			Severity:    model.SeverityLow,
			Confidence:  cred.Confidence * 0.5,
			Description: "reported by the AI judge without pattern corroboration",
		})
	}
	return tactics
}

// extractTemporal lifts the spread signal out of the source-tracking
// payload. Reported on the composite result at forensic level only.
func extractTemporal(outcomes map[model.Variant]model.Outcome, level model.Level) *model.TemporalSignal {
	if level != model.LevelForensicReview {
		return nil
	}
	out, ok := outcomes[model.VariantSourceTracking]
	if !ok || out.IsFailure() {
		return nil
	}
	signal, ok := out.Payload["temporal_signal"].(model.TemporalSignal)
	if !ok {
		return nil
	}
	return &signal
}

// extractSafety lifts the safety report out of the safety-check payload
func extractSafety(outcomes map[model.Variant]model.Outcome) *model.SafetyReport {
	out, ok := outcomes[model.VariantSafetyCheck]
	if !ok || out.IsFailure() {
		return nil
	}
	report, ok := out.Payload["report"].(model.SafetyReport)
	if !ok {
		return nil
	}
	return &report
}
