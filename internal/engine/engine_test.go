package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/veridict/veridict/internal/cache"
	"github.com/veridict/veridict/internal/model"
	"github.com/veridict/veridict/internal/provider"
	"github.com/veridict/veridict/internal/search"
)

// scriptedJudge returns a fixed judgment and counts invocations
type scriptedJudge struct {
	calls    atomic.Int64
	judgment provider.Judgment
	err      error
	delay    time.Duration
	release  chan struct{} // when set, Judge blocks until closed
}

func (j *scriptedJudge) Name() string { return "scripted" }

func (j *scriptedJudge) Judge(ctx context.Context, req provider.JudgeRequest) (*provider.Judgment, error) {
	j.calls.Add(1)
	if j.release != nil {
		<-j.release
	}
	if j.delay > 0 {
		select {
		case <-time.After(j.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if j.err != nil {
		return nil, j.err
	}
	jd := j.judgment
	return &jd, nil
}

func (j *scriptedJudge) IsAvailable(ctx context.Context) bool { return true }

// canned search results keyed by nothing; every query gets the same list
type cannedSearcher struct {
	sightings []model.SourceSighting
	calls     atomic.Int64
}

func (s *cannedSearcher) Search(ctx context.Context, query string) ([]model.SourceSighting, error) {
	s.calls.Add(1)
	return s.sightings, nil
}

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.RateLimiting.RequestsPerSecond = 0 // no throttling in tests
	cfg.Search.VerifyOrigins = false
	return cfg
}

func testEngine(judge provider.Judge, searcher search.Searcher) *Engine {
	store := cache.NewMemoryStore(time.Minute, time.Minute)
	return NewEngineWith(testConfig(), judge, searcher, nil, store)
}

func goodJudge(score, confidence float64) *scriptedJudge {
	return &scriptedJudge{judgment: provider.Judgment{
		Parsed:     true,
		Verdict:    "unverified",
		Score:      score,
		Confidence: confidence,
	}}
}

const neutralText = "The library will extend its opening hours during the exam season starting next month."

func TestAnalyze_QuickScanPassesThroughProviderScore(t *testing.T) {
	e := testEngine(goodJudge(85, 0.9), nil)

	result, err := e.Analyze(context.Background(), &model.AnalysisRequest{
		Text:  neutralText,
		Level: model.LevelQuickScan,
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if len(result.Outcomes) != 1 {
		t.Fatalf("quick scan should run exactly one variant, got %d", len(result.Outcomes))
	}
	if _, ok := result.Outcomes[model.VariantTextCredibility]; !ok {
		t.Fatal("quick scan must include text credibility")
	}
	if result.CredibilityScore != 85 {
		t.Errorf("sole contributor should pass through: score = %v, want 85", result.CredibilityScore)
	}
}

func TestAnalyze_VariantSetMatchesLevel(t *testing.T) {
	searcher := &cannedSearcher{}
	e := testEngine(goodJudge(70, 0.8), searcher)

	cases := []struct {
		level model.Level
		want  []model.Variant
	}{
		{model.LevelQuickScan, []model.Variant{model.VariantTextCredibility}},
		{model.LevelDeepAnalysis, []model.Variant{
			model.VariantTextCredibility, model.VariantSourceTracking, model.VariantTacticsBreakdown}},
		{model.LevelForensicReview, []model.Variant{
			model.VariantTextCredibility, model.VariantSourceTracking, model.VariantTacticsBreakdown,
			model.VariantSafetyCheck, model.VariantContextCorrelation}},
	}

	for _, tc := range cases {
		result, err := e.Analyze(context.Background(), &model.AnalysisRequest{
			Text:  neutralText,
			Level: tc.level,
		})
		if err != nil {
			t.Fatalf("analyze %s: %v", tc.level, err)
		}
		if len(result.Outcomes) != len(tc.want) {
			t.Errorf("%s: %d variants, want %d", tc.level, len(result.Outcomes), len(tc.want))
		}
		for _, v := range tc.want {
			if _, ok := result.Outcomes[v]; !ok {
				t.Errorf("%s: missing variant %s", tc.level, v)
			}
		}
	}
}

func TestAnalyze_EmptyTextRejected(t *testing.T) {
	e := testEngine(goodJudge(70, 0.8), nil)

	_, err := e.Analyze(context.Background(), &model.AnalysisRequest{
		Text:  "",
		Level: model.LevelQuickScan,
	})

	var rejected *model.RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("empty text should yield RejectedError, got %v", err)
	}
}

func TestAnalyze_CacheHitSkipsRecomputation(t *testing.T) {
	judge := goodJudge(85, 0.9)
	e := testEngine(judge, nil)
	req := &model.AnalysisRequest{Text: neutralText, Level: model.LevelQuickScan}

	first, err := e.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("first analyze: %v", err)
	}
	second, err := e.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("second analyze: %v", err)
	}

	if got := judge.calls.Load(); got != 1 {
		t.Errorf("provider calls = %d, want 1 (second call must hit the cache)", got)
	}
	if first.ID != second.ID {
		t.Error("cached result should be the same analysis, not a recomputation")
	}
}

func TestAnalyze_ConcurrentSameKeyDispatchesOnce(t *testing.T) {
	judge := goodJudge(70, 0.8)
	judge.release = make(chan struct{})
	e := testEngine(judge, nil)
	req := &model.AnalysisRequest{Text: neutralText, Level: model.LevelQuickScan}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.Analyze(context.Background(), req); err != nil {
				t.Errorf("analyze: %v", err)
			}
		}()
	}

	// Give all five a chance to reach the cache before releasing the judge
	time.Sleep(50 * time.Millisecond)
	close(judge.release)
	wg.Wait()

	if got := judge.calls.Load(); got != 1 {
		t.Errorf("provider calls = %d, want 1 (coalesced)", got)
	}
}

func TestAnalyze_FailureIsolation(t *testing.T) {
	judge := &scriptedJudge{err: errors.New("provider authentication failed")}
	searcher := &cannedSearcher{sightings: []model.SourceSighting{
		{Origin: "https://a.example/1", FirstSeen: time.Now().Add(-2 * time.Hour), MatchConfidence: 0.9},
		{Origin: "https://b.example/2", FirstSeen: time.Now(), MatchConfidence: 0.8},
	}}
	e := testEngine(judge, searcher)

	result, err := e.Analyze(context.Background(), &model.AnalysisRequest{
		Text:  neutralText,
		Level: model.LevelDeepAnalysis,
	})
	if err != nil {
		t.Fatalf("analyzer failure must not fail the call: %v", err)
	}

	cred := result.Outcomes[model.VariantTextCredibility]
	if !cred.IsFailure() {
		t.Error("credibility outcome should be a failure")
	}
	if cred.Confidence != 0 {
		t.Errorf("failed variant confidence = %v, want 0", cred.Confidence)
	}

	for _, v := range []model.Variant{model.VariantSourceTracking, model.VariantTacticsBreakdown} {
		if _, ok := result.Outcomes[v]; !ok {
			t.Errorf("sibling variant %s missing from result", v)
		}
	}
	if result.CredibilityScore < 0 || result.CredibilityScore > 100 {
		t.Errorf("score %v left [0,100]", result.CredibilityScore)
	}
}

func TestAnalyze_AllVariantsFailedStillWellFormed(t *testing.T) {
	judge := &scriptedJudge{err: errors.New("provider authentication failed")}
	e := NewEngineWith(testConfig(), judge, nil, nil, nil)

	result, err := e.Analyze(context.Background(), &model.AnalysisRequest{
		Text:  neutralText,
		Level: model.LevelQuickScan,
	})
	if err != nil {
		t.Fatalf("total analyzer failure must not fail the call: %v", err)
	}
	if result.CredibilityScore != 50 {
		t.Errorf("score = %v, want neutral 50", result.CredibilityScore)
	}
	if result.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", result.Confidence)
	}
}

func TestAnalyze_TacticsLowerScore(t *testing.T) {
	judge := goodJudge(70, 0.8)
	e := testEngine(judge, &cannedSearcher{})

	manipulative := "URGENT: share this now before it's too late! This deadly cover-up " +
		"is a threat to your family and the mainstream media is hiding it from everyone."

	result, err := e.Analyze(context.Background(), &model.AnalysisRequest{
		Text:  manipulative,
		Level: model.LevelDeepAnalysis,
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if len(result.Tactics) == 0 {
		t.Fatal("manipulative text should surface tactics on the composite result")
	}
	if result.CredibilityScore >= 70 {
		t.Errorf("score = %v, want below the credibility contribution after penalties", result.CredibilityScore)
	}
}

func TestAnalyze_AnalyzerTimeoutBecomesFailure(t *testing.T) {
	judge := goodJudge(70, 0.8)
	judge.delay = 2 * time.Second // outlives the 1s variant budget below
	cfg := testConfig()
	cfg.Concurrency.AnalyzerTimeout = 1
	e := NewEngineWith(cfg, judge, nil, nil, nil)

	result, err := e.Analyze(context.Background(), &model.AnalysisRequest{
		Text:  neutralText,
		Level: model.LevelQuickScan,
	})
	if err != nil {
		t.Fatalf("timeout must not fail the call: %v", err)
	}

	cred := result.Outcomes[model.VariantTextCredibility]
	if !cred.IsFailure() {
		t.Fatal("overrunning variant should be a failure")
	}
	if cred.Confidence != 0 {
		t.Errorf("timeout failure confidence = %v, want 0", cred.Confidence)
	}
}

func TestAnalyze_ForensicCarriesTemporalSignal(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	burst := make([]model.SourceSighting, 6)
	for i := range burst {
		burst[i] = model.SourceSighting{
			Origin:          "https://site.example/post",
			FirstSeen:       base.Add(time.Duration(i*2) * time.Minute),
			MatchConfidence: 0.9,
		}
	}
	// Distinct origins so dedupe keeps all six
	for i := range burst {
		burst[i].Origin = burst[i].Origin + string(rune('a'+i))
	}

	e := testEngine(goodJudge(60, 0.7), &cannedSearcher{sightings: burst})

	result, err := e.Analyze(context.Background(), &model.AnalysisRequest{
		Text:  neutralText,
		Level: model.LevelForensicReview,
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if result.Temporal == nil {
		t.Fatal("forensic review should carry the temporal signal")
	}
	if !result.Temporal.CoordinatedTiming {
		t.Error("burst timeline should flag coordinated timing")
	}
	if result.Safety == nil {
		t.Error("forensic review should carry the safety report")
	}
}

func TestAnalyze_ForensicAugmentsTacticsFromJudge(t *testing.T) {
	judge := &scriptedJudge{judgment: provider.Judgment{
		Parsed:     true,
		Score:      40,
		Confidence: 0.8,
		Tactics:    []string{"Gish Gallop"},
	}}
	e := testEngine(judge, &cannedSearcher{})

	result, err := e.Analyze(context.Background(), &model.AnalysisRequest{
		Text:  neutralText,
		Level: model.LevelForensicReview,
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	var found bool
	for _, tac := range result.Tactics {
		if tac.Name == "gish_gallop" {
			found = true
			if tac.Severity != model.SeverityLow {
				t.Errorf("judge-reported tactic severity = %q, want low", tac.Severity)
			}
		}
	}
	if !found {
		t.Errorf("judge-reported technique missing from tactics: %v", result.Tactics)
	}
}

func TestAnalyzeBatch_InputOrderAndRejections(t *testing.T) {
	e := testEngine(goodJudge(80, 0.9), nil)

	reqs := []*model.AnalysisRequest{
		{Text: neutralText, Level: model.LevelQuickScan},
		{Text: "", Level: model.LevelQuickScan}, // rejected
		{Text: neutralText + " Second distinct body of text for the batch.", Level: model.LevelQuickScan},
	}

	outcomes := e.AnalyzeBatch(context.Background(), reqs, 2)

	if len(outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(outcomes))
	}
	if outcomes[0].Err != nil || outcomes[0].Result == nil {
		t.Error("first request should succeed")
	}
	var rejected *model.RejectedError
	if !errors.As(outcomes[1].Err, &rejected) {
		t.Errorf("second request should be rejected, got %v", outcomes[1].Err)
	}
	if outcomes[2].Err != nil || outcomes[2].Result == nil {
		t.Error("third request should succeed despite the sibling rejection")
	}
}

func TestVariantsForLevel_CopyIsolated(t *testing.T) {
	variants := VariantsForLevel(model.LevelDeepAnalysis)
	variants[0] = model.Variant("mutated")

	again := VariantsForLevel(model.LevelDeepAnalysis)
	if again[0] != model.VariantTextCredibility {
		t.Error("callers must not be able to mutate the dispatch table")
	}
}
