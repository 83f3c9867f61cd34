package analyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/veridict/veridict/internal/model"
	"github.com/veridict/veridict/internal/temporal"
)

// fakeSearcher returns a canned sighting list. When failures is set the
// first that many calls return err, later calls succeed.
type fakeSearcher struct {
	sightings []model.SourceSighting
	err       error
	failures  int
	calls     int
	lastQuery string
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]model.SourceSighting, error) {
	f.calls++
	f.lastQuery = query
	if f.err != nil && (f.failures == 0 || f.calls <= f.failures) {
		return nil, f.err
	}
	return f.sightings, nil
}

func newSourceAnalyzer(s *fakeSearcher) *SourceAnalyzer {
	detector := temporal.NewDetector(model.DefaultConfig().Temporal)
	return NewSourceAnalyzer(s, nil, detector, false)
}

func TestSourceAnalyzer_CoordinatedSpreadLowersScore(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	burst := make([]model.SourceSighting, 6)
	for i := range burst {
		burst[i] = model.SourceSighting{
			Origin:          "https://site" + string(rune('a'+i)) + ".example/post",
			FirstSeen:       base.Add(time.Duration(i*2) * time.Minute),
			MatchConfidence: 0.9,
		}
	}
	searcher := &fakeSearcher{sightings: burst}
	a := newSourceAnalyzer(searcher)

	out := a.Analyze(context.Background(), "coordinated claims spreading across several platforms today", &Context{})

	if out.IsFailure() {
		t.Fatalf("unexpected failure: %s", out.FailureReason)
	}
	if out.Score >= 50 {
		t.Errorf("coordinated burst should score low, got %v", out.Score)
	}

	signal, ok := out.Payload["temporal_signal"].(model.TemporalSignal)
	if !ok {
		t.Fatal("payload should carry the temporal signal")
	}
	if !signal.CoordinatedTiming {
		t.Error("six sightings in ten minutes should flag coordinated timing")
	}
	if searcher.lastQuery == "" {
		t.Error("search query should be seeded from the text")
	}
}

func TestSourceAnalyzer_FewSightingsLowConfidence(t *testing.T) {
	searcher := &fakeSearcher{sightings: []model.SourceSighting{
		{Origin: "https://one.example", FirstSeen: time.Now(), MatchConfidence: 0.8},
	}}
	a := newSourceAnalyzer(searcher)

	out := a.Analyze(context.Background(), "barely circulated statement about municipal affairs", &Context{})

	if out.IsFailure() {
		t.Fatalf("unexpected failure: %s", out.FailureReason)
	}
	if out.Confidence > 0.4 {
		t.Errorf("single sighting should yield low confidence, got %v", out.Confidence)
	}
}

func TestSourceAnalyzer_WeakMatchesReduceConfidence(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	strong := make([]model.SourceSighting, 6)
	weak := make([]model.SourceSighting, 6)
	for i := range strong {
		off := time.Duration(i) * 40 * time.Minute
		strong[i] = model.SourceSighting{Origin: "https://s.example/" + string(rune('a'+i)), FirstSeen: base.Add(off), MatchConfidence: 0.9}
		weak[i] = model.SourceSighting{Origin: "https://w.example/" + string(rune('a'+i)), FirstSeen: base.Add(off), MatchConfidence: 0.2}
	}

	a := newSourceAnalyzer(&fakeSearcher{sightings: strong})
	strongOut := a.Analyze(context.Background(), "widely quoted statement about regional infrastructure", &Context{})

	a = newSourceAnalyzer(&fakeSearcher{sightings: weak})
	weakOut := a.Analyze(context.Background(), "widely quoted statement about regional infrastructure", &Context{})

	if weakOut.Confidence >= strongOut.Confidence {
		t.Errorf("ambiguous matches should reduce confidence: %v vs %v", weakOut.Confidence, strongOut.Confidence)
	}
}

func TestSourceAnalyzer_SearchErrorIsFailure(t *testing.T) {
	a := newSourceAnalyzer(&fakeSearcher{err: errors.New("search backend unavailable")})

	out := a.Analyze(context.Background(), "content that will never reach the search backend", &Context{})

	if !out.IsFailure() {
		t.Fatal("search error should fail the variant")
	}
	if out.Confidence != 0 {
		t.Errorf("failure confidence = %v, want 0", out.Confidence)
	}
}

func TestSourceAnalyzer_RetriesTransientSearchError(t *testing.T) {
	noSleep(t)
	searcher := &fakeSearcher{
		err:      errors.New("Get \"https://search.example\": context deadline exceeded (timeout)"),
		failures: 1,
		sightings: []model.SourceSighting{
			{Origin: "https://a.example/post", FirstSeen: time.Now(), MatchConfidence: 0.9},
		},
	}
	a := newSourceAnalyzer(searcher)

	out := a.Analyze(context.Background(), "a claim whose search provider hiccups once then recovers", &Context{})

	if out.IsFailure() {
		t.Fatalf("transient search error should be retried, got failure: %s", out.FailureReason)
	}
	if searcher.calls != 2 {
		t.Errorf("search calls = %d, want 2 (one failure, one retry)", searcher.calls)
	}
}

func TestSourceAnalyzer_NonTransientSearchErrorFailsFast(t *testing.T) {
	noSleep(t)
	searcher := &fakeSearcher{err: errors.New("invalid api key")}
	a := newSourceAnalyzer(searcher)

	out := a.Analyze(context.Background(), "a claim rejected by the search provider outright", &Context{})

	if !out.IsFailure() {
		t.Fatal("non-transient search error should fail the variant")
	}
	if searcher.calls != 1 {
		t.Errorf("search calls = %d, want 1 (no retry of a permanent error)", searcher.calls)
	}
}

func TestSourceAnalyzer_NoSearcher(t *testing.T) {
	detector := temporal.NewDetector(model.DefaultConfig().Temporal)
	a := NewSourceAnalyzer(nil, nil, detector, false)

	out := a.Analyze(context.Background(), "anything at all worth checking", &Context{})
	if !out.IsFailure() {
		t.Fatal("missing searcher should fail the variant")
	}
}

func TestBuildQuery(t *testing.T) {
	q := buildQuery("The quick brown fox jumps over the lazy dog near riverbank settlements")
	if q == "" {
		t.Fatal("query should not be empty")
	}
	if len(q) > 0 && q != buildQuery("The quick brown fox jumps over the lazy dog near riverbank settlements") {
		t.Error("query building should be deterministic")
	}
}
