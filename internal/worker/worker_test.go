package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/veridict/veridict/internal/model"
)

// countingRunner records peak simultaneous Analyze calls
type countingRunner struct {
	active  atomic.Int64
	peak    atomic.Int64
	calls   atomic.Int64
	failOn  string
	perCall time.Duration
}

func (r *countingRunner) Analyze(ctx context.Context, req *model.AnalysisRequest) (*model.AnalysisResult, error) {
	r.calls.Add(1)
	now := r.active.Add(1)
	defer r.active.Add(-1)
	for {
		peak := r.peak.Load()
		if now <= peak || r.peak.CompareAndSwap(peak, now) {
			break
		}
	}
	if r.perCall > 0 {
		time.Sleep(r.perCall)
	}
	if r.failOn != "" && req.Text == r.failOn {
		return nil, errors.New("runner failure")
	}
	return &model.AnalysisResult{CredibilityScore: 50, Level: req.Level}, nil
}

func batchRequests(n int) []*model.AnalysisRequest {
	reqs := make([]*model.AnalysisRequest, n)
	for i := range reqs {
		reqs[i] = &model.AnalysisRequest{
			Text:  fmt.Sprintf("text number %d for batch processing", i),
			Level: model.LevelQuickScan,
		}
	}
	return reqs
}

func TestBatchProcessor_InputOrder(t *testing.T) {
	runner := &countingRunner{}
	b := NewBatchProcessor(runner, 4)

	reqs := batchRequests(10)
	outcomes := b.Process(context.Background(), reqs)

	if len(outcomes) != len(reqs) {
		t.Fatalf("got %d outcomes, want %d", len(outcomes), len(reqs))
	}
	for i, o := range outcomes {
		if o.Index != i {
			t.Errorf("outcome %d carries index %d", i, o.Index)
		}
		if o.Err != nil {
			t.Errorf("outcome %d: unexpected error %v", i, o.Err)
		}
	}
}

func TestBatchProcessor_BoundedConcurrency(t *testing.T) {
	runner := &countingRunner{perCall: 20 * time.Millisecond}
	b := NewBatchProcessor(runner, 3)

	b.Process(context.Background(), batchRequests(12))

	if peak := runner.peak.Load(); peak > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", peak)
	}
	if calls := runner.calls.Load(); calls != 12 {
		t.Errorf("calls = %d, want 12", calls)
	}
}

func TestBatchProcessor_FailureOccupiesSlot(t *testing.T) {
	reqs := batchRequests(5)
	runner := &countingRunner{failOn: reqs[2].Text}
	b := NewBatchProcessor(runner, 2)

	outcomes := b.Process(context.Background(), reqs)

	if outcomes[2].Err == nil {
		t.Error("failing request should surface its error in its slot")
	}
	for i, o := range outcomes {
		if i == 2 {
			continue
		}
		if o.Err != nil || o.Result == nil {
			t.Errorf("slot %d should succeed despite sibling failure", i)
		}
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	b := NewBatchProcessor(&countingRunner{}, 2)
	if outcomes := b.Process(context.Background(), nil); len(outcomes) != 0 {
		t.Errorf("empty batch should yield empty outcomes, got %d", len(outcomes))
	}
}

func TestPerHostLimiter_SeparatesHosts(t *testing.T) {
	l := NewPerHostLimiter(1, 1)

	if !l.Allow("https://a.example/x") {
		t.Error("first request to a.example should be admitted")
	}
	if l.Allow("https://a.example/y") {
		t.Error("second immediate request to a.example should be throttled")
	}
	if !l.Allow("https://b.example/x") {
		t.Error("b.example has its own budget")
	}
}

func TestPerHostLimiter_WaitHonorsContext(t *testing.T) {
	l := NewPerHostLimiter(0.001, 1)
	// Exhaust the budget
	_ = l.Allow("https://slow.example/")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, "https://slow.example/"); err == nil {
		t.Error("wait should fail once the context expires")
	}
}

func TestPool_Shutdown(t *testing.T) {
	pool := NewPool(context.Background(), 2, 8)
	pool.Start()
	pool.Shutdown()

	// Submitting after shutdown is a no-op, not a panic
	pool.Submit(&analysisJob{req: &model.AnalysisRequest{}, runner: &countingRunner{}})
}
