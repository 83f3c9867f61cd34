package worker

import (
	"context"

	"github.com/veridict/veridict/internal/model"
)

// Runner is the single-request analysis capability the batch layer drives
type Runner interface {
	Analyze(ctx context.Context, req *model.AnalysisRequest) (*model.AnalysisResult, error)
}

// AnalysisOutcome pairs one batch entry's result (or error) with its
// position in the input sequence
type AnalysisOutcome struct {
	Index  int
	Result *model.AnalysisResult
	Err    error
}

// GetError returns the job's error, if any
func (o *AnalysisOutcome) GetError() error {
	return o.Err
}

// analysisJob runs one request through the runner
type analysisJob struct {
	index  int
	req    *model.AnalysisRequest
	runner Runner
}

func (j *analysisJob) Execute(ctx context.Context) Result {
	result, err := j.runner.Analyze(ctx, j.req)
	return &AnalysisOutcome{Index: j.index, Result: result, Err: err}
}

// BatchProcessor analyzes many texts with bounded concurrency, so N
// queued requests never exceed the worker count in simultaneous
// provider calls
type BatchProcessor struct {
	runner      Runner
	concurrency int
}

// NewBatchProcessor creates a batch processor over the given runner
func NewBatchProcessor(runner Runner, concurrency int) *BatchProcessor {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &BatchProcessor{runner: runner, concurrency: concurrency}
}

// Process analyzes every request and returns outcomes in input order.
// Individual failures (validation rejections included) occupy their slot
// rather than aborting the batch.
func (b *BatchProcessor) Process(ctx context.Context, reqs []*model.AnalysisRequest) []*AnalysisOutcome {
	if len(reqs) == 0 {
		return []*AnalysisOutcome{}
	}

	pool := NewPool(ctx, b.concurrency, len(reqs))
	pool.Start()

	for i, req := range reqs {
		pool.Submit(&analysisJob{index: i, req: req, runner: b.runner})
	}

	ordered := make([]*AnalysisOutcome, len(reqs))
	for _, r := range pool.Wait() {
		outcome := r.(*AnalysisOutcome)
		ordered[outcome.Index] = outcome
	}

	// Slots the pool never reached (cancelled mid-batch) still get a
	// well-formed outcome
	for i, o := range ordered {
		if o == nil {
			ordered[i] = &AnalysisOutcome{Index: i, Err: ctx.Err()}
		}
	}
	return ordered
}
