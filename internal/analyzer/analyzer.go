// Package analyzer holds the per-variant analysis capabilities. Each
// analyzer runs inside its own failure boundary: whatever goes wrong
// internally (provider errors, panics, timeouts imposed by the caller)
// surfaces as a Failure outcome, never as an error that crosses into
// the orchestration layer.
package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/veridict/veridict/internal/model"
)

// retrySleepFunc is the sleep function used between retries (injectable for tests)
var retrySleepFunc = time.Sleep

// Analyzer is one analysis capability. Analyze never returns an error;
// internal failures become Failure outcomes with confidence zero.
type Analyzer interface {
	// Name returns the variant this analyzer implements
	Name() model.Variant

	// Analyze examines the text and returns a typed outcome
	Analyze(ctx context.Context, text string, actx *Context) model.Outcome
}

// Context carries the per-request inputs shared across analyzers
type Context struct {
	Language    string
	Level       model.Level
	Focus       model.Focus
	Fingerprint model.ContentFingerprint

	// Prior holds outcomes of variants that completed before this
	// analyzer ran. Populated only for the correlation stage; empty
	// during the parallel wave.
	Prior map[model.Variant]model.Outcome
}

// Run invokes an analyzer with panic containment. A panicking analyzer
// produces a Failure outcome like any other internal error.
func Run(ctx context.Context, a Analyzer, text string, actx *Context) (out model.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = model.Failure(a.Name(), fmt.Sprintf("analyzer panic: %v", r))
		}
	}()
	return a.Analyze(ctx, text, actx)
}

// isTransientError checks error strings for failures worth retrying:
// throttling and transport hiccups from the judge or search providers
func isTransientError(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "rate limit") ||
		strings.Contains(s, "429") ||
		strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset") ||
		strings.Contains(s, "502") ||
		strings.Contains(s, "503")
}
