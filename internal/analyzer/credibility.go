package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/veridict/veridict/internal/model"
	"github.com/veridict/veridict/internal/provider"
)

// CredibilityAnalyzer asks the configured AI judge for a credibility
// verdict on the text. It is the one variant every analysis level runs.
type CredibilityAnalyzer struct {
	judge      provider.Judge
	maxRetries int
	maxTokens  int
}

// NewCredibilityAnalyzer wires a judge into the credibility variant
func NewCredibilityAnalyzer(judge provider.Judge, cfg model.ProviderConfig) *CredibilityAnalyzer {
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	return &CredibilityAnalyzer{
		judge:      judge,
		maxRetries: retries,
		maxTokens:  cfg.MaxTokens,
	}
}

func (a *CredibilityAnalyzer) Name() model.Variant {
	return model.VariantTextCredibility
}

// Analyze submits the text for judgment. Provider transport failures
// after retries become Failure outcomes. A response the judge returned
// but we could not parse is still a success: the raw text is preserved
// in the payload with confidence zero, so a flaky model degrades the
// weighted mean instead of aborting the variant.
func (a *CredibilityAnalyzer) Analyze(ctx context.Context, text string, actx *Context) model.Outcome {
	if a.judge == nil {
		return model.Failure(a.Name(), "no judgment provider configured")
	}

	req := provider.JudgeRequest{
		Text:      text,
		Language:  actx.Language,
		MaxTokens: a.maxTokens,
	}

	judgment, err := a.judgeWithRetry(ctx, req)
	if err != nil {
		return model.Failure(a.Name(), fmt.Sprintf("judgment failed: %v", err))
	}

	payload := map[string]interface{}{
		"provider": a.judge.Name(),
		"model":    judgment.Model,
	}
	if !judgment.Parsed {
		payload["raw_response"] = judgment.Raw
		return model.Success(a.Name(), 0, 0, payload)
	}

	payload["verdict"] = judgment.Verdict
	payload["reasoning"] = judgment.Reasoning
	if len(judgment.Tactics) > 0 {
		payload["reported_tactics"] = judgment.Tactics
	}
	return model.Success(a.Name(), judgment.Score, judgment.Confidence, payload)
}

// judgeWithRetry retries transient provider failures with exponential backoff
func (a *CredibilityAnalyzer) judgeWithRetry(ctx context.Context, req provider.JudgeRequest) (*provider.Judgment, error) {
	var lastErr error
	for attempt := 0; attempt < a.maxRetries; attempt++ {
		judgment, err := a.judge.Judge(ctx, req)
		if err == nil {
			return judgment, nil
		}
		lastErr = err
		if !isTransientError(err) || ctx.Err() != nil {
			return nil, err
		}
		if attempt < a.maxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			retrySleepFunc(backoff)
		}
	}
	return nil, lastErr
}
