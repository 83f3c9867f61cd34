package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
)

// AnthropicJudge implements the Judge interface for Anthropic Claude models
type AnthropicJudge struct {
	client *anthropic.Client
	config Config
}

// NewAnthropicJudge creates a new Anthropic judge
func NewAnthropicJudge(config Config) (*AnthropicJudge, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	var opts []anthropic.ClientOption
	if config.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(config.BaseURL))
	}

	return &AnthropicJudge{
		client: anthropic.NewClient(config.APIKey, opts...),
		config: config,
	}, nil
}

// Name returns the provider name
func (j *AnthropicJudge) Name() string {
	return "anthropic"
}

// IsAvailable checks if the provider is configured. Anthropic has no
// lightweight list endpoint, so a configured key counts as available.
func (j *AnthropicJudge) IsAvailable(ctx context.Context) bool {
	return j.config.APIKey != ""
}

// Judge submits text to the Messages API and parses the response
func (j *AnthropicJudge) Judge(ctx context.Context, req JudgeRequest) (*Judgment, error) {
	prompt := req.Prompt
	if prompt == "" {
		prompt = BuildPrompt(req.Text, req.Language)
	}

	model := j.config.Model
	if model == "" {
		model = string(anthropic.ModelClaude3Dot5HaikuLatest)
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = j.config.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 1024
	}

	timeout := time.Duration(j.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := j.client.CreateMessages(ctxWithTimeout, anthropic.MessagesRequest{
		Model:  anthropic.Model(model),
		System: systemPrompt,
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(prompt),
				},
			},
		},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("Anthropic API error: %w", err)
	}

	if len(resp.Content) == 0 || resp.Content[0].Text == nil {
		return nil, fmt.Errorf("no response content from Anthropic")
	}

	judgment := ParseJudgment(*resp.Content[0].Text)
	judgment.Model = model
	judgment.TokensUsed = resp.Usage.InputTokens + resp.Usage.OutputTokens
	return judgment, nil
}
