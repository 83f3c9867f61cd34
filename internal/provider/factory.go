package provider

import (
	"fmt"
	"strings"

	"github.com/veridict/veridict/internal/model"
)

// NewJudge creates a judge based on configuration. An empty provider
// name returns (nil, nil): AI judgment disabled.
func NewJudge(config Config) (Judge, error) {
	switch strings.ToLower(config.Name) {
	case "openai":
		return NewOpenAIJudge(config)

	case "anthropic", "claude":
		return NewAnthropicJudge(config)

	case "ollama":
		return NewOllamaJudge(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: openai, anthropic, ollama)", config.Name)
	}
}

// ConfigFromModel converts the process configuration section
func ConfigFromModel(pc model.ProviderConfig) Config {
	return Config{
		Name:       pc.Name,
		Model:      pc.Model,
		APIKey:     pc.APIKey,
		BaseURL:    pc.BaseURL,
		Timeout:    pc.Timeout,
		MaxTokens:  pc.MaxTokens,
		HTTPProxy:  pc.HTTPProxy,
		HTTPSProxy: pc.HTTPSProxy,
	}
}
