// Package provider wraps the external AI text-judgment services behind a
// single Judge interface. Providers are best-effort collaborators: they
// may fail, rate-limit, or return malformed output, and callers must
// tolerate all three.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Judge is the AI text-judgment capability consumed by analyzers
type Judge interface {
	// Name returns the provider name
	Name() string

	// Judge submits text with a structured prompt and returns the
	// provider's best-effort judgment
	Judge(ctx context.Context, req JudgeRequest) (*Judgment, error)

	// IsAvailable checks if the provider is configured and reachable
	IsAvailable(ctx context.Context) bool
}

// JudgeRequest carries one judgment call's inputs
type JudgeRequest struct {
	// Text is the content under analysis
	Text string

	// Language is an optional hint (en, hi, ...)
	Language string

	// Prompt overrides the default credibility prompt when set
	Prompt string

	// MaxTokens limits the response length
	MaxTokens int
}

// Judgment is the provider's raw response plus whatever structure could
// be recovered from it. Parsed is false when the response was not valid
// JSON; Raw is always preserved so downstream display keeps the signal.
type Judgment struct {
	Raw    string
	Parsed bool

	Verdict    string   // accurate, misleading, false, unverified
	Score      float64  // 0-100 credibility
	Confidence float64  // 0-1
	Reasoning  string
	Tactics    []string // manipulation technique names the model observed

	Model      string
	TokensUsed int
}

// Config holds provider configuration
type Config struct {
	// Name selects the provider: "openai", "anthropic", "ollama", ""
	Name string

	Model   string
	APIKey  string
	BaseURL string

	// Timeout for API requests, seconds
	Timeout int

	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Timeout:   30,
		MaxTokens: 1024,
	}
}

const systemPrompt = "You are a misinformation forensics assistant. " +
	"You assess how credible a piece of content is and which manipulation " +
	"techniques it uses. You respond with strict JSON only."

// BuildPrompt constructs the default credibility-judgment prompt
func BuildPrompt(text, language string) string {
	lang := language
	if lang == "" {
		lang = "en"
	}
	return fmt.Sprintf(`Analyze the following content for misinformation signals.

CONTENT:
"""%s"""

Content language hint: %s

Respond with a single JSON object and nothing else:
{
  "verdict": one of "accurate", "misleading", "false", "unverified",
  "credibility_score": number 0-100 (100 = fully credible),
  "confidence": number 0-1 (how sure you are of the score),
  "reasoning": one short paragraph,
  "manipulation_tactics": array of technique names, possibly empty
}`, text, lang)
}

var jsonBlockPattern = regexp.MustCompile(`(?s)\{.*\}`)

// judgmentPayload mirrors the JSON shape requested by BuildPrompt
type judgmentPayload struct {
	Verdict          string   `json:"verdict"`
	CredibilityScore float64  `json:"credibility_score"`
	Confidence       float64  `json:"confidence"`
	Reasoning        string   `json:"reasoning"`
	Tactics          []string `json:"manipulation_tactics"`
}

// ParseJudgment extracts structure from a raw provider response. Models
// wrap JSON in prose or markdown fences often enough that the parse is
// tolerant: it takes the outermost brace block it can find. A response
// with no recoverable JSON yields Parsed=false with Raw preserved.
func ParseJudgment(raw string) *Judgment {
	j := &Judgment{Raw: strings.TrimSpace(raw)}

	block := jsonBlockPattern.FindString(raw)
	if block == "" {
		return j
	}

	var payload judgmentPayload
	if err := json.Unmarshal([]byte(block), &payload); err != nil {
		return j
	}

	j.Parsed = true
	j.Verdict = strings.ToLower(strings.TrimSpace(payload.Verdict))
	j.Score = clamp(payload.CredibilityScore, 0, 100)
	j.Confidence = clamp(payload.Confidence, 0, 1)
	j.Reasoning = payload.Reasoning
	j.Tactics = payload.Tactics
	return j
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
