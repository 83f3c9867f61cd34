package analyzer

import (
	"context"
	"regexp"
	"strings"

	"github.com/veridict/veridict/internal/fingerprint"
	"github.com/veridict/veridict/internal/model"
)

// keywordLimit bounds how many significant tokens surface in the payload
const keywordLimit = 10

// Temporal anchoring patterns. Content that leans on relative time
// ("yesterday", "breaking") without any absolute date ages into
// misinformation as it recirculates.
var (
	relativeTimePattern = regexp.MustCompile(`(?i)\b(breaking|just in|yesterday|today|last night|hours? ago|this morning|right now|moments ago)\b`)
	absoluteDatePattern = regexp.MustCompile(`(?i)\b(\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2}(?:,?\s+\d{4})?|\d{4})\b`)
)

// focusLexicons maps each sensitive domain onto its trigger vocabulary
var focusLexicons = map[model.Focus]*regexp.Regexp{
	model.FocusHealth:    regexp.MustCompile(`(?i)\b(vaccine\w*|cure[sd]?|miracle (?:drug|treatment)|cancer|virus|immunity|side effects?|home remed\w+)\b`),
	model.FocusPolitical: regexp.MustCompile(`(?i)\b(election\w*|voter|ballot\w*|rigged|candidate|parliament|congress|poll(?:ing|s)?)\b`),
	model.FocusFinancial: regexp.MustCompile(`(?i)\b(stock\w*|crash\w*|invest\w*|guaranteed returns?|ponzi|crypto\w*|bank run|market collapse)\b`),
	model.FocusCommunal:  regexp.MustCompile(`(?i)\b(community|religio\w+|temple|mosque|church|riot\w*|mob|communal|sectarian)\b`),
}

// ContextAnalyzer correlates the text's claimed timing and subject
// matter. It runs after the parallel wave so it can read the
// credibility outcome and sharpen or soften its verdict.
type ContextAnalyzer struct{}

func NewContextAnalyzer() *ContextAnalyzer {
	return &ContextAnalyzer{}
}

func (a *ContextAnalyzer) Name() model.Variant {
	return model.VariantContextCorrelation
}

func (a *ContextAnalyzer) Analyze(ctx context.Context, text string, actx *Context) model.Outcome {
	relatives := relativeTimePattern.FindAllString(text, -1)
	hasAbsolute := absoluteDatePattern.MatchString(text)

	score := 75.0
	confidence := 0.5

	keywords := fingerprint.SignificantTokens(text)
	if len(keywords) > keywordLimit {
		keywords = keywords[:keywordLimit]
	}
	payload := map[string]interface{}{
		"keywords": keywords,
	}

	// Urgent-sounding but undatable content is a recirculation hazard
	if len(relatives) > 0 && !hasAbsolute {
		score -= 10 * float64(min(len(relatives), 3))
		payload["undated_urgency"] = dedupeLower(relatives)
	}

	// Sensitive-domain vocabulary raises the stakes of being wrong
	domain := actx.Focus
	if domain == model.FocusNone {
		domain = detectDomain(text)
	}
	if lex, ok := focusLexicons[domain]; ok && domain != model.FocusNone {
		if hits := lex.FindAllString(text, -1); len(hits) > 0 {
			payload["sensitive_domain"] = string(domain)
			payload["domain_terms"] = dedupeLower(hits)
			score -= 5
			confidence += 0.15
		}
	}

	// A confident low credibility verdict corroborates contextual risk
	if prior, ok := actx.Prior[model.VariantTextCredibility]; ok && !prior.IsFailure() {
		if prior.Confidence >= 0.6 && prior.Score < 40 {
			score -= 10
			confidence += 0.15
		}
		payload["credibility_corroboration"] = prior.Score
	}

	return model.Success(a.Name(), score, confidence, payload)
}

// detectDomain picks the sensitive domain whose lexicon matches most
// when the caller did not specify a focus
func detectDomain(text string) model.Focus {
	best := model.FocusNone
	bestHits := 0
	for focus, lex := range focusLexicons {
		hits := len(lex.FindAllString(text, -1))
		if hits > bestHits || (hits == bestHits && hits > 0 && focus < best) {
			best = focus
			bestHits = hits
		}
	}
	if bestHits < 2 {
		return model.FocusNone
	}
	return best
}

func dedupeLower(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		k := strings.ToLower(s)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
