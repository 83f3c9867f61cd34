package analyzer

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/veridict/veridict/internal/model"
)

// safetyCategory is one class of unsafe content the screen looks for
type safetyCategory struct {
	name    string
	penalty float64
	pattern *regexp.Regexp
}

var safetyCategories = []safetyCategory{
	{
		name:    "violence",
		penalty: 35,
		pattern: regexp.MustCompile(`(?i)\b(kill (?:them|him|her|all)|attack (?:them|him|her)|burn (?:it|them) down|deserve[sd]? to die|take up arms|shoot (?:them|him|her))\b`),
	},
	{
		name:    "hate_speech",
		penalty: 35,
		pattern: regexp.MustCompile(`(?i)\b((?:those|these) people are (?:animals|vermin|subhuman)|go back to (?:your|where)|not (?:real|true) (?:citizens|people)|infest\w+)\b`),
	},
	{
		name:    "harassment",
		penalty: 25,
		pattern: regexp.MustCompile(`(?i)\b(find (?:where (?:he|she|they) lives?|their address)|make (?:him|her|them) pay|everyone should (?:report|flood|spam))\b`),
	},
	{
		name:    "doxxing",
		penalty: 25,
		pattern: regexp.MustCompile(`(?i)\b(home address is|phone number is|lives at \d|ssn|aadhaar number)\b`),
	},
	{
		name:    "spam",
		penalty: 10,
		pattern: regexp.MustCompile(`(?i)\b(click (?:here|this link)|free money|limited offer|earn \$?\d+|wire transfer|crypto giveaway)\b`),
	},
}

// shoutingRatio above which text is flagged for excessive capitalization
const shoutingRatio = 0.5

// SafetyAnalyzer screens the text for unsafe content. Its score is a
// safety score, not a credibility score; aggregation reports it
// alongside the verdict and keeps it out of the credibility mean.
type SafetyAnalyzer struct{}

func NewSafetyAnalyzer() *SafetyAnalyzer {
	return &SafetyAnalyzer{}
}

func (a *SafetyAnalyzer) Name() model.Variant {
	return model.VariantSafetyCheck
}

func (a *SafetyAnalyzer) Analyze(ctx context.Context, text string, actx *Context) model.Outcome {
	report := ScreenText(text)

	payload := map[string]interface{}{
		"report": report,
	}
	return model.Success(a.Name(), report.SafetyScore, 0.85, payload)
}

// ScreenText runs all safety categories over the text and folds the
// hits into a report. Score starts at 100 and each flagged category
// subtracts its penalty once, regardless of match count.
func ScreenText(text string) model.SafetyReport {
	report := model.SafetyReport{SafetyScore: 100}

	for _, cat := range safetyCategories {
		matches := cat.pattern.FindAllString(text, 3)
		if len(matches) == 0 {
			continue
		}
		report.FlaggedCategories = append(report.FlaggedCategories, cat.name)
		for _, m := range matches {
			report.FlaggedTerms = append(report.FlaggedTerms, strings.ToLower(m))
		}
		report.SafetyScore -= cat.penalty
	}

	if isShouting(text) {
		report.FlaggedCategories = append(report.FlaggedCategories, "excessive_caps")
		report.SafetyScore -= 5
	}

	if report.SafetyScore < 0 {
		report.SafetyScore = 0
	}
	report.IsSafe = len(report.FlaggedCategories) == 0

	return report
}

// isShouting reports whether most letters in the text are uppercase.
// Very short texts are exempt: acronyms and headlines are normal.
func isShouting(text string) bool {
	var letters, upper int
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters < 30 {
		return false
	}
	return float64(upper)/float64(letters) > shoutingRatio
}
