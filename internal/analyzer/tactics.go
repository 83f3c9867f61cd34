package analyzer

import (
	"context"
	"math"
	"regexp"
	"strings"

	"github.com/veridict/veridict/internal/model"
)

// tacticPattern is one entry in the manipulation-technique catalogue
type tacticPattern struct {
	name        string
	severity    model.Severity
	description string
	pattern     *regexp.Regexp
}

// maxExcerpts caps how many matched fragments a tactic reports
const maxExcerpts = 5

// tacticCatalogue is the lexicon of persuasion techniques the breakdown
// variant scans for. Patterns are case-insensitive and intentionally
// broad; confidence reflects match density, not pattern precision.
var tacticCatalogue = []tacticPattern{
	{
		name:        "emotional_manipulation",
		severity:    model.SeverityMedium,
		description: "appeals to strong emotion in place of evidence",
		pattern: regexp.MustCompile(`(?i)\b(heartbreaking|devastat\w+|outrage\w*|disgust\w+|horrif\w+|unbelievable|shameful|betray\w+)\b`),
	},
	{
		name:        "urgency_tactics",
		severity:    model.SeverityHigh,
		description: "manufactured time pressure to short-circuit scrutiny",
		pattern: regexp.MustCompile(`(?i)\b(act now|before it'?s too late|share (?:this )?(?:now|immediately|before)|urgent\w*|last chance|running out of time|don'?t wait)\b`),
	},
	{
		name:        "authority_appeal",
		severity:    model.SeverityLow,
		description: "vague or unverifiable appeal to authority",
		pattern: regexp.MustCompile(`(?i)\b(experts? (?:say|agree|warn|confirm)|scientists? (?:say|agree|have (?:proven|confirmed))|doctors? (?:say|recommend|warn)|studies (?:show|prove|confirm)|research (?:shows|proves))\b`),
	},
	{
		name:        "authority_undermining",
		severity:    model.SeverityHigh,
		description: "blanket dismissal of institutions and expertise",
		pattern: regexp.MustCompile(`(?i)\b(mainstream media (?:lies|won'?t|is hiding)|they don'?t want you to know|wake up|do your own research|the government is (?:hiding|lying)|big pharma|deep state|cover[- ]?up)\b`),
	},
	{
		name:        "bandwagon",
		severity:    model.SeverityLow,
		description: "popularity framed as proof",
		pattern: regexp.MustCompile(`(?i)\b(everyone (?:is|knows|agrees)|millions of people|going viral|nobody is talking about|everybody'?s (?:saying|sharing))\b`),
	},
	{
		name:        "fear_mongering",
		severity:    model.SeverityHigh,
		description: "exaggerated danger framing",
		pattern: regexp.MustCompile(`(?i)\b(deadly|killer|dangerous|catastroph\w+|crisis|epidemic|threat to (?:you|your family|our)|poison\w*|toxic|destroy\w*)\b`),
	},
	{
		name:        "cherry_picking",
		severity:    model.SeverityMedium,
		description: "selective evidence presented as the whole picture",
		pattern: regexp.MustCompile(`(?i)\b(the only study|one study (?:shows|proves)|what they won'?t (?:tell|show) you|the (?:real|hidden) (?:truth|facts|numbers|data))\b`),
	},
	{
		name:        "loaded_language",
		severity:    model.SeverityLow,
		description: "emotionally charged wording substituting for argument",
		pattern: regexp.MustCompile(`(?i)\b(so-?called|radical|extremist|regime|propaganda|sheeple|shocking truth|exposed)\b`),
	},
	{
		name:        "false_expertise",
		severity:    model.SeverityMedium,
		description: "unearned credentials or insider framing",
		pattern: regexp.MustCompile(`(?i)\b(as a (?:doctor|nurse|scientist|insider|former)|my (?:friend|cousin|uncle) (?:who works|is a)|insider(?:s)? (?:reveal|told|leaked)|leaked document\w*)\b`),
	},
}

// TacticsAnalyzer scans for known persuasion techniques using the
// pattern catalogue. Entirely local: no provider or network calls, so
// it is the cheapest variant and effectively cannot time out.
type TacticsAnalyzer struct{}

func NewTacticsAnalyzer() *TacticsAnalyzer {
	return &TacticsAnalyzer{}
}

func (a *TacticsAnalyzer) Name() model.Variant {
	return model.VariantTacticsBreakdown
}

// Analyze runs the catalogue over the text. The score starts at 100 and
// loses ground per detected technique weighted by severity; the actual
// credibility penalty is applied later during aggregation, so the score
// here only ranks how manipulation-dense the text itself reads.
func (a *TacticsAnalyzer) Analyze(ctx context.Context, text string, actx *Context) model.Outcome {
	tactics := DetectTactics(text)

	score := 100.0
	for _, tac := range tactics {
		switch tac.Severity {
		case model.SeverityHigh:
			score -= 20
		case model.SeverityMedium:
			score -= 12
		default:
			score -= 6
		}
	}
	if score < 0 {
		score = 0
	}

	confidence := 0.8 // pattern matching is deterministic but coarse
	if len(tactics) == 0 {
		confidence = 0.6 // absence of matches is weaker evidence
	}

	payload := map[string]interface{}{
		"tactics":      tactics,
		"tactic_count": len(tactics),
	}
	return model.Success(a.Name(), score, confidence, payload)
}

// DetectTactics returns every catalogue technique found in the text,
// with excerpts in document order
func DetectTactics(text string) []model.ManipulationTactic {
	var found []model.ManipulationTactic
	for _, tp := range tacticCatalogue {
		matches := tp.pattern.FindAllString(text, -1)
		if len(matches) == 0 {
			continue
		}

		excerpts := make([]string, 0, len(matches))
		seen := make(map[string]bool)
		for _, m := range matches {
			key := strings.ToLower(m)
			if seen[key] {
				continue
			}
			seen[key] = true
			excerpts = append(excerpts, m)
			if len(excerpts) == maxExcerpts {
				break
			}
		}

		found = append(found, model.ManipulationTactic{
			Name:        tp.name,
			Severity:    tp.severity,
			Confidence:  matchConfidence(len(matches)),
			Description: tp.description,
			Excerpts:    excerpts,
		})
	}
	return found
}

// matchConfidence grows with repeat matches and saturates at 0.95
func matchConfidence(hits int) float64 {
	return math.Min(0.5+0.15*float64(hits), 0.95)
}
