package analyzer

import (
	"context"
	"strings"
	"testing"

	"github.com/veridict/veridict/internal/model"
)

// panicAnalyzer always panics, for boundary testing
type panicAnalyzer struct{}

func (panicAnalyzer) Name() model.Variant { return model.VariantTextCredibility }
func (panicAnalyzer) Analyze(ctx context.Context, text string, actx *Context) model.Outcome {
	panic("internal invariant broken")
}

func TestRun_ContainsPanics(t *testing.T) {
	out := Run(context.Background(), panicAnalyzer{}, "some text", &Context{})

	if !out.IsFailure() {
		t.Fatal("panic should surface as a failure outcome")
	}
	if out.Confidence != 0 {
		t.Errorf("failure confidence = %v, want 0", out.Confidence)
	}
	if !strings.Contains(out.FailureReason, "panic") {
		t.Errorf("failure reason %q should mention the panic", out.FailureReason)
	}
}

func TestDetectTactics(t *testing.T) {
	text := `URGENT: share this now before it's too late! Doctors say this ` +
		`miracle treatment works but mainstream media is hiding it. ` +
		`Everyone knows the government is lying. This deadly cover-up is ` +
		`a threat to your family.`

	tactics := DetectTactics(text)
	if len(tactics) == 0 {
		t.Fatal("manipulation-dense text should trigger the catalogue")
	}

	byName := make(map[string]model.ManipulationTactic)
	for _, tac := range tactics {
		byName[tac.Name] = tac
	}

	for _, want := range []string{"urgency_tactics", "authority_appeal", "authority_undermining", "fear_mongering"} {
		if _, ok := byName[want]; !ok {
			t.Errorf("expected tactic %q, got %v", want, keys(byName))
		}
	}

	if tac := byName["fear_mongering"]; tac.Severity != model.SeverityHigh {
		t.Errorf("fear_mongering severity = %q, want high", tac.Severity)
	}
	if tac := byName["urgency_tactics"]; len(tac.Excerpts) == 0 {
		t.Error("detected tactic should carry excerpts")
	}
}

func TestDetectTactics_CleanText(t *testing.T) {
	text := "The city council approved the new transit budget on March 4, 2025, " +
		"following a public comment period that drew 40 speakers."

	if tactics := DetectTactics(text); len(tactics) != 0 {
		t.Errorf("neutral civic text flagged: %v", tactics)
	}
}

func TestTacticsAnalyzer_ScoreDropsWithDensity(t *testing.T) {
	a := NewTacticsAnalyzer()
	ctx := context.Background()

	clean := a.Analyze(ctx, "The bridge reopened after scheduled maintenance was completed.", &Context{})
	dense := a.Analyze(ctx, "URGENT deadly crisis! Share this now, the government is hiding the shocking truth! Wake up, do your own research!", &Context{})

	if clean.IsFailure() || dense.IsFailure() {
		t.Fatal("local analyzer should not fail")
	}
	if clean.Score != 100 {
		t.Errorf("clean score = %v, want 100", clean.Score)
	}
	if dense.Score >= clean.Score {
		t.Errorf("dense score %v should be below clean score %v", dense.Score, clean.Score)
	}
}

func TestScreenText(t *testing.T) {
	report := ScreenText("Free money! Click here for a crypto giveaway, limited offer!")

	if report.IsSafe {
		t.Error("spam text should not be safe")
	}
	if !containsStr(report.FlaggedCategories, "spam") {
		t.Errorf("categories = %v, want spam flagged", report.FlaggedCategories)
	}
	if report.SafetyScore >= 100 {
		t.Errorf("safety score = %v, want below 100", report.SafetyScore)
	}
}

func TestScreenText_Clean(t *testing.T) {
	report := ScreenText("The museum extended its weekend hours for the new exhibition.")

	if !report.IsSafe {
		t.Errorf("clean text flagged: %v", report.FlaggedCategories)
	}
	if report.SafetyScore != 100 {
		t.Errorf("safety score = %v, want 100", report.SafetyScore)
	}
}

func TestScreenText_Shouting(t *testing.T) {
	report := ScreenText("THIS IS ABSOLUTELY THE MOST IMPORTANT THING YOU WILL READ ALL YEAR I PROMISE")

	if !containsStr(report.FlaggedCategories, "excessive_caps") {
		t.Errorf("categories = %v, want excessive_caps", report.FlaggedCategories)
	}
}

func TestContextAnalyzer_UndatedUrgency(t *testing.T) {
	a := NewContextAnalyzer()
	ctx := context.Background()

	urgent := a.Analyze(ctx, "BREAKING: just in, this happened hours ago and nobody can explain it", &Context{})
	dated := a.Analyze(ctx, "On March 4, 2025 the committee published its findings after review.", &Context{})

	if urgent.Score >= dated.Score {
		t.Errorf("undated urgent text (%v) should score below dated text (%v)", urgent.Score, dated.Score)
	}
	if _, ok := urgent.Payload["undated_urgency"]; !ok {
		t.Error("payload should record the undated urgency terms")
	}
}

func TestContextAnalyzer_FocusLexicon(t *testing.T) {
	a := NewContextAnalyzer()

	out := a.Analyze(context.Background(),
		"This vaccine is a miracle treatment that cures the virus with no side effects",
		&Context{Focus: model.FocusHealth})

	if out.Payload["sensitive_domain"] != "health" {
		t.Errorf("sensitive_domain = %v, want health", out.Payload["sensitive_domain"])
	}
}

func TestContextAnalyzer_CorroboratesLowCredibility(t *testing.T) {
	a := NewContextAnalyzer()
	text := "BREAKING news from moments ago about the election ballot counting"

	alone := a.Analyze(context.Background(), text, &Context{})
	corroborated := a.Analyze(context.Background(), text, &Context{
		Prior: map[model.Variant]model.Outcome{
			model.VariantTextCredibility: model.Success(model.VariantTextCredibility, 20, 0.9, nil),
		},
	})

	if corroborated.Score >= alone.Score {
		t.Errorf("confident low-credibility prior should lower the score: %v vs %v", corroborated.Score, alone.Score)
	}
}

func keys(m map[string]model.ManipulationTactic) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func containsStr(in []string, want string) bool {
	for _, s := range in {
		if s == want {
			return true
		}
	}
	return false
}
