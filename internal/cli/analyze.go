package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/veridict/veridict/internal/engine"
	"github.com/veridict/veridict/internal/model"
)

var (
	inputFile      string
	language       string
	levelName      string
	focusName      string
	outJSON        string
	analyzeTimeout time.Duration
	noCache        bool
	cacheDir       string
	providerName   string
	providerModel  string
	searchEndpoint string
	noVerify       bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [text]",
	Short: "Analyze a piece of text for credibility",
	Long: `Analyze runs one text through the configured analysis level:

- quick_scan:      AI credibility judgment only
- deep_analysis:   adds source tracking and manipulation-tactic breakdown
- forensic_review: adds safety screening, context correlation, and
                   spread-pattern forensics

Example:
  veridict analyze "Scientists say this miracle cure works overnight"
  veridict analyze --file article.txt --level forensic_review
  veridict analyze "..." --level deep_analysis --focus health --json result.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&inputFile, "file", "", "read the text from a file instead of the argument")
	analyzeCmd.Flags().StringVar(&language, "lang", "", "language hint (en, hi, ...)")
	analyzeCmd.Flags().StringVar(&levelName, "level", "quick_scan", "analysis level (quick_scan, deep_analysis, forensic_review)")
	analyzeCmd.Flags().StringVar(&focusName, "focus", "", "sensitive-domain focus (health, political, financial, communal)")
	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "write the full result to a JSON file")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 2*time.Minute, "overall analysis timeout")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")
	analyzeCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "directory for the persistent result cache")
	analyzeCmd.Flags().StringVar(&providerName, "provider", "", "AI judgment provider (openai, anthropic, ollama)")
	analyzeCmd.Flags().StringVar(&providerModel, "model", "", "provider model name")
	analyzeCmd.Flags().StringVar(&searchEndpoint, "search-endpoint", "", "duplicate-content search endpoint")
	analyzeCmd.Flags().BoolVar(&noVerify, "no-verify", false, "skip probing sighting origins")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	text, err := readText(args)
	if err != nil {
		return err
	}

	level, err := model.ParseLevel(levelName)
	if err != nil {
		return err
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	eng, err := engine.NewEngine(cfg)
	if err != nil {
		return fmt.Errorf("initialize engine: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	result, err := eng.Analyze(ctx, &model.AnalysisRequest{
		Text:     text,
		Language: language,
		Level:    level,
		Focus:    model.Focus(focusName),
	})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	printResult(os.Stdout, result)

	if outJSON != "" {
		if err := writeJSON(outJSON, result); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Result written to %s\n", outJSON)
		}
	}
	return nil
}

// readText resolves the input text from the argument or --file
func readText(args []string) (string, error) {
	if inputFile != "" {
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return "", fmt.Errorf("read input file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	if len(args) == 1 {
		return args[0], nil
	}
	return "", fmt.Errorf("provide the text as an argument or via --file")
}

// buildConfig folds defaults, config file, env, and flags into one Config
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	cfg.Cache.Enabled = !noCache
	cfg.Cache.DiskDir = cacheDir
	cfg.Output.Verbose = verbose

	if searchEndpoint != "" {
		cfg.Search.Endpoint = searchEndpoint
	}
	if key := os.Getenv("VERIDICT_SEARCH_API_KEY"); key != "" {
		cfg.Search.APIKey = key
	}
	cfg.Search.VerifyOrigins = cfg.Search.VerifyOrigins && !noVerify

	if providerName != "" {
		cfg.Provider.Name = providerName
		cfg.Provider.Model = providerModel
	}
	switch cfg.Provider.Name {
	case "openai":
		cfg.Provider.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.Provider.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		cfg.Provider.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.Provider.APIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.Provider.BaseURL = baseURL
		}
	}
	return cfg, nil
}

// printResult renders a human-readable verdict summary
func printResult(w *os.File, r *model.AnalysisResult) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Credibility score:  %.1f / 100\n", r.CredibilityScore)
	fmt.Fprintf(w, "Confidence:         %.0f%%\n", r.Confidence*100)
	fmt.Fprintf(w, "Threat level:       %s\n", r.ThreatLevel)
	fmt.Fprintf(w, "Level:              %s\n", r.Level)
	fmt.Fprintf(w, "Duration:           %s\n", r.Duration.Round(time.Millisecond))

	fmt.Fprintf(w, "\nVariants:\n")
	for variant, out := range r.Outcomes {
		if out.IsFailure() {
			fmt.Fprintf(w, "  %-22s failed: %s\n", variant, out.FailureReason)
			continue
		}
		fmt.Fprintf(w, "  %-22s score=%.1f confidence=%.2f\n", variant, out.Score, out.Confidence)
	}

	if len(r.Tactics) > 0 {
		fmt.Fprintf(w, "\nManipulation tactics:\n")
		for _, t := range r.Tactics {
			fmt.Fprintf(w, "  [%s] %s", t.Severity, t.Name)
			if len(t.Excerpts) > 0 {
				fmt.Fprintf(w, "  (%s)", strings.Join(t.Excerpts, ", "))
			}
			fmt.Fprintf(w, "\n")
		}
	}

	if r.Temporal != nil {
		fmt.Fprintf(w, "\nSpread pattern: %s (%.1f sightings/hour, %d sightings)\n",
			r.Temporal.Pattern, r.Temporal.Velocity, r.Temporal.SightingCount)
	}
	if r.Safety != nil && !r.Safety.IsSafe {
		fmt.Fprintf(w, "\nSafety: flagged for %s\n", strings.Join(r.Safety.FlaggedCategories, ", "))
	}

	if len(r.Recommendations) > 0 {
		fmt.Fprintf(w, "\nRecommendations:\n")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(w, "  - %s\n", rec)
		}
	}
	fmt.Fprintf(w, "\n")
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
