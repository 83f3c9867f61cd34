package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/veridict/veridict/internal/engine"
	"github.com/veridict/veridict/internal/model"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze multiple texts from a file in parallel",
	Long: `Batch reads texts from a file (one per line, blank lines and #-comments
skipped) and analyzes them with a bounded worker pool. Results come back
in input order; a rejected or failed entry occupies its slot without
aborting the rest.

Example:
  veridict batch texts.txt
  veridict batch texts.txt --concurrency 8 --level deep_analysis
  veridict batch texts.txt --output-dir ./verdicts`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "", "write each result as JSON into this directory")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")

	batchCmd.Flags().StringVar(&language, "lang", "", "language hint (en, hi, ...)")
	batchCmd.Flags().StringVar(&levelName, "level", "quick_scan", "analysis level (quick_scan, deep_analysis, forensic_review)")
	batchCmd.Flags().StringVar(&focusName, "focus", "", "sensitive-domain focus (health, political, financial, communal)")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")
	batchCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "directory for the persistent result cache")
	batchCmd.Flags().StringVar(&providerName, "provider", "", "AI judgment provider (openai, anthropic, ollama)")
	batchCmd.Flags().StringVar(&providerModel, "model", "", "provider model name")
	batchCmd.Flags().StringVar(&searchEndpoint, "search-endpoint", "", "duplicate-content search endpoint")
}

func runBatch(cmd *cobra.Command, args []string) error {
	texts, err := readLines(args[0])
	if err != nil {
		return err
	}
	if len(texts) == 0 {
		return fmt.Errorf("no texts found in %s", args[0])
	}

	level, err := model.ParseLevel(levelName)
	if err != nil {
		return err
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	cfg.Concurrency.Workers = concurrency

	eng, err := engine.NewEngine(cfg)
	if err != nil {
		return fmt.Errorf("initialize engine: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing %d texts with %d workers at level %s\n", len(texts), concurrency, level)
	}

	reqs := make([]*model.AnalysisRequest, len(texts))
	for i, text := range texts {
		reqs[i] = &model.AnalysisRequest{
			Text:     text,
			Language: language,
			Level:    level,
			Focus:    model.Focus(focusName),
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	started := time.Now()
	outcomes := eng.AnalyzeBatch(ctx, reqs, concurrency)

	var failed int
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			fmt.Printf("%3d  error: %v\n", o.Index+1, o.Err)
			continue
		}
		r := o.Result
		fmt.Printf("%3d  score=%5.1f  threat=%-6s  %s\n", o.Index+1, r.CredibilityScore, r.ThreatLevel, snippet(texts[o.Index]))

		if outputDir != "" {
			if err := writeBatchResult(outputDir, o.Index, r); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: write result %d: %v\n", o.Index+1, err)
			}
		}
	}

	fmt.Fprintf(os.Stderr, "\nProcessed %d texts (%d failed) in %s\n", len(outcomes), failed, time.Since(started).Round(time.Millisecond))
	return nil
}

// readLines loads one text per line, skipping blanks and #-comments
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input file: %w", err)
	}
	return lines, nil
}

func writeBatchResult(dir string, index int, r *model.AnalysisResult) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	name := fmt.Sprintf("result-%03d-%s.json", index+1, r.Fingerprint.PartialHash[:12])
	return writeJSON(filepath.Join(dir, name), r)
}

// snippet shortens a text for one-line batch output
func snippet(text string) string {
	const max = 60
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= max {
		return text
	}
	return text[:max-3] + "..."
}
