package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"policylens/internal/dedup"
	"policylens/internal/gap"
	"policylens/internal/llm"
	"policylens/internal/model"
	"policylens/internal/pipeline"
)

var (
	expectationsPath string
	outJSON          string
	outMD            string
	storePath        string
	submission       bool
	runTimeout       time.Duration
	tariffVariance   float64
	keySimilarity    float64
	adequacy         int
	llmEnabled       bool
	llmProvider      string
	llmModel         string
	noFooter         bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <records-file>",
	Short: "Analyze extracted policy rules for contradictions and coverage gaps",
	Long: `Analyze runs the full pipeline over a file of extracted rule records:
- Normalize raw fields into canonical rules
- Resolve service keys
- Detect tariff, limit, coverage and facility-exclusion contradictions
- Check coverage expectations per condition
- Score every finding and merge it against the cross-run insight store

Example:
  policylens analyze rules.json --expectations expectations.yaml
  policylens analyze rules.jsonl --expectations exp.yaml --json out.json --md out.md
  policylens analyze rules.json --expectations exp.yaml --submission
  policylens analyze rules.json --expectations exp.yaml --llm --llm-provider openai`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&expectationsPath, "expectations", "", "expectation config YAML (required)")
	_ = analyzeCmd.MarkFlagRequired("expectations")

	analyzeCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	analyzeCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	analyzeCmd.Flags().StringVar(&storePath, "store", "", "insight store path (default: ~/.policylens/insights.json)")
	analyzeCmd.Flags().BoolVar(&submission, "submission", false, "ephemeral store: report this run's findings without historical inflation")

	analyzeCmd.Flags().DurationVar(&runTimeout, "timeout", 5*time.Minute, "overall run timeout")
	analyzeCmd.Flags().Float64Var(&tariffVariance, "tariff-variance", 0.20, "relative tariff spread that counts as a contradiction")
	analyzeCmd.Flags().Float64Var(&keySimilarity, "key-similarity", 0.80, "service key fuzzy-merge threshold")
	analyzeCmd.Flags().IntVar(&adequacy, "adequacy", 2, "matching rules needed for ADEQUATE coverage")

	analyzeCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable collaborator augmentation")
	analyzeCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "collaborator provider (openai, ollama)")
	analyzeCmd.Flags().StringVar(&llmModel, "llm-model", "", "collaborator model name")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	recordsPath := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	cfg := model.DefaultConfig()
	cfg.Analysis.TariffVariance = tariffVariance
	cfg.Analysis.KeySimilarity = keySimilarity
	cfg.Analysis.AdequacyThreshold = adequacy
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !noFooter
	if submission {
		cfg.Store.Mode = model.StoreSubmission
	}

	collab, err := buildCollaborator(cfg)
	if err != nil {
		return err
	}

	gapCfg, err := gap.LoadConfig(expectationsPath)
	if err != nil {
		return err
	}

	store, err := buildStore(cfg)
	if err != nil {
		return err
	}

	records, err := pipeline.ReadRecords(recordsPath)
	if err != nil {
		return err
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Loaded %d records from %s\n", len(records), recordsPath)
	}

	p, err := pipeline.New(cfg, gapCfg, store, collab)
	if err != nil {
		return err
	}

	report, err := p.Analyze(ctx, recordsPath, records)
	if err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	if outJSON != "" {
		if err := renderer.RenderJSON(report, outJSON); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Wrote JSON: %s\n", outJSON)
		}
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(report, outMD); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Wrote Markdown: %s\n", outMD)
		}
	}
	renderer.RenderSummary(os.Stderr, report)

	return nil
}

// buildStore constructs the insight store the pipeline will own
func buildStore(cfg *model.Config) (dedup.Store, error) {
	if cfg.Store.Mode == model.StoreSubmission {
		return dedup.NewMemoryStore(), nil
	}
	path := storePath
	if path == "" {
		path = cfg.Store.Path
	}
	if path == "" {
		path = defaultStorePath()
	}
	return dedup.OpenDiskStore(path)
}

// buildCollaborator wires the optional reasoning collaborator from
// flags and environment
func buildCollaborator(cfg *model.Config) (llm.Collaborator, error) {
	if !llmEnabled {
		return nil, nil
	}

	cfg.LLM.Provider = llmProvider
	cfg.LLM.Model = llmModel

	switch llmProvider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "ollama":
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	}

	return llm.NewCollaborator(cfg.LLM)
}
