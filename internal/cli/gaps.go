package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"policylens/internal/gap"
	"policylens/internal/model"
	"policylens/internal/normalize"
	"policylens/internal/pipeline"
	"policylens/internal/score"
	"policylens/internal/servicekey"
)

var gapsExpectations string

// gapsCmd runs only the coverage-gap analyzer
var gapsCmd = &cobra.Command{
	Use:   "gaps <records-file>",
	Short: "Check coverage expectations only, skipping contradiction detection",
	Long: `Gaps runs the normalizer and gap analyzer without the contradiction
detectors or the insight store, and prints the gap records as JSON.

Example:
  policylens gaps rules.json --expectations expectations.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runGaps,
}

func init() {
	rootCmd.AddCommand(gapsCmd)
	gapsCmd.Flags().StringVar(&gapsExpectations, "expectations", "", "expectation config YAML (required)")
	_ = gapsCmd.MarkFlagRequired("expectations")
}

func runGaps(cmd *cobra.Command, args []string) error {
	gapCfg, err := gap.LoadConfig(gapsExpectations)
	if err != nil {
		return err
	}

	cfg := model.DefaultConfig()
	analyzer, err := gap.NewAnalyzer(gapCfg, cfg.Analysis.AdequacyThreshold)
	if err != nil {
		return err
	}

	records, err := pipeline.ReadRecords(args[0])
	if err != nil {
		return err
	}

	normalizer := normalize.New(cfg.Analysis.FacilityLevelMin, cfg.Analysis.FacilityLevelMax)
	rules := normalizer.NormalizeAll(records)
	resolver := servicekey.NewResolver(cfg.Analysis.KeySimilarity)
	for i := range rules {
		rules[i].ServiceKey = resolver.Resolve(rules[i].Service, rules[i].Category)
	}

	gaps := analyzer.Analyze(rules)
	score.NewScorer().ScoreGaps(gaps, nil)

	data, err := json.MarshalIndent(gaps, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal gaps: %w", err)
	}
	fmt.Println(string(data))

	uncovered := 0
	for _, g := range gaps {
		if g.Status == model.StatusNoCoverage {
			uncovered++
		}
	}
	fmt.Fprintf(os.Stderr, "\n%d conditions checked, %d without any coverage\n", len(gaps), uncovered)
	return nil
}
