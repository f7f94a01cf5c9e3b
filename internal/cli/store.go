package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"policylens/internal/dedup"
)

var showStorePath string

// storeCmd manages the cumulative insight store
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect or reset the cross-run insight store",
}

var storeShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List stored insights with occurrence counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := dedup.OpenDiskStore(resolveStorePath())
		if err != nil {
			return err
		}

		records := store.All()
		if len(records) == 0 {
			fmt.Println("Insight store is empty.")
			return nil
		}

		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal store: %w", err)
		}
		fmt.Println(string(data))
		fmt.Fprintf(os.Stderr, "\n%d insights\n", len(records))
		return nil
	},
}

var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the persisted insight store",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := resolveStorePath()
		store, err := dedup.OpenDiskStore(path)
		if err != nil {
			return err
		}
		if err := store.Clear(); err != nil {
			return fmt.Errorf("clear insight store: %w", err)
		}
		fmt.Printf("Cleared insight store: %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(storeCmd)
	storeCmd.AddCommand(storeShowCmd)
	storeCmd.AddCommand(storeClearCmd)
	storeCmd.PersistentFlags().StringVar(&showStorePath, "store", "", "insight store path (default: ~/.policylens/insights.json)")
}

func resolveStorePath() string {
	if showStorePath != "" {
		return showStorePath
	}
	return defaultStorePath()
}
