package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"clinaudit/internal/syndata"

	"github.com/spf13/cobra"
)

func main() {
	cfg := syndata.DefaultConfig()
	var out string

	rootCmd := &cobra.Command{
		Use:   "clinaudit-gendata",
		Short: "Generate a synthetic clinical cohort with planted validation hazards",
		Long: `Writes a deterministic synthetic dataset for exercising the audit:
a target-leaking discharge code, strong cognitive scores, multiple
hospitals and an admission year column. CSV or XLSX by extension.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cohort, err := syndata.Generate(cfg)
			if err != nil {
				return err
			}
			if dir := filepath.Dir(out); dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return err
				}
			}
			if strings.HasSuffix(strings.ToLower(out), ".xlsx") {
				err = syndata.WriteXLSX(out, cohort)
			} else {
				err = syndata.WriteCSV(out, cohort)
			}
			if err != nil {
				return err
			}
			fmt.Printf("Wrote %d rows x %d columns to %s\n", len(cohort.Rows), len(cohort.Headers), out)
			return nil
		},
	}

	rootCmd.Flags().StringVar(&out, "out", "data/raw_alzheimers_data.csv", "Output path (.csv or .xlsx)")
	rootCmd.Flags().IntVar(&cfg.Rows, "rows", cfg.Rows, "Number of patient rows")
	rootCmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed")
	rootCmd.Flags().IntVar(&cfg.Sites, "sites", cfg.Sites, "Number of hospital groups")
	rootCmd.Flags().BoolVar(&cfg.PlantLeak, "plant-leak", cfg.PlantLeak, "Include the target-leaking discharge code column")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}
