package main

import (
	"fmt"
	"log"
	"os"

	"clinaudit/adapters/reportsink"
	"clinaudit/adapters/tabular"
	"clinaudit/app"
	"clinaudit/domain/core"
	"clinaudit/internal/config"
	"clinaudit/ports"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Optional .env for local runs; environment wins.
	_ = godotenv.Load()

	var dataPath string
	var seed int64

	rootCmd := &cobra.Command{
		Use:   "clinaudit-audit",
		Short: "Run the full leakage and validation audit over a clinical dataset",
		Long: `Runs the audit pipeline end to end: target detection, per-feature
leakage scoring, with/without-cognitive holdout comparison, temporal and
site feasibility, and nested cross-validation. Writes four JSON reports
plus a markdown run summary.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				cfg.Audit.Seed = seed
			}
			if dataPath != "" {
				cfg.Audit.DataCandidates = []string{dataPath}
			}
			return runAudit(cmd, cfg)
		},
	}

	rootCmd.Flags().StringVar(&dataPath, "data", "", "Dataset file (csv or xlsx); overrides the default candidates")
	rootCmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic splits and shuffles")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		if core.IsDataNotFound(err) {
			fmt.Fprintln(os.Stderr, "Pass --data or set AUDIT_DATA_CANDIDATES to point at the dataset.")
		}
		os.Exit(1)
	}
}

func runAudit(cmd *cobra.Command, cfg *config.Config) error {
	reader, err := tabular.FirstExisting(cfg.Audit.DataCandidates)
	if err != nil {
		return err
	}

	runID := core.NewRunID()
	sinks := []ports.ReportSink{reportsink.NewFileSink(cfg.Audit.ReportsDir)}
	if cfg.Database.URL != "" {
		pg, err := reportsink.OpenPostgresSink(cfg.Database.URL, runID)
		if err != nil {
			return err
		}
		defer pg.Close()
		sinks = append(sinks, pg)
		log.Printf("[audit] mirroring reports to Postgres")
	}

	service := app.NewAuditService(cfg.Audit, reader, reportsink.NewMultiSink(sinks...)).WithRunID(runID)

	result, err := service.Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Audit run %s complete.\n", result.Manifest.RunID)
	fmt.Printf("  data:   %s\n", result.Manifest.DataPath)
	fmt.Printf("  target: %s\n", result.Manifest.Target)
	fmt.Printf("  reports (%s/):\n", cfg.Audit.ReportsDir)
	for _, name := range []string{
		"leakage_audit_report.json",
		"with_without_cognitive_metrics.json",
		"temporal_site_validation.json",
		"nested_cv_summary.json",
		"run_summary.md",
	} {
		fmt.Printf("    - %s\n", name)
	}
	return nil
}
