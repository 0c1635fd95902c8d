package main

import (
	"fmt"
	"os"
	"path/filepath"

	"clinaudit/adapters/api"
	"clinaudit/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	var port string
	var artifactPath string

	rootCmd := &cobra.Command{
		Use:   "clinaudit-server",
		Short: "Serve risk predictions from a frozen model artifact",
		Long: `Starts the prediction API. Endpoints: GET /health, GET /features,
POST /predict, POST /predict/batch, GET /audit/report.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
			}
			if artifactPath != "" {
				cfg.Server.ArtifactPath = artifactPath
			}

			summaryPath := filepath.Join(cfg.Audit.ReportsDir, "run_summary.md")
			srv, err := api.NewServer(cfg.Server, summaryPath)
			if err != nil {
				return err
			}
			return srv.Run()
		},
	}

	rootCmd.Flags().StringVar(&port, "port", "", "Listen port (default from SERVER_PORT, else 8000)")
	rootCmd.Flags().StringVar(&artifactPath, "artifact", "", "Model artifact path (default from MODEL_ARTIFACT_PATH)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}
