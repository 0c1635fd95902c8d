package main

import (
	"fmt"
	"log"
	"os"

	"clinaudit/adapters/tabular"
	"clinaudit/domain/core"
	"clinaudit/domain/table"
	"clinaudit/internal/config"
	"clinaudit/internal/model"
	"clinaudit/internal/predictor"
	"clinaudit/internal/preprocess"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	var dataPath string
	var family string
	var version string
	var outPath string

	rootCmd := &cobra.Command{
		Use:   "clinaudit-train",
		Short: "Fit a risk model on the full dataset and freeze it as a JSON artifact",
		Long: `Fits the preprocessing pipeline and a classifier on every row of the
dataset, then writes the frozen artifact the prediction server loads.
Run the audit first; a model trained on leaky features is worthless.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dataPath != "" {
				cfg.Audit.DataCandidates = []string{dataPath}
			}
			if outPath == "" {
				outPath = cfg.Server.ArtifactPath
			}
			return runTrain(cfg, family, version, outPath)
		},
	}

	rootCmd.Flags().StringVar(&dataPath, "data", "", "Dataset file (csv or xlsx); overrides the default candidates")
	rootCmd.Flags().StringVar(&family, "family", "gradient_boosting", "Model family: gradient_boosting or logistic_regression")
	rootCmd.Flags().StringVar(&version, "version", "1.0.0", "Model version stamped into the artifact")
	rootCmd.Flags().StringVar(&outPath, "out", "", "Artifact output path (default from MODEL_ARTIFACT_PATH)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func runTrain(cfg *config.Config, family, version, outPath string) error {
	reader, err := tabular.FirstExisting(cfg.Audit.DataCandidates)
	if err != nil {
		return err
	}
	dataset, err := reader.Read()
	if err != nil {
		return err
	}
	target, err := table.DetectTarget(dataset)
	if err != nil {
		return err
	}
	x, y, used, err := table.SplitFeatures(dataset, target, table.DefaultTokenTable(), false)
	if err != nil {
		return err
	}
	log.Printf("[train] target=%s features=%d rows=%d", target, len(used), dataset.NumRows())

	pipeline := preprocess.New(x)
	matrix, err := pipeline.FitTransform(x)
	if err != nil {
		return err
	}
	means, stds := pipeline.ScalerStats()

	artifact := &predictor.Artifact{
		ModelName:    "clinical_risk_model",
		ModelVersion: version,
		Family:       family,
		FeatureNames: pipeline.FeatureNames(),
		Means:        means,
		Stds:         stds,
		TrainedAt:    core.Now(),
	}

	switch family {
	case "logistic_regression":
		clf := model.NewLogisticRegression(1.0, "l2")
		if err := clf.Fit(matrix, y); err != nil {
			return err
		}
		weights, bias, err := clf.Coefficients()
		if err != nil {
			return err
		}
		artifact.Weights, artifact.Bias = weights, bias
	case "gradient_boosting":
		clf := model.NewGradientBoosting(100, 0.1, 3)
		if err := clf.Fit(matrix, y); err != nil {
			return err
		}
		base, trees, err := clf.Export()
		if err != nil {
			return err
		}
		artifact.BaseScore, artifact.LearningRate, artifact.Trees = base, clf.LearningRate, trees
	default:
		return fmt.Errorf("unknown model family %q (want gradient_boosting or logistic_regression)", family)
	}

	if err := artifact.Save(outPath); err != nil {
		return err
	}
	fmt.Printf("Trained %s v%s on %d rows (%d encoded features).\n",
		family, version, dataset.NumRows(), len(artifact.FeatureNames))
	fmt.Printf("Artifact written to %s\n", outPath)
	return nil
}
