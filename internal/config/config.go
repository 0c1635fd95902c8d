package config

import (
	"os"
	"strconv"
	"strings"

	"clinaudit/internal/errors"
)

// Config is the complete application configuration. It is built once in a
// command main and threaded explicitly to every component that needs
// determinism, so concurrent runs (tests included) never share state.
type Config struct {
	Audit    AuditConfig
	Server   ServerConfig
	Database DatabaseConfig
}

// AuditConfig holds the knobs of a single audit run.
type AuditConfig struct {
	// Seed drives every stochastic operation: splits, shuffles, tie jitter.
	Seed int64
	// OuterFolds and InnerFolds control the nested CV protocol.
	OuterFolds int
	InnerFolds int
	// HoldoutFraction is the test share of the single-split evaluation.
	HoldoutFraction float64
	// ProxyAUCThreshold flags near-certain leakage proxies.
	ProxyAUCThreshold float64
	// TopSuspicious caps the leakage report's ranked list.
	TopSuspicious int
	// DataCandidates are probed in order for the dataset file.
	DataCandidates []string
	// ReportsDir receives the four JSON reports and the run summary.
	ReportsDir string
}

// ServerConfig holds prediction API settings.
type ServerConfig struct {
	Port         string
	GinMode      string
	ArtifactPath string
}

// DatabaseConfig holds the optional Postgres report sink settings. An empty
// URL disables the sink.
type DatabaseConfig struct {
	URL string
}

// Load reads configuration from environment variables, applying defaults
// that reproduce a standard audit run.
func Load() (*Config, error) {
	cfg := &Config{
		Audit: AuditConfig{
			Seed:              envInt64("AUDIT_SEED", 42),
			OuterFolds:        envInt("AUDIT_OUTER_FOLDS", 5),
			InnerFolds:        envInt("AUDIT_INNER_FOLDS", 3),
			HoldoutFraction:   0.2,
			ProxyAUCThreshold: 0.98,
			TopSuspicious:     30,
			DataCandidates:    envList("AUDIT_DATA_CANDIDATES", []string{"data/raw_alzheimers_data.csv", "data/processed_alzheimers_data.csv"}),
			ReportsDir:        envString("AUDIT_REPORTS_DIR", "reports"),
		},
		Server: ServerConfig{
			Port:         envString("SERVER_PORT", "8000"),
			GinMode:      envString("GIN_MODE", "release"),
			ArtifactPath: envString("MODEL_ARTIFACT_PATH", "models/risk_model.json"),
		},
		Database: DatabaseConfig{
			URL: envString("AUDIT_DATABASE_URL", ""),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Audit.OuterFolds < 2 {
		return errors.ConfigInvalid("AUDIT_OUTER_FOLDS must be at least 2")
	}
	if c.Audit.InnerFolds < 2 {
		return errors.ConfigInvalid("AUDIT_INNER_FOLDS must be at least 2")
	}
	if len(c.Audit.DataCandidates) == 0 {
		return errors.ConfigInvalid("AUDIT_DATA_CANDIDATES must name at least one path")
	}
	return nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}
