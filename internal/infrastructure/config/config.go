// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	engineCfg := cfg.Engine()
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eshaffer321/closeready/internal/domain/recon"
	"github.com/eshaffer321/closeready/internal/domain/validator"
)

// Defaults for the non-engine sections.
const (
	DefaultDatabasePath       = "closeready.db"
	DefaultAPIPort            = 8085
	DefaultEscalateDeltaCents = 100000 // $1,000
	DefaultMaxParallel        = 4
)

// Config represents the entire application configuration
type Config struct {
	Reconciliation recon.Config        `yaml:"reconciliation"`
	Storage        StorageConfig       `yaml:"storage"`
	API            APIConfig           `yaml:"api"`
	Sources        SourcesConfig       `yaml:"sources"`
	Alerts         AlertsConfig        `yaml:"alerts"`
	Workers        WorkersConfig       `yaml:"workers"`
	Observability  ObservabilityConfig `yaml:"observability"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// APIConfig holds HTTP server settings
type APIConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// SourcesConfig points at the payout and deposit exports
type SourcesConfig struct {
	PayoutsCSV  string `yaml:"payouts_csv"`
	DepositsCSV string `yaml:"deposits_csv"`
}

// AlertsConfig holds alert tier thresholds
type AlertsConfig struct {
	EscalateDeltaCents int64 `yaml:"escalate_delta_cents"`
}

// WorkersConfig bounds batch fan-out
type WorkersConfig struct {
	MaxParallel int `yaml:"max_parallel"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${CLOSEREADY_DB})
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a config with every section at its default.
func Default() *Config {
	return &Config{
		Reconciliation: recon.DefaultConfig(),
		Storage:        StorageConfig{DatabasePath: DefaultDatabasePath},
		API:            APIConfig{Port: DefaultAPIPort, AllowedOrigins: []string{"*"}},
		Alerts:         AlertsConfig{EscalateDeltaCents: DefaultEscalateDeltaCents},
		Workers:        WorkersConfig{MaxParallel: DefaultMaxParallel},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{Level: "info", Format: "text"},
		},
	}
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	return &Config{
		Reconciliation: recon.Config{
			ToleranceCents:                int64(getEnvInt("RECON_TOLERANCE_CENTS", recon.DefaultToleranceCents)),
			MaxUnreconciledDays:           getEnvInt("RECON_MAX_UNRECONCILED_DAYS", recon.DefaultMaxUnreconciledDays),
			MinCloseReadinessScorePercent: getEnvInt("RECON_MIN_READINESS_PERCENT", recon.DefaultMinCloseReadinessScorePercent),
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("CLOSEREADY_DB_PATH", DefaultDatabasePath),
		},
		API: APIConfig{
			Port:           getEnvInt("CLOSEREADY_API_PORT", DefaultAPIPort),
			AllowedOrigins: splitList(getEnv("CLOSEREADY_ALLOWED_ORIGINS", "*")),
		},
		Sources: SourcesConfig{
			PayoutsCSV:  os.Getenv("CLOSEREADY_PAYOUTS_CSV"),
			DepositsCSV: os.Getenv("CLOSEREADY_DEPOSITS_CSV"),
		},
		Alerts: AlertsConfig{
			EscalateDeltaCents: int64(getEnvInt("ALERT_ESCALATE_DELTA_CENTS", DefaultEscalateDeltaCents)),
		},
		Workers: WorkersConfig{
			MaxParallel: getEnvInt("CLOSEREADY_MAX_PARALLEL", DefaultMaxParallel),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
		},
	}
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnv_WithPath("config.yaml")
}

// LoadOrEnv_WithPath tries to load from specified path, falls back to environment variables
func LoadOrEnv_WithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// Validate checks values the engine and server cannot run with.
func (c *Config) Validate() error {
	if err := validator.ValidateConfig(c.Reconciliation); err != nil {
		return fmt.Errorf("reconciliation: %w", err)
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("api: port %d out of range", c.API.Port)
	}
	if c.Workers.MaxParallel < 0 {
		return fmt.Errorf("workers: max_parallel must not be negative")
	}
	if c.Alerts.EscalateDeltaCents < 0 {
		return fmt.Errorf("alerts: escalate_delta_cents must not be negative")
	}
	return nil
}

// Engine returns the immutable engine configuration.
func (c *Config) Engine() recon.Config {
	return c.Reconciliation
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
