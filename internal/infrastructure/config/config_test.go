package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/closeready/internal/domain/recon"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	return configPath
}

func TestLoadFromYAML(t *testing.T) {
	// Arrange
	configPath := writeConfig(t, `
reconciliation:
  tolerance_cents: 250
  max_unreconciled_days: 10
  min_close_readiness_score_percent: 90
storage:
  database_path: "recon.db"
api:
  port: 9090
  allowed_origins: ["http://localhost:3000"]
sources:
  payouts_csv: "payouts.csv"
  deposits_csv: "deposits.csv"
alerts:
  escalate_delta_cents: 50000
workers:
  max_parallel: 8
observability:
  logging:
    level: debug
    format: json
`)

	// Act
	cfg, err := Load(configPath)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, recon.Config{ToleranceCents: 250, MaxUnreconciledDays: 10, MinCloseReadinessScorePercent: 90}, cfg.Engine())
	assert.Equal(t, "recon.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 9090, cfg.API.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.API.AllowedOrigins)
	assert.Equal(t, "payouts.csv", cfg.Sources.PayoutsCSV)
	assert.Equal(t, "deposits.csv", cfg.Sources.DepositsCSV)
	assert.Equal(t, int64(50000), cfg.Alerts.EscalateDeltaCents)
	assert.Equal(t, 8, cfg.Workers.MaxParallel)
	assert.Equal(t, "debug", cfg.Observability.Logging.Level)
	assert.Equal(t, "json", cfg.Observability.Logging.Format)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	configPath := writeConfig(t, `
reconciliation:
  tolerance_cents: 50
`)

	cfg, err := Load(configPath)

	require.NoError(t, err)
	assert.Equal(t, int64(50), cfg.Reconciliation.ToleranceCents)
	assert.Equal(t, recon.DefaultMaxUnreconciledDays, cfg.Reconciliation.MaxUnreconciledDays)
	assert.Equal(t, recon.DefaultMinCloseReadinessScorePercent, cfg.Reconciliation.MinCloseReadinessScorePercent)
	assert.Equal(t, DefaultDatabasePath, cfg.Storage.DatabasePath)
	assert.Equal(t, DefaultAPIPort, cfg.API.Port)
	assert.Equal(t, int64(DefaultEscalateDeltaCents), cfg.Alerts.EscalateDeltaCents)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative tolerance", "reconciliation:\n  tolerance_cents: -1\n"},
		{"percent over 100", "reconciliation:\n  min_close_readiness_score_percent: 101\n"},
		{"port out of range", "api:\n  port: 70000\n"},
		{"negative workers", "workers:\n  max_parallel: -2\n"},
		{"malformed yaml", "reconciliation: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	// Set environment variables
	os.Setenv("CLOSEREADY_DB_PATH", "test.db")
	os.Setenv("RECON_TOLERANCE_CENTS", "300")
	os.Setenv("CLOSEREADY_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	os.Setenv("ALERT_ESCALATE_DELTA_CENTS", "2500")
	defer func() {
		os.Unsetenv("CLOSEREADY_DB_PATH")
		os.Unsetenv("RECON_TOLERANCE_CENTS")
		os.Unsetenv("CLOSEREADY_ALLOWED_ORIGINS")
		os.Unsetenv("ALERT_ESCALATE_DELTA_CENTS")
	}()

	cfg := LoadFromEnv()
	assert.NotNil(t, cfg)
	assert.Equal(t, "test.db", cfg.Storage.DatabasePath)
	assert.Equal(t, int64(300), cfg.Reconciliation.ToleranceCents)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.API.AllowedOrigins)
	assert.Equal(t, int64(2500), cfg.Alerts.EscalateDeltaCents)
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	// Clear environment variables
	os.Unsetenv("CLOSEREADY_DB_PATH")
	os.Unsetenv("RECON_TOLERANCE_CENTS")
	os.Unsetenv("RECON_MAX_UNRECONCILED_DAYS")
	os.Unsetenv("RECON_MIN_READINESS_PERCENT")

	cfg := LoadFromEnv()
	assert.NotNil(t, cfg)
	assert.Equal(t, DefaultDatabasePath, cfg.Storage.DatabasePath)
	assert.Equal(t, recon.DefaultConfig(), cfg.Engine())
}

func TestLoadFromEnv_IgnoresNonNumeric(t *testing.T) {
	os.Setenv("RECON_MAX_UNRECONCILED_DAYS", "soon")
	defer os.Unsetenv("RECON_MAX_UNRECONCILED_DAYS")

	cfg := LoadFromEnv()
	assert.Equal(t, recon.DefaultMaxUnreconciledDays, cfg.Reconciliation.MaxUnreconciledDays)
}

func TestLoadOrEnv_FallbackToEnv(t *testing.T) {
	// Test fallback when config file doesn't exist
	os.Setenv("CLOSEREADY_DB_PATH", "fallback.db")
	defer os.Unsetenv("CLOSEREADY_DB_PATH")

	// Try to load from non-existent file
	cfg := LoadOrEnv_WithPath("nonexistent.yaml")
	assert.NotNil(t, cfg)
	assert.Equal(t, "fallback.db", cfg.Storage.DatabasePath)
}

func TestEnvVarExpansion(t *testing.T) {
	// Create temp config file with env vars
	configPath := writeConfig(t, `
storage:
  database_path: "${TEST_DB_PATH}"
sources:
  payouts_csv: "${TEST_PAYOUTS}"
`)

	// Set env vars
	os.Setenv("TEST_DB_PATH", "expanded.db")
	os.Setenv("TEST_PAYOUTS", "/data/payouts.csv")
	defer func() {
		os.Unsetenv("TEST_DB_PATH")
		os.Unsetenv("TEST_PAYOUTS")
	}()

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "expanded.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "/data/payouts.csv", cfg.Sources.PayoutsCSV)
}
