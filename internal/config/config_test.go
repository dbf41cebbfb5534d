package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sitewatch/fieldops/internal/resilience"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "fieldops.db", cfg.Store.DatabaseURL)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 5, cfg.Ledger.SourceTimeoutSecs)
	assert.Equal(t, 2, cfg.Ledger.RetryAttempts)
	assert.Equal(t, 10, cfg.Evidence.StatsCacheTTLMins)
	assert.Empty(t, cfg.Inspection.TemplatePath)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/fieldops
redis:
  addr: localhost:6379
ledger:
  source_timeout_secs: 10
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/fieldops", cfg.Store.DatabaseURL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 10, cfg.Ledger.SourceTimeoutSecs)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults still apply for unset values
	assert.Equal(t, 10, cfg.Evidence.StatsCacheTTLMins)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("FIELDOPS_STORE_DRIVER", "postgres")
	t.Setenv("FIELDOPS_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("FIELDOPS_STORE_DRIVER", "oracle")

	_, err := Load()
	assert.Error(t, err)
}

func TestLedgerConfigConversion(t *testing.T) {
	c := LedgerConfig{SourceTimeoutSecs: 7, SourceRate: 2.5, RetryAttempts: 3}
	agg := c.Aggregator()
	assert.Equal(t, 7*time.Second, agg.SourceTimeout)
	assert.InDelta(t, 2.5, agg.SourceRate, 0.001)
	assert.Equal(t, 3, agg.Retry.MaxAttempts)
	// Backoff shape comes from the collector defaults.
	assert.Equal(t, resilience.DefaultRetryConfig().InitialBackoff, agg.Retry.InitialBackoff)

	// An unset attempt count keeps the default policy untouched.
	agg = LedgerConfig{SourceTimeoutSecs: 7}.Aggregator()
	assert.Equal(t, resilience.DefaultRetryConfig().MaxAttempts, agg.Retry.MaxAttempts)
}

func TestEvidenceConfigConversion(t *testing.T) {
	c := EvidenceConfig{StatsCacheTTLMins: 15}
	assert.Equal(t, 15*time.Minute, c.Correlator().StatsCacheTTL)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
