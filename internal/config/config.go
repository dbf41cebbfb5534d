// Package config loads application configuration from file and environment
// and owns global logger setup.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sitewatch/fieldops/internal/evidence"
	"github.com/sitewatch/fieldops/internal/ledger"
	"github.com/sitewatch/fieldops/internal/resilience"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Redis      RedisConfig      `yaml:"redis" mapstructure:"redis"`
	Ledger     LedgerConfig     `yaml:"ledger" mapstructure:"ledger"`
	Evidence   EvidenceConfig   `yaml:"evidence" mapstructure:"evidence"`
	Inspection InspectionConfig `yaml:"inspection" mapstructure:"inspection"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the persistence backend.
type StoreConfig struct {
	// Driver is one of memory, sqlite, postgres.
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// RedisConfig configures the optional space-stats cache. An empty Addr
// disables caching.
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

// LedgerConfig configures the activity ledger fan-out.
type LedgerConfig struct {
	SourceTimeoutSecs int     `yaml:"source_timeout_secs" mapstructure:"source_timeout_secs"`
	SourceRate        float64 `yaml:"source_rate" mapstructure:"source_rate"`
	RetryAttempts     int     `yaml:"retry_attempts" mapstructure:"retry_attempts"`
}

// Aggregator converts the file shape to the ledger package's config. The
// retry policy starts from the collector defaults with only the attempt
// count taken from configuration.
func (c LedgerConfig) Aggregator() ledger.Config {
	retry := resilience.DefaultRetryConfig()
	if c.RetryAttempts > 0 {
		retry.MaxAttempts = c.RetryAttempts
	}
	return ledger.Config{
		SourceTimeout: time.Duration(c.SourceTimeoutSecs) * time.Second,
		SourceRate:    c.SourceRate,
		Retry:         retry,
	}
}

// EvidenceConfig configures the photo correlator.
type EvidenceConfig struct {
	StatsCacheTTLMins int `yaml:"stats_cache_ttl_mins" mapstructure:"stats_cache_ttl_mins"`
}

// Correlator converts the file shape to the evidence package's config.
func (c EvidenceConfig) Correlator() evidence.Config {
	return evidence.Config{
		StatsCacheTTL: time.Duration(c.StatsCacheTTLMins) * time.Minute,
	}
}

// InspectionConfig configures checklist creation.
type InspectionConfig struct {
	// TemplatePath points at a YAML checklist template. Empty uses the
	// compiled-in monthly walk-through.
	TemplatePath string `yaml:"template_path" mapstructure:"template_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FIELDOPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "fieldops.db")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("ledger.source_timeout_secs", 5)
	v.SetDefault("ledger.source_rate", 0)
	v.SetDefault("ledger.retry_attempts", 2)
	v.SetDefault("evidence.stats_cache_ttl_mins", 10)
	v.SetDefault("inspection.template_path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	switch cfg.Store.Driver {
	case "memory", "sqlite", "postgres":
	default:
		return nil, eris.Errorf("config: unknown store driver %q", cfg.Store.Driver)
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
