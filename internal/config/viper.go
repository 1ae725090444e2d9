// Package config provides Viper-based hierarchical configuration management
package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// LogConfig controls the logrus logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DataConfig locates the ledger database. "memory" selects the in-memory store.
type DataConfig struct {
	Database string `mapstructure:"database" yaml:"database"`
}

// ImportConfig controls statement and payment import.
type ImportConfig struct {
	Delimiter       string `mapstructure:"delimiter" yaml:"delimiter"`
	InferReferences bool   `mapstructure:"infer_references" yaml:"infer_references"`
}

// ReconciliationConfig holds the run settings an operator may change.
// Field weights and thresholds are engine constants and deliberately absent.
type ReconciliationConfig struct {
	PaymentLookbackDays int    `mapstructure:"payment_lookback_days" yaml:"payment_lookback_days"`
	SystemActor         string `mapstructure:"system_actor" yaml:"system_actor"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `mapstructure:"port" yaml:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// SchedulerConfig configures periodic reconciliation of imported statements.
type SchedulerConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Schedule string `mapstructure:"schedule" yaml:"schedule"`
}

// Config represents the complete application configuration
type Config struct {
	Log            LogConfig            `mapstructure:"log" yaml:"log"`
	Data           DataConfig           `mapstructure:"data" yaml:"data"`
	Import         ImportConfig         `mapstructure:"import" yaml:"import"`
	Reconciliation ReconciliationConfig `mapstructure:"reconciliation" yaml:"reconciliation"`
	Server         ServerConfig         `mapstructure:"server" yaml:"server"`
	Scheduler      SchedulerConfig      `mapstructure:"scheduler" yaml:"scheduler"`
}

// Delimiter returns the configured CSV delimiter as a rune.
func (c *Config) Delimiter() rune {
	if c.Import.Delimiter == "" {
		return ','
	}
	return []rune(c.Import.Delimiter)[0]
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.camt-recon")
	v.AddConfigPath(".camt-recon")
	v.AddConfigPath(".")

	// 3. Environment variables
	v.SetEnvPrefix("RECON")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("data.database", "camt-recon.db")

	v.SetDefault("import.delimiter", ",")
	v.SetDefault("import.infer_references", false)

	v.SetDefault("reconciliation.payment_lookback_days", 7)
	v.SetDefault("reconciliation.system_actor", "SYSTEM")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.schedule", "@every 15m")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if strings.TrimSpace(config.Data.Database) == "" {
		return fmt.Errorf("data.database must not be empty")
	}

	if len([]rune(config.Import.Delimiter)) != 1 {
		return fmt.Errorf("CSV delimiter must be a single character, got: %s", config.Import.Delimiter)
	}

	if config.Reconciliation.PaymentLookbackDays < 1 || config.Reconciliation.PaymentLookbackDays > 366 {
		return fmt.Errorf("reconciliation.payment_lookback_days must be between 1 and 366, got: %d",
			config.Reconciliation.PaymentLookbackDays)
	}

	if strings.TrimSpace(config.Reconciliation.SystemActor) == "" {
		return fmt.Errorf("reconciliation.system_actor must not be empty")
	}

	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got: %d", config.Server.Port)
	}

	if config.Scheduler.Enabled {
		if _, err := cron.ParseStandard(config.Scheduler.Schedule); err != nil {
			return fmt.Errorf("invalid scheduler.schedule %q: %w", config.Scheduler.Schedule, err)
		}
	}

	return nil
}
