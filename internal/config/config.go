package config

import (
	"fmt"

	"github.com/spf13/viper"

	"jpkvat/internal/logger"
)

// Config holds runtime configuration. Every field maps to an environment
// variable; none is required for offline generation.
type Config struct {
	// Declaration generation
	SystemName   string `mapstructure:"JPK_SYSTEM_NAME"`
	OperatorID   string `mapstructure:"JPK_OPERATOR_ID"`
	BatchWorkers int    `mapstructure:"BATCH_WORKERS"`

	// HTTP server
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	Env      string `mapstructure:"APP_ENV"` // development | production

	// Google Sheets ledger
	GoogleSheetURL   string `mapstructure:"GOOGLE_SHEET_URL"`
	SalesSheet       string `mapstructure:"SALES_SHEET"`
	PurchaseSheet    string `mapstructure:"PURCHASE_SHEET"`
	DiagnosticsSheet string `mapstructure:"DIAGNOSTICS_SHEET"`

	// Logging
	LogLevel      string `mapstructure:"LOG_LEVEL"`
	LogFormat     string `mapstructure:"LOG_FORMAT"`
	LogTimeFormat string `mapstructure:"LOG_TIME_FORMAT"`
	LogOutput     string `mapstructure:"LOG_OUTPUT"`
}

// Load reads configuration from the environment and an optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("JPK_SYSTEM_NAME", "jpkvat")
	v.SetDefault("JPK_OPERATOR_ID", "")
	v.SetDefault("BATCH_WORKERS", 12)
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("GOOGLE_SHEET_URL", "")
	v.SetDefault("SALES_SHEET", "Sprzedaz")
	v.SetDefault("PURCHASE_SHEET", "Zakup")
	v.SetDefault("DIAGNOSTICS_SHEET", "Diagnostics")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00")
	v.SetDefault("LOG_OUTPUT", "stderr")

	// Optional .env file for local development
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.BatchWorkers < 1 {
		return fmt.Errorf("BATCH_WORKERS must be at least 1, got %d", c.BatchWorkers)
	}
	if c.SalesSheet == "" || c.PurchaseSheet == "" {
		return fmt.Errorf("SALES_SHEET and PURCHASE_SHEET must not be empty")
	}
	if c.SalesSheet == c.PurchaseSheet {
		return fmt.Errorf("SALES_SHEET and PURCHASE_SHEET must differ")
	}
	return nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}
