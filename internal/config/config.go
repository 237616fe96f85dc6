// Package config provides configuration management for the trading application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Trading TradingConfig `mapstructure:"trading"`
	Risk    RiskConfig    `mapstructure:"risk"`
	Logging LoggingConfig `mapstructure:"logging"`
	Storage StorageConfig `mapstructure:"storage"`
}

// TradingConfig holds session defaults.
type TradingConfig struct {
	Resolution          string `mapstructure:"resolution"`            // candle resolution in minutes, or "D"
	PollIntervalSeconds int    `mapstructure:"poll_interval_seconds"` // live mode polling cadence
}

// RiskConfig holds portfolio risk defaults.
type RiskConfig struct {
	InitialCapital      float64 `mapstructure:"initial_capital"`
	PositionSizePercent float64 `mapstructure:"position_size_percent"`
	StopLossPercent     float64 `mapstructure:"stop_loss_percent"`
	TargetPercent       float64 `mapstructure:"target_percent"`
	MaxPositions        int     `mapstructure:"max_positions"`
	ChargePerTrade      float64 `mapstructure:"charge_per_trade"`
	SlippagePercent     float64 `mapstructure:"slippage_percent"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/strategy-trader"
	}
	return filepath.Join(home, ".config", "strategy-trader")
}

// PollInterval returns the live-mode polling cadence as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Trading.PollIntervalSeconds) * time.Second
}

// DBPath returns the session database path, resolving the default lazily so
// a custom config dir is honored.
func (c *Config) DBPath(configDir string) string {
	if c.Storage.DBPath != "" {
		return c.Storage.DBPath
	}
	return filepath.Join(configDir, "sessions.db")
}

// Load loads configuration from the specified directory. If configDir is
// empty, the default config directory is used. A missing config file is not
// an error: a template is written and defaults apply.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		if err := writeTemplate(configDir); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("trading.resolution", "5")
	v.SetDefault("trading.poll_interval_seconds", 60)

	v.SetDefault("risk.initial_capital", 100000.0)
	v.SetDefault("risk.position_size_percent", 10.0)
	v.SetDefault("risk.stop_loss_percent", 2.0)
	v.SetDefault("risk.target_percent", 5.0)
	v.SetDefault("risk.max_positions", 5)
	v.SetDefault("risk.charge_per_trade", 20.0)
	v.SetDefault("risk.slippage_percent", 0.0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)

	v.SetDefault("storage.db_path", "")
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRADER_RESOLUTION"); v != "" {
		cfg.Trading.Resolution = v
	}
	if v := os.Getenv("TRADER_INITIAL_CAPITAL"); v != "" {
		if capital, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Risk.InitialCapital = capital
		}
	}
	if v := os.Getenv("TRADER_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("TRADER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Trading.Resolution == "" {
		return fmt.Errorf("trading.resolution must not be empty")
	}
	if c.Trading.PollIntervalSeconds <= 0 {
		return fmt.Errorf("trading.poll_interval_seconds must be positive")
	}
	if c.Risk.InitialCapital <= 0 {
		return fmt.Errorf("risk.initial_capital must be positive")
	}
	if c.Risk.PositionSizePercent <= 0 || c.Risk.PositionSizePercent > 100 {
		return fmt.Errorf("risk.position_size_percent must be between 0 and 100")
	}
	if c.Risk.StopLossPercent < 0 || c.Risk.TargetPercent < 0 {
		return fmt.Errorf("risk stop and target percentages must be non-negative")
	}
	if c.Risk.MaxPositions < 0 {
		return fmt.Errorf("risk.max_positions must be non-negative")
	}
	if c.Risk.ChargePerTrade < 0 {
		return fmt.Errorf("risk.charge_per_trade must be non-negative")
	}
	if c.Risk.SlippagePercent < 0 {
		return fmt.Errorf("risk.slippage_percent must be non-negative")
	}
	return nil
}
