// Package config provides configuration loading for PolicyLens.
// Precedence follows the usual viper ordering: explicit CLI flags first,
// then POLICYLENS_* environment variables, then an optional config file,
// then defaults.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"policylens/pkg/policytypes"
)

// Defaults for the tunable knobs of the engine.
const (
	DefaultBaseURL          = "http://127.0.0.1:5000"
	DefaultAskTimeout       = 60 * time.Second
	DefaultDownloadInterval = 300 * time.Millisecond
	DefaultProbeInterval    = 10 * time.Second
)

// Config holds the runtime configuration of the engine and CLI.
type Config struct {
	BaseURL          string        `mapstructure:"base_url"`
	Actor            string        `mapstructure:"actor"` // username sent with delete requests
	AskTimeout       time.Duration `mapstructure:"ask_timeout"`
	DownloadInterval time.Duration `mapstructure:"download_interval"`
	ProbeInterval    time.Duration `mapstructure:"probe_interval"`
	HistoryCapacity  int           `mapstructure:"history_capacity"`
	LogLevel         string        `mapstructure:"log_level"`
	LogFile          string        `mapstructure:"log_file"`
	TestMode         bool          `mapstructure:"test_mode"`
}

// IsTestMode reports whether deterministic test mode is active.
func (c *Config) IsTestMode() bool { return c.TestMode }

var _ policytypes.TestModeProvider = (*Config)(nil)

// Load reads configuration from the environment and an optional config file
// (.policylens.yaml in the working directory or $HOME).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("POLICYLENS")
	v.AutomaticEnv()

	v.SetConfigName(".policylens")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME")
	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine; anything else is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the loaded configuration for usable values.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url cannot be empty")
	}
	if c.AskTimeout <= 0 {
		return fmt.Errorf("ask_timeout must be positive, got %s", c.AskTimeout)
	}
	if c.HistoryCapacity <= 0 {
		return fmt.Errorf("history_capacity must be positive, got %d", c.HistoryCapacity)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("actor", "")
	v.SetDefault("ask_timeout", DefaultAskTimeout)
	v.SetDefault("download_interval", DefaultDownloadInterval)
	v.SetDefault("probe_interval", DefaultProbeInterval)
	v.SetDefault("history_capacity", policytypes.DefaultHistoryCapacity)
	v.SetDefault("log_level", "")
	v.SetDefault("log_file", "")
	v.SetDefault("test_mode", false)
}
