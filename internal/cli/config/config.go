// Package config loads the optional ansible-ls configuration file.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config represents the ansible-ls configuration
type Config struct {
	Checker CheckerConfig `mapstructure:"checker"`
}

// CheckerConfig configures the external syntax checker
type CheckerConfig struct {
	// Command is the checker executable invoked for every validation
	Command string `mapstructure:"command"`

	// MaxProblems caps how many diagnostics a single run may report.
	// The LSP client can replace this at runtime via
	// workspace/didChangeConfiguration.
	MaxProblems int `mapstructure:"max_problems"`
}

// Load loads the configuration from ansible-ls.yml or ansible-ls.yaml
// in the working directory, falling back to defaults when no file exists.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("checker.command", "ansible-playbook")
	v.SetDefault("checker.max_problems", 100)

	// Set config name and paths
	v.SetConfigName("ansible-ls")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Enable environment variable support
	v.AutomaticEnv()

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.Checker.Command == "" {
		return fmt.Errorf("checker.command must not be empty")
	}
	// Zero and negative caps fall back to the default, matching the
	// protocol-level settings policy.
	if cfg.Checker.MaxProblems <= 0 {
		cfg.Checker.MaxProblems = 100
	}
	return nil
}
