package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fleetsight/fleetsight/pkg/config"
	"github.com/fleetsight/fleetsight/pkg/reporting"
)

// loadConfig loads the configuration from file, auto-generating if needed
func loadConfig() (*config.Config, error) {
	// Determine config file path
	configPath := cfgFile
	if configPath == "" {
		configPath = "config.yaml"
	}

	// Check if config exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Auto-generate default config
		fmt.Printf("Config file not found, creating default configuration at: %s\n", configPath)
		fmt.Println("Edit this file to customize settings, or set DATABASE_URL in the environment.")
		fmt.Println()

		cfg := config.DefaultConfig()
		if err := cfg.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		cfg.Database.URL = os.Getenv("DATABASE_URL")
		return cfg, nil
	}

	// Load existing configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	return cfg, nil
}

// newLogger builds the run logger from config and the --verbose flag.
func newLogger(cfg *config.Config) *reporting.Logger {
	logLevel := reporting.LogLevel(cfg.Framework.LogLevel)
	if verbose {
		logLevel = reporting.LogLevelDebug
	}
	return reporting.NewLogger(reporting.LoggerConfig{
		Level:  logLevel,
		Format: reporting.LogFormat(cfg.Framework.LogFormat),
		Output: os.Stdout,
	})
}

// defaultRunID yields a UTC timestamp run identifier, e.g. 20260825T143000Z.
func defaultRunID() string {
	return time.Now().UTC().Format("20060102T150405Z")
}
