package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the fleetsight configuration
type Config struct {
	Framework FrameworkConfig `yaml:"framework"`
	Database  DatabaseConfig  `yaml:"database"`
	Socrata   SocrataConfig   `yaml:"socrata"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Detect    DetectConfig    `yaml:"detect"`
	Reporting ReportingConfig `yaml:"reporting"`
}

// FrameworkConfig contains general framework settings
type FrameworkConfig struct {
	Version   string `yaml:"version"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// SocrataConfig contains SODA API client settings
type SocrataConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	PageSize  int           `yaml:"page_size"`
	PagePause time.Duration `yaml:"page_pause"`
	Retries   int           `yaml:"retries"`
}

// IngestConfig contains ingestion pipeline settings
type IngestConfig struct {
	MaxSeeds   int `yaml:"max_seeds"`
	ExpandHops int `yaml:"expand_hops"`
}

// DetectConfig contains detection engine settings
type DetectConfig struct {
	ClusterThreshold float64 `yaml:"cluster_threshold"`
}

// ReportingConfig contains reporting and output settings
type ReportingConfig struct {
	OutputDir string `yaml:"output_dir"`
	KeepLastN int    `yaml:"keep_last_n"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Framework: FrameworkConfig{
			Version:   "v1",
			LogLevel:  "info",
			LogFormat: "text",
		},
		Database: DatabaseConfig{
			URL: "${DATABASE_URL}",
		},
		Socrata: SocrataConfig{
			BaseURL:   "https://data.transportation.gov/resource",
			Timeout:   120 * time.Second,
			PageSize:  50000,
			PagePause: 500 * time.Millisecond,
			Retries:   3,
		},
		Ingest: IngestConfig{
			MaxSeeds:   0,
			ExpandHops: 1,
		},
		Detect: DetectConfig{
			ClusterThreshold: 30.0,
		},
		Reporting: ReportingConfig{
			OutputDir: "./reports",
			KeepLastN: 50,
		},
	}
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// If no path provided, look for config.yaml in current directory
	if path == "" {
		path = "config.yaml"
	}

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// Return default config if file doesn't exist
		cfg.Database.URL = os.Getenv("DATABASE_URL")
		return cfg, nil
	}

	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := []byte(os.ExpandEnv(string(data)))

	// Parse YAML
	if err := yaml.Unmarshal(expandedData, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// DATABASE_URL always wins over the file when set
	if env := os.Getenv("DATABASE_URL"); env != "" {
		cfg.Database.URL = env
	}

	return cfg, nil
}

// Save writes configuration to a YAML file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" || c.Database.URL == "${DATABASE_URL}" {
		return fmt.Errorf("database.url is required (set DATABASE_URL)")
	}

	if c.Socrata.BaseURL == "" {
		return fmt.Errorf("socrata.base_url is required")
	}

	if c.Socrata.PageSize < 1 {
		return fmt.Errorf("socrata.page_size must be at least 1")
	}

	if c.Detect.ClusterThreshold <= 0 {
		return fmt.Errorf("detect.cluster_threshold must be positive")
	}

	if c.Reporting.OutputDir == "" {
		return fmt.Errorf("reporting.output_dir is required")
	}

	return nil
}
