// Package config provides configuration management for the scraper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrMissingReferenceBase     = errors.New("sources.reference_base is required")
	ErrMissingResultsBase       = errors.New("sources.results_base is required")
	ErrInvalidMaxAttempts       = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("retry.timeout_sec must be at least 1")
	ErrInvalidPairLimit         = errors.New("test_mode.pair_limit must be at least 1")
	ErrNoOutputFormats          = errors.New("output.formats must name at least one format")
	ErrUnknownOutputFormat      = errors.New("output.formats entries must be one of: csv, sqlite, postgres")
	ErrMissingOutputDir         = errors.New("output.dir is required")
	ErrMissingPostgresDSN       = errors.New("output.postgres_dsn is required for the postgres format")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
)

// Config represents the complete scraper configuration.
type Config struct {
	Scraper ScraperConfig `yaml:"scraper"`
}

// ScraperConfig contains scraper-specific settings.
type ScraperConfig struct {
	Sources  SourcesConfig  `yaml:"sources"`
	Retry    RetryPolicy    `yaml:"retry"`
	TestMode TestModeConfig `yaml:"test_mode"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SourcesConfig names the upstream document roots.
type SourcesConfig struct {
	// ReferenceBase serves the five global reference documents and the
	// per-pair polling-station documents.
	ReferenceBase string `yaml:"reference_base"`
	// ResultsBase serves the per-pair results documents, scoped by
	// administrative area.
	ResultsBase string `yaml:"results_base"`
}

// RetryPolicy defines retry behavior for document fetches.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// TestModeConfig truncates the run for fast iteration.
type TestModeConfig struct {
	Enabled   bool `yaml:"enabled"`
	PairLimit int  `yaml:"pair_limit"`
}

// OutputConfig defines where and how the two output tables are written.
type OutputConfig struct {
	Dir             string   `yaml:"dir"`
	Formats         []string `yaml:"formats"`
	SQLiteFile      string   `yaml:"sqlite_path"`
	PostgresDSN     string   `yaml:"postgres_dsn"`
	SampleDocuments bool     `yaml:"sample_documents"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level"`
	ShowProgress bool   `yaml:"show_progress"`
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	return &Config{
		Scraper: ScraperConfig{
			Sources: SourcesConfig{
				ReferenceBase: "https://vtr.valasztas.hu/ogy2022/data/04022333/ver",
				ResultsBase:   "https://vtr.valasztas.hu/ogy2022/data/04161400/szavossz",
			},
			Retry: RetryPolicy{
				MaxAttempts:       3,
				InitialDelayMs:    500,
				MaxDelayMs:        30000,
				BackoffMultiplier: 2.0,
				TimeoutSec:        30,
			},
			TestMode: TestModeConfig{
				Enabled:   false,
				PairLimit: 50,
			},
			Output: OutputConfig{
				Dir:             "./output",
				Formats:         []string{"csv"},
				SampleDocuments: true,
			},
			Logging: LoggingConfig{
				Level:        "info",
				ShowProgress: true,
			},
		},
	}
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	s := &c.Scraper

	if s.Sources.ReferenceBase == "" {
		return ErrMissingReferenceBase
	}

	if s.Sources.ResultsBase == "" {
		return ErrMissingResultsBase
	}

	if s.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if s.Retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if s.Retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if s.Retry.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if s.TestMode.Enabled && s.TestMode.PairLimit < 1 {
		return ErrInvalidPairLimit
	}

	if len(s.Output.Formats) == 0 {
		return ErrNoOutputFormats
	}

	for _, format := range s.Output.Formats {
		switch format {
		case "csv", "sqlite", "postgres":
		default:
			return fmt.Errorf("%w: %q", ErrUnknownOutputFormat, format)
		}
	}

	if s.Output.Dir == "" {
		return ErrMissingOutputDir
	}

	if s.HasFormat("postgres") && s.Output.PostgresDSN == "" {
		return ErrMissingPostgresDSN
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[s.Logging.Level] {
		return ErrInvalidLogLevel
	}

	return nil
}

// HasFormat reports whether the named output format is enabled.
func (s *ScraperConfig) HasFormat(name string) bool {
	for _, format := range s.Output.Formats {
		if format == name {
			return true
		}
	}

	return false
}

// SQLitePath returns the configured SQLite path, or a default under the
// output directory.
func (o *OutputConfig) SQLitePath() string {
	if o.SQLiteFile != "" {
		return o.SQLiteFile
	}

	return filepath.Join(o.Dir, "polling_stations.sqlite")
}

// GetRetryDelay calculates exponential backoff delay for an attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	if int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the per-request timeout duration.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{ReferenceBase: %s, MaxAttempts: %d, Formats: %v}",
		c.Scraper.Sources.ReferenceBase,
		c.Scraper.Retry.MaxAttempts,
		c.Scraper.Output.Formats,
	)
}
