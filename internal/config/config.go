// Package config loads pipeline configuration from environment variables
// with an optional YAML file overlay. Environment values take precedence.
package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete pipeline configuration.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	Processing ProcessingConfig `yaml:"processing" envconfig:"PROCESSING"`
	Tuning     TuningConfig     `yaml:"tuning" envconfig:"TUNING"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths.
type PathsConfig struct {
	DataDir       string `yaml:"data_dir" envconfig:"DATA_DIR"`
	RangeSpecFile string `yaml:"range_spec_file" envconfig:"RANGE_SPEC_FILE"`
	ReportsDir    string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
}

// ProcessingConfig tunes cycle extraction and validation.
type ProcessingConfig struct {
	// PhaseTolerance is the maximum deviation, in phase percent, a sample
	// may have from the canonical 150-point grid position.
	PhaseTolerance float64 `yaml:"phase_tolerance" envconfig:"PHASE_TOLERANCE"`
	// OutlierThreshold is the mean-|z| cutoff above which a cycle is
	// flagged as an outlier.
	OutlierThreshold float64 `yaml:"outlier_threshold" envconfig:"OUTLIER_THRESHOLD"`
	// Workers bounds the number of (subject, task) units validated
	// concurrently. Zero means GOMAXPROCS.
	Workers int `yaml:"workers" envconfig:"WORKERS"`
}

// TuningConfig controls range-bound derivation from reference data.
type TuningConfig struct {
	PercentileLow  float64 `yaml:"percentile_low" envconfig:"PERCENTILE_LOW"`
	PercentileHigh float64 `yaml:"percentile_high" envconfig:"PERCENTILE_HIGH"`
	// MinSamples is the smallest cycle count from which a percentile
	// bound is still derived; below it the checkpoint is left
	// unconstrained and flagged low-confidence.
	MinSamples int `yaml:"min_samples" envconfig:"MIN_SAMPLES"`
}

// Load loads configuration from environment variables and, when configFile
// names an existing file, a YAML overlay underneath them.
func Load(configFile string) (*Config, error) {
	var cfg Config

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			fileCfg, err := loadFromFile(configFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
			cfg = *fileCfg
		}
	}

	// Environment variables override file values.
	if err := envconfig.Process("GAIT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when no file or environment is set.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults fills any field neither the file nor the environment set.
func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "console"
	}
	if cfg.Logging.FilePath == "" {
		cfg.Logging.FilePath = "logs/gaitkit.log"
	}
	if cfg.Paths.DataDir == "" {
		cfg.Paths.DataDir = "data"
	}
	if cfg.Paths.RangeSpecFile == "" {
		cfg.Paths.RangeSpecFile = "ranges.yaml"
	}
	if cfg.Paths.ReportsDir == "" {
		cfg.Paths.ReportsDir = "reports"
	}
	if cfg.Processing.PhaseTolerance == 0 {
		cfg.Processing.PhaseTolerance = 0.01
	}
	if cfg.Processing.OutlierThreshold == 0 {
		cfg.Processing.OutlierThreshold = 2.0
	}
	if cfg.Tuning.PercentileLow == 0 && cfg.Tuning.PercentileHigh == 0 {
		cfg.Tuning.PercentileLow = 5
		cfg.Tuning.PercentileHigh = 95
	}
	if cfg.Tuning.MinSamples == 0 {
		cfg.Tuning.MinSamples = 5
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Processing.PhaseTolerance < 0 {
		return fmt.Errorf("phase_tolerance must be non-negative, got %g", c.Processing.PhaseTolerance)
	}
	if c.Processing.OutlierThreshold < 0 {
		return fmt.Errorf("outlier_threshold must be non-negative, got %g", c.Processing.OutlierThreshold)
	}
	if c.Processing.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Processing.Workers)
	}
	if c.Tuning.PercentileLow < 0 || c.Tuning.PercentileHigh > 100 {
		return fmt.Errorf("percentiles must lie in [0,100], got [%g,%g]",
			c.Tuning.PercentileLow, c.Tuning.PercentileHigh)
	}
	if c.Tuning.PercentileLow > c.Tuning.PercentileHigh {
		return fmt.Errorf("percentile_low %g exceeds percentile_high %g",
			c.Tuning.PercentileLow, c.Tuning.PercentileHigh)
	}
	if c.Tuning.MinSamples < 1 {
		return fmt.Errorf("min_samples must be at least 1, got %d", c.Tuning.MinSamples)
	}
	return nil
}
