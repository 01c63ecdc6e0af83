package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"trendscan/pkg/trend"
)

// Config represents the application configuration
type Config struct {
	Detector  DetectorConfig  `yaml:"detector"`
	Breakdown BreakdownConfig `yaml:"breakdown"`
	Scanner   ScannerConfig   `yaml:"scanner"`
	Input     InputConfig     `yaml:"input"`
}

// DetectorConfig holds standalone peak/valley detection settings
type DetectorConfig struct {
	Period    int `yaml:"period"`    // look-around window half-width
	Closeness int `yaml:"closeness"` // minimum index distance between extrema
}

// BreakdownConfig holds trend segmentation settings
type BreakdownConfig struct {
	MinSegmentLength  int     `yaml:"min_segment_length"`
	QualityFloor      float64 `yaml:"quality_floor"` // minimum r-squared in [0,1]
	MaxOutliers       int     `yaml:"max_outliers"`
	ExtremumPeriod    int     `yaml:"extremum_period"`
	ExtremumCloseness int     `yaml:"extremum_closeness"`
}

// ScannerConfig holds batch scan settings
type ScannerConfig struct {
	Workers  int           `yaml:"workers"`
	Timeout  time.Duration `yaml:"timeout"`
	Throttle float64       `yaml:"throttle"` // analyses per second, 0 = unlimited
}

// InputConfig holds CSV input settings
type InputConfig struct {
	Column    string `yaml:"column"`    // header name or 0-based index of the price column
	Delimiter string `yaml:"delimiter"` // single character, default comma
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	b := trend.DefaultBreakdownConfig()
	return &Config{
		Detector: DetectorConfig{
			Period:    5,
			Closeness: 2,
		},
		Breakdown: BreakdownConfig{
			MinSegmentLength:  b.MinSegmentLength,
			QualityFloor:      b.QualityFloor,
			MaxOutliers:       b.MaxOutliers,
			ExtremumPeriod:    b.ExtremumPeriod,
			ExtremumCloseness: b.ExtremumCloseness,
		},
		Scanner: ScannerConfig{
			Workers: 10,
			Timeout: 30 * time.Second,
		},
		Input: InputConfig{
			Column:    "close",
			Delimiter: ",",
		},
	}
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if file doesn't exist
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Detector.Period < 1 {
		return fmt.Errorf("detector period must be at least 1")
	}
	if c.Detector.Closeness < 0 {
		return fmt.Errorf("detector closeness cannot be negative")
	}
	if c.Breakdown.MinSegmentLength < 1 {
		return fmt.Errorf("min_segment_length must be at least 1")
	}
	if c.Breakdown.QualityFloor < 0 || c.Breakdown.QualityFloor > 1 {
		return fmt.Errorf("quality_floor must be between 0 and 1")
	}
	if c.Breakdown.MaxOutliers < 0 {
		return fmt.Errorf("max_outliers cannot be negative")
	}
	if c.Breakdown.ExtremumPeriod < 1 {
		return fmt.Errorf("extremum_period must be at least 1")
	}
	if c.Breakdown.ExtremumCloseness < 0 {
		return fmt.Errorf("extremum_closeness cannot be negative")
	}
	if c.Scanner.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.Scanner.Throttle < 0 {
		return fmt.Errorf("throttle cannot be negative")
	}
	if len([]rune(c.Input.Delimiter)) > 1 {
		return fmt.Errorf("delimiter must be a single character")
	}
	return nil
}

// TrendConfig maps the breakdown section onto the engine's config type.
func (c *Config) TrendConfig() trend.BreakdownConfig {
	return trend.BreakdownConfig{
		MinSegmentLength:  c.Breakdown.MinSegmentLength,
		QualityFloor:      c.Breakdown.QualityFloor,
		MaxOutliers:       c.Breakdown.MaxOutliers,
		ExtremumPeriod:    c.Breakdown.ExtremumPeriod,
		ExtremumCloseness: c.Breakdown.ExtremumCloseness,
	}
}
