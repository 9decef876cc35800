// Package config loads and validates the arborstats configuration file.
// Everything has a default matching the lab's spreadsheet conventions, so a
// config file is only needed to override them.
package config

import (
	"time"
)

// Config is the root configuration for arborstats.
type Config struct {
	Source  SourceConfig  `mapstructure:"source" yaml:"source"`
	Flatone FlatoneConfig `mapstructure:"flatone" yaml:"flatone" validate:"required"`
	Run     RunConfig     `mapstructure:"run" yaml:"run" validate:"required"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// SourceConfig holds the column schema defaults applied when reading a
// spreadsheet or CSV source.
type SourceConfig struct {
	// SheetIDColumn is the segment ID column when reading a Google Sheet.
	SheetIDColumn string `mapstructure:"sheet_id_column" yaml:"sheet_id_column"`
	// CSVIDColumn is the segment ID column when reading a local CSV.
	CSVIDColumn string `mapstructure:"csv_id_column" yaml:"csv_id_column"`
	// StatusColumn and StatusAllow filter rows by completion status.
	StatusColumn string   `mapstructure:"status_column" yaml:"status_column"`
	StatusAllow  []string `mapstructure:"status_allow" yaml:"status_allow"`
	// ReviewColumn and ReviewAllow exclude cells flagged for review.
	ReviewColumn string   `mapstructure:"review_column" yaml:"review_column"`
	ReviewAllow  []string `mapstructure:"review_allow" yaml:"review_allow"`
}

// FlatoneConfig controls how the external flattening tool is invoked.
type FlatoneConfig struct {
	// Binary is the flatone executable name or path.
	Binary string `mapstructure:"binary" yaml:"binary" validate:"required"`
	// ExtraArgs are appended to every invocation.
	ExtraArgs []string `mapstructure:"extra_args" yaml:"extra_args"`
	// Timeout bounds one invocation; zero disables the bound.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"min=0"`
}

// RunConfig holds batch execution defaults, overridable per run via flags.
type RunConfig struct {
	// Jobs is the default worker count.
	Jobs int `mapstructure:"jobs" yaml:"jobs" validate:"min=1,max=256"`
	// OutputDir is the default output root; empty means the flag is required.
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
}

// MetricsConfig contains Prometheus exposition configuration.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Addr is the listen address for the metrics endpoint, e.g. ":9090".
	Addr string `mapstructure:"addr" yaml:"addr" validate:"required_if=Enabled true"`
}
