// Package config handles trainwatch configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Themes accepted by dashboard.theme.
var validThemes = map[string]bool{
	"default":       true,
	"high-contrast": true,
}

// Config is the root configuration structure for trainwatch.
type Config struct {
	// Global settings
	Global GlobalConfig `yaml:"global" mapstructure:"global"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// Dashboard settings
	Dashboard DashboardConfig `yaml:"dashboard" mapstructure:"dashboard"`

	// Tour settings
	Tour TourConfig `yaml:"tour" mapstructure:"tour"`

	// Analysis endpoint settings
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
}

// GlobalConfig contains global settings.
type GlobalConfig struct {
	// DataDir is where logs and captures are written (default: ~/.local/share/trainwatch).
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is where the dashboard logs while it owns the terminal.
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// DashboardConfig contains TUI settings.
type DashboardConfig struct {
	// Theme is the color theme (default, high-contrast).
	Theme string `yaml:"theme" mapstructure:"theme"`

	// PageSize is the number of table rows per page.
	PageSize int `yaml:"page_size" mapstructure:"page_size"`

	// FixtureFile optionally replaces the built-in demo fleet.
	FixtureFile string `yaml:"fixture_file" mapstructure:"fixture_file"`
}

// TourConfig contains guided tour settings.
type TourConfig struct {
	// AutoCapture saves a snapshot of every step before moving on.
	AutoCapture bool `yaml:"auto_capture" mapstructure:"auto_capture"`

	// CaptureDir is where snapshots are written (default: <data_dir>/captures).
	CaptureDir string `yaml:"capture_dir" mapstructure:"capture_dir"`

	// ScenarioFile optionally replaces the built-in tours.
	ScenarioFile string `yaml:"scenario_file" mapstructure:"scenario_file"`

	// DefaultScenario is the tour opened from the dashboard.
	DefaultScenario string `yaml:"default_scenario" mapstructure:"default_scenario"`
}

// AnalysisConfig configures the root-cause analysis model endpoint.
type AnalysisConfig struct {
	// Endpoint is an OpenAI-compatible chat completions URL.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`

	// APIKey is sent as a bearer token.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`

	// Model is the model name sent with each request.
	Model string `yaml:"model" mapstructure:"model"`

	// Timeout bounds a single request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// Configured reports whether an endpoint has been set.
func (a AnalysisConfig) Configured() bool {
	return a.Endpoint != ""
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Global: GlobalConfig{
			DataDir: filepath.Join(homeDir, ".local", "share", "trainwatch"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Dashboard: DashboardConfig{
			Theme:    "default",
			PageSize: 8,
		},
		Tour: TourConfig{
			DefaultScenario: "overview",
		},
		Analysis: AnalysisConfig{
			Model:   "gpt-4o-mini",
			Timeout: 30 * time.Second,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Dashboard.PageSize < 1 {
		return fmt.Errorf("dashboard.page_size must be at least 1")
	}
	if !validThemes[c.Dashboard.Theme] {
		return fmt.Errorf("dashboard.theme must be one of default, high-contrast (got %q)", c.Dashboard.Theme)
	}
	if c.Analysis.Timeout < 0 {
		return fmt.Errorf("analysis.timeout must not be negative")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Global.DataDir, c.CaptureDir()} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// CaptureDir returns the snapshot directory.
func (c *Config) CaptureDir() string {
	if c.Tour.CaptureDir != "" {
		return c.Tour.CaptureDir
	}
	return filepath.Join(c.Global.DataDir, "captures")
}

// LogFile returns the dashboard log file path.
func (c *Config) LogFile() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	return filepath.Join(c.Global.DataDir, "trainwatch.log")
}
