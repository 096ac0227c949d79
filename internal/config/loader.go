package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "TRAINWATCH"

// Keys that can be overridden through TRAINWATCH_* environment variables.
var envKeys = []string{
	"global.data_dir",
	"logging.level",
	"logging.format",
	"logging.file",
	"logging.enable_caller",
	"dashboard.theme",
	"dashboard.page_size",
	"dashboard.fixture_file",
	"tour.auto_capture",
	"tour.capture_dir",
	"tour.scenario_file",
	"tour.default_scenario",
	"analysis.endpoint",
	"analysis.api_key",
	"analysis.model",
	"analysis.timeout",
}

// Loader handles configuration loading with Viper.
type Loader struct {
	v          *viper.Viper
	configFile string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// SetConfigFile sets an explicit config file path.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
}

// Load loads configuration with precedence defaults < config file < env vars.
// CLI flags are applied by the caller afterwards.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()
	l.setupViper(cfg)

	if err := l.loadConfigFile(); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	expandPaths(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (l *Loader) setupViper(cfg *Config) {
	v := l.v
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		v.AddConfigPath(filepath.Join(xdgConfig, "trainwatch"))
	}
	if homeDir, _ := os.UserHomeDir(); homeDir != "" {
		v.AddConfigPath(filepath.Join(homeDir, ".config", "trainwatch"))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	l.setDefaults(cfg)

	// Unmarshal only sees env vars for nested keys that were bound explicitly.
	for _, key := range envKeys {
		_ = v.BindEnv(key, envPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
	}
	v.AutomaticEnv()
}

func (l *Loader) setDefaults(cfg *Config) {
	v := l.v

	v.SetDefault("global.data_dir", cfg.Global.DataDir)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.enable_caller", cfg.Logging.EnableCaller)

	v.SetDefault("dashboard.theme", cfg.Dashboard.Theme)
	v.SetDefault("dashboard.page_size", cfg.Dashboard.PageSize)
	v.SetDefault("dashboard.fixture_file", cfg.Dashboard.FixtureFile)

	v.SetDefault("tour.auto_capture", cfg.Tour.AutoCapture)
	v.SetDefault("tour.capture_dir", cfg.Tour.CaptureDir)
	v.SetDefault("tour.scenario_file", cfg.Tour.ScenarioFile)
	v.SetDefault("tour.default_scenario", cfg.Tour.DefaultScenario)

	v.SetDefault("analysis.endpoint", cfg.Analysis.Endpoint)
	v.SetDefault("analysis.api_key", cfg.Analysis.APIKey)
	v.SetDefault("analysis.model", cfg.Analysis.Model)
	v.SetDefault("analysis.timeout", cfg.Analysis.Timeout)
}

// loadConfigFile reads the config file. A missing file is only an error when
// one was given explicitly.
func (l *Loader) loadConfigFile() error {
	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	}
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && l.configFile == "" {
			return nil
		}
		return err
	}
	return nil
}

// ConfigFileUsed returns the config file that was loaded.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Viper returns the underlying Viper instance so commands can bind flags.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// LoadFromFile loads configuration from a specific file.
func LoadFromFile(path string) (*Config, error) {
	loader := NewLoader()
	loader.SetConfigFile(path)
	return loader.Load()
}

func expandTilde(path string) string {
	if path == "" {
		return path
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

func expandPaths(cfg *Config) {
	cfg.Global.DataDir = expandTilde(cfg.Global.DataDir)
	cfg.Logging.File = expandTilde(cfg.Logging.File)
	cfg.Dashboard.FixtureFile = expandTilde(cfg.Dashboard.FixtureFile)
	cfg.Tour.CaptureDir = expandTilde(cfg.Tour.CaptureDir)
	cfg.Tour.ScenarioFile = expandTilde(cfg.Tour.ScenarioFile)
}
