package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// AppName names the config directory and the environment prefix.
const AppName = "sigtrace"

// EnvPrefix is prepended to environment overrides, e.g. SIGTRACE_LOGGING_LEVEL.
const EnvPrefix = "SIGTRACE"

// Config represents the complete sigtrace configuration
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Trace    TraceConfig    `mapstructure:"trace"`
	Scenario ScenarioConfig `mapstructure:"scenario"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether logging is active (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the minimum log level to record (default: "info")
	// Valid values: "debug", "info", "warn", "error"
	Level string `mapstructure:"level"`
	// Dir is the directory log files are written to.
	// Empty means <config dir>/logs. Supports ~ expansion.
	Dir string `mapstructure:"dir"`
	// MaxSizeMB is the maximum size of a log file before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
	// Compress gzips rotated files (default: false)
	Compress bool `mapstructure:"compress"`
}

// TraceConfig controls how scenario traces are displayed
type TraceConfig struct {
	// Color selects styled output: "auto" (only on a terminal), "always", "never"
	Color string `mapstructure:"color"`
	// Interactive opens traces in a scrollable pager (default: false)
	Interactive bool `mapstructure:"interactive"`
	// ShowDepth prefixes each trace entry with its invocation depth (default: true)
	ShowDepth bool `mapstructure:"show_depth"`
	// Theme is the color theme for styled traces (default: "default")
	Theme string `mapstructure:"theme"`
}

// ScenarioConfig controls the scenario runner
type ScenarioConfig struct {
	// MaxDepth bounds nested emissions started by scripted emit actions (default: 8)
	MaxDepth int `mapstructure:"max_depth"`
	// Dir is an extra directory searched for scenario files by name.
	// Supports ~ expansion.
	Dir string `mapstructure:"dir"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			Dir:        "", // Empty means use default: <config dir>/logs
			MaxSizeMB:  10,
			MaxBackups: 3,
			Compress:   false,
		},
		Trace: TraceConfig{
			Color:       "auto",
			Interactive: false,
			ShowDepth:   true,
			Theme:       "default",
		},
		Scenario: ScenarioConfig{
			MaxDepth: 8,
			Dir:      "",
		},
	}
}

// ResolveDir returns the absolute log directory.
func (l *LoggingConfig) ResolveDir() string {
	if l.Dir == "" {
		return filepath.Join(ConfigDir(), "logs")
	}
	return expandPath(l.Dir)
}

// ResolveDir returns the absolute scenario directory, or "" if none is set.
func (s *ScenarioConfig) ResolveDir() string {
	if s.Dir == "" {
		return ""
	}
	return expandPath(s.Dir)
}

// expandPath expands a leading ~ and makes path absolute.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path
}

// SetDefaults registers default values with the global viper instance.
func SetDefaults() {
	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("logging.enabled", defaults.Logging.Enabled)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.dir", defaults.Logging.Dir)
	v.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	v.SetDefault("logging.compress", defaults.Logging.Compress)

	v.SetDefault("trace.color", defaults.Trace.Color)
	v.SetDefault("trace.interactive", defaults.Trace.Interactive)
	v.SetDefault("trace.show_depth", defaults.Trace.ShowDepth)
	v.SetDefault("trace.theme", defaults.Trace.Theme)

	v.SetDefault("scenario.max_depth", defaults.Scenario.MaxDepth)
	v.SetDefault("scenario.dir", defaults.Scenario.Dir)
}

// Load unmarshals the global viper state into a validated Config.
func Load() (*Config, error) {
	return load(viper.GetViper())
}

// LoadFile reads and validates a single config file, with defaults and
// environment overrides applied, independently of the global viper state.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration, falling back to defaults if the
// loaded values are invalid.
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Settings flattens the Config into dotted keys, matching the config file
// layout.
func (c *Config) Settings() map[string]any {
	return map[string]any{
		"logging.enabled":     c.Logging.Enabled,
		"logging.level":       c.Logging.Level,
		"logging.dir":         c.Logging.Dir,
		"logging.max_size_mb": c.Logging.MaxSizeMB,
		"logging.max_backups": c.Logging.MaxBackups,
		"logging.compress":    c.Logging.Compress,
		"trace.color":         c.Trace.Color,
		"trace.interactive":   c.Trace.Interactive,
		"trace.show_depth":    c.Trace.ShowDepth,
		"trace.theme":         c.Trace.Theme,
		"scenario.max_depth":  c.Scenario.MaxDepth,
		"scenario.dir":        c.Scenario.Dir,
	}
}

// Diff returns the sorted dotted keys whose values differ between old and
// updated.
func Diff(old, updated *Config) []string {
	before, after := old.Settings(), updated.Settings()

	var changed []string
	for key, value := range after {
		if before[key] != value {
			changed = append(changed, key)
		}
	}
	slices.Sort(changed)
	return changed
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	// Fall back to ~/.config/sigtrace
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ValidColorModes returns the list of valid trace.color values
func ValidColorModes() []string {
	return []string{"auto", "always", "never"}
}
