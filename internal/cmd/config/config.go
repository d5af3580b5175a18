// Package config provides CLI commands for managing sigtrace configuration.
package config

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	appconfig "github.com/Iron-Ham/slotsig/internal/config"
	"github.com/Iron-Ham/slotsig/internal/errors"
	tuiconfig "github.com/Iron-Ham/slotsig/internal/tui/config"
	"github.com/Iron-Ham/slotsig/internal/tui/styles"
)

// Wrapper functions for exec to allow testing
var execLookPath = exec.LookPath
var execCommand = exec.Command

// configDir locates the user config directory; tests point it elsewhere.
var configDir = appconfig.ConfigDir

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify sigtrace configuration",
	Long: `View or modify sigtrace configuration.

Without arguments, opens an interactive configuration editor.
Use 'config show' to display configuration non-interactively.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigInteractive,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the config file.

Keys use dot notation, e.g.:
  sigtrace config set scenario.max_depth 4
  sigtrace config set trace.theme dracula
  sigtrace config set logging.level debug

Valid keys:
  logging.enabled      - Write the debug log (true/false)
  logging.level        - Minimum level: debug, info, warn, error
  logging.dir          - Log directory (default: <config dir>/logs)
  logging.max_size_mb  - Rotate the log at this size
  logging.max_backups  - Rotated logs to keep
  logging.compress     - Gzip rotated logs (true/false)
  trace.color          - Styled output: auto, always, never
  trace.interactive    - Open results in a pager (true/false)
  trace.show_depth     - Print invocation depth (true/false)
  trace.theme          - Built-in or custom theme name
  scenario.max_depth   - Deepest nested emission
  scenario.dir         - Directory searched for scenarios by name`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a commented config file at ~/.config/sigtrace/config.yaml with all available options.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a config file for errors",
	Long: `Check a config file for errors without applying it.

Without arguments, checks the active config file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigValidate,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in your editor",
	Long: `Open the config file in your preferred editor.

Uses $EDITOR environment variable, or falls back to common editors (vim, nano, vi).
If no config file exists, creates one with default values first.`,
	Args: cobra.NoArgs,
	RunE: runConfigEdit,
}

var configResetCmd = &cobra.Command{
	Use:   "reset [key]",
	Short: "Reset configuration to defaults",
	Long: `Reset configuration values to their defaults.

Without arguments, resets all configuration to defaults.
With a key argument, resets only that specific key.

Examples:
  sigtrace config reset                     # Reset all to defaults
  sigtrace config reset scenario.max_depth  # Reset only scenario.max_depth`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigReset,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configResetCmd)
}

// Register adds all config-related commands to the given parent command.
func Register(parent *cobra.Command) {
	parent.AddCommand(configCmd)
}

// configFile is the file that config changes are written to: the active
// config file if one was loaded, otherwise the default location.
func configFile() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return filepath.Join(configDir(), "config.yaml")
}

func themesDir() string {
	return styles.ThemesDir(configDir())
}

// availableThemes lists built-in themes followed by custom ones.
func availableThemes() []string {
	names := styles.BuiltinThemes()
	custom, err := styles.CustomThemes(themesDir())
	if err != nil {
		return names
	}
	for _, name := range custom {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	return names
}

func runConfigInteractive(cmd *cobra.Command, args []string) error {
	cfg := appconfig.Get()
	palette, err := styles.ResolvePalette(cfg.Trace.Theme, themesDir())
	if err != nil {
		palette = styles.DefaultPalette()
	}
	return tuiconfig.Run(viper.GetViper(), configFile(), availableThemes(), styles.New(palette))
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	cfg := appconfig.Get()

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintln(out)
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintln(out, "Config file: (none - using defaults)")
	}
	fmt.Fprintln(out)

	writeSettings(out, cfg.Settings())
	return nil
}

// writeSettings prints settings grouped by section, in key order.
func writeSettings(out io.Writer, settings map[string]any) {
	keys := sortedKeys(settings)
	section := ""
	for _, key := range keys {
		head, field, _ := strings.Cut(key, ".")
		if head != section {
			section = head
			fmt.Fprintf(out, "%s:\n", section)
		}
		fmt.Fprintf(out, "  %s: %v\n", field, settings[key])
	}
}

func sortedKeys(settings map[string]any) []string {
	keys := make([]string, 0, len(settings))
	for key := range settings {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// parseValue converts value to the type of the default for key.
func parseValue(key, value string) (any, error) {
	defaults := appconfig.Default().Settings()
	def, ok := defaults[key]
	if !ok {
		return nil, fmt.Errorf("unknown configuration key: %s\nRun 'sigtrace config set --help' to see valid keys", key)
	}

	switch def.(type) {
	case bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		return b, nil
	case int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected integer", key)
		}
		return n, nil
	default:
		return value, nil
	}
}

// applySetting sets key in viper and validates the result, restoring the
// previous value when validation fails.
func applySetting(key string, value any) error {
	previous := viper.Get(key)
	viper.Set(key, value)

	cfg, err := appconfig.Load()
	if err == nil && key == "trace.theme" {
		_, err = styles.ResolvePalette(cfg.Trace.Theme, themesDir())
		if err != nil {
			err = fmt.Errorf("invalid theme: %s\nValid options: %s", value, strings.Join(availableThemes(), ", "))
		}
	}
	if err != nil {
		viper.Set(key, previous)
		return err
	}
	return nil
}

// saveConfig writes the viper state to the config file.
func saveConfig() (string, error) {
	path := configFile()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := viper.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, raw := args[0], args[1]

	value, err := parseValue(key, raw)
	if err != nil {
		return err
	}
	if err := applySetting(key, value); err != nil {
		return err
	}

	path, err := saveConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Set %s = %v\n", key, value)
	fmt.Fprintf(out, "Config saved to %s\n", path)
	return nil
}

const configTemplate = `# sigtrace configuration

# Debug logging
logging:
  # Write JSON debug logs (view them with 'sigtrace logs')
  enabled: true
  # Minimum level: debug, info, warn, error
  level: info
  # Log directory; empty means <config dir>/logs
  dir: ""
  # Rotate the log file at this size
  max_size_mb: 10
  # Rotated files to keep
  max_backups: 3
  # Gzip rotated files
  compress: false

# Trace output
trace:
  # Styled output: auto (terminals only), always, never
  color: auto
  # Open results in a scrollable pager
  interactive: false
  # Print the invocation depth of each call
  show_depth: true
  # Color theme: default, monokai, dracula, nord, solarized-light, gruvbox,
  # or the name of a file in <config dir>/themes
  theme: default

# Scenario runner
scenario:
  # Deepest nested emission started by an emit action
  max_depth: 8
  # Extra directory searched for scenarios by name
  dir: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := filepath.Join(configDir(), "config.yaml")

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w\nUse 'sigtrace config set' to modify values", errors.NewAlreadyExistsError("config file", path))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created config file at %s\n", path)
	fmt.Fprintln(out, "Edit this file to customize sigtrace's behavior.")
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", filepath.Join(configDir(), "config.yaml"))
	}

	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", filepath.Join(configDir(), "config.yaml"))
	fmt.Fprintln(out, "  2. ./config.yaml (current directory)")
	fmt.Fprintf(out, "\nEnvironment variables: %s_* (e.g., %s_SCENARIO_MAX_DEPTH)\n", appconfig.EnvPrefix, appconfig.EnvPrefix)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := viper.ConfigFileUsed()
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return fmt.Errorf("no config file in use\nPass a file to validate, or run 'sigtrace config init'")
	}

	cfg, err := appconfig.LoadFile(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if _, err := styles.ResolvePalette(cfg.Trace.Theme, themesDir()); err != nil {
		return fmt.Errorf("%s: trace.theme: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", path)
	return nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	path := configFile()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintln(cmd.OutOrStdout(), "Config file doesn't exist, creating with defaults...")
		if err := runConfigInit(cmd, args); err != nil {
			return err
		}
		path = filepath.Join(configDir(), "config.yaml")
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		for _, e := range []string{"vim", "nano", "vi"} {
			if _, err := execLookPath(e); err == nil {
				editor = e
				break
			}
		}
	}
	if editor == "" {
		return fmt.Errorf("no editor found. Set $EDITOR environment variable")
	}

	editorCmd := execCommand(editor, path)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr
	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor exited with error: %w", err)
	}

	// Report problems now rather than on the next run.
	if _, err := appconfig.LoadFile(path); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s has errors: %v\n", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Config file saved: %s\n", path)
	return nil
}

func runConfigReset(cmd *cobra.Command, args []string) error {
	defaults := appconfig.Default().Settings()
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		for key, value := range defaults {
			viper.Set(key, value)
		}
		fmt.Fprintln(out, "Reset all configuration to defaults.")
	} else {
		key := args[0]
		value, ok := defaults[key]
		if !ok {
			return fmt.Errorf("unknown configuration key: %s\nRun 'sigtrace config set --help' to see valid keys", key)
		}
		viper.Set(key, value)
		fmt.Fprintf(out, "Reset %s to default: %v\n", key, value)
	}

	path, err := saveConfig()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Config saved to %s\n", path)
	return nil
}
