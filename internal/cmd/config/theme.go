package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/slotsig/internal/errors"
	"github.com/Iron-Ham/slotsig/internal/tui/styles"
)

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Manage color themes",
	Long: `Manage color themes for trace output.

sigtrace supports both built-in themes and custom user-defined themes.
Custom themes are stored in ~/.config/sigtrace/themes/ as YAML files.

Use 'theme list' to see all available themes.
Use 'theme export' to create a template for custom themes.
Use 'theme info' to view details about a specific theme.`,
}

var themeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available themes",
	Args:  cobra.NoArgs,
	RunE:  runThemeList,
}

var themeExportCmd = &cobra.Command{
	Use:   "export <theme-name> [output-file]",
	Short: "Export a theme to YAML",
	Long: `Export a theme to YAML format for customization or sharing.

If no output file is specified, the YAML is printed to stdout.

Examples:
  sigtrace config theme export default                 # Print default theme to stdout
  sigtrace config theme export dracula my-theme.yaml   # Save dracula theme to file`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runThemeExport,
}

var themeInfoCmd = &cobra.Command{
	Use:   "info <theme-name>",
	Short: "Show information about a theme",
	Args:  cobra.ExactArgs(1),
	RunE:  runThemeInfo,
}

var themePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the custom themes directory path",
	Args:  cobra.NoArgs,
	RunE:  runThemePath,
}

var themeCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new custom theme from the default template",
	Long: `Create a new custom theme file in your themes directory.

Example:
  sigtrace config theme create ocean
  # Creates ~/.config/sigtrace/themes/ocean.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runThemeCreate,
}

func init() {
	themeCmd.AddCommand(themeListCmd)
	themeCmd.AddCommand(themeExportCmd)
	themeCmd.AddCommand(themeInfoCmd)
	themeCmd.AddCommand(themePathCmd)
	themeCmd.AddCommand(themeCreateCmd)
	configCmd.AddCommand(themeCmd)
}

func runThemeList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	dir := themesDir()

	fmt.Fprintln(out, "Built-in themes:")
	for _, name := range styles.BuiltinThemes() {
		fmt.Fprintf(out, "  - %s\n", name)
	}

	custom, err := styles.CustomThemes(dir)
	if err != nil {
		return err
	}
	if len(custom) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Custom themes:")
		for _, name := range custom {
			theme, err := styles.LoadThemeFile(filepath.Join(dir, name+".yaml"))
			switch {
			case err != nil:
				fmt.Fprintf(out, "  - %s (invalid: %v)\n", name, err)
			case theme.Description != "":
				fmt.Fprintf(out, "  - %s (%s)\n", name, theme.Description)
			default:
				fmt.Fprintf(out, "  - %s\n", name)
			}
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Custom themes directory: %s\n", dir)
	return nil
}

// themeSource returns the YAML for a built-in or custom theme.
func themeSource(name string) ([]byte, error) {
	if styles.IsBuiltinTheme(name) {
		return styles.ExportTheme(styles.ThemeName(name))
	}
	if _, err := styles.ResolvePalette(name, themesDir()); err != nil {
		return nil, unknownThemeError(name, err)
	}
	return os.ReadFile(filepath.Join(themesDir(), name+".yaml"))
}

// unknownThemeError explains a failed theme lookup: missing themes get a
// hint, broken theme files keep their load error.
func unknownThemeError(name string, err error) error {
	var notFound *errors.NotFoundError
	if errors.As(err, &notFound) {
		return fmt.Errorf("unknown theme: %s\n\nRun 'sigtrace config theme list' to see available themes.\nCustom themes should be placed in: %s", name, themesDir())
	}
	return fmt.Errorf("theme '%s' exists but failed to load: %w\n\nFix the errors in your theme file and try again", name, err)
}

func runThemeExport(cmd *cobra.Command, args []string) error {
	data, err := themeSource(args[0])
	if err != nil {
		return err
	}

	if len(args) > 1 {
		outputPath := args[1]
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			return fmt.Errorf("writing to %s: %w", outputPath, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Theme exported to: %s\n", outputPath)
		return nil
	}

	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runThemeInfo(cmd *cobra.Command, args []string) error {
	name := args[0]
	palette, err := styles.ResolvePalette(name, themesDir())
	if err != nil {
		return unknownThemeError(name, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Theme: %s\n\n", name)
	if styles.IsBuiltinTheme(name) {
		fmt.Fprintln(out, "Type: Built-in")
	} else {
		fmt.Fprintln(out, "Type: Custom")
		if theme, err := styles.LoadThemeFile(filepath.Join(themesDir(), name+".yaml")); err == nil && theme.Description != "" {
			fmt.Fprintf(out, "Description: %s\n", theme.Description)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Base Colors:")
	fmt.Fprintf(out, "  Primary:   %s\n", palette.Primary)
	fmt.Fprintf(out, "  Secondary: %s\n", palette.Secondary)
	fmt.Fprintf(out, "  Warning:   %s\n", palette.Warning)
	fmt.Fprintf(out, "  Error:     %s\n", palette.Error)
	fmt.Fprintf(out, "  Muted:     %s\n", palette.Muted)
	fmt.Fprintf(out, "  Surface:   %s\n", palette.Surface)
	fmt.Fprintf(out, "  Text:      %s\n", palette.Text)
	fmt.Fprintf(out, "  Border:    %s\n", palette.Border)

	if len(palette.Depth) > 0 {
		depths := make([]string, len(palette.Depth))
		for i, c := range palette.Depth {
			depths[i] = string(c)
		}
		fmt.Fprintf(out, "\nDepth Colors: %s\n", strings.Join(depths, " "))
	}
	return nil
}

func runThemePath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	dir := themesDir()
	fmt.Fprintln(out, dir)

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Note: This directory does not exist yet.")
		fmt.Fprintln(out, "It will be created when you add your first custom theme.")
	}
	return nil
}

func runThemeCreate(cmd *cobra.Command, args []string) error {
	name := args[0]

	if name == "" {
		return fmt.Errorf("theme name cannot be empty")
	}
	if strings.ContainsAny(name, "/\\:*?\"<>|") {
		return fmt.Errorf("theme name contains invalid characters")
	}
	if styles.IsBuiltinTheme(name) {
		return fmt.Errorf("cannot create custom theme with built-in name '%s'", name)
	}

	dir := themesDir()
	themePath := filepath.Join(dir, name+".yaml")
	if _, err := os.Stat(themePath); err == nil {
		return fmt.Errorf("%w at %s", errors.NewAlreadyExistsError("theme", name), themePath)
	}

	data, err := styles.ExportTheme(styles.ThemeDefault)
	if err != nil {
		return err
	}
	var theme styles.ThemeFile
	if err := yaml.Unmarshal(data, &theme); err != nil {
		return err
	}
	theme.Name = name
	theme.Description = "A custom sigtrace theme"
	if data, err = yaml.Marshal(&theme); err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating themes directory: %w", err)
	}
	if err := os.WriteFile(themePath, data, 0o644); err != nil {
		return fmt.Errorf("creating theme: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created new theme: %s\n\n", themePath)
	fmt.Fprintln(out, "Edit this file to customize your theme colors.")
	fmt.Fprintf(out, "To use your new theme, run:\n")
	fmt.Fprintf(out, "  sigtrace config set trace.theme %s\n", name)
	return nil
}
