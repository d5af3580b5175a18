package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	appconfig "github.com/Iron-Ham/slotsig/internal/config"
	"github.com/Iron-Ham/slotsig/internal/errors"
	"github.com/Iron-Ham/slotsig/internal/tui/styles"
)

// setupConfigDir points the commands at a fresh config directory and
// resets the global viper state.
func setupConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	orig := configDir
	configDir = func() string { return dir }
	t.Cleanup(func() {
		configDir = orig
		viper.Reset()
	})

	viper.Reset()
	appconfig.SetDefaults()
	return dir
}

// capture runs fn with cmd's output redirected to a buffer.
func capture(t *testing.T, cmd *cobra.Command, fn func() error) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	t.Cleanup(func() {
		cmd.SetOut(nil)
		cmd.SetErr(nil)
	})
	err := fn()
	return buf.String(), err
}

const testTheme = `name: "Test Theme"
description: "for tests"
version: "1"
colors:
  primary: "#A78BFA"
  secondary: "#10B981"
  warning: "#F59E0B"
  error: "#F87171"
  muted: "#9CA3AF"
  surface: "#1F2937"
  text: "#F9FAFB"
  border: "#6B7280"
`

func writeTheme(t *testing.T, dir, name, content string) {
	t.Helper()
	themes := styles.ThemesDir(dir)
	if err := os.MkdirAll(themes, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(themes, name+".yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write test theme: %v", err)
	}
}

func TestRunThemeList(t *testing.T) {
	dir := setupConfigDir(t)
	writeTheme(t, dir, "testtheme", testTheme)
	writeTheme(t, dir, "broken", "name: broken\n")

	out, err := capture(t, themeListCmd, func() error {
		return runThemeList(themeListCmd, nil)
	})
	if err != nil {
		t.Fatalf("runThemeList() error = %v", err)
	}

	for _, want := range []string{"dracula", "testtheme (for tests)", "broken (invalid:", styles.ThemesDir(dir)} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunThemeExport(t *testing.T) {
	setupConfigDir(t)
	outputPath := filepath.Join(t.TempDir(), "exported.yaml")

	if _, err := capture(t, themeExportCmd, func() error {
		return runThemeExport(themeExportCmd, []string{"default", outputPath})
	}); err != nil {
		t.Fatalf("runThemeExport() error = %v", err)
	}

	theme, err := styles.LoadThemeFile(outputPath)
	if err != nil {
		t.Fatalf("exported theme does not load: %v", err)
	}
	if theme.Colors.Primary == "" {
		t.Error("exported theme missing primary color")
	}
}

func TestRunThemeExport_Custom(t *testing.T) {
	dir := setupConfigDir(t)
	writeTheme(t, dir, "mine", testTheme)

	out, err := capture(t, themeExportCmd, func() error {
		return runThemeExport(themeExportCmd, []string{"mine"})
	})
	if err != nil {
		t.Fatalf("runThemeExport() error = %v", err)
	}
	if out != testTheme {
		t.Errorf("custom export = %q, want the file contents", out)
	}
}

func TestRunThemeExport_Errors(t *testing.T) {
	dir := setupConfigDir(t)
	writeTheme(t, dir, "broken", "name: broken\n")

	tests := []struct {
		name  string
		theme string
		want  string
	}{
		{name: "unknown", theme: "nonexistent", want: "unknown theme: nonexistent"},
		{name: "invalid file", theme: "broken", want: "failed to load"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := capture(t, themeExportCmd, func() error {
				return runThemeExport(themeExportCmd, []string{tt.theme})
			})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestRunThemeInfo(t *testing.T) {
	setupConfigDir(t)

	out, err := capture(t, themeInfoCmd, func() error {
		return runThemeInfo(themeInfoCmd, []string{"nord"})
	})
	if err != nil {
		t.Fatalf("runThemeInfo() error = %v", err)
	}
	for _, want := range []string{"Theme: nord", "Type: Built-in", "Primary:", "Depth Colors:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunThemeCreate(t *testing.T) {
	dir := setupConfigDir(t)

	if _, err := capture(t, themeCreateCmd, func() error {
		return runThemeCreate(themeCreateCmd, []string{"ocean"})
	}); err != nil {
		t.Fatalf("runThemeCreate() error = %v", err)
	}

	path := filepath.Join(styles.ThemesDir(dir), "ocean.yaml")
	theme, err := styles.LoadThemeFile(path)
	if err != nil {
		t.Fatalf("created theme does not load: %v", err)
	}
	if theme.Name != "ocean" {
		t.Errorf("Name = %q, want ocean", theme.Name)
	}
	if _, err := styles.ResolvePalette("ocean", styles.ThemesDir(dir)); err != nil {
		t.Errorf("ResolvePalette(ocean) error = %v", err)
	}

	_, err = capture(t, themeCreateCmd, func() error {
		return runThemeCreate(themeCreateCmd, []string{"ocean"})
	})
	if err == nil || !strings.Contains(err.Error(), "theme 'ocean' already exists at "+path) {
		t.Errorf("second create error = %v, want already exists", err)
	}
	var exists *errors.AlreadyExistsError
	if !errors.As(err, &exists) || exists.ResourceID != "ocean" {
		t.Errorf("second create error = %#v, want AlreadyExistsError for ocean", err)
	}
}

func TestRunThemeCreate_InvalidNames(t *testing.T) {
	setupConfigDir(t)

	tests := []struct {
		name string
		want string
	}{
		{name: "dracula", want: "built-in name"},
		{name: "a/b", want: "invalid characters"},
		{name: "", want: "cannot be empty"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			err := runThemeCreate(themeCreateCmd, []string{tt.name})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestRunThemePath(t *testing.T) {
	dir := setupConfigDir(t)

	out, err := capture(t, themePathCmd, func() error {
		return runThemePath(themePathCmd, nil)
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, styles.ThemesDir(dir)+"\n") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "does not exist yet") {
		t.Error("missing note for absent directory")
	}
}
