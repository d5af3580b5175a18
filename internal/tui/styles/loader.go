package styles

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/slotsig/internal/errors"
)

// ThemeFile represents a custom theme definition loaded from YAML.
type ThemeFile struct {
	// Name is the theme's display name
	Name string `yaml:"name"`
	// Description provides details about the theme (optional)
	Description string `yaml:"description,omitempty"`
	// Version is the theme file format version (currently "1")
	Version string `yaml:"version"`
	// Colors defines the color palette
	Colors ThemeColors `yaml:"colors"`
}

// ThemeColors contains all color definitions for a theme.
// All colors should be hex format (#RRGGBB or #RGB).
type ThemeColors struct {
	Primary   string `yaml:"primary"`
	Secondary string `yaml:"secondary"`
	Warning   string `yaml:"warning"`
	Error     string `yaml:"error"`
	Muted     string `yaml:"muted"`
	Surface   string `yaml:"surface"`
	Text      string `yaml:"text"`
	Border    string `yaml:"border"`

	// Depth is optional; an empty list colors every depth with Primary.
	Depth []string `yaml:"depth,omitempty"`
}

var hexColorRegex = regexp.MustCompile(`^#([0-9A-Fa-f]{3}|[0-9A-Fa-f]{6})$`)

// LoadThemeFile loads a theme from a YAML file.
func LoadThemeFile(path string) (*ThemeFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("theme file", path)
		}
		return nil, errors.Wrap(err, "reading theme file")
	}

	var theme ThemeFile
	if err := yaml.Unmarshal(data, &theme); err != nil {
		return nil, errors.Wrap(err, "parsing theme file")
	}

	if err := theme.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid theme")
	}

	return &theme, nil
}

// Validate checks that the theme file is well-formed.
func (t *ThemeFile) Validate() error {
	if t.Name == "" {
		return errors.NewValidationError("theme name is required").WithField("name")
	}
	if t.Version != "1" {
		return errors.NewValidationError(fmt.Sprintf("unsupported theme version %q (supported: 1)", t.Version)).
			WithField("version")
	}

	required := []struct{ name, color string }{
		{"primary", t.Colors.Primary},
		{"secondary", t.Colors.Secondary},
		{"warning", t.Colors.Warning},
		{"error", t.Colors.Error},
		{"muted", t.Colors.Muted},
		{"surface", t.Colors.Surface},
		{"text", t.Colors.Text},
		{"border", t.Colors.Border},
	}
	for _, c := range required {
		if c.color == "" {
			return errors.NewValidationError("color is required").WithField("colors." + c.name)
		}
		if !hexColorRegex.MatchString(c.color) {
			return errors.NewValidationError("invalid format (expected #RGB or #RRGGBB)").
				WithField("colors." + c.name).WithValue(c.color)
		}
	}

	for i, color := range t.Colors.Depth {
		if !hexColorRegex.MatchString(color) {
			return errors.NewValidationError("invalid format (expected #RGB or #RRGGBB)").
				WithField(fmt.Sprintf("colors.depth[%d]", i)).WithValue(color)
		}
	}

	return nil
}

// ToPalette converts the theme file to a ColorPalette.
func (t *ThemeFile) ToPalette() *ColorPalette {
	p := &ColorPalette{
		Primary:   lipgloss.Color(t.Colors.Primary),
		Secondary: lipgloss.Color(t.Colors.Secondary),
		Warning:   lipgloss.Color(t.Colors.Warning),
		Error:     lipgloss.Color(t.Colors.Error),
		Muted:     lipgloss.Color(t.Colors.Muted),
		Surface:   lipgloss.Color(t.Colors.Surface),
		Text:      lipgloss.Color(t.Colors.Text),
		Border:    lipgloss.Color(t.Colors.Border),
	}
	for _, c := range t.Colors.Depth {
		p.Depth = append(p.Depth, lipgloss.Color(c))
	}
	return p
}

// ExportTheme renders a built-in theme as a YAML theme file, as a starting
// point for a custom theme.
func ExportTheme(name ThemeName) ([]byte, error) {
	p := BuiltinPalette(name)
	if p == nil {
		return nil, errors.NewNotFoundError("theme", string(name))
	}

	file := &ThemeFile{
		Name:        string(name),
		Description: fmt.Sprintf("Exported from built-in theme '%s'", name),
		Version:     "1",
		Colors: ThemeColors{
			Primary:   string(p.Primary),
			Secondary: string(p.Secondary),
			Warning:   string(p.Warning),
			Error:     string(p.Error),
			Muted:     string(p.Muted),
			Surface:   string(p.Surface),
			Text:      string(p.Text),
			Border:    string(p.Border),
		},
	}
	for _, c := range p.Depth {
		file.Colors.Depth = append(file.Colors.Depth, string(c))
	}

	return yaml.Marshal(file)
}

// ThemesDir returns the directory searched for custom theme files.
func ThemesDir(configDir string) string {
	return filepath.Join(configDir, "themes")
}

// CustomThemes lists the names of theme files in dir, without extension.
// A missing directory yields no themes.
func CustomThemes(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "reading themes directory")
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".yaml") {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".yaml"))
	}
	slices.Sort(names)
	return names, nil
}

// ResolvePalette returns the palette for a theme name. Built-in names win;
// any other name is loaded from <dir>/<name>.yaml.
func ResolvePalette(name, dir string) (*ColorPalette, error) {
	if p := BuiltinPalette(ThemeName(name)); p != nil {
		return p, nil
	}
	if dir == "" || strings.ContainsAny(name, `/\`) {
		return nil, errors.NewNotFoundError("theme", name)
	}

	theme, err := LoadThemeFile(filepath.Join(dir, name+".yaml"))
	if err != nil {
		var notFound *errors.NotFoundError
		if errors.As(err, &notFound) {
			return nil, errors.NewNotFoundError("theme", name)
		}
		return nil, err
	}
	return theme.ToPalette(), nil
}
