package styles

import (
	"slices"

	"github.com/charmbracelet/lipgloss"
)

// ThemeName represents a named color theme.
type ThemeName string

// Available theme names.
const (
	ThemeDefault        ThemeName = "default"         // Purple/green dark theme
	ThemeMonokai        ThemeName = "monokai"         // Classic Monokai editor colors
	ThemeDracula        ThemeName = "dracula"         // Dracula theme colors
	ThemeNord           ThemeName = "nord"            // Nord theme - cool blue-gray
	ThemeSolarizedLight ThemeName = "solarized-light" // Solarized Light variant
	ThemeGruvbox        ThemeName = "gruvbox"         // Gruvbox retro groove
)

// BuiltinThemes returns all built-in theme names.
func BuiltinThemes() []string {
	return []string{
		string(ThemeDefault),
		string(ThemeMonokai),
		string(ThemeDracula),
		string(ThemeNord),
		string(ThemeSolarizedLight),
		string(ThemeGruvbox),
	}
}

// IsBuiltinTheme reports whether name is one of BuiltinThemes.
func IsBuiltinTheme(name string) bool {
	return slices.Contains(BuiltinThemes(), name)
}

// ColorPalette defines the color scheme for a theme.
type ColorPalette struct {
	// Primary accent color (titles, handler names)
	Primary lipgloss.Color
	// Secondary accent color (passing scenarios, help keys)
	Secondary lipgloss.Color
	// Warning color (truncated emissions, recovered panics)
	Warning lipgloss.Color
	// Error color (failing scenarios, mismatched trace lines)
	Error lipgloss.Color
	// Muted color (arguments, descriptions)
	Muted lipgloss.Color
	// Surface color (status bar background)
	Surface lipgloss.Color
	// Text color (primary text)
	Text lipgloss.Color
	// Border color (panel borders)
	Border lipgloss.Color

	// Depth colors the depth marker of a trace entry; nesting deeper than
	// the list wraps around.
	Depth []lipgloss.Color
}

// DefaultPalette returns the default purple/green dark theme palette.
func DefaultPalette() *ColorPalette {
	return &ColorPalette{
		Primary:   lipgloss.Color("#A78BFA"), // Purple (violet-400)
		Secondary: lipgloss.Color("#10B981"), // Green
		Warning:   lipgloss.Color("#F59E0B"), // Amber
		Error:     lipgloss.Color("#F87171"), // Red (red-400)
		Muted:     lipgloss.Color("#9CA3AF"), // Gray
		Surface:   lipgloss.Color("#1F2937"), // Dark surface
		Text:      lipgloss.Color("#F9FAFB"), // Light text
		Border:    lipgloss.Color("#6B7280"), // Gray-500
		Depth: []lipgloss.Color{
			lipgloss.Color("#60A5FA"), // Blue
			lipgloss.Color("#FBBF24"), // Yellow
			lipgloss.Color("#F472B6"), // Pink
			lipgloss.Color("#FB923C"), // Orange
		},
	}
}

// MonokaiPalette returns the Monokai editor palette.
func MonokaiPalette() *ColorPalette {
	return &ColorPalette{
		Primary:   lipgloss.Color("#F92672"), // Monokai pink/magenta
		Secondary: lipgloss.Color("#A6E22E"), // Monokai green
		Warning:   lipgloss.Color("#E6DB74"), // Monokai yellow
		Error:     lipgloss.Color("#F92672"),
		Muted:     lipgloss.Color("#75715E"), // Monokai comment gray
		Surface:   lipgloss.Color("#272822"),
		Text:      lipgloss.Color("#F8F8F2"),
		Border:    lipgloss.Color("#49483E"),
		Depth: []lipgloss.Color{
			lipgloss.Color("#66D9EF"), // Cyan
			lipgloss.Color("#E6DB74"),
			lipgloss.Color("#AE81FF"),
			lipgloss.Color("#FD971F"),
		},
	}
}

// DraculaPalette returns the Dracula palette.
func DraculaPalette() *ColorPalette {
	return &ColorPalette{
		Primary:   lipgloss.Color("#BD93F9"), // Dracula purple
		Secondary: lipgloss.Color("#50FA7B"), // Dracula green
		Warning:   lipgloss.Color("#F1FA8C"), // Dracula yellow
		Error:     lipgloss.Color("#FF5555"), // Dracula red
		Muted:     lipgloss.Color("#6272A4"), // Dracula comment
		Surface:   lipgloss.Color("#282A36"),
		Text:      lipgloss.Color("#F8F8F2"),
		Border:    lipgloss.Color("#44475A"),
		Depth: []lipgloss.Color{
			lipgloss.Color("#8BE9FD"),
			lipgloss.Color("#F1FA8C"),
			lipgloss.Color("#FF79C6"),
			lipgloss.Color("#FFB86C"),
		},
	}
}

// NordPalette returns the Nord palette.
func NordPalette() *ColorPalette {
	return &ColorPalette{
		Primary:   lipgloss.Color("#88C0D0"), // Nord frost (cyan)
		Secondary: lipgloss.Color("#A3BE8C"), // Nord aurora green
		Warning:   lipgloss.Color("#EBCB8B"), // Nord aurora yellow
		Error:     lipgloss.Color("#BF616A"), // Nord aurora red
		Muted:     lipgloss.Color("#4C566A"),
		Surface:   lipgloss.Color("#2E3440"),
		Text:      lipgloss.Color("#ECEFF4"),
		Border:    lipgloss.Color("#3B4252"),
		Depth: []lipgloss.Color{
			lipgloss.Color("#81A1C1"),
			lipgloss.Color("#EBCB8B"),
			lipgloss.Color("#B48EAD"),
			lipgloss.Color("#D08770"),
		},
	}
}

// SolarizedLightPalette returns the light Solarized variant.
func SolarizedLightPalette() *ColorPalette {
	return &ColorPalette{
		Primary:   lipgloss.Color("#268BD2"), // Solarized blue
		Secondary: lipgloss.Color("#859900"), // Solarized green
		Warning:   lipgloss.Color("#B58900"), // Solarized yellow
		Error:     lipgloss.Color("#DC322F"), // Solarized red
		Muted:     lipgloss.Color("#93A1A1"), // Base1
		Surface:   lipgloss.Color("#FDF6E3"), // Base3 background
		Text:      lipgloss.Color("#657B83"), // Base00 text
		Border:    lipgloss.Color("#EEE8D5"), // Base2
		Depth: []lipgloss.Color{
			lipgloss.Color("#268BD2"),
			lipgloss.Color("#B58900"),
			lipgloss.Color("#D33682"),
			lipgloss.Color("#CB4B16"),
		},
	}
}

// GruvboxPalette returns the Gruvbox palette.
func GruvboxPalette() *ColorPalette {
	return &ColorPalette{
		Primary:   lipgloss.Color("#83A598"), // Gruvbox aqua
		Secondary: lipgloss.Color("#B8BB26"), // Gruvbox green
		Warning:   lipgloss.Color("#FABD2F"), // Gruvbox yellow
		Error:     lipgloss.Color("#FB4934"), // Gruvbox red
		Muted:     lipgloss.Color("#928374"),
		Surface:   lipgloss.Color("#282828"),
		Text:      lipgloss.Color("#EBDBB2"),
		Border:    lipgloss.Color("#3C3836"),
		Depth: []lipgloss.Color{
			lipgloss.Color("#83A598"),
			lipgloss.Color("#FABD2F"),
			lipgloss.Color("#D3869B"),
			lipgloss.Color("#FE8019"),
		},
	}
}

// BuiltinPalette returns the palette for a built-in theme name, or nil
// when the name is unknown.
func BuiltinPalette(name ThemeName) *ColorPalette {
	switch name {
	case ThemeDefault:
		return DefaultPalette()
	case ThemeMonokai:
		return MonokaiPalette()
	case ThemeDracula:
		return DraculaPalette()
	case ThemeNord:
		return NordPalette()
	case ThemeSolarizedLight:
		return SolarizedLightPalette()
	case ThemeGruvbox:
		return GruvboxPalette()
	default:
		return nil
	}
}
