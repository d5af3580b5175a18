package styles

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Color modes accepted by UseColor, matching the trace.color setting.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// UseColor reports whether output to w should be styled. In auto mode
// only terminals are styled, and NO_COLOR turns styling off.
func UseColor(mode string, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			return false
		}
		return IsTerminal(w)
	}
}

// ForOutput returns the Styles for writing to w: Plain when color is off,
// otherwise the named theme rendered for w. Custom themes are looked up
// in themesDir.
func ForOutput(w io.Writer, mode, theme, themesDir string) (*Styles, error) {
	if !UseColor(mode, w) {
		return Plain(), nil
	}

	p, err := ResolvePalette(theme, themesDir)
	if err != nil {
		return nil, err
	}

	r := lipgloss.NewRenderer(w)
	if mode == ColorAlways {
		r.SetColorProfile(termenv.TrueColor)
	}
	return NewWithRenderer(p, r), nil
}

// TerminalWidth returns the width of w when it is a terminal, or fallback.
func TerminalWidth(w io.Writer, fallback int) int {
	f, ok := w.(*os.File)
	if !ok {
		return fallback
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return fallback
	}
	return width
}

// Truncate shortens s to width visible columns, ending in "...". Escape
// sequences and wide characters are measured as the terminal shows them.
func Truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	if width <= 3 {
		return "..."
	}
	return ansi.Truncate(s, width, "...")
}
