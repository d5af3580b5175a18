package styles

import "github.com/charmbracelet/lipgloss"

// Styles are the lipgloss styles used to render scenario results, built
// from a ColorPalette so that they follow the configured theme.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Muted    lipgloss.Style

	// Trace entries
	Handler lipgloss.Style
	Arg     lipgloss.Style
	Label   lipgloss.Style

	// Scenario verdicts
	Pass     lipgloss.Style
	Fail     lipgloss.Style
	Warning  lipgloss.Style
	ErrorMsg lipgloss.Style

	// Pager chrome
	Header    lipgloss.Style
	StatusBar lipgloss.Style
	HelpBar   lipgloss.Style
	HelpKey   lipgloss.Style
	Selected  lipgloss.Style
	Box       lipgloss.Style

	depth []lipgloss.Style
}

// New builds Styles from a palette using the default renderer.
func New(p *ColorPalette) *Styles {
	return NewWithRenderer(p, lipgloss.DefaultRenderer())
}

// NewWithRenderer builds Styles whose color output is decided by r.
func NewWithRenderer(p *ColorPalette, r *lipgloss.Renderer) *Styles {
	s := &Styles{
		Title: r.NewStyle().
			Bold(true).
			Foreground(p.Primary),

		Subtitle: r.NewStyle().
			Foreground(p.Muted).
			Italic(true),

		Muted: r.NewStyle().Foreground(p.Muted),

		Handler: r.NewStyle().
			Bold(true).
			Foreground(p.Text),

		Arg: r.NewStyle().Foreground(p.Muted),

		Label: r.NewStyle().
			Foreground(p.Warning).
			Italic(true),

		Pass: r.NewStyle().
			Bold(true).
			Foreground(p.Secondary),

		Fail: r.NewStyle().
			Bold(true).
			Foreground(p.Error),

		Warning: r.NewStyle().Foreground(p.Warning),

		ErrorMsg: r.NewStyle().Foreground(p.Error),

		Header: r.NewStyle().
			Bold(true).
			Foreground(p.Primary).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(p.Border),

		StatusBar: r.NewStyle().
			Foreground(p.Text).
			Background(p.Surface).
			Padding(0, 1),

		HelpBar: r.NewStyle().Foreground(p.Muted),

		HelpKey: r.NewStyle().
			Bold(true).
			Foreground(p.Secondary),

		Selected: r.NewStyle().
			Bold(true).
			Foreground(p.Text).
			Background(p.Primary),

		Box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Primary).
			Padding(1, 2),
	}

	for _, c := range p.Depth {
		s.depth = append(s.depth, r.NewStyle().Foreground(c))
	}
	if len(s.depth) == 0 {
		s.depth = []lipgloss.Style{r.NewStyle().Foreground(p.Primary)}
	}
	return s
}

// Plain returns Styles that render text unchanged, for output that is not
// a terminal or when color is disabled.
func Plain() *Styles {
	plain := lipgloss.NewStyle()
	return &Styles{
		Title:     plain,
		Subtitle:  plain,
		Muted:     plain,
		Handler:   plain,
		Arg:       plain,
		Label:     plain,
		Pass:      plain,
		Fail:      plain,
		Warning:   plain,
		ErrorMsg:  plain,
		Header:    plain,
		StatusBar: plain,
		HelpBar:   plain,
		HelpKey:   plain,
		Selected:  plain.Reverse(true),
		Box:       plain,
		depth:     []lipgloss.Style{plain},
	}
}

// Depth returns the style for an invocation depth. Depths start at 1.
func (s *Styles) Depth(d int) lipgloss.Style {
	if d < 1 {
		d = 1
	}
	return s.depth[(d-1)%len(s.depth)]
}
