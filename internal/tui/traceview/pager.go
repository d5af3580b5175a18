package traceview

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/slotsig/internal/scenario"
	"github.com/Iron-Ham/slotsig/internal/tui/styles"
)

// Header (title + border) and footer (status + help) heights.
const (
	headerHeight = 2
	footerHeight = 2
)

type keyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Up     key.Binding
	Down   key.Binding
	Indent key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Up, k.Down, k.Indent, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "n", "l", "right"),
			key.WithHelp("tab/n", "next scenario"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "p", "h", "left"),
			key.WithHelp("shift+tab/p", "previous"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("j/k", "scroll"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
		),
		Indent: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "toggle nesting"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Model is the Bubbletea model for paging through scenario results.
type Model struct {
	results  []*scenario.Result
	index    int
	styles   *styles.Styles
	opts     Options
	keys     keyMap
	help     help.Model
	viewport viewport.Model
	width    int
	ready    bool
}

// New creates a pager over results. results must not be empty.
func New(results []*scenario.Result, st *styles.Styles, opts Options) Model {
	return Model{
		results: results,
		styles:  st,
		opts:    opts,
		keys:    defaultKeyMap(),
		help:    help.New(),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		height := max(msg.Height-headerHeight-footerHeight, 1)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.help.Width = msg.Width
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Next):
			m.index = (m.index + 1) % len(m.results)
			m.refresh()
			m.viewport.GotoTop()
			return m, nil
		case key.Matches(msg, m.keys.Prev):
			m.index = (m.index - 1 + len(m.results)) % len(m.results)
			m.refresh()
			m.viewport.GotoTop()
			return m, nil
		case key.Matches(msg, m.keys.Indent):
			m.opts.Indent = !m.opts.Indent
			m.refresh()
			return m, nil
		}
	}

	if !m.ready {
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(Format(m.results[m.index], m.styles, m.opts))
}

// Current returns the result being displayed.
func (m Model) Current() *scenario.Result {
	return m.results[m.index]
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	res := m.results[m.index]
	title := fmt.Sprintf("%s  [%d/%d]", res.Scenario, m.index+1, len(m.results))
	header := m.styles.Header.Width(m.width).Render(title)

	status := fmt.Sprintf("run %s  %3.f%%", res.RunID, m.viewport.ScrollPercent()*100)
	footer := m.styles.StatusBar.Width(m.width).Render(status) + "\n" + m.help.View(m.keys)

	return header + "\n" + m.viewport.View() + "\n" + footer
}

// Run opens the pager on the terminal and blocks until the user quits.
func Run(results []*scenario.Result, st *styles.Styles, opts Options) error {
	if len(results) == 0 {
		return nil
	}
	p := tea.NewProgram(New(results, st, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
