// Package config is the interactive editor for the sigtrace config file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/slotsig/internal/config"
	"github.com/Iron-Ham/slotsig/internal/tui/styles"
)

// ConfigItem represents a single configuration item
type ConfigItem struct {
	Key         string
	Label       string
	Description string
	Type        string   // "string", "bool", "int", "select"
	Options     []string // For select type
}

// Category represents a group of config items
type Category struct {
	Name  string
	Items []ConfigItem
}

// Model is the Bubbletea model for the interactive config UI
type Model struct {
	v      *viper.Viper
	path   string
	styles *styles.Styles

	categories    []Category
	categoryIndex int
	itemIndex     int
	width         int
	editing       bool
	textInput     textinput.Model
	selectIndex   int // For select-type options
	errorMsg      string
	infoMsg       string
	quitting      bool
}

// New creates a config editor over v that saves to path. themes lists
// the values offered for trace.theme.
func New(v *viper.Viper, path string, themes []string, st *styles.Styles) Model {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 40

	categories := []Category{
		{
			Name: "Trace",
			Items: []ConfigItem{
				{
					Key:         "trace.color",
					Label:       "Color",
					Description: "Styled output: auto (terminals only), always, never",
					Type:        "select",
					Options:     config.ValidColorModes(),
				},
				{
					Key:         "trace.theme",
					Label:       "Theme",
					Description: "Color theme for styled traces",
					Type:        "select",
					Options:     themes,
				},
				{
					Key:         "trace.show_depth",
					Label:       "Show Depth",
					Description: "Print the invocation depth of every handler call",
					Type:        "bool",
				},
				{
					Key:         "trace.interactive",
					Label:       "Interactive",
					Description: "Open results in a scrollable pager",
					Type:        "bool",
				},
			},
		},
		{
			Name: "Scenario",
			Items: []ConfigItem{
				{
					Key:         "scenario.max_depth",
					Label:       "Max Depth",
					Description: "Deepest nested emission a scenario may start",
					Type:        "int",
				},
				{
					Key:         "scenario.dir",
					Label:       "Scenario Directory",
					Description: "Extra directory searched for scenarios by name",
					Type:        "string",
				},
			},
		},
		{
			Name: "Logging",
			Items: []ConfigItem{
				{
					Key:         "logging.enabled",
					Label:       "Enabled",
					Description: "Write JSON debug logs",
					Type:        "bool",
				},
				{
					Key:         "logging.level",
					Label:       "Level",
					Description: "Minimum level written to the log",
					Type:        "select",
					Options:     config.ValidLogLevels(),
				},
				{
					Key:         "logging.dir",
					Label:       "Directory",
					Description: "Log directory (empty for <config dir>/logs)",
					Type:        "string",
				},
				{
					Key:         "logging.max_size_mb",
					Label:       "Max Size (MB)",
					Description: "Rotate the log file after this size",
					Type:        "int",
				},
				{
					Key:         "logging.max_backups",
					Label:       "Max Backups",
					Description: "Rotated log files to keep",
					Type:        "int",
				},
				{
					Key:         "logging.compress",
					Label:       "Compress",
					Description: "Gzip rotated log files",
					Type:        "bool",
				},
			},
		},
	}

	return Model{
		v:          v,
		path:       path,
		styles:     st,
		categories: categories,
		textInput:  ti,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		m.errorMsg = ""
		m.infoMsg = ""

		if m.editing {
			return m.handleEditingKeypress(msg)
		}

		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "up", "k":
			m.itemIndex--
			if m.itemIndex < 0 {
				m.categoryIndex--
				if m.categoryIndex < 0 {
					m.categoryIndex = len(m.categories) - 1
				}
				m.itemIndex = len(m.categories[m.categoryIndex].Items) - 1
			}

		case "down", "j":
			m.itemIndex++
			if m.itemIndex >= len(m.categories[m.categoryIndex].Items) {
				m.categoryIndex++
				if m.categoryIndex >= len(m.categories) {
					m.categoryIndex = 0
				}
				m.itemIndex = 0
			}

		case "tab":
			m.categoryIndex = (m.categoryIndex + 1) % len(m.categories)
			m.itemIndex = 0

		case "shift+tab":
			m.categoryIndex = (m.categoryIndex - 1 + len(m.categories)) % len(m.categories)
			m.itemIndex = 0

		case "enter", " ":
			item := m.currentItem()
			switch item.Type {
			case "bool":
				if err := m.set(item.Key, !m.v.GetBool(item.Key)); err != nil {
					m.errorMsg = err.Error()
					return m, nil
				}
				m.saveConfig()
			case "select":
				m.editing = true
				m.selectIndex = m.currentSelectIndex()
			default:
				m.editing = true
				m.textInput.SetValue(m.displayValue(item))
				m.textInput.Focus()
			}

		case "r":
			m.resetCurrentToDefault()
		}
	}

	return m, nil
}

func (m Model) handleEditingKeypress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	item := m.currentItem()

	switch msg.String() {
	case "esc":
		m.editing = false
		m.textInput.SetValue("")
		return m, nil

	case "enter":
		value := m.textInput.Value()
		if item.Type == "select" {
			if len(item.Options) == 0 {
				m.editing = false
				return m, nil
			}
			value = item.Options[m.selectIndex]
		}
		if err := m.validateAndSet(item, value); err != nil {
			m.errorMsg = err.Error()
			return m, nil
		}
		m.saveConfig()
		m.editing = false
		m.textInput.SetValue("")
		return m, nil

	case "up", "k":
		if item.Type == "select" && len(item.Options) > 0 {
			m.selectIndex = (m.selectIndex - 1 + len(item.Options)) % len(item.Options)
			return m, nil
		}

	case "down", "j":
		if item.Type == "select" && len(item.Options) > 0 {
			m.selectIndex = (m.selectIndex + 1) % len(item.Options)
			return m, nil
		}
	}

	if item.Type != "select" {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	st := m.styles
	var b strings.Builder

	b.WriteString(st.Header.Width(max(m.width-4, 20)).Render("sigtrace configuration"))
	b.WriteString("\n\n")
	b.WriteString(st.Muted.Render(fmt.Sprintf("Config file: %s", m.path)))
	b.WriteString("\n\n")

	for ci, cat := range m.categories {
		active := ci == m.categoryIndex

		catStyle := st.Muted.Bold(true)
		if active {
			catStyle = st.Title
		}
		b.WriteString(catStyle.Render(fmt.Sprintf("[ %s ]", cat.Name)))
		b.WriteString("\n")

		for ii, item := range cat.Items {
			b.WriteString(m.renderItem(item, active && ii == m.itemIndex))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.editing {
		b.WriteString(m.renderEditOverlay())
	} else {
		b.WriteString(st.Muted.Render(m.currentItem().Description))
	}
	b.WriteString("\n")

	if m.errorMsg != "" {
		b.WriteString("\n")
		b.WriteString(st.Fail.Render("Error: " + m.errorMsg))
	}
	if m.infoMsg != "" {
		b.WriteString("\n")
		b.WriteString(st.Pass.Render(m.infoMsg))
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderItem(item ConfigItem, selected bool) string {
	label := fmt.Sprintf("%-20s", item.Label)
	value := m.displayValue(item)

	if selected {
		cursor := m.styles.HelpKey.Render(">")
		return fmt.Sprintf("  %s %s  %s", cursor, m.styles.Handler.Render(label), m.styles.Title.Render(value))
	}
	return fmt.Sprintf("    %s  %s", m.styles.Muted.Render(label), value)
}

func (m Model) renderEditOverlay() string {
	item := m.currentItem()
	st := m.styles

	var content strings.Builder
	if item.Type == "select" {
		fmt.Fprintf(&content, "Select %s:\n\n", item.Label)
		for i, opt := range item.Options {
			if i == m.selectIndex {
				content.WriteString(st.Selected.Render(fmt.Sprintf(" > %s ", opt)))
			} else {
				content.WriteString(fmt.Sprintf("   %s ", opt))
			}
			content.WriteString("\n")
		}
		content.WriteString("\n" + st.Muted.Render("j/k to select, enter to confirm, esc to cancel"))
	} else {
		fmt.Fprintf(&content, "Edit %s:\n\n", item.Label)
		content.WriteString(m.textInput.View())
		content.WriteString("\n\n" + st.Muted.Render("enter to save, esc to cancel"))
	}

	return "\n" + st.Box.Width(50).Render(content.String())
}

func (m Model) renderHelp() string {
	key := m.styles.HelpKey.Render
	if m.editing {
		return m.styles.HelpBar.Render(key("enter") + " save  " + key("esc") + " cancel")
	}
	return m.styles.HelpBar.Render(
		key("j/k") + " navigate  " +
			key("tab") + " next category  " +
			key("enter/space") + " edit  " +
			key("r") + " reset  " +
			key("q") + " quit",
	)
}

func (m Model) currentItem() ConfigItem {
	return m.categories[m.categoryIndex].Items[m.itemIndex]
}

func (m Model) displayValue(item ConfigItem) string {
	switch item.Type {
	case "bool":
		return strconv.FormatBool(m.v.GetBool(item.Key))
	case "int":
		return strconv.Itoa(m.v.GetInt(item.Key))
	default:
		return m.v.GetString(item.Key)
	}
}

func (m Model) currentSelectIndex() int {
	item := m.currentItem()
	if i := slices.Index(item.Options, m.v.GetString(item.Key)); i >= 0 {
		return i
	}
	return 0
}

func (m *Model) validateAndSet(item ConfigItem, value string) error {
	switch item.Type {
	case "int":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("expected integer value")
		}
		return m.set(item.Key, n)
	case "bool":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("expected true or false")
		}
		return m.set(item.Key, b)
	case "select":
		if !slices.Contains(item.Options, value) {
			return fmt.Errorf("invalid option: %s", value)
		}
	}
	return m.set(item.Key, value)
}

// set applies value and keeps it only if the resulting config validates.
func (m *Model) set(key string, value any) error {
	previous := m.v.Get(key)
	m.v.Set(key, value)

	var cfg config.Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		m.v.Set(key, previous)
		return err
	}
	for _, verr := range cfg.Validate() {
		if verr.Field == key {
			m.v.Set(key, previous)
			return verr
		}
	}
	return nil
}

func (m *Model) saveConfig() {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		m.errorMsg = fmt.Sprintf("Failed to create config directory: %v", err)
		return
	}
	if err := m.v.WriteConfigAs(m.path); err != nil {
		m.errorMsg = fmt.Sprintf("Failed to save config: %v", err)
		return
	}
	m.infoMsg = "Saved!"
}

func (m *Model) resetCurrentToDefault() {
	item := m.currentItem()
	defaultVal, ok := config.Default().Settings()[item.Key]
	if !ok {
		return
	}
	m.v.Set(item.Key, defaultVal)
	m.saveConfig()
	if m.errorMsg == "" {
		m.infoMsg = fmt.Sprintf("Reset %s to default", item.Label)
	}
}

// Run starts the interactive config UI
func Run(v *viper.Viper, path string, themes []string, st *styles.Styles) error {
	p := tea.NewProgram(New(v, path, themes, st), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
