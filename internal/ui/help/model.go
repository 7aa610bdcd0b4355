package help

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/greenspace-sync/internal/keys"
	"github.com/nhle/greenspace-sync/internal/status"
	"github.com/nhle/greenspace-sync/internal/theme"
)

// Model is the help overlay view. Besides the key bindings it shows the
// task status legend and the action window rules.
type Model struct {
	keys        *keys.KeyMap
	help        help.Model
	leadMinutes int
	width       int
	height      int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, leadMinutes, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:        keys,
		help:        h,
		leadMinutes: leadMinutes,
		width:       width,
		height:      height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Keyboard Shortcuts")

	m.help.Width = m.width - 4
	m.help.ShowAll = true
	helpText := m.help.View(m.keys)

	legendTitle := titleStyle.MarginTop(1).Render("Task statuses")
	var tags []string
	for _, t := range status.Tasks() {
		d := status.Describe(status.EntityTask, t.Code())
		tags = append(tags, theme.TagStyle(d.ColorTag).Render(d.Label))
	}
	legend := lipgloss.JoinHorizontal(lipgloss.Top, tags...)

	rules := theme.HelpStyle.Render(fmt.Sprintf(
		"Installing can start on the appointment day from %d minutes before the scheduled time.",
		m.leadMinutes,
	))

	content := lipgloss.JoinVertical(lipgloss.Left, title, helpText, legendTitle, legend, "", rules)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
