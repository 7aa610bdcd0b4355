package command

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/greenspace-sync/internal/theme"
)

// CommandMsg is emitted when the user executes a command.
type CommandMsg string

// Palette commands understood by the application.
const (
	CmdRefresh = "refresh"
	CmdBoard   = "board"
	CmdInbox   = "inbox"
	CmdStart   = "start"
	CmdFinish  = "finish"
	CmdHelp    = "help"
	CmdQuit    = "quit"
)

// Commands lists the palette commands in suggestion order.
var Commands = []string{CmdRefresh, CmdBoard, CmdInbox, CmdStart, CmdFinish, CmdHelp, CmdQuit}

var usage = map[string]string{
	CmdRefresh: "reload work items and notifications",
	CmdBoard:   "show the work board",
	CmdInbox:   "show notifications",
	CmdStart:   "start installing the selected item",
	CmdFinish:  "finish installing the selected item",
	CmdHelp:    "show key bindings and statuses",
	CmdQuit:    "exit",
}

// Matching returns the commands starting with prefix, in suggestion order.
func Matching(prefix string) []string {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	var out []string
	for _, c := range Commands {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command..."
	ti.Prompt = ": "
	ti.Focus()
	ti.Width = width - 6
	ti.ShowSuggestions = true
	ti.SetSuggestions(Commands)

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			cmd := strings.ToLower(strings.TrimSpace(m.input.Value()))
			m.input.Reset()
			if cmd != "" {
				return m, func() tea.Msg {
					return CommandMsg(cmd)
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette with the commands matching the input.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	lines := []string{titleStyle.Render("Command Palette"), m.input.View(), ""}
	matches := Matching(m.input.Value())
	if len(matches) == 0 {
		lines = append(lines, theme.DimmedStyle.Render("no matching command"))
	}
	for _, c := range matches {
		lines = append(lines, theme.HelpStyle.Render(fmt.Sprintf("%-8s %s", c, usage[c])))
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
