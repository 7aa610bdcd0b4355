package tasklist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/greenspace-sync/internal/gate"
	"github.com/nhle/greenspace-sync/internal/keys"
	"github.com/nhle/greenspace-sync/internal/model"
	"github.com/nhle/greenspace-sync/internal/status"
	gssync "github.com/nhle/greenspace-sync/internal/sync"
	"github.com/nhle/greenspace-sync/internal/theme"
)

// SelectedItemMsg is sent when a user selects a work item to view details.
type SelectedItemMsg struct {
	Item model.WorkItem
}

// Model is the work board view component.
type Model struct {
	list    list.Model
	keys    *keys.KeyMap
	spinner spinner.Model
	state   *boardState

	all []model.WorkItem
	err error

	// filterIndex 0 shows every item; i > 0 shows status.Tasks()[i-1].
	filterIndex int

	width  int
	height int
}

// New creates a new board model.
func New(k *keys.KeyMap, width, height int) Model {
	state := &boardState{}
	l := list.New([]list.Item{}, ItemDelegate{state: state}, width, height-2)
	l.Title = "Work items"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	return Model{
		list:    l,
		keys:    k,
		spinner: sp,
		state:   state,
		width:   width,
		height:  height,
	}
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// SetCollection replaces the rendered items with a reconciler snapshot.
func (m *Model) SetCollection(c gssync.CachedCollection[model.WorkItem]) tea.Cmd {
	m.all = c.Items
	m.err = c.Err
	m.state.pending = c.Pending
	return m.applyFilter()
}

// SetEvaluations updates the per-item gate results shown on the board.
func (m *Model) SetEvaluations(evals gate.Evaluations) {
	m.state.evals = evals
}

// Selected returns the highlighted work item.
func (m Model) Selected() (model.WorkItem, bool) {
	it, ok := m.list.SelectedItem().(Item)
	if !ok {
		return model.WorkItem{}, false
	}
	return it.WorkItem, true
}

// FilterLabel names the active status filter.
func (m Model) FilterLabel() string {
	if m.filterIndex == 0 {
		return "all"
	}
	t := status.Tasks()[m.filterIndex-1]
	return status.Describe(status.EntityTask, t.Code()).Label
}

// Update handles messages for the board view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.state.spin = m.spinner.View()
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleKeys processes key input.
func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.Selected()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedItemMsg{Item: item}
		}

	case key.Matches(msg, m.keys.CycleFilter):
		m.filterIndex = (m.filterIndex + 1) % (len(status.Tasks()) + 1)
		return m, m.applyFilter()
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// applyFilter rebuilds the list items from the last snapshot.
func (m *Model) applyFilter() tea.Cmd {
	var want status.Task
	if m.filterIndex > 0 {
		want = status.Tasks()[m.filterIndex-1]
	}
	items := make([]list.Item, 0, len(m.all))
	for _, wi := range m.all {
		if m.filterIndex > 0 && wi.TaskStatus() != want {
			continue
		}
		items = append(items, Item{WorkItem: wi})
	}
	return m.list.SetItems(items)
}

// View renders the board.
func (m Model) View() string {
	var banner string
	if m.err != nil {
		banner = theme.ErrorStyle.Render(fmt.Sprintf("sync failed: %v", m.err))
	}

	if len(m.list.Items()) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, banner, m.renderEmptyState())
	}
	if banner == "" {
		return m.list.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, banner, m.list.View())
}

// renderEmptyState shows guidance text when no items are available.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height-1).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	switch {
	case m.state.pending:
		return style.Render(m.spinner.View() + " Loading work items...")
	case m.filterIndex > 0:
		return style.Render("No work items with status " + m.FilterLabel() + ".\nPress tab to change the filter.")
	default:
		return style.Render("No work items assigned.\n\nPress r to refresh.")
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
