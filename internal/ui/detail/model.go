package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/greenspace-sync/internal/gate"
	"github.com/nhle/greenspace-sync/internal/keys"
	"github.com/nhle/greenspace-sync/internal/model"
	"github.com/nhle/greenspace-sync/internal/policy"
	"github.com/nhle/greenspace-sync/internal/theme"
)

// BackMsg signals the parent to navigate back to the board.
type BackMsg struct{}

// Action names carried by ActionMsg.
const (
	ActionStart  = "start"
	ActionFinish = "finish"
)

// ActionMsg signals the parent to transition the displayed work item.
type ActionMsg struct {
	Action string
	Item   model.WorkItem
}

// Model is the work item detail view component.
type Model struct {
	item     *model.WorkItem
	eval     *gate.Result
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}

		case key.Matches(msg, m.keys.Start):
			return m, m.action(ActionStart)

		case key.Matches(msg, m.keys.Finish):
			return m, m.action(ActionFinish)
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) action(name string) tea.Cmd {
	if m.item == nil {
		return nil
	}
	item := *m.item
	return func() tea.Msg {
		return ActionMsg{Action: name, Item: item}
	}
}

// View renders the detail view.
func (m Model) View() string {
	if m.item == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No work item selected")
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.item == nil {
		return ""
	}

	wi := m.item
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	title := wi.Title
	if title == "" {
		title = wi.ID
	}
	sections = append(sections, titleStyle.Render(title))

	task, order := wi.Describe()
	badges := []string{theme.TagStyle(task.ColorTag).Render(task.Label)}
	if wi.RelatedOrder != nil {
		badges = append(badges, "  ", theme.TagStyle(order.ColorTag).Render(order.Label))
	}
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, badges...))
	sections = append(sections, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(14)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	row := func(label, value string) {
		if value == "" {
			return
		}
		sections = append(sections, metaStyle.Render(label+":")+valStyle.Render(value))
	}

	row("Customer", wi.CustomerName)
	row("Address", wi.Address)
	if wi.Appointment.IsZero() {
		row("Appointment", "not scheduled")
	} else {
		row("Appointment", strings.TrimSpace(wi.Appointment.Date+" "+wi.Appointment.Time))
	}
	if wi.RelatedOrder != nil {
		ref := wi.RelatedOrder.ID
		if wi.RelatedOrder.Code != "" {
			ref = wi.RelatedOrder.Code + " (" + wi.RelatedOrder.ID + ")"
		}
		row("Order", ref)
	}
	if earliest := policy.EarliestDelivery(*wi); !earliest.IsZero() {
		row("Delivery from", earliest.Format("2006-01-02"))
	}
	if !wi.CreatedAt.IsZero() {
		row("Created", wi.CreatedAt.Format("2006-01-02 15:04"))
	}
	if !wi.ModifiedAt.IsZero() {
		row("Updated", wi.ModifiedAt.Format("2006-01-02 15:04"))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(0, min(m.width-4, 80))))
	sections = append(sections, "", separator, "")

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, headerStyle.Render("Action window"))

	if m.eval == nil {
		sections = append(sections, theme.DimmedStyle.Render("evaluating..."))
	} else {
		line := m.eval.Message
		if m.eval.Decision != nil {
			line = m.eval.Decision.Hint()
			if !m.eval.Decision.AllowedFrom.IsZero() {
				line += fmt.Sprintf(" (window opens %s)", m.eval.Decision.AllowedFrom.Format("2006-01-02 15:04"))
			}
		} else if m.eval.Permitted {
			line = "available now"
		}
		sections = append(sections, theme.GateStyle(m.eval.Permitted).Render(line))
	}
	sections = append(sections, "", theme.HelpStyle.Render("s start installing · f finish installing · esc back"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// ItemID returns the id of the displayed work item, or "".
func (m Model) ItemID() string {
	if m.item == nil {
		return ""
	}
	return m.item.ID
}

// SetItem updates the work item being displayed and re-renders the content.
// Replacing the item with a newer copy of the same id keeps the scroll
// position.
func (m *Model) SetItem(item model.WorkItem, eval *gate.Result) {
	same := m.item != nil && m.item.ID == item.ID
	m.item = &item
	m.eval = eval
	m.viewport.SetContent(m.renderContent())
	if !same {
		m.viewport.GotoTop()
	}
}

// SetEvaluation updates the gate result shown for the displayed item.
func (m *Model) SetEvaluation(eval *gate.Result) {
	m.eval = eval
	m.viewport.SetContent(m.renderContent())
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.viewport.SetContent(m.renderContent())
}
