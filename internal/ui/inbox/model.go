package inbox

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/greenspace-sync/internal/keys"
	"github.com/nhle/greenspace-sync/internal/model"
	"github.com/nhle/greenspace-sync/internal/notification"
	gssync "github.com/nhle/greenspace-sync/internal/sync"
	"github.com/nhle/greenspace-sync/internal/theme"
)

// BackMsg signals the parent to leave the inbox.
type BackMsg struct{}

// OpenMsg asks the parent to show the work item a notification refers to.
type OpenMsg struct {
	Note model.Notification
}

// MarkReadMsg asks the parent to mark a notification as read.
type MarkReadMsg struct {
	ID string
}

// Item wraps a model.Notification for a bubbles/list.
type Item struct {
	Note model.Notification
}

// FilterValue returns the string used for fuzzy filtering.
func (i Item) FilterValue() string { return i.Note.Title }

type delegate struct{}

func (delegate) Height() int { return 2 }
func (delegate) Spacing() int { return 0 }
func (delegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (delegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(Item)
	if !ok {
		return
	}
	n := it.Note

	marker := "  "
	title := n.Title
	if !n.IsSeen {
		marker = "● "
		title = theme.UnseenStyle.Render(title)
	}

	meta := n.CreatedAt.Format("2006-01-02 15:04")
	if id, ok := notification.ExtractOrderID(n.Content); ok {
		meta += "  order " + id
	}
	body := firstLine(n.Content)

	line := marker + title + "  " + theme.DimmedStyle.Render(meta) + "\n  " + theme.DimmedStyle.Render(body)
	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}
	fmt.Fprint(w, line)
}

// Model is the notifications view.
type Model struct {
	list   list.Model
	keys   *keys.KeyMap
	unseen int
	err    error
	width  int
	height int
}

// New creates the notifications view.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, delegate{}, width, height-2)
	l.Title = "Notifications"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{list: l, keys: k, width: width, height: height}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd { return nil }

// SetCollection replaces the rendered notifications.
func (m *Model) SetCollection(c gssync.CachedCollection[model.Notification]) tea.Cmd {
	items := make([]list.Item, len(c.Items))
	m.unseen = 0
	for i, n := range c.Items {
		items[i] = Item{Note: n}
		if !n.IsSeen {
			m.unseen++
		}
	}
	m.err = c.Err
	return m.list.SetItems(items)
}

// Unseen returns how many notifications are unread.
func (m Model) Unseen() int { return m.unseen }

// Update handles messages for the notifications view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.Select):
			it, ok := m.list.SelectedItem().(Item)
			if !ok {
				return m, nil
			}
			note := it.Note
			return m, func() tea.Msg { return OpenMsg{Note: note} }

		case key.Matches(msg, m.keys.MarkRead):
			it, ok := m.list.SelectedItem().(Item)
			if !ok || it.Note.IsSeen {
				return m, nil
			}
			id := it.Note.ID
			return m, func() tea.Msg { return MarkReadMsg{ID: id} }
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the notifications view.
func (m Model) View() string {
	var banner string
	if m.err != nil {
		banner = theme.ErrorStyle.Render(fmt.Sprintf("loading notifications failed: %v", m.err))
	}
	if len(m.list.Items()) == 0 {
		empty := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height-1).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No notifications.")
		return lipgloss.JoinVertical(lipgloss.Left, banner, empty)
	}
	if banner == "" {
		return m.list.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, banner, m.list.View())
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
