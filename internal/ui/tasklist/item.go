package tasklist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/greenspace-sync/internal/gate"
	"github.com/nhle/greenspace-sync/internal/model"
	"github.com/nhle/greenspace-sync/internal/theme"
)

// Item wraps a model.WorkItem so it can be used in a bubbles/list.
type Item struct {
	WorkItem model.WorkItem
}

// FilterValue returns the string used for fuzzy filtering.
func (i Item) FilterValue() string { return i.WorkItem.Title }

// Title returns the work item title for the list.
func (i Item) Title() string { return i.WorkItem.Title }

// Description returns a short summary line for the list.
func (i Item) Description() string {
	task, _ := i.WorkItem.Describe()
	parts := []string{
		task.Label,
		appointmentLabel(i.WorkItem.Appointment),
		relativeTime(i.WorkItem.LastChanged()),
	}
	return strings.Join(parts, " | ")
}

// boardState is shared by reference between the Model and its delegate so
// gate evaluations and the spinner frame are visible at render time.
type boardState struct {
	evals   gate.Evaluations
	pending bool
	spin    string
}

// ItemDelegate implements list.ItemDelegate for rendering work items.
type ItemDelegate struct {
	state *boardState
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 2 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a work item: status tags and title on the first line, the
// appointment and action-window hint on the second.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(Item)
	if !ok {
		return
	}
	wi := it.WorkItem

	task, order := wi.Describe()
	tags := theme.TagStyle(task.ColorTag).Render(task.Label)
	if wi.RelatedOrder != nil {
		tags += theme.TagStyle(order.ColorTag).Render(order.Label)
	}

	title := wi.Title
	if title == "" {
		title = wi.ID
	}
	first := fmt.Sprintf("%s %s", tags, title)
	if wi.CustomerName != "" {
		first += theme.DimmedStyle.Render("  " + wi.CustomerName)
	}

	second := theme.DimmedStyle.Render(appointmentLabel(wi.Appointment))
	if d.state != nil {
		if res, ok := d.state.evals[wi.ID]; ok {
			second += "  " + theme.GateStyle(res.Permitted).Render(hint(res))
		}
		if d.state.pending && index == m.Index() {
			second += " " + d.state.spin
		}
	}

	line := first + "\n" + "  " + second
	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// hint renders the gate result for the board.
func hint(res gate.Result) string {
	if res.Decision != nil {
		return res.Decision.Hint()
	}
	if res.Permitted {
		return "available now"
	}
	return res.Message
}

// appointmentLabel formats the installation slot, or a placeholder when
// none is set.
func appointmentLabel(a *model.Appointment) string {
	if a.IsZero() {
		return "no appointment"
	}
	day, err := time.Parse("2006-01-02", a.Date)
	if err != nil {
		return strings.TrimSpace(a.Date + " " + a.Time)
	}
	if a.Time == "" {
		return day.Format("02/01/2006")
	}
	return day.Format("02/01/2006") + " " + a.Time
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw ago", int(d.Hours()/24/7))
	}
}
