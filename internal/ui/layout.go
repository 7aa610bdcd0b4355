package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/greenspace-sync/internal/theme"
)

// Layout manages the terminal layout dimensions: a header, the content
// area, a one-line flash for action outcomes, and the status bar.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	FlashHeight     int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// The header, flash and status bar take one line each.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		FlashHeight:     1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header, flash line and status bar.
func (l Layout) ContentHeight() int {
	return max(0, l.Height-l.HeaderHeight-l.FlashHeight-l.StatusBarHeight)
}

// RenderHeader renders the title on the left and the sync state on the
// right of a full-width bar.
func (l Layout) RenderHeader(title string, syncStatus string) string {
	left := theme.HeaderStyle.Render(title)
	right := theme.HeaderStyle.Render(syncStatus)
	return l.bar(theme.HeaderStyle, left, right)
}

// RenderFlash renders the outcome of the last user action, truncated to
// the terminal width.
func (l Layout) RenderFlash(msg string, isErr bool) string {
	style := theme.NoticeStyle
	if isErr {
		style = theme.ErrorStyle
	}
	return style.MaxWidth(l.Width).Render(msg)
}

// RenderStatusBar renders the key hints as a full-width bottom bar.
func (l Layout) RenderStatusBar(hints string) string {
	return l.bar(theme.StatusBarStyle, theme.StatusBarStyle.Render(hints), "")
}

// bar joins left and right with a gap painted in style's background.
func (l Layout) bar(style lipgloss.Style, left, right string) string {
	gap := max(0, l.Width-lipgloss.Width(left)-lipgloss.Width(right))
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")
	return lipgloss.JoinHorizontal(lipgloss.Top, left, filler, right)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, flash line and status bar.
func (l Layout) RenderWithFrame(
	header string,
	content string,
	flash string,
	statusBar string,
) string {
	content = lipgloss.NewStyle().
		Height(l.ContentHeight()).
		MaxHeight(l.ContentHeight()).
		Render(content)
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		flash,
		statusBar,
	)
}
