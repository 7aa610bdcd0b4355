package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue     = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGeekBlue = lipgloss.AdaptiveColor{Dark: "#85A5FF", Light: "#2F54EB"}
	ColorCyan     = lipgloss.AdaptiveColor{Dark: "#66D9E8", Light: "#0C8599"}
	ColorGreen    = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorLime     = lipgloss.AdaptiveColor{Dark: "#C0EB75", Light: "#5C940D"}
	ColorYellow   = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorGold     = lipgloss.AdaptiveColor{Dark: "#FFC53D", Light: "#AD6800"}
	ColorOrange   = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorVolcano  = lipgloss.AdaptiveColor{Dark: "#FF7A45", Light: "#D4380D"}
	ColorRed      = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorMagenta  = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorPurple   = lipgloss.AdaptiveColor{Dark: "#B197FC", Light: "#6741D9"}
	ColorGray     = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite    = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle   = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder   = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// DetailPanelStyle wraps the detail view content area.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// DimmedStyle is used for secondary text such as addresses and timestamps.
var DimmedStyle = lipgloss.NewStyle().Foreground(ColorGray)

// ErrorStyle renders failure banners.
var ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorRed)

// NoticeStyle renders informational banners.
var NoticeStyle = lipgloss.NewStyle().Foreground(ColorGreen)

// GateOpenStyle and GateClosedStyle render the action-window hint.
var (
	GateOpenStyle   = lipgloss.NewStyle().Foreground(ColorGreen)
	GateClosedStyle = lipgloss.NewStyle().Foreground(ColorOrange)
)

// UnseenStyle marks notifications the user has not read yet.
var UnseenStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorWhite)

// tagColors maps Ant Design tag color names to terminal colors. The status
// tags "processing", "success", "warning" and "error" are included.
var tagColors = map[string]lipgloss.AdaptiveColor{
	"blue":       ColorBlue,
	"processing": ColorBlue,
	"geekblue":   ColorGeekBlue,
	"cyan":       ColorCyan,
	"green":      ColorGreen,
	"success":    ColorGreen,
	"lime":       ColorLime,
	"gold":       ColorGold,
	"warning":    ColorGold,
	"orange":     ColorOrange,
	"volcano":    ColorVolcano,
	"red":        ColorRed,
	"error":      ColorRed,
	"magenta":    ColorMagenta,
	"purple":     ColorPurple,
}

// TagStyle returns the style for a status tag with the given color name.
// Unknown names, including "default", render gray.
func TagStyle(colorTag string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	if c, ok := tagColors[colorTag]; ok {
		return base.Foreground(c)
	}
	return base.Foreground(ColorGray)
}

// GateStyle picks the hint style for a permitted or denied action.
func GateStyle(permitted bool) lipgloss.Style {
	if permitted {
		return GateOpenStyle
	}
	return GateClosedStyle
}
