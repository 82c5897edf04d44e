package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"budgetbuddy/internal/view"
	"budgetbuddy/internal/view/dashboard"
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true)
	tabStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8A8A")).Padding(0, 1)
	activeTab     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#5F5FD7")).Padding(0, 1).Bold(true)
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#AFAFAF")).Width(14)
	focusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD75F")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD75F"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAF00")).Bold(true)
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#5F5FD7")).Padding(0, 1)
	modalStyle    = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("#FF5F5F")).Padding(0, 2)
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("#303030")).Bold(true)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C")).Italic(true)
)

var levelColors = map[dashboard.Level]lipgloss.Color{
	dashboard.LevelOK:      lipgloss.Color("#5FD75F"),
	dashboard.LevelCaution: lipgloss.Color("#FFAF00"),
	dashboard.LevelDanger:  lipgloss.Color("#FF5F5F"),
}

// bar draws a horizontal bar filled to pct of width.
func bar(pct float64, width int, color lipgloss.Color) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(pct / 100 * float64(width))
	return lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled)) +
		mutedStyle.Render(strings.Repeat("░", width-filled))
}

func renderNotice(n *view.Notice) string {
	if n == nil {
		return ""
	}
	if n.Kind == view.NoticeError {
		return errorStyle.Render("✗ " + n.Text)
	}
	return successStyle.Render("✓ " + n.Text)
}

func renderError(msg string) string {
	if msg == "" {
		return ""
	}
	return errorStyle.Render(msg)
}

// field renders one labelled input, with a cursor when focused.
func field(label, value string, focused bool, mask bool) string {
	if mask {
		value = strings.Repeat("•", len([]rune(value)))
	}
	if focused {
		return labelStyle.Render(label) + focusStyle.Render("› "+value+"▌")
	}
	return labelStyle.Render(label) + "  " + value
}

func joinNonEmpty(parts ...string) string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n")
}
