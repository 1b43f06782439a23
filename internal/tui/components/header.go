package components

import (
	"strings"

	"github.com/theirongolddev/cinspect/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// RenderHeader renders the top bar: a breadcrumb trail with the last crumb
// highlighted, and right-aligned info.
func RenderHeader(crumbs []string, right string, width int) string {
	t := theme.Active

	base := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)
	logoStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)
	activeStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)
	sepStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render(" ◈ cinspect"))
	for i, c := range crumbs {
		b.WriteString(sepStyle.Render(" › "))
		if i == len(crumbs)-1 {
			b.WriteString(activeStyle.Render(c))
		} else {
			b.WriteString(base.Render(c))
		}
	}

	left := b.String()
	if right != "" {
		right = base.Render(right + " ")
	}
	padding := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return left + base.Render(strings.Repeat(" ", padding)) + right
}
