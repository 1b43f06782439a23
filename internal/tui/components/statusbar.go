package components

import (
	"strings"

	"github.com/theirongolddev/cinspect/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// RenderStatusBar renders the bottom status bar: key hints on the left, an
// optional notice in the warning color, and right-aligned info.
func RenderStatusBar(width int, hints, notice, right string) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)
	noticeStyle := lipgloss.NewStyle().
		Foreground(t.Warning).
		Background(t.Surface).
		Bold(true)

	left := style.Render(" " + hints)
	if notice != "" {
		left += style.Render("  ") + noticeStyle.Render(notice)
	}
	if right != "" {
		right = style.Render(right + " ")
	}

	// Pad middle
	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	return left + style.Render(strings.Repeat(" ", padding)) + right
}
