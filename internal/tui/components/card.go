// Package components provides reusable TUI widgets for the session browser.
package components

import (
	"github.com/theirongolddev/cinspect/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// minCardWidth keeps a squeezed card legible.
const minCardWidth = 10

// splitWidth divides total into n widths summing to exactly total. Leading
// slots take the remainder.
func splitWidth(total, n int) []int {
	if n <= 0 {
		return nil
	}
	widths := make([]int, n)
	for i := range widths {
		widths[i] = total / n
		if i < total%n {
			widths[i]++
		}
	}
	return widths
}

// Metric is one figure in a MetricRow. Detail is an optional second line,
// such as an input/output split under a token total.
type Metric struct {
	Label  string
	Value  string
	Detail string
}

// MetricRow renders metrics as equal-width tiles spanning exactly width
// cells. When any tile has a Detail line, all tiles reserve one so their
// bottom borders line up.
func MetricRow(metrics []Metric, width int) string {
	if len(metrics) == 0 {
		return ""
	}
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Bold(true)
	detailStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	withDetail := false
	for _, m := range metrics {
		if m.Detail != "" {
			withDetail = true
			break
		}
	}

	widths := splitWidth(width, len(metrics))
	tiles := make([]string, len(metrics))
	for i, m := range metrics {
		content := labelStyle.Render(m.Label) + "\n" + valueStyle.Render(m.Value)
		if withDetail {
			detail := m.Detail
			if detail == "" {
				detail = " "
			}
			content += "\n" + detailStyle.Render(detail)
		}
		tiles[i] = cardStyle(widths[i], false).Render(content)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tiles...)
}

// ContentCard renders a bordered pane of outerWidth cells. A focused card
// gets the focus border and a marker before its title.
func ContentCard(title, body string, outerWidth int, focused bool) string {
	t := theme.Active
	titleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Bold(true)
	if focused {
		titleStyle = titleStyle.Foreground(t.Accent)
		if title != "" {
			title = "▸ " + title
		}
	}

	content := body
	if title != "" {
		content = titleStyle.Render(title) + "\n" + body
	}
	return cardStyle(outerWidth, focused).Render(content)
}

func cardStyle(outerWidth int, focused bool) lipgloss.Style {
	t := theme.Active
	border := t.Border
	if focused {
		border = t.BorderFocus
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(max(outerWidth-2, minCardWidth)).
		Padding(0, 1)
}

// JoinPanes lays rendered panes side by side, top-aligned.
func JoinPanes(panes ...string) string {
	if len(panes) == 0 {
		return ""
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, panes...)
}

// CardInnerWidth is the text width inside a card of outerWidth cells
// (border and padding removed).
func CardInnerWidth(outerWidth int) int {
	return max(outerWidth-4, minCardWidth)
}
