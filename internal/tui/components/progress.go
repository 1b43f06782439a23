package components

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/cinspect/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders the indexing progress bar followed by its percentage.
// The bar brightens once every file is parsed.
func ProgressBar(pct float64, width int) string {
	t := theme.Active
	pct = min(max(pct, 0), 1)
	filled := int(pct * float64(width))

	barColor := t.Accent
	if filled == width {
		barColor = t.AccentBright
	}

	filledStyle := lipgloss.NewStyle().Foreground(barColor).Background(t.Surface)
	emptyStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(barColor).Background(t.Surface).Bold(true)

	return filledStyle.Render(strings.Repeat("█", filled)) +
		emptyStyle.Render(strings.Repeat("░", width-filled)) +
		pctStyle.Render(fmt.Sprintf(" %3.0f%%", pct*100))
}
