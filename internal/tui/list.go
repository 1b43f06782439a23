package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/cinspect/internal/cli"
	"github.com/theirongolddev/cinspect/internal/index"
	"github.com/theirongolddev/cinspect/internal/tui/components"
	"github.com/theirongolddev/cinspect/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// listRowOverhead is the card border (2), title (1), and footer (2).
const listRowOverhead = 5

// openSelected opens the session under the cursor in the detail pane.
func (a App) openSelected() (tea.Model, tea.Cmd) {
	if len(a.rows) == 0 {
		return a, nil
	}
	v := detailView{sessionID: a.rows[a.cursor].SessionID}
	if a.detailOpen && v == a.detail {
		a.focus = focusDetail
		return a, nil
	}

	a.detail = v
	a.detailOpen = true
	a.detailLoad = true
	a.focus = focusDetail
	a.page = index.Page{}
	a.agents = nil
	a.pageErr = nil
	a.stale = false
	a.detailScroll = 0
	return a, pageCmd(a.ix, v, 1)
}

func (a App) renderListCard(w, h int) string {
	t := theme.Active
	inner := components.CardInnerWidth(w)

	if len(a.rows) == 0 {
		body := lipgloss.NewStyle().Foreground(t.TextMuted).Render("No sessions match the current filters")
		if a.filter.ActiveCount() > 0 {
			body += "\n\n" + lipgloss.NewStyle().Foreground(t.TextDim).Render("esc clears filters, f edits them")
		}
		return components.ContentCard("Sessions", body, w, a.focus == focusList)
	}

	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	selectedStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Selected).Bold(true)
	openStyle := lipgloss.NewStyle().Foreground(t.Accent)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	visible := max(h-listRowOverhead, 1)
	offset := a.offset
	if a.cursor < offset {
		offset = a.cursor
	}
	if a.cursor >= offset+visible {
		offset = a.cursor - visible + 1
	}
	end := min(offset+visible, len(a.rows))

	var body strings.Builder
	for i := offset; i < end; i++ {
		s := a.rows[i]
		start := cli.NotAvailable
		if !s.StartTime.IsZero() {
			start = s.StartTime.Local().Format("Jan 02 15:04")
		}
		prefix := fmt.Sprintf("%-12s %5d ", start, s.MessageCount)
		line := prefix + truncStr(s.Description, max(inner-len(prefix), 0))

		switch {
		case i == a.cursor:
			body.WriteString(selectedStyle.Render(line))
		case a.detailOpen && s.SessionID == a.detail.sessionID:
			body.WriteString(openStyle.Render(line))
		default:
			body.WriteString(rowStyle.Render(line))
		}
		body.WriteString("\n")
	}
	body.WriteString("\n")
	body.WriteString(mutedStyle.Render(fmt.Sprintf("%d/%d", a.cursor+1, len(a.rows))))

	return components.ContentCard("Sessions", body.String(), w, a.focus == focusList)
}
