package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/cinspect/internal/cli"
	"github.com/theirongolddev/cinspect/internal/index"
	"github.com/theirongolddev/cinspect/internal/model"
	"github.com/theirongolddev/cinspect/internal/tui/components"
	"github.com/theirongolddev/cinspect/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// maxBlockLines caps tool input and result bodies in the pane.
const maxBlockLines = 12

func (a App) updateDetailKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "esc", "q", "backspace", "h":
		return a.closeDetail()
	case "tab":
		a.focus = focusList
		return a, nil
	}

	if a.detailLoad {
		return a, nil
	}

	switch key {
	case "n", "right", "pgdown":
		return a.gotoPage(a.page.Page + 1)
	case "p", "left", "pgup":
		return a.gotoPage(a.page.Page - 1)
	case "g":
		return a.gotoPage(1)
	case "G":
		return a.gotoPage(a.page.TotalPages)
	case "j", "down":
		a.detailScroll++
	case "k", "up":
		a.detailScroll = max(a.detailScroll-1, 0)
	case "ctrl+d":
		a.detailScroll += max((a.height-scrollOverhead)/2, minHalfPageScroll)
	case "ctrl+u":
		a.detailScroll = max(a.detailScroll-max((a.height-scrollOverhead)/2, minHalfPageScroll), 0)
	case "r":
		a.detailLoad = true
		return a, refreshCmd(a.ix, a.detail, a.page.Page)
	case "a":
		return a.openAgent()
	}
	return a, nil
}

// gotoPage requests page p, clamped to the known range. Paging past either
// end is a no-op.
func (a App) gotoPage(p int) (tea.Model, tea.Cmd) {
	p = min(max(p, 1), max(a.page.TotalPages, 1))
	if p == a.page.Page {
		return a, nil
	}
	a.detailLoad = true
	return a, pageCmd(a.ix, a.detail, p)
}

// openAgent opens the first agent spawned by a message on the current page.
func (a App) openAgent() (tea.Model, tea.Cmd) {
	if a.detail.isAgent() {
		return a, nil
	}
	for _, m := range a.page.Messages {
		if m.AgentMetadata == nil {
			continue
		}
		a.parentPage = a.page.Page
		a.detail = detailView{sessionID: a.detail.sessionID, agentID: m.AgentMetadata.AgentID}
		a.detailLoad = true
		a.page = index.Page{}
		a.pageErr = nil
		a.stale = false
		a.detailScroll = 0
		return a, pageCmd(a.ix, a.detail, 1)
	}
	a.notice = "no agent spawned on this page"
	return a, nil
}

// closeDetail returns from an agent to its parent session, or from a session
// to the list.
func (a App) closeDetail() (tea.Model, tea.Cmd) {
	if a.detail.isAgent() {
		a.detail = detailView{sessionID: a.detail.sessionID}
		a.detailLoad = true
		a.page = index.Page{}
		a.pageErr = nil
		a.stale = false
		a.detailScroll = 0
		return a, pageCmd(a.ix, a.detail, a.parentPage)
	}
	a.focus = focusList
	return a, nil
}

func (a App) renderDetailCard(w, h int) string {
	t := theme.Active
	inner := components.CardInnerWidth(w)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	errStyle := lipgloss.NewStyle().Foreground(t.Error)

	title := "Session " + shortID(a.detail.sessionID)
	if a.detail.isAgent() {
		title = "Agent " + a.detail.agentID
	}
	focused := a.focus == focusDetail

	var head []string
	if !a.detail.isAgent() {
		head = append(head, a.sessionHeader(inner)...)
	}

	switch {
	case a.pageErr != nil:
		head = append(head, errStyle.Render(truncStr(a.pageErr.Error(), inner)))
		return components.ContentCard(title, strings.Join(head, "\n"), w, focused)
	case a.detailLoad && a.page.Page == 0:
		head = append(head, mutedStyle.Render("Loading..."))
		return components.ContentCard(title, strings.Join(head, "\n"), w, focused)
	}

	status := fmt.Sprintf("page %d/%d · %d messages", a.page.Page, a.page.TotalPages, a.page.Total)
	if n := len(a.agents); n > 0 && !a.detail.isAgent() {
		status += fmt.Sprintf(" · %d agents", n)
	}
	line := mutedStyle.Render(status)
	if a.stale {
		line += "  " + lipgloss.NewStyle().Foreground(t.Warning).Bold(true).Render("● changed on disk, r to reload")
	}
	head = append(head, line, "")

	lines := renderMessageLines(a.page.Messages, inner)
	visible := max(h-len(head)-3, 1) // card border (2) + title (1)
	scroll := min(a.detailScroll, max(len(lines)-visible, 0))
	end := min(scroll+visible, len(lines))

	body := append(head, lines[scroll:end]...)
	return components.ContentCard(title, strings.Join(body, "\n"), w, focused)
}

// sessionHeader summarizes the open session from the list row.
func (a App) sessionHeader(w int) []string {
	t := theme.Active
	descStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Bold(true)
	metaStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	var sum *model.SessionSummary
	for i := range a.rows {
		if a.rows[i].SessionID == a.detail.sessionID {
			sum = &a.rows[i]
			break
		}
	}
	if sum == nil {
		return nil
	}

	meta := fmt.Sprintf("%s · %s · %s", sum.Project, sum.BranchLabel(), cli.FormatTime(sum.StartTime))
	lines := []string{
		descStyle.Render(truncStr(sum.Description, w)),
		metaStyle.Render(truncStr(meta, w)),
	}

	duration := cli.NotAvailable
	if !sum.StartTime.IsZero() && !sum.EndTime.IsZero() {
		duration = cli.FormatDuration(sum.EndTime.Sub(sum.StartTime))
	}
	row := components.MetricRow([]components.Metric{
		{Label: "Messages", Value: cli.FormatNumber(int64(sum.MessageCount))},
		{
			Label:  "Tokens",
			Value:  cli.FormatTokens(sum.TotalTokens),
			Detail: cli.FormatTokens(sum.InputTokens) + " in / " + cli.FormatTokens(sum.OutputTokens) + " out",
		},
		{Label: "Agents", Value: cli.FormatNumber(int64(len(a.agents)))},
		{Label: "Duration", Value: duration},
	}, w)
	return append(lines, strings.Split(row, "\n")...)
}

// renderMessageLines renders messages into pane lines of at most w cells.
func renderMessageLines(msgs []model.SessionMessage, w int) []string {
	t := theme.Active
	userStyle := lipgloss.NewStyle().Foreground(t.User).Bold(true)
	assistantStyle := lipgloss.NewStyle().Foreground(t.Assistant).Bold(true)
	otherStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Bold(true)
	metaStyle := lipgloss.NewStyle().Foreground(t.TextDim)
	textStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	thinkStyle := lipgloss.NewStyle().Foreground(t.Thinking)
	toolStyle := lipgloss.NewStyle().Foreground(t.ToolUse)
	resultStyle := lipgloss.NewStyle().Foreground(t.ToolResult)
	agentStyle := lipgloss.NewStyle().Foreground(t.Accent)

	var lines []string
	add := func(style lipgloss.Style, indent, text string, limit int) {
		wrapped := wrapText(text, max(w-len(indent), 10))
		if limit > 0 && len(wrapped) > limit {
			wrapped = append(wrapped[:limit], model.TruncationSuffix)
		}
		for _, l := range wrapped {
			lines = append(lines, indent+style.Render(l))
		}
	}

	for _, m := range msgs {
		role := m.Role
		if role == "" {
			role = m.Type
		}
		roleStyle := otherStyle
		switch m.Type {
		case model.TypeUser:
			roleStyle = userStyle
		case model.TypeAssistant:
			roleStyle = assistantStyle
		}

		header := roleStyle.Render(strings.ToUpper(role))
		var meta []string
		if m.Model != "" {
			meta = append(meta, m.Model)
		}
		if m.Timestamp != "" {
			meta = append(meta, m.Timestamp)
		}
		if len(meta) > 0 {
			header += " " + metaStyle.Render(truncStr(strings.Join(meta, " · "), max(w-len(role)-1, 0)))
		}
		lines = append(lines, header)

		if len(m.ContentBlocks) == 0 && m.HasText() {
			add(textStyle, " ", m.Content, 0)
		}
		for _, b := range m.ContentBlocks {
			switch b.Type {
			case model.BlockText:
				add(textStyle, " ", b.Text, 0)
			case model.BlockThinking:
				lines = append(lines, " "+thinkStyle.Render("thinking"))
				add(dimStyle, "   ", b.Thinking, maxBlockLines)
			case model.BlockToolUse:
				lines = append(lines, " "+toolStyle.Render(truncStr(fmt.Sprintf("▸ %s (%s)", b.Name, b.IDShort), w-1)))
				add(dimStyle, "   ", b.Input, maxBlockLines)
			case model.BlockToolResult:
				lines = append(lines, " "+resultStyle.Render(truncStr("◂ result for "+b.ToolUseIDShort, w-1)))
				preview := b.ContentPreview
				if b.IsLong {
					preview += model.TruncationSuffix
				}
				add(dimStyle, "   ", preview, maxBlockLines)
			case model.BlockImage:
				lines = append(lines, " "+dimStyle.Render(fmt.Sprintf("[image %s]", b.SourceMediaType)))
			case model.BlockFileHistorySnapshot:
				lines = append(lines, " "+dimStyle.Render("[file snapshot]"))
			default:
				lines = append(lines, " "+dimStyle.Render("["+b.Type+"]"))
				add(dimStyle, "   ", b.Content, maxBlockLines)
			}
		}
		if ag := m.AgentMetadata; ag != nil {
			lines = append(lines, " "+agentStyle.Render(truncStr(
				fmt.Sprintf("⤷ agent %s (%s, %s tokens) press a to open", ag.AgentID, ag.Status, cli.FormatTokens(ag.TotalTokens)), w-1)))
		}
		lines = append(lines, "")
	}
	return lines
}

// wrapText splits text into lines of at most w display cells.
func wrapText(text string, w int) []string {
	var result []string
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		line = strings.ReplaceAll(line, "\t", "    ")
		for lipgloss.Width(line) > w {
			cut, width := 0, 0
			for i, r := range line {
				rw := lipgloss.Width(string(r))
				if width+rw > w {
					cut = i
					break
				}
				width += rw
			}
			if cut == 0 {
				break
			}
			result = append(result, line[:cut])
			line = line[cut:]
		}
		result = append(result, line)
	}
	return result
}
