package cli

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cinspect/internal/config"
	"github.com/theirongolddev/cinspect/internal/model"
	"github.com/theirongolddev/cinspect/internal/store"
)

// Theme colors (Flexoki Dark)
var (
	ColorBg       = lipgloss.Color("#100F0F")
	ColorSurface  = lipgloss.Color("#1C1B1A")
	ColorBorder   = lipgloss.Color("#282726")
	ColorTextDim  = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText     = lipgloss.Color("#FFFCF0")
	ColorAccent   = lipgloss.Color("#3AA99F")
	ColorGreen    = lipgloss.Color("#879A39")
	ColorOrange   = lipgloss.Color("#DA702C")
	ColorRed      = lipgloss.Color("#D14D41")
	ColorBlue     = lipgloss.Color("#4385BE")
	ColorPurple   = lipgloss.Color("#8B7EC8")
	ColorYellow   = lipgloss.Color("#D0A215")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)
)

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Widths  []int // optional column widths, auto-calculated if nil

	// RightAlign marks numeric columns.
	RightAlign []bool
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	width := 55
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(width).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderTable renders a bordered table with headers and rows.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	// Calculate column widths
	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}

	widths := make([]int, numCols)
	if t.Widths != nil {
		copy(widths, t.Widths)
	} else {
		for i, h := range t.Headers {
			widths[i] = max(widths[i], lipgloss.Width(h))
		}
		for _, row := range t.Rows {
			for i, cell := range row {
				if i < numCols {
					widths[i] = max(widths[i], lipgloss.Width(cell))
				}
			}
		}
	}

	var b strings.Builder

	// Title above table if present
	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	// Top border
	b.WriteString(dimStyle.Render("╭"))
	for i, w := range widths {
		b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
		if i < numCols-1 {
			b.WriteString(dimStyle.Render("┬"))
		}
	}
	b.WriteString(dimStyle.Render("╮"))
	b.WriteString("\n")

	// Header row
	if len(t.Headers) > 0 {
		b.WriteString(dimStyle.Render("│"))
		for i, h := range t.Headers {
			w := widths[i]
			padded := " " + padRight(h, w) + " "
			b.WriteString(headerStyle.Render(padded))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")

		// Header separator
		b.WriteString(dimStyle.Render("├"))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("┼"))
			}
		}
		b.WriteString(dimStyle.Render("┤"))
		b.WriteString("\n")
	}

	// Data rows
	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			// Separator row
			b.WriteString(dimStyle.Render("├"))
			for i, w := range widths {
				b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
				if i < numCols-1 {
					b.WriteString(dimStyle.Render("┼"))
				}
			}
			b.WriteString(dimStyle.Render("┤"))
			b.WriteString("\n")
			continue
		}

		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			w := widths[i]
			cell := ""
			if i < len(row) {
				cell = row[i]
			}

			var padded string
			if t.RightAlign != nil && i < len(t.RightAlign) && t.RightAlign[i] {
				padded = " " + padLeft(cell, w) + " "
			} else {
				padded = " " + padRight(cell, w) + " "
			}
			b.WriteString(valueStyle.Render(padded))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}

	// Bottom border
	b.WriteString(dimStyle.Render("╰"))
	for i, w := range widths {
		b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
		if i < numCols-1 {
			b.WriteString(dimStyle.Render("┴"))
		}
	}
	b.WriteString(dimStyle.Render("╯"))
	b.WriteString("\n")

	return b.String()
}

// padRight pads s with spaces to display width w, truncating when wider.
func padRight(s string, w int) string {
	if sw := lipgloss.Width(s); sw < w {
		return s + strings.Repeat(" ", w-sw)
	} else if sw > w {
		return truncateWidth(s, w)
	}
	return s
}

func padLeft(s string, w int) string {
	if sw := lipgloss.Width(s); sw < w {
		return strings.Repeat(" ", w-sw) + s
	} else if sw > w {
		return truncateWidth(s, w)
	}
	return s
}

func truncateWidth(s string, w int) string {
	var b strings.Builder
	used := 0
	for _, r := range s {
		rw := lipgloss.Width(string(r))
		if used+rw > w {
			break
		}
		b.WriteRune(r)
		used += rw
	}
	return b.String() + strings.Repeat(" ", w-used)
}

// SessionTable builds the session list table. Ages are relative to now.
func SessionTable(rows []model.SessionSummary, now time.Time) Table {
	t := Table{
		Headers:    []string{"Session", "Started", "Age", "Branch", "Msgs", "Tokens", "Description"},
		RightAlign: []bool{false, false, false, false, true, true, false},
	}
	for _, s := range rows {
		t.Rows = append(t.Rows, []string{
			shortID(s.SessionID),
			FormatTime(s.StartTime),
			FormatAge(s.StartTime, now),
			model.TruncateWithSuffix(s.BranchLabel(), 24),
			FormatNumber(int64(s.MessageCount)),
			FormatTokens(s.TotalTokens),
			model.TruncateWithSuffix(s.Description, 60),
		})
	}
	return t
}

// AgentTable lists the agents spawned by a session.
func AgentTable(agents []model.AgentMetadata) Table {
	t := Table{
		Title:      "Agents",
		Headers:    []string{"Agent", "Status", "Tokens", "Duration", "Prompt"},
		RightAlign: []bool{false, false, true, true, false},
	}
	for _, a := range agents {
		t.Rows = append(t.Rows, []string{
			a.AgentID,
			a.Status,
			FormatTokens(a.TotalTokens),
			FormatDuration(time.Duration(a.TotalDurationMs) * time.Millisecond),
			model.TruncateWithSuffix(firstLine(a.Prompt), 50),
		})
	}
	return t
}

// ModelTable summarizes per-model usage. Cost is an estimate at list price;
// unpriced models show N/A.
func ModelTable(models []store.ModelUsage) Table {
	t := Table{
		Title:      "Models",
		Headers:    []string{"Model", "Messages", "Input", "Output", "Est. cost"},
		RightAlign: []bool{false, true, true, true, true},
	}
	for _, m := range models {
		cost := NotAvailable
		if c, ok := config.EstimateCost(m.Model, m.InputTokens, m.OutputTokens); ok {
			cost = FormatCost(c)
		}
		t.Rows = append(t.Rows, []string{
			m.Model,
			FormatNumber(int64(m.Messages)),
			FormatTokens(m.InputTokens),
			FormatTokens(m.OutputTokens),
			cost,
		})
	}
	return t
}

// shortID keeps the first uuid group, which is unique enough to read.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 && len(id) > 20 {
		return id[:i]
	}
	return id
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Muted styles secondary text.
func Muted(s string) string {
	return mutedStyle.Render(s)
}
