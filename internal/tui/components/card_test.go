package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/theirongolddev/cinspect/internal/tui/theme"
)

func init() {
	// Force TrueColor output so border colors show up as ANSI codes
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestSplitWidth(t *testing.T) {
	got := splitWidth(83, 4)
	want := []int{21, 21, 21, 20}
	sum := 0
	for i, w := range got {
		sum += w
		if w != want[i] {
			t.Errorf("splitWidth(83, 4)[%d] = %d, want %d", i, w, want[i])
		}
	}
	if sum != 83 {
		t.Errorf("widths sum to %d, want 83", sum)
	}
	if splitWidth(10, 0) != nil {
		t.Error("splitWidth with no slots returned widths")
	}
}

func TestMetricRowSpansWidth(t *testing.T) {
	theme.SetActive("flexoki-dark")
	row := MetricRow([]Metric{
		{Label: "Messages", Value: "42"},
		{Label: "Tokens", Value: "1.2M"},
		{Label: "Agents", Value: "3"},
		{Label: "Duration", Value: "14m"},
	}, 83)

	for i, line := range strings.Split(row, "\n") {
		if w := lipgloss.Width(line); w != 83 {
			t.Errorf("line %d width = %d, want 83", i, w)
		}
	}
}

func TestMetricRowAlignsBorders(t *testing.T) {
	theme.SetActive("flexoki-dark")
	metrics := []Metric{
		{Label: "Messages", Value: "42"},
		{Label: "Tokens", Value: "1.2M", Detail: "1.0M in / 200K out"},
		{Label: "Agents", Value: "3"},
	}

	row := MetricRow(metrics, 90)
	lines := strings.Split(row, "\n")
	if len(lines) != 5 {
		t.Fatalf("row height = %d, want 5 (border, label, value, detail, border)", len(lines))
	}
	if n := strings.Count(lines[len(lines)-1], "╰"); n != len(metrics) {
		t.Errorf("bottom line closes %d tiles, want %d: %q", n, len(metrics), lines[len(lines)-1])
	}
	if !strings.Contains(row, "200K out") {
		t.Error("detail line missing")
	}

	plain := MetricRow([]Metric{{Label: "Messages", Value: "42"}}, 30)
	if h := lipgloss.Height(plain); h != 4 {
		t.Errorf("row without details height = %d, want 4", h)
	}
}

func TestContentCardFocus(t *testing.T) {
	theme.SetActive("flexoki-dark")
	focusColor := "38;2;58;169;159" // FlexokiDark.BorderFocus

	focused := ContentCard("Sessions", "body", 30, true)
	if !strings.Contains(focused, "▸ Sessions") {
		t.Errorf("focused card lacks marker: %q", focused)
	}
	if !strings.Contains(focused, focusColor) {
		t.Error("focused card not drawn in the focus color")
	}

	plain := ContentCard("Sessions", "body", 30, false)
	if strings.Contains(plain, "▸") {
		t.Error("unfocused card carries the focus marker")
	}
	if strings.Contains(plain, focusColor) {
		t.Error("unfocused card drawn in the focus color")
	}
	if lipgloss.Width(plain) != 30 || lipgloss.Width(focused) != 30 {
		t.Errorf("widths = %d, %d, want 30", lipgloss.Width(plain), lipgloss.Width(focused))
	}
}

func TestJoinPanesKeepsTallestHeight(t *testing.T) {
	theme.SetActive("flexoki-dark")
	short := ContentCard("Sessions", "one", 22, true)
	tall := ContentCard("Session 1a2b", "a\nb\nc\nd\ne", 40, false)

	joined := JoinPanes(short, tall)
	if got, want := lipgloss.Height(joined), lipgloss.Height(tall); got != want {
		t.Errorf("joined height = %d, want %d", got, want)
	}
	for i, line := range strings.Split(joined, "\n") {
		if w := lipgloss.Width(line); w != 62 {
			t.Errorf("line %d width = %d, want 62", i, w)
		}
	}
	if JoinPanes() != "" {
		t.Error("JoinPanes with no panes rendered output")
	}
}

func TestProgressBarClamps(t *testing.T) {
	theme.SetActive("terminal")
	defer theme.SetActive("flexoki-dark")

	full := ProgressBar(1.5, 20)
	if !strings.Contains(full, "100%") || strings.Contains(full, "░") {
		t.Errorf("over-full bar = %q", full)
	}
	if w := lipgloss.Width(full); w != 25 {
		t.Errorf("bar width = %d, want 25", w)
	}

	empty := ProgressBar(-1, 20)
	if strings.Contains(empty, "█") || !strings.Contains(empty, "0%") {
		t.Errorf("negative bar = %q", empty)
	}
}
