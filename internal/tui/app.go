// Package tui provides the interactive Bubble Tea session browser.
package tui

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/theirongolddev/cinspect/internal/cli"
	"github.com/theirongolddev/cinspect/internal/index"
	"github.com/theirongolddev/cinspect/internal/model"
	"github.com/theirongolddev/cinspect/internal/tui/components"
	"github.com/theirongolddev/cinspect/internal/tui/theme"
	"github.com/theirongolddev/cinspect/internal/watch"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Options configures the browser.
type Options struct {
	ClaudeDir string
	Filter    model.Filter
	PageSize  int
	Logger    *log.Logger // defaults to discarding; the screen is owned by the TUI

	// Watch feeds log modifications into the index so the open view can be
	// marked stale.
	Watch bool
}

// Pane focus.
const (
	focusList = iota
	focusDetail
)

// App is the root Bubble Tea model.
type App struct {
	ix        *index.Index
	stopWatch func() // nil when not watching

	// Data
	rows      []model.SessionSummary
	filter    model.Filter
	loaded    bool
	loadTime  time.Duration
	loadErr   error
	fileCount int
	projects  int

	// List state
	cursor int
	offset int // scroll offset for the list

	// Detail state
	focus        int
	detail       detailView
	detailOpen   bool
	detailLoad   bool
	page         index.Page
	agents       []model.AgentMetadata
	pageErr      error
	stale        bool
	checking     bool
	detailScroll int
	parentPage   int // page of the parent session while an agent is open

	// UI state
	width    int
	height   int
	showHelp bool
	notice   string

	// Filter form (huh)
	filterForm *huh.Form
	filterVals *filterValues // bound to filterForm fields

	// Loading: channel-based progress subscription
	spinner     spinner.Model
	progress    int
	progressMax int
	loadSub     chan tea.Msg // progress + completion messages from loader goroutine
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 200

	// Scroll navigation
	scrollOverhead    = 10 // approximate header + status bar height for half-page calc
	minHalfPageScroll = 1  // minimum lines for half-page scroll
	minContentHeight  = 5  // minimum content area height
)

// NewApp opens an index over opts.ClaudeDir and returns the browser model.
// The scan starts when the program runs Init. Call Close when done.
func NewApp(opts Options) (App, error) {
	sub := make(chan tea.Msg, 1)

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	ix, err := index.Open(index.Options{
		ClaudeDir: opts.ClaudeDir,
		PageSize:  opts.PageSize,
		Logger:    logger,
		// Non-blocking send so workers aren't stalled.
		// If the channel is full, we skip this update; the next one catches up.
		Progress: func(current, total int) {
			select {
			case sub <- ProgressMsg{Current: current, Total: total}:
			default:
			}
		},
	})
	if err != nil {
		return App{}, err
	}

	var stopWatch func()
	if opts.Watch {
		stopWatch = startWatcher(ix, opts.ClaudeDir, logger)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		ix:        ix,
		stopWatch: stopWatch,
		filter:    opts.Filter,
		spinner:   sp,
		loadSub:   sub,
	}, nil
}

// startWatcher records observed log mtimes in ix until the returned stop
// function is called. A directory that cannot be watched is logged and
// leaves staleness to the refresh key.
func startWatcher(ix *index.Index, claudeDir string, logger *log.Logger) func() {
	w, err := watch.New(claudeDir, logger, func(ev watch.Event) {
		ix.NoteModified(ev.Path, ev.Mtime)
	})
	if err != nil {
		logger.Printf("cinspect: %v", err)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Run(ctx); err != nil {
			logger.Printf("cinspect: watcher stopped: %v", err)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// Close stops the watcher and releases the index.
func (a App) Close() error {
	if a.stopWatch != nil {
		a.stopWatch()
	}
	return a.ix.Close()
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.ix, a.filter, a.loadSub),
		a.spinner.Tick,
		tickCmd(),
	)
}

// setRows replaces the list and keeps the cursor on the same session when
// it is still listed.
func (a *App) setRows(rows []model.SessionSummary) {
	var selected string
	if a.cursor < len(a.rows) {
		selected = a.rows[a.cursor].SessionID
	}
	a.rows = rows

	a.cursor = 0
	for i, r := range rows {
		if r.SessionID == selected {
			a.cursor = i
			break
		}
	}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.filterForm != nil {
			a.filterForm = a.filterForm.WithWidth(min(msg.Width, 80)).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.filterForm != nil {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			if a.focus == focusDetail {
				a.detailScroll = max(a.detailScroll-1, 0)
			} else {
				a.moveCursor(-1)
			}
		case tea.MouseButtonWheelDown:
			if a.focus == focusDetail {
				a.detailScroll++
			} else {
				a.moveCursor(1)
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case DataLoadedMsg:
		a.loaded = true
		a.loadTime = msg.LoadTime
		a.loadErr = msg.Err
		a.fileCount = msg.Files
		a.projects = msg.Projects
		a.setRows(msg.Rows)
		return a, nil

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case ListMsg:
		if msg.Err != nil {
			a.notice = "filter: " + msg.Err.Error()
			return a, nil
		}
		a.filter = msg.Filter
		a.setRows(msg.Rows)
		return a, nil

	case RescanMsg:
		if msg.Err != nil {
			a.notice = "rescan failed: " + msg.Err.Error()
			return a, nil
		}
		a.setRows(msg.Rows)
		a.notice = fmt.Sprintf("rescan: %d new sessions", msg.Added)
		return a, nil

	case PageMsg:
		// Discard results for a view the user already left.
		if msg.View != a.detail {
			return a, nil
		}
		a.detailLoad = false
		a.pageErr = msg.Err
		if msg.Err != nil {
			return a, nil
		}
		if msg.Page.Page != a.page.Page || msg.Refreshed {
			a.detailScroll = 0
		}
		a.page = msg.Page
		if !msg.View.isAgent() {
			a.agents = msg.Agents
		}
		if msg.Refreshed {
			a.stale = false
			a.notice = "reloaded from disk"
			return a, listCmd(a.ix, a.filter)
		}
		return a, staleCmd(a.ix, a.detail)

	case StaleMsg:
		a.checking = false
		if msg.View == a.detail {
			a.stale = msg.Stale
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.detailOpen && !a.detailLoad && !a.checking {
			a.checking = true
			cmds = append(cmds, staleCmd(a.ix, a.detail))
		}
		return a, tea.Batch(cmds...)
	}

	// Forward unhandled messages to the filter form (cursor blinks, etc.)
	if a.filterForm != nil {
		return a.updateFilterForm(msg)
	}

	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Global: quit
	if key == "ctrl+c" {
		return a, tea.Quit
	}

	if !a.loaded {
		return a, nil
	}

	// Filter form intercepts all keys
	if a.filterForm != nil {
		if key == "esc" {
			a.filterForm = nil
			return a, nil
		}
		return a.updateFilterForm(msg)
	}

	// Help toggle
	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}

	// Dismiss help
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	a.notice = ""

	switch key {
	case "f":
		return a.openFilterForm()
	case "R":
		a.notice = "rescanning..."
		return a, rescanCmd(a.ix, a.filter)
	}

	if a.focus == focusDetail {
		return a.updateDetailKey(key)
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "j", "down":
		a.moveCursor(1)
	case "k", "up":
		a.moveCursor(-1)
	case "g", "home":
		a.cursor = 0
		a.offset = 0
	case "G", "end":
		a.cursor = max(len(a.rows)-1, 0)
	case "enter", "l", "right":
		return a.openSelected()
	case "tab":
		if a.detailOpen {
			a.focus = focusDetail
		}
	case "esc":
		if !a.filter.Equal(model.DefaultFilter()) {
			return a, listCmd(a.ix, model.DefaultFilter())
		}
	}
	return a, nil
}

func (a *App) moveCursor(delta int) {
	a.cursor = min(max(a.cursor+delta, 0), max(len(a.rows)-1, 0))
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	if !a.loaded {
		return a.viewLoading()
	}

	if a.filterForm != nil {
		return a.viewFilterForm()
	}

	if a.showHelp {
		return a.viewHelp()
	}

	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)

	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  cinspect needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)

	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active
	w := a.width
	h := a.height

	// Polished loading card with accent border
	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderFocus).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	subtitleStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	spinnerStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface)

	countStyle := lipgloss.NewStyle().
		Foreground(t.TextPrimary).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ cinspect"))
	b.WriteString(subtitleStyle.Render(" · Claude Code session browser"))
	b.WriteString("\n\n")

	if a.progressMax > 0 {
		barW := min(max(w-30, 20), 40)
		pct := float64(a.progress) / float64(a.progressMax)
		b.WriteString(spinnerStyle.Render(a.spinner.View()))
		b.WriteString(subtitleStyle.Render(" Indexing sessions\n\n"))
		b.WriteString(components.ProgressBar(pct, barW))
		b.WriteString("\n")
		b.WriteString(countStyle.Render(cli.FormatNumber(int64(a.progress))))
		b.WriteString(subtitleStyle.Render(" / "))
		b.WriteString(countStyle.Render(cli.FormatNumber(int64(a.progressMax))))
	} else {
		b.WriteString(spinnerStyle.Render(a.spinner.View()))
		b.WriteString(subtitleStyle.Render(" Discovering sessions..."))
	}

	card := cardStyle.Render(b.String())

	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderFocus).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings []struct{ key, desc string }
	}{
		{"Session list", []struct{ key, desc string }{
			{"j k", "Move selection"},
			{"g G", "First / last session"},
			{"Enter", "Open session"},
			{"Tab", "Focus open session"},
			{"Esc", "Clear filters"},
		}},
		{"Session view", []struct{ key, desc string }{
			{"n p", "Next / previous page"},
			{"g G", "First / last page"},
			{"j k", "Scroll"},
			{"^d ^u", "Half-page scroll"},
			{"r", "Reload from disk"},
			{"a", "Open first agent on page"},
			{"Esc", "Back"},
		}},
		{"Global", []struct{ key, desc string }{
			{"f", "Edit filters"},
			{"R", "Rescan for new sessions"},
			{"?", "Toggle help"},
			{"q", "Back / quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, sec := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	// 1. Header
	crumbs := []string{"Sessions"}
	if a.detailOpen {
		crumbs = append(crumbs, shortID(a.detail.sessionID))
		if a.detail.isAgent() {
			crumbs = append(crumbs, "agent "+a.detail.agentID)
		}
	}
	right := fmt.Sprintf("%d sessions", len(a.rows))
	if n := a.filter.ActiveCount(); n > 0 {
		right += fmt.Sprintf(" · %d filters", n)
	}
	header := components.RenderHeader(crumbs, right, w)

	// 2. Status bar
	notice := a.notice
	if notice == "" && a.loadErr != nil {
		notice = a.loadErr.Error()
	}
	statusBar := components.RenderStatusBar(w, a.statusHints(), notice,
		fmt.Sprintf("Loaded in %.1fs", a.loadTime.Seconds()))

	// 3. Content zone height
	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	// 4. Panes
	var content string
	switch {
	case a.isCompactLayout() && a.focus == focusDetail:
		content = a.renderDetailCard(cw, contentH)
	case a.isCompactLayout() || !a.detailOpen:
		content = a.renderListCard(cw, contentH)
	default:
		leftW := max(cw/3, 36)
		content = components.JoinPanes(
			a.renderListCard(leftW, contentH),
			a.renderDetailCard(cw-leftW, contentH),
		)
	}

	// 5. Truncate + pad to exactly contentH lines
	content = padHeight(truncateHeight(content, contentH), contentH)

	// 6. Fill each line to full width with background
	content = fillLinesWithBackground(content, cw, t.Background)

	// 7. Place content with background fill (handles centering when w > cw)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) statusHints() string {
	if a.focus == focusDetail {
		return "[n/p]page  [r]eload  [a]gent  [esc]back  [?]help"
	}
	return "[enter]open  [f]ilter  [R]escan  [?]help  [q]uit"
}

// ─── Helpers ────────────────────────────────────────────────────

// shortID keeps the first uuid group.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 && len(id) > 20 {
		return id[:i]
	}
	return id
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	padding := strings.Repeat("\n", h-len(lines))
	return s + padding
}

// fillLinesWithBackground pads each line to width w with background color.
// This ensures gaps between cards and empty lines have proper background fill.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	var result strings.Builder
	for i, line := range lines {
		placed := lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
		result.WriteString(placed)
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}
