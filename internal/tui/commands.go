package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/theirongolddev/cinspect/internal/index"
	"github.com/theirongolddev/cinspect/internal/model"
	"github.com/theirongolddev/cinspect/internal/store"
)

// DataLoadedMsg is sent when the initial scan finishes.
type DataLoadedMsg struct {
	Rows     []model.SessionSummary
	Files    int
	Projects int
	LoadTime time.Duration
	Err      error
}

// ProgressMsg reports file parsing progress.
type ProgressMsg struct {
	Current int
	Total   int
}

// ListMsg carries the session list after a filter change.
type ListMsg struct {
	Filter model.Filter
	Rows   []model.SessionSummary
	Err    error
}

// RescanMsg is sent when a rescan completes.
type RescanMsg struct {
	Added int
	Rows  []model.SessionSummary
	Err   error
}

// PageMsg carries one page of the detail view.
type PageMsg struct {
	View      detailView
	Page      index.Page
	Agents    []model.AgentMetadata
	Refreshed bool
	Err       error
}

// StaleMsg reports the staleness of the open detail view.
type StaleMsg struct {
	View  detailView
	Stale bool
}

type tickMsg struct{}

// staleInterval is how often the open session's log is checked for changes.
const staleInterval = 2 * time.Second

func tickCmd() tea.Cmd {
	return tea.Tick(staleInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// detailView identifies what the detail pane shows: a session, or one of
// its agent side-chains.
type detailView struct {
	sessionID string
	agentID   string
}

func (v detailView) isAgent() bool { return v.agentID != "" }

// key is the cache key of the viewed log.
func (v detailView) key() string {
	if v.isAgent() {
		return store.AgentKey(v.sessionID, v.agentID)
	}
	return v.sessionID
}

// loadDataCmd runs the initial scan in a background goroutine. It streams
// ProgressMsg updates (sent by the index's progress callback) and a final
// DataLoadedMsg through sub.
func loadDataCmd(ix *index.Index, filter model.Filter, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()
			result, err := ix.Load()
			if err != nil {
				sub <- DataLoadedMsg{LoadTime: time.Since(start), Err: err}
				return
			}
			rows, err := ix.List(filter)
			sub <- DataLoadedMsg{
				Rows:     rows,
				Files:    result.TotalFiles,
				Projects: result.ProjectCount,
				LoadTime: time.Since(start),
				Err:      err,
			}
		}()

		// Block until the first message (either ProgressMsg or DataLoadedMsg)
		return <-sub
	}
}

// waitForLoadMsg blocks until the next message arrives from the loader goroutine.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

func listCmd(ix *index.Index, filter model.Filter) tea.Cmd {
	return func() tea.Msg {
		rows, err := ix.List(filter)
		return ListMsg{Filter: filter, Rows: rows, Err: err}
	}
}

func rescanCmd(ix *index.Index, filter model.Filter) tea.Cmd {
	return func() tea.Msg {
		added, _, err := ix.Rescan()
		if err != nil {
			return RescanMsg{Err: err}
		}
		rows, err := ix.List(filter)
		return RescanMsg{Added: added, Rows: rows, Err: err}
	}
}

// pageCmd loads one page of v, reading the log on first access.
func pageCmd(ix *index.Index, v detailView, page int) tea.Cmd {
	return func() tea.Msg {
		return loadPage(ix, v, page, false)
	}
}

// refreshCmd re-reads v from disk and reloads the current page.
func refreshCmd(ix *index.Index, v detailView, page int) tea.Cmd {
	return func() tea.Msg {
		var err error
		if v.isAgent() {
			_, err = ix.RefreshAgent(v.sessionID, v.agentID)
		} else {
			_, err = ix.Refresh(v.sessionID)
		}
		if err != nil {
			return PageMsg{View: v, Err: err}
		}
		return loadPage(ix, v, page, true)
	}
}

func loadPage(ix *index.Index, v detailView, page int, refreshed bool) PageMsg {
	msg := PageMsg{View: v, Refreshed: refreshed}
	if v.isAgent() {
		msg.Page, msg.Err = ix.AgentPage(v.sessionID, v.agentID, page, 0)
		return msg
	}
	msg.Page, msg.Err = ix.Page(v.sessionID, page, 0)
	if msg.Err == nil {
		msg.Agents, msg.Err = ix.Agents(v.sessionID)
	}
	return msg
}

func staleCmd(ix *index.Index, v detailView) tea.Cmd {
	return func() tea.Msg {
		stale, err := ix.IsStale(v.key())
		if err != nil {
			return nil
		}
		return StaleMsg{View: v, Stale: stale}
	}
}
