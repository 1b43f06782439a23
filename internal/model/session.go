// Package model defines the session, message, and content block types shared
// by the indexer, the cache, and every consumer of the query layer.
package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Record kinds the indexer treats specially. The set is open: producers add
// new kinds over time, so consumers must tolerate any other string.
const (
	TypeUser                = "user"
	TypeAssistant           = "assistant"
	TypeSummary             = "summary"
	TypeFileHistorySnapshot = "file-history-snapshot"
)

// Description constants.
const (
	MaxDescriptionLength = 100
	TruncationSuffix     = "..."
	UntitledSession      = "Untitled Session"
)

// SessionMessage is one record of a session log, ready for display.
type SessionMessage struct {
	UUID      string `json:"uuid"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"` // raw producer value, not guaranteed parseable
	Role      string `json:"role,omitempty"`

	// Content is the legacy flattened text: every text block joined by newlines.
	Content       string         `json:"content,omitempty"`
	ContentBlocks []ContentBlock `json:"content_blocks,omitempty"`

	Model        string `json:"model,omitempty"`
	TokensInput  int64  `json:"tokens_input"`
	TokensOutput int64  `json:"tokens_output"`

	AgentMetadata *AgentMetadata `json:"agent_metadata,omitempty"`
}

// IsConversational reports whether the message counts toward MessageCount.
func (m SessionMessage) IsConversational() bool {
	return m.Type == TypeUser || m.Type == TypeAssistant
}

// HasText reports whether the flattened content carries anything besides whitespace.
func (m SessionMessage) HasText() bool {
	return strings.TrimSpace(m.Content) != ""
}

// AgentMetadata describes a sub-agent spawned by a tool invocation.
type AgentMetadata struct {
	AgentID         string `json:"agent_id"`
	ToolUseID       string `json:"tool_use_id"`
	Prompt          string `json:"prompt"`
	Status          string `json:"status"` // open set: "completed", "failed", ...
	TotalTokens     int64  `json:"total_tokens"`
	TotalDurationMs int64  `json:"total_duration_ms"`
	Summary         string `json:"summary"`
}

// Session is one conversation, backed by one log file.
type Session struct {
	SessionID       string `json:"session_id"`
	ParentSessionID string `json:"parent_session_id,omitempty"`

	ProjectPath string `json:"project_path"` // cwd learned from the records
	ProjectDir  string `json:"project_dir"`  // on-disk directory segment under projects/
	Project     string `json:"project"`      // display name decoded from ProjectDir
	FilePath    string `json:"file_path"`

	// Summary is first-writer-wins; HasSummary distinguishes "never seen"
	// from "seen but empty".
	Summary    string `json:"summary,omitempty"`
	HasSummary bool   `json:"-"`

	GitBranch string    `json:"git_branch,omitempty"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	IsAgent   bool      `json:"is_agent"`

	Messages []SessionMessage `json:"messages"`
}

// ObserveTime widens the session's time range to include ts.
func (s *Session) ObserveTime(ts time.Time) {
	if s.StartTime.IsZero() || ts.Before(s.StartTime) {
		s.StartTime = ts
	}
	if s.EndTime.IsZero() || ts.After(s.EndTime) {
		s.EndTime = ts
	}
}

// MessageCount counts user and assistant records only.
func (s *Session) MessageCount() int {
	n := 0
	for _, m := range s.Messages {
		if m.IsConversational() {
			n++
		}
	}
	return n
}

// TotalTokens sums input and output tokens across all messages.
func (s *Session) TotalTokens() int64 {
	return s.TotalInputTokens() + s.TotalOutputTokens()
}

// TotalInputTokens sums input tokens across all messages.
func (s *Session) TotalInputTokens() int64 {
	var n int64
	for _, m := range s.Messages {
		n += m.TokensInput
	}
	return n
}

// TotalOutputTokens sums output tokens across all messages.
func (s *Session) TotalOutputTokens() int64 {
	var n int64
	for _, m := range s.Messages {
		n += m.TokensOutput
	}
	return n
}

// Duration returns EndTime - StartTime. ok is false if either bound is unknown.
func (s *Session) Duration() (d time.Duration, ok bool) {
	if s.StartTime.IsZero() || s.EndTime.IsZero() {
		return 0, false
	}
	return s.EndTime.Sub(s.StartTime), true
}

// Description returns the summary when present, otherwise the first line of
// the first user message with text, otherwise UntitledSession.
func (s *Session) Description() string {
	if s.Summary != "" {
		return s.Summary
	}

	for _, m := range s.Messages {
		if m.Type != TypeUser || !m.HasText() {
			continue
		}
		line := strings.TrimSpace(m.Content)
		if i := strings.IndexByte(line, '\n'); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		return TruncateWithSuffix(line, MaxDescriptionLength)
	}

	return UntitledSession
}

// TruncateWithSuffix shortens s to at most limit characters, ending in
// TruncationSuffix when anything was cut.
func TruncateWithSuffix(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	keep := limit - len(TruncationSuffix)
	if keep < 0 {
		keep = 0
	}
	return string([]rune(s)[:keep]) + TruncationSuffix
}

// Summarize builds the list-view row for the session.
func (s *Session) Summarize() SessionSummary {
	return SessionSummary{
		SessionID:    s.SessionID,
		Description:  s.Description(),
		Project:      s.Project,
		ProjectPath:  s.ProjectPath,
		ProjectDir:   s.ProjectDir,
		GitBranch:    s.GitBranch,
		MessageCount: s.MessageCount(),
		TotalTokens:  s.TotalTokens(),
		InputTokens:  s.TotalInputTokens(),
		OutputTokens: s.TotalOutputTokens(),
		StartTime:    s.StartTime,
		EndTime:      s.EndTime,
	}
}

// SessionSummary is the list-view projection of a Session.
type SessionSummary struct {
	SessionID    string    `json:"session_id"`
	Description  string    `json:"description"`
	Project      string    `json:"project"`
	ProjectPath  string    `json:"project_path"`
	ProjectDir   string    `json:"project_dir"`
	GitBranch    string    `json:"git_branch"`
	MessageCount int       `json:"message_count"`
	TotalTokens  int64     `json:"total_tokens"`
	InputTokens  int64     `json:"input_tokens"`
	OutputTokens int64     `json:"output_tokens"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
}

// BranchLabel returns the git branch or "unknown".
func (s SessionSummary) BranchLabel() string {
	if s.GitBranch == "" {
		return "unknown"
	}
	return s.GitBranch
}
