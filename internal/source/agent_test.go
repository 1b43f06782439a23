package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/theirongolddev/cinspect/internal/model"
)

func TestExtractAgentMetadata(t *testing.T) {
	line := `{"type":"user","message":{"role":"user","content":[` +
		`{"type":"text","text":"done"},` +
		`{"type":"tool_result","tool_use_id":"toolu_first","content":"x"},` +
		`{"type":"tool_result","tool_use_id":"toolu_second"}]},` +
		`"toolUseResult":{"agentId":"57a58820","prompt":"Find the bug","status":"completed",` +
		`"totalTokens":1234,"totalDurationMs":5678,` +
		`"content":[{"type":"image"},{"type":"text","text":"Found it"},{"type":"text","text":"later"}]}}`

	meta := ExtractAgentMetadata(mustRecord(t, line))
	if meta == nil {
		t.Fatal("ExtractAgentMetadata = nil")
	}
	want := model.AgentMetadata{
		AgentID:         "57a58820",
		ToolUseID:       "toolu_first",
		Prompt:          "Find the bug",
		Status:          "completed",
		TotalTokens:     1234,
		TotalDurationMs: 5678,
		Summary:         "Found it",
	}
	if *meta != want {
		t.Errorf("meta = %+v\nwant %+v", *meta, want)
	}
}

func TestExtractAgentMetadata_Defaults(t *testing.T) {
	meta := ExtractAgentMetadata(mustRecord(t, `{"type":"user","toolUseResult":{"agentId":"a1"}}`))
	if meta == nil {
		t.Fatal("ExtractAgentMetadata = nil")
	}
	if meta.ToolUseID != model.UnknownValue || meta.Status != model.UnknownValue {
		t.Errorf("ToolUseID/Status = %q/%q, want unknown/unknown", meta.ToolUseID, meta.Status)
	}
	if meta.Prompt != "" || meta.Summary != "" || meta.TotalTokens != 0 || meta.TotalDurationMs != 0 {
		t.Errorf("meta = %+v, want zero values", *meta)
	}
}

func TestExtractAgentMetadata_Absent(t *testing.T) {
	tests := []string{
		`{"type":"user"}`,
		`{"type":"user","toolUseResult":"Error: denied"}`,
		`{"type":"user","toolUseResult":{"stdout":"ok"}}`,
		`{"type":"user","toolUseResult":{"agentId":""}}`,
		`{"type":"user","toolUseResult":{"agentId":42}}`,
	}
	for _, line := range tests {
		if meta := ExtractAgentMetadata(mustRecord(t, line)); meta != nil {
			t.Errorf("%s: meta = %+v, want nil", line, *meta)
		}
	}
}

func TestExtractAgentMetadata_SummaryTruncated(t *testing.T) {
	text := strings.Repeat("s", 250)
	line := `{"toolUseResult":{"agentId":"a","content":[{"type":"text","text":"` + text + `"}]}}`
	meta := ExtractAgentMetadata(mustRecord(t, line))
	if want := strings.Repeat("s", AgentSummaryLength) + "..."; meta.Summary != want {
		t.Errorf("len(Summary) = %d, want %d", len(meta.Summary), len(want))
	}
}

func writeAgent(t *testing.T, claudeDir, projectDir, agentID string, lines ...string) {
	t.Helper()
	path := AgentPath(claudeDir, projectDir, agentID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadAgent(t *testing.T) {
	dir := t.TempDir()
	writeAgent(t, dir, "-home-me-projects-demo", "57a58820",
		`{"type":"user","agentId":"57a58820","timestamp":"2025-06-01T10:00:00Z","message":{"role":"user","content":"Find the bug"}}`,
		`{"type":"assistant","sessionId":"parent-1","timestamp":"2025-06-01T10:00:09Z","message":{"role":"assistant","content":[{"type":"text","text":"Found it"},{"type":"tool_use","id":"t1","name":"Grep"}]}}`,
		`{"type":"user","sessionId":"parent-2","timestamp":"2025-06-01T10:00:10Z"}`,
	)

	s, err := LoadAgent(dir, "-home-me-projects-demo", "57a58820")
	if err != nil {
		t.Fatalf("LoadAgent: %v", err)
	}
	if !s.IsAgent {
		t.Error("IsAgent = false")
	}
	if s.SessionID != "agent-57a58820" {
		t.Errorf("SessionID = %q", s.SessionID)
	}
	if s.ParentSessionID != "parent-1" {
		t.Errorf("ParentSessionID = %q, want parent-1", s.ParentSessionID)
	}
	if s.Project != "demo" {
		t.Errorf("Project = %q, want demo", s.Project)
	}
	if len(s.Messages) != 3 {
		t.Fatalf("len(Messages) = %d, want 3", len(s.Messages))
	}
	if got := len(s.Messages[1].ContentBlocks); got != 2 {
		t.Errorf("agent message blocks = %d, want 2 (full depth)", got)
	}
}

func TestLoadAgent_Missing(t *testing.T) {
	_, err := LoadAgent(t.TempDir(), "proj", "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
