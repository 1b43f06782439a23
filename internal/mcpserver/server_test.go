package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/theirongolddev/cinspect/internal/index"
	"github.com/theirongolddev/cinspect/internal/model"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	dir := t.TempDir()
	proj := filepath.Join(dir, "projects", "-home-dev-demo")
	if err := os.MkdirAll(proj, 0o755); err != nil {
		t.Fatal(err)
	}
	write := func(name string, lines ...string) {
		if err := os.WriteFile(filepath.Join(proj, name), []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	write("s1.jsonl",
		`{"type":"user","timestamp":"2025-06-01T10:00:00Z","gitBranch":"main","message":{"role":"user","content":"first"}}`,
		`{"type":"assistant","timestamp":"2025-06-01T10:00:01Z","message":{"role":"assistant","content":[{"type":"text","text":"a"}]}}`,
		`{"type":"user","timestamp":"2025-06-01T10:00:02Z","message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"toolu_9"}]},"toolUseResult":{"agentId":"a7","status":"completed","content":[{"type":"text","text":"done"}]}}`,
	)
	write("s2.jsonl",
		`{"type":"user","timestamp":"2025-06-02T10:00:00Z","gitBranch":"feature/x","message":{"role":"user","content":"second"}}`,
	)
	write("agent-a7.jsonl",
		`{"type":"user","sessionId":"s1","message":{"role":"user","content":"go"}}`,
		`{"type":"assistant","message":{"role":"assistant","content":"done"}}`,
	)

	ix, err := index.Open(index.Options{ClaudeDir: dir, Logger: log.New(io.Discard, "", 0)})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = ix.Close() })
	if _, err := ix.Load(); err != nil {
		t.Fatal(err)
	}
	return New(ix, "test")
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T, want TextContent", res.Content[0])
	}
	return text.Text
}

func decodeResult(t *testing.T, res *mcp.CallToolResult, out any) {
	t.Helper()
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), out); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
}

func TestListSessions(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	res, err := s.handleListSessions(ctx, call(nil))
	if err != nil {
		t.Fatal(err)
	}
	var rows []model.SessionSummary
	decodeResult(t, res, &rows)
	if len(rows) != 2 || rows[0].SessionID != "s2" || rows[1].SessionID != "s1" {
		t.Fatalf("rows = %+v, want s2 then s1", rows)
	}

	res, _ = s.handleListSessions(ctx, call(map[string]any{"branch": "FEATURE"}))
	decodeResult(t, res, &rows)
	if len(rows) != 1 || rows[0].SessionID != "s2" {
		t.Errorf("branch filter rows = %+v", rows)
	}

	res, _ = s.handleListSessions(ctx, call(map[string]any{"limit": float64(1)}))
	decodeResult(t, res, &rows)
	if len(rows) != 1 {
		t.Errorf("limit rows = %d, want 1", len(rows))
	}

	res, _ = s.handleListSessions(ctx, call(map[string]any{"max_messages": float64(1)}))
	decodeResult(t, res, &rows)
	if len(rows) != 1 || rows[0].SessionID != "s2" {
		t.Errorf("max_messages=1 rows = %+v, want s2", rows)
	}

	res, _ = s.handleListSessions(ctx, call(map[string]any{"min_messages": float64(0), "max_messages": float64(0)}))
	decodeResult(t, res, &rows)
	if len(rows) != 0 {
		t.Errorf("max_messages=0 rows = %+v, want none", rows)
	}

	res, _ = s.handleListSessions(ctx, call(map[string]any{"start_date": "June"}))
	if !res.IsError {
		t.Error("bad start_date accepted")
	}
}

func TestGetMessages(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	res, _ := s.handleGetMessages(ctx, call(map[string]any{"session_id": "s1", "page": float64(2), "page_size": float64(2)}))
	var pg index.Page
	decodeResult(t, res, &pg)
	if pg.Page != 2 || pg.Total != 3 || len(pg.Messages) != 1 {
		t.Errorf("page = %+v", pg)
	}
	if blocks := pg.Messages[0].ContentBlocks; len(blocks) != 1 || blocks[0].Type != model.BlockToolResult {
		t.Errorf("blocks = %+v", blocks)
	}

	res, _ = s.handleGetMessages(ctx, call(nil))
	if !res.IsError {
		t.Error("missing session_id accepted")
	}

	res, _ = s.handleGetMessages(ctx, call(map[string]any{"session_id": "nope"}))
	if !res.IsError || !strings.HasPrefix(resultText(t, res), "not found") {
		t.Errorf("unknown session result = %q", resultText(t, res))
	}
}

func TestAgentTools(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	res, _ := s.handleListAgents(ctx, call(map[string]any{"session_id": "s1"}))
	var agents []model.AgentMetadata
	decodeResult(t, res, &agents)
	if len(agents) != 1 || agents[0].AgentID != "a7" || agents[0].Summary != "done" {
		t.Fatalf("agents = %+v", agents)
	}

	res, _ = s.handleGetAgentMessages(ctx, call(map[string]any{"session_id": "s1", "agent_id": "a7"}))
	var pg index.Page
	decodeResult(t, res, &pg)
	if pg.Total != 2 || pg.Messages[0].Content != "go" {
		t.Errorf("agent page = %+v", pg)
	}

	res, _ = s.handleGetAgentMessages(ctx, call(map[string]any{"session_id": "s1"}))
	if !res.IsError {
		t.Error("missing agent_id accepted")
	}
}

func TestRefreshSession(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	res, _ := s.handleRefreshSession(ctx, call(map[string]any{"session_id": "s2"}))
	var out struct {
		SessionID string `json:"session_id"`
		WasStale  bool   `json:"was_stale"`
	}
	decodeResult(t, res, &out)
	if out.SessionID != "s2" || out.WasStale {
		t.Errorf("refresh = %+v", out)
	}
}

func TestToolsRegistered(t *testing.T) {
	s := newTestService(t)
	if s.MCPServer() == nil {
		t.Fatal("no MCP server")
	}
	for _, tool := range []mcp.Tool{ListSessionsTool(), GetMessagesTool(), ListAgentsTool(), GetAgentMessagesTool(), RefreshSessionTool()} {
		if tool.Name == "" || tool.Description == "" {
			t.Errorf("tool %+v lacks a name or description", tool)
		}
	}
	if req := GetMessagesTool().InputSchema.Required; len(req) != 1 || req[0] != "session_id" {
		t.Errorf("get_messages required = %v", req)
	}
}
