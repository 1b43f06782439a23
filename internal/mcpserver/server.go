// Package mcpserver exposes the session index to MCP clients over stdio, so an
// agent can browse and read past conversations.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/theirongolddev/cinspect/internal/index"
	"github.com/theirongolddev/cinspect/internal/model"
)

// Service serves index queries as MCP tools.
type Service struct {
	ix     *index.Index
	server *server.MCPServer
}

// New registers the session tools for ix.
func New(ix *index.Index, version string) *Service {
	s := &Service{ix: ix}

	mcpServer := server.NewMCPServer(
		"cinspect",
		version,
		server.WithToolCapabilities(false),
	)
	mcpServer.AddTool(ListSessionsTool(), s.handleListSessions)
	mcpServer.AddTool(GetMessagesTool(), s.handleGetMessages)
	mcpServer.AddTool(ListAgentsTool(), s.handleListAgents)
	mcpServer.AddTool(GetAgentMessagesTool(), s.handleGetAgentMessages)
	mcpServer.AddTool(RefreshSessionTool(), s.handleRefreshSession)

	s.server = mcpServer
	return s
}

// MCPServer returns the underlying server.
func (s *Service) MCPServer() *server.MCPServer {
	return s.server
}

// ServeStdio answers MCP requests on in/out until ctx is canceled or in closes.
func (s *Service) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.server).Listen(ctx, in, out)
}

// jsonResult encodes v as the tool's text result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// toolError turns index failures into tool-level errors the client can read.
func toolError(err error) *mcp.CallToolResult {
	if errors.Is(err, index.ErrNotFound) {
		return mcp.NewToolResultError("not found: " + err.Error())
	}
	return mcp.NewToolResultError(err.Error())
}

func filterFromArgs(req mcp.CallToolRequest) model.Filter {
	f := model.DefaultFilter()
	f.Messages.Min = int64(req.GetInt("min_messages", int(f.Messages.Min)))
	f.Messages.Max = maxArg(req, "max_messages")
	f.TotalTokens.Min = int64(req.GetInt("min_tokens", 0))
	f.TotalTokens.Max = maxArg(req, "max_tokens")
	f.Branch = req.GetString("branch", "")
	f.StartDate = req.GetString("start_date", "")
	f.EndDate = req.GetString("end_date", "")
	return f
}

// maxArg returns an upper bound only when the caller passed one, so that 0
// stays a real bound.
func maxArg(req mcp.CallToolRequest, key string) *int64 {
	if _, ok := req.GetArguments()[key]; !ok {
		return nil
	}
	return model.AtMost(int64(req.GetInt(key, 0)))
}

func (s *Service) handleListSessions(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, err := s.ix.List(filterFromArgs(req))
	if err != nil {
		return toolError(err), nil
	}
	if limit := req.GetInt("limit", 0); limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	if rows == nil {
		rows = []model.SessionSummary{}
	}
	return jsonResult(rows)
}

func (s *Service) handleGetMessages(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id is required"), nil
	}
	pg, err := s.ix.Page(id, req.GetInt("page", 1), req.GetInt("page_size", 0))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(pg)
}

func (s *Service) handleListAgents(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id is required"), nil
	}
	agents, err := s.ix.Agents(id)
	if err != nil {
		return toolError(err), nil
	}
	if agents == nil {
		agents = []model.AgentMetadata{}
	}
	return jsonResult(agents)
}

func (s *Service) handleGetAgentMessages(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id is required"), nil
	}
	agentID, err := req.RequireString("agent_id")
	if err != nil {
		return mcp.NewToolResultError("agent_id is required"), nil
	}
	pg, err := s.ix.AgentPage(id, agentID, req.GetInt("page", 1), req.GetInt("page_size", 0))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(pg)
}

func (s *Service) handleRefreshSession(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id is required"), nil
	}
	stale, err := s.ix.IsStale(id)
	if err != nil {
		return toolError(err), nil
	}
	sess, err := s.ix.Refresh(id)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(struct {
		model.SessionSummary
		WasStale bool `json:"was_stale"`
	}{sess.Summarize(), stale})
}
