package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// ListSessionsTool creates the list_sessions tool definition.
func ListSessionsTool() mcp.Tool {
	return mcp.NewTool("list_sessions",
		mcp.WithDescription("List recorded Claude Code sessions, newest first. All filters are optional and bounds are inclusive; an omitted max bound is unbounded."),
		mcp.WithNumber("min_messages", mcp.Description("Minimum user+assistant messages (default 1)")),
		mcp.WithNumber("max_messages", mcp.Description("Maximum user+assistant messages")),
		mcp.WithNumber("min_tokens", mcp.Description("Minimum total tokens")),
		mcp.WithNumber("max_tokens", mcp.Description("Maximum total tokens")),
		mcp.WithString("branch", mcp.Description("Case-insensitive substring of the git branch")),
		mcp.WithString("start_date", mcp.Description("Earliest start date, YYYY-MM-DD")),
		mcp.WithString("end_date", mcp.Description("Latest start date, YYYY-MM-DD")),
		mcp.WithNumber("limit", mcp.Description("Return at most this many sessions")),
	)
}

// GetMessagesTool creates the get_messages tool definition.
func GetMessagesTool() mcp.Tool {
	return mcp.NewTool("get_messages",
		mcp.WithDescription("Read one page of a session's messages with their content blocks."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id from list_sessions")),
		mcp.WithNumber("page", mcp.Description("One-based page number; out-of-range pages clamp")),
		mcp.WithNumber("page_size", mcp.Description("Messages per page")),
	)
}

// ListAgentsTool creates the list_agents tool definition.
func ListAgentsTool() mcp.Tool {
	return mcp.NewTool("list_agents",
		mcp.WithDescription("List the sub-agents a session spawned, in message order."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Parent session id")),
	)
}

// GetAgentMessagesTool creates the get_agent_messages tool definition.
func GetAgentMessagesTool() mcp.Tool {
	return mcp.NewTool("get_agent_messages",
		mcp.WithDescription("Read one page of a sub-agent's conversation."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Parent session id")),
		mcp.WithString("agent_id", mcp.Required(), mcp.Description("Agent id from list_agents")),
		mcp.WithNumber("page", mcp.Description("One-based page number")),
		mcp.WithNumber("page_size", mcp.Description("Messages per page")),
	)
}

// RefreshSessionTool creates the refresh_session tool definition.
func RefreshSessionTool() mcp.Tool {
	return mcp.NewTool("refresh_session",
		mcp.WithDescription("Re-read a session's log from disk, picking up messages appended since it was loaded."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
	)
}
