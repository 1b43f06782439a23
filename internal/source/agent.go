package source

import (
	"path/filepath"

	"github.com/theirongolddev/cinspect/internal/model"
)

// AgentSummaryLength caps the agent's final response carried in AgentMetadata.
const AgentSummaryLength = 200

const (
	agentFilePrefix = "agent-"
	sessionFileExt  = ".jsonl"
)

// ExtractAgentMetadata reads the toolUseResult side channel of a user record.
// It returns nil unless that field is an object naming an agent.
func ExtractAgentMetadata(rec Record) *model.AgentMetadata {
	result := rec.Object(fieldToolUseResult)
	if result == nil {
		return nil
	}
	agentID := getString(result, "agentId")
	if agentID == "" {
		return nil
	}

	meta := &model.AgentMetadata{
		AgentID:         agentID,
		ToolUseID:       model.UnknownValue,
		Prompt:          getString(result, "prompt"),
		Status:          model.UnknownValue,
		TotalTokens:     getInt(result, "totalTokens"),
		TotalDurationMs: getInt(result, "totalDurationMs"),
	}
	if status, ok := result["status"].(string); ok {
		meta.Status = status
	}

	// First tool_result block in the owning message; not a hard join.
	if payload := rec.Object(fieldMessage); payload != nil {
		if blocks, ok := payload["content"].([]any); ok {
			for _, item := range blocks {
				b, ok := item.(map[string]any)
				if !ok || getString(b, fieldType) != model.BlockToolResult {
					continue
				}
				if id := getString(b, "tool_use_id"); id != "" {
					meta.ToolUseID = id
				}
				break
			}
		}
	}

	if items, ok := result["content"].([]any); ok {
		for _, item := range items {
			m, ok := item.(map[string]any)
			if !ok || getString(m, fieldType) != model.BlockText {
				continue
			}
			text := getString(m, "text")
			if short := firstRunes(text, AgentSummaryLength); len(short) < len(text) {
				text = short + model.TruncationSuffix
			}
			meta.Summary = text
			break
		}
	}

	return meta
}

// SessionPath returns the log file of an ordinary session.
func SessionPath(claudeDir, projectDir, sessionID string) string {
	return filepath.Join(claudeDir, "projects", projectDir, sessionID+sessionFileExt)
}

// AgentPath returns the log file of an agent sub-session.
func AgentPath(claudeDir, projectDir, agentID string) string {
	return filepath.Join(claudeDir, "projects", projectDir, agentFilePrefix+agentID+sessionFileExt)
}

// LoadAgent assembles the agent sub-session agentID of projectDir at full
// depth. A missing file is reported as ErrNotFound.
func LoadAgent(claudeDir, projectDir, agentID string) (*model.Session, error) {
	s := &model.Session{
		SessionID:  agentFilePrefix + agentID,
		ProjectDir: projectDir,
		Project:    decodeProjectName(projectDir),
		FilePath:   AgentPath(claudeDir, projectDir, agentID),
		IsAgent:    true,
	}

	if _, err := assemblePath(s.FilePath, Full, s); err != nil {
		return nil, err
	}
	return s, nil
}
