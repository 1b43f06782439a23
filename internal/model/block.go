package model

// Content block kinds with a dedicated rendering path. Any other Type value
// is rendered through the unknown fallback.
const (
	BlockText                = "text"
	BlockThinking            = "thinking"
	BlockToolUse             = "tool_use"
	BlockToolResult          = "tool_result"
	BlockFileHistorySnapshot = "file-history-snapshot"
	BlockImage               = "image"
)

// Placeholders substituted for missing block fields.
const (
	NoTextContent     = "(no text content)"
	NoThinkingContent = "(no thinking content)"
	NoContent         = "(no content)"
	UnknownValue      = "unknown"
	DefaultMediaType  = "image/png"
)

// ContentBlock is one normalized element of a message's structured content.
// Only the fields belonging to Type are populated.
type ContentBlock struct {
	Type string `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// thinking
	Thinking string `json:"thinking,omitempty"`

	// tool_use
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Input   string `json:"input,omitempty"`
	IDShort string `json:"id_short,omitempty"`

	// tool_result, file-history-snapshot, unknown
	Content string `json:"content,omitempty"`

	// tool_result
	ContentPreview string `json:"content_preview,omitempty"`
	IsLong         bool   `json:"is_long,omitempty"`
	ToolUseID      string `json:"tool_use_id,omitempty"`
	ToolUseIDShort string `json:"tool_use_id_short,omitempty"`

	// image
	SourceType      string `json:"source_type,omitempty"`
	SourceMediaType string `json:"source_media_type,omitempty"`
	SourceData      string `json:"source_data,omitempty"`
	SourceURL       string `json:"source_url,omitempty"`
}

// IsKnownBlockType reports whether t has a dedicated rendering path.
func IsKnownBlockType(t string) bool {
	switch t {
	case BlockText, BlockThinking, BlockToolUse, BlockToolResult, BlockFileHistorySnapshot, BlockImage:
		return true
	}
	return false
}
