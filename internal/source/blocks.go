package source

import (
	"encoding/json"
	"strings"

	"github.com/theirongolddev/cinspect/internal/model"
)

// Display limits for tool output.
const (
	ContentPreviewLength = 300
	shortIDLength        = 8
)

// Normalize converts one raw content block into its display-ready form.
// It never fails: missing or wrong-typed fields degrade to placeholders.
func Normalize(raw map[string]any) model.ContentBlock {
	blockType := getString(raw, fieldType)
	b := model.ContentBlock{Type: blockType}

	switch blockType {
	case model.BlockText:
		b.Text = textOr(raw, "text", model.NoTextContent)

	case model.BlockThinking:
		b.Thinking = textOr(raw, "thinking", model.NoThinkingContent)

	case model.BlockToolUse:
		b.Name = textOr(raw, "name", model.UnknownValue)
		b.Input = toolInput(raw["input"])
		b.ID = stringify(raw["id"])
		b.IDShort = shortID(raw["id"])

	case model.BlockToolResult:
		if v, ok := raw["content"]; ok && v != nil {
			b.Content = toolResultContent(v)
		} else {
			b.Content = model.NoContent
		}
		b.ContentPreview, b.IsLong = preview(b.Content)
		b.ToolUseID = stringify(raw["tool_use_id"])
		b.ToolUseIDShort = shortID(raw["tool_use_id"])

	case model.BlockFileHistorySnapshot:
		b.Content = stringify(raw["content"])

	case model.BlockImage:
		flattenImageSource(&b, raw["source"])

	default:
		b.Content = stringify(raw["content"])
	}

	return b
}

// textOr returns raw[key] as display text, or placeholder when absent or null.
func textOr(raw map[string]any, key, placeholder string) string {
	v, ok := raw[key]
	if !ok || v == nil {
		return placeholder
	}
	return stringify(v)
}

// toolInput renders a tool invocation's arguments. Strings are kept as-is so
// already-normalized input round-trips unchanged.
func toolInput(v any) string {
	switch x := v.(type) {
	case nil:
		return "{}"
	case string:
		return x
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

// toolResultContent flattens tool output to a string. List items of kind text
// contribute their text; other items are stringified; all joined by newlines.
func toolResultContent(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			if m, ok := item.(map[string]any); ok && getString(m, fieldType) == model.BlockText {
				parts = append(parts, getString(m, "text"))
				continue
			}
			parts = append(parts, stringify(item))
		}
		return strings.Join(parts, "\n")
	case map[string]any:
		b, err := json.MarshalIndent(x, "", "  ")
		if err != nil {
			return ""
		}
		return string(b)
	}
	return stringify(v)
}

func preview(content string) (string, bool) {
	p := firstRunes(content, ContentPreviewLength)
	if len(p) == len(content) {
		return content, false
	}
	return p + model.TruncationSuffix, true
}

func shortID(v any) string {
	if v == nil {
		return model.UnknownValue
	}
	return firstRunes(stringify(v), shortIDLength)
}

func flattenImageSource(b *model.ContentBlock, v any) {
	b.SourceType = model.UnknownValue
	b.SourceMediaType = model.DefaultMediaType

	src, ok := v.(map[string]any)
	if !ok {
		return
	}
	if t := getString(src, fieldType); t != "" {
		b.SourceType = t
	}
	if mt := getString(src, "media_type"); mt != "" {
		b.SourceMediaType = mt
	}
	b.SourceData = getString(src, "data")
	b.SourceURL = getString(src, "url")
}
