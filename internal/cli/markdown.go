package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/theirongolddev/cinspect/internal/model"
)

// DefaultWidth is used when the output is not a terminal.
const DefaultWidth = 100

// TerminalWidth returns the width of f when it is a terminal.
func TerminalWidth(f *os.File) int {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return DefaultWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return DefaultWidth
	}
	return w
}

// MessageMarkdown renders one message as a markdown section. Structured
// blocks are preferred over the flattened text when loaded.
func MessageMarkdown(m model.SessionMessage) string {
	var b strings.Builder

	role := m.Role
	if role == "" {
		role = m.Type
	}
	fmt.Fprintf(&b, "### %s", role)
	if m.Model != "" {
		fmt.Fprintf(&b, " · %s", m.Model)
	}
	if m.Timestamp != "" {
		fmt.Fprintf(&b, " · %s", m.Timestamp)
	}
	b.WriteString("\n\n")

	if len(m.ContentBlocks) == 0 {
		if m.HasText() {
			b.WriteString(m.Content)
			b.WriteString("\n\n")
		}
	}
	for _, blk := range m.ContentBlocks {
		b.WriteString(BlockMarkdown(blk))
		b.WriteString("\n\n")
	}

	if a := m.AgentMetadata; a != nil {
		fmt.Fprintf(&b, "> agent `%s` · %s · %s tokens\n\n", a.AgentID, a.Status, FormatTokens(a.TotalTokens))
	}
	return b.String()
}

// BlockMarkdown renders one normalized content block.
func BlockMarkdown(blk model.ContentBlock) string {
	switch blk.Type {
	case model.BlockText:
		return blk.Text
	case model.BlockThinking:
		return quote("_thinking:_ " + blk.Thinking)
	case model.BlockToolUse:
		return fmt.Sprintf("**tool_use** `%s` (%s)\n\n%s", blk.Name, blk.IDShort, fence("json", blk.Input))
	case model.BlockToolResult:
		body := blk.ContentPreview
		if blk.IsLong {
			body += "\n" + model.TruncationSuffix
		}
		return fmt.Sprintf("**tool_result** for `%s`\n\n%s", blk.ToolUseIDShort, fence("", body))
	case model.BlockImage:
		src := blk.SourceURL
		if src == "" {
			src = blk.SourceType
		}
		return fmt.Sprintf("_[image %s: %s]_", blk.SourceMediaType, src)
	case model.BlockFileHistorySnapshot:
		return "**file snapshot**\n\n" + fence("json", blk.Content)
	default:
		return fmt.Sprintf("**%s**\n\n%s", blk.Type, fence("json", blk.Content))
	}
}

func quote(s string) string {
	return "> " + strings.ReplaceAll(s, "\n", "\n> ")
}

// fence wraps s in a code fence long enough not to be closed by s itself.
func fence(lang, s string) string {
	ticks := "```"
	for strings.Contains(s, ticks) {
		ticks += "`"
	}
	return ticks + lang + "\n" + s + "\n" + ticks
}

// PageMarkdown renders a page of messages under a heading.
func PageMarkdown(title string, msgs []model.SessionMessage, page, totalPages, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", title)
	fmt.Fprintf(&b, "_page %d of %d · %d messages_\n\n", page, totalPages, total)
	for _, m := range msgs {
		b.WriteString(MessageMarkdown(m))
	}
	return b.String()
}

// RenderMarkdown renders md for a terminal of the given width. style is a
// glamour standard style name; empty selects one from the terminal background.
func RenderMarkdown(md string, width int, style string) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(max(width-4, 20))}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}
