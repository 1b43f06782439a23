package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cinspect/internal/model"
	"github.com/theirongolddev/cinspect/internal/store"
)

func TestFormatTokens(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1234, "1.2K"},
		{1234567, "1.2M"},
		{1234567890, "1.2B"},
		{-1500, "-1.5K"},
	}
	for _, tt := range tests {
		if got := FormatTokens(tt.in); got != tt.want {
			t.Errorf("FormatTokens(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatNumberAndDuration(t *testing.T) {
	if got := FormatNumber(1234567); got != "1,234,567" {
		t.Errorf("FormatNumber = %q", got)
	}
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{45 * time.Second, "45s"},
		{125 * time.Second, "2m"},
		{3725 * time.Second, "1h 2m"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatTimeAndAge(t *testing.T) {
	if got := FormatTime(time.Time{}); got != NotAvailable {
		t.Errorf("FormatTime(zero) = %q", got)
	}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if got := FormatAge(now.Add(-3*time.Hour), now); got != "3 hours ago" {
		t.Errorf("FormatAge = %q", got)
	}
	if got := FormatAge(time.Time{}, now); got != NotAvailable {
		t.Errorf("FormatAge(zero) = %q", got)
	}
}

func TestRenderTable_AlignsWideRunes(t *testing.T) {
	out := RenderTable(Table{
		Headers:    []string{"Name", "N"},
		Rows:       [][]string{{"日本", "1"}, {"abcd", "22"}},
		RightAlign: []bool{false, true},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	width := lipgloss.Width(lines[0])
	for i, l := range lines {
		if lipgloss.Width(l) != width {
			t.Errorf("line %d width %d, want %d: %q", i, lipgloss.Width(l), width, l)
		}
	}
	if !strings.Contains(out, "│  1 │") {
		t.Errorf("numeric column not right-aligned:\n%s", out)
	}
}

func TestSessionTable_Placeholders(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tbl := SessionTable([]model.SessionSummary{
		{SessionID: "0f8e2a51-1111-2222-3333-444455556666", Description: "Fix the build", MessageCount: 1200, TotalTokens: 5400},
	}, now)

	row := tbl.Rows[0]
	want := []string{"0f8e2a51", NotAvailable, NotAvailable, "unknown", "1,200", "5.4K", "Fix the build"}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("col %s = %q, want %q", tbl.Headers[i], row[i], want[i])
		}
	}
}

func TestBlockMarkdown(t *testing.T) {
	tests := []struct {
		name string
		blk  model.ContentBlock
		want []string
	}{
		{"text", model.ContentBlock{Type: model.BlockText, Text: "hello"}, []string{"hello"}},
		{"thinking", model.ContentBlock{Type: model.BlockThinking, Thinking: "a\nb"}, []string{"> _thinking:_ a\n> b"}},
		{"tool use", model.ContentBlock{Type: model.BlockToolUse, Name: "Bash", IDShort: "toolu_01", Input: `{"cmd":"ls"}`},
			[]string{"`Bash`", "(toolu_01)", "```json\n{\"cmd\":\"ls\"}\n```"}},
		{"long tool result", model.ContentBlock{Type: model.BlockToolResult, ToolUseIDShort: "toolu_01", ContentPreview: "out", IsLong: true},
			[]string{"for `toolu_01`", "out\n..."}},
		{"image", model.ContentBlock{Type: model.BlockImage, SourceType: "base64", SourceMediaType: "image/png"}, []string{"image/png: base64"}},
		{"unknown", model.ContentBlock{Type: "widget", Content: `{"a":1}`}, []string{"**widget**"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BlockMarkdown(tt.blk)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("BlockMarkdown = %q, missing %q", got, w)
				}
			}
		})
	}
}

func TestFenceOutgrowsContent(t *testing.T) {
	got := fence("", "a ``` b")
	if !strings.HasPrefix(got, "````\n") || !strings.HasSuffix(got, "\n````") {
		t.Errorf("fence = %q", got)
	}
}

func TestMessageMarkdown_FallsBackToContent(t *testing.T) {
	md := MessageMarkdown(model.SessionMessage{
		Type:          model.TypeUser,
		Content:       "plain prompt",
		AgentMetadata: &model.AgentMetadata{AgentID: "ag1", Status: "completed", TotalTokens: 2000},
	})
	for _, w := range []string{"### user", "plain prompt", "agent `ag1`", "2.0K tokens"} {
		if !strings.Contains(md, w) {
			t.Errorf("markdown missing %q:\n%s", w, md)
		}
	}
}

func TestRenderMarkdown(t *testing.T) {
	md := PageMarkdown("Session s1", []model.SessionMessage{
		{Type: model.TypeAssistant, Role: "assistant", ContentBlocks: []model.ContentBlock{{Type: model.BlockText, Text: "rendered body"}}},
	}, 1, 3, 41)

	out, err := RenderMarkdown(md, 80, "notty")
	if err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}
	for _, w := range []string{"Session s1", "page 1 of 3", "rendered body"} {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}
}

func TestFormatCost(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{1.234, "$1.23"},
		{12.34, "$12.3"},
		{123.4, "$123"},
		{12345.6, "$12,346"},
	}
	for _, tt := range tests {
		if got := FormatCost(tt.in); got != tt.want {
			t.Errorf("FormatCost(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestModelTable_PricesKnownModels(t *testing.T) {
	tbl := ModelTable([]store.ModelUsage{
		{Model: "claude-sonnet-4-6", Messages: 3, InputTokens: 1_000_000, OutputTokens: 0},
		{Model: "<synthetic>", Messages: 1},
	})
	if got := tbl.Rows[0][4]; got != "$3.00" {
		t.Errorf("sonnet cost = %q, want $3.00", got)
	}
	if got := tbl.Rows[1][4]; got != NotAvailable {
		t.Errorf("unpriced cost = %q, want %s", got, NotAvailable)
	}
}
