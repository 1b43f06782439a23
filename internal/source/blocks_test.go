package source

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/theirongolddev/cinspect/internal/model"
)

func rawBlock(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatalf("bad fixture %q: %v", s, err)
	}
	return m
}

func TestNormalize_Kinds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, b model.ContentBlock)
	}{
		{"text", `{"type":"text","text":"hello"}`, func(t *testing.T, b model.ContentBlock) {
			if b.Text != "hello" {
				t.Errorf("Text = %q", b.Text)
			}
		}},
		{"text missing", `{"type":"text"}`, func(t *testing.T, b model.ContentBlock) {
			if b.Text != model.NoTextContent {
				t.Errorf("Text = %q", b.Text)
			}
		}},
		{"thinking null", `{"type":"thinking","thinking":null}`, func(t *testing.T, b model.ContentBlock) {
			if b.Thinking != model.NoThinkingContent {
				t.Errorf("Thinking = %q", b.Thinking)
			}
		}},
		{"tool_use", `{"type":"tool_use","id":"toolu_01ABCDEFGH","name":"Bash","input":{"command":"ls"}}`, func(t *testing.T, b model.ContentBlock) {
			if b.Name != "Bash" || b.IDShort != "toolu_01" || b.ID != "toolu_01ABCDEFGH" {
				t.Errorf("Name/IDShort/ID = %q/%q/%q", b.Name, b.IDShort, b.ID)
			}
			if b.Input != "{\n  \"command\": \"ls\"\n}" {
				t.Errorf("Input = %q", b.Input)
			}
		}},
		{"tool_use bare", `{"type":"tool_use"}`, func(t *testing.T, b model.ContentBlock) {
			if b.Name != model.UnknownValue || b.IDShort != model.UnknownValue || b.Input != "{}" {
				t.Errorf("Name/IDShort/Input = %q/%q/%q", b.Name, b.IDShort, b.Input)
			}
		}},
		{"tool_use short id", `{"type":"tool_use","id":"abc","input":"raw args"}`, func(t *testing.T, b model.ContentBlock) {
			if b.IDShort != "abc" || b.Input != "raw args" {
				t.Errorf("IDShort/Input = %q/%q", b.IDShort, b.Input)
			}
		}},
		{"tool_result list", `{"type":"tool_result","tool_use_id":"toolu_99887766","content":[{"type":"text","text":"a"},{"type":"image","x":1},{"type":"text","text":"b"}]}`, func(t *testing.T, b model.ContentBlock) {
			want := "a\n{\"type\":\"image\",\"x\":1}\nb"
			if b.Content != want {
				t.Errorf("Content = %q, want %q", b.Content, want)
			}
			if b.ToolUseIDShort != "toolu_99" {
				t.Errorf("ToolUseIDShort = %q", b.ToolUseIDShort)
			}
		}},
		{"tool_result object", `{"type":"tool_result","content":{"ok":true}}`, func(t *testing.T, b model.ContentBlock) {
			if b.Content != "{\n  \"ok\": true\n}" {
				t.Errorf("Content = %q", b.Content)
			}
			if b.ToolUseIDShort != model.UnknownValue {
				t.Errorf("ToolUseIDShort = %q", b.ToolUseIDShort)
			}
		}},
		{"tool_result null", `{"type":"tool_result","content":null}`, func(t *testing.T, b model.ContentBlock) {
			if b.Content != model.NoContent || b.ContentPreview != model.NoContent || b.IsLong {
				t.Errorf("Content/Preview/IsLong = %q/%q/%v", b.Content, b.ContentPreview, b.IsLong)
			}
		}},
		{"file-history-snapshot", `{"type":"file-history-snapshot","content":{"files":2}}`, func(t *testing.T, b model.ContentBlock) {
			if b.Content != `{"files":2}` {
				t.Errorf("Content = %q", b.Content)
			}
		}},
		{"image base64", `{"type":"image","source":{"type":"base64","media_type":"image/jpeg","data":"AAAA"}}`, func(t *testing.T, b model.ContentBlock) {
			if b.SourceType != "base64" || b.SourceMediaType != "image/jpeg" || b.SourceData != "AAAA" {
				t.Errorf("source = %q/%q/%q", b.SourceType, b.SourceMediaType, b.SourceData)
			}
		}},
		{"image url", `{"type":"image","source":{"type":"url","url":"https://example.com/a.png"}}`, func(t *testing.T, b model.ContentBlock) {
			if b.SourceType != "url" || b.SourceURL != "https://example.com/a.png" || b.SourceMediaType != model.DefaultMediaType {
				t.Errorf("source = %q/%q/%q", b.SourceType, b.SourceURL, b.SourceMediaType)
			}
		}},
		{"image no source", `{"type":"image","source":"bogus"}`, func(t *testing.T, b model.ContentBlock) {
			if b.SourceType != model.UnknownValue || b.SourceMediaType != model.DefaultMediaType {
				t.Errorf("source = %q/%q", b.SourceType, b.SourceMediaType)
			}
		}},
		{"unknown", `{"type":"server_tool_use","content":[1,2]}`, func(t *testing.T, b model.ContentBlock) {
			if b.Type != "server_tool_use" || b.Content != "[1,2]" {
				t.Errorf("Type/Content = %q/%q", b.Type, b.Content)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Normalize(rawBlock(t, tt.input)))
		})
	}
}

func TestNormalize_PreviewBoundary(t *testing.T) {
	exact := strings.Repeat("x", ContentPreviewLength)
	b := Normalize(map[string]any{"type": "tool_result", "content": exact})
	if b.IsLong || b.ContentPreview != exact {
		t.Errorf("300 chars: IsLong=%v len(preview)=%d", b.IsLong, len(b.ContentPreview))
	}

	over := exact + "y"
	b = Normalize(map[string]any{"type": "tool_result", "content": over})
	if !b.IsLong {
		t.Error("301 chars: IsLong = false")
	}
	if len(b.ContentPreview) != ContentPreviewLength+len(model.TruncationSuffix) {
		t.Errorf("301 chars: len(preview) = %d, want 303", len(b.ContentPreview))
	}
	if b.Content != over {
		t.Error("content modified by preview")
	}
}

func TestNormalize_PreviewCountsRunes(t *testing.T) {
	content := strings.Repeat("ü", ContentPreviewLength)
	b := Normalize(map[string]any{"type": "tool_result", "content": content})
	if b.IsLong {
		t.Error("300 multi-byte runes reported as long")
	}
}

// Normalizing a normalized tool block must not change how it renders.
func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		`{"type":"tool_use","id":"toolu_0123456789","name":"Edit","input":"{\n  \"a\": 1\n}"}`,
		`{"type":"tool_use","name":"Edit","input":{"a":[1,2]}}`,
		`{"type":"tool_result","tool_use_id":"toolu_abc","content":"` + strings.Repeat("z", 400) + `"}`,
		`{"type":"tool_result","tool_use_id":"t","content":"short"}`,
		`{"type":"text","text":"plain"}`,
		`{"type":"thinking","thinking":"deep"}`,
	}

	for _, in := range inputs {
		once := Normalize(rawBlock(t, in))
		encoded, err := json.Marshal(once)
		if err != nil {
			t.Fatal(err)
		}
		twice := Normalize(rawBlock(t, string(encoded)))
		if once != twice {
			t.Errorf("not idempotent for %s:\nonce:  %+v\ntwice: %+v", in, once, twice)
		}
	}
}
