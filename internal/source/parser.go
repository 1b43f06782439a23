// Package source discovers and parses Claude Code JSONL session files.
package source

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/theirongolddev/cinspect/internal/model"
)

// ErrNotFound is returned when a session or agent log file does not exist.
var ErrNotFound = errors.New("not found")

var errNotObject = errors.New("record is not a JSON object")

// Depth selects how much of each record the assembler materializes.
type Depth int

const (
	// MetadataOnly loads session-level aggregates, plus full content for the
	// first user message with text so the description can be derived.
	MetadataOnly Depth = iota
	// Full loads every record with content and content blocks.
	Full
)

func (d Depth) String() string {
	if d == Full {
		return "full"
	}
	return "metadata"
}

// ParseOptions controls per-record loading depth. Blocks is only honored
// when Content is set.
type ParseOptions struct {
	Content bool
	Blocks  bool
}

// ParseResult holds the output of assembling a single JSONL file.
type ParseResult struct {
	Session     *model.Session
	ParseErrors int // lines skipped as malformed
	Err         error
}

// ParseRecord turns one record into a message. Summary records yield ok=false;
// every other record yields a message, even one without a message payload.
func ParseRecord(rec Record, opts ParseOptions) (msg model.SessionMessage, ok bool) {
	kind := rec.Str(fieldType)
	if kind == model.TypeSummary {
		return msg, false
	}

	msg = model.SessionMessage{
		UUID:      rec.Str(fieldUUID),
		Type:      kind,
		Timestamp: rec.Str(fieldTimestamp),
	}

	if kind == model.TypeUser {
		msg.AgentMetadata = ExtractAgentMetadata(rec)
	}

	payload := rec.Object(fieldMessage)
	if payload == nil {
		return msg, true
	}

	msg.Role = getString(payload, "role")
	msg.Model = getString(payload, "model")

	if opts.Content {
		msg.Content, msg.ContentBlocks = parseContent(payload["content"], opts.Blocks)
	}

	if usage, ok := payload["usage"].(map[string]any); ok {
		msg.TokensInput = getInt(usage, "input_tokens")
		msg.TokensOutput = getInt(usage, "output_tokens")
	}

	return msg, true
}

// parseContent flattens a message payload's content. A plain string is copied
// verbatim; a block list contributes its text blocks to the flattened text and,
// when withBlocks is set, every displayable block to the normalized list.
func parseContent(v any, withBlocks bool) (string, []model.ContentBlock) {
	switch c := v.(type) {
	case string:
		return c, nil
	case []any:
		var (
			texts  []string
			blocks []model.ContentBlock
		)
		for _, item := range c {
			raw, ok := item.(map[string]any)
			if !ok {
				continue
			}
			kind := getString(raw, fieldType)
			if withBlocks && model.IsKnownBlockType(kind) {
				blocks = append(blocks, Normalize(raw))
			}
			if kind == model.BlockText {
				texts = append(texts, getString(raw, "text"))
			}
		}
		return strings.Join(texts, "\n"), blocks
	}
	return "", nil
}

// updateMetadata folds session-level fields of rec into s. It runs before the
// record is parsed as a message and never depends on that result.
func updateMetadata(rec Record, s *model.Session) {
	if s.IsAgent && s.ParentSessionID == "" {
		s.ParentSessionID = rec.Str(fieldSessionID)
	}

	if rec.Str(fieldType) == model.TypeSummary && !s.HasSummary {
		s.Summary = rec.Str(fieldSummary)
		s.HasSummary = true
		return
	}

	if ts, ok := parseTimestamp(rec.Str(fieldTimestamp)); ok {
		s.ObserveTime(ts)
	}
	if s.GitBranch == "" {
		s.GitBranch = rec.Str(fieldGitBranch)
	}
	if s.ProjectPath == "" {
		s.ProjectPath = rec.Str(fieldCwd)
	}
}

// timestampLayouts are tried in order. Producers emit RFC 3339 with a Z
// suffix; the other ISO 8601 forms (colon-less offsets, no zone, date only)
// cover older or hand-edited logs.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// Assemble streams JSONL records from r into s. Malformed lines are skipped
// and counted; only a read error aborts.
//
// At MetadataOnly depth every record is still parsed (for counts and tokens),
// but content is materialized only until the first user message with text.
func Assemble(r io.Reader, depth Depth, s *model.Session) (parseErrors int, err error) {
	br := bufio.NewReaderSize(r, 256*1024)
	firstUserLoaded := false

	for {
		line, readErr := br.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			rec, decodeErr := DecodeRecord(line)
			if decodeErr != nil {
				parseErrors++
			} else {
				updateMetadata(rec, s)

				kind := rec.Str(fieldType)
				opts := ParseOptions{Content: true, Blocks: true}
				if depth == MetadataOnly {
					opts.Content = kind == model.TypeUser && !firstUserLoaded
					opts.Blocks = false
				}

				if msg, ok := ParseRecord(rec, opts); ok {
					s.Messages = append(s.Messages, msg)
					if kind == model.TypeUser && msg.HasText() {
						firstUserLoaded = true
					}
				}
			}
		}

		if readErr == io.EOF {
			return parseErrors, nil
		}
		if readErr != nil {
			return parseErrors, readErr
		}
	}
}

// AssembleFile assembles the session backed by df.
func AssembleFile(df DiscoveredFile, depth Depth) ParseResult {
	s := &model.Session{
		SessionID:  df.SessionID,
		ProjectDir: df.ProjectDir,
		Project:    df.Project,
		FilePath:   df.Path,
	}

	n, err := assemblePath(df.Path, depth, s)
	if err != nil {
		return ParseResult{ParseErrors: n, Err: err}
	}
	return ParseResult{Session: s, ParseErrors: n}
}

func assemblePath(path string, depth Depth, s *model.Session) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return 0, err
	}
	defer func() { _ = f.Close() }()

	return Assemble(f, depth, s)
}

// LoadSession re-reads a session file at full depth.
func LoadSession(claudeDir, projectDir, sessionID string) (*model.Session, error) {
	df := DiscoveredFile{
		Path:       SessionPath(claudeDir, projectDir, sessionID),
		Project:    decodeProjectName(projectDir),
		ProjectDir: projectDir,
		SessionID:  sessionID,
	}
	result := AssembleFile(df, Full)
	if result.Err != nil {
		return nil, result.Err
	}
	return result.Session, nil
}
