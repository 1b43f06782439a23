package source

import (
	"encoding/json"
	"strconv"
)

// Record is one decoded line of a session log. Log lines are heterogeneous
// and fields occasionally carry unexpected types, so records stay generic and
// are read through the typed accessors below, which never fail.
type Record map[string]any

// DecodeRecord decodes one JSONL line. Lines that are not JSON objects are
// rejected the same way as malformed JSON.
func DecodeRecord(line []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errNotObject
	}
	return rec, nil
}

// Str returns the string value of key, or "" when absent or not a string.
func (r Record) Str(key string) string {
	return getString(r, key)
}

// Object returns the nested object at key, or nil.
func (r Record) Object(key string) map[string]any {
	m, _ := r[key].(map[string]any)
	return m
}

// Fields of a Claude Code session record used by the indexer.
const (
	fieldType          = "type"
	fieldUUID          = "uuid"
	fieldTimestamp     = "timestamp"
	fieldGitBranch     = "gitBranch"
	fieldCwd           = "cwd"
	fieldSessionID     = "sessionId"
	fieldSummary       = "summary"
	fieldMessage       = "message"
	fieldToolUseResult = "toolUseResult"
)

// DiscoveredFile represents a session JSONL file found during directory scanning.
type DiscoveredFile struct {
	Path       string
	Project    string // decoded display name (e.g., "gitlore")
	ProjectDir string // raw directory name
	SessionID  string // extracted from filename
}

func getString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// getInt reads a JSON number as int64. Numeric strings are accepted too;
// anything else is 0.
func getInt(m map[string]any, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return n
		}
	}
	return 0
}

// stringify renders any decoded JSON value as display text. Strings pass
// through unchanged; structured values become compact JSON.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// firstRunes returns the first n characters of s, or all of s if shorter.
func firstRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
