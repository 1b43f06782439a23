package server

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/theirongolddev/cinspect/internal/index"
	"github.com/theirongolddev/cinspect/internal/model"
	"github.com/theirongolddev/cinspect/internal/watch"
)

func newTestService(t *testing.T) (*Service, *httptest.Server, string) {
	t.Helper()
	dir := t.TempDir()
	writeLog(t, filepath.Join(dir, "projects", "proj1", "s1.jsonl"),
		`{"type":"user","timestamp":"2025-06-01T10:00:00Z","gitBranch":"feature/api","message":{"role":"user","content":"Hello"}}`,
		`{"type":"assistant","timestamp":"2025-06-01T10:00:05Z","message":{"role":"assistant","model":"claude-sonnet-4-6","content":[{"type":"text","text":"Hi"}],"usage":{"output_tokens":50}}}`,
		`{"type":"user","timestamp":"2025-06-01T10:01:00Z","message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"toolu_1"}]},"toolUseResult":{"agentId":"ag1","status":"completed"}}`,
		`{"type":"summary","summary":"Greeting"}`,
	)
	writeLog(t, filepath.Join(dir, "projects", "proj1", "agent-ag1.jsonl"),
		`{"type":"user","sessionId":"s1","message":{"role":"user","content":"sub task"}}`,
	)

	quiet := log.New(io.Discard, "", 0)
	ix, err := index.Open(index.Options{ClaudeDir: dir, Logger: quiet})
	if err != nil {
		t.Fatalf("index.Open: %v", err)
	}
	t.Cleanup(func() { _ = ix.Close() })
	if _, err := ix.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	svc := New(ix, Config{Logger: quiet, EventsBuffer: 10})
	ts := httptest.NewServer(svc.Handler())
	t.Cleanup(ts.Close)
	return svc, ts, dir
}

func writeLog(t *testing.T, path string, lines ...string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
}

func getJSON(t *testing.T, method, url string, wantStatus int, out any) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != wantStatus {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s = %d, want %d: %s", method, url, resp.StatusCode, wantStatus, body)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
	return resp
}

func TestHealthAndRequestID(t *testing.T) {
	_, ts, _ := newTestService(t)

	resp := getJSON(t, http.MethodGet, ts.URL+"/healthz", http.StatusOK, nil)
	if _, err := uuid.Parse(resp.Header.Get(requestIDHeader)); err != nil {
		t.Errorf("X-Request-ID = %q, not a uuid", resp.Header.Get(requestIDHeader))
	}

	want := uuid.NewString()
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set(requestIDHeader, want)
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	_ = resp2.Body.Close()
	if got := resp2.Header.Get(requestIDHeader); got != want {
		t.Errorf("X-Request-ID = %q, want echoed %q", got, want)
	}
}

func TestSessionsEndpoint(t *testing.T) {
	_, ts, _ := newTestService(t)

	var list sessionsResponse
	getJSON(t, http.MethodGet, ts.URL+"/v1/sessions", http.StatusOK, &list)
	if list.Count != 1 || list.Sessions[0].Description != "Greeting" || list.ActiveFilters != 0 {
		t.Errorf("list = %+v", list)
	}
	if list.Sessions[0].TotalTokens != 50 || list.Sessions[0].MessageCount != 3 {
		t.Errorf("row = %+v", list.Sessions[0])
	}

	getJSON(t, http.MethodGet, ts.URL+"/v1/sessions?branch=API&start_date=2025-06-01", http.StatusOK, &list)
	if list.Count != 1 || list.ActiveFilters != 2 {
		t.Errorf("filtered list = %+v", list)
	}

	getJSON(t, http.MethodGet, ts.URL+"/v1/sessions?branch=main", http.StatusOK, &list)
	if list.Count != 0 || list.Sessions == nil {
		t.Errorf("non-matching list = %+v, want empty array", list)
	}

	getJSON(t, http.MethodGet, ts.URL+"/v1/sessions?start_date=yesterday", http.StatusBadRequest, nil)
	getJSON(t, http.MethodGet, ts.URL+"/v1/sessions?min_tokens=lots", http.StatusBadRequest, nil)
}

func TestSessionEndpoints(t *testing.T) {
	_, ts, _ := newTestService(t)

	var sum model.SessionSummary
	getJSON(t, http.MethodGet, ts.URL+"/v1/sessions/s1", http.StatusOK, &sum)
	if sum.GitBranch != "feature/api" {
		t.Errorf("summary = %+v", sum)
	}

	var body errorBody
	getJSON(t, http.MethodGet, ts.URL+"/v1/sessions/nope", http.StatusNotFound, &body)
	if body.Error == "" || body.RequestID == "" {
		t.Errorf("error body = %+v", body)
	}

	var pg index.Page
	getJSON(t, http.MethodGet, ts.URL+"/v1/sessions/s1/messages?page=99&size=2", http.StatusOK, &pg)
	if pg.Page != 2 || pg.TotalPages != 2 || len(pg.Messages) != 1 || pg.Total != 3 {
		t.Errorf("page = %+v", pg)
	}
	getJSON(t, http.MethodGet, ts.URL+"/v1/sessions/s1/messages?page=x", http.StatusBadRequest, nil)
	getJSON(t, http.MethodGet, ts.URL+"/v1/sessions/nope/messages", http.StatusNotFound, nil)

	var stale map[string]bool
	getJSON(t, http.MethodGet, ts.URL+"/v1/sessions/s1/stale", http.StatusOK, &stale)
	if stale["stale"] {
		t.Error("freshly loaded session reported stale")
	}

	getJSON(t, http.MethodPost, ts.URL+"/v1/sessions/s1/refresh", http.StatusOK, &sum)
	getJSON(t, http.MethodGet, ts.URL+"/v1/sessions/s1/refresh", http.StatusMethodNotAllowed, nil)
}

func TestAgentEndpoints(t *testing.T) {
	_, ts, _ := newTestService(t)

	var agents []model.AgentMetadata
	getJSON(t, http.MethodGet, ts.URL+"/v1/sessions/s1/agents", http.StatusOK, &agents)
	if len(agents) != 1 || agents[0].AgentID != "ag1" || agents[0].ToolUseID != "toolu_1" {
		t.Fatalf("agents = %+v", agents)
	}

	var pg index.Page
	getJSON(t, http.MethodGet, ts.URL+"/v1/sessions/s1/agents/ag1", http.StatusOK, &pg)
	if pg.Total != 1 || pg.Messages[0].Content != "sub task" {
		t.Errorf("agent page = %+v", pg)
	}
	getJSON(t, http.MethodGet, ts.URL+"/v1/sessions/s1/agents/zzz", http.StatusNotFound, nil)
}

func TestStatsEndpoint(t *testing.T) {
	_, ts, _ := newTestService(t)

	var st statsResponse
	getJSON(t, http.MethodGet, ts.URL+"/v1/stats", http.StatusOK, &st)
	if st.Cache.SessionsCached != 1 {
		t.Errorf("cache = %+v", st.Cache)
	}
	if len(st.Models) != 1 || st.Models[0].Model != "claude-sonnet-4-6" || st.Models[0].OutputTokens != 50 {
		t.Errorf("models = %+v", st.Models)
	}
}

func TestHandleChange(t *testing.T) {
	svc, ts, dir := newTestService(t)

	getJSON(t, http.MethodGet, ts.URL+"/v1/sessions/s1/messages", http.StatusOK, nil)

	path := filepath.Join(dir, "projects", "proj1", "s1.jsonl")
	svc.HandleChange(watch.Event{Path: path, Mtime: time.Now().Add(time.Hour)})

	newPath := filepath.Join(dir, "projects", "proj1", "s2.jsonl")
	svc.HandleChange(watch.Event{Path: newPath, Mtime: time.Now(), Created: true})
	// Writes to an unknown agent log are not announced.
	svc.HandleChange(watch.Event{Path: filepath.Join(dir, "projects", "proj1", "agent-x.jsonl"), Created: true})

	var events []Event
	getJSON(t, http.MethodGet, ts.URL+"/v1/events", http.StatusOK, &events)
	if len(events) != 2 {
		t.Fatalf("events = %+v, want 2", events)
	}
	if events[0].Type != EventSessionModified || events[0].SessionID != "s1" {
		t.Errorf("events[0] = %+v", events[0])
	}
	if events[1].Type != EventSessionCreated || events[1].Path != newPath || events[1].ID != 2 {
		t.Errorf("events[1] = %+v", events[1])
	}

	var stale map[string]bool
	getJSON(t, http.MethodGet, ts.URL+"/v1/sessions/s1/stale", http.StatusOK, &stale)
	if !stale["stale"] {
		t.Error("session not stale after noted modification")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	svc, _, _ := newTestService(t)
	for i := 0; i < 12; i++ {
		svc.publishEvent(Event{Type: EventRescan})
	}

	svc.mu.RLock()
	defer svc.mu.RUnlock()
	if len(svc.events) != 10 {
		t.Fatalf("events len = %d, want 10", len(svc.events))
	}
	if svc.events[0].ID != 3 || svc.events[9].ID != 12 {
		t.Fatalf("events ring holds IDs %d..%d, want 3..12", svc.events[0].ID, svc.events[9].ID)
	}
}

func TestWebSocketReceivesRescan(t *testing.T) {
	_, ts, dir := newTestService(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	// Wait for the server side to register the subscriber.
	deadline := time.Now().Add(5 * time.Second)
	for {
		var st Status
		getJSON(t, http.MethodGet, ts.URL+"/v1/status", http.StatusOK, &st)
		if st.SubscriberCount == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	writeLog(t, filepath.Join(dir, "projects", "proj2", "s9.jsonl"),
		`{"type":"user","timestamp":"2025-06-03T10:00:00Z","message":{"content":"new"}}`)

	var added map[string]int
	getJSON(t, http.MethodPost, ts.URL+"/v1/rescan", http.StatusOK, &added)
	if added["new_sessions"] != 1 {
		t.Errorf("new_sessions = %d, want 1", added["new_sessions"])
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if ev.Type != EventRescan || ev.NewSessions != 1 {
		t.Errorf("event = %+v", ev)
	}
}

func TestFilterFromQuery(t *testing.T) {
	q := url.Values{}
	q.Set("min_messages", "0")
	q.Set("max_tokens", "5000")
	q.Set("max_input_tokens", "0")
	q.Set("min_output_tokens", "10")
	q.Set("branch", "dev")
	q.Set("end_date", "2025-12-31")

	f, err := FilterFromQuery(q, model.DefaultFilter())
	if err != nil {
		t.Fatalf("FilterFromQuery: %v", err)
	}
	want := model.Filter{
		Messages:     model.Range{Min: 0},
		TotalTokens:  model.Range{Max: model.AtMost(5000)},
		InputTokens:  model.Range{Max: model.AtMost(0)},
		OutputTokens: model.Range{Min: 10},
		Branch:       "dev",
		EndDate:      "2025-12-31",
	}
	if !f.Equal(want) {
		t.Errorf("filter = %+v\nwant %+v", f, want)
	}
	if f.ActiveCount() != 6 {
		t.Errorf("ActiveCount = %d, want 6", f.ActiveCount())
	}
}
