package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/theirongolddev/cinspect/internal/index"
	"github.com/theirongolddev/cinspect/internal/model"
	"github.com/theirongolddev/cinspect/internal/store"
)

// Handler returns the API routes wrapped in request-id and logging middleware.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/stats", s.handleStats)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	mux.HandleFunc("GET /v1/stream", s.handleStream)
	mux.HandleFunc("GET /v1/ws", s.handleWebSocket)
	mux.HandleFunc("POST /v1/rescan", s.handleRescan)

	mux.HandleFunc("GET /v1/sessions", s.handleSessions)
	mux.HandleFunc("GET /v1/sessions/{id}", s.handleSession)
	mux.HandleFunc("GET /v1/sessions/{id}/messages", s.handleMessages)
	mux.HandleFunc("GET /v1/sessions/{id}/stale", s.handleStale)
	mux.HandleFunc("POST /v1/sessions/{id}/refresh", s.handleRefresh)
	mux.HandleFunc("GET /v1/sessions/{id}/agents", s.handleAgents)
	mux.HandleFunc("GET /v1/sessions/{id}/agents/{agent}", s.handleAgentMessages)

	return withRequestID(s.withLogging(mux))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError maps lookup misses to 404 and everything else to status.
func writeError(w http.ResponseWriter, status int, err error) {
	if errors.Is(err, index.ErrNotFound) {
		status = http.StatusNotFound
	}
	writeJSON(w, status, errorBody{Error: err.Error(), RequestID: w.Header().Get(requestIDHeader)})
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

type statsResponse struct {
	Cache  store.Stats        `json:"cache"`
	Models []store.ModelUsage `json:"models"`
}

func (s *Service) handleStats(w http.ResponseWriter, _ *http.Request) {
	models, err := s.ix.ModelBreakdown()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Cache: s.ix.CacheStats(), Models: models})
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleRescan(w http.ResponseWriter, _ *http.Request) {
	added, err := s.rescan()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"new_sessions": added})
}

type sessionsResponse struct {
	Sessions      []model.SessionSummary `json:"sessions"`
	Count         int                    `json:"count"`
	ActiveFilters int                    `json:"active_filters"`
}

func (s *Service) handleSessions(w http.ResponseWriter, r *http.Request) {
	f, err := FilterFromQuery(r.URL.Query(), model.DefaultFilter())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rows, err := s.ix.List(f)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if rows == nil {
		rows = []model.SessionSummary{}
	}
	writeJSON(w, http.StatusOK, sessionsResponse{
		Sessions:      rows,
		Count:         len(rows),
		ActiveFilters: s.ix.ActiveFilterCount(f),
	})
}

func (s *Service) handleSession(w http.ResponseWriter, r *http.Request) {
	sum, err := s.ix.Summary(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func pageParams(q url.Values) (page, size int, err error) {
	page, size = 1, 0
	if v := q.Get("page"); v != "" {
		if page, err = strconv.Atoi(v); err != nil {
			return 0, 0, fmt.Errorf("invalid page %q", v)
		}
	}
	if v := q.Get("size"); v != "" {
		if size, err = strconv.Atoi(v); err != nil {
			return 0, 0, fmt.Errorf("invalid size %q", v)
		}
	}
	return page, size, nil
}

func (s *Service) handleMessages(w http.ResponseWriter, r *http.Request) {
	page, size, err := pageParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	pg, err := s.ix.Page(r.PathValue("id"), page, size)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, pg)
}

func (s *Service) handleStale(w http.ResponseWriter, r *http.Request) {
	stale, err := s.ix.IsStale(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"stale": stale})
}

func (s *Service) handleRefresh(w http.ResponseWriter, r *http.Request) {
	sess, err := s.ix.Refresh(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Summarize())
}

func (s *Service) handleAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := s.ix.Agents(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if agents == nil {
		agents = []model.AgentMetadata{}
	}
	writeJSON(w, http.StatusOK, agents)
}

func (s *Service) handleAgentMessages(w http.ResponseWriter, r *http.Request) {
	page, size, err := pageParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	pg, err := s.ix.AgentPage(r.PathValue("id"), r.PathValue("agent"), page, size)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, pg)
}

// FilterFromQuery overlays list filter query parameters onto base.
func FilterFromQuery(q url.Values, base model.Filter) (model.Filter, error) {
	f := base
	bounds := []struct {
		prefix string
		r      *model.Range
	}{
		{"messages", &f.Messages},
		{"tokens", &f.TotalTokens},
		{"input_tokens", &f.InputTokens},
		{"output_tokens", &f.OutputTokens},
	}
	for _, b := range bounds {
		if v := q.Get("min_" + b.prefix); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return f, fmt.Errorf("invalid min_%s %q", b.prefix, v)
			}
			b.r.Min = n
		}
		if v := q.Get("max_" + b.prefix); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return f, fmt.Errorf("invalid max_%s %q", b.prefix, v)
			}
			b.r.Max = model.AtMost(n)
		}
	}

	if q.Has("branch") {
		f.Branch = q.Get("branch")
	}
	if q.Has("start_date") {
		f.StartDate = q.Get("start_date")
	}
	if q.Has("end_date") {
		f.EndDate = q.Get("end_date")
	}
	return f, f.Validate()
}
