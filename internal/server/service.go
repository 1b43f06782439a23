// Package server exposes the session index over a local HTTP JSON API and
// pushes change notifications to connected clients.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/theirongolddev/cinspect/internal/index"
	"github.com/theirongolddev/cinspect/internal/source"
	"github.com/theirongolddev/cinspect/internal/watch"
)

// Event types pushed to subscribers.
const (
	EventSessionModified = "session_modified"
	EventSessionCreated  = "session_created"
	EventRescan          = "rescan"
)

// Config controls the server runtime behavior.
type Config struct {
	Addr         string
	Watch        bool
	EventsBuffer int
	Logger       *log.Logger
}

// Event is emitted whenever a watched log changes or the index is rescanned.
type Event struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	SessionID   string    `json:"session_id,omitempty"` // cache key; parent/agent for agents
	Path        string    `json:"path,omitempty"`
	NewSessions int       `json:"new_sessions,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	DataDir         string    `json:"data_dir"`
	Watching        bool      `json:"watching"`
	LastRescanAt    time.Time `json:"last_rescan_at"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the HTTP API over one Index.
type Service struct {
	cfg    Config
	ix     *index.Index
	logger *log.Logger

	mu           sync.RWMutex
	startedAt    time.Time
	lastRescanAt time.Time
	lastError    string
	nextEventID  int64
	events       []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a service over ix with the provided config.
func New(ix *index.Index, cfg Config) *Service {
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	return &Service{
		cfg:       cfg,
		ix:        ix,
		logger:    cfg.Logger,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Run serves HTTP and, when configured, watches the data directory until ctx
// is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if s.cfg.Watch {
		w, err := watch.New(s.ix.ClaudeDir(), s.logger, s.HandleChange)
		if err != nil {
			s.logger.Printf("cinspect: file watching disabled: %v", err)
			s.mu.Lock()
			s.cfg.Watch = false
			s.mu.Unlock()
		} else {
			go func() {
				if err := w.Run(ctx); err != nil {
					errCh <- err
				}
			}()
		}
	}

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("cinspect http server: %w", err)
	}
}

// HandleChange records a watched modification in the index and notifies
// subscribers. Logs without a cached entry are announced as new sessions.
func (s *Service) HandleChange(ev watch.Event) {
	if key, ok := s.ix.NoteModified(ev.Path, ev.Mtime); ok {
		s.publishEvent(Event{Type: EventSessionModified, SessionID: key, Path: ev.Path})
		return
	}
	if !ev.Created || !source.IsSessionFile(filepath.Base(ev.Path)) {
		return
	}
	s.publishEvent(Event{Type: EventSessionCreated, Path: ev.Path})
}

// rescan merges newly appeared sessions into the index.
func (s *Service) rescan() (int, error) {
	added, _, err := s.ix.Rescan()

	s.mu.Lock()
	s.lastRescanAt = time.Now()
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Printf("cinspect: rescan: %v", err)
		return 0, err
	}
	s.publishEvent(Event{Type: EventRescan, NewSessions: added})
	return added, nil
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.nextEventID++
	ev.ID = s.nextEventID
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		DataDir:         s.ix.ClaudeDir(),
		Watching:        s.cfg.Watch,
		LastRescanAt:    s.lastRescanAt,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
