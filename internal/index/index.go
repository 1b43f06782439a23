// Package index is the query layer over the session cache. Every consumer
// (CLI, TUI, HTTP API, MCP server) reads sessions through an Index.
package index

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/theirongolddev/cinspect/internal/model"
	"github.com/theirongolddev/cinspect/internal/pipeline"
	"github.com/theirongolddev/cinspect/internal/source"
	"github.com/theirongolddev/cinspect/internal/store"
)

// ErrNotFound reports an unknown session id or a missing log file.
var ErrNotFound = source.ErrNotFound

// DefaultPageSize is the number of messages per page when none is configured.
const DefaultPageSize = 20

// Options configures an Index.
type Options struct {
	ClaudeDir string
	PageSize  int
	Logger    *log.Logger
	Progress  pipeline.ProgressFunc

	// Now stamps load times; tests substitute a fixed clock.
	Now func() time.Time
}

// Index owns one Cache and one Catalog. All operations are serialized by a
// single mutex, so compound check-then-write sequences are atomic.
type Index struct {
	claudeDir string
	pageSize  int
	logger    *log.Logger
	progress  pipeline.ProgressFunc
	now       func() time.Time

	// scanMu serializes Rescan across its file scan, which runs outside mu
	// so queries are not blocked while files are parsed.
	scanMu sync.Mutex

	mu      sync.Mutex
	cache   *store.Cache
	catalog *store.Catalog
	known   map[string]struct{} // session ids seen by the last scan
	paths   map[string]string   // backing file path -> cache key
}

// New returns an Index over the given cache and catalog.
func New(opts Options, cache *store.Cache, catalog *store.Catalog) *Index {
	if opts.PageSize < 1 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Index{
		claudeDir: opts.ClaudeDir,
		pageSize:  opts.PageSize,
		logger:    opts.Logger,
		progress:  opts.Progress,
		now:       opts.Now,
		cache:     cache,
		catalog:   catalog,
		known:     make(map[string]struct{}),
		paths:     make(map[string]string),
	}
}

// Open returns an Index with a fresh cache and in-memory catalog.
func Open(opts Options) (*Index, error) {
	catalog, err := store.OpenCatalog()
	if err != nil {
		return nil, err
	}
	return New(opts, store.NewCache(), catalog), nil
}

// Close releases the catalog.
func (ix *Index) Close() error {
	return ix.catalog.Close()
}

// ClaudeDir returns the data directory the index reads from.
func (ix *Index) ClaudeDir() string { return ix.claudeDir }

// PageSize returns the default page size.
func (ix *Index) PageSize() int { return ix.pageSize }

// Load performs the initial metadata-only scan.
func (ix *Index) Load() (*pipeline.ScanResult, error) {
	_, result, err := ix.Rescan()
	return result, err
}

// Rescan re-runs the metadata-only scan and merges the result into the
// cache. Entries whose messages are already loaded are left untouched.
// It returns the number of sessions not seen by the previous scan.
func (ix *Index) Rescan() (int, *pipeline.ScanResult, error) {
	ix.scanMu.Lock()
	defer ix.scanMu.Unlock()

	result, err := pipeline.Scan(ix.claudeDir, source.MetadataOnly, ix.logger, ix.progress)
	if err != nil {
		return 0, nil, err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	added := 0
	known := make(map[string]struct{}, len(result.Sessions))
	rows := make([]*model.Session, 0, len(result.Sessions))
	for id, s := range result.Sessions {
		known[id] = struct{}{}
		if _, seen := ix.known[id]; !seen {
			added++
		}

		if ix.cache.IsLoaded(id) {
			loaded, _ := ix.cache.Get(id)
			rows = append(rows, loaded)
			continue
		}
		ix.cache.PutMetadata(id, s)
		ix.paths[s.FilePath] = id
		rows = append(rows, s)
	}
	ix.known = known

	if err := ix.catalog.ReplaceAll(rows); err != nil {
		return added, result, fmt.Errorf("rebuilding catalog: %w", err)
	}
	return added, result, nil
}

// List returns the summaries matching f, newest first.
func (ix *Index) List(f model.Filter) ([]model.SessionSummary, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.catalog.Query(f)
}

// ActiveFilterCount reports how many filters in f differ from the defaults.
func (ix *Index) ActiveFilterCount(f model.Filter) int {
	return f.ActiveCount()
}

// Summary returns the list row of one session without loading its messages.
func (ix *Index) Summary(id string) (model.SessionSummary, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	s, ok := ix.cache.Get(id)
	if !ok {
		return model.SessionSummary{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return s.Summarize(), nil
}

// Select returns session id with all messages loaded, reading the log file
// only if the cache holds metadata alone. The returned session is shared with
// the cache and must not be modified.
func (ix *Index) Select(id string) (*model.Session, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.selectLocked(id)
}

func (ix *Index) selectLocked(id string) (*model.Session, error) {
	if ix.cache.IsLoaded(id) {
		s, _ := ix.cache.Get(id)
		return s, nil
	}
	return ix.reloadLocked(id)
}

// reloadLocked re-assembles id at full depth and replaces the cached entry.
func (ix *Index) reloadLocked(id string) (*model.Session, error) {
	prev, ok := ix.cache.Get(id)
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}

	s, err := source.LoadSession(ix.claudeDir, prev.ProjectDir, id)
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}

	ix.cache.PutLoaded(id, s, ix.now())
	ix.paths[s.FilePath] = id
	if err := ix.catalog.Upsert(s); err != nil {
		ix.logger.Printf("cinspect: updating catalog for %s: %v", id, err)
	}
	return s, nil
}

// Page is one page of a session's messages.
type Page struct {
	Messages   []model.SessionMessage `json:"messages"`
	Page       int                    `json:"page"` // one-based
	PageSize   int                    `json:"page_size"`
	TotalPages int                    `json:"total_pages"`
	Total      int                    `json:"total_messages"`
}

// Page returns the page-th page (one-based) of session id. Out-of-range pages
// clamp to the first or last page. size < 1 selects the default page size.
func (ix *Index) Page(id string, page, size int) (Page, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	s, err := ix.selectLocked(id)
	if err != nil {
		return Page{}, err
	}
	return ix.paginate(s.Messages, page, size), nil
}

func (ix *Index) paginate(msgs []model.SessionMessage, page, size int) Page {
	if size < 1 {
		size = ix.pageSize
	}
	total := (len(msgs) + size - 1) / size
	if total < 1 {
		total = 1
	}
	page = min(max(page, 1), total)

	start := min((page-1)*size, len(msgs))
	end := min(start+size, len(msgs))
	return Page{
		Messages:   msgs[start:end:end],
		Page:       page,
		PageSize:   size,
		TotalPages: total,
		Total:      len(msgs),
	}
}

// IsStale reports whether key's backing file was modified after its messages
// were loaded. Equal timestamps are not stale. Entries that were never fully
// loaded are never stale.
func (ix *Index) IsStale(key string) (bool, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	s, ok := ix.cache.Get(key)
	if !ok {
		return false, fmt.Errorf("session %s: %w", key, ErrNotFound)
	}
	loadTime, ok := ix.cache.LoadTime(key)
	if !ok {
		return false, nil
	}

	if mtime, ok := ix.cache.CachedMtime(key); ok {
		return mtime.After(loadTime), nil
	}

	info, err := os.Stat(s.FilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("checking %s: %w", s.FilePath, err)
	}
	ix.cache.CacheMtime(key, info.ModTime())
	return info.ModTime().After(loadTime), nil
}

// Refresh re-reads session id at full depth, replacing its messages and load
// time, and clears the cached mtime so the next staleness check stats again.
func (ix *Index) Refresh(id string) (*model.Session, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	s, err := ix.reloadLocked(id)
	if err != nil {
		return nil, err
	}
	ix.cache.CacheMtime(id, time.Time{})
	return s, nil
}

// Agents returns the agent spawns recorded in session id, in message order.
func (ix *Index) Agents(id string) ([]model.AgentMetadata, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	s, err := ix.selectLocked(id)
	if err != nil {
		return nil, err
	}
	var out []model.AgentMetadata
	for _, m := range s.Messages {
		if m.AgentMetadata != nil {
			out = append(out, *m.AgentMetadata)
		}
	}
	return out, nil
}

// OpenAgent returns the agent sub-session agentID spawned from parentID,
// loading and caching it under the composite key on first use.
func (ix *Index) OpenAgent(parentID, agentID string) (*model.Session, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.openAgentLocked(parentID, agentID)
}

func (ix *Index) openAgentLocked(parentID, agentID string) (*model.Session, error) {
	key := store.AgentKey(parentID, agentID)
	if ix.cache.IsLoaded(key) {
		s, _ := ix.cache.Get(key)
		return s, nil
	}

	parent, ok := ix.cache.Get(parentID)
	if !ok {
		return nil, fmt.Errorf("session %s: %w", parentID, ErrNotFound)
	}
	s, err := source.LoadAgent(ix.claudeDir, parent.ProjectDir, agentID)
	if err != nil {
		return nil, fmt.Errorf("loading agent %s: %w", agentID, err)
	}

	ix.cache.PutLoaded(key, s, ix.now())
	ix.paths[s.FilePath] = key
	return s, nil
}

// AgentPage returns one page of an agent sub-session's messages.
func (ix *Index) AgentPage(parentID, agentID string, page, size int) (Page, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	s, err := ix.openAgentLocked(parentID, agentID)
	if err != nil {
		return Page{}, err
	}
	return ix.paginate(s.Messages, page, size), nil
}

// RefreshAgent re-reads an already opened agent sub-session.
func (ix *Index) RefreshAgent(parentID, agentID string) (*model.Session, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	parent, ok := ix.cache.Get(parentID)
	if !ok {
		return nil, fmt.Errorf("session %s: %w", parentID, ErrNotFound)
	}
	s, err := source.LoadAgent(ix.claudeDir, parent.ProjectDir, agentID)
	if err != nil {
		return nil, fmt.Errorf("loading agent %s: %w", agentID, err)
	}

	key := store.AgentKey(parentID, agentID)
	ix.cache.PutLoaded(key, s, ix.now())
	ix.cache.CacheMtime(key, time.Time{})
	return s, nil
}

// NoteModified records an observed modification time for the log at path.
// It returns the owning cache key, or ok=false when no cached entry is
// backed by path.
func (ix *Index) NoteModified(path string, mtime time.Time) (key string, ok bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	key, ok = ix.paths[path]
	if !ok {
		return "", false
	}
	ix.cache.CacheMtime(key, mtime)
	return key, true
}

// CacheStats reports cache occupancy.
func (ix *Index) CacheStats() store.Stats {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.cache.Stats()
}

// ModelBreakdown totals messages and tokens per model across listed sessions.
func (ix *Index) ModelBreakdown() ([]store.ModelUsage, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.catalog.ModelBreakdown()
}
