// Package store holds the in-memory session cache and the SQLite summary
// catalog used to filter and sort the session list.
package store

import (
	"time"

	"github.com/theirongolddev/cinspect/internal/model"
)

// AgentKeySeparator joins a parent session id and an agent id.
const AgentKeySeparator = "/"

// AgentKey returns the cache key of an agent sub-session. It cannot collide
// with an ordinary session id, which never contains the separator.
func AgentKey(parentID, agentID string) string {
	return parentID + AgentKeySeparator + agentID
}

type entry struct {
	session  *model.Session
	loaded   bool
	loadTime time.Time
	mtime    time.Time // zero when unknown
}

// Cache maps session keys to assembled sessions and tracks whether their
// messages are fully loaded. It is not safe for concurrent use; callers
// serialize access.
type Cache struct {
	entries map[string]*entry
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*entry)}
}

func (c *Cache) ensure(id string) *entry {
	e, ok := c.entries[id]
	if !ok {
		e = &entry{}
		c.entries[id] = e
	}
	return e
}

// PutMetadata stores s under id without marking its messages loaded.
func (c *Cache) PutMetadata(id string, s *model.Session) {
	c.ensure(id).session = s
}

// PutLoaded stores s under id and marks its messages loaded at loadTime.
func (c *Cache) PutLoaded(id string, s *model.Session, loadTime time.Time) {
	e := c.ensure(id)
	e.session = s
	e.loaded = true
	e.loadTime = loadTime
}

// IsLoaded reports whether id has been stored with PutLoaded.
func (c *Cache) IsLoaded(id string) bool {
	e, ok := c.entries[id]
	return ok && e.loaded
}

// Get returns the session stored under id.
func (c *Cache) Get(id string) (*model.Session, bool) {
	e, ok := c.entries[id]
	if !ok || e.session == nil {
		return nil, false
	}
	return e.session, true
}

// LoadTime returns when id's messages were last loaded.
func (c *Cache) LoadTime(id string) (time.Time, bool) {
	e, ok := c.entries[id]
	if !ok || !e.loaded {
		return time.Time{}, false
	}
	return e.loadTime, true
}

// CacheMtime records the backing file's modification time for id. A zero
// mtime invalidates the record and forces a stat on the next check.
func (c *Cache) CacheMtime(id string, mtime time.Time) {
	c.ensure(id).mtime = mtime
}

// CachedMtime returns the recorded modification time for id.
func (c *Cache) CachedMtime(id string) (time.Time, bool) {
	e, ok := c.entries[id]
	if !ok || e.mtime.IsZero() {
		return time.Time{}, false
	}
	return e.mtime, true
}

// Len returns the number of cached sessions.
func (c *Cache) Len() int {
	n := 0
	for _, e := range c.entries {
		if e.session != nil {
			n++
		}
	}
	return n
}

// Clear drops all state.
func (c *Cache) Clear() {
	clear(c.entries)
}

// Stats describes cache occupancy.
type Stats struct {
	SessionsCached       int     `json:"sessions_cached"`
	SessionsWithMessages int     `json:"sessions_with_messages"`
	MessagesInCache      int     `json:"total_messages_in_cache"`
	MemoryEstimateMB     float64 `json:"memory_estimate_mb"`
}

// approxMessageKB is a rough per-message footprint used for the memory estimate.
const approxMessageKB = 2

// Stats returns cache occupancy.
func (c *Cache) Stats() Stats {
	var st Stats
	for _, e := range c.entries {
		if e.session == nil {
			continue
		}
		st.SessionsCached++
		if e.loaded {
			st.SessionsWithMessages++
		}
		st.MessagesInCache += len(e.session.Messages)
	}
	st.MemoryEstimateMB = float64(st.MessagesInCache*approxMessageKB) / 1024
	return st
}
