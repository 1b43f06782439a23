package store

import (
	"testing"
	"time"

	"github.com/theirongolddev/cinspect/internal/model"
)

func sessionWith(id string, n int) *model.Session {
	s := &model.Session{SessionID: id}
	for i := 0; i < n; i++ {
		s.Messages = append(s.Messages, model.SessionMessage{Type: model.TypeUser})
	}
	return s
}

func TestCache_LoadStateSeparation(t *testing.T) {
	c := NewCache()
	s := sessionWith("a", 1)

	c.PutMetadata("a", s)
	if c.IsLoaded("a") {
		t.Error("IsLoaded after PutMetadata = true")
	}
	if _, ok := c.LoadTime("a"); ok {
		t.Error("LoadTime set after PutMetadata")
	}
	if got, ok := c.Get("a"); !ok || got != s {
		t.Error("Get after PutMetadata did not return the session")
	}

	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	c.PutLoaded("a", s, at)
	if !c.IsLoaded("a") {
		t.Error("IsLoaded after PutLoaded = false")
	}
	if lt, ok := c.LoadTime("a"); !ok || !lt.Equal(at) {
		t.Errorf("LoadTime = %v, %v; want %v", lt, ok, at)
	}
}

func TestCache_PutMetadataKeepsLoadedFlag(t *testing.T) {
	c := NewCache()
	at := time.Now()
	c.PutLoaded("a", sessionWith("a", 3), at)
	c.PutMetadata("a", sessionWith("a", 1))

	// The flag survives; callers must not overwrite loaded entries.
	if !c.IsLoaded("a") {
		t.Error("PutMetadata cleared the loaded flag")
	}
}

func TestCache_AgentKeyIsolation(t *testing.T) {
	c := NewCache()
	at := time.Now()
	plain := sessionWith("X", 1)
	agent := sessionWith("agent-X", 4)

	c.PutLoaded("X", plain, at)
	c.PutLoaded(AgentKey("P", "X"), agent, at)

	if got, _ := c.Get("X"); got != plain {
		t.Error("ordinary session overwritten by agent")
	}
	if got, _ := c.Get(AgentKey("P", "X")); got != agent {
		t.Error("agent session missing")
	}
	if AgentKey("P", "X") != "P/X" {
		t.Errorf("AgentKey = %q", AgentKey("P", "X"))
	}
}

func TestCache_Mtime(t *testing.T) {
	c := NewCache()
	if _, ok := c.CachedMtime("a"); ok {
		t.Error("CachedMtime on empty cache")
	}

	m := time.Unix(1_700_000_000, 0)
	c.CacheMtime("a", m)
	if got, ok := c.CachedMtime("a"); !ok || !got.Equal(m) {
		t.Errorf("CachedMtime = %v, %v", got, ok)
	}

	c.CacheMtime("a", time.Time{})
	if _, ok := c.CachedMtime("a"); ok {
		t.Error("zero mtime did not invalidate")
	}
	// An mtime-only entry is not a cached session.
	if _, ok := c.Get("a"); ok {
		t.Error("Get returned a session for an mtime-only entry")
	}
}

func TestCache_ClearAndStats(t *testing.T) {
	c := NewCache()
	c.PutMetadata("a", sessionWith("a", 2))
	c.PutLoaded("b", sessionWith("b", 1022), time.Now())
	c.CacheMtime("c", time.Now())

	st := c.Stats()
	if st.SessionsCached != 2 || st.SessionsWithMessages != 1 || st.MessagesInCache != 1024 {
		t.Errorf("Stats = %+v", st)
	}
	if st.MemoryEstimateMB != 2 {
		t.Errorf("MemoryEstimateMB = %v, want 2", st.MemoryEstimateMB)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}

	c.Clear()
	if c.Len() != 0 || c.IsLoaded("b") {
		t.Error("Clear left state behind")
	}
}
