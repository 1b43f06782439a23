// Package watch reports modifications of session logs under a Claude data
// directory. It only observes; reloading is left to the caller.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event describes one observed change to a .jsonl log.
type Event struct {
	Path    string
	Mtime   time.Time
	Created bool
}

// Handler receives events on the watcher goroutine.
type Handler func(Event)

// Watcher follows projects/ and every project directory below it.
type Watcher struct {
	fw          *fsnotify.Watcher
	projectsDir string
	logger      *log.Logger
	handle      Handler
}

// New creates a watcher for claudeDir/projects. The directory must exist.
func New(claudeDir string, logger *log.Logger, handle Handler) (*Watcher, error) {
	if logger == nil {
		logger = log.Default()
	}
	projectsDir := filepath.Join(claudeDir, "projects")
	if _, err := os.Stat(projectsDir); err != nil {
		return nil, fmt.Errorf("watching %s: %w", projectsDir, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	w := &Watcher{fw: fw, projectsDir: projectsDir, logger: logger, handle: handle}

	if err := fw.Add(projectsDir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watching %s: %w", projectsDir, err)
	}
	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("listing %s: %w", projectsDir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			w.addDir(filepath.Join(projectsDir, e.Name()))
		}
	}
	return w, nil
}

func (w *Watcher) addDir(dir string) {
	if err := w.fw.Add(dir); err != nil {
		w.logger.Printf("cinspect: watching %s: %v", dir, err)
	}
}

// Run dispatches events until ctx is canceled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fw.Close() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			w.dispatch(ev)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.Printf("cinspect: watcher overflow, some changes were missed")
				continue
			}
			w.logger.Printf("cinspect: watcher: %v", err)
		}
	}
}

func (w *Watcher) dispatch(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}

	info, err := os.Stat(ev.Name)
	if err != nil {
		return // already gone
	}

	// New project directories appear directly under projects/.
	if info.IsDir() {
		if ev.Has(fsnotify.Create) && filepath.Dir(ev.Name) == w.projectsDir {
			w.addDir(ev.Name)
		}
		return
	}

	if !strings.HasSuffix(ev.Name, ".jsonl") {
		return
	}
	w.handle(Event{
		Path:    ev.Name,
		Mtime:   info.ModTime(),
		Created: ev.Has(fsnotify.Create),
	})
}
