// Package pipeline runs the filesystem indexer: discovery plus parallel
// assembly of every session log under a Claude data directory.
package pipeline

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/theirongolddev/cinspect/internal/model"
	"github.com/theirongolddev/cinspect/internal/source"
)

// ScanResult holds the output of one indexer pass.
type ScanResult struct {
	Sessions     map[string]*model.Session
	TotalFiles   int
	ParsedFiles  int
	ParseErrors  int
	FileErrors   int
	ProjectCount int
}

// ProgressFunc is called during loading to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// Scan discovers session logs under claudeDir and assembles each at depth
// using a bounded worker pool. A file that cannot be read is logged and
// omitted; only a failure to list the projects directory is returned.
func Scan(claudeDir string, depth source.Depth, logger *log.Logger, progressFn ProgressFunc) (*ScanResult, error) {
	if logger == nil {
		logger = log.Default()
	}

	files, err := source.ScanDir(claudeDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", claudeDir, err)
	}

	result := &ScanResult{
		Sessions:     make(map[string]*model.Session, len(files)),
		TotalFiles:   len(files),
		ProjectCount: source.CountProjects(files),
	}
	if len(files) == 0 {
		return result, nil
	}

	// Parallel parsing with bounded worker pool
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make([]source.ParseResult, len(files))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range files {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = source.AssembleFile(files[idx], depth)
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n), len(files))
				}
			}
		}()
	}

	wg.Wait()

	// Collect in discovery order so duplicate ids resolve deterministically.
	for i, pr := range results {
		if pr.Err != nil {
			result.FileErrors++
			logger.Printf("cinspect: skipping %s: %v", files[i].Path, pr.Err)
			continue
		}
		result.ParsedFiles++
		result.ParseErrors += pr.ParseErrors
		if prev, dup := result.Sessions[pr.Session.SessionID]; dup {
			logger.Printf("cinspect: session %s found in %s and %s; keeping the latter",
				pr.Session.SessionID, prev.ProjectDir, pr.Session.ProjectDir)
		}
		result.Sessions[pr.Session.SessionID] = pr.Session
	}

	return result, nil
}
