// Package analyze discovers and parses the source files of a repository.
package analyze

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/phobologic/autodoc/internal/discover"
	"github.com/phobologic/autodoc/internal/model"
	"github.com/phobologic/autodoc/internal/parse"
)

// Options tunes an analysis run.
type Options struct {
	Gitignore   bool
	MaxFileSize int64 // bytes; <= 0 disables the limit
	Workers     int   // <= 0 means GOMAXPROCS
	Logger      *slog.Logger
}

// Run discovers and parses every source file under root. Records are
// returned sorted by path. Files that cannot be read are logged and
// skipped; files that do not parse come back degraded.
func Run(root string, opts Options) ([]model.SourceFile, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	files, err := discover.Files(root, discover.Options{Gitignore: opts.Gitignore})
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}
	files = filterBySize(root, files, opts.MaxFileSize, logger)
	if len(files) == 0 {
		return nil, nil
	}

	records := parseConcurrent(root, files, opts.Workers, logger)
	for i := range records {
		if records[i].Degraded() {
			logger.Warn("degraded parse", "path", records[i].Path, "reason", records[i].ParseError)
		}
	}
	logger.Debug("analysis complete", "root", root, "files", len(records))
	return records, nil
}

func filterBySize(root string, files []discover.FileEntry, maxSize int64, logger *slog.Logger) []discover.FileEntry {
	if maxSize <= 0 {
		return files
	}
	var kept []discover.FileEntry
	for _, f := range files {
		fi, err := os.Stat(filepath.Join(root, filepath.FromSlash(f.Path)))
		if err != nil {
			kept = append(kept, f) // keep if can't stat
			continue
		}
		if fi.Size() > maxSize {
			logger.Warn("skipped file", "path", f.Path, "size", fi.Size(), "limit", maxSize)
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

func parseConcurrent(root string, files []discover.FileEntry, workers int, logger *slog.Logger) []model.SourceFile {
	type result struct {
		index int
		sf    model.SourceFile
	}

	numWorkers := workers
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make(chan result, len(files))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Each goroutine gets its own parser
			p := parse.New()

			for idx := range work {
				f := files[idx]
				source, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(f.Path)))
				if err != nil {
					logger.Warn("failed to read file", "path", f.Path, "err", err)
					continue
				}
				results <- result{index: idx, sf: p.Parse(f.Path, source)}
			}
		}()
	}

	for i := range files {
		work <- i
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results in original (sorted) order
	indexed := make([]model.SourceFile, len(files))
	valid := make([]bool, len(files))
	for r := range results {
		indexed[r.index] = r.sf
		valid[r.index] = true
	}

	var records []model.SourceFile
	for i, ok := range valid {
		if ok {
			records = append(records, indexed[i])
		}
	}
	return records
}
