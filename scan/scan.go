// Package scan enumerates session log directories, builds the fast-path
// index, and resolves session files across renames.
package scan

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ketaki/kosha/core"
	"github.com/ketaki/kosha/reader"
)

// Root pairs a directory with the reader for the family whose logs live in it.
type Root struct {
	Dir    string
	Reader reader.Reader
}

// File is one discovered .jsonl log file.
type File struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	Reader  reader.Reader
}

// Index enumerates log roots and produces the initial summary set.
type Index struct {
	roots []Root
}

// New creates an Index over the given roots.
func New(roots ...Root) *Index {
	return &Index{roots: roots}
}

// Files walks every root recursively and returns the visible .jsonl files,
// excluding names the family's reader reserves (warm-up artifacts).
// Unreadable directories are skipped silently.
func (x *Index) Files(ctx context.Context) []File {
	var files []File
	for _, root := range x.roots {
		if ctx.Err() != nil {
			return files
		}
		_ = filepath.WalkDir(root.Dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if ctx.Err() != nil {
				return filepath.SkipAll
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), ".jsonl") {
				return nil
			}
			if root.Reader.SkipFile(d.Name()) {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			files = append(files, File{
				Path:    path,
				Name:    d.Name(),
				Size:    info.Size(),
				ModTime: info.ModTime(),
				Reader:  root.Reader,
			})
			return nil
		})
	}
	return files
}

// FastScan builds the approximate summary set for first paint: one bounded
// fast-path read per file, deduplicated by session id, sorted most recently
// updated first.
func (x *Index) FastScan(ctx context.Context) []core.SessionSummary {
	files := x.Files(ctx)

	best := make(map[string]candidate, len(files))
	var order []string

	for _, f := range files {
		if ctx.Err() != nil {
			break
		}
		summary, err := f.Reader.FastIndex(f.Path)
		if err != nil || summary == nil {
			continue
		}

		c := candidate{
			Summary: *summary,
			Name:    f.Name,
			ModTime: f.ModTime,
			Size:    f.Size,
			Temp:    f.Reader.TempFile(f.Name),
		}
		prev, seen := best[summary.ID]
		if !seen {
			order = append(order, summary.ID)
			best[summary.ID] = c
			continue
		}
		best[summary.ID] = Prefer(prev, c)
	}

	summaries := make([]core.SessionSummary, 0, len(order))
	for _, id := range order {
		summaries = append(summaries, best[id].Summary)
	}
	sortByActivity(summaries)
	return summaries
}

// IndexFile fast-indexes a single file belonging to one of the roots, used
// for incremental updates when a watcher reports the path as touched. ok is
// false when the path lies outside every root, carries a reserved name, or
// no longer yields a summary (deleted, or not a session log).
func (x *Index) IndexFile(path string) (core.SessionSummary, bool) {
	for _, root := range x.roots {
		rel, err := filepath.Rel(root.Dir, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if root.Reader.SkipFile(filepath.Base(path)) {
			return core.SessionSummary{}, false
		}
		summary, err := root.Reader.FastIndex(path)
		if err != nil || summary == nil {
			return core.SessionSummary{}, false
		}
		return *summary, true
	}
	return core.SessionSummary{}, false
}

// Stat returns the file's current size and mtime, or ok=false when it is
// gone. Used for cache validation and garbage collection.
func Stat(path string) (size int64, mtime time.Time, ok bool) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, time.Time{}, false
	}
	return info.Size(), info.ModTime(), true
}
