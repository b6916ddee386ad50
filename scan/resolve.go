package scan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Entry is one file in a directory listing, as seen by the Resolver.
type Entry struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Lister abstracts directory listing so the resolution chain is testable
// without real files.
type Lister interface {
	List(dir string) ([]Entry, error)
	Exists(path string) bool
}

// OSLister is the production Lister backed by the real filesystem.
type OSLister struct{}

// List returns the .jsonl entries of dir.
func (OSLister) List(dir string) ([]Entry, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	for _, de := range des {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".jsonl") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Name: de.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	return entries, nil
}

// Exists reports whether path names an existing file.
func (OSLister) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Resolver finds the canonical on-disk file for a session id after possible
// renames. The fallback chain is: last known path, cached id→path mapping,
// sibling scan by filename substring, sibling scan by content fast-id. Each
// step short-circuits on first hit.
type Resolver struct {
	FS Lister
	// FastID extracts a session id from a file's prefix. Used as the last
	// resort when the filename gives nothing away.
	FastID func(path string) string
	// Temp classifies pre-rename filenames so canonical names win.
	Temp func(name string) bool

	mu     sync.Mutex
	mapped map[string]string
}

// Resolve returns the current path for id, or "" when nothing matches.
// lastKnown may be empty.
func (r *Resolver) Resolve(id, lastKnown string) string {
	if id == "" {
		return ""
	}

	if lastKnown != "" && r.FS.Exists(lastKnown) {
		r.remember(id, lastKnown)
		return lastKnown
	}

	if cached := r.lookup(id); cached != "" && r.FS.Exists(cached) {
		return cached
	}

	if lastKnown == "" {
		return ""
	}
	dir := filepath.Dir(lastKnown)

	if path := r.scanByName(dir, id); path != "" {
		r.remember(id, path)
		return path
	}
	if path := r.scanByContent(dir, id); path != "" {
		r.remember(id, path)
		return path
	}
	return ""
}

// scanByName picks sibling files whose filename contains the id substring.
func (r *Resolver) scanByName(dir, id string) string {
	entries, err := r.FS.List(dir)
	if err != nil {
		return ""
	}
	var hits []Entry
	for _, e := range entries {
		if strings.Contains(e.Name, id) {
			hits = append(hits, e)
		}
	}
	return r.pick(dir, hits)
}

// scanByContent falls back to sniffing each sibling's fast-path id.
func (r *Resolver) scanByContent(dir, id string) string {
	if r.FastID == nil {
		return ""
	}
	entries, err := r.FS.List(dir)
	if err != nil {
		return ""
	}
	var hits []Entry
	for _, e := range entries {
		if r.FastID(filepath.Join(dir, e.Name)) == id {
			hits = append(hits, e)
		}
	}
	return r.pick(dir, hits)
}

// pick orders hits the same way the dedup policy does: non-temporary first,
// then newer mtime, ties broken by lexical filename order.
func (r *Resolver) pick(dir string, hits []Entry) string {
	if len(hits) == 0 {
		return ""
	}
	sort.Slice(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		ta, tb := r.isTemp(a.Name), r.isTemp(b.Name)
		if ta != tb {
			return !ta
		}
		if !a.ModTime.Equal(b.ModTime) {
			return a.ModTime.After(b.ModTime)
		}
		return a.Name < b.Name
	})
	return filepath.Join(dir, hits[0].Name)
}

func (r *Resolver) isTemp(name string) bool {
	return r.Temp != nil && r.Temp(name)
}

func (r *Resolver) remember(id, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mapped == nil {
		r.mapped = make(map[string]string)
	}
	r.mapped[id] = path
}

func (r *Resolver) lookup(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mapped[id]
}
