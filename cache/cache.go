// Package cache persists per-file derived scan data (calendar coverage,
// tool/token scans) keyed by absolute path plus the file's modification time.
// The whole cache is one JSON snapshot on disk; a corrupt or missing snapshot
// is simply an empty cache.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ketaki/kosha/core"
)

// SnapshotVersion guards the on-disk format. A mismatch is treated as empty.
const SnapshotVersion = 1

// Default capacity ceilings and write debounce.
const (
	DefaultCoverageCap = 2048
	DefaultToolCap     = 4096
	DefaultFlushDelay  = 500 * time.Millisecond
)

// evictFraction is the share of entries dropped in one eviction pass.
const evictFraction = 5 // 1/5 = 20%

// CoverageRecord holds the set of active days for one (path, month) pair.
type CoverageRecord struct {
	Path       string `json:"path"`
	Month      string `json:"month"` // "2006-01"
	Mtime      int64  `json:"mtime"` // unix nanoseconds at scan time
	Days       []int  `json:"days"`
	LastAccess int64  `json:"last_access"`
}

// ToolRecord holds the tool-invocation count and last token snapshot for one
// path.
type ToolRecord struct {
	Path       string           `json:"path"`
	Mtime      int64            `json:"mtime"`
	ToolCount  int              `json:"tool_count"`
	LastTokens *core.TokenUsage `json:"last_tokens,omitempty"`
	LastAccess int64            `json:"last_access"`
}

type snapshot struct {
	Version  int              `json:"version"`
	Coverage []CoverageRecord `json:"coverage"`
	Tools    []ToolRecord     `json:"tools"`
}

// Diagnostics is the queryable cache state.
type Diagnostics struct {
	CachedCoverageEntries int
	CachedToolEntries     int
	LastScanTimestamps    map[string]time.Time
}

// Cache is the single-writer disk cache. All access is serialized through
// one mutex; writes are debounced and flushed as one atomic snapshot.
type Cache struct {
	path string

	mu       sync.Mutex
	coverage map[string]*CoverageRecord // keyed by path + "\x00" + month
	tools    map[string]*ToolRecord
	lastScan map[string]time.Time
	dirty    bool
	timer    *time.Timer

	coverageCap int
	toolCap     int
	flushDelay  time.Duration
	now         func() time.Time
}

// Open loads the snapshot at path. Read failure, version mismatch, and
// corruption all yield an empty cache, never an error.
func Open(path string) *Cache {
	c := &Cache{
		path:        path,
		coverage:    make(map[string]*CoverageRecord),
		tools:       make(map[string]*ToolRecord),
		lastScan:    make(map[string]time.Time),
		coverageCap: DefaultCoverageCap,
		toolCap:     DefaultToolCap,
		flushDelay:  DefaultFlushDelay,
		now:         time.Now,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return c
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil || snap.Version != SnapshotVersion {
		return c
	}

	for i := range snap.Coverage {
		rec := snap.Coverage[i]
		c.coverage[coverageKey(rec.Path, rec.Month)] = &rec
	}
	for i := range snap.Tools {
		rec := snap.Tools[i]
		c.tools[rec.Path] = &rec
	}
	return c
}

func coverageKey(path, month string) string { return path + "\x00" + month }

// GetCoverage returns the cached day set for (path, month) when the stored
// mtime bit-exactly matches mtime. Any mismatch is a miss.
func (c *Cache) GetCoverage(path, month string, mtime time.Time) ([]int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.coverage[coverageKey(path, month)]
	if !ok || rec.Mtime != mtime.UnixNano() {
		return nil, false
	}
	rec.LastAccess = c.now().UnixNano()
	return append([]int(nil), rec.Days...), true
}

// SetCoverage stores the day set for (path, month) captured at mtime.
func (c *Cache) SetCoverage(path, month string, mtime time.Time, days []int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sorted := append([]int(nil), days...)
	sort.Ints(sorted)
	c.coverage[coverageKey(path, month)] = &CoverageRecord{
		Path:       path,
		Month:      month,
		Mtime:      mtime.UnixNano(),
		Days:       sorted,
		LastAccess: c.now().UnixNano(),
	}
	c.lastScan[path] = c.now()

	if len(c.coverage) > c.coverageCap {
		c.evictCoverage()
	}
	c.scheduleFlush()
}

// GetTools returns the cached tool/token record for path at mtime.
func (c *Cache) GetTools(path string, mtime time.Time) (ToolRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.tools[path]
	if !ok || rec.Mtime != mtime.UnixNano() {
		return ToolRecord{}, false
	}
	rec.LastAccess = c.now().UnixNano()
	return *rec, true
}

// SetTools stores the tool count and last token snapshot for path at mtime.
func (c *Cache) SetTools(path string, mtime time.Time, toolCount int, tokens *core.TokenUsage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec := &ToolRecord{
		Path:       path,
		Mtime:      mtime.UnixNano(),
		ToolCount:  toolCount,
		LastAccess: c.now().UnixNano(),
	}
	if tokens != nil {
		t := *tokens
		rec.LastTokens = &t
	}
	c.tools[path] = rec
	c.lastScan[path] = c.now()

	if len(c.tools) > c.toolCap {
		c.evictTools()
	}
	c.scheduleFlush()
}

// evictCoverage drops the oldest-by-last-access 20% in one pass.
// Caller holds c.mu.
func (c *Cache) evictCoverage() {
	recs := make([]*CoverageRecord, 0, len(c.coverage))
	for _, rec := range c.coverage {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].LastAccess < recs[j].LastAccess })

	for _, rec := range recs[:len(recs)/evictFraction] {
		delete(c.coverage, coverageKey(rec.Path, rec.Month))
	}
}

// evictTools drops the oldest-by-last-access 20% in one pass.
// Caller holds c.mu.
func (c *Cache) evictTools() {
	recs := make([]*ToolRecord, 0, len(c.tools))
	for _, rec := range c.tools {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].LastAccess < recs[j].LastAccess })

	for _, rec := range recs[:len(recs)/evictFraction] {
		delete(c.tools, rec.Path)
	}
}

// scheduleFlush coalesces rapid successive writes into one disk flush.
// Caller holds c.mu.
func (c *Cache) scheduleFlush() {
	c.dirty = true
	if c.timer != nil {
		return
	}
	c.timer = time.AfterFunc(c.flushDelay, func() {
		_ = c.Flush()
	})
}

// Flush writes the snapshot atomically (temp file + rename). Write failure
// is best-effort: the in-memory state stays authoritative.
func (c *Cache) Flush() error {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if !c.dirty {
		c.mu.Unlock()
		return nil
	}
	c.dirty = false

	snap := snapshot{Version: SnapshotVersion}
	for _, rec := range c.coverage {
		snap.Coverage = append(snap.Coverage, *rec)
	}
	for _, rec := range c.tools {
		snap.Tools = append(snap.Tools, *rec)
	}
	c.mu.Unlock()

	sort.Slice(snap.Coverage, func(i, j int) bool {
		a, b := snap.Coverage[i], snap.Coverage[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return a.Month < b.Month
	})
	sort.Slice(snap.Tools, func(i, j int) bool { return snap.Tools[i].Path < snap.Tools[j].Path })

	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".scan-*.json")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, c.path)
}

// Stats returns cache diagnostics.
func (c *Cache) Stats() Diagnostics {
	c.mu.Lock()
	defer c.mu.Unlock()

	scans := make(map[string]time.Time, len(c.lastScan))
	for path, t := range c.lastScan {
		scans[path] = t
	}
	return Diagnostics{
		CachedCoverageEntries: len(c.coverage),
		CachedToolEntries:     len(c.tools),
		LastScanTimestamps:    scans,
	}
}
