package scan

import (
	"sort"
	"sync"

	"github.com/ketaki/kosha/core"
)

// Table is the mutable view of the current summary set. Enrichment batches
// arrive in completion order, so all writes are idempotent upserts keyed by
// session id; reads return a sorted copy.
type Table struct {
	mu   sync.RWMutex
	byID map[string]core.SessionSummary
}

// NewTable creates a Table seeded with the given summaries.
func NewTable(summaries []core.SessionSummary) *Table {
	t := &Table{byID: make(map[string]core.SessionSummary, len(summaries))}
	for _, s := range summaries {
		t.byID[s.ID] = s
	}
	return t
}

// Upsert adds or replaces summaries by session id.
func (t *Table) Upsert(summaries ...core.SessionSummary) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range summaries {
		t.byID[s.ID] = s
	}
}

// Remove drops sessions whose files disappeared from a directory scan.
func (t *Table) Remove(ids ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range ids {
		delete(t.byID, id)
	}
}

// Get returns the summary for id.
func (t *Table) Get(id string) (core.SessionSummary, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.byID[id]
	return s, ok
}

// ByPath returns the summary that was indexed from the given file. Watch
// batches arrive as paths; a removal has to map the path back to its id.
func (t *Table) ByPath(path string) (core.SessionSummary, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, s := range t.byID {
		if s.Path == path {
			return s, true
		}
	}
	return core.SessionSummary{}, false
}

// Len returns the session count.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}

// Sorted returns all summaries, most recently updated first.
func (t *Table) Sorted() []core.SessionSummary {
	t.mu.RLock()
	summaries := make([]core.SessionSummary, 0, len(t.byID))
	for _, s := range t.byID {
		summaries = append(summaries, s)
	}
	t.mu.RUnlock()

	sortByActivity(summaries)
	return summaries
}

// CWDCounts returns the session count per working directory, the input to
// the path tree aggregator.
func (t *Table) CWDCounts() map[string]int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	counts := make(map[string]int)
	for _, s := range t.byID {
		if s.CWD != "" {
			counts[s.CWD]++
		}
	}
	return counts
}

func sortByActivity(summaries []core.SessionSummary) {
	sort.Slice(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if !a.LastActivity().Equal(b.LastActivity()) {
			return a.LastActivity().After(b.LastActivity())
		}
		return a.ID < b.ID
	})
}
