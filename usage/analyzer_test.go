package usage

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/ketaki/kosha/core"
	"github.com/ketaki/kosha/reader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// usageFake serves canned usage entries keyed by path.
type usageFake struct {
	mu      sync.Mutex
	entries map[string][]core.UsageEntry
	scanned []string
}

func (f *usageFake) Source() core.Source { return core.SourceClaude }

func (f *usageFake) CollectUsage(_ context.Context, path string) ([]core.UsageEntry, error) {
	f.mu.Lock()
	f.scanned = append(f.scanned, path)
	f.mu.Unlock()
	return f.entries[path], nil
}

func (f *usageFake) ParseFile(context.Context, string) (*core.Session, error) { return nil, nil }
func (f *usageFake) FastIndex(string) (*core.SessionSummary, error)           { return nil, nil }
func (f *usageFake) FastSessionID(string) string                              { return "" }
func (f *usageFake) SkipFile(string) bool                                     { return false }
func (f *usageFake) TempFile(string) bool                                     { return false }

func newAnalyzer(fake *usageFake, now time.Time) *Analyzer {
	return &Analyzer{
		Readers: map[core.Source]reader.Reader{core.SourceClaude: fake},
		Now:     func() time.Time { return now },
	}
}

func summaryFor(path string, at time.Time) core.SessionSummary {
	return core.SessionSummary{
		ID:        path,
		Path:      path,
		Source:    core.SourceClaude,
		StartedAt: at,
		CWD:       "/p",
	}
}

// now is a Wednesday so the Monday week start is unambiguous.
var wednesday = time.Date(2025, 6, 4, 14, 0, 0, 0, time.UTC)

func TestStatusNoData(t *testing.T) {
	fake := &usageFake{}
	a := newAnalyzer(fake, wednesday)

	status := a.Status(context.Background(), []core.SessionSummary{
		summaryFor("/logs/a.jsonl", wednesday),
	})
	assert.Nil(t, status)
}

func TestStatusCurrentWindow(t *testing.T) {
	start := wednesday.Add(-2 * time.Hour)
	fake := &usageFake{entries: map[string][]core.UsageEntry{
		"/logs/a.jsonl": {
			{Timestamp: start, Tokens: core.TokenUsage{OutputTokens: 10}, Model: "claude-sonnet-4"},
			{Timestamp: start.Add(30 * time.Minute), Tokens: core.TokenUsage{OutputTokens: 5}},
		},
	}}
	a := newAnalyzer(fake, wednesday)

	status := a.Status(context.Background(), []core.SessionSummary{
		summaryFor("/logs/a.jsonl", wednesday),
	})
	require.NotNil(t, status)

	assert.Equal(t, start, status.WindowStart)
	assert.Equal(t, 2*time.Hour, status.WindowElapsed)
	assert.False(t, status.WindowLimited)
	require.NotNil(t, status.WindowResetAt)
	assert.Equal(t, start.Add(BlockWindow), *status.WindowResetAt)

	assert.Equal(t, 15, status.Tokens.OutputTokens)
	assert.Equal(t, []string{"claude-sonnet-4"}, status.Models)
}

func TestStatusLimitedWindow(t *testing.T) {
	start := wednesday.Add(-time.Hour)
	reset := wednesday.Add(4 * time.Hour)
	fake := &usageFake{entries: map[string][]core.UsageEntry{
		"/logs/a.jsonl": {
			{Timestamp: start, Tokens: core.TokenUsage{OutputTokens: 10}},
			{
				Timestamp:    start.Add(30 * time.Minute),
				LimitReached: true,
				ResetHint:    "usage limit reached|" + unixStr(reset),
			},
		},
	}}
	a := newAnalyzer(fake, wednesday)

	status := a.Status(context.Background(), []core.SessionSummary{
		summaryFor("/logs/a.jsonl", wednesday),
	})
	require.NotNil(t, status)

	assert.True(t, status.WindowLimited)
	assert.Equal(t, BlockWindow, status.WindowElapsed, "a saturated window reports in full")
	require.NotNil(t, status.WindowResetAt)
	assert.True(t, status.WindowResetAt.Equal(reset))
}

func TestStatusWeeklyAccounting(t *testing.T) {
	weekStart := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC) // Monday

	fake := &usageFake{entries: map[string][]core.UsageEntry{
		"/logs/a.jsonl": {
			// Two hours of activity on Monday morning.
			{Timestamp: weekStart.Add(9 * time.Hour)},
			{Timestamp: weekStart.Add(11 * time.Hour)},
			// One hour on Wednesday.
			{Timestamp: wednesday.Add(-time.Hour)},
			{Timestamp: wednesday},
		},
	}}
	a := newAnalyzer(fake, wednesday)

	status := a.Status(context.Background(), []core.SessionSummary{
		summaryFor("/logs/a.jsonl", wednesday),
	})
	require.NotNil(t, status)

	assert.Equal(t, 3*time.Hour, status.WeekUsed)
	assert.True(t, status.WeekResetAt.Equal(weekStart.AddDate(0, 0, 7)))
}

func TestStatusWeeklyLimitOverridesReset(t *testing.T) {
	override := wednesday.Add(30 * time.Hour)
	fake := &usageFake{entries: map[string][]core.UsageEntry{
		"/logs/a.jsonl": {
			{Timestamp: wednesday.Add(-time.Hour)},
			{
				Timestamp:    wednesday.Add(-30 * time.Minute),
				LimitReached: true,
				WeeklyLimit:  true,
				ResetHint:    "weekly limit reached|" + unixStr(override),
			},
		},
	}}
	a := newAnalyzer(fake, wednesday)

	status := a.Status(context.Background(), []core.SessionSummary{
		summaryFor("/logs/a.jsonl", wednesday),
	})
	require.NotNil(t, status)
	assert.True(t, status.WeekResetAt.Equal(override))
	assert.False(t, status.WindowLimited, "a weekly limit does not saturate the 5h window")
}

func TestStatusHonorsFileLimit(t *testing.T) {
	entries := map[string][]core.UsageEntry{}
	var summaries []core.SessionSummary
	for _, name := range []string{"a", "b", "c"} {
		path := "/logs/" + name + ".jsonl"
		entries[path] = []core.UsageEntry{{Timestamp: wednesday.Add(-time.Hour)}}
		summaries = append(summaries, summaryFor(path, wednesday))
	}
	fake := &usageFake{entries: entries}
	a := newAnalyzer(fake, wednesday)
	a.FileLimit = 2

	status := a.Status(context.Background(), summaries)
	require.NotNil(t, status)
	assert.Len(t, fake.scanned, 2)
}

func unixStr(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}
