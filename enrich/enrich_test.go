package enrich

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ketaki/kosha/core"
	"github.com/ketaki/kosha/reader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader serves canned sessions keyed by path.
type fakeReader struct {
	mu       sync.Mutex
	sessions map[string]*core.Session
	delay    time.Duration
	parsed   []string
}

func (f *fakeReader) Source() core.Source { return core.SourceClaude }

func (f *fakeReader) ParseFile(ctx context.Context, path string) (*core.Session, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	f.parsed = append(f.parsed, path)
	f.mu.Unlock()
	return f.sessions[path], nil
}

func (f *fakeReader) FastIndex(string) (*core.SessionSummary, error)            { return nil, nil }
func (f *fakeReader) FastSessionID(string) string                               { return "" }
func (f *fakeReader) CollectUsage(context.Context, string) ([]core.UsageEntry, error) {
	return nil, nil
}
func (f *fakeReader) SkipFile(string) bool { return false }
func (f *fakeReader) TempFile(string) bool { return false }

// fakeNotes is a static note overlay.
type fakeNotes map[string][2]string

func (f fakeNotes) Note(id string) (string, string, bool) {
	n, ok := f[id]
	return n[0], n[1], ok
}

func approx(id, path string) core.SessionSummary {
	return core.SessionSummary{
		ID:          id,
		Path:        path,
		Source:      core.SourceClaude,
		StartedAt:   time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		CWD:         "/p",
		Approximate: true,
	}
}

func full(id, path string, msgs int) *core.Session {
	sum := approx(id, path)
	sum.Approximate = false
	sum.MessageCount = msgs
	return &core.Session{Summary: sum}
}

func TestEnrichReplacesApproximations(t *testing.T) {
	fake := &fakeReader{sessions: map[string]*core.Session{
		"/logs/a.jsonl": full("a", "/logs/a.jsonl", 5),
		"/logs/b.jsonl": full("b", "/logs/b.jsonl", 9),
	}}
	s := &Scheduler{
		Readers: map[core.Source]reader.Reader{core.SourceClaude: fake},
		Workers: 2,
	}

	var mu sync.Mutex
	got := make(map[string]core.SessionSummary)
	run := s.Enrich(context.Background(), "list",
		[]core.SessionSummary{approx("a", "/logs/a.jsonl"), approx("b", "/logs/b.jsonl")},
		func(batch []core.SessionSummary) {
			mu.Lock()
			for _, sum := range batch {
				got[sum.ID] = sum
			}
			mu.Unlock()
		})
	require.NotNil(t, run)
	run.Wait()

	processed, total := run.Progress()
	assert.Equal(t, 2, processed)
	assert.Equal(t, 2, total)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	assert.Equal(t, 5, got["a"].MessageCount)
	assert.Equal(t, 9, got["b"].MessageCount)
	assert.False(t, got["a"].Approximate)
}

func TestEnrichSameSetIsNoOp(t *testing.T) {
	fake := &fakeReader{sessions: map[string]*core.Session{
		"/logs/a.jsonl": full("a", "/logs/a.jsonl", 1),
	}}
	s := &Scheduler{
		Readers: map[core.Source]reader.Reader{core.SourceClaude: fake},
		Workers: 2,
	}
	summaries := []core.SessionSummary{approx("a", "/logs/a.jsonl")}

	run := s.Enrich(context.Background(), "list", summaries, nil)
	require.NotNil(t, run)
	run.Wait()

	again := s.Enrich(context.Background(), "list", summaries, nil)
	assert.Nil(t, again, "identical id set must not re-run")

	other := s.Enrich(context.Background(), "tree", summaries, nil)
	require.NotNil(t, other, "other view keys are independent")
	other.Wait()
}

func TestEnrichCancelStopsRun(t *testing.T) {
	sessions := make(map[string]*core.Session)
	var summaries []core.SessionSummary
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		path := "/logs/" + id + ".jsonl"
		sessions[path] = full(id, path, 1)
		summaries = append(summaries, approx(id, path))
	}
	fake := &fakeReader{sessions: sessions, delay: 50 * time.Millisecond}
	s := &Scheduler{
		Readers: map[core.Source]reader.Reader{core.SourceClaude: fake},
		Workers: 2,
	}

	run := s.Enrich(context.Background(), "list", summaries, nil)
	require.NotNil(t, run)
	s.Cancel("list")

	processed, _ := run.Progress()
	assert.Less(t, processed, len(summaries), "cancel landed before completion")
}

// countingReader records the peak number of simultaneous ParseFile calls.
type countingReader struct {
	inFlight atomic.Int64
	peak     atomic.Int64
}

func (f *countingReader) Source() core.Source { return core.SourceClaude }

func (f *countingReader) ParseFile(ctx context.Context, path string) (*core.Session, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	select {
	case <-time.After(2 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	sum := approx(path, path)
	sum.Approximate = false
	return &core.Session{Summary: sum}, nil
}

func (f *countingReader) FastIndex(string) (*core.SessionSummary, error) { return nil, nil }
func (f *countingReader) FastSessionID(string) string                    { return "" }
func (f *countingReader) CollectUsage(context.Context, string) ([]core.UsageEntry, error) {
	return nil, nil
}
func (f *countingReader) SkipFile(string) bool { return false }
func (f *countingReader) TempFile(string) bool { return false }

func TestEnrichOneRunPerKey(t *testing.T) {
	fake := &countingReader{}
	s := &Scheduler{
		Readers: map[core.Source]reader.Reader{core.SourceClaude: fake},
		Workers: 1,
	}

	set := func(tag string, i int) []core.SessionSummary {
		var out []core.SessionSummary
		for _, id := range []string{"x", "y", "z"} {
			full := fmt.Sprintf("%s%d-%s", tag, i, id)
			out = append(out, approx(full, "/logs/"+full+".jsonl"))
		}
		return out
	}

	// Two simultaneous calls for the same key: with one worker, a single
	// run can never have more than one parse in flight, so any overlap
	// between runs shows up as a higher peak.
	for i := 0; i < 50; i++ {
		var wg sync.WaitGroup
		for _, summaries := range [][]core.SessionSummary{set("a", i), set("b", i)} {
			wg.Add(1)
			go func(sums []core.SessionSummary) {
				defer wg.Done()
				if run := s.Enrich(context.Background(), "list", sums, nil); run != nil {
					run.Wait()
				}
			}(summaries)
		}
		wg.Wait()
	}

	assert.LessOrEqual(t, fake.peak.Load(), int64(1), "runs for one key overlapped")
}

func TestEnrichAppliesNoteOverlay(t *testing.T) {
	fake := &fakeReader{sessions: map[string]*core.Session{
		"/logs/a.jsonl": full("a", "/logs/a.jsonl", 1),
	}}
	s := &Scheduler{
		Readers: map[core.Source]reader.Reader{core.SourceClaude: fake},
		Notes:   fakeNotes{"a": {"My refactor", "went well"}},
		Workers: 2,
	}

	var mu sync.Mutex
	var got []core.SessionSummary
	run := s.Enrich(context.Background(), "list",
		[]core.SessionSummary{approx("a", "/logs/a.jsonl")},
		func(batch []core.SessionSummary) {
			mu.Lock()
			got = append(got, batch...)
			mu.Unlock()
		})
	require.NotNil(t, run)
	run.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, "My refactor", got[0].Title)
	assert.Equal(t, "went well", got[0].Comment)
}

func TestEnrichSkipsUnparseableFiles(t *testing.T) {
	fake := &fakeReader{sessions: map[string]*core.Session{
		"/logs/a.jsonl": full("a", "/logs/a.jsonl", 1),
		// "/logs/gone.jsonl" has no session: enrichOne yields nil.
	}}
	s := &Scheduler{
		Readers: map[core.Source]reader.Reader{core.SourceClaude: fake},
		Workers: 2,
	}

	var mu sync.Mutex
	var got []core.SessionSummary
	run := s.Enrich(context.Background(), "list",
		[]core.SessionSummary{approx("a", "/logs/a.jsonl"), approx("gone", "/logs/gone.jsonl")},
		func(batch []core.SessionSummary) {
			mu.Lock()
			got = append(got, batch...)
			mu.Unlock()
		})
	require.NotNil(t, run)
	run.Wait()

	processed, _ := run.Progress()
	assert.Equal(t, 2, processed, "failures still count as processed")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}
