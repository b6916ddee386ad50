// Package enrich re-parses visible sessions in the background, replacing
// fast-path approximations with full summaries delivered in batches.
package enrich

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ketaki/kosha/core"
	"github.com/ketaki/kosha/reader"
)

// Batch delivery thresholds: a batch flushes when batchSize results have
// accumulated or batchDelay has elapsed since the last flush.
const (
	batchSize  = 50
	batchDelay = time.Second
)

// NoteLookup overlays locally stored titles and comments onto enriched
// summaries. Implemented by the notes store.
type NoteLookup interface {
	Note(sessionID string) (title, comment string, ok bool)
}

// Scheduler runs enrichment passes. At most one run is in flight per view
// key; starting a new run cancels the previous one for that key first.
type Scheduler struct {
	// Readers maps each source family to its parser.
	Readers map[core.Source]reader.Reader
	// Notes is optional.
	Notes NoteLookup
	// Workers overrides the worker count. Zero means half of the available
	// hardware concurrency, minimum 2.
	Workers int

	mu   sync.Mutex
	runs map[string]*Run
	last map[string]map[string]struct{}
}

// Run is one in-flight (or finished) enrichment pass.
type Run struct {
	cancel    context.CancelFunc
	done      chan struct{}
	total     int64
	processed atomic.Int64
}

// Progress returns per-item completion counters.
func (r *Run) Progress() (processed, total int) {
	return int(r.processed.Load()), int(r.total)
}

// Wait blocks until the run finishes or is cancelled.
func (r *Run) Wait() { <-r.done }

func (s *Scheduler) workers() int {
	if s.Workers > 0 {
		return s.Workers
	}
	return max(2, runtime.NumCPU()/2)
}

// Enrich starts a background pass over summaries for the view identified by
// key. When the id set matches the last enriched set for that key the call
// is a no-op and returns nil. Batches of replaced summaries are delivered to
// onBatch in completion order; the consumer must upsert them by id.
func (s *Scheduler) Enrich(ctx context.Context, key string, summaries []core.SessionSummary, onBatch func([]core.SessionSummary)) *Run {
	ids := make(map[string]struct{}, len(summaries))
	for _, sum := range summaries {
		ids[sum.ID] = struct{}{}
	}

	// Hard requirement: at most one run in flight per view key. The slot
	// check and the install happen under one lock acquisition so two racing
	// callers can never both claim the key. The prior run is cancelled and
	// drained outside the lock, then the slot is re-checked: a third caller
	// may have claimed it in the meantime.
	for {
		s.mu.Lock()
		if sameSet(s.last[key], ids) {
			s.mu.Unlock()
			return nil
		}
		prev := s.runs[key]
		if prev == nil {
			runCtx, cancel := context.WithCancel(ctx)
			run := &Run{cancel: cancel, done: make(chan struct{}), total: int64(len(summaries))}
			if s.runs == nil {
				s.runs = make(map[string]*Run)
			}
			s.runs[key] = run
			s.mu.Unlock()

			go s.execute(runCtx, run, key, ids, summaries, onBatch)
			return run
		}
		s.mu.Unlock()

		prev.cancel()
		prev.Wait()
	}
}

// Cancel stops the in-flight run for key, if any, and waits for it.
func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	run := s.runs[key]
	s.mu.Unlock()
	if run != nil {
		run.cancel()
		run.Wait()
	}
}

func (s *Scheduler) execute(ctx context.Context, run *Run, key string, ids map[string]struct{}, summaries []core.SessionSummary, onBatch func([]core.SessionSummary)) {
	defer close(run.done)
	defer run.cancel()
	// Free the key's slot before done is signalled, so a waiter that saw
	// this run can claim the slot as soon as Wait returns.
	defer func() {
		s.mu.Lock()
		if s.runs[key] == run {
			delete(s.runs, key)
		}
		s.mu.Unlock()
	}()

	jobs := make(chan core.SessionSummary, len(summaries))
	results := make(chan *core.SessionSummary, len(summaries))

	var wg sync.WaitGroup
	for range s.workers() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sum := range jobs {
				if ctx.Err() != nil {
					results <- nil
					continue
				}
				results <- s.enrichOne(ctx, sum)
			}
		}()
	}

	for _, sum := range summaries {
		jobs <- sum
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	s.collect(ctx, run, results, onBatch)
	// A cancelled collect can return while a worker is still inside a parse;
	// the run must not report done until every worker has exited.
	wg.Wait()

	if ctx.Err() == nil {
		s.mu.Lock()
		if s.last == nil {
			s.last = make(map[string]map[string]struct{})
		}
		s.last[key] = ids
		s.mu.Unlock()
	}
}

// collect buffers completed results and flushes them at batchSize or
// batchDelay, whichever comes first. Flushed batches stand even if the run
// is cancelled afterwards.
func (s *Scheduler) collect(ctx context.Context, run *Run, results <-chan *core.SessionSummary, onBatch func([]core.SessionSummary)) {
	var pending []core.SessionSummary
	timer := time.NewTimer(batchDelay)
	defer timer.Stop()

	flush := func() {
		if len(pending) > 0 && onBatch != nil {
			onBatch(pending)
			pending = nil
		}
		timer.Reset(batchDelay)
	}

	for {
		select {
		case sum, open := <-results:
			if !open {
				flush()
				return
			}
			run.processed.Add(1)
			if sum != nil {
				pending = append(pending, *sum)
			}
			if len(pending) >= batchSize {
				flush()
			}
		case <-timer.C:
			flush()
		case <-ctx.Done():
			flush()
			return
		}
	}
}

// enrichOne fully re-parses one session and applies the note overlay.
// Parse failures yield nil: the stale fast-path summary stays in place.
func (s *Scheduler) enrichOne(ctx context.Context, sum core.SessionSummary) *core.SessionSummary {
	rd, ok := s.Readers[sum.Source]
	if !ok {
		return nil
	}
	sess, err := rd.ParseFile(ctx, sum.Path)
	if err != nil || sess == nil {
		return nil
	}

	enriched := sess.Summary
	if s.Notes != nil {
		if title, comment, ok := s.Notes.Note(enriched.ID); ok {
			enriched.Title = title
			enriched.Comment = comment
		}
	}
	return &enriched
}

func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range b {
		if _, ok := a[id]; !ok {
			return false
		}
	}
	return true
}
