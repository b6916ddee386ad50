package usage

import (
	"context"
	"time"

	"github.com/ketaki/kosha/core"
	"github.com/ketaki/kosha/reader"
)

// DefaultFileLimit bounds how many session files one status query scans.
const DefaultFileLimit = 50

// Analyzer builds usage status snapshots from the current summary set.
// Blocks are rebuilt on every query, never persisted.
type Analyzer struct {
	// Readers maps each source family to its parser.
	Readers map[core.Source]reader.Reader
	// FileLimit overrides DefaultFileLimit. Zero means the default.
	FileLimit int
	// Now overrides the clock in tests.
	Now func() time.Time
}

func (a *Analyzer) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *Analyzer) fileLimit() int {
	if a.FileLimit > 0 {
		return a.FileLimit
	}
	return DefaultFileLimit
}

// Status scans the most recent session files (summaries must be sorted most
// recently updated first) and reconstructs the current 5-hour and weekly
// windows. Per-file read failures are skipped silently; the result is nil
// only when zero usable entries were found.
func (a *Analyzer) Status(ctx context.Context, summaries []core.SessionSummary) *core.UsageStatus {
	now := a.now()
	weekStart := startOfWeek(now)
	weekEnd := weekStart.AddDate(0, 0, 7)
	horizon := weekStart.Add(-BlockWindow)

	entries := a.collect(ctx, summaries, horizon)
	if len(entries) == 0 {
		return nil
	}

	entries = Dedup(entries)
	blocks := Partition(entries)
	if len(blocks) == 0 {
		return nil
	}

	status := &core.UsageStatus{
		Blocks:      blocks,
		WeekResetAt: weekEnd,
	}
	for _, b := range blocks {
		status.Tokens.Add(b.Tokens)
		for _, m := range b.Models {
			if !contains(status.Models, m) {
				status.Models = append(status.Models, m)
			}
		}
	}

	applyCurrentWindow(status, blocks[len(blocks)-1], now)
	applyWeekly(status, blocks, weekStart, weekEnd)
	return status
}

// collect gathers entries newest-file-first, stopping at the file limit or
// once a file yields nothing newer than the horizon while entries already
// exist.
func (a *Analyzer) collect(ctx context.Context, summaries []core.SessionSummary, horizon time.Time) []core.UsageEntry {
	var entries []core.UsageEntry
	scanned := 0

	for _, sum := range summaries {
		if ctx.Err() != nil {
			break
		}
		if scanned >= a.fileLimit() {
			break
		}
		rd, ok := a.Readers[sum.Source]
		if !ok {
			continue
		}

		fileEntries, err := rd.CollectUsage(ctx, sum.Path)
		if err != nil {
			break // cancellation; partial results stand
		}
		scanned++

		newest := time.Time{}
		for _, e := range fileEntries {
			if e.Timestamp.After(newest) {
				newest = e.Timestamp
			}
		}
		entries = append(entries, fileEntries...)

		if len(entries) > 0 && !newest.IsZero() && newest.Before(horizon) {
			break
		}
	}
	return entries
}

// applyCurrentWindow fills the 5-hour fields from the latest block.
func applyCurrentWindow(status *core.UsageStatus, latest core.UsageBlock, now time.Time) {
	status.WindowStart = latest.StartedAt
	windowEnd := latest.StartedAt.Add(BlockWindow)

	if latest.LimitReached {
		// Saturated: report the full window, with the recorded reset only
		// while it is still ahead.
		status.WindowLimited = true
		status.WindowElapsed = BlockWindow
		if latest.ResetAt != nil && latest.ResetAt.After(now) {
			t := *latest.ResetAt
			status.WindowResetAt = &t
		}
		return
	}

	elapsed := now.Sub(latest.StartedAt)
	if elapsed > BlockWindow {
		elapsed = BlockWindow
	}
	if elapsed < 0 {
		elapsed = 0
	}
	status.WindowElapsed = elapsed

	reset := windowEnd
	if latest.ResetAt != nil && latest.ResetAt.After(reset) {
		reset = *latest.ResetAt
	}
	if reset.After(now) {
		status.WindowResetAt = &reset
	}
}

// applyWeekly sums each block's overlap with the current calendar week and
// applies any explicit weekly reset override.
func applyWeekly(status *core.UsageStatus, blocks []core.UsageBlock, weekStart, weekEnd time.Time) {
	var used time.Duration
	for _, b := range blocks {
		end := b.EndedAt
		if limit := b.StartedAt.Add(BlockWindow); end.After(limit) {
			end = limit
		}
		used += overlap(b.StartedAt, end, weekStart, weekEnd)

		if b.WeeklyLimit && b.ResetAt != nil {
			status.WeekResetAt = *b.ResetAt
		}
	}
	status.WeekUsed = used
}

func overlap(aStart, aEnd, bStart, bEnd time.Time) time.Duration {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	if end.After(start) {
		return end.Sub(start)
	}
	return 0
}

// startOfWeek returns Monday 00:00 of now's week in now's location.
func startOfWeek(now time.Time) time.Time {
	day := now.Weekday()
	back := (int(day) - int(time.Monday) + 7) % 7
	monday := now.AddDate(0, 0, -back)
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, now.Location())
}
