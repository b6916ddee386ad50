// Package usage reconstructs rolling 5-hour and weekly quota windows from
// token-usage and limit events scattered across session files.
package usage

import (
	"sort"
	"time"

	"github.com/ketaki/kosha/core"
)

// BlockWindow is the fixed rolling-quota window.
const BlockWindow = 5 * time.Hour

// Dedup drops duplicate entries by message/request id, keeping the first
// occurrence in time order. Entries without either id are kept as-is.
// The input slice is sorted in place by timestamp.
func Dedup(entries []core.UsageEntry) []core.UsageEntry {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})

	seen := make(map[string]struct{}, len(entries))
	result := entries[:0]
	for _, e := range entries {
		key := e.DedupKey()
		if key != "" {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		result = append(result, e)
	}
	return result
}

// Partition splits time-sorted entries into contiguous blocks. A new block
// starts when the running time since the block's first entry exceeds the
// window, or when the gap since the previous entry exceeds it. An entry
// flagged as session-limit-reached becomes the last member of its block.
func Partition(entries []core.UsageEntry) []core.UsageBlock {
	var blocks []core.UsageBlock
	var cur *core.UsageBlock
	var prev time.Time

	for _, e := range entries {
		if cur != nil {
			if e.Timestamp.Sub(cur.StartedAt) > BlockWindow ||
				e.Timestamp.Sub(prev) > BlockWindow ||
				cur.LimitReached {
				blocks = append(blocks, *cur)
				cur = nil
			}
		}
		if cur == nil {
			cur = &core.UsageBlock{StartedAt: e.Timestamp}
		}

		cur.EndedAt = e.Timestamp
		cur.Tokens.Add(e.Tokens)
		if e.Model != "" && !contains(cur.Models, e.Model) {
			cur.Models = append(cur.Models, e.Model)
		}
		if e.LimitReached {
			if e.WeeklyLimit {
				cur.WeeklyLimit = true
			} else {
				cur.LimitReached = true
			}
			if reset := ParseResetHint(e.ResetHint, e.Timestamp); reset != nil {
				cur.ResetAt = reset
			}
		}
		prev = e.Timestamp
	}

	if cur != nil {
		blocks = append(blocks, *cur)
	}
	return blocks
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
