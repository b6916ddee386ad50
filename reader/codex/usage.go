package codex

import (
	"context"
	"encoding/json"
	"os"

	"github.com/ketaki/kosha/core"
	"github.com/ketaki/kosha/reader"
)

// CollectUsage streams the rollout and extracts token counts from
// token_count events plus limit notices from error/stream events.
func (r *Reader) CollectUsage(ctx context.Context, path string) ([]core.UsageEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil
	}
	defer f.Close()

	phrases := r.phrases()
	var entries []core.UsageEntry

	reader.EachLine(f, func(line []byte) bool {
		if ctx.Err() != nil {
			return false
		}

		var l rawLine
		if err := json.Unmarshal(line, &l); err != nil || l.Type != "event_msg" {
			return true
		}
		ts, ok := reader.ParseTimestamp(l.Timestamp)
		if !ok {
			return true
		}

		var e rawEventMsg
		if err := json.Unmarshal(l.Payload, &e); err != nil {
			return true
		}

		if e.Info != nil && e.Info.LastTokenUsage != nil {
			entries = append(entries, core.UsageEntry{
				Timestamp: ts,
				Tokens: core.TokenUsage{
					InputTokens:     e.Info.LastTokenUsage.InputTokens,
					OutputTokens:    e.Info.LastTokenUsage.OutputTokens,
					CacheReadTokens: e.Info.LastTokenUsage.CachedInputTokens,
				},
			})
		}

		if reader.MatchLimitPhrase(e.Message, phrases) {
			entries = append(entries, core.UsageEntry{
				Timestamp:    ts,
				LimitReached: true,
				WeeklyLimit:  reader.WeeklyLimitPhrase(e.Message),
				ResetHint:    e.Message,
			})
		}
		return true
	})

	return entries, ctx.Err()
}
