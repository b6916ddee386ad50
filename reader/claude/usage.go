package claude

import (
	"context"
	"encoding/json"
	"os"

	"github.com/ketaki/kosha/core"
	"github.com/ketaki/kosha/reader"
)

// CollectUsage streams the file and extracts token-usage entries from
// assistant messages plus limit-reached events from system and synthetic
// text lines. Unreadable files yield no entries, never an error.
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

		var e rawEntry
		if err := json.Unmarshal(line, &e); err != nil || e.IsSidechain {
			return true
		}
		ts, ok := reader.ParseTimestamp(e.Timestamp)
		if !ok {
			return true
		}

		if e.Type == "assistant" && e.Message.Usage != nil {
			entries = append(entries, core.UsageEntry{
				Timestamp: ts,
				Model:     e.Message.Model,
				MessageID: e.Message.ID,
				RequestID: e.RequestID,
				Tokens: core.TokenUsage{
					InputTokens:         e.Message.Usage.InputTokens,
					OutputTokens:        e.Message.Usage.OutputTokens,
					CacheReadTokens:     e.Message.Usage.CacheReadInputTokens,
					CacheCreationTokens: e.Message.Usage.CacheCreationInputTokens,
				},
			})
		}

		// Limit notices arrive as system events or synthetic text messages.
		text := flatText(e.Content)
		if text == "" {
			text, _, _, _ = splitContent(e.Message.Content)
		}
		if reader.MatchLimitPhrase(text, phrases) {
			entries = append(entries, core.UsageEntry{
				Timestamp:    ts,
				LimitReached: true,
				WeeklyLimit:  reader.WeeklyLimitPhrase(text),
				ResetHint:    text,
			})
		}
		return true
	})

	return entries, ctx.Err()
}
