package cache

import (
	"fmt"
	"sort"

	"github.com/ketaki/kosha/core"
)

// Coverage derives the set of active calendar days per month ("2006-01" →
// sorted day numbers) from a session's rows.
func Coverage(rows []core.Row) map[string][]int {
	seen := make(map[string]map[int]struct{})
	for _, row := range rows {
		if row.Timestamp.IsZero() {
			continue
		}
		month := fmt.Sprintf("%04d-%02d", row.Timestamp.Year(), int(row.Timestamp.Month()))
		if seen[month] == nil {
			seen[month] = make(map[int]struct{})
		}
		seen[month][row.Timestamp.Day()] = struct{}{}
	}

	out := make(map[string][]int, len(seen))
	for month, days := range seen {
		list := make([]int, 0, len(days))
		for d := range days {
			list = append(list, d)
		}
		sort.Ints(list)
		out[month] = list
	}
	return out
}

// ToolScan derives the tool-invocation count and the last token snapshot
// seen in a session's rows. The switch is exhaustive over core.RowKind.
func ToolScan(rows []core.Row) (toolCount int, last *core.TokenUsage) {
	for _, row := range rows {
		switch row.Kind {
		case core.RowSessionMeta, core.RowTurnContext:
			// No tool or token data.
		case core.RowEventMessage:
			if row.Event.Usage != nil {
				u := *row.Event.Usage
				last = &u
			}
		case core.RowResponseItem:
			if row.Item.IsToolCall {
				toolCount++
			}
			if row.Item.Usage != nil {
				u := *row.Item.Usage
				last = &u
			}
		}
	}
	return toolCount, last
}
