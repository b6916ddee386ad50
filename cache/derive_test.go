package cache

import (
	"testing"
	"time"

	"github.com/ketaki/kosha/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowAt(y int, m time.Month, d int) core.Row {
	return core.Row{
		Timestamp: time.Date(y, m, d, 12, 0, 0, 0, time.UTC),
		Kind:      core.RowResponseItem,
		Item:      &core.ResponseItem{Role: "user", Text: "x"},
	}
}

func TestCoverage(t *testing.T) {
	rows := []core.Row{
		rowAt(2025, time.June, 1),
		rowAt(2025, time.June, 1), // same day twice
		rowAt(2025, time.June, 15),
		rowAt(2025, time.July, 2),
		{Kind: core.RowEventMessage, Event: &core.EventMessage{}}, // zero timestamp skipped
	}

	got := Coverage(rows)
	assert.Equal(t, map[string][]int{
		"2025-06": {1, 15},
		"2025-07": {2},
	}, got)
}

func TestToolScan(t *testing.T) {
	rows := []core.Row{
		{Kind: core.RowSessionMeta, Meta: &core.SessionMeta{ID: "s"}},
		{Kind: core.RowResponseItem, Item: &core.ResponseItem{IsToolCall: true, ToolName: "shell"}},
		{Kind: core.RowResponseItem, Item: &core.ResponseItem{IsToolResult: true}},
		{Kind: core.RowResponseItem, Item: &core.ResponseItem{
			Role:  "assistant",
			Usage: &core.TokenUsage{InputTokens: 10},
		}},
		{Kind: core.RowEventMessage, Event: &core.EventMessage{
			Usage: &core.TokenUsage{InputTokens: 99, OutputTokens: 1},
		}},
	}

	count, last := ToolScan(rows)
	assert.Equal(t, 1, count, "only calls count, not results")
	require.NotNil(t, last)
	assert.Equal(t, 100, last.Total(), "the last usage snapshot wins")
}

func TestToolScanEmpty(t *testing.T) {
	count, last := ToolScan(nil)
	assert.Equal(t, 0, count)
	assert.Nil(t, last)
}
