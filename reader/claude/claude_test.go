package claude

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ketaki/kosha/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const simpleSession = `{"type":"user","sessionId":"abc-123","timestamp":"2025-06-01T10:00:00.000Z","cwd":"/home/dev/proj","version":"1.0.40","message":{"role":"user","content":"fix the bug"}}
{"type":"assistant","sessionId":"abc-123","timestamp":"2025-06-01T10:00:05.000Z","cwd":"/home/dev/proj","requestId":"req_1","message":{"id":"msg_1","role":"assistant","model":"claude-sonnet-4","content":[{"type":"text","text":"Looking at it."}],"usage":{"input_tokens":100,"output_tokens":20,"cache_read_input_tokens":500}}}
{"type":"assistant","sessionId":"abc-123","timestamp":"2025-06-01T10:00:08.000Z","cwd":"/home/dev/proj","message":{"role":"assistant","content":[{"type":"tool_use","id":"toolu_1","name":"Bash"}]}}
{"type":"user","sessionId":"abc-123","timestamp":"2025-06-01T10:00:09.000Z","cwd":"/home/dev/proj","message":{"role":"user","content":[{"type":"tool_result","text":"ok"}]}}
{"type":"system","sessionId":"abc-123","timestamp":"2025-06-01T10:00:10.000Z","cwd":"/home/dev/proj","content":"compacting conversation"}
`

func writeSession(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseFile(t *testing.T) {
	path := writeSession(t, simpleSession)

	sess, err := (&Reader{}).ParseFile(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, sess)

	sum := sess.Summary
	assert.Equal(t, "abc-123", sum.ID)
	assert.Equal(t, "/home/dev/proj", sum.CWD)
	assert.Equal(t, "1.0.40", sum.CLIVersion)
	assert.Equal(t, "claude-sonnet-4", sum.Model)
	assert.Equal(t, core.SourceClaude, sum.Source)
	assert.Equal(t, 2, sum.MessageCount)
	assert.Equal(t, 2, sum.ToolCount)
	assert.Equal(t, 1, sum.EventCount)
	assert.False(t, sum.Approximate)

	require.NotNil(t, sum.UpdatedAt)
	assert.Equal(t, 10, sum.UpdatedAt.Second())

	require.Len(t, sess.Rows, 5)
	assert.Equal(t, core.RowResponseItem, sess.Rows[0].Kind)
	assert.Equal(t, "user", sess.Rows[0].Item.Role)

	call := sess.Rows[2].Item
	assert.True(t, call.IsToolCall)
	assert.Equal(t, "Bash", call.ToolName)
	assert.Equal(t, "toolu_1", call.ToolUseID)
	assert.True(t, sess.Rows[3].Item.IsToolResult)
}

func TestParseFileDropsSidechainAndGarbage(t *testing.T) {
	content := `{"type":"user","sessionId":"s1","timestamp":"2025-06-01T10:00:00Z","cwd":"/p","message":{"role":"user","content":"hi"}}
{"type":"user","sessionId":"s1","timestamp":"2025-06-01T10:01:00Z","cwd":"/p","isSidechain":true,"message":{"role":"user","content":"warm-up"}}
not json at all
{"type":"file-history-snapshot","sessionId":"s1"}
`
	path := writeSession(t, content)

	sess, err := (&Reader{}).ParseFile(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Len(t, sess.Rows, 1)
	assert.Equal(t, 1, sess.Summary.MessageCount)
}

func TestParseFileNotASession(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "empty file", content: ""},
		{name: "no session id", content: `{"type":"user","timestamp":"2025-06-01T10:00:00Z","cwd":"/p","message":{"role":"user","content":"hi"}}` + "\n"},
		{name: "no cwd", content: `{"type":"user","sessionId":"s1","timestamp":"2025-06-01T10:00:00Z","message":{"role":"user","content":"hi"}}` + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSession(t, tt.content)
			sess, err := (&Reader{}).ParseFile(context.Background(), path)
			require.NoError(t, err)
			assert.Nil(t, sess)
		})
	}
}

func TestFastIndexTailCorrection(t *testing.T) {
	// A session longer than the fast-path prefix: the last-updated time must
	// still come from the tail, and counts stay approximate.
	var b strings.Builder
	for i := 0; i < fastPrefixLines+200; i++ {
		fmt.Fprintf(&b,
			`{"type":"user","sessionId":"long-1","timestamp":"2025-06-01T10:%02d:%02dZ","cwd":"/p","message":{"role":"user","content":"m"}}`+"\n",
			(i/60)%60, i%60)
	}
	path := writeSession(t, b.String())

	sum, err := (&Reader{}).FastIndex(path)
	require.NoError(t, err)
	require.NotNil(t, sum)

	assert.True(t, sum.Approximate)
	assert.Equal(t, "long-1", sum.ID)
	// Only the prefix is counted.
	assert.Equal(t, fastPrefixLines, sum.MessageCount)
	// The tail read still found the newest timestamp.
	last := fastPrefixLines + 199
	require.NotNil(t, sum.UpdatedAt)
	assert.Equal(t, last%60, sum.UpdatedAt.Second())
	assert.Equal(t, (last/60)%60, sum.UpdatedAt.Minute())
}

func TestFastSessionID(t *testing.T) {
	path := writeSession(t, simpleSession)
	assert.Equal(t, "abc-123", (&Reader{}).FastSessionID(path))

	empty := writeSession(t, `{"type":"x"}`+"\n")
	assert.Equal(t, "", (&Reader{}).FastSessionID(empty))
}

func TestSkipFile(t *testing.T) {
	r := &Reader{}
	assert.True(t, r.SkipFile("agent-warmup.jsonl"))
	assert.True(t, r.SkipFile("agent-0199b7a0.jsonl"))
	assert.False(t, r.SkipFile("0199b7a0.jsonl"))
	assert.False(t, r.TempFile("anything.jsonl"))
}

func TestCollectUsage(t *testing.T) {
	content := `{"type":"assistant","sessionId":"s1","timestamp":"2025-06-01T10:00:00Z","cwd":"/p","requestId":"req_1","message":{"id":"msg_1","role":"assistant","model":"claude-sonnet-4","content":[{"type":"text","text":"hi"}],"usage":{"input_tokens":10,"output_tokens":5}}}
{"type":"system","sessionId":"s1","timestamp":"2025-06-01T10:05:00Z","cwd":"/p","content":"Claude usage limit reached|1731147600"}
`
	path := writeSession(t, content)

	entries, err := (&Reader{}).CollectUsage(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "msg_1", entries[0].MessageID)
	assert.Equal(t, "req_1", entries[0].RequestID)
	assert.Equal(t, 15, entries[0].Tokens.Total())
	assert.False(t, entries[0].LimitReached)

	assert.True(t, entries[1].LimitReached)
	assert.False(t, entries[1].WeeklyLimit)
	assert.Contains(t, entries[1].ResetHint, "1731147600")
}
