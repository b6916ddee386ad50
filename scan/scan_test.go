package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ketaki/kosha/reader/claude"
	"github.com/ketaki/kosha/reader/codex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func claudeLine(id, ts string) string {
	return `{"type":"user","sessionId":"` + id + `","timestamp":"` + ts + `","cwd":"/home/dev/proj","message":{"role":"user","content":"hi"}}` + "\n"
}

func codexLines(id, ts string) string {
	return `{"timestamp":"` + ts + `","type":"session_meta","payload":{"id":"` + id + `","cwd":"/home/dev/proj"}}` + "\n" +
		`{"timestamp":"` + ts + `","type":"response_item","payload":{"type":"message","role":"user","content":[{"type":"input_text","text":"hi"}]}}` + "\n"
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFastScanEmptyRoots(t *testing.T) {
	idx := New(
		Root{Dir: t.TempDir(), Reader: &claude.Reader{}},
		Root{Dir: filepath.Join(t.TempDir(), "missing"), Reader: &codex.Reader{}},
	)
	summaries := idx.FastScan(context.Background())
	assert.Empty(t, summaries)
}

func TestFastScanSkipsWarmupFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "proj/real.jsonl", claudeLine("real-1", "2025-06-01T10:00:00Z"))
	writeFile(t, dir, "proj/agent-warmup.jsonl", claudeLine("warm-1", "2025-06-01T10:00:00Z"))
	writeFile(t, dir, "proj/notes.txt", "not a log")

	idx := New(Root{Dir: dir, Reader: &claude.Reader{}})
	summaries := idx.FastScan(context.Background())
	require.Len(t, summaries, 1)
	assert.Equal(t, "real-1", summaries[0].ID)
}

func TestFastScanDedupPrefersCanonical(t *testing.T) {
	dir := t.TempDir()
	temp := writeFile(t, dir, "tmp-abc.jsonl", codexLines("dup-1", "2025-06-01T10:00:00Z"))
	canon := writeFile(t, dir, "rollout-2025-06-01-abc.jsonl", codexLines("dup-1", "2025-06-01T10:00:00Z"))

	// The temporary is even newer; the canonical name must still win.
	older := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(canon, older, older))
	require.NoError(t, os.Chtimes(temp, time.Now(), time.Now()))

	idx := New(Root{Dir: dir, Reader: &codex.Reader{}})
	summaries := idx.FastScan(context.Background())
	require.Len(t, summaries, 1)
	assert.Equal(t, "dup-1", summaries[0].ID)
	assert.Equal(t, canon, summaries[0].Path)
}

func TestFastScanSortsMostRecentFirst(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.jsonl", claudeLine("older", "2025-06-01T09:00:00Z"))
	writeFile(t, dir, "b.jsonl", claudeLine("newer", "2025-06-01T11:00:00Z"))

	idx := New(Root{Dir: dir, Reader: &claude.Reader{}})
	summaries := idx.FastScan(context.Background())
	require.Len(t, summaries, 2)
	assert.Equal(t, "newer", summaries[0].ID)
	assert.Equal(t, "older", summaries[1].ID)
}

func TestIndexFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "proj/real.jsonl", claudeLine("real-1", "2025-06-01T10:00:00Z"))
	warm := writeFile(t, dir, "proj/agent-warmup.jsonl", claudeLine("warm-1", "2025-06-01T10:00:00Z"))
	idx := New(Root{Dir: dir, Reader: &claude.Reader{}})

	sum, ok := idx.IndexFile(path)
	require.True(t, ok)
	assert.Equal(t, "real-1", sum.ID)
	assert.True(t, sum.Approximate)

	_, ok = idx.IndexFile(warm)
	assert.False(t, ok, "reserved names stay excluded")

	_, ok = idx.IndexFile(filepath.Join(dir, "proj", "gone.jsonl"))
	assert.False(t, ok, "vanished file yields no summary")

	outside := writeFile(t, t.TempDir(), "other.jsonl", claudeLine("x-1", "2025-06-01T10:00:00Z"))
	_, ok = idx.IndexFile(outside)
	assert.False(t, ok, "paths outside every root are ignored")
}

func TestFastScanMixedRoots(t *testing.T) {
	claudeDir, codexDir := t.TempDir(), t.TempDir()
	writeFile(t, claudeDir, "p/c.jsonl", claudeLine("claude-1", "2025-06-01T10:00:00Z"))
	writeFile(t, codexDir, "2025/06/01/r.jsonl", codexLines("codex-1", "2025-06-01T11:00:00Z"))

	idx := New(
		Root{Dir: claudeDir, Reader: &claude.Reader{}},
		Root{Dir: codexDir, Reader: &codex.Reader{}},
	)
	summaries := idx.FastScan(context.Background())
	require.Len(t, summaries, 2)
	assert.Equal(t, "codex-1", summaries[0].ID)
	assert.Equal(t, "claude-1", summaries[1].ID)
}
