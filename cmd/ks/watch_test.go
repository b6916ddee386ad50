package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ketaki/kosha/pathtree"
	"github.com/ketaki/kosha/reader/claude"
	"github.com/ketaki/kosha/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLog(t *testing.T, dir, name, id, cwd string) string {
	t.Helper()
	line := fmt.Sprintf(
		`{"type":"user","sessionId":%q,"timestamp":"2025-06-01T10:00:00.000Z","cwd":%q,"message":{"role":"user","content":"hello"}}`,
		id, cwd)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(line+"\n"), 0o644))
	return path
}

func TestApplyBatch(t *testing.T) {
	dir := t.TempDir()
	idx := scan.New(scan.Root{Dir: dir, Reader: &claude.Reader{}})

	pathA := writeLog(t, dir, "a.jsonl", "sess-a", "/home/dev/one")
	table := scan.NewTable(idx.FastScan(context.Background()))
	require.Equal(t, 1, table.Len())

	// A new file appears: only that path is indexed.
	pathB := writeLog(t, dir, "b.jsonl", "sess-b", "/home/dev/two")
	applyBatch(idx, table, []string{pathB})
	assert.Equal(t, 2, table.Len())
	_, ok := table.Get("sess-b")
	assert.True(t, ok)

	// A file vanishes: its session is dropped by path.
	require.NoError(t, os.Remove(pathA))
	applyBatch(idx, table, []string{pathA})
	assert.Equal(t, 1, table.Len())
	_, ok = table.Get("sess-a")
	assert.False(t, ok)
}

func TestApplyTreeBatchPatchesInPlace(t *testing.T) {
	dir := t.TempDir()
	idx := scan.New(scan.Root{Dir: dir, Reader: &claude.Reader{}})

	writeLog(t, dir, "a.jsonl", "sess-a", "/home/dev/one")
	writeLog(t, dir, "b.jsonl", "sess-b", "/home/dev/two")
	table := scan.NewTable(idx.FastScan(context.Background()))

	var agg pathtree.Aggregator
	root := agg.ApplySnapshot(table.CWDCounts())
	require.Equal(t, 2, root.Count)

	// Another session in a known directory patches the tree in place.
	pathC := writeLog(t, dir, "c.jsonl", "sess-c", "/home/dev/one")
	root, ok := applyTreeBatch(idx, table, &agg, []string{pathC})
	require.True(t, ok)
	assert.Equal(t, 3, root.Count)

	// Removing it patches back down.
	require.NoError(t, os.Remove(pathC))
	root, ok = applyTreeBatch(idx, table, &agg, []string{pathC})
	require.True(t, ok)
	assert.Equal(t, 2, root.Count)
}

func TestApplyTreeBatchFallsBackToSnapshot(t *testing.T) {
	dir := t.TempDir()
	idx := scan.New(scan.Root{Dir: dir, Reader: &claude.Reader{}})

	writeLog(t, dir, "a.jsonl", "sess-a", "/home/dev/one")
	writeLog(t, dir, "b.jsonl", "sess-b", "/home/dev/two")
	table := scan.NewTable(idx.FastScan(context.Background()))

	var agg pathtree.Aggregator
	agg.ApplySnapshot(table.CWDCounts())

	// A session outside the cached prefix rejects the patch; the table is
	// still updated, so a snapshot rebuild picks it up.
	pathC := writeLog(t, dir, "c.jsonl", "sess-c", "/var/tmp/scratch")
	_, ok := applyTreeBatch(idx, table, &agg, []string{pathC})
	require.False(t, ok)

	root := agg.ApplySnapshot(table.CWDCounts())
	assert.Equal(t, 3, root.Count)
	assert.Equal(t, "/", root.ID)
}
