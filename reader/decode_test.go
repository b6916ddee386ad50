package reader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
		valid bool
	}{
		{
			name:  "rfc3339 with millis",
			in:    "2025-06-01T10:30:00.123Z",
			want:  "2025-06-01T10:30:00.123Z",
			valid: true,
		},
		{
			name:  "rfc3339 whole seconds",
			in:    "2025-06-01T10:30:00Z",
			want:  "2025-06-01T10:30:00Z",
			valid: true,
		},
		{
			name:  "no zone designator",
			in:    "2025-06-01T10:30:00",
			want:  "2025-06-01T10:30:00Z",
			valid: true,
		},
		{
			name:  "offset zone normalized to UTC",
			in:    "2025-06-01T12:30:00+02:00",
			want:  "2025-06-01T10:30:00Z",
			valid: true,
		},
		{name: "empty", in: "", valid: false},
		{name: "garbage", in: "yesterday", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.in)
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				want, err := time.Parse(time.RFC3339Nano, tt.want)
				require.NoError(t, err)
				assert.True(t, got.Equal(want), "got %v want %v", got, want)
			}
		})
	}
}

func TestEachLine(t *testing.T) {
	input := "one\r\n\ntwo\n\r\nthree"

	var lines []string
	EachLine(strings.NewReader(input), func(line []byte) bool {
		lines = append(lines, string(line))
		return true
	})
	assert.Equal(t, []string{"one", "two", "three"}, lines)
}

func TestEachLineEarlyStop(t *testing.T) {
	var lines []string
	EachLine(strings.NewReader("a\nb\nc\n"), func(line []byte) bool {
		lines = append(lines, string(line))
		return len(lines) < 2
	})
	assert.Equal(t, []string{"a", "b"}, lines)
}

func TestTailBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tail.jsonl")
	content := "first line\nsecond line\nthird line\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	t.Run("whole file when under max", func(t *testing.T) {
		buf, err := TailBytes(f, 1024)
		require.NoError(t, err)
		assert.Equal(t, content, string(buf))
	})

	t.Run("partial leading line dropped", func(t *testing.T) {
		// 15 bytes back lands mid "second line"; the tail must start at
		// "third line".
		buf, err := TailBytes(f, 15)
		require.NoError(t, err)
		assert.Equal(t, "third line\n", string(buf))
	})

	t.Run("no newline in window yields nothing", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "open.jsonl")
		require.NoError(t, os.WriteFile(p, []byte("first line\nsecond"), 0o644))
		open, err := os.Open(p)
		require.NoError(t, err)
		defer open.Close()

		buf, err := TailBytes(open, 3)
		require.NoError(t, err)
		assert.Nil(t, buf)
	})
}
