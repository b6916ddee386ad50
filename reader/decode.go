package reader

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"time"
)

// MaxLineSize is the largest JSONL line either family produces in practice.
// Tool results routinely exceed bufio.Scanner's 64 KB default.
const MaxLineSize = 10 << 20

// initialBufSize is the scanner's starting buffer.
const initialBufSize = 1 << 20

// timestampLayouts are tried in order after RFC3339Nano fails. Both families
// emit ISO-8601 with and without fractional seconds, occasionally without a
// zone designator.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
}

// ParseTimestamp decodes an ISO-8601 timestamp in fractional or whole-second
// form. The zero time and false are returned for anything unrecognizable.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), true
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// EachLine streams r line by line, stripping trailing carriage returns and
// skipping blank lines. visit returns false to stop early; the remaining
// input is not read. Scanner errors (typically an oversized line) abort the
// walk but are not surfaced; a corrupt tail must not invalidate the lines
// already seen.
func EachLine(r io.Reader, visit func(line []byte) bool) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, initialBufSize), MaxLineSize)

	for scanner.Scan() {
		line := bytes.TrimSuffix(scanner.Bytes(), []byte{'\r'})
		if len(line) == 0 {
			continue
		}
		if !visit(line) {
			return
		}
	}
}

// TailBytes reads at most max bytes from the end of f without touching the
// rest of the file. The returned slice starts at a line boundary when the
// file is larger than max (the leading partial line is dropped).
func TailBytes(f *os.File, max int64) ([]byte, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := info.Size()
	offset := int64(0)
	if size > max {
		offset = size - max
	}

	buf := make([]byte, size-offset)
	if _, err := f.ReadAt(buf, offset); err != nil && err != io.EOF {
		return nil, err
	}

	if offset > 0 {
		if i := bytes.IndexByte(buf, '\n'); i >= 0 {
			buf = buf[i+1:]
		} else {
			return nil, nil
		}
	}
	return buf, nil
}
