package claude

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/ketaki/kosha/core"
	"github.com/ketaki/kosha/reader"
)

// FastIndex builds an approximate summary from the first fastPrefixLines
// lines plus a bounded tail read that corrects the last-updated time. The
// file is never materialized as a whole; counts reflect only the prefix and
// are replaced by enrichment.
func (r *Reader) FastIndex(path string) (*core.SessionSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil
	}

	var acc reader.Accumulator
	seen := 0
	reader.EachLine(f, func(line []byte) bool {
		seen++
		if row, ok := r.decodeLine(line, &acc); ok {
			acc.ObserveRow(row)
		}
		return seen < fastPrefixLines
	})

	observeTailTimestamps(f, &acc)

	summary, ok := acc.Summary(path, info.Size(), core.SourceClaude)
	if !ok {
		return nil, nil
	}
	summary.Approximate = true
	return &summary, nil
}

// FastSessionID scans the first fastIDLines lines for a session id without
// decoding or accumulating anything else.
func (r *Reader) FastSessionID(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	var id string
	seen := 0
	reader.EachLine(f, func(line []byte) bool {
		seen++
		var probe struct {
			SessionID string `json:"sessionId"`
		}
		if err := json.Unmarshal(line, &probe); err == nil && probe.SessionID != "" {
			id = probe.SessionID
			return false
		}
		return seen < fastIDLines
	})
	return id
}

// observeTailTimestamps feeds the timestamps found in the file's final bytes
// into the accumulator so UpdatedAt is correct without a full parse.
func observeTailTimestamps(f *os.File, acc *reader.Accumulator) {
	tail, err := reader.TailBytes(f, tailReadBytes)
	if err != nil || len(tail) == 0 {
		return
	}

	reader.EachLine(bytes.NewReader(tail), func(line []byte) bool {
		var probe struct {
			Timestamp string `json:"timestamp"`
		}
		if err := json.Unmarshal(line, &probe); err != nil {
			return true
		}
		if ts, ok := reader.ParseTimestamp(probe.Timestamp); ok {
			acc.ObserveTimestamp(ts)
		}
		return true
	})
}
