package codex

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/ketaki/kosha/core"
	"github.com/ketaki/kosha/reader"
)

// FastIndex builds an approximate summary from a bounded prefix read plus a
// tail read for the last-updated time. Counts reflect only the prefix.
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
		if row, ok := r.decodeLine(line); ok {
			acc.ObserveRow(row)
		}
		return seen < fastPrefixLines
	})

	if tail, err := reader.TailBytes(f, tailReadBytes); err == nil && len(tail) > 0 {
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

	summary, ok := acc.Summary(path, info.Size(), core.SourceCodex)
	if !ok {
		return nil, nil
	}
	summary.Approximate = true
	return &summary, nil
}

// FastSessionID scans the first fastIDLines lines for the session_meta id
// without decoding anything else.
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
			Type    string `json:"type"`
			Payload struct {
				ID string `json:"id"`
			} `json:"payload"`
		}
		if err := json.Unmarshal(line, &probe); err == nil &&
			probe.Type == "session_meta" && probe.Payload.ID != "" {
			id = probe.Payload.ID
			return false
		}
		return seen < fastIDLines
	})
	return id
}
