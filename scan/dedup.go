package scan

import (
	"time"

	"github.com/ketaki/kosha/core"
)

// candidate is one file claiming a session id during a directory-wide scan.
type candidate struct {
	Summary core.SessionSummary
	Name    string
	ModTime time.Time
	Size    int64
	Temp    bool
}

// Prefer picks the canonical candidate when two files map to the same session
// id. The ordering is total and deterministic: non-temporary beats temporary,
// then newer modification time, then larger file size, then lexically smaller
// filename.
func Prefer(a, b candidate) candidate {
	if a.Temp != b.Temp {
		if b.Temp {
			return a
		}
		return b
	}
	if !a.ModTime.Equal(b.ModTime) {
		if a.ModTime.After(b.ModTime) {
			return a
		}
		return b
	}
	if a.Size != b.Size {
		if a.Size > b.Size {
			return a
		}
		return b
	}
	if a.Name <= b.Name {
		return a
	}
	return b
}
