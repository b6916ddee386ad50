// Package reader defines the contract both log-family parsers implement and
// the shared line-decoding helpers they are built on.
package reader

import (
	"context"

	"github.com/ketaki/kosha/core"
)

// Reader parses one agent family's session logs into the normalized model.
type Reader interface {
	// Source identifies the family.
	Source() core.Source

	// ParseFile streams the whole file and returns the summary plus the full
	// ordered row list. Returns (nil, nil) when the file never yields a
	// resolvable session id, first timestamp, and cwd: such a file is not a
	// session, not an error.
	ParseFile(ctx context.Context, path string) (*core.Session, error)

	// FastIndex produces an approximate summary from a bounded prefix read
	// plus a bounded tail read. Counts may be zero or undercounted.
	FastIndex(path string) (*core.SessionSummary, error)

	// FastSessionID scans a short prefix for the session id only. Returns ""
	// when none is found.
	FastSessionID(path string) string

	// CollectUsage streams the file and extracts token-usage and limit
	// events without materializing rows.
	CollectUsage(ctx context.Context, path string) ([]core.UsageEntry, error)

	// SkipFile reports whether a filename is excluded from directory scans
	// entirely (e.g. sidechain warm-up artifacts).
	SkipFile(name string) bool

	// TempFile reports whether a filename is a pre-rename temporary. Used by
	// the dedup policy to prefer canonical files.
	TempFile(name string) bool
}
