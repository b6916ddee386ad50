package core

import "time"

// Source identifies which agent family produced a log file.
type Source string

const (
	SourceClaude Source = "claude"
	SourceCodex  Source = "codex"
)

// SessionSummary is the canonical per-file digest. Summaries are replaced
// wholesale on re-parse, never mutated in place. ID comes from the log
// content, not the filename, so it survives file renames.
type SessionSummary struct {
	ID             string     `json:"id"`
	Path           string     `json:"path"`
	FileSize       int64      `json:"file_size"`
	Source         Source     `json:"source"`
	StartedAt      time.Time  `json:"started_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
	CWD            string     `json:"cwd,omitempty"`
	Originator     string     `json:"originator,omitempty"`
	CLIVersion     string     `json:"cli_version,omitempty"`
	Model          string     `json:"model,omitempty"`
	ApprovalPolicy string     `json:"approval_policy,omitempty"`

	MessageCount int `json:"message_count"`
	ToolCount    int `json:"tool_count"`
	EventCount   int `json:"event_count"`

	// Title and Comment are overlaid from the note store during enrichment.
	Title   string `json:"title,omitempty"`
	Comment string `json:"comment,omitempty"`

	// Approximate marks a fast-path summary whose counts have not yet been
	// replaced by a full parse.
	Approximate bool `json:"approximate,omitempty"`
}

// LastActivity returns UpdatedAt when known, StartedAt otherwise.
func (s *SessionSummary) LastActivity() time.Time {
	if s.UpdatedAt != nil {
		return *s.UpdatedAt
	}
	return s.StartedAt
}

// Session pairs a summary with the full ordered row list from one file.
type Session struct {
	Summary SessionSummary
	Rows    []Row
}
