// Package core defines the normalized session model (rows, summaries, and
// usage records) that both log-family readers produce and every other
// component consumes.
package core

import "time"

// RowKind discriminates the payload carried by a Row.
type RowKind string

const (
	RowSessionMeta  RowKind = "session_meta"
	RowTurnContext  RowKind = "turn_context"
	RowEventMessage RowKind = "event_message"
	RowResponseItem RowKind = "response_item"
)

// Row is one decoded log line. Exactly one payload pointer is non-nil,
// matching Kind. Rows are produced once per line and never persisted.
type Row struct {
	Timestamp time.Time
	Kind      RowKind

	Meta  *SessionMeta
	Turn  *TurnContext
	Event *EventMessage
	Item  *ResponseItem
}

// SessionMeta carries session-identity fields. Both families emit it at most
// a handful of times per file; accumulation is first-wins.
type SessionMeta struct {
	ID         string
	CWD        string
	Originator string
	CLIVersion string
}

// TurnContext carries per-turn settings that may change mid-session.
type TurnContext struct {
	CWD            string
	Model          string
	ApprovalPolicy string
}

// EventMessage is an out-of-band event: token counts, rate-limit hints,
// system notices.
type EventMessage struct {
	Type    string
	Message string
	Usage   *TokenUsage
	// RateLimitHint holds a natural-language reset hint when the event
	// reports a quota limit (e.g. "usage limit reached|1731147600").
	RateLimitHint string
}

// ResponseItem is one conversational item: a message, a tool call, or a
// tool result.
type ResponseItem struct {
	Role         string
	Text         string
	Model        string
	MessageID    string
	RequestID    string
	ToolName     string
	ToolUseID    string
	IsToolCall   bool
	IsToolResult bool
	Usage        *TokenUsage
}

// TokenUsage holds token counters for one response or event.
type TokenUsage struct {
	InputTokens         int `json:"input_tokens,omitempty"`
	OutputTokens        int `json:"output_tokens,omitempty"`
	CacheReadTokens     int `json:"cache_read_tokens,omitempty"`
	CacheCreationTokens int `json:"cache_creation_tokens,omitempty"`
}

// Total sums all four counters.
func (u TokenUsage) Total() int {
	return u.InputTokens + u.OutputTokens + u.CacheReadTokens + u.CacheCreationTokens
}

// Add accumulates the counts from other into u.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheReadTokens += other.CacheReadTokens
	u.CacheCreationTokens += other.CacheCreationTokens
}
