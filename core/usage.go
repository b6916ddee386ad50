package core

import "time"

// UsageEntry is one token-usage or limit-reached event extracted from a
// session file.
type UsageEntry struct {
	Timestamp time.Time
	Tokens    TokenUsage
	Model     string
	MessageID string
	RequestID string

	// LimitReached marks an entry that reported a quota limit.
	LimitReached bool
	// WeeklyLimit distinguishes a weekly-quota report from a session one.
	WeeklyLimit bool
	// ResetHint carries the raw natural-language reset phrase, if any.
	ResetHint string
}

// DedupKey returns the identity used to drop duplicate entries across files.
// Empty when neither id is present, in which case the entry cannot be deduped.
func (e UsageEntry) DedupKey() string {
	if e.MessageID == "" && e.RequestID == "" {
		return ""
	}
	return e.MessageID + ":" + e.RequestID
}

// UsageBlock is a contiguous run of entries within one fixed 5-hour window,
// the atomic unit the usage analyzer reasons about.
type UsageBlock struct {
	StartedAt time.Time
	EndedAt   time.Time // timestamp of the last member entry
	Tokens    TokenUsage
	Models    []string

	LimitReached bool
	WeeklyLimit  bool
	ResetAt      *time.Time // explicit reset reported inside the block
}

// UsageStatus is the snapshot the usage analyzer hands to callers.
type UsageStatus struct {
	// Current 5-hour window.
	WindowStart   time.Time
	WindowElapsed time.Duration
	WindowLimited bool
	WindowResetAt *time.Time

	// Current calendar week.
	WeekUsed    time.Duration
	WeekResetAt time.Time

	Tokens TokenUsage
	Models []string
	Blocks []UsageBlock
}
