package reader

import (
	"time"

	"github.com/ketaki/kosha/core"
)

// firstString keeps the first non-empty value it observes. Identity fields
// (session id, cwd, originator, version, model, approval policy) use
// first-wins: later lines never override.
type firstString struct {
	v string
}

func (f *firstString) Observe(s string) {
	if f.v == "" && s != "" {
		f.v = s
	}
}

func (f *firstString) Value() string { return f.v }

// firstTime keeps the earliest-seen (not earliest-valued) timestamp.
type firstTime struct {
	v time.Time
}

func (f *firstTime) Observe(t time.Time) {
	if f.v.IsZero() && !t.IsZero() {
		f.v = t
	}
}

// maxTime keeps the maximum value observed. Last-updated tracking uses
// max-wins: appended lines only ever move it forward.
type maxTime struct {
	v time.Time
}

func (m *maxTime) Observe(t time.Time) {
	if t.After(m.v) {
		m.v = t
	}
}

// Accumulator folds per-row metadata into the fields of a SessionSummary.
// Each field carries its merge policy explicitly so the two policies
// (first-wins identity, max-wins timestamps) cannot be confused.
type Accumulator struct {
	id             firstString
	cwd            firstString
	originator     firstString
	cliVersion     firstString
	model          firstString
	approvalPolicy firstString

	started firstTime
	updated maxTime

	messages int
	tools    int
	events   int
}

// ObserveRow feeds one decoded row into the accumulator. The switch is
// exhaustive over core.RowKind.
func (a *Accumulator) ObserveRow(row core.Row) {
	a.started.Observe(row.Timestamp)
	a.updated.Observe(row.Timestamp)

	switch row.Kind {
	case core.RowSessionMeta:
		a.id.Observe(row.Meta.ID)
		a.cwd.Observe(row.Meta.CWD)
		a.originator.Observe(row.Meta.Originator)
		a.cliVersion.Observe(row.Meta.CLIVersion)

	case core.RowTurnContext:
		a.cwd.Observe(row.Turn.CWD)
		a.model.Observe(row.Turn.Model)
		a.approvalPolicy.Observe(row.Turn.ApprovalPolicy)

	case core.RowEventMessage:
		a.events++

	case core.RowResponseItem:
		switch {
		case row.Item.IsToolCall, row.Item.IsToolResult:
			a.tools++
		default:
			a.messages++
		}
		a.model.Observe(row.Item.Model)
	}
}

// ObserveID records an out-of-band session id (e.g. from a flat field
// present on every Claude line).
func (a *Accumulator) ObserveID(id string) { a.id.Observe(id) }

// ObserveCWD records an out-of-band working directory.
func (a *Accumulator) ObserveCWD(cwd string) { a.cwd.Observe(cwd) }

// ObserveVersion records an out-of-band CLI version.
func (a *Accumulator) ObserveVersion(v string) { a.cliVersion.Observe(v) }

// ObserveTimestamp feeds a timestamp without a row (tail correction).
func (a *Accumulator) ObserveTimestamp(t time.Time) {
	a.started.Observe(t)
	a.updated.Observe(t)
}

// ID returns the session id accumulated so far.
func (a *Accumulator) ID() string { return a.id.Value() }

// Summary materializes the accumulated state. ok is false when the stream
// never supplied the three fields that make a file a session: id, first
// timestamp, and cwd.
func (a *Accumulator) Summary(path string, size int64, source core.Source) (core.SessionSummary, bool) {
	if a.id.Value() == "" || a.started.v.IsZero() || a.cwd.Value() == "" {
		return core.SessionSummary{}, false
	}

	s := core.SessionSummary{
		ID:             a.id.Value(),
		Path:           path,
		FileSize:       size,
		Source:         source,
		StartedAt:      a.started.v,
		CWD:            a.cwd.Value(),
		Originator:     a.originator.Value(),
		CLIVersion:     a.cliVersion.Value(),
		Model:          a.model.Value(),
		ApprovalPolicy: a.approvalPolicy.Value(),
		MessageCount:   a.messages,
		ToolCount:      a.tools,
		EventCount:     a.events,
	}
	if a.updated.v.After(a.started.v) {
		t := a.updated.v
		s.UpdatedAt = &t
	}
	return s, true
}
