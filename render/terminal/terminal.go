// Package terminal renders sessions as ANSI-colored message cards, plus the
// tabular listing, usage, and tree views used by the CLI.
package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
	"github.com/ketaki/kosha/core"
)

const defaultWidth = 100

// Renderer pretty-prints a session as message cards to the terminal.
type Renderer struct {
	// Width overrides terminal width detection. Zero means auto-detect.
	Width int
}

// New creates a terminal Renderer.
func New() *Renderer {
	return &Renderer{}
}

// Render writes the session as ANSI-colored message cards to w.
func (r *Renderer) Render(w io.Writer, s *core.Session) error {
	width := r.termWidth()

	writeHeader(w, s)

	var prev *time.Time
	for _, row := range s.Rows {
		var duration string
		if prev != nil {
			duration = formatDuration(row.Timestamp.Sub(*prev))
		}
		ts := row.Timestamp
		prev = &ts

		writeRow(w, row, duration, width)
	}

	fmt.Fprintln(w)
	return nil
}

func (r *Renderer) termWidth() int {
	if r.Width > 0 {
		return r.Width
	}
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return defaultWidth
}

// writeHeader renders the session metadata block.
func writeHeader(w io.Writer, s *core.Session) {
	sum := s.Summary

	title := sum.Title
	if title == "" {
		title = "Session " + sum.ID
	}
	fmt.Fprintln(w, heading.Render(title))

	// Row 2: source  relative_time  model  dir
	var parts []string
	parts = append(parts, "@"+string(sum.Source))
	if !sum.StartedAt.IsZero() {
		parts = append(parts, core.RelativeTime(sum.StartedAt))
	}
	if sum.Model != "" {
		parts = append(parts, sum.Model)
	}
	if sum.CWD != "" {
		parts = append(parts, sum.CWD)
	}
	fmt.Fprintln(w, dim.Render(strings.Join(parts, "  ")))

	if sum.Comment != "" {
		fmt.Fprintln(w, dim.Render(sum.Comment))
	}

	if usage := sessionUsage(s); usage.Total() > 0 {
		fmt.Fprintln(w)
		writeUsage(w, usage)
	}
}

// sessionUsage sums token usage across all response items.
func sessionUsage(s *core.Session) core.TokenUsage {
	var total core.TokenUsage
	for _, row := range s.Rows {
		if row.Kind == core.RowResponseItem && row.Item.Usage != nil {
			total.Add(*row.Item.Usage)
		}
	}
	return total
}

// writeUsage renders token counters in two rows: values then labels.
func writeUsage(w io.Writer, u core.TokenUsage) {
	type stat struct {
		value int
		label string
	}
	stats := []stat{
		{u.InputTokens, "INPUT"},
		{u.OutputTokens, "OUTPUT"},
	}
	if u.CacheReadTokens > 0 {
		stats = append(stats, stat{u.CacheReadTokens, "CACHE READ"})
	}
	if u.CacheCreationTokens > 0 {
		stats = append(stats, stat{u.CacheCreationTokens, "CACHE WRITE"})
	}

	var values, labels []string
	for _, s := range stats {
		formatted := core.FormatTokens(s.value)
		colWidth := max(len(formatted), len(s.label))
		values = append(values, fmt.Sprintf("%*s", colWidth, formatted))
		labels = append(labels, fmt.Sprintf("%-*s", colWidth, s.label))
	}

	fmt.Fprintln(w, "  "+statValue.Render(strings.Join(values, "    ")))
	fmt.Fprintln(w, "  "+statLabel.Render(strings.Join(labels, "    ")))
}

// writeSeparator renders a horizontal rule.
func writeSeparator(w io.Writer, width int) {
	n := min(width, 72)
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule.Render(strings.Repeat("─", n)))
}

// writeRow renders a single row card: role badge, metadata, content lines.
// Meta and turn-context rows are folded into the header and skipped here.
func writeRow(w io.Writer, row core.Row, duration string, width int) bool {
	contentWidth := width - 4
	if contentWidth < 40 {
		contentWidth = 40
	}

	var badge string
	var lines []string

	switch row.Kind {
	case core.RowSessionMeta, core.RowTurnContext:
		return false

	case core.RowEventMessage:
		badge = badgeSystem.Render(strings.ToUpper(row.Event.Type))
		if text := strings.TrimSpace(row.Event.Message); text != "" {
			lines = append(lines, toolDetail.Render(truncate(text, contentWidth)))
		}

	case core.RowResponseItem:
		item := row.Item
		badge = roleBadge(item.Role)
		switch {
		case item.IsToolCall:
			name := item.ToolName
			if name == "" {
				name = "tool"
			}
			toolLine := toolName.Render("⚙ " + name)
			if item.Text != "" {
				nameWidth := lipgloss.Width("⚙ " + name + "  ")
				toolLine += "  " + toolDetail.Render(truncate(item.Text, contentWidth-nameWidth))
			}
			lines = append(lines, toolLine)
		case item.IsToolResult:
			if text := strings.TrimSpace(item.Text); text != "" {
				lines = append(lines, toolDetail.Render(truncate(text, contentWidth)))
			}
		default:
			if text := strings.TrimSpace(item.Text); text != "" {
				lines = append(lines, truncate(text, contentWidth))
			}
		}
	}

	if len(lines) == 0 {
		return false
	}

	writeSeparator(w, width)

	var metaParts []string
	metaParts = append(metaParts, formatTime(row.Timestamp))
	if duration != "" {
		metaParts = append(metaParts, duration)
	}
	header := badge + "    " + dim.Render(strings.Join(metaParts, "    "))
	fmt.Fprintln(w)
	fmt.Fprintln(w, " "+header)

	for _, line := range lines {
		fmt.Fprintln(w, "  "+line)
	}

	return true
}

func roleBadge(role string) string {
	label := strings.ToUpper(role)
	switch role {
	case "user":
		return badgeUser.Render(label)
	case "assistant":
		return badgeAssistant.Render(label)
	case "system":
		return badgeSystem.Render(label)
	default:
		return dim.Render(label)
	}
}

// truncate shortens text to maxWidth, appending "..." if needed.
// Multi-line text is reduced to the first line.
func truncate(s string, maxWidth int) string {
	if maxWidth < 4 {
		maxWidth = 4
	}
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if lipgloss.Width(s) <= maxWidth {
		return s
	}

	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+3 > maxWidth {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

func formatTime(t time.Time) string {
	return t.Format("Jan 2, 2006 3:04 PM")
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	case m > 0 && s > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
