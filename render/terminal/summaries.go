package terminal

import (
	"fmt"
	"io"
	"strings"

	"github.com/ketaki/kosha/core"
)

// RenderSummaries writes the session listing as an aligned table, one row per
// session, most recent first (the caller sorts).
func (r *Renderer) RenderSummaries(w io.Writer, summaries []core.SessionSummary) error {
	if len(summaries) == 0 {
		fmt.Fprintln(w, dim.Render("no sessions found"))
		return nil
	}

	width := r.termWidth()

	type tableRow struct {
		when, source, msgs, tools, dir, title string
		approx                                bool
	}

	rows := make([]tableRow, 0, len(summaries))
	for _, s := range summaries {
		row := tableRow{
			source: string(s.Source),
			msgs:   fmt.Sprintf("%d", s.MessageCount),
			tools:  fmt.Sprintf("%d", s.ToolCount),
			dir:    shortDir(s.CWD),
			title:  s.Title,
			approx: s.Approximate,
		}
		if t := s.LastActivity(); !t.IsZero() {
			row.when = core.RelativeTime(t)
		}
		if row.title == "" {
			row.title = s.ID
		}
		rows = append(rows, row)
	}

	whenW, srcW, msgW, toolW, dirW := 4, 6, 4, 5, 3
	for _, row := range rows {
		whenW = max(whenW, len(row.when))
		srcW = max(srcW, len(row.source))
		msgW = max(msgW, len(row.msgs))
		toolW = max(toolW, len(row.tools))
		dirW = max(dirW, len(row.dir))
	}
	titleW := width - whenW - srcW - msgW - toolW - dirW - 12
	if titleW < 16 {
		titleW = 16
	}

	header := fmt.Sprintf("  %-*s  %-*s  %*s  %*s  %-*s  %s",
		whenW, "LAST", srcW, "SOURCE", msgW, "MSGS", toolW, "TOOLS", dirW, "DIR", "TITLE")
	fmt.Fprintln(w, statLabel.Render(header))

	for _, row := range rows {
		title := truncate(row.title, titleW)
		if row.approx {
			title += " " + dim.Render("~")
		}
		fmt.Fprintf(w, "  %-*s  %-*s  %*s  %*s  %-*s  %s\n",
			whenW, row.when,
			srcW, row.source,
			msgW, row.msgs,
			toolW, row.tools,
			dirW, row.dir,
			title)
	}
	return nil
}

// shortDir abbreviates a working directory to its last two components.
func shortDir(dir string) string {
	if dir == "" {
		return ""
	}
	parts := strings.Split(strings.TrimRight(dir, "/"), "/")
	if len(parts) <= 2 {
		return dir
	}
	return strings.Join(parts[len(parts)-2:], "/")
}
