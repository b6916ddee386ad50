package terminal

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ketaki/kosha/core"
)

const barWidth = 40

// RenderUsage writes the current usage window and weekly totals.
func (r *Renderer) RenderUsage(w io.Writer, status *core.UsageStatus) error {
	if status == nil {
		fmt.Fprintln(w, dim.Render("no usage data found"))
		return nil
	}

	fmt.Fprintln(w, heading.Render("Current window"))

	elapsed := status.WindowElapsed
	frac := float64(elapsed) / float64(5*time.Hour)
	if frac > 1 {
		frac = 1
	}
	bar := renderBar(frac)
	line := fmt.Sprintf("  %s  %s / 5h", bar, formatDuration(elapsed))
	if status.WindowLimited {
		line += "  " + alert.Render("LIMIT REACHED")
	}
	fmt.Fprintln(w, line)
	if status.WindowResetAt != nil {
		fmt.Fprintln(w, dim.Render("  resets "+formatTime(*status.WindowResetAt)))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, heading.Render("This week"))
	fmt.Fprintf(w, "  %s active, resets %s\n",
		formatDuration(status.WeekUsed), formatTime(status.WeekResetAt))

	fmt.Fprintln(w)
	writeUsage(w, status.Tokens)
	if len(status.Models) > 0 {
		fmt.Fprintln(w, dim.Render("  "+strings.Join(status.Models, ", ")))
	}
	return nil
}

func renderBar(frac float64) string {
	filled := int(frac * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	return statValue.Render(strings.Repeat("█", filled)) +
		rule.Render(strings.Repeat("░", barWidth-filled))
}

// RenderCoverage writes per-day activity for one month as a compact strip.
func (r *Renderer) RenderCoverage(w io.Writer, month string, days []int) error {
	if len(days) == 0 {
		fmt.Fprintln(w, dim.Render("no activity in "+month))
		return nil
	}
	active := make(map[int]bool, len(days))
	last := 0
	for _, d := range days {
		active[d] = true
		if d > last {
			last = d
		}
	}

	fmt.Fprintln(w, heading.Render(month))
	var cells []string
	for d := 1; d <= last; d++ {
		if active[d] {
			cells = append(cells, statValue.Render("■"))
		} else {
			cells = append(cells, rule.Render("·"))
		}
	}
	fmt.Fprintln(w, "  "+strings.Join(cells, " "))
	fmt.Fprintf(w, "  %s\n", dim.Render(fmt.Sprintf("%d active days", len(days))))
	return nil
}
