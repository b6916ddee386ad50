package core

import (
	"fmt"
	"time"
)

// RelativeTime formats a time.Time as a human-readable relative string.
func RelativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dw ago", int(d.Hours()/(24*7)))
	case d < 365*24*time.Hour:
		return fmt.Sprintf("%dmo ago", int(d.Hours()/(24*30)))
	default:
		return fmt.Sprintf("%dy ago", int(d.Hours()/(24*365)))
	}
}

// FormatTokens renders a token count with thousands separators.
func FormatTokens(n int) string {
	if n < 0 {
		return "-" + FormatTokens(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return FormatTokens(n/1000) + "," + fmt.Sprintf("%03d", n%1000)
}
