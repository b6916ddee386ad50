package usage

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Reset hints are free-form English. Recognized forms, in priority order:
// an embedded literal Unix timestamp after a '|', a month-and-time phrase
// ("Mar 3 at 2pm"), and a bare time of day ("3pm", "11:30am").
var (
	unixHintRE = regexp.MustCompile(`\|\s*(\d{9,12})`)
	monthRE    = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+(\d{1,2})(?:\s+at\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?)?`)
	timeRE     = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
)

var monthIndex = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// ParseResetHint extracts a reset time from a natural-language hint relative
// to the entry's own timestamp. Returns nil when nothing parses.
func ParseResetHint(hint string, entry time.Time) *time.Time {
	if hint == "" {
		return nil
	}

	// A literal Unix timestamp wins over everything textual.
	if m := unixHintRE.FindStringSubmatch(hint); m != nil {
		secs, err := strconv.ParseInt(m[1], 10, 64)
		if err == nil {
			t := time.Unix(secs, 0).UTC()
			return &t
		}
	}

	if m := monthRE.FindStringSubmatch(hint); m != nil {
		month := monthIndex[strings.ToLower(m[1])]
		day, _ := strconv.Atoi(m[2])
		hour, minute := parseClock(m[3], m[4], m[5])

		t := time.Date(entry.Year(), month, day, hour, minute, 0, 0, entry.Location())
		// A date already behind the entry means next year.
		if t.Before(entry) {
			t = t.AddDate(1, 0, 0)
		}
		return &t
	}

	if m := timeRE.FindStringSubmatch(hint); m != nil {
		hour, minute := parseClock(m[1], m[2], m[3])
		t := time.Date(entry.Year(), entry.Month(), entry.Day(), hour, minute, 0, 0, entry.Location())
		// A clock time already behind the entry means tomorrow.
		if !t.After(entry) {
			t = t.AddDate(0, 0, 1)
		}
		return &t
	}

	return nil
}

func parseClock(hourStr, minuteStr, meridiem string) (hour, minute int) {
	hour, _ = strconv.Atoi(hourStr)
	if minuteStr != "" {
		minute, _ = strconv.Atoi(minuteStr)
	}
	switch strings.ToLower(meridiem) {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	return hour, minute
}
