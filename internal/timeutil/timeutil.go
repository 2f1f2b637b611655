// Package timeutil holds the small time conversions shared by the
// timetable store, the API layer and the CLI tools. Journey times are
// minutes relative to the midnight of the travel day and may be
// negative (a leg boarded the previous evening) or beyond 1440 (a leg
// ending after the following midnight).
package timeutil

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for travel days, matching the timetable
// directory names.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD travel day.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return d, nil
}

// FormatDate renders a travel day as YYYY-MM-DD.
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// ParseMinutes parses a HH:MM clock time into minutes after midnight.
func ParseMinutes(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parsing time %q: %w", s, err)
	}
	if h < 0 || h > 47 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time %q out of range", s)
	}
	return h*60 + m, nil
}

// FormatMinutes renders minutes after midnight as HH:MM. Times outside
// the travel day get a day marker: "23:50-1d" for the previous evening,
// "00:12+1d" past the following midnight.
func FormatMinutes(m int) string {
	switch {
	case m < 0:
		return fmt.Sprintf("%02d:%02d-1d", (m+1440)/60, (m+1440)%60)
	case m >= 2880:
		return fmt.Sprintf("%02d:%02d+2d", (m-2880)/60, (m-2880)%60)
	case m >= 1440:
		return fmt.Sprintf("%02d:%02d+1d", (m-1440)/60, (m-1440)%60)
	default:
		return fmt.Sprintf("%02d:%02d", m/60, m%60)
	}
}
