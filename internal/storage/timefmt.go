package storage

import "time"

// timeLayout is fixed-width so that lexical order of stored values matches
// chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime accepts timeLayout and RFC 3339. Anything else is reported as
// not ok so callers can treat the value as absent.
func parseTime(s string) (time.Time, bool) {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}
