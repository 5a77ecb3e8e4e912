package untis

import (
	"strconv"
	"strings"
	"time"
)

// DateInt converts t to its YYYYMMDD integer form in t's location.
func DateInt(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

// ParseDateInt is the inverse of DateInt. Values that do not describe a real
// calendar day are rejected.
func ParseDateInt(n int, loc *time.Location) (time.Time, bool) {
	if n <= 0 {
		return time.Time{}, false
	}
	y, m, d := n/10000, (n/100)%100, n%100
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, loc)
	if t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

// ParseDateString accepts "YYYYMMDD", "YYYY-MM-DD" and RFC 3339 timestamps.
func ParseDateString(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(value); err == nil && len(value) == 8 {
		return n, true
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, value); err == nil {
			return DateInt(t), true
		}
	}
	if len(value) >= 10 {
		if t, err := time.Parse("2006-01-02", value[:10]); err == nil {
			return DateInt(t), true
		}
	}
	return 0, false
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
