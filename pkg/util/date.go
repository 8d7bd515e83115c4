package util

import (
	"fmt"
	"strconv"
	"time"
)

// DayFormat is the canonical date layout used by the persisted series.
const DayFormat = "2006-01-02"

// Day truncates t to UTC midnight. Every "today"/"yesterday" decision in the
// reconciler and the future-date gate goes through this, so a row cannot be
// validated under one day boundary and persisted under another.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// NextDay returns the UTC midnight following the day containing t.
func NextDay(t time.Time) time.Time {
	return Day(t).AddDate(0, 0, 1)
}

// PrevDay returns the UTC midnight preceding the day containing t.
func PrevDay(t time.Time) time.Time {
	return Day(t).AddDate(0, 0, -1)
}

// DaysBetween returns the whole-day gap from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)) / (24 * time.Hour))
}

// ParseDay parses a YYYY-MM-DD date as UTC midnight.
func ParseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DayFormat, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return t, nil
}

// FormatDay formats t as YYYY-MM-DD in UTC.
func FormatDay(t time.Time) string {
	return t.UTC().Format(DayFormat)
}

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
