package util

import (
	"testing"
	"time"
)

func TestDayTruncatesToUTCMidnight(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	// 2024-10-11 03:30 in UTC+9 is still 2024-10-10 in UTC.
	in := time.Date(2024, 10, 11, 3, 30, 0, 0, loc)
	got := Day(in)
	want := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("Day = %v, want %v", got, want)
	}
}

func TestParseDayRoundTrip(t *testing.T) {
	d, err := ParseDay("2021-04-14")
	if err != nil {
		t.Fatalf("ParseDay: %v", err)
	}
	if got := FormatDay(d); got != "2021-04-14" {
		t.Fatalf("FormatDay = %q", got)
	}
	if d.Location() != time.UTC {
		t.Fatalf("expected UTC, got %v", d.Location())
	}
}

func TestParseDayRejectsGarbage(t *testing.T) {
	if _, err := ParseDay("14/04/2021"); err == nil {
		t.Fatal("expected error")
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	b := time.Date(2024, 1, 4, 1, 0, 0, 0, time.UTC)
	if got := DaysBetween(a, b); got != 3 {
		t.Fatalf("DaysBetween = %d, want 3", got)
	}
}

func TestPrevNextDay(t *testing.T) {
	d := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if got := PrevDay(d); !got.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("PrevDay = %v", got)
	}
	if got := NextDay(d); !got.Equal(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("NextDay = %v", got)
	}
}

func TestParseIntDefault(t *testing.T) {
	if got := ParseIntDefault("", 7); got != 7 {
		t.Fatalf("empty: got %d", got)
	}
	if got := ParseIntDefault("12", 7); got != 12 {
		t.Fatalf("valid: got %d", got)
	}
	if got := ParseIntDefault("x", 7); got != 7 {
		t.Fatalf("invalid: got %d", got)
	}
}
