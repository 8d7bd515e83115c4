package models

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func row(d time.Time, high float64) PriceRow {
	return PriceRow{Date: d, Open: high * 0.99, High: high, Low: high * 0.97, Close: high * 0.98, Volume: 1000}
}

func TestMergeNewestWins(t *testing.T) {
	base := Series{row(day(2024, 1, 1), 100), row(day(2024, 1, 2), 105)}
	batch := Series{row(day(2024, 1, 2), 200), row(day(2024, 1, 3), 110)}

	merged := base.Merge(batch)
	if len(merged) != 3 {
		t.Fatalf("len = %d, want 3", len(merged))
	}
	if merged[1].High != 200 {
		t.Fatalf("shared date not superseded: High = %v", merged[1].High)
	}
	if err := merged.CheckInvariants(); err != nil {
		t.Fatalf("invariants: %v", err)
	}
}

func TestMergeSortsUnorderedBatch(t *testing.T) {
	batch := Series{row(day(2024, 1, 3), 110), row(day(2024, 1, 1), 100), row(day(2024, 1, 2), 105)}
	merged := Series(nil).Merge(batch)
	for i := 1; i < len(merged); i++ {
		if !merged[i-1].Date.Before(merged[i].Date) {
			t.Fatalf("not sorted at %d", i)
		}
	}
}

func TestClipBeforeDropsTodayAndLater(t *testing.T) {
	today := day(2024, 1, 4)
	s := Series{
		row(day(2024, 1, 2), 100),
		row(day(2024, 1, 3), 105),
		row(today, 110),
		row(day(2024, 1, 5), 115),
	}
	kept, dropped := s.ClipBefore(today)
	if dropped != 2 {
		t.Fatalf("dropped = %d, want 2", dropped)
	}
	last, _ := kept.Last()
	if !last.Date.Equal(day(2024, 1, 3)) {
		t.Fatalf("last kept = %v", last.Date)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	s := Series{
		row(day(2013, 11, 30), 1163),
		row(day(2013, 12, 1), 1000.51),
		{Date: day(2013, 12, 2), Open: 980, High: 1005.7, Low: 950.01, Close: 990, Volume: 0},
	}

	var buf bytes.Buffer
	if err := s.EncodeCSV(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeSeriesCSV(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != len(s) {
		t.Fatalf("len = %d, want %d", len(got), len(s))
	}
	for i := range s {
		if got[i] != s[i] {
			t.Fatalf("row %d: got %+v want %+v", i, got[i], s[i])
		}
	}
}

func TestDecodeRejectsWrongHeader(t *testing.T) {
	blob := "Date,Open,High,Low,Close\n2024-01-01,1,2,3,4\n"
	if _, err := DecodeSeriesCSV(strings.NewReader(blob)); err == nil {
		t.Fatal("expected header error")
	}
}

func TestDecodeRejectsOutOfOrderDates(t *testing.T) {
	blob := "Date,Open,High,Low,Close,Volume\n" +
		"2024-01-02,1,2,1,1,0\n" +
		"2024-01-01,1,2,1,1,0\n"
	if _, err := DecodeSeriesCSV(strings.NewReader(blob)); err == nil {
		t.Fatal("expected invariant error")
	}
}

func TestTailWindow(t *testing.T) {
	s := Series{row(day(2024, 1, 1), 1), row(day(2024, 1, 2), 2), row(day(2024, 1, 3), 3)}
	if got := s.Tail(2); len(got) != 2 || !got[0].Date.Equal(day(2024, 1, 2)) {
		t.Fatalf("Tail(2) = %+v", got)
	}
	if got := s.Tail(0); len(got) != 3 {
		t.Fatalf("Tail(0) should return all, got %d", len(got))
	}
	if got := s.Tail(10); len(got) != 3 {
		t.Fatalf("Tail(10) should return all, got %d", len(got))
	}
}
