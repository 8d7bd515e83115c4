package models

import (
	"sort"
	"time"

	"HodlWatch/pkg/util"
)

// PriceRow is one fully-closed trading day of the tracked asset.
// Date is always UTC midnight; Volume may be zero when a source does not
// report it.
type PriceRow struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series is the canonical daily price history: date-ordered, date-unique,
// spanning inception to the last fully-closed day.
type Series []PriceRow

// First returns the earliest row, or false on an empty series.
func (s Series) First() (PriceRow, bool) {
	if len(s) == 0 {
		return PriceRow{}, false
	}
	return s[0], true
}

// Last returns the most recent row, or false on an empty series.
func (s Series) Last() (PriceRow, bool) {
	if len(s) == 0 {
		return PriceRow{}, false
	}
	return s[len(s)-1], true
}

// Tail returns the trailing n rows (the whole series when n <= 0 or n >= len).
func (s Series) Tail(n int) Series {
	if n <= 0 || n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}

// Merge combines the series with a later-fetched batch. For a shared date the
// batch row supersedes the existing one; the result is sorted and date-unique.
func (s Series) Merge(batch Series) Series {
	byDay := make(map[time.Time]PriceRow, len(s)+len(batch))
	for _, r := range s {
		byDay[util.Day(r.Date)] = r
	}
	for _, r := range batch {
		r.Date = util.Day(r.Date)
		byDay[r.Date] = r
	}

	merged := make(Series, 0, len(byDay))
	for _, r := range byDay {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date.Before(merged[j].Date) })
	return merged
}

// ClipBefore drops every row whose date is not strictly before cutoff and
// reports how many were removed. The reconciler runs this with cutoff set to
// the current UTC day so an in-progress candle can never be persisted.
func (s Series) ClipBefore(cutoff time.Time) (Series, int) {
	cutoff = util.Day(cutoff)
	kept := make(Series, 0, len(s))
	for _, r := range s {
		if util.Day(r.Date).Before(cutoff) {
			kept = append(kept, r)
		}
	}
	return kept, len(s) - len(kept)
}

// CheckInvariants verifies strict date ordering and uniqueness.
func (s Series) CheckInvariants() error {
	for i := 1; i < len(s); i++ {
		if !s[i-1].Date.Before(s[i].Date) {
			return &SchemaError{
				Source: "series",
				Detail: "dates not strictly increasing at " + util.FormatDay(s[i].Date),
			}
		}
	}
	return nil
}
