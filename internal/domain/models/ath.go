package models

import "time"

// ATHRow is a price row annotated with the running all-time-high context.
//
// ATH is the maximum High over all strictly earlier days; the first row is
// its own record by convention. Because the current day is excluded,
// PercentOfATH exceeds 100 exactly on days that set a new record.
type ATHRow struct {
	PriceRow
	ATH          float64 `json:"ath"`
	PercentOfATH float64 `json:"percent_of_ath"`
	IsATH        bool    `json:"is_ath"`
	DaysSinceATH int     `json:"days_since_ath"`
}

// ATHSeries is the derived, disposable annotation of a canonical series.
type ATHSeries []ATHRow

// Last returns the most recent annotated row, or false when empty.
func (a ATHSeries) Last() (ATHRow, bool) {
	if len(a) == 0 {
		return ATHRow{}, false
	}
	return a[len(a)-1], true
}

// CurrentATH is the all-time high including the most recent day.
func (a ATHSeries) CurrentATH() float64 {
	last, ok := a.Last()
	if !ok {
		return 0
	}
	if last.High > last.ATH {
		return last.High
	}
	return last.ATH
}

// Percentages returns the percent-of-ATH column.
func (a ATHSeries) Percentages() []float64 {
	out := make([]float64, len(a))
	for i, r := range a {
		out[i] = r.PercentOfATH
	}
	return out
}

// Quantiles holds the six named distribution quantiles of percent-of-ATH.
type Quantiles struct {
	P10 float64 `json:"p10"`
	P25 float64 `json:"p25"`
	P75 float64 `json:"p75"`
	P90 float64 `json:"p90"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// Snapshot is the on-demand distribution summary of percent-of-ATH.
// Std is the sample standard deviation.
type Snapshot struct {
	Mean             float64   `json:"mean"`
	Median           float64   `json:"median"`
	Std              float64   `json:"std"`
	Min              float64   `json:"min"`
	Max              float64   `json:"max"`
	Quantiles        Quantiles `json:"quantiles"`
	DaysAtATH        int       `json:"days_at_ath"`         // percent exactly 100
	DaysAboveATH     int       `json:"days_above_ath"`      // percent strictly above 100
	DaysAtOrAboveATH int       `json:"days_at_or_above_ath"`
	TotalDays        int       `json:"total_days"`
}

// ExtremeDay is one entry of a hardest/easiest-days ranking, annotated with
// the dollar distance versus the ATH at that time.
type ExtremeDay struct {
	Date         time.Time `json:"date"`
	Price        float64   `json:"price"` // the day's High
	ATHAtTime    float64   `json:"ath_at_time"`
	PercentOfATH float64   `json:"percent_of_ath"`
	DollarGap    float64   `json:"dollar_gap"`    // ATH - High when below record
	DollarExcess float64   `json:"dollar_excess"` // High - ATH on record days, else 0
}

// Extremes pairs the k hardest days to have held with the k easiest, plus
// above-record context for the whole series.
type Extremes struct {
	Hardest         []ExtremeDay `json:"hardest"`
	Easiest         []ExtremeDay `json:"easiest"`
	AboveATHCount   int          `json:"above_ath_count"`
	AboveATHPercent float64      `json:"above_ath_percentage"`
	TotalDays       int          `json:"total_days"`
	RecentAboveATH  []ExtremeDay `json:"recent_above_ath_days"`
	FirstDate       time.Time    `json:"first_date"`
}

// Histogram is a fixed-bin count of percent-of-ATH values over [0, max].
type Histogram struct {
	Bins   []float64 `json:"bins"` // bin centers
	Counts []int     `json:"counts"`
}

// Cumulative is the empirical at-or-below curve of percent-of-ATH.
type Cumulative struct {
	Percentages []float64 `json:"percentages"`
	AtOrBelow   []float64 `json:"at_or_below"`
}

// VolatilityBands are mean +/- 1 and 2 standard deviations, clamped to [0,100].
type VolatilityBands struct {
	MeanMinus2Std float64 `json:"mean_minus_2std"`
	MeanMinus1Std float64 `json:"mean_minus_1std"`
	MeanPlus1Std  float64 `json:"mean_plus_1std"`
	MeanPlus2Std  float64 `json:"mean_plus_2std"`
}

// Distribution is the full query-surface payload for the distribution view.
type Distribution struct {
	Snapshot               Snapshot        `json:"statistics"`
	Histogram              Histogram       `json:"histogram"`
	Cumulative             Cumulative      `json:"cumulative"`
	Bands                  VolatilityBands `json:"volatility_bands"`
	CoefficientOfVariation float64         `json:"coefficient_of_variation"`
}

// SpotQuote is a current price observation from one source adapter.
type SpotQuote struct {
	Price     float64   `json:"price"`
	High24h   float64   `json:"high_24h"`
	Volume24h float64   `json:"volume_24h"`
	Change24h float64   `json:"change_24h"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// UpdateResult is the record produced by one orchestration cycle. It is
// created fresh per cycle and never mutated afterwards.
type UpdateResult struct {
	Timestamp      time.Time `json:"timestamp"`
	CurrentPrice   float64   `json:"current_price"`
	CurrentATH     float64   `json:"current_ath"`
	DollarFromATH  float64   `json:"dollar_from_ath"`
	PercentOfATH   float64   `json:"percent_of_ath"`
	PercentileRank float64   `json:"percentile_rank"`
	TotalDays      int       `json:"total_days"`
	Summary        Snapshot  `json:"summary"`
	Source         string    `json:"source"`
}
