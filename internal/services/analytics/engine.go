package analytics

import (
	"math"
	"sort"

	"HodlWatch/internal/domain/models"
	"HodlWatch/pkg/util"
)

const histogramBins = 50

// Engine derives the all-time-high annotation of a canonical series and the
// statistics over its percent-of-ATH column. It is stateless; callers hold
// the annotated series and pass it back for queries.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// ComputeATHSeries annotates every row with the running record context.
//
// The record for a day is the maximum High over all strictly earlier days,
// with the first day seeded by its own High. A day whose High reaches or
// beats that record is a record day; percent-of-ATH exceeds 100 exactly when
// the record is beaten.
func (e *Engine) ComputeATHSeries(series models.Series) (models.ATHSeries, error) {
	if len(series) == 0 {
		return nil, &models.PreconditionError{Op: "compute ath series"}
	}

	out := make(models.ATHSeries, len(series))
	running := series[0].High
	lastRecord := series[0].Date
	for i, row := range series {
		ath := running
		isATH := row.High >= ath
		if isATH {
			lastRecord = row.Date
		}
		out[i] = models.ATHRow{
			PriceRow:     row,
			ATH:          ath,
			PercentOfATH: row.High / ath * 100,
			IsATH:        isATH,
			DaysSinceATH: util.DaysBetween(lastRecord, row.Date),
		}
		if row.High > running {
			running = row.High
		}
	}
	return out, nil
}

// PercentileRank returns the rank of v within values on a 0..100 scale,
// counting ties as half a position. The maximum of the series always ranks
// exactly 100.
func (e *Engine) PercentileRank(values []float64, v float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	left, right := 0, 0
	for _, x := range values {
		if x < v {
			left++
		}
		if x <= v {
			right++
		}
	}
	ties := 0
	if right > left {
		ties = 1
	}
	return float64(left+right+ties) * 50.0 / float64(n)
}

// Analyze summarizes the percent-of-ATH distribution.
func (e *Engine) Analyze(series models.ATHSeries) (models.Snapshot, error) {
	if len(series) == 0 {
		return models.Snapshot{}, &models.PreconditionError{Op: "analyze distribution"}
	}

	values := series.Percentages()
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mean := meanOf(values)
	atATH, aboveATH := 0, 0
	for _, v := range values {
		switch {
		case v == 100:
			atATH++
		case v > 100:
			aboveATH++
		}
	}

	return models.Snapshot{
		Mean:   mean,
		Median: quantile(sorted, 0.5),
		Std:    sampleStd(values, mean),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Quantiles: models.Quantiles{
			P10: quantile(sorted, 0.10),
			P25: quantile(sorted, 0.25),
			P75: quantile(sorted, 0.75),
			P90: quantile(sorted, 0.90),
			P95: quantile(sorted, 0.95),
			P99: quantile(sorted, 0.99),
		},
		DaysAtATH:        atATH,
		DaysAboveATH:     aboveATH,
		DaysAtOrAboveATH: atATH + aboveATH,
		TotalDays:        len(values),
	}, nil
}

// Distribution builds the full distribution payload: a fixed-bin histogram
// over [0, max], the empirical at-or-below curve and volatility bands.
func (e *Engine) Distribution(series models.ATHSeries) (models.Distribution, error) {
	snap, err := e.Analyze(series)
	if err != nil {
		return models.Distribution{}, err
	}

	values := series.Percentages()
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	hist := histogram(values, snap.Max)

	n := len(sorted)
	atOrBelow := make([]float64, n)
	for i := range sorted {
		atOrBelow[i] = float64(i+1) / float64(n) * 100
	}

	cv := 0.0
	if snap.Mean > 0 {
		cv = snap.Std / snap.Mean * 100
	}

	return models.Distribution{
		Snapshot:   snap,
		Histogram:  hist,
		Cumulative: models.Cumulative{Percentages: sorted, AtOrBelow: atOrBelow},
		Bands: models.VolatilityBands{
			MeanMinus2Std: math.Max(0, snap.Mean-2*snap.Std),
			MeanMinus1Std: math.Max(0, snap.Mean-snap.Std),
			MeanPlus1Std:  math.Min(100, snap.Mean+snap.Std),
			MeanPlus2Std:  math.Min(100, snap.Mean+2*snap.Std),
		},
		CoefficientOfVariation: cv,
	}, nil
}

// RankExtremes returns the k lowest and k highest percent-of-ATH days with
// their dollar distance from the record, plus the above-record counts and
// the most recent record-beating days.
func (e *Engine) RankExtremes(series models.ATHSeries, k int) (models.Extremes, error) {
	if len(series) == 0 {
		return models.Extremes{}, &models.PreconditionError{Op: "rank extremes"}
	}
	if k > len(series) {
		k = len(series)
	}

	byPercent := append(models.ATHSeries(nil), series...)
	sort.SliceStable(byPercent, func(i, j int) bool {
		return byPercent[i].PercentOfATH < byPercent[j].PercentOfATH
	})

	hardest := make([]models.ExtremeDay, 0, k)
	for _, row := range byPercent[:k] {
		hardest = append(hardest, extreme(row))
	}
	easiest := make([]models.ExtremeDay, 0, k)
	for i := len(byPercent) - 1; i >= len(byPercent)-k; i-- {
		easiest = append(easiest, extreme(byPercent[i]))
	}

	var above []models.ExtremeDay
	for _, row := range series {
		if row.PercentOfATH > 100 {
			above = append(above, extreme(row))
		}
	}
	recent := above
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}

	return models.Extremes{
		Hardest:         hardest,
		Easiest:         easiest,
		AboveATHCount:   len(above),
		AboveATHPercent: float64(len(above)) / float64(len(series)) * 100,
		TotalDays:       len(series),
		RecentAboveATH:  recent,
		FirstDate:       series[0].Date,
	}, nil
}

func extreme(row models.ATHRow) models.ExtremeDay {
	day := models.ExtremeDay{
		Date:         row.Date,
		Price:        row.High,
		ATHAtTime:    row.ATH,
		PercentOfATH: row.PercentOfATH,
	}
	if row.PercentOfATH > 100 {
		day.DollarExcess = row.High - row.ATH
	} else {
		day.DollarGap = row.ATH - row.High
	}
	return day
}

func histogram(values []float64, max float64) models.Histogram {
	if max <= 0 {
		return models.Histogram{}
	}
	width := max / histogramBins
	counts := make([]int, histogramBins)
	for _, v := range values {
		idx := int(v / width)
		if idx >= histogramBins {
			idx = histogramBins - 1
		}
		if idx < 0 {
			idx = 0
		}
		counts[idx]++
	}
	bins := make([]float64, histogramBins)
	for i := range bins {
		bins[i] = width * (float64(i) + 0.5)
	}
	return models.Histogram{Bins: bins, Counts: counts}
}

func meanOf(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStd is the n-1 standard deviation, zero for a single observation.
func sampleStd(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	ss := 0.0
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

// quantile interpolates linearly between the two nearest order statistics.
// Input must be sorted.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
