package analytics

import (
	"math"
	"testing"
	"time"

	"HodlWatch/internal/domain/models"
)

func seriesFromHighs(t *testing.T, highs ...float64) models.Series {
	t.Helper()
	start, err := time.Parse("2006-01-02", "2024-01-01")
	if err != nil {
		t.Fatal(err)
	}
	out := make(models.Series, len(highs))
	for i, h := range highs {
		out[i] = models.PriceRow{
			Date:  start.AddDate(0, 0, i),
			Open:  h * 0.95,
			High:  h,
			Low:   h * 0.9,
			Close: h * 0.97,
		}
	}
	return out
}

func approx(t *testing.T, got, want, tol float64, name string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func TestComputeATHSeriesShiftByOne(t *testing.T) {
	engine := NewEngine()
	ath, err := engine.ComputeATHSeries(seriesFromHighs(t, 100, 90, 110))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	wantATH := []float64{100, 100, 100}
	wantPct := []float64{100, 90, 110}
	wantIs := []bool{true, false, true}
	wantDays := []int{0, 1, 0}
	for i, row := range ath {
		if row.ATH != wantATH[i] {
			t.Fatalf("row %d ath = %v, want %v", i, row.ATH, wantATH[i])
		}
		approx(t, row.PercentOfATH, wantPct[i], 1e-9, "percent")
		if row.IsATH != wantIs[i] {
			t.Fatalf("row %d is_ath = %v", i, row.IsATH)
		}
		if row.DaysSinceATH != wantDays[i] {
			t.Fatalf("row %d days_since = %d, want %d", i, row.DaysSinceATH, wantDays[i])
		}
	}
}

func TestComputeATHSeriesRecordCarriesForward(t *testing.T) {
	engine := NewEngine()
	ath, err := engine.ComputeATHSeries(seriesFromHighs(t, 100, 120, 80, 90))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	// Day two beats the record, so days three and four measure from it.
	if ath[1].ATH != 100 || !ath[1].IsATH {
		t.Fatalf("day 2: %+v", ath[1])
	}
	if ath[2].ATH != 120 || ath[2].IsATH || ath[2].DaysSinceATH != 1 {
		t.Fatalf("day 3: %+v", ath[2])
	}
	if ath[3].DaysSinceATH != 2 {
		t.Fatalf("day 4 days_since = %d, want 2", ath[3].DaysSinceATH)
	}
	approx(t, ath[2].PercentOfATH, 80.0/120*100, 1e-9, "day 3 percent")
}

func TestComputeATHSeriesEmpty(t *testing.T) {
	engine := NewEngine()
	if _, err := engine.ComputeATHSeries(nil); !models.IsPrecondition(err) {
		t.Fatalf("expected precondition error, got %v", err)
	}
}

func TestCurrentATHIncludesLastDay(t *testing.T) {
	engine := NewEngine()
	ath, err := engine.ComputeATHSeries(seriesFromHighs(t, 100, 110))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	// The last row's own High is the live record even though its ATH column
	// still reflects the prior record.
	if got := ath.CurrentATH(); got != 110 {
		t.Fatalf("current ath = %v, want 110", got)
	}
}

func TestPercentileRank(t *testing.T) {
	engine := NewEngine()
	values := []float64{60, 70, 80, 90, 100}

	approx(t, engine.PercentileRank(values, 100), 100, 1e-9, "rank of max")
	approx(t, engine.PercentileRank(values, 60), 20, 1e-9, "rank of min")
	approx(t, engine.PercentileRank(values, 80), 60, 1e-9, "rank of middle")
	// Below every observation.
	approx(t, engine.PercentileRank(values, 10), 0, 1e-9, "rank below all")
	// Between observations, no ties.
	approx(t, engine.PercentileRank(values, 85), 60, 1e-9, "rank between")
}

func TestPercentileRankTies(t *testing.T) {
	engine := NewEngine()
	values := []float64{50, 80, 80, 80, 100}
	// left=1, right=4: (1+4+1)*50/5 = 60.
	approx(t, engine.PercentileRank(values, 80), 60, 1e-9, "tied rank")
}

func TestPercentileRankMonotonic(t *testing.T) {
	engine := NewEngine()
	values := []float64{40, 55, 55, 70, 85, 85, 85, 100}
	prev := -1.0
	for v := 0.0; v <= 110; v += 0.5 {
		r := engine.PercentileRank(values, v)
		if r < prev {
			t.Fatalf("rank decreased at %v: %v < %v", v, r, prev)
		}
		prev = r
	}
}

func TestAnalyzeSnapshot(t *testing.T) {
	engine := NewEngine()
	ath, err := engine.ComputeATHSeries(seriesFromHighs(t, 100, 90, 110, 99))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	snap, err := engine.Analyze(ath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	// Percent column: 100, 90, 110, 90 (99/110*100).
	approx(t, snap.Min, 90, 1e-9, "min")
	approx(t, snap.Max, 110, 1e-9, "max")
	if snap.DaysAtATH != 1 {
		t.Fatalf("days_at_ath = %d, want 1", snap.DaysAtATH)
	}
	if snap.DaysAboveATH != 1 {
		t.Fatalf("days_above_ath = %d, want 1", snap.DaysAboveATH)
	}
	if snap.DaysAtOrAboveATH != 2 {
		t.Fatalf("days_at_or_above = %d", snap.DaysAtOrAboveATH)
	}
	if snap.TotalDays != 4 {
		t.Fatalf("total_days = %d", snap.TotalDays)
	}

	pct := []float64{100, 90, 110, 99.0 / 110 * 100}
	mean := (pct[0] + pct[1] + pct[2] + pct[3]) / 4
	approx(t, snap.Mean, mean, 1e-9, "mean")
	if snap.Std <= 0 {
		t.Fatalf("std = %v, want positive", snap.Std)
	}
}

func TestAnalyzeSingleDay(t *testing.T) {
	engine := NewEngine()
	ath, _ := engine.ComputeATHSeries(seriesFromHighs(t, 100))
	snap, err := engine.Analyze(ath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if snap.Std != 0 {
		t.Fatalf("single-day std = %v, want 0", snap.Std)
	}
	approx(t, snap.Median, 100, 1e-9, "median")
	approx(t, snap.Quantiles.P99, 100, 1e-9, "p99")
}

func TestQuantileInterpolation(t *testing.T) {
	sorted := []float64{10, 20, 30, 40}
	approx(t, quantile(sorted, 0.5), 25, 1e-9, "median")
	approx(t, quantile(sorted, 0.25), 17.5, 1e-9, "p25")
	approx(t, quantile(sorted, 0), 10, 1e-9, "p0")
	approx(t, quantile(sorted, 1), 40, 1e-9, "p100")
}

func TestDistributionPayload(t *testing.T) {
	engine := NewEngine()
	ath, _ := engine.ComputeATHSeries(seriesFromHighs(t, 100, 90, 110, 99, 105))
	dist, err := engine.Distribution(ath)
	if err != nil {
		t.Fatalf("distribution: %v", err)
	}

	if len(dist.Histogram.Bins) != 50 || len(dist.Histogram.Counts) != 50 {
		t.Fatalf("histogram shape %d/%d", len(dist.Histogram.Bins), len(dist.Histogram.Counts))
	}
	total := 0
	for _, c := range dist.Histogram.Counts {
		total += c
	}
	if total != 5 {
		t.Fatalf("histogram counts sum to %d, want 5", total)
	}
	// Bin centers span (0, max).
	width := dist.Snapshot.Max / 50
	approx(t, dist.Histogram.Bins[0], width/2, 1e-9, "first bin center")
	approx(t, dist.Histogram.Bins[49], dist.Snapshot.Max-width/2, 1e-9, "last bin center")

	// Cumulative curve ends at 100 and is sorted.
	n := len(dist.Cumulative.Percentages)
	if n != 5 {
		t.Fatalf("cumulative length %d", n)
	}
	approx(t, dist.Cumulative.AtOrBelow[n-1], 100, 1e-9, "cumulative end")
	for i := 1; i < n; i++ {
		if dist.Cumulative.Percentages[i] < dist.Cumulative.Percentages[i-1] {
			t.Fatal("cumulative percentages not sorted")
		}
	}

	// Bands clamp to [0, 100].
	if dist.Bands.MeanMinus2Std < 0 || dist.Bands.MeanPlus2Std > 100 {
		t.Fatalf("bands out of range: %+v", dist.Bands)
	}
	if dist.CoefficientOfVariation <= 0 {
		t.Fatalf("cv = %v", dist.CoefficientOfVariation)
	}
}

func TestRankExtremes(t *testing.T) {
	engine := NewEngine()
	ath, _ := engine.ComputeATHSeries(seriesFromHighs(t, 100, 50, 110, 80, 120))
	// Percent column: 100, 50, 110, 72.7..., 109.09...
	ext, err := engine.RankExtremes(ath, 2)
	if err != nil {
		t.Fatalf("extremes: %v", err)
	}

	if len(ext.Hardest) != 2 || len(ext.Easiest) != 2 {
		t.Fatalf("lengths %d/%d", len(ext.Hardest), len(ext.Easiest))
	}
	if ext.Hardest[0].Price != 50 {
		t.Fatalf("hardest day price = %v, want 50", ext.Hardest[0].Price)
	}
	approx(t, ext.Hardest[0].DollarGap, 50, 1e-9, "hardest dollar gap")
	if ext.Hardest[0].DollarExcess != 0 {
		t.Fatal("below-record day should have no excess")
	}

	if ext.Easiest[0].PercentOfATH <= ext.Easiest[1].PercentOfATH {
		t.Fatal("easiest days not in descending order")
	}
	// Day three beats a 100 record at 110: ten dollars of excess.
	approx(t, ext.Easiest[0].DollarExcess, 10, 1e-9, "easiest dollar excess")

	if ext.AboveATHCount != 2 {
		t.Fatalf("above count = %d, want 2", ext.AboveATHCount)
	}
	approx(t, ext.AboveATHPercent, 40, 1e-9, "above share")
	if len(ext.RecentAboveATH) != 2 {
		t.Fatalf("recent above = %d", len(ext.RecentAboveATH))
	}
	if !ext.FirstDate.Equal(ath[0].Date) {
		t.Fatal("first date mismatch")
	}
	if ext.TotalDays != 5 {
		t.Fatalf("total days = %d", ext.TotalDays)
	}
}

func TestRankExtremesKLargerThanSeries(t *testing.T) {
	engine := NewEngine()
	ath, _ := engine.ComputeATHSeries(seriesFromHighs(t, 100, 90))
	ext, err := engine.RankExtremes(ath, 10)
	if err != nil {
		t.Fatalf("extremes: %v", err)
	}
	if len(ext.Hardest) != 2 || len(ext.Easiest) != 2 {
		t.Fatalf("expected clamp to series length, got %d/%d", len(ext.Hardest), len(ext.Easiest))
	}
}
