package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain/repository.Metrics using Prometheus.
type Recorder struct {
	cyclesTotal   *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	sourceErrors  *prometheus.CounterVec
	rowsFetched   *prometheus.CounterVec
	droppedRows   prometheus.Counter
	spotPrice     prometheus.Gauge
	percentOfATH  prometheus.Gauge
	percentile    prometheus.Gauge
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		cyclesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hodlwatch_cycles_total",
				Help: "Total refresh cycles by outcome",
			},
			[]string{"outcome"},
		),
		cycleDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hodlwatch_cycle_duration_seconds",
				Help:    "Duration of refresh cycles in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		sourceErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hodlwatch_source_errors_total",
				Help: "Price source failures by source and kind",
			},
			[]string{"source", "kind"},
		),
		rowsFetched: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hodlwatch_rows_fetched_total",
				Help: "OHLC rows fetched per source",
			},
			[]string{"source"},
		),
		droppedRows: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "hodlwatch_rows_dropped_total",
				Help: "Rows dropped by the future-date validation gate",
			},
		),
		spotPrice: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "hodlwatch_spot_price_usd",
				Help: "Last observed spot price",
			},
		),
		percentOfATH: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "hodlwatch_percent_of_ath",
				Help: "Current spot price as a percent of the all-time high",
			},
		),
		percentile: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "hodlwatch_percentile_rank",
				Help: "Percentile rank of the current percent-of-ATH within history",
			},
		),
	}
}

// RecordCycle records a completed refresh cycle.
func (r *Recorder) RecordCycle(outcome string, seconds float64) {
	r.cyclesTotal.WithLabelValues(outcome).Inc()
	r.cycleDuration.Observe(seconds)
}

// RecordSourceError records a price source failure.
func (r *Recorder) RecordSourceError(source, kind string) {
	r.sourceErrors.WithLabelValues(source, kind).Inc()
}

// RecordRowsFetched records OHLC rows fetched from a source.
func (r *Recorder) RecordRowsFetched(source string, n int) {
	r.rowsFetched.WithLabelValues(source).Add(float64(n))
}

// RecordDroppedRows records rows removed by the validation gate.
func (r *Recorder) RecordDroppedRows(n int) {
	r.droppedRows.Add(float64(n))
}

// RecordStanding records the latest spot standing gauges.
func (r *Recorder) RecordStanding(price, percentOfATH, percentile float64) {
	r.spotPrice.Set(price)
	r.percentOfATH.Set(percentOfATH)
	r.percentile.Set(percentile)
}
