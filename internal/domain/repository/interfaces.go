package repository

import (
	"context"
	"errors"
	"time"

	"HodlWatch/internal/domain/models"
)

// ErrNotFound is returned by SeriesStore.Load when no blob has been persisted.
var ErrNotFound = errors.New("series store: not found")

// SeriesStore owns the single durable copy of the canonical series.
// Save fully replaces the prior blob; readers see either the old blob or the
// new one, never a torn mix.
type SeriesStore interface {
	Exists(ctx context.Context) (bool, error)
	Load(ctx context.Context) (models.Series, error)
	Save(ctx context.Context, s models.Series) error
	Delete(ctx context.Context) error
}

// CandleSource fetches daily OHLC rows for a closed date range.
// Failures are distinguishable as transient (models.TransientSourceError)
// or schema (models.SchemaError).
type CandleSource interface {
	Name() string
	FetchRange(ctx context.Context, start, end time.Time) (models.Series, error)
}

// SpotSource fetches a current spot quote.
type SpotSource interface {
	Name() string
	FetchSpot(ctx context.Context) (models.SpotQuote, error)
}

// EventPublisher emits the Update Result of a successful cycle to downstream
// consumers. Publishing failures are logged, never fatal to the cycle.
type EventPublisher interface {
	PublishUpdate(ctx context.Context, result models.UpdateResult) error
	Close() error
}

// Metrics records operational telemetry for refresh cycles and sources.
type Metrics interface {
	RecordCycle(outcome string, seconds float64)
	RecordSourceError(source, kind string)
	RecordRowsFetched(source string, n int)
	RecordDroppedRows(n int)
	RecordStanding(price, percentOfATH, percentile float64)
}
