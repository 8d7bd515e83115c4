package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"HodlWatch/internal/domain/models"
	domrepo "HodlWatch/internal/domain/repository"
	"HodlWatch/pkg/logger"
	"HodlWatch/pkg/util"
)

// Reconciler keeps the persisted canonical series aligned with its sources.
// Cold start backfills the entire history from the bulk source; afterwards
// only the tail gap since the last stored day is fetched incrementally.
//
// Incremental failures never discard the stored series. Serving data that is
// a day stale beats crashing.
type Reconciler struct {
	store       domrepo.SeriesStore
	bulk        domrepo.CandleSource
	incremental domrepo.CandleSource
	inception   time.Time
	log         *logger.Logger
	metrics     domrepo.Metrics
	now         func() time.Time
}

type ReconcilerOption func(*Reconciler)

// WithReconcilerNow injects the clock used for the day-boundary decisions.
func WithReconcilerNow(now func() time.Time) ReconcilerOption {
	return func(r *Reconciler) { r.now = now }
}

func NewReconciler(
	store domrepo.SeriesStore,
	bulk, incremental domrepo.CandleSource,
	inception time.Time,
	log *logger.Logger,
	metrics domrepo.Metrics,
	opts ...ReconcilerOption,
) *Reconciler {
	r := &Reconciler{
		store:       store,
		bulk:        bulk,
		incremental: incremental,
		inception:   util.Day(inception),
		log:         log,
		metrics:     metrics,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Refresh returns the up-to-date canonical series, fetching only what the
// stored copy is missing. force bypasses the stored series and rebuilds from
// the bulk source; the old blob is only overwritten once the rebuild
// succeeds, so a failed rebuild leaves the stored history intact.
func (r *Reconciler) Refresh(ctx context.Context, force bool) (models.Series, error) {
	today := util.Day(r.now())

	if force {
		return r.coldStart(ctx, today)
	}

	stored, err := r.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, domrepo.ErrNotFound) {
			return nil, fmt.Errorf("load stored series: %w", err)
		}
		return r.coldStart(ctx, today)
	}

	last, ok := stored.Last()
	if !ok {
		// An empty persisted blob is treated the same as a missing one.
		return r.coldStart(ctx, today)
	}

	// Fresh through yesterday means there is no closed day left to fetch.
	if !util.Day(last.Date).Before(util.PrevDay(today)) {
		return stored, nil
	}

	gapStart := util.NextDay(last.Date)
	batch, err := r.incremental.FetchRange(ctx, gapStart, today)
	if err != nil {
		r.metrics.RecordSourceError(r.incremental.Name(), sourceErrorKind(err))
		r.log.Warn("incremental fetch failed, serving stored series",
			logger.String("source", r.incremental.Name()),
			logger.Time("last_stored", last.Date),
			logger.Error(err))
		return stored, nil
	}
	if len(batch) == 0 {
		r.log.Warn("incremental fetch returned nothing, serving stored series",
			logger.Time("last_stored", last.Date))
		return stored, nil
	}
	r.metrics.RecordRowsFetched(r.incremental.Name(), len(batch))

	merged := stored.Merge(batch)
	return r.finalize(ctx, merged, today)
}

func (r *Reconciler) coldStart(ctx context.Context, today time.Time) (models.Series, error) {
	r.log.Info("no stored series, backfilling from bulk source",
		logger.String("source", r.bulk.Name()),
		logger.Time("inception", r.inception))

	series, err := r.bulk.FetchRange(ctx, r.inception, today)
	if err != nil {
		return nil, &models.ColdStartError{Err: err}
	}
	if len(series) == 0 {
		return nil, &models.ColdStartError{Err: errors.New("bulk source returned no rows")}
	}
	r.metrics.RecordRowsFetched(r.bulk.Name(), len(series))

	out, err := r.finalize(ctx, series, today)
	if err != nil {
		return nil, &models.ColdStartError{Err: err}
	}
	return out, nil
}

// finalize runs the validation gate and persists. A row dated today or later
// is an in-progress candle and is dropped, never stored.
func (r *Reconciler) finalize(ctx context.Context, series models.Series, today time.Time) (models.Series, error) {
	clipped, dropped := series.ClipBefore(today)
	if dropped > 0 {
		r.metrics.RecordDroppedRows(dropped)
		r.log.Warn("dropped rows at or past the current day",
			logger.Int("dropped", dropped),
			logger.Time("today", today))
	}
	if len(clipped) == 0 {
		return nil, errors.New("no fully-closed rows to persist")
	}
	if err := clipped.CheckInvariants(); err != nil {
		return nil, err
	}
	if err := r.store.Save(ctx, clipped); err != nil {
		return nil, fmt.Errorf("save series: %w", err)
	}

	first, _ := clipped.First()
	last, _ := clipped.Last()
	r.log.Info("canonical series persisted",
		logger.Int("rows", len(clipped)),
		logger.Time("first", first.Date),
		logger.Time("last", last.Date))
	return clipped, nil
}

func sourceErrorKind(err error) string {
	if models.IsSchema(err) {
		return "schema"
	}
	return "transient"
}
