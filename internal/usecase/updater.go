package usecase

import (
	"context"
	"sync"
	"time"

	"HodlWatch/internal/domain/models"
	domrepo "HodlWatch/internal/domain/repository"
	"HodlWatch/internal/services/analytics"
	"HodlWatch/pkg/logger"
)

// Updater runs the full orchestration cycle: reconcile the series, annotate
// it, quote the spot price and place it within the historical distribution.
// The last successful result is cached and served while it is younger than
// the configured window, so dashboard polling does not hammer the sources.
type Updater struct {
	reconciler *Reconciler
	engine     *analytics.Engine
	spot       domrepo.SpotSource
	publisher  domrepo.EventPublisher
	metrics    domrepo.Metrics
	log        *logger.Logger
	window     time.Duration
	now        func() time.Time

	// cycleMu serializes cycles; mu guards only the cached state, so reads
	// never wait on in-flight network I/O.
	cycleMu    sync.Mutex
	mu         sync.RWMutex
	lastResult *models.UpdateResult
	lastAt     time.Time
	annotated  models.ATHSeries
}

type UpdaterOption func(*Updater)

func WithUpdaterNow(now func() time.Time) UpdaterOption {
	return func(u *Updater) { u.now = now }
}

func NewUpdater(
	reconciler *Reconciler,
	engine *analytics.Engine,
	spot domrepo.SpotSource,
	publisher domrepo.EventPublisher,
	metrics domrepo.Metrics,
	log *logger.Logger,
	window time.Duration,
	opts ...UpdaterOption,
) *Updater {
	u := &Updater{
		reconciler: reconciler,
		engine:     engine,
		spot:       spot,
		publisher:  publisher,
		metrics:    metrics,
		log:        log,
		window:     window,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// GetUpdate returns the cached result while it is within the validity
// window, otherwise runs a fresh cycle.
func (u *Updater) GetUpdate(ctx context.Context) (models.UpdateResult, error) {
	u.mu.RLock()
	if u.lastResult != nil && u.now().Sub(u.lastAt) < u.window {
		cached := *u.lastResult
		u.mu.RUnlock()
		return cached, nil
	}
	u.mu.RUnlock()
	return u.RunCycle(ctx, false)
}

// RunCycle executes one orchestration cycle. Cycles are serialized; a failed
// cycle leaves the previous cached result in place. Cached reads are served
// concurrently while a cycle is in flight.
func (u *Updater) RunCycle(ctx context.Context, force bool) (models.UpdateResult, error) {
	u.cycleMu.Lock()
	defer u.cycleMu.Unlock()

	start := u.now()
	result, annotated, err := u.runCycle(ctx, force)
	elapsed := u.now().Sub(start).Seconds()
	if err != nil {
		u.metrics.RecordCycle("error", elapsed)
		u.log.Error("update cycle failed", logger.Error(err))
		return models.UpdateResult{}, err
	}
	u.metrics.RecordCycle("ok", elapsed)
	u.metrics.RecordStanding(result.CurrentPrice, result.PercentOfATH, result.PercentileRank)

	u.mu.Lock()
	u.lastResult = &result
	u.lastAt = u.now()
	u.annotated = annotated
	u.mu.Unlock()

	if perr := u.publisher.PublishUpdate(ctx, result); perr != nil {
		u.log.Warn("update event publish failed", logger.Error(perr))
	}

	u.log.Info("update cycle completed",
		logger.Float64("price", result.CurrentPrice),
		logger.Float64("percent_of_ath", result.PercentOfATH),
		logger.Float64("percentile", result.PercentileRank),
		logger.String("source", result.Source))
	return result, nil
}

func (u *Updater) runCycle(ctx context.Context, force bool) (models.UpdateResult, models.ATHSeries, error) {
	series, err := u.reconciler.Refresh(ctx, force)
	if err != nil {
		return models.UpdateResult{}, nil, err
	}

	annotated, err := u.engine.ComputeATHSeries(series)
	if err != nil {
		return models.UpdateResult{}, nil, err
	}

	quote, err := u.spot.FetchSpot(ctx)
	if err != nil {
		return models.UpdateResult{}, nil, err
	}

	summary, err := u.engine.Analyze(annotated)
	if err != nil {
		return models.UpdateResult{}, nil, err
	}

	currentATH := annotated.CurrentATH()
	percent := quote.Price / currentATH * 100
	rank := u.engine.PercentileRank(annotated.Percentages(), percent)

	result := models.UpdateResult{
		Timestamp:      u.now().UTC(),
		CurrentPrice:   quote.Price,
		CurrentATH:     currentATH,
		DollarFromATH:  currentATH - quote.Price,
		PercentOfATH:   percent,
		PercentileRank: rank,
		TotalDays:      len(annotated),
		Summary:        summary,
		Source:         quote.Source,
	}
	return result, annotated, nil
}

// Annotated returns the ATH series from the most recent successful cycle.
func (u *Updater) Annotated() (models.ATHSeries, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if len(u.annotated) == 0 {
		return nil, &models.PreconditionError{Op: "annotated series"}
	}
	return u.annotated, nil
}

// LastResult returns the cached Update Result, if any cycle has succeeded.
func (u *Updater) LastResult() (models.UpdateResult, time.Time, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.lastResult == nil {
		return models.UpdateResult{}, time.Time{}, false
	}
	return *u.lastResult, u.lastAt, true
}

// Close releases the event publisher.
func (u *Updater) Close() error {
	return u.publisher.Close()
}
