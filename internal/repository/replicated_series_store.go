package repository

import (
	"context"
	"errors"

	"HodlWatch/internal/domain/models"
	domrepo "HodlWatch/internal/domain/repository"
	"HodlWatch/pkg/logger"
)

// ReplicatedSeriesStore fronts a durable store with a local replica. Reads
// prefer the durable side; when it is transiently unreadable the local copy
// is served and re-uploaded on the next successful read, so the fallback
// self-heals instead of becoming permanent.
type ReplicatedSeriesStore struct {
	durable domrepo.SeriesStore
	local   domrepo.SeriesStore
	log     *logger.Logger
}

// NewReplicatedSeriesStore composes a durable primary and a local replica.
func NewReplicatedSeriesStore(durable, local domrepo.SeriesStore, log *logger.Logger) *ReplicatedSeriesStore {
	return &ReplicatedSeriesStore{durable: durable, local: local, log: log}
}

func (s *ReplicatedSeriesStore) Exists(ctx context.Context) (bool, error) {
	ok, err := s.durable.Exists(ctx)
	if err == nil {
		return ok, nil
	}
	s.log.Warn("durable store unreadable, checking local replica", logger.Error(err))
	return s.local.Exists(ctx)
}

func (s *ReplicatedSeriesStore) Load(ctx context.Context) (models.Series, error) {
	series, err := s.durable.Load(ctx)
	if err == nil {
		return series, nil
	}
	if errors.Is(err, domrepo.ErrNotFound) {
		return nil, err
	}

	s.log.Warn("durable store load failed, falling back to local replica", logger.Error(err))
	series, lerr := s.local.Load(ctx)
	if lerr != nil {
		// Neither side readable; the durable error is the primary cause.
		return nil, err
	}

	// Opportunistic re-upload so the durable side converges again.
	if uerr := s.durable.Save(ctx, series); uerr != nil {
		s.log.Warn("replica re-upload failed", logger.Error(uerr))
	} else {
		s.log.Info("durable store healed from local replica", logger.Int("rows", len(series)))
	}
	return series, nil
}

func (s *ReplicatedSeriesStore) Save(ctx context.Context, series models.Series) error {
	if err := s.durable.Save(ctx, series); err != nil {
		return err
	}
	if err := s.local.Save(ctx, series); err != nil {
		s.log.Warn("local replica save failed", logger.Error(err))
	}
	return nil
}

func (s *ReplicatedSeriesStore) Delete(ctx context.Context) error {
	if err := s.durable.Delete(ctx); err != nil {
		return err
	}
	if err := s.local.Delete(ctx); err != nil {
		s.log.Warn("local replica delete failed", logger.Error(err))
	}
	return nil
}

var _ domrepo.SeriesStore = (*ReplicatedSeriesStore)(nil)
