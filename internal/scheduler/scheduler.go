package scheduler

import (
	"context"
	"fmt"
	"time"

	"HodlWatch/internal/usecase"
	"HodlWatch/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the background refresh cycle on a cron spec so the served
// result stays warm between dashboard requests.
type Scheduler struct {
	cron         *cron.Cron
	updater      *usecase.Updater
	log          *logger.Logger
	cycleTimeout time.Duration
}

func New(updater *usecase.Updater, log *logger.Logger, cycleTimeout time.Duration) *Scheduler {
	return &Scheduler{
		cron:         cron.New(cron.WithSeconds()),
		updater:      updater,
		log:          log,
		cycleTimeout: cycleTimeout,
	}
}

// Register adds the refresh entry. Expressions use the six-field cron form
// with a leading seconds column.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.refresh); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start launches the cron loop and runs one cycle immediately so the first
// dashboard request does not pay the warm-up cost.
func (s *Scheduler) Start() {
	go s.refresh()
	s.cron.Start()
	s.log.Info("scheduler started")
}

// Stop halts the cron loop and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cycleTimeout)
	defer cancel()

	if _, err := s.updater.RunCycle(ctx, false); err != nil {
		s.log.Error("scheduled refresh failed", logger.Error(err))
	}
}
