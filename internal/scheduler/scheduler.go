package scheduler

import (
	"context"
	"time"

	"github.com/bookline/service-booking/internal/application"
	"github.com/bookline/service-booking/internal/clock"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// sweepTimeout bounds one no-show sweep pass.
const sweepTimeout = 5 * time.Minute

// Scheduler runs the periodic no-show sweep on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	noShows  *application.NoShowService
	clk      clock.Clock
	schedule string
	logger   *zap.Logger
}

// NewScheduler creates a Scheduler that sweeps on the given cron expression.
func NewScheduler(noShows *application.NoShowService, clk clock.Clock, schedule string, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		noShows:  noShows,
		clk:      clk,
		schedule: schedule,
		logger:   logger,
	}
}

// Start registers the sweep job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runSweep); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("no-show sweep scheduled", zap.String("schedule", s.schedule))
	return nil
}

// Stop stops the cron loop; the returned context is done when any running
// sweep has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	result, err := s.noShows.ProcessBatch(ctx, s.clk.Now())
	if err != nil {
		s.logger.Error("no-show sweep failed", zap.Error(err))
		return
	}

	if result.TotalFound > 0 {
		s.logger.Info("no-show sweep pass finished",
			zap.Int("found", result.TotalFound),
			zap.Int("processed", result.TotalProcessed),
			zap.Int("failed", result.TotalFailed),
		)
	}
}
