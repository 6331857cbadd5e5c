package jobs

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the snapshot job on a cron schedule. Runs share a context
// that Stop cancels.
type Scheduler struct {
	cron        *cron.Cron
	snapshotter *Snapshotter
	logger      *slog.Logger
	windowDays  int

	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(snapshotter *Snapshotter, logger *slog.Logger, windowDays int) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:        c,
		snapshotter: snapshotter,
		logger:      logger,
		windowDays:  windowDays,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start registers the nightly job under schedule and starts the scheduler.
func (s *Scheduler) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, s.run)
	if err != nil {
		s.logger.Error("failed to schedule insight snapshot job", "error", err)
		return err
	}
	s.logger.Info("scheduled insight snapshot job", "schedule", schedule)
	s.cron.Start()
	return nil
}

func (s *Scheduler) run() {
	s.snapshotter.RunNightly(s.ctx, s.windowDays)
}

// Stop halts the scheduler and cancels a running job; the returned context
// is done once that job has returned.
func (s *Scheduler) Stop() context.Context {
	s.cancel()
	return s.cron.Stop()
}
