package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// CycleRunner is one unit of scheduled work. Satisfied by scrape.Feed.
type CycleRunner interface {
	RunCycle(ctx context.Context) error
}

// ScrapeScheduler runs scrape cycles on a fixed interval. A failed cycle is
// logged; the next scheduled cycle proceeds normally.
type ScrapeScheduler struct {
	runner   CycleRunner
	interval time.Duration
	logger   *slog.Logger
	stopChan chan struct{}
}

// NewScrapeScheduler creates a scheduler for the given runner.
func NewScrapeScheduler(runner CycleRunner, interval time.Duration, logger *slog.Logger) *ScrapeScheduler {
	return &ScrapeScheduler{
		runner:   runner,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start begins the scheduler loop. It blocks until Stop is called or the
// context is cancelled.
func (s *ScrapeScheduler) Start(ctx context.Context) {
	s.logger.Info("starting scrape scheduler", "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run once immediately on start.
	s.runOnce(ctx)

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx)
		case <-s.stopChan:
			s.logger.Info("scrape scheduler stopped")
			return
		case <-ctx.Done():
			s.logger.Info("scrape scheduler stopping due to context cancellation")
			return
		}
	}
}

// Stop stops the scheduler.
func (s *ScrapeScheduler) Stop() {
	close(s.stopChan)
}

func (s *ScrapeScheduler) runOnce(ctx context.Context) {
	if err := s.runner.RunCycle(ctx); err != nil {
		s.logger.Error("scrape cycle failed", "error", err)
	}
}
