// Package scheduler runs periodic renewal check passes.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/subgarden/subgarden/internal/renewals"
)

// CheckRunner executes one renewal check pass.
type CheckRunner interface {
	RunPass(ctx context.Context) (*renewals.PassSummary, error)
}

// Scheduler triggers a check pass on a fixed interval. The first pass
// runs immediately on start.
type Scheduler struct {
	checker  CheckRunner
	interval time.Duration
	logger   *slog.Logger
}

// New creates a scheduler.
func New(checker CheckRunner, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{checker: checker, interval: interval, logger: logger}
}

// Start runs the loop until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("check scheduler started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce(ctx)

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx)
		case <-ctx.Done():
			s.logger.Info("check scheduler stopped")
			return
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	started := time.Now()
	summary, err := s.checker.RunPass(ctx)
	if err != nil {
		s.logger.Error("check pass failed", "error", err)
		return
	}
	s.logger.Info("check pass completed",
		"evaluated", summary.Evaluated,
		"rolled_over", summary.RolledOver,
		"due", summary.Due,
		"duration_ms", time.Since(started).Milliseconds(),
	)
}
