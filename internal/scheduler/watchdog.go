package scheduler

import (
	"context"

	"github.com/couchcryptid/climate-sim-service/internal/domain"
)

// watchdog periodically fails running jobs older than the job timeout.
func (s *Scheduler) watchdog(ctx context.Context) {
	ticker := domain.Clock().NewTicker(s.cfg.WatchdogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.sweep(ctx)
		}
	}
}

// sweep fails every running simulation created before now minus the job
// timeout. It returns the number of simulations it failed.
func (s *Scheduler) sweep(ctx context.Context) int {
	cutoff := domain.Now().Add(-s.cfg.JobTimeout)
	stale, err := s.deps.Simulations.ListRunningBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("watchdog list running simulations failed", "error", err)
		return 0
	}

	failed := 0
	for _, sim := range stale {
		if s.fail(ctx, sim, domain.ReasonDeadlineExceeded, "deadline") {
			failed++
			s.logger.Warn("watchdog failed overdue simulation", "simulation_id", sim.ID, "created_at", sim.CreatedAt)
		}
	}
	return failed
}
