package application

import (
	"context"
	"log/slog"
	"time"
)

// scheduledRefreshKind is the operation kind of scheduler-started refreshes.
const scheduledRefreshKind = "refresh_all_scheduled"

// RefreshScheduler periodically refreshes every saved account through the
// Runner, so scheduled passes show up as ordinary operations. A tick that
// arrives while the previous pass is still running is skipped.
type RefreshScheduler struct {
	svc      *AccountService
	runner   *Runner
	interval time.Duration
}

// NewRefreshScheduler creates a scheduler running a bulk refresh every interval.
func NewRefreshScheduler(svc *AccountService, runner *Runner, interval time.Duration) *RefreshScheduler {
	return &RefreshScheduler{
		svc:      svc,
		runner:   runner,
		interval: interval,
	}
}

// Start runs the refresh loop until ctx is canceled. The first pass runs
// after one interval, not immediately.
func (s *RefreshScheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var inFlight *Operation
	for {
		select {
		case <-ctx.Done():
			slog.Info("refresh scheduler stopped")
			return
		case <-ticker.C:
			if inFlight != nil && !isDone(inFlight) {
				slog.Debug("scheduled refresh skipped, previous pass still running", "operation", inFlight.ID())
				continue
			}
			inFlight = s.runner.Submit(ctx, scheduledRefreshKind, func(ctx context.Context) (any, error) {
				report, err := s.svc.RefreshAll(ctx)
				if err != nil {
					return nil, err
				}
				// The result is served by the operations API and the event stream.
				return report.Masked(), nil
			})
			slog.Info("scheduled refresh started", "operation", inFlight.ID(), "interval", s.interval)
		}
	}
}
