package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/richard-senior/matchboard/internal/logger"
)

// Scheduler periodically runs AutoUpdate so the data never gets older
// than MaxAge by more than one interval
type Scheduler struct {
	sched gocron.Scheduler
}

// StartScheduler checks freshness immediately and then every interval.
// Runs never overlap; a check that comes due while one is running is
// rescheduled. ctx bounds every refresh the scheduler starts.
func (s *State) StartScheduler(ctx context.Context, interval time.Duration) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				return
			}
			if _, err := s.AutoUpdate(ctx, false); err != nil {
				logger.Warn("Scheduled refresh failed:", err)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		sched.Shutdown()
		return nil, fmt.Errorf("failed to schedule refresh job: %w", err)
	}
	sched.Start()
	logger.Info("Refresh scheduler started, interval", interval)
	return &Scheduler{sched: sched}, nil
}

// Stop waits for a running refresh to finish and stops the scheduler
func (sc *Scheduler) Stop() error {
	return sc.sched.Shutdown()
}
