// Package sweep drives periodic eviction of inactive participants,
// independent of any request.
package sweep

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mateusfaissal/batepapo-api/internal/metrics"
	"github.com/mateusfaissal/batepapo-api/internal/presence"
)

// DefaultInterval is the default cadence between sweep passes. Worst-case
// staleness is one interval plus the presence timeout.
const DefaultInterval = 15 * time.Second

// Scheduler invokes the presence tracker's eviction pass at a fixed cadence.
// Passes run inline on a single goroutine, so they are serialized: a tick
// that fires mid-sweep is simply consumed late (or dropped by the ticker)
// and two sweeps never overlap.
type Scheduler struct {
	tracker  *presence.Tracker
	interval time.Duration
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewScheduler creates a scheduler sweeping every interval with the given
// presence timeout.
func NewScheduler(tracker *presence.Tracker, interval, timeout time.Duration, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		tracker:  tracker,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
	}
}

// Run sweeps until ctx is cancelled. It blocks; callers start it on its own
// goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.sweep(ctx, now)
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context, now time.Time) {
	start := time.Now()

	evicted, failed, err := s.tracker.SweepExpired(ctx, now, s.timeout)

	metrics.SweepsTotal.Inc()
	metrics.SweepDuration.Observe(time.Since(start).Seconds())
	metrics.SweepFailures.Add(float64(failed))
	metrics.ParticipantsEvicted.Add(float64(evicted))

	if err != nil {
		s.logger.Error().Err(err).Msg("sweep pass failed")
		return
	}
	if evicted > 0 || failed > 0 {
		s.logger.Info().
			Int("evicted", evicted).
			Int("failed", failed).
			Dur("took", time.Since(start)).
			Msg("sweep completed")
	}
}
