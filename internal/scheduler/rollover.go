// Package scheduler runs the periodic jobs of the API process.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sheetchart-api/internal/service"
)

const (
	rolloverJobName = "stats-day-rollover"
	rolloverTimeout = 30 * time.Second
)

// Rollover republishes the stats snapshot at midnight so the "today" counters
// reset on open dashboards without waiting for the next mutation.
type Rollover struct {
	scheduler gocron.Scheduler
	job       gocron.Job
	logger    zerolog.Logger
}

// NewRollover schedules the daily publish at 00:00:00 in location.
func NewRollover(notifier service.StatsNotifier, location *time.Location, clock clockwork.Clock, logger zerolog.Logger) (*Rollover, error) {
	if location == nil {
		location = time.Local
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	s, err := gocron.NewScheduler(
		gocron.WithLocation(location),
		gocron.WithClock(clock),
	)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	log := logger.With().Str("component", "stats_rollover").Logger()

	job, err := s.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 0, 0))),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), rolloverTimeout)
			defer cancel()
			log.Info().Msg("publishing stats at day rollover")
			notifier.Notify(ctx, service.StatsSourceDayRollover)
		}),
		gocron.WithName(rolloverJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("schedule rollover: %w", err)
	}

	return &Rollover{scheduler: s, job: job, logger: log}, nil
}

// Start begins scheduling.
func (r *Rollover) Start() {
	r.logger.Info().Msg("starting stats rollover scheduler")
	r.scheduler.Start()
}

// NextRun reports when the rollover publish fires next.
func (r *Rollover) NextRun() (time.Time, error) {
	return r.job.NextRun()
}

// RunNow triggers the publish immediately.
func (r *Rollover) RunNow() error {
	return r.job.RunNow()
}

// Shutdown stops the scheduler and waits for a running publish to finish.
func (r *Rollover) Shutdown() error {
	r.logger.Info().Msg("stopping stats rollover scheduler")
	return r.scheduler.Shutdown()
}
