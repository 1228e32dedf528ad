package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sheetchart-api/internal/dto"
	"github.com/noah-isme/sheetchart-api/internal/observability"
	"github.com/noah-isme/sheetchart-api/internal/repository"
)

// StatsService computes the admin dashboard counters.
type StatsService interface {
	Snapshot(ctx context.Context) (dto.StatsSnapshot, error)
	LegacyLogStats(ctx context.Context) (dto.LegacyLogStatsResponse, error)
	Location() *time.Location
}

type statsService struct {
	repo     repository.StatsRepository
	location *time.Location
	now      func() time.Time
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// NewStatsService constructs the stats service. Days are bucketed in location.
func NewStatsService(repo repository.StatsRepository, location *time.Location, logger zerolog.Logger) StatsService {
	return newStatsService(repo, location, time.Now, logger)
}

func newStatsService(repo repository.StatsRepository, location *time.Location, now func() time.Time, logger zerolog.Logger) *statsService {
	if location == nil {
		location = time.Local
	}
	if now == nil {
		now = time.Now
	}

	return &statsService{
		repo:     repo,
		location: location,
		now:      now,
		logger:   logger.With().Str("component", "stats_service").Logger(),
		tracer:   otel.Tracer("github.com/noah-isme/sheetchart-api/internal/service/stats"),
	}
}

func (s *statsService) Location() *time.Location {
	return s.location
}

func (s *statsService) Snapshot(ctx context.Context) (dto.StatsSnapshot, error) {
	since := StartOfDay(s.now(), s.location)

	ctx, span := s.tracer.Start(ctx, "stats.snapshot", trace.WithAttributes(
		attribute.String("stats.since", since.Format(time.RFC3339)),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		observability.StatsComputeSeconds().Observe(time.Since(start).Seconds())
	}()

	var snapshot dto.StatsSnapshot
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() (err error) {
		snapshot.Users, err = s.repo.CountUsers(groupCtx)
		return err
	})
	group.Go(func() (err error) {
		snapshot.Files, err = s.repo.CountDatasets(groupCtx)
		return err
	})
	group.Go(func() (err error) {
		snapshot.Charts, err = s.repo.CountCharts(groupCtx)
		return err
	})
	group.Go(func() (err error) {
		snapshot.Logs, err = s.repo.CountLogs(groupCtx)
		return err
	})
	group.Go(func() (err error) {
		snapshot.TodaysUploads, err = s.repo.CountDatasetsSince(groupCtx, since)
		return err
	})
	group.Go(func() (err error) {
		snapshot.TodaysLogs, err = s.repo.CountLogsSince(groupCtx, since)
		return err
	})

	if err := group.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count failed")
		s.logger.Error().Err(err).Msg("failed to compute stats snapshot")
		return dto.StatsSnapshot{}, err
	}

	if !snapshot.Consistent() {
		// A mutation raced between the counts; the next snapshot corrects it.
		s.logger.Debug().Interface("snapshot", snapshot).Msg("stats snapshot observed a concurrent mutation")
	}

	return snapshot, nil
}

func (s *statsService) LegacyLogStats(ctx context.Context) (dto.LegacyLogStatsResponse, error) {
	since := StartOfDay(s.now(), s.location)

	var response dto.LegacyLogStatsResponse
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() (err error) {
		response.TodayLogs, err = s.repo.CountLogsSince(groupCtx, since)
		return err
	})
	group.Go(func() (err error) {
		response.TotalLogs, err = s.repo.CountLogs(groupCtx)
		return err
	})
	group.Go(func() (err error) {
		response.TodayUploads, err = s.repo.CountUploadsSince(groupCtx, since)
		return err
	})
	group.Go(func() (err error) {
		response.TotalUploads, err = s.repo.CountUploads(groupCtx)
		return err
	})

	if err := group.Wait(); err != nil {
		s.logger.Error().Err(err).Msg("failed to compute log stats")
		return dto.LegacyLogStatsResponse{}, err
	}

	return response, nil
}

// StartOfDay returns midnight of t's calendar day in location.
func StartOfDay(t time.Time, location *time.Location) time.Time {
	if location == nil {
		location = time.Local
	}
	local := t.In(location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, location)
}
