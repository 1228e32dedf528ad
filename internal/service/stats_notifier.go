package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/noah-isme/sheetchart-api/internal/dto"
	"github.com/noah-isme/sheetchart-api/internal/middleware"
	"github.com/noah-isme/sheetchart-api/internal/observability"
)

// Sources that trigger a stats publish.
const (
	StatsSourceUserUpdate  = "user_update"
	StatsSourceUserDelete  = "user_delete"
	StatsSourceUserRole    = "user_role"
	StatsSourceUserStatus  = "user_status"
	StatsSourceFileDelete  = "file_delete"
	StatsSourceChartDelete = "chart_delete"
	StatsSourceUpload      = "upload"
	StatsSourceChartSave   = "chart_save"
	StatsSourceDayRollover = "day_rollover"
)

// StatsNotifier recomputes the dashboard counters after a committed mutation
// and pushes them to the admin room. It never returns an error: the mutation
// it follows has already succeeded.
type StatsNotifier interface {
	Notify(ctx context.Context, source string)
}

type statsNotifier struct {
	stats    StatsService
	realtime RealtimeService
	logger   zerolog.Logger
}

// NewStatsNotifier constructs the mutation hook.
func NewStatsNotifier(stats StatsService, realtime RealtimeService, logger zerolog.Logger) StatsNotifier {
	return &statsNotifier{
		stats:    stats,
		realtime: realtime,
		logger:   logger.With().Str("component", "stats_notifier").Logger(),
	}
}

func (n *statsNotifier) Notify(ctx context.Context, source string) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := n.logger.With().
		Str("source", source).
		Str("correlation_id", middleware.CorrelationIDFromContext(ctx)).
		Logger()

	snapshot, err := n.stats.Snapshot(ctx)
	if err != nil {
		observability.StatsPublishTotal().WithLabelValues(source, "compute_error").Inc()
		logger.Error().Err(err).Msg("skipping stats publish")
		return
	}

	if err := n.realtime.Publish(ctx, dto.EventStatsUpdate, dto.StatsUpdatePayload{Data: snapshot}); err != nil {
		observability.StatsPublishTotal().WithLabelValues(source, "publish_error").Inc()
		logger.Warn().Err(err).Msg("failed to fan out stats update")
		return
	}

	observability.StatsPublishTotal().WithLabelValues(source, "ok").Inc()
	logger.Debug().Interface("snapshot", snapshot).Msg("stats update published")
}
