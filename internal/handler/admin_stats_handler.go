package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sheetchart-api/internal/service"
	"github.com/noah-isme/sheetchart-api/internal/utils"
)

// AdminStatsHandler serves the dashboard counters.
type AdminStatsHandler struct {
	service service.StatsService
	timeout time.Duration
	logger  zerolog.Logger
}

// NewAdminStatsHandler constructs the handler. A non-positive timeout disables the deadline.
func NewAdminStatsHandler(service service.StatsService, timeout time.Duration, logger zerolog.Logger) *AdminStatsHandler {
	return &AdminStatsHandler{
		service: service,
		timeout: timeout,
		logger:  logger.With().Str("component", "admin_stats_handler").Logger(),
	}
}

// Register attaches the stats routes.
func (h *AdminStatsHandler) Register(router fiber.Router) {
	router.Get("/stats", h.snapshot)
	router.Get("/logs/stats", h.logStats)
}

// StatsTimezoneHeader names the zone whose calendar day bounds the "today" counters.
const StatsTimezoneHeader = "X-Stats-Timezone"

// snapshot returns the bare counters object the dashboard merges wholesale.
func (h *AdminStatsHandler) snapshot(c *fiber.Ctx) error {
	ctx, cancel := h.withTimeout(c)
	defer cancel()

	snapshot, err := h.service.Snapshot(ctx)
	if err != nil {
		return h.fail(c, err, "failed to fetch admin stats")
	}

	if location := h.service.Location(); location != nil {
		c.Set(StatsTimezoneHeader, location.String())
	}
	return c.Status(fiber.StatusOK).JSON(snapshot)
}

func (h *AdminStatsHandler) logStats(c *fiber.Ctx) error {
	ctx, cancel := h.withTimeout(c)
	defer cancel()

	stats, err := h.service.LegacyLogStats(ctx)
	if err != nil {
		return h.fail(c, err, "failed to fetch log stats")
	}

	return utils.SendSuccess(c, "log stats retrieved", stats)
}

func (h *AdminStatsHandler) withTimeout(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	ctx := requestContext(c)
	if h.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.timeout)
}

func (h *AdminStatsHandler) fail(c *fiber.Ctx, err error, message string) error {
	requestLogger(h.logger, c).Error().Err(err).Msg(message)
	if errors.Is(err, context.DeadlineExceeded) {
		return utils.SendError(c, fiber.StatusServiceUnavailable, "stats computation timed out")
	}
	return utils.SendError(c, fiber.StatusInternalServerError, message)
}
