package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/sheetchart-api/internal/config"
	"github.com/noah-isme/sheetchart-api/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	Service       string    `json:"service"`
	Environment   string    `json:"environment"`
	StatsTimezone string    `json:"statsTimezone,omitempty"`
}

// HealthCheck reports liveness plus the zone used for "today" counters, which
// dashboards need to interpret todaysUploads and todaysLogs.
func HealthCheck(cfg config.Config) fiber.Handler {
	timezone := ""
	if cfg.StatsLocation != nil {
		timezone = cfg.StatsLocation.String()
	}

	return func(c *fiber.Ctx) error {
		return utils.SendSuccess(c, "service healthy", HealthResponse{
			Status:        "ok",
			Timestamp:     time.Now().UTC(),
			Service:       cfg.AppName,
			Environment:   cfg.AppEnv,
			StatsTimezone: timezone,
		})
	}
}
