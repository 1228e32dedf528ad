package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sheetchart-api/internal/dto"
	"github.com/noah-isme/sheetchart-api/internal/service"
	"github.com/noah-isme/sheetchart-api/internal/utils"
)

// AdminActivityHandler exposes the user activity log.
type AdminActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewAdminActivityHandler constructs the handler.
func NewAdminActivityHandler(service service.ActivityService, logger zerolog.Logger) *AdminActivityHandler {
	return &AdminActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_activity_handler").Logger(),
	}
}

// Register attaches the log listing route.
func (h *AdminActivityHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *AdminActivityHandler) list(c *fiber.Ctx) error {
	page, err := parsePageRequest(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid pagination")
	}
	userID, err := parseQueryUint(c, "userId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid userId")
	}

	response, err := h.service.List(requestContext(c), dto.UserLogListRequest{PageRequest: page, UserID: userID})
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to fetch user logs")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch user logs")
	}

	return c.JSON(response)
}
