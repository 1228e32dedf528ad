package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sheetchart-api/internal/middleware"
	"github.com/noah-isme/sheetchart-api/internal/service"
)

// RealtimeHandler upgrades dashboard clients onto the push channel.
type RealtimeHandler struct {
	service service.RealtimeService
	logger  zerolog.Logger
}

// NewRealtimeHandler creates a realtime handler instance.
func NewRealtimeHandler(service service.RealtimeService, logger zerolog.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		service: service,
		logger:  logger.With().Str("component", "realtime_handler").Logger(),
	}
}

// Register binds the websocket route. Authentication is optional at upgrade
// time; an unauthenticated connection can connect but never joins the admin room.
func (h *RealtimeHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		c.Locals("request_ctx", requestContext(c))
		c.Locals("correlation_id", middleware.GetCorrelationID(c))
		return c.Next()
	})

	router.Get("/ws", websocket.New(h.handleConnection))
}

func (h *RealtimeHandler) handleConnection(conn *websocket.Conn) {
	opts := service.RealtimeConnectionOptions{}
	if id, ok := conn.Locals("user_id").(uint); ok {
		opts.UserID = id
	}
	if role, ok := conn.Locals("user_role").(string); ok {
		opts.Role = role
	}
	if correlation, ok := conn.Locals("correlation_id").(string); ok {
		opts.CorrelationID = correlation
	}
	if ctx, ok := conn.Locals("request_ctx").(context.Context); ok {
		opts.Context = ctx
	}

	h.logger.Info().Uint("user_id", opts.UserID).Str("correlation_id", opts.CorrelationID).Msg("realtime websocket connected")
	h.service.ServeConnection(conn, opts)
	h.logger.Info().Uint("user_id", opts.UserID).Str("correlation_id", opts.CorrelationID).Msg("realtime websocket disconnected")
}
