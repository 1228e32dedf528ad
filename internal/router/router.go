package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/sheetchart-api/internal/config"
	"github.com/noah-isme/sheetchart-api/internal/handler"
	"github.com/noah-isme/sheetchart-api/internal/middleware"
	"github.com/noah-isme/sheetchart-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AdminStatsHandler    *handler.AdminStatsHandler
	AdminUserHandler     *handler.AdminUserHandler
	AdminContentHandler  *handler.AdminContentHandler
	AdminActivityHandler *handler.AdminActivityHandler
	DataHandler          *handler.DataHandler
	RealtimeHandler      *handler.RealtimeHandler
	JWTMiddleware        fiber.Handler
	OptionalJWT          fiber.Handler
	RoleLookup           middleware.RoleLookup
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	optionalJWT := deps.OptionalJWT
	if optionalJWT == nil {
		optionalJWT = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Admin panel
	admin := api.Group("/admin",
		jwtMiddleware,
		middleware.RequireStoredRole(deps.RoleLookup, "admin"),
		middleware.RateLimit("admin", cfg.AdminRateLimit, cfg.AdminRateWindow),
	)
	if deps.AdminStatsHandler != nil {
		deps.AdminStatsHandler.Register(admin)
	}
	if deps.AdminUserHandler != nil {
		deps.AdminUserHandler.Register(admin.Group("/users"))
	}
	if deps.AdminContentHandler != nil {
		deps.AdminContentHandler.RegisterFiles(admin.Group("/files"))
		deps.AdminContentHandler.RegisterCharts(admin.Group("/charts"))
	}
	if deps.AdminActivityHandler != nil {
		deps.AdminActivityHandler.Register(admin.Group("/logs"))
	}

	// Uploads and charts
	if deps.DataHandler != nil {
		deps.DataHandler.Register(api.Group("/data"), jwtMiddleware)
	}

	// Push channel
	if deps.RealtimeHandler != nil {
		deps.RealtimeHandler.Register(api.Group("/realtime", optionalJWT))
	}
}
