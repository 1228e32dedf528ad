package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func roleApp(tokenRole string, guard fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(7))
		c.Locals("user_role", tokenRole)
		return c.Next()
	})
	app.Use(guard)
	app.Get("/admin", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func statusOf(t *testing.T, app *fiber.App) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.NoError(t, err)
	return resp.StatusCode
}

func TestRequireRoleChecksTokenRole(t *testing.T) {
	require.Equal(t, fiber.StatusOK, statusOf(t, roleApp("Admin", RequireRole("admin"))))
	require.Equal(t, fiber.StatusForbidden, statusOf(t, roleApp("user", RequireRole("admin"))))
	require.Equal(t, fiber.StatusForbidden, statusOf(t, roleApp("", RequireRole("admin"))))
}

func TestRequireStoredRoleRechecksStore(t *testing.T) {
	stored := map[uint]string{7: "admin"}
	lookup := func(_ context.Context, id uint) (string, error) {
		return stored[id], nil
	}

	require.Equal(t, fiber.StatusOK, statusOf(t, roleApp("admin", RequireStoredRole(lookup, "admin"))))

	stored[7] = "user"
	require.Equal(t, fiber.StatusForbidden, statusOf(t, roleApp("admin", RequireStoredRole(lookup, "admin"))))

	delete(stored, 7)
	require.Equal(t, fiber.StatusForbidden, statusOf(t, roleApp("admin", RequireStoredRole(lookup, "admin"))))

	failing := func(context.Context, uint) (string, error) { return "", errors.New("db down") }
	require.Equal(t, fiber.StatusInternalServerError, statusOf(t, roleApp("admin", RequireStoredRole(failing, "admin"))))
}
