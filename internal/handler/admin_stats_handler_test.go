package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sheetchart-api/internal/config"
	"github.com/noah-isme/sheetchart-api/internal/dto"
	"github.com/noah-isme/sheetchart-api/internal/handler"
	"github.com/noah-isme/sheetchart-api/internal/middleware"
	"github.com/noah-isme/sheetchart-api/internal/router"
)

const handlerTestSecret = "handler-secret"

type stubStatsService struct {
	snapshot dto.StatsSnapshot
	legacy   dto.LegacyLogStatsResponse
	err      error
	delay    time.Duration
	location *time.Location
}

func (s *stubStatsService) Snapshot(ctx context.Context) (dto.StatsSnapshot, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return dto.StatsSnapshot{}, ctx.Err()
		}
	}
	return s.snapshot, s.err
}

func (s *stubStatsService) LegacyLogStats(context.Context) (dto.LegacyLogStatsResponse, error) {
	return s.legacy, s.err
}

func (s *stubStatsService) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	return time.UTC
}

func signHandlerToken(t *testing.T, id uint, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   id,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(handlerTestSecret))
	require.NoError(t, err)
	return signed
}

func decodeJSON(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, target))
}

func setupStatsApp(t *testing.T, stats *stubStatsService, timeout time.Duration) *fiber.App {
	t.Helper()
	logger := zerolog.New(io.Discard)
	app := fiber.New()
	cfg := config.Config{AppName: "test", AdminRateLimit: 1000, AdminRateWindow: time.Minute}
	router.Register(app, cfg, router.Dependencies{
		AdminStatsHandler: handler.NewAdminStatsHandler(stats, timeout, logger),
		JWTMiddleware:     middleware.JWTProtected(handlerTestSecret),
	})
	return app
}

func TestAdminStatsRequiresAdmin(t *testing.T) {
	app := setupStatsApp(t, &stubStatsService{}, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+signHandlerToken(t, 2, "user"))
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestAdminStatsReturnsBareSnapshot(t *testing.T) {
	want := dto.StatsSnapshot{Users: 3, Files: 2, Charts: 1, Logs: 5, TodaysUploads: 2, TodaysLogs: 4}
	app := setupStatsApp(t, &stubStatsService{snapshot: want}, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+signHandlerToken(t, 1, "admin"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	decodeJSON(t, resp, &body)
	require.Len(t, body, 6)
	require.NotContains(t, body, "success")
	require.EqualValues(t, 3, body["users"])
	require.EqualValues(t, 2, body["files"])
	require.EqualValues(t, 1, body["charts"])
	require.EqualValues(t, 5, body["logs"])
	require.EqualValues(t, 2, body["todaysUploads"])
	require.EqualValues(t, 4, body["todaysLogs"])
}

func TestAdminStatsReportsTimezone(t *testing.T) {
	app := setupStatsApp(t, &stubStatsService{location: time.FixedZone("WIB", 7*60*60)}, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+signHandlerToken(t, 1, "admin"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "WIB", resp.Header.Get(handler.StatsTimezoneHeader))
}

func TestAdminStatsErrors(t *testing.T) {
	app := setupStatsApp(t, &stubStatsService{err: errors.New("db down")}, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+signHandlerToken(t, 1, "admin"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	slow := setupStatsApp(t, &stubStatsService{delay: time.Second}, 20*time.Millisecond)
	req = httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+signHandlerToken(t, 1, "admin"))
	resp, err = slow.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestAdminLogStatsEnvelope(t *testing.T) {
	stats := &stubStatsService{legacy: dto.LegacyLogStatsResponse{TodayLogs: 1, TotalLogs: 9, TodayUploads: 1, TotalUploads: 4}}
	app := setupStatsApp(t, stats, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/logs/stats", nil)
	req.Header.Set("Authorization", "Bearer "+signHandlerToken(t, 1, "admin"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Success bool                       `json:"success"`
		Data    dto.LegacyLogStatsResponse `json:"data"`
	}
	decodeJSON(t, resp, &body)
	require.True(t, body.Success)
	require.Equal(t, stats.legacy, body.Data)
}
