package handler_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sheetchart-api/internal/dto"
	"github.com/noah-isme/sheetchart-api/internal/handler"
	"github.com/noah-isme/sheetchart-api/internal/service"
)

type stubAdminUserService struct {
	err        error
	lastStatus string
	deleted    uint
}

func (s *stubAdminUserService) List(context.Context) ([]dto.UserResponse, error) {
	return []dto.UserResponse{{ID: 1, Name: "Ada"}}, s.err
}

func (s *stubAdminUserService) Update(_ context.Context, id uint, _ dto.AdminUserUpdateRequest) (dto.UserResponse, error) {
	return dto.UserResponse{ID: id}, s.err
}

func (s *stubAdminUserService) Delete(_ context.Context, id uint) error {
	s.deleted = id
	return s.err
}

func (s *stubAdminUserService) UpdateRole(_ context.Context, id uint, _ dto.AdminUserRoleRequest) (dto.UserResponse, error) {
	return dto.UserResponse{ID: id}, s.err
}

func (s *stubAdminUserService) UpdateStatus(_ context.Context, id uint, request dto.AdminUserStatusRequest) (dto.UserResponse, error) {
	s.lastStatus = request.Status
	return dto.UserResponse{ID: id, Status: request.Status}, s.err
}

func setupAdminUserApp(svc service.AdminUserService) *fiber.App {
	app := fiber.New()
	handler.NewAdminUserHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/admin/users"))
	return app
}

func TestAdminUserHandlerStatusAndDelete(t *testing.T) {
	svc := &stubAdminUserService{}
	app := setupAdminUserApp(svc)

	req := httptest.NewRequest(http.MethodPatch, "/api/admin/users/5/status", strings.NewReader(`{"status":"suspended"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "suspended", svc.lastStatus)

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/api/admin/users/5", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(5), svc.deleted)

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/api/admin/users/abc", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAdminUserHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{name: "missing", err: service.ErrUserNotFound, status: fiber.StatusNotFound},
		{name: "bad status", err: service.ErrInvalidUserStatus, status: fiber.StatusBadRequest},
		{name: "empty update", err: service.ErrNothingToUpdate, status: fiber.StatusBadRequest},
		{name: "generic", err: errors.New("boom"), status: fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := setupAdminUserApp(&stubAdminUserService{err: tc.err})
			req := httptest.NewRequest(http.MethodPut, "/api/admin/users/3", strings.NewReader(`{"name":"Ada"}`))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestAdminUserHandlerListIncludesCount(t *testing.T) {
	app := setupAdminUserApp(&stubAdminUserService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/admin/users", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Success bool               `json:"success"`
		Data    []dto.UserResponse `json:"data"`
		Meta    map[string]int     `json:"meta"`
	}
	decodeJSON(t, resp, &body)
	require.True(t, body.Success)
	require.Len(t, body.Data, 1)
	require.Equal(t, 1, body.Meta["count"])
}
