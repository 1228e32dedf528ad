package handler_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sheetchart-api/internal/config"
	"github.com/noah-isme/sheetchart-api/internal/dto"
	"github.com/noah-isme/sheetchart-api/internal/handler"
	"github.com/noah-isme/sheetchart-api/internal/middleware"
	"github.com/noah-isme/sheetchart-api/internal/router"
	"github.com/noah-isme/sheetchart-api/internal/service"
)

type stubUploadService struct {
	err        error
	lastUserID uint
	lastName   string
}

func (s *stubUploadService) Upload(_ context.Context, userID uint, file *multipart.FileHeader) (dto.UploadResponse, error) {
	s.lastUserID = userID
	if file != nil {
		s.lastName = file.Filename
	}
	if s.err != nil {
		return dto.UploadResponse{}, s.err
	}
	return dto.UploadResponse{ID: 11, Filename: s.lastName, Message: "File uploaded successfully"}, nil
}

type stubDatasetService struct {
	getErr error
}

func (s *stubDatasetService) SaveChartMeta(context.Context, uint, dto.ChartMetaRequest) (dto.ChartMetaResponse, error) {
	return dto.ChartMetaResponse{}, nil
}

func (s *stubDatasetService) Dashboard(context.Context, uint) (dto.UserDashboardResponse, error) {
	return dto.UserDashboardResponse{TotalFiles: 1}, nil
}

func (s *stubDatasetService) List(context.Context) ([]dto.DatasetSummary, error) {
	return []dto.DatasetSummary{{ID: 1, Filename: "sales.xlsx"}}, nil
}

func (s *stubDatasetService) Get(context.Context, uint, uint) (dto.DatasetResponse, error) {
	return dto.DatasetResponse{}, s.getErr
}

func setupDataApp(t *testing.T, uploads *stubUploadService, datasets *stubDatasetService) *fiber.App {
	t.Helper()
	logger := zerolog.New(io.Discard)
	app := fiber.New()
	router.Register(app, config.Config{AppName: "test", AdminRateLimit: 1000, AdminRateWindow: time.Minute}, router.Dependencies{
		DataHandler:   handler.NewDataHandler(uploads, datasets, logger),
		JWTMiddleware: middleware.JWTProtected(handlerTestSecret),
	})
	return app
}

func uploadRequest(t *testing.T, token string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "sales.xlsx")
	require.NoError(t, err)
	_, err = part.Write([]byte("workbook"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/data/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestDataHandlerPublicListAndProtectedRoutes(t *testing.T) {
	app := setupDataApp(t, &stubUploadService{}, &stubDatasetService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/data", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/data/dashboard", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/data/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+signHandlerToken(t, 4, "user"))
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestDataHandlerUploadCreated(t *testing.T) {
	uploads := &stubUploadService{}
	app := setupDataApp(t, uploads, &stubDatasetService{})

	resp, err := app.Test(uploadRequest(t, signHandlerToken(t, 4, "user")), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, uint(4), uploads.lastUserID)
	require.Equal(t, "sales.xlsx", uploads.lastName)

	var body struct {
		Success bool               `json:"success"`
		Data    dto.UploadResponse `json:"data"`
	}
	decodeJSON(t, resp, &body)
	require.True(t, body.Success)
	require.Equal(t, uint(11), body.Data.ID)
}

func TestDataHandlerUploadErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{name: "too large", err: service.ErrUploadTooLarge, status: fiber.StatusRequestEntityTooLarge},
		{name: "wrong type", err: service.ErrUploadTypeNotAllowed, status: fiber.StatusBadRequest},
		{name: "unreadable", err: service.ErrSpreadsheetUnreadable, status: fiber.StatusBadRequest},
		{name: "scan", err: service.ErrUploadScanFailed, status: fiber.StatusBadRequest},
		{name: "storage", err: errors.New("disk full"), status: fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := setupDataApp(t, &stubUploadService{err: tc.err}, &stubDatasetService{})
			resp, err := app.Test(uploadRequest(t, signHandlerToken(t, 4, "user")), -1)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestDataHandlerUploadMissingFile(t *testing.T) {
	app := setupDataApp(t, &stubUploadService{}, &stubDatasetService{})

	req := httptest.NewRequest(http.MethodPost, "/api/data/upload", nil)
	req.Header.Set("Authorization", "Bearer "+signHandlerToken(t, 4, "user"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestDataHandlerGetNotFound(t *testing.T) {
	app := setupDataApp(t, &stubUploadService{}, &stubDatasetService{getErr: service.ErrDatasetNotFound})

	req := httptest.NewRequest(http.MethodGet, "/api/data/9", nil)
	req.Header.Set("Authorization", "Bearer "+signHandlerToken(t, 4, "user"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
