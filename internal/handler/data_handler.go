package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sheetchart-api/internal/dto"
	"github.com/noah-isme/sheetchart-api/internal/service"
	"github.com/noah-isme/sheetchart-api/internal/utils"
)

// DataHandler serves spreadsheet uploads, chart metadata and the user dashboard.
type DataHandler struct {
	uploads  service.UploadService
	datasets service.DatasetService
	logger   zerolog.Logger
}

// NewDataHandler constructs a data handler.
func NewDataHandler(uploads service.UploadService, datasets service.DatasetService, logger zerolog.Logger) *DataHandler {
	return &DataHandler{
		uploads:  uploads,
		datasets: datasets,
		logger:   logger.With().Str("component", "data_handler").Logger(),
	}
}

// Register wires the data routes. Only the dataset listing is public; auth guards the rest.
func (h *DataHandler) Register(router fiber.Router, auth fiber.Handler) {
	router.Get("", h.list)
	router.Post("/upload", auth, h.upload)
	router.Post("/chart-meta", auth, h.saveChartMeta)
	router.Get("/dashboard", auth, h.dashboard)
	router.Get("/:id", auth, h.get)
}

func (h *DataHandler) upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, service.ErrUploadMissing.Error())
	}

	result, err := h.uploads.Upload(requestContext(c), userIDFromContext(c), file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUploadTooLarge):
			return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
		case errors.Is(err, service.ErrUploadMissing),
			errors.Is(err, service.ErrUploadTypeNotAllowed),
			errors.Is(err, service.ErrUploadScanFailed),
			errors.Is(err, service.ErrSpreadsheetUnreadable):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("upload failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "upload failed")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "file uploaded successfully", result)
}

func (h *DataHandler) saveChartMeta(c *fiber.Ctx) error {
	var payload dto.ChartMetaRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.datasets.SaveChartMeta(requestContext(c), userIDFromContext(c), payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(err))
		case errors.Is(err, service.ErrDatasetNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "dataset not found")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to save chart metadata")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to save chart metadata")
		}
	}

	return utils.SendSuccess(c, "chart metadata saved", result)
}

func (h *DataHandler) dashboard(c *fiber.Ctx) error {
	result, err := h.datasets.Dashboard(requestContext(c), userIDFromContext(c))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load dashboard")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load dashboard")
	}

	return utils.SendSuccess(c, "dashboard retrieved", result)
}

func (h *DataHandler) list(c *fiber.Ctx) error {
	result, err := h.datasets.List(requestContext(c))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list datasets")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch datasets")
	}

	return utils.SendSuccess(c, "datasets retrieved", result)
}

func (h *DataHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	result, err := h.datasets.Get(requestContext(c), id, userIDFromContext(c))
	if err != nil {
		if errors.Is(err, service.ErrDatasetNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "dataset not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to fetch dataset")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch dataset")
	}

	return utils.SendSuccess(c, "dataset retrieved", result)
}
