package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sheetchart-api/internal/dto"
	"github.com/noah-isme/sheetchart-api/internal/service"
	"github.com/noah-isme/sheetchart-api/internal/utils"
)

// AdminContentHandler wires admin file and chart endpoints.
type AdminContentHandler struct {
	service service.AdminContentService
	logger  zerolog.Logger
}

// NewAdminContentHandler constructs the handler.
func NewAdminContentHandler(service service.AdminContentService, logger zerolog.Logger) *AdminContentHandler {
	return &AdminContentHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_content_handler").Logger(),
	}
}

// RegisterFiles attaches file routes.
func (h *AdminContentHandler) RegisterFiles(router fiber.Router) {
	router.Get("", h.listFiles)
	router.Get("/history", h.fileHistory)
	router.Get("/:id/download", h.download)
	router.Delete("/:id", h.deleteFile)
}

// RegisterCharts attaches chart routes.
func (h *AdminContentHandler) RegisterCharts(router fiber.Router) {
	router.Get("", h.listCharts)
	router.Get("/:id/preview", h.preview)
	router.Delete("/:id", h.deleteChart)
}

func (h *AdminContentHandler) listFiles(c *fiber.Ctx) error {
	files, err := h.service.ListFiles(requestContext(c))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list files")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch files")
	}
	return utils.OK(c, files, "files retrieved", listMeta(len(files)))
}

func (h *AdminContentHandler) fileHistory(c *fiber.Ctx) error {
	page, err := parsePageRequest(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid pagination")
	}
	uploadedBy, err := parseQueryUint(c, "uploadedBy")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid uploadedBy")
	}

	response, err := h.service.FileHistory(requestContext(c), dto.FileHistoryListRequest{PageRequest: page, UploadedBy: uploadedBy})
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to fetch file history")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch file history")
	}

	return c.JSON(response)
}

func (h *AdminContentHandler) download(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	info, err := h.service.Download(requestContext(c), id)
	if err != nil {
		return h.mapError(c, err, "failed to download file")
	}
	return utils.SendSuccess(c, "file retrieved", info)
}

func (h *AdminContentHandler) deleteFile(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	if err := h.service.DeleteFile(requestContext(c), id); err != nil {
		return h.mapError(c, err, "failed to delete file")
	}
	return utils.SendSuccess(c, "file deleted successfully", fiber.Map{"id": id})
}

func (h *AdminContentHandler) listCharts(c *fiber.Ctx) error {
	charts, err := h.service.ListCharts(requestContext(c))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list charts")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch charts")
	}
	return utils.OK(c, charts, "charts retrieved", listMeta(len(charts)))
}

func (h *AdminContentHandler) preview(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	preview, err := h.service.ChartPreview(requestContext(c), id)
	if err != nil {
		return h.mapError(c, err, "failed to fetch chart preview")
	}
	return utils.SendSuccess(c, "chart preview retrieved", preview)
}

func (h *AdminContentHandler) deleteChart(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	if err := h.service.DeleteChart(requestContext(c), id); err != nil {
		return h.mapError(c, err, "failed to delete chart")
	}
	return utils.SendSuccess(c, "chart deleted successfully", fiber.Map{"id": id})
}

func (h *AdminContentHandler) mapError(c *fiber.Ctx, err error, message string) error {
	switch {
	case errors.Is(err, service.ErrFileNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "file not found")
	case errors.Is(err, service.ErrChartNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "chart not found")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(message)
		return utils.SendError(c, fiber.StatusInternalServerError, message)
	}
}
