package service

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/sheetchart-api/internal/dto"
	"github.com/noah-isme/sheetchart-api/internal/models"
	"github.com/noah-isme/sheetchart-api/internal/observability"
	"github.com/noah-isme/sheetchart-api/internal/repository"
)

const xlsxMime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	// ErrUploadMissing indicates the request carried no file.
	ErrUploadMissing = errors.New("no file uploaded")
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the file is not an .xlsx workbook.
	ErrUploadTypeNotAllowed = errors.New("invalid file format")
	// ErrUploadScanFailed indicates the workbook container failed validation.
	ErrUploadScanFailed = errors.New("file scanning failed")
)

// UploadService validates spreadsheet uploads and stores their rows.
type UploadService interface {
	Upload(ctx context.Context, userID uint, file *multipart.FileHeader) (dto.UploadResponse, error)
}

type uploadService struct {
	repo     repository.DatasetRepository
	parser   SheetParser
	realtime RealtimeService
	stats    StatsNotifier
	logger   zerolog.Logger
	maxSize  int64
	now      func() time.Time
	tracer   trace.Tracer
}

// NewUploadService constructs an upload service.
func NewUploadService(repo repository.DatasetRepository, parser SheetParser, realtime RealtimeService, stats StatsNotifier, maxSizeMB int, logger zerolog.Logger) UploadService {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	if parser == nil {
		parser = NewExcelSheetParser()
	}
	return &uploadService{
		repo:     repo,
		parser:   parser,
		realtime: realtime,
		stats:    stats,
		logger:   logger.With().Str("component", "upload_service").Logger(),
		maxSize:  int64(maxSizeMB) * 1024 * 1024,
		now:      time.Now,
		tracer:   otel.Tracer("github.com/noah-isme/sheetchart-api/internal/service/upload"),
	}
}

func (s *uploadService) Upload(ctx context.Context, userID uint, file *multipart.FileHeader) (dto.UploadResponse, error) {
	ctx, span := s.tracer.Start(ctx, "upload.spreadsheet")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("upload.max_bytes", s.maxSize),
		attribute.Int("upload.user_id", int(userID)),
	)

	start := time.Now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	if file == nil {
		span.RecordError(ErrUploadMissing)
		span.SetStatus(codes.Error, "validation failed")
		return dto.UploadResponse{}, ErrUploadMissing
	}

	originalName := filepath.Base(strings.TrimSpace(file.Filename))
	span.SetAttributes(
		attribute.String("upload.original_name", originalName),
		attribute.Int64("upload.request_size", file.Size),
	)

	if !strings.EqualFold(filepath.Ext(originalName), ".xlsx") {
		return dto.UploadResponse{}, s.reject(span, "extension", ErrUploadTypeNotAllowed)
	}

	if file.Size > s.maxSize {
		return dto.UploadResponse{}, s.reject(span, "size", ErrUploadTooLarge)
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return dto.UploadResponse{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return dto.UploadResponse{}, err
	}
	if int64(buf.Len()) > s.maxSize {
		return dto.UploadResponse{}, s.reject(span, "size", ErrUploadTooLarge)
	}

	detected := mimetype.Detect(buf.Bytes())
	span.SetAttributes(attribute.String("upload.detected_mime", detected.String()))
	if !isWorkbook(detected) {
		return dto.UploadResponse{}, s.reject(span, "type", ErrUploadTypeNotAllowed)
	}

	if err := s.scan(buf.Bytes()); err != nil {
		return dto.UploadResponse{}, s.reject(span, "scan", err)
	}

	rows, err := s.parser.Parse(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return dto.UploadResponse{}, s.reject(span, "parse", fmt.Errorf("%w: %v", ErrSpreadsheetUnreadable, err))
	}

	encoded, err := json.Marshal(rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "encode failed")
		return dto.UploadResponse{}, err
	}

	now := s.now()
	dataset := models.Dataset{
		Filename:   originalName,
		UploadedBy: userID,
		Rows:       encoded,
		RowCount:   len(rows),
		FileSize:   int64(buf.Len()),
		UploadedAt: now,
	}
	history := models.FileHistory{
		Filename:   originalName,
		UploadedBy: userID,
		FileSize:   int64(buf.Len()),
		ChartType:  "unknown",
		UploadedAt: now,
	}
	entry := models.UserLog{
		UserID:  userID,
		Action:  models.UserLogActionUpload,
		Details: fmt.Sprintf("Uploaded file %s (%d rows)", originalName, len(rows)),
	}

	if err := s.repo.CreateUpload(ctx, &dataset, &history, &entry); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.UploadResponse{}, err
	}

	span.SetAttributes(attribute.Int("upload.row_count", len(rows)))
	span.SetStatus(codes.Ok, "stored")

	s.logger.Info().
		Str("filename", originalName).
		Int("rows", len(rows)).
		Uint("user_id", userID).
		Msg("spreadsheet uploaded")

	publishLogEntry(ctx, s.realtime, s.logger, entry)
	s.stats.Notify(ctx, StatsSourceUpload)

	return dto.UploadResponse{
		ID:         dataset.ID,
		Filename:   dataset.Filename,
		RowCount:   dataset.RowCount,
		UploadedAt: dataset.UploadedAt,
		Dataset:    dto.ChartDataset{Data: json.RawMessage("null")},
		Message:    "File uploaded successfully",
	}, nil
}

func (s *uploadService) reject(span trace.Span, reason string, err error) error {
	observability.UploadRejected().WithLabelValues(reason).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	return err
}

// scan guards against zip bombs before the workbook is expanded in memory.
func (s *uploadService) scan(payload []byte) error {
	reader, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return ErrUploadScanFailed
	}
	var totalUncompressed uint64
	for _, f := range reader.File {
		totalUncompressed += f.UncompressedSize64
		if totalUncompressed > uint64(s.maxSize*20) {
			return fmt.Errorf("workbook uncompressed size too large: %w", ErrUploadScanFailed)
		}
	}
	return nil
}

func isWorkbook(detected *mimetype.MIME) bool {
	for m := detected; m != nil; m = m.Parent() {
		if m.Is(xlsxMime) || m.Is("application/zip") {
			return true
		}
	}
	return false
}

func publishLogEntry(ctx context.Context, realtime RealtimeService, logger zerolog.Logger, entry models.UserLog) {
	if realtime == nil {
		return
	}
	payload := dto.EntityUpdatePayload{Action: "create", Data: dto.NewUserLogResponse(entry)}
	if err := realtime.Publish(ctx, dto.EventLogUpdate, payload); err != nil {
		logger.Warn().Err(err).Msg("failed to publish log update")
	}
}
