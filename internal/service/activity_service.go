package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/noah-isme/sheetchart-api/internal/dto"
	"github.com/noah-isme/sheetchart-api/internal/repository"
)

// ActivityService exposes the user activity trail to administrators.
type ActivityService interface {
	List(ctx context.Context, request dto.UserLogListRequest) (dto.PagedResponse, error)
}

type activityService struct {
	repo   repository.ActivityLogRepository
	logger zerolog.Logger
}

// NewActivityService constructs the activity service.
func NewActivityService(repo repository.ActivityLogRepository, logger zerolog.Logger) ActivityService {
	return &activityService{
		repo:   repo,
		logger: logger.With().Str("component", "activity_service").Logger(),
	}
}

func (s *activityService) List(ctx context.Context, request dto.UserLogListRequest) (dto.PagedResponse, error) {
	page := request.PageRequest.Normalize()
	filter := repository.UserLogFilter{Offset: page.Offset(), Limit: page.Limit}
	if request.UserID != 0 {
		userID := request.UserID
		filter.UserID = &userID
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list user logs")
		return dto.PagedResponse{}, err
	}

	items := make([]dto.UserLogResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.NewUserLogResponse(entry))
	}

	return dto.PagedResponse{
		Success:    true,
		Data:       items,
		Pagination: dto.NewPageMeta(page.Page, page.Limit, total),
	}, nil
}
