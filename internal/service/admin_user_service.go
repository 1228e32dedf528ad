package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/sheetchart-api/internal/dto"
	"github.com/noah-isme/sheetchart-api/internal/models"
	"github.com/noah-isme/sheetchart-api/internal/repository"
)

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidUserStatus indicates a status outside active/suspended/inactive.
	ErrInvalidUserStatus = errors.New("invalid status")
	// ErrNothingToUpdate indicates an update request without any field set.
	ErrNothingToUpdate = errors.New("no fields to update")
)

// AdminUserService manages user accounts on behalf of administrators.
type AdminUserService interface {
	List(ctx context.Context) ([]dto.UserResponse, error)
	Update(ctx context.Context, id uint, request dto.AdminUserUpdateRequest) (dto.UserResponse, error)
	Delete(ctx context.Context, id uint) error
	UpdateRole(ctx context.Context, id uint, request dto.AdminUserRoleRequest) (dto.UserResponse, error)
	UpdateStatus(ctx context.Context, id uint, request dto.AdminUserStatusRequest) (dto.UserResponse, error)
}

type adminUserService struct {
	repo      repository.UserRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	realtime  RealtimeService
	stats     StatsNotifier
	logger    zerolog.Logger
}

// NewAdminUserService constructs the admin user service.
func NewAdminUserService(repo repository.UserRepository, validate *validator.Validate, realtime RealtimeService, stats StatsNotifier, logger zerolog.Logger) AdminUserService {
	return &adminUserService{
		repo:      repo,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		realtime:  realtime,
		stats:     stats,
		logger:    logger.With().Str("component", "admin_user_service").Logger(),
	}
}

func (s *adminUserService) List(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewUserResponseSlice(users), nil
}

func (s *adminUserService) Update(ctx context.Context, id uint, request dto.AdminUserUpdateRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(request); err != nil {
		return dto.UserResponse{}, err
	}

	updates := make(map[string]interface{})
	if request.Name != nil {
		updates["name"] = strings.TrimSpace(s.sanitizer.Sanitize(*request.Name))
	}
	if request.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*request.Email))
	}
	if request.Phone != nil {
		updates["phone"] = strings.TrimSpace(s.sanitizer.Sanitize(*request.Phone))
	}
	if len(updates) == 0 {
		return dto.UserResponse{}, ErrNothingToUpdate
	}

	user, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return dto.UserResponse{}, mapUserError(err)
	}

	response := dto.NewUserResponse(user)
	s.emit(ctx, dto.EventUserUpdate, "update", response)
	s.stats.Notify(ctx, StatsSourceUserUpdate)

	return response, nil
}

func (s *adminUserService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapUserError(err)
	}

	s.stats.Notify(ctx, StatsSourceUserDelete)
	return nil
}

func (s *adminUserService) UpdateRole(ctx context.Context, id uint, request dto.AdminUserRoleRequest) (dto.UserResponse, error) {
	request.Role = strings.ToLower(strings.TrimSpace(request.Role))
	if err := s.validator.Struct(request); err != nil {
		return dto.UserResponse{}, err
	}

	user, err := s.repo.Update(ctx, id, map[string]interface{}{"role": request.Role})
	if err != nil {
		return dto.UserResponse{}, mapUserError(err)
	}

	s.stats.Notify(ctx, StatsSourceUserRole)
	return dto.NewUserResponse(user), nil
}

func (s *adminUserService) UpdateStatus(ctx context.Context, id uint, request dto.AdminUserStatusRequest) (dto.UserResponse, error) {
	status := strings.ToLower(strings.TrimSpace(request.Status))
	switch status {
	case models.UserStatusActive, models.UserStatusSuspended, models.UserStatusInactive:
	default:
		return dto.UserResponse{}, ErrInvalidUserStatus
	}

	user, err := s.repo.Update(ctx, id, map[string]interface{}{"status": status})
	if err != nil {
		return dto.UserResponse{}, mapUserError(err)
	}

	response := dto.NewUserResponse(user)
	s.emit(ctx, dto.EventUserUpdate, "status", response)
	s.stats.Notify(ctx, StatsSourceUserStatus)

	return response, nil
}

func (s *adminUserService) emit(ctx context.Context, event, action string, data interface{}) {
	if s.realtime == nil {
		return
	}
	if err := s.realtime.Publish(ctx, event, dto.EntityUpdatePayload{Action: action, Data: data}); err != nil {
		s.logger.Warn().Err(err).Str("event", event).Msg("failed to publish realtime event")
	}
}

func mapUserError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}
