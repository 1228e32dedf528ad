package dto

import (
	"time"

	"github.com/noah-isme/sheetchart-api/internal/models"
)

// UserResponse serializes a user for the admin panel. The password hash is never included.
type UserResponse struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	Phone      string    `json:"phone"`
	Status     string    `json:"status"`
	LastActive time.Time `json:"lastActive"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// NewUserResponse converts a user model into a DTO.
func NewUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
		Phone:      user.Phone,
		Status:     user.Status,
		LastActive: user.LastActive,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	}
}

// NewUserResponseSlice converts user models into DTOs.
func NewUserResponseSlice(users []models.User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, NewUserResponse(user))
	}
	return responses
}

// UserSummary is the populated uploader/actor reference on files and logs.
type UserSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewUserSummary returns nil when the referenced user no longer exists.
func NewUserSummary(user *models.User) *UserSummary {
	if user == nil || user.ID == 0 {
		return nil
	}
	return &UserSummary{ID: user.ID, Name: user.Name, Email: user.Email}
}

// AdminUserUpdateRequest captures the editable profile fields.
type AdminUserUpdateRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=255"`
	Email *string `json:"email" validate:"omitempty,email"`
	Phone *string `json:"phone" validate:"omitempty,max=64"`
}

// AdminUserRoleRequest changes a user's role.
type AdminUserRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

// AdminUserStatusRequest changes a user's status.
type AdminUserStatusRequest struct {
	Status string `json:"status"`
}
