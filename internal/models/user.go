package models

import "time"

// User roles.
const (
	UserRoleUser  = "user"
	UserRoleAdmin = "admin"
)

// User statuses.
const (
	UserStatusActive    = "active"
	UserStatusSuspended = "suspended"
	UserStatusInactive  = "inactive"
)

// User is a registered account that can upload spreadsheets.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255" json:"name"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	Role         string    `gorm:"size:32;not null;default:user;index" json:"role"`
	Phone        string    `gorm:"size:64" json:"phone"`
	Status       string    `gorm:"size:32;not null;default:active" json:"status"`
	LastActive   time.Time `gorm:"index" json:"last_active"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin reports whether the stored role grants admin access.
func (u User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
