package models

import (
	"errors"
	"time"
)

// User roles
const (
	RoleUser  = "user"
	RoleAgent = "agent"
	RoleAdmin = "admin"
)

// IsValidRole reports whether role is one of the known roles
func IsValidRole(role string) bool {
	return role == RoleUser || role == RoleAgent || role == RoleAdmin
}

// User represents an account. Tour guides are users with the agent role.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Phone        *string   `json:"phone,omitempty" db:"phone"`
	Role         string    `json:"role" db:"role"`
	Active       bool      `json:"active" db:"active"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// IsTourGuide reports whether the user carries the agent role
func (u *User) IsTourGuide() bool {
	return u.Role == RoleAgent
}

// Workload is the derived request load of a tour guide
type Workload struct {
	TourGuideID       int64 `json:"tour_guide_id" db:"tour_guide_id"`
	TotalRequests     int   `json:"total_requests" db:"total_requests"`
	ActiveRequests    int   `json:"active_requests" db:"active_requests"`
	CompletedRequests int   `json:"completed_requests" db:"completed_requests"`
}

// TourGuideWithWorkload is a guide listing row
type TourGuideWithWorkload struct {
	User
	TotalRequests     int `json:"total_requests" db:"total_requests"`
	ActiveRequests    int `json:"active_requests" db:"active_requests"`
	CompletedRequests int `json:"completed_requests" db:"completed_requests"`
}

// RegisterInput is the payload for account registration
type RegisterInput struct {
	Name     string `json:"name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginInput accepts an email or phone number as identifier
type LoginInput struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// RefreshTokenInput is the payload for refreshing an access token
type RefreshTokenInput struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AuthResponse is returned after login or registration
type AuthResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         *User     `json:"user"`
}

// ErrDuplicate is returned by stores when a unique column already holds the value
var ErrDuplicate = errors.New("duplicate value")
