package model

import "time"

// Role enumerates the two caller roles.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleCandidate Role = "candidate"
)

// User represents an account, admin or candidate.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LoginRequest is the payload for authenticating a user.
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=1,max=150"`
	Password string `json:"password" binding:"required,min=1"`
}

// CreateUserRequest is the payload for creating a new user.
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=150"`
	Password string `json:"password" binding:"required,min=6"`
	Role     Role   `json:"role" binding:"required,oneof=admin candidate"`
}

// UpdateUserRequest is the payload for updating a user.
type UpdateUserRequest struct {
	Password *string `json:"password" binding:"omitempty,min=6"`
	IsActive *bool   `json:"is_active" binding:"omitempty"`
}
