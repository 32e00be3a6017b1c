package models

import "time"

// Role values for gate accounts
const (
	RoleAdmin = "admin"
	RoleGuard = "guard"
)

// ProtectedUsername is the seed account that can never be deleted
const ProtectedUsername = "admin"

// Credential represents a guard or admin account
type Credential struct {
	ID                int64     `json:"id" db:"id"`
	Username          string    `json:"username" db:"username"`
	PasswordHash      string    `json:"-" db:"password_hash"` // Never expose password hash in JSON
	Role              string    `json:"role" db:"role"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	PasswordChangedAt time.Time `json:"-" db:"password_changed_at"` // tokens issued earlier are rejected
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Success     bool   `json:"success"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// CreateUserRequest represents the request to create a gate account
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,max=64"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

// UpdatePasswordRequest represents the admin password rotation request
type UpdatePasswordRequest struct {
	Password string `json:"password" binding:"required"`
}
