package model

import (
	"time"

	"github.com/google/uuid"
)

// Role enumerates the user roles in the platform.
type Role string

const (
	RoleTrainee    Role = "TRAINEE"
	RoleInstructor Role = "INSTRUCTOR"
	RoleAdmin      Role = "ADMIN"
)

// User represents a platform account (trainee, instructor, or administrator).
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	// LicenseNumber is the aviation license/certificate number, if any.
	LicenseNumber string    `json:"license_number,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// LoginRequest is the payload for signing in.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// CreateUserRequest is the payload for creating an account.
type CreateUserRequest struct {
	Name          string `json:"name" binding:"required,min=2,max=255"`
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=8,max=72"`
	Role          string `json:"role" binding:"required,oneof=TRAINEE INSTRUCTOR ADMIN"`
	LicenseNumber string `json:"license_number" binding:"omitempty,max=50"`
}

// UpdateUserRequest is the payload for updating an account.
type UpdateUserRequest struct {
	Name          string `json:"name" binding:"omitempty,min=2,max=255"`
	Email         string `json:"email" binding:"omitempty,email"`
	Password      string `json:"password" binding:"omitempty,min=8,max=72"`
	Role          string `json:"role" binding:"omitempty,oneof=TRAINEE INSTRUCTOR ADMIN"`
	LicenseNumber string `json:"license_number" binding:"omitempty,max=50"`
}
