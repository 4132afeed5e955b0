package model

import (
	"time"
)

// Role is the coarse-grained identity class of a user.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleFamily  Role = "family"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleFamily, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Email          string    `db:"email" json:"email"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	Role           Role      `db:"role" json:"role"`
	DateOfBirth    time.Time `db:"date_of_birth" json:"date_of_birth"`
	MedicalLicense *string   `db:"medical_license" json:"medical_license,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

type RegisterUserRequest struct {
	Name           string `json:"name" binding:"required,max=30"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=8"`
	DateOfBirth    string `json:"date_of_birth" binding:"required"`
	MedicalLicense string `json:"medical_license,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Role        Role   `json:"role"`
	UserID      int64  `json:"user_id"`
}
