package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest creates a new client account.
type RegisterRequest struct {
	Email         string           `json:"email" validate:"required,email"`
	Password      string           `json:"password" validate:"required,min=6"`
	FullName      string           `json:"full_name" validate:"required"`
	ContactNumber string           `json:"contact_number" validate:"required"`
	MonthlyIncome *decimal.Decimal `json:"monthly_income,omitempty"`
}

// UpdateProfileRequest edits the caller's account details. Empty fields keep
// the stored value.
type UpdateProfileRequest struct {
	FullName      string           `json:"full_name,omitempty"`
	ContactNumber string           `json:"contact_number,omitempty"`
	MonthlyIncome *decimal.Decimal `json:"monthly_income,omitempty"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issued_at"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	Role     UserRole `json:"role"`
	CC       string   `json:"cc,omitempty"`
}

// JWTClaims represents the JWT payload for access tokens. CC is set only for
// manager tokens and scopes every manager operation to that club.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	CC       string   `json:"cc,omitempty"`
	jwt.RegisteredClaims
}
