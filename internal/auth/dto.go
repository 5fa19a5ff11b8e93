package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/shelfline/shelfline-backend/pkg/enums"
)

// LoginRequest captures the credentials sent to either portal's login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries the expired access token and its paired refresh token.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// MemberSummary describes the authenticated member returned after login.
type MemberSummary struct {
	ID         uuid.UUID        `json:"id"`
	Email      string           `json:"email"`
	Name       string           `json:"name"`
	USN        string           `json:"usn,omitempty"`
	Branch     string           `json:"branch,omitempty"`
	Department string           `json:"department,omitempty"`
	Role       enums.MemberRole `json:"role"`
}

// LoginResponse contains the token pair and member produced by a successful login.
type LoginResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresAt    time.Time     `json:"expires_at"`
	Member       MemberSummary `json:"member"`
}

// RefreshResponse carries the rotated token pair.
type RefreshResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}
