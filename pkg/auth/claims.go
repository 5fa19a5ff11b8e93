package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/shelfline/shelfline-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	MemberID uuid.UUID
	Email    string
	Name     string
	USN      string
	Role     enums.MemberRole
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to clients. Patron tokens
// carry the USN; admin tokens leave it empty.
type AccessTokenClaims struct {
	MemberID uuid.UUID        `json:"member_id"`
	Email    string           `json:"email"`
	Name     string           `json:"name"`
	USN      string           `json:"usn,omitempty"`
	Role     enums.MemberRole `json:"role"`
	jwt.RegisteredClaims
}
