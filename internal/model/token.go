package model

import (
	"time"

	"github.com/google/uuid"
)

// TokenManager generates and validates access/refresh tokens.
// Parse failures wrap ErrTokenExpired, ErrTokenMalformed or ErrTokenSignature.
type TokenManager interface {
	GenerateAccessToken(userID uuid.UUID) (string, error)
	GenerateRefreshToken(claims RefreshClaims) (string, error)
	ParseAccessToken(token string) (uuid.UUID, error)
	ParseRefreshToken(token string) (RefreshClaims, error)
}

// RefreshClaims binds a refresh token to a user, a device and a rotation id.
type RefreshClaims struct {
	UserID    uuid.UUID
	DeviceID  string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair is what a successful login or refresh hands to the client.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	RefreshTTL   time.Duration
}
