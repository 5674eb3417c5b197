package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ConfirmationStore persists email confirmation codes. Codes are stored hashed.
type ConfirmationStore interface {
	// Replace drops every unused code of the user and stores the new one.
	Replace(ctx context.Context, confirmation EmailConfirmation) error
	// Consume marks an unused, unexpired code as used and confirms its user
	// in one step. It returns ErrNotFound when no such code exists.
	Consume(ctx context.Context, codeHash string, now time.Time) (uuid.UUID, error)
}

// RecoveryStore persists password recovery codes, one per email.
type RecoveryStore interface {
	// Replace stores the code, superseding any earlier one for the same email.
	Replace(ctx context.Context, recovery PasswordRecovery) error
	// Consume deletes an unexpired code and sets the new password hash of the
	// matching user in one step. It returns ErrNotFound when no such code exists.
	Consume(ctx context.Context, codeHash, passwordHash string, now time.Time) (uuid.UUID, error)
}

// EmailConfirmation is a one-time code that proves email ownership.
type EmailConfirmation struct {
	CodeHash  string
	UserID    uuid.UUID
	ExpiresAt time.Time
	IsUsed    bool
	CreatedAt time.Time
}

// PasswordRecovery is a one-time code that authorizes a password reset.
type PasswordRecovery struct {
	CodeHash  string
	Email     string
	ExpiresAt time.Time
	CreatedAt time.Time
}
