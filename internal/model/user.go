package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for users.
// Login and email lookups are case-insensitive.
type UserStore interface {
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByLoginOrEmail(ctx context.Context, loginOrEmail string) (User, error)
}

// User represents a registered account.
type User struct {
	ID           uuid.UUID
	Login        string
	Email        string
	PasswordHash string
	IsConfirmed  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}
