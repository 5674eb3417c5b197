package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionStore persists device sessions keyed by (user, device).
type SessionStore interface {
	// Upsert creates the session or replaces an existing one for the same key.
	Upsert(ctx context.Context, session DeviceSession) error
	Get(ctx context.Context, key SessionKey) (DeviceSession, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]DeviceSession, error)
	FindByDeviceID(ctx context.Context, deviceID string) ([]DeviceSession, error)
	// Rotate swaps the current token id only when it still equals expectedTokenID.
	// It returns ErrTokenReplay otherwise.
	Rotate(ctx context.Context, key SessionKey, expectedTokenID string, next SessionRotation) error
	Delete(ctx context.Context, key SessionKey) error
	DeleteOthers(ctx context.Context, userID uuid.UUID, keepDeviceID string) error
}

// SessionKey identifies a device session.
type SessionKey struct {
	UserID   uuid.UUID
	DeviceID string
}

// DeviceSession is a per-device login of a user.
type DeviceSession struct {
	UserID         uuid.UUID
	DeviceID       string
	Title          string
	IP             string
	CurrentTokenID string
	LastActiveAt   time.Time
	ExpiresAt      time.Time
	CreatedAt      time.Time
}

// Key returns the identity of the session.
func (s DeviceSession) Key() SessionKey {
	return SessionKey{UserID: s.UserID, DeviceID: s.DeviceID}
}

// SessionRotation carries the fields updated by a successful rotation.
type SessionRotation struct {
	TokenID      string
	IP           string
	LastActiveAt time.Time
	ExpiresAt    time.Time
}
