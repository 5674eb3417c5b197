package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates security events.
type EventType string

const (
	EventUserRegistered        EventType = "user.registered"
	EventUserConfirmed         EventType = "user.confirmed"
	EventSessionCreated        EventType = "session.created"
	EventSessionReplayDetected EventType = "session.replay_detected"
	EventSessionRevoked        EventType = "session.revoked"
	EventPasswordReset         EventType = "password.reset"
)

// Event is a security-relevant fact emitted by the auth service.
type Event struct {
	Type     EventType
	UserID   uuid.UUID
	DeviceID string
	IP       string
	At       time.Time
}

// EventPublisher ships security events to an external stream.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
