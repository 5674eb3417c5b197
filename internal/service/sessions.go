package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/blogauth-server/internal/model"
)

// Device describes the client a session is opened from.
type Device struct {
	ID    string
	Title string
	IP    string
}

// Sessions manages per-device sessions and the refresh tokens bound to them.
// A session accepts only the refresh token carrying its current token id.
type Sessions struct {
	store      model.SessionStore
	tokens     model.TokenManager
	refreshTTL time.Duration
	now        func() time.Time
	newTokenID func() string
}

func NewSessions(store model.SessionStore, tokens model.TokenManager, refreshTTL time.Duration) *Sessions {
	return &Sessions{
		store:      store,
		tokens:     tokens,
		refreshTTL: refreshTTL,
		now:        time.Now,
		newTokenID: uuid.NewString,
	}
}

// Create opens a session for the device, replacing an existing one with the
// same key, and issues its first token pair.
func (s *Sessions) Create(ctx context.Context, userID uuid.UUID, device Device) (model.TokenPair, error) {
	now := s.now()
	session := model.DeviceSession{
		UserID:         userID,
		DeviceID:       device.ID,
		Title:          device.Title,
		IP:             device.IP,
		CurrentTokenID: s.newTokenID(),
		LastActiveAt:   now,
		ExpiresAt:      now.Add(s.refreshTTL),
		CreatedAt:      now,
	}

	if err := s.store.Upsert(ctx, session); err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to store session: %w", err)
	}

	return s.issue(session.Key(), session.CurrentTokenID, now)
}

// Authenticate parses a refresh token and loads its session. A token whose id
// is not the current one yields ErrTokenReplay.
func (s *Sessions) Authenticate(ctx context.Context, refreshToken string) (model.DeviceSession, error) {
	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return model.DeviceSession{}, err
	}

	session, err := s.store.Get(ctx, model.SessionKey{UserID: claims.UserID, DeviceID: claims.DeviceID})
	if err != nil {
		return model.DeviceSession{}, fmt.Errorf("failed to get session: %w", err)
	}
	if session.CurrentTokenID != claims.TokenID {
		return session, model.ErrTokenReplay
	}

	return session, nil
}

// Rotate exchanges a refresh token for a new pair. Exactly one of concurrent
// calls presenting the same token succeeds; the others get ErrTokenReplay.
// The returned claims identify the session even on failure.
func (s *Sessions) Rotate(ctx context.Context, refreshToken, ip string) (model.TokenPair, model.RefreshClaims, error) {
	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return model.TokenPair{}, model.RefreshClaims{}, err
	}

	now := s.now()
	key := model.SessionKey{UserID: claims.UserID, DeviceID: claims.DeviceID}
	next := model.SessionRotation{
		TokenID:      s.newTokenID(),
		IP:           ip,
		LastActiveAt: now,
		ExpiresAt:    now.Add(s.refreshTTL),
	}

	if err := s.store.Rotate(ctx, key, claims.TokenID, next); err != nil {
		return model.TokenPair{}, claims, fmt.Errorf("failed to rotate session: %w", err)
	}

	pair, err := s.issue(key, next.TokenID, now)
	if err != nil {
		return model.TokenPair{}, claims, err
	}

	return pair, claims, nil
}

// Revoke deletes the session. A missing session yields ErrNotFound.
func (s *Sessions) Revoke(ctx context.Context, key model.SessionKey) error {
	if err := s.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// List returns the live sessions of a user, most recently active first.
func (s *Sessions) List(ctx context.Context, userID uuid.UUID) ([]model.DeviceSession, error) {
	sessions, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// RevokeOthers deletes every session of the user except keepDeviceID.
func (s *Sessions) RevokeOthers(ctx context.Context, userID uuid.UUID, keepDeviceID string) error {
	if err := s.store.DeleteOthers(ctx, userID, keepDeviceID); err != nil {
		return fmt.Errorf("failed to delete other sessions: %w", err)
	}
	return nil
}

// RevokeDevice deletes the caller's session on deviceID. It returns
// ErrNotFound when no live session has that device id and ErrForbidden when
// only other users hold one.
func (s *Sessions) RevokeDevice(ctx context.Context, userID uuid.UUID, deviceID string) error {
	sessions, err := s.store.FindByDeviceID(ctx, deviceID)
	if err != nil {
		return fmt.Errorf("failed to find sessions by device: %w", err)
	}
	if len(sessions) == 0 {
		return model.ErrNotFound
	}

	for _, session := range sessions {
		if session.UserID == userID {
			return s.Revoke(ctx, session.Key())
		}
	}

	return model.ErrForbidden
}

func (s *Sessions) issue(key model.SessionKey, tokenID string, now time.Time) (model.TokenPair, error) {
	access, err := s.tokens.GenerateAccessToken(key.UserID)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to issue access token: %w", err)
	}

	refresh, err := s.tokens.GenerateRefreshToken(model.RefreshClaims{
		UserID:    key.UserID,
		DeviceID:  key.DeviceID,
		TokenID:   tokenID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.refreshTTL),
	})
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	return model.TokenPair{AccessToken: access, RefreshToken: refresh, RefreshTTL: s.refreshTTL}, nil
}

func isAuthFailure(err error) bool {
	return errors.Is(err, model.ErrTokenReplay) ||
		errors.Is(err, model.ErrNotFound) ||
		errors.Is(err, model.ErrTokenExpired) ||
		errors.Is(err, model.ErrTokenMalformed) ||
		errors.Is(err, model.ErrTokenSignature)
}
