package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/blogauth-server/internal/model"
)

var _ model.SessionStore = (*SessionRepository)(nil)

const sessionColumns = `user_id, device_id, title, ip, current_token_id, last_active_at, expires_at, created_at`

type SessionRepository struct {
	db DB
}

func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Upsert(ctx context.Context, s model.DeviceSession) error {
	const query = `
        INSERT INTO device_sessions (` + sessionColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (user_id, device_id) DO UPDATE
        SET title = EXCLUDED.title,
            ip = EXCLUDED.ip,
            current_token_id = EXCLUDED.current_token_id,
            last_active_at = EXCLUDED.last_active_at,
            expires_at = EXCLUDED.expires_at,
            created_at = EXCLUDED.created_at
    `
	_, err := r.db.Exec(ctx, query,
		s.UserID, s.DeviceID, s.Title, s.IP, s.CurrentTokenID, s.LastActiveAt, s.ExpiresAt, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert device session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, key model.SessionKey) (model.DeviceSession, error) {
	const query = `SELECT ` + sessionColumns + ` FROM device_sessions WHERE user_id = $1 AND device_id = $2`

	s, err := scanSession(r.db.QueryRow(ctx, query, key.UserID, key.DeviceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.DeviceSession{}, model.ErrNotFound
		}
		return model.DeviceSession{}, fmt.Errorf("failed to get device session: %w", err)
	}
	return s, nil
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.DeviceSession, error) {
	const query = `SELECT ` + sessionColumns + ` FROM device_sessions
        WHERE user_id = $1 AND expires_at > NOW()
        ORDER BY last_active_at DESC`
	return r.list(ctx, query, userID)
}

func (r *SessionRepository) FindByDeviceID(ctx context.Context, deviceID string) ([]model.DeviceSession, error) {
	const query = `SELECT ` + sessionColumns + ` FROM device_sessions
        WHERE device_id = $1 AND expires_at > NOW()`
	return r.list(ctx, query, deviceID)
}

func (r *SessionRepository) Rotate(ctx context.Context, key model.SessionKey, expectedTokenID string, next model.SessionRotation) error {
	const query = `
        UPDATE device_sessions
        SET current_token_id = $4, ip = $5, last_active_at = $6, expires_at = $7
        WHERE user_id = $1 AND device_id = $2 AND current_token_id = $3
    `
	tag, err := r.db.Exec(ctx, query,
		key.UserID, key.DeviceID, expectedTokenID,
		next.TokenID, next.IP, next.LastActiveAt, next.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to rotate device session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTokenReplay
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, key model.SessionKey) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM device_sessions WHERE user_id = $1 AND device_id = $2`,
		key.UserID, key.DeviceID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete device session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *SessionRepository) DeleteOthers(ctx context.Context, userID uuid.UUID, keepDeviceID string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM device_sessions WHERE user_id = $1 AND device_id <> $2`,
		userID, keepDeviceID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete other device sessions: %w", err)
	}
	return nil
}

func (r *SessionRepository) list(ctx context.Context, query string, arg any) ([]model.DeviceSession, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list device sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.DeviceSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate device sessions: %w", err)
	}
	return sessions, nil
}

func scanSession(row pgx.Row) (model.DeviceSession, error) {
	var s model.DeviceSession
	err := row.Scan(&s.UserID, &s.DeviceID, &s.Title, &s.IP, &s.CurrentTokenID, &s.LastActiveAt, &s.ExpiresAt, &s.CreatedAt)
	return s, err
}
