package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/blogauth-server/internal/model"
)

var _ model.RecoveryStore = (*RecoveryRepository)(nil)

type RecoveryRepository struct {
	db DB
}

func NewRecoveryRepository(db DB) *RecoveryRepository {
	return &RecoveryRepository{db: db}
}

func (r *RecoveryRepository) Replace(ctx context.Context, rec model.PasswordRecovery) error {
	const query = `
        INSERT INTO password_recoveries (email, code_hash, expires_at, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (email) DO UPDATE
        SET code_hash = EXCLUDED.code_hash, expires_at = EXCLUDED.expires_at, created_at = EXCLUDED.created_at
    `
	_, err := r.db.Exec(ctx, query, strings.ToLower(rec.Email), rec.CodeHash, rec.ExpiresAt, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to store recovery code: %w", err)
	}
	return nil
}

func (r *RecoveryRepository) Consume(ctx context.Context, codeHash, passwordHash string, now time.Time) (uuid.UUID, error) {
	var userID uuid.UUID
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		var email string
		err := tx.QueryRow(ctx,
			`DELETE FROM password_recoveries WHERE code_hash = $1 AND expires_at > $2 RETURNING email`,
			codeHash, now,
		).Scan(&email)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrNotFound
			}
			return fmt.Errorf("failed to take recovery code: %w", err)
		}

		err = tx.QueryRow(ctx,
			`UPDATE users SET password_hash = $1, updated_at = $2 WHERE lower(email) = lower($3) RETURNING id`,
			passwordHash, now, email,
		).Scan(&userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrNotFound
			}
			return fmt.Errorf("failed to update password: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return uuid.Nil, model.ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to consume recovery code: %w", err)
	}
	return userID, nil
}
