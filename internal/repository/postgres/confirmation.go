package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/blogauth-server/internal/model"
)

var _ model.ConfirmationStore = (*ConfirmationRepository)(nil)

type ConfirmationRepository struct {
	db DB
}

func NewConfirmationRepository(db DB) *ConfirmationRepository {
	return &ConfirmationRepository{db: db}
}

func (r *ConfirmationRepository) Replace(ctx context.Context, c model.EmailConfirmation) error {
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		// Serializes concurrent resends for the same user.
		var locked uuid.UUID
		err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, c.UserID).Scan(&locked)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrNotFound
			}
			return fmt.Errorf("failed to lock user: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`DELETE FROM email_confirmations WHERE user_id = $1 AND is_used = FALSE`,
			c.UserID,
		); err != nil {
			return fmt.Errorf("failed to drop previous codes: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO email_confirmations (code_hash, user_id, expires_at, is_used, created_at)
			 VALUES ($1, $2, $3, FALSE, $4)`,
			c.CodeHash, c.UserID, c.ExpiresAt, c.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert code: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace confirmation code: %w", err)
	}
	return nil
}

func (r *ConfirmationRepository) Consume(ctx context.Context, codeHash string, now time.Time) (uuid.UUID, error) {
	var userID uuid.UUID
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`UPDATE email_confirmations SET is_used = TRUE
			 WHERE code_hash = $1 AND is_used = FALSE AND expires_at > $2
			 RETURNING user_id`,
			codeHash, now,
		).Scan(&userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrNotFound
			}
			return fmt.Errorf("failed to mark code used: %w", err)
		}

		tag, err := tx.Exec(ctx,
			`UPDATE users SET is_confirmed = TRUE, updated_at = $2
			 WHERE id = $1 AND is_confirmed = FALSE`,
			userID, now,
		)
		if err != nil {
			return fmt.Errorf("failed to confirm user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return model.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return uuid.Nil, model.ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to consume confirmation code: %w", err)
	}
	return userID, nil
}
