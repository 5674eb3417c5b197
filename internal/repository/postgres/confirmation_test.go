package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/blogauth-server/internal/model"
	repo "github.com/dtroode/blogauth-server/internal/repository/postgres"
)

func TestConfirmationRepository_Replace(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()
	r := repo.NewConfirmationRepository(mock)
	c := model.EmailConfirmation{
		CodeHash:  "h1",
		UserID:    uuid.New(),
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM users WHERE id = \\$1 FOR UPDATE").
			WithArgs(c.UserID).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(c.UserID))
		mock.ExpectExec("DELETE FROM email_confirmations").
			WithArgs(c.UserID).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mock.ExpectExec("INSERT INTO email_confirmations").
			WithArgs(c.CodeHash, c.UserID, c.ExpiresAt, c.CreatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()

		require.NoError(t, r.Replace(ctx, c))
	})

	t.Run("insert fails", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM users WHERE id = \\$1 FOR UPDATE").
			WithArgs(c.UserID).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(c.UserID))
		mock.ExpectExec("DELETE FROM email_confirmations").
			WithArgs(c.UserID).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
		mock.ExpectExec("INSERT INTO email_confirmations").
			WithArgs(c.CodeHash, c.UserID, c.ExpiresAt, c.CreatedAt).
			WillReturnError(errors.New("db error"))
		mock.ExpectRollback()

		err := r.Replace(ctx, c)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to replace confirmation code")
	})

	t.Run("unknown user", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM users WHERE id = \\$1 FOR UPDATE").
			WithArgs(c.UserID).
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectRollback()

		err := r.Replace(ctx, c)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmationRepository_Consume(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()
	r := repo.NewConfirmationRepository(mock)
	now := time.Now()
	userID := uuid.New()

	t.Run("success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE email_confirmations SET is_used = TRUE").
			WithArgs("h1", now).
			WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(userID))
		mock.ExpectExec("UPDATE users SET is_confirmed = TRUE").
			WithArgs(userID, now).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		got, err := r.Consume(ctx, "h1", now)
		require.NoError(t, err)
		assert.Equal(t, userID, got)
	})

	t.Run("unknown used or expired code", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE email_confirmations SET is_used = TRUE").
			WithArgs("h2", now).
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectRollback()

		_, err := r.Consume(ctx, "h2", now)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("user already confirmed", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE email_confirmations SET is_used = TRUE").
			WithArgs("h3", now).
			WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(userID))
		mock.ExpectExec("UPDATE users SET is_confirmed = TRUE").
			WithArgs(userID, now).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectRollback()

		_, err := r.Consume(ctx, "h3", now)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("begin fails", func(t *testing.T) {
		mock.ExpectBegin().WillReturnError(errors.New("no connection"))

		_, err := r.Consume(ctx, "h4", now)
		require.Error(t, err)
		assert.NotErrorIs(t, err, model.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
