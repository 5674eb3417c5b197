package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/blogauth-server/internal/model"
	repo "github.com/dtroode/blogauth-server/internal/repository/postgres"
)

var userColumns = []string{"id", "login", "email", "password_hash", "is_confirmed", "created_at", "updated_at"}

func TestUserRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()
	r := repo.NewUserRepository(mock)
	now := time.Now()
	u := model.User{
		ID:           uuid.New(),
		Login:        "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO users").
			WithArgs(u.ID, u.Login, u.Email, u.PasswordHash, false, u.CreatedAt, u.UpdatedAt).
			WillReturnRows(pgxmock.NewRows(userColumns).
				AddRow(u.ID, u.Login, u.Email, u.PasswordHash, false, now, now))

		saved, err := r.Create(ctx, u)
		require.NoError(t, err)
		assert.Equal(t, u.ID, saved.ID)
		assert.Equal(t, "alice", saved.Login)
		assert.False(t, saved.IsConfirmed)
	})

	t.Run("duplicate login", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO users").
			WithArgs(u.ID, u.Login, u.Email, u.PasswordHash, false, u.CreatedAt, u.UpdatedAt).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_login_lower_idx"})

		_, err := r.Create(ctx, u)
		assert.ErrorIs(t, err, model.ErrDuplicateLogin)
	})

	t.Run("duplicate email", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO users").
			WithArgs(u.ID, u.Login, u.Email, u.PasswordHash, false, u.CreatedAt, u.UpdatedAt).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_lower_idx"})

		_, err := r.Create(ctx, u)
		assert.ErrorIs(t, err, model.ErrDuplicateEmail)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO users").
			WithArgs(u.ID, u.Login, u.Email, u.PasswordHash, false, u.CreatedAt, u.UpdatedAt).
			WillReturnError(errors.New("db error"))

		_, err := r.Create(ctx, u)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create user")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Lookups(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()
	r := repo.NewUserRepository(mock)
	now := time.Now()
	id := uuid.New()
	row := func() *pgxmock.Rows {
		return pgxmock.NewRows(userColumns).AddRow(id, "alice", "alice@example.com", "hash", true, now, now)
	}

	tests := []struct {
		name    string
		pattern string
		arg     any
		call    func() (model.User, error)
	}{
		{
			name:    "by id",
			pattern: "FROM users WHERE id",
			arg:     id,
			call:    func() (model.User, error) { return r.GetByID(ctx, id) },
		},
		{
			name:    "by email",
			pattern: "FROM users WHERE lower.email.",
			arg:     "Alice@Example.com",
			call:    func() (model.User, error) { return r.GetByEmail(ctx, "Alice@Example.com") },
		},
		{
			name:    "by login or email",
			pattern: "OR lower.email.",
			arg:     "alice@example.com",
			call:    func() (model.User, error) { return r.GetByLoginOrEmail(ctx, "alice@example.com") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name+" found", func(t *testing.T) {
			mock.ExpectQuery(tt.pattern).WithArgs(tt.arg).WillReturnRows(row())

			u, err := tt.call()
			require.NoError(t, err)
			assert.Equal(t, id, u.ID)
			assert.True(t, u.IsConfirmed)
		})

		t.Run(tt.name+" not found", func(t *testing.T) {
			mock.ExpectQuery(tt.pattern).WithArgs(tt.arg).WillReturnError(pgx.ErrNoRows)

			_, err := tt.call()
			assert.ErrorIs(t, err, model.ErrNotFound)
		})

		t.Run(tt.name+" database error", func(t *testing.T) {
			mock.ExpectQuery(tt.pattern).WithArgs(tt.arg).WillReturnError(errors.New("db error"))

			_, err := tt.call()
			require.Error(t, err)
			assert.NotErrorIs(t, err, model.ErrNotFound)
		})
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}
