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

var sessionColumns = []string{"user_id", "device_id", "title", "ip", "current_token_id", "last_active_at", "expires_at", "created_at"}

func testSession() model.DeviceSession {
	now := time.Now()
	return model.DeviceSession{
		UserID:         uuid.New(),
		DeviceID:       "device-1",
		Title:          "Chrome on Windows 10",
		IP:             "10.0.0.1",
		CurrentTokenID: "tid-1",
		LastActiveAt:   now,
		ExpiresAt:      now.Add(time.Hour),
		CreatedAt:      now,
	}
}

func TestSessionRepository_Upsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewSessionRepository(mock)
	s := testSession()

	mock.ExpectExec("INSERT INTO device_sessions").
		WithArgs(s.UserID, s.DeviceID, s.Title, s.IP, s.CurrentTokenID, s.LastActiveAt, s.ExpiresAt, s.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, r.Upsert(context.Background(), s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()
	r := repo.NewSessionRepository(mock)
	s := testSession()

	mock.ExpectQuery("FROM device_sessions WHERE user_id").
		WithArgs(s.UserID, s.DeviceID).
		WillReturnRows(pgxmock.NewRows(sessionColumns).
			AddRow(s.UserID, s.DeviceID, s.Title, s.IP, s.CurrentTokenID, s.LastActiveAt, s.ExpiresAt, s.CreatedAt))

	got, err := r.Get(ctx, s.Key())
	require.NoError(t, err)
	assert.Equal(t, s.CurrentTokenID, got.CurrentTokenID)
	assert.Equal(t, s.Title, got.Title)

	mock.ExpectQuery("FROM device_sessions WHERE user_id").
		WithArgs(s.UserID, s.DeviceID).
		WillReturnError(pgx.ErrNoRows)

	_, err = r.Get(ctx, s.Key())
	assert.ErrorIs(t, err, model.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Rotate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()
	r := repo.NewSessionRepository(mock)
	s := testSession()
	next := model.SessionRotation{
		TokenID:      "tid-2",
		IP:           "10.0.0.2",
		LastActiveAt: time.Now(),
		ExpiresAt:    time.Now().Add(time.Hour),
	}

	t.Run("current token matches", func(t *testing.T) {
		mock.ExpectExec("UPDATE device_sessions").
			WithArgs(s.UserID, s.DeviceID, "tid-1", next.TokenID, next.IP, next.LastActiveAt, next.ExpiresAt).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, r.Rotate(ctx, s.Key(), "tid-1", next))
	})

	t.Run("stale token is replay", func(t *testing.T) {
		mock.ExpectExec("UPDATE device_sessions").
			WithArgs(s.UserID, s.DeviceID, "tid-1", next.TokenID, next.IP, next.LastActiveAt, next.ExpiresAt).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := r.Rotate(ctx, s.Key(), "tid-1", next)
		assert.ErrorIs(t, err, model.ErrTokenReplay)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectExec("UPDATE device_sessions").
			WithArgs(s.UserID, s.DeviceID, "tid-1", next.TokenID, next.IP, next.LastActiveAt, next.ExpiresAt).
			WillReturnError(errors.New("db error"))

		err := r.Rotate(ctx, s.Key(), "tid-1", next)
		require.Error(t, err)
		assert.NotErrorIs(t, err, model.ErrTokenReplay)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()
	r := repo.NewSessionRepository(mock)
	s := testSession()

	mock.ExpectExec("DELETE FROM device_sessions WHERE user_id = .1 AND device_id = .2").
		WithArgs(s.UserID, s.DeviceID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, r.Delete(ctx, s.Key()))

	mock.ExpectExec("DELETE FROM device_sessions WHERE user_id = .1 AND device_id = .2").
		WithArgs(s.UserID, s.DeviceID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	assert.ErrorIs(t, r.Delete(ctx, s.Key()), model.ErrNotFound)

	mock.ExpectExec("device_id <> .2").
		WithArgs(s.UserID, s.DeviceID).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	require.NoError(t, r.DeleteOthers(ctx, s.UserID, s.DeviceID))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()
	r := repo.NewSessionRepository(mock)
	a := testSession()
	b := testSession()
	b.UserID = a.UserID
	b.DeviceID = "device-2"

	mock.ExpectQuery("WHERE user_id = .1 AND expires_at").
		WithArgs(a.UserID).
		WillReturnRows(pgxmock.NewRows(sessionColumns).
			AddRow(a.UserID, a.DeviceID, a.Title, a.IP, a.CurrentTokenID, a.LastActiveAt, a.ExpiresAt, a.CreatedAt).
			AddRow(b.UserID, b.DeviceID, b.Title, b.IP, b.CurrentTokenID, b.LastActiveAt, b.ExpiresAt, b.CreatedAt))

	list, err := r.ListByUser(ctx, a.UserID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "device-2", list[1].DeviceID)

	mock.ExpectQuery("WHERE device_id = .1 AND expires_at").
		WithArgs("device-1").
		WillReturnRows(pgxmock.NewRows(sessionColumns))

	list, err = r.FindByDeviceID(ctx, "device-1")
	require.NoError(t, err)
	assert.Empty(t, list)

	mock.ExpectQuery("WHERE user_id = .1 AND expires_at").
		WithArgs(a.UserID).
		WillReturnError(errors.New("db error"))

	_, err = r.ListByUser(ctx, a.UserID)
	require.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
