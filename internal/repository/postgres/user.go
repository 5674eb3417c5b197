package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/blogauth-server/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

const userColumns = `id, login, email, password_hash, is_confirmed, created_at, updated_at`

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	query := `INSERT INTO users (id, login, email, password_hash, is_confirmed, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING ` + userColumns

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	saved, err := scanUser(r.db.QueryRow(ctx, query,
		user.ID, user.Login, user.Email, user.PasswordHash, user.IsConfirmed,
		user.CreatedAt, user.UpdatedAt,
	))
	if err != nil {
		if pgErr, ok := isUniqueViolation(err); ok {
			switch pgErr.ConstraintName {
			case "users_login_lower_idx":
				return model.User{}, model.ErrDuplicateLogin
			case "users_email_lower_idx":
				return model.User{}, model.ErrDuplicateEmail
			}
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return saved, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, "id", query, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return r.getOne(ctx, "email", query, email)
}

func (r *UserRepository) GetByLoginOrEmail(ctx context.Context, loginOrEmail string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
			  WHERE lower(login) = lower($1) OR lower(email) = lower($1)
			  LIMIT 1`
	return r.getOne(ctx, "login or email", query, loginOrEmail)
}

func (r *UserRepository) getOne(ctx context.Context, by, query string, arg any) (model.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by %s: %w", by, err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID, &user.Login, &user.Email, &user.PasswordHash, &user.IsConfirmed,
		&user.CreatedAt, &user.UpdatedAt,
	)
	return user, err
}
