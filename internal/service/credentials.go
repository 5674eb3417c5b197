package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/blogauth-server/internal/codes"
	"github.com/dtroode/blogauth-server/internal/model"
)

// Credentials owns users, email confirmations and password recovery codes.
type Credentials struct {
	users           model.UserStore
	confirmations   model.ConfirmationStore
	recoveries      model.RecoveryStore
	hasher          model.PasswordHasher
	generate        codes.Generator
	confirmationTTL time.Duration
	recoveryTTL     time.Duration
	now             func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// CodeTTL holds lifetimes of one-time codes.
type CodeTTL struct {
	Confirmation time.Duration
	Recovery     time.Duration
}

func NewCredentials(
	users model.UserStore,
	confirmations model.ConfirmationStore,
	recoveries model.RecoveryStore,
	hasher model.PasswordHasher,
	generate codes.Generator,
	ttl CodeTTL,
) *Credentials {
	return &Credentials{
		users:           users,
		confirmations:   confirmations,
		recoveries:      recoveries,
		hasher:          hasher,
		generate:        generate,
		confirmationTTL: ttl.Confirmation,
		recoveryTTL:     ttl.Recovery,
		now:             time.Now,
	}
}

// CreateUser stores a new unconfirmed user. It fails with ErrDuplicateLogin
// or ErrDuplicateEmail when either is taken, compared case-insensitively.
func (c *Credentials) CreateUser(ctx context.Context, login, email, password string) (model.User, error) {
	hash, err := c.hasher.Hash(password)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := c.now()
	user, err := c.users.Create(ctx, model.User{
		ID:           uuid.New(),
		Login:        login,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// IssueConfirmation replaces any unused confirmation code of the user with a new one.
func (c *Credentials) IssueConfirmation(ctx context.Context, userID uuid.UUID) (string, error) {
	code, err := c.generate()
	if err != nil {
		return "", err
	}

	now := c.now()
	err = c.confirmations.Replace(ctx, model.EmailConfirmation{
		CodeHash:  codes.Hash(code),
		UserID:    userID,
		ExpiresAt: now.Add(c.confirmationTTL),
		CreatedAt: now,
	})
	if err != nil {
		return "", fmt.Errorf("failed to store confirmation: %w", err)
	}

	return code, nil
}

// ConfirmByCode confirms the owner of an unused, unexpired code.
// Any miss yields ErrInvalidCode.
func (c *Credentials) ConfirmByCode(ctx context.Context, code string) (uuid.UUID, error) {
	if code == "" {
		return uuid.Nil, model.ErrInvalidCode
	}

	userID, err := c.confirmations.Consume(ctx, codes.Hash(code), c.now())
	if errors.Is(err, model.ErrNotFound) {
		return uuid.Nil, model.ErrInvalidCode
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to consume confirmation: %w", err)
	}

	return userID, nil
}

// ResendConfirmation issues a fresh code for an unconfirmed user.
// Unknown and already confirmed emails yield ErrConfirmationRejected.
func (c *Credentials) ResendConfirmation(ctx context.Context, email string) (model.User, string, error) {
	user, err := c.users.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return model.User{}, "", model.ErrConfirmationRejected
	}
	if err != nil {
		return model.User{}, "", fmt.Errorf("failed to get user by email: %w", err)
	}
	if user.IsConfirmed {
		return model.User{}, "", model.ErrConfirmationRejected
	}

	code, err := c.IssueConfirmation(ctx, user.ID)
	if err != nil {
		return model.User{}, "", err
	}

	return user, code, nil
}

// IssueRecoveryCode creates a recovery code when the email belongs to a user.
// An unknown email is not an error; ok reports whether a code was issued.
func (c *Credentials) IssueRecoveryCode(ctx context.Context, email string) (code string, ok bool, err error) {
	user, err := c.users.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get user by email: %w", err)
	}

	code, err = c.generate()
	if err != nil {
		return "", false, err
	}

	now := c.now()
	err = c.recoveries.Replace(ctx, model.PasswordRecovery{
		CodeHash:  codes.Hash(code),
		Email:     user.Email,
		ExpiresAt: now.Add(c.recoveryTTL),
		CreatedAt: now,
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to store recovery code: %w", err)
	}

	return code, true, nil
}

// ConsumeRecoveryCode sets a new password for the owner of the code and
// invalidates the code. Any miss yields ErrInvalidCode.
func (c *Credentials) ConsumeRecoveryCode(ctx context.Context, code, newPassword string) (uuid.UUID, error) {
	if code == "" {
		return uuid.Nil, model.ErrInvalidCode
	}

	hash, err := c.hasher.Hash(newPassword)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to hash password: %w", err)
	}

	userID, err := c.recoveries.Consume(ctx, codes.Hash(code), hash, c.now())
	if errors.Is(err, model.ErrNotFound) {
		return uuid.Nil, model.ErrInvalidCode
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to consume recovery code: %w", err)
	}

	return userID, nil
}

// CheckCredentials returns the confirmed user matching loginOrEmail and password.
// Every mismatch, including an unconfirmed account, yields ErrInvalidCredentials.
func (c *Credentials) CheckCredentials(ctx context.Context, loginOrEmail, password string) (model.User, error) {
	user, err := c.users.GetByLoginOrEmail(ctx, loginOrEmail)
	if errors.Is(err, model.ErrNotFound) {
		// Pay the same KDF cost as a wrong password for an existing user.
		if dummy := c.dummy(); dummy != "" {
			_, _ = c.hasher.Verify(password, dummy)
		}
		return model.User{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	ok, err := c.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok || !user.IsConfirmed {
		return model.User{}, model.ErrInvalidCredentials
	}

	return user, nil
}

func (c *Credentials) dummy() string {
	c.dummyOnce.Do(func() {
		hash, err := c.hasher.Hash("blogauth-unknown-user")
		if err == nil {
			c.dummyHash = hash
		}
	})
	return c.dummyHash
}
