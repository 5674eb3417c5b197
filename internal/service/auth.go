package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/blogauth-server/internal/device"
	"github.com/dtroode/blogauth-server/internal/logger"
	"github.com/dtroode/blogauth-server/internal/model"
)

// Auth drives registration, confirmation, login, refresh rotation, logout
// and password recovery on top of Credentials and Sessions.
type Auth struct {
	credentials *Credentials
	sessions    *Sessions
	users       model.UserStore
	tokens      model.TokenManager
	mailer      model.Mailer
	events      model.EventPublisher
	logger      *logger.Logger
	now         func() time.Time
}

func NewAuth(
	credentials *Credentials,
	sessions *Sessions,
	users model.UserStore,
	tokens model.TokenManager,
	mailer model.Mailer,
	events model.EventPublisher,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		credentials: credentials,
		sessions:    sessions,
		users:       users,
		tokens:      tokens,
		mailer:      mailer,
		events:      events,
		logger:      logger,
		now:         time.Now,
	}
}

// Register creates an unconfirmed user and mails a confirmation code.
// Mail delivery failures are logged; the user can ask for a resend.
func (a *Auth) Register(ctx context.Context, in model.RegisterInput) error {
	a.logger.Debug("Auth service: starting user registration",
		"login", in.Login)

	user, err := a.credentials.CreateUser(ctx, in.Login, in.Email, in.Password)
	if err != nil {
		if errors.Is(err, model.ErrDuplicateLogin) || errors.Is(err, model.ErrDuplicateEmail) {
			a.logger.Info("Auth service: registration rejected",
				"login", in.Login,
				"error", err.Error())
			return err
		}
		a.logger.Error("Auth service: failed to create user",
			"login", in.Login,
			"error", err.Error())
		return err
	}

	code, err := a.credentials.IssueConfirmation(ctx, user.ID)
	if err != nil {
		a.logger.Error("Auth service: failed to issue confirmation",
			"user_id", user.ID,
			"error", err.Error())
		return err
	}

	a.send(ctx, model.Mail{Kind: model.MailKindConfirmation, To: user.Email, Code: code}, user.ID)
	a.publish(ctx, model.Event{Type: model.EventUserRegistered, UserID: user.ID})

	a.logger.Info("Auth service: user registered",
		"user_id", user.ID)

	return nil
}

// ConfirmEmail confirms the user owning code. Fails with ErrInvalidCode.
func (a *Auth) ConfirmEmail(ctx context.Context, code string) error {
	userID, err := a.credentials.ConfirmByCode(ctx, code)
	if err != nil {
		if !errors.Is(err, model.ErrInvalidCode) {
			a.logger.Error("Auth service: failed to confirm email",
				"error", err.Error())
		}
		return err
	}

	a.publish(ctx, model.Event{Type: model.EventUserConfirmed, UserID: userID})

	a.logger.Info("Auth service: email confirmed",
		"user_id", userID)

	return nil
}

// ResendConfirmation mails a fresh confirmation code. Fails with
// ErrConfirmationRejected for unknown or already confirmed emails.
func (a *Auth) ResendConfirmation(ctx context.Context, email string) error {
	user, code, err := a.credentials.ResendConfirmation(ctx, email)
	if err != nil {
		if !errors.Is(err, model.ErrConfirmationRejected) {
			a.logger.Error("Auth service: failed to resend confirmation",
				"error", err.Error())
		}
		return err
	}

	a.send(ctx, model.Mail{Kind: model.MailKindConfirmation, To: user.Email, Code: code}, user.ID)

	return nil
}

// Login checks credentials and opens a session for the client device.
// Any credential mismatch yields ErrInvalidCredentials.
func (a *Auth) Login(ctx context.Context, in model.LoginInput) (model.TokenPair, error) {
	user, err := a.credentials.CheckCredentials(ctx, in.LoginOrEmail, in.Password)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			a.logger.Info("Auth service: login rejected",
				"ip", in.IP)
			return model.TokenPair{}, err
		}
		a.logger.Error("Auth service: failed to check credentials",
			"error", err.Error())
		return model.TokenPair{}, err
	}

	dev := Device{
		ID:    device.DeriveDeviceID(in.UserAgent),
		Title: device.Title(in.UserAgent),
		IP:    in.IP,
	}

	pair, err := a.sessions.Create(ctx, user.ID, dev)
	if err != nil {
		a.logger.Error("Auth service: failed to create session",
			"user_id", user.ID,
			"device_id", dev.ID,
			"error", err.Error())
		return model.TokenPair{}, err
	}

	a.publish(ctx, model.Event{Type: model.EventSessionCreated, UserID: user.ID, DeviceID: dev.ID, IP: in.IP})

	a.logger.Info("Auth service: user logged in",
		"user_id", user.ID,
		"device_id", dev.ID)

	return pair, nil
}

// Refresh rotates a refresh token. A replayed token revokes its session, so
// both the legitimate and the replaying client must log in again.
// Every failure surfaces as ErrUnauthorized.
func (a *Auth) Refresh(ctx context.Context, refreshToken, ip string) (model.TokenPair, error) {
	pair, claims, err := a.sessions.Rotate(ctx, refreshToken, ip)
	if err == nil {
		return pair, nil
	}

	if errors.Is(err, model.ErrTokenReplay) {
		a.handleReplay(ctx, model.SessionKey{UserID: claims.UserID, DeviceID: claims.DeviceID}, ip)
		return model.TokenPair{}, model.ErrUnauthorized
	}

	return model.TokenPair{}, a.unauthorized("refresh", err)
}

// Logout revokes the session of a current refresh token.
func (a *Auth) Logout(ctx context.Context, refreshToken string) error {
	session, err := a.sessions.Authenticate(ctx, refreshToken)
	if err != nil {
		return a.unauthorized("logout", err)
	}

	if err := a.sessions.Revoke(ctx, session.Key()); err != nil {
		return a.unauthorized("logout", err)
	}

	a.publish(ctx, model.Event{Type: model.EventSessionRevoked, UserID: session.UserID, DeviceID: session.DeviceID})

	a.logger.Info("Auth service: user logged out",
		"user_id", session.UserID,
		"device_id", session.DeviceID)

	return nil
}

// Me returns the user behind an authenticated request.
func (a *Auth) Me(ctx context.Context, userID uuid.UUID) (model.User, error) {
	user, err := a.users.GetByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return model.User{}, model.ErrUnauthorized
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// PasswordRecovery mails a recovery code when the email is registered.
// The outcome is never reported to the caller.
func (a *Auth) PasswordRecovery(ctx context.Context, email string) error {
	code, ok, err := a.credentials.IssueRecoveryCode(ctx, email)
	if err != nil {
		a.logger.Error("Auth service: failed to issue recovery code",
			"error", err.Error())
		return nil
	}
	if !ok {
		a.logger.Debug("Auth service: recovery requested for unknown email")
		return nil
	}

	a.send(ctx, model.Mail{Kind: model.MailKindRecovery, To: email, Code: code}, uuid.Nil)

	return nil
}

// NewPassword sets a new password using a recovery code. Fails with ErrInvalidCode.
func (a *Auth) NewPassword(ctx context.Context, code, newPassword string) error {
	userID, err := a.credentials.ConsumeRecoveryCode(ctx, code, newPassword)
	if err != nil {
		if !errors.Is(err, model.ErrInvalidCode) {
			a.logger.Error("Auth service: failed to reset password",
				"error", err.Error())
		}
		return err
	}

	a.publish(ctx, model.Event{Type: model.EventPasswordReset, UserID: userID})

	a.logger.Info("Auth service: password reset",
		"user_id", userID)

	return nil
}

// ListDevices returns the live sessions of the refresh token owner.
func (a *Auth) ListDevices(ctx context.Context, refreshToken string) ([]model.DeviceSession, error) {
	session, err := a.sessions.Authenticate(ctx, refreshToken)
	if err != nil {
		return nil, a.unauthorized("list devices", err)
	}

	return a.sessions.List(ctx, session.UserID)
}

// TerminateOtherDevices revokes every session of the caller but the current one.
func (a *Auth) TerminateOtherDevices(ctx context.Context, refreshToken string) error {
	session, err := a.sessions.Authenticate(ctx, refreshToken)
	if err != nil {
		return a.unauthorized("terminate devices", err)
	}

	if err := a.sessions.RevokeOthers(ctx, session.UserID, session.DeviceID); err != nil {
		a.logger.Error("Auth service: failed to terminate other sessions",
			"user_id", session.UserID,
			"error", err.Error())
		return err
	}

	a.logger.Info("Auth service: other sessions terminated",
		"user_id", session.UserID,
		"device_id", session.DeviceID)

	return nil
}

// TerminateDevice revokes the caller's session on deviceID.
// Fails with ErrNotFound or ErrForbidden.
func (a *Auth) TerminateDevice(ctx context.Context, refreshToken, deviceID string) error {
	session, err := a.sessions.Authenticate(ctx, refreshToken)
	if err != nil {
		return a.unauthorized("terminate device", err)
	}

	err = a.sessions.RevokeDevice(ctx, session.UserID, deviceID)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) && !errors.Is(err, model.ErrForbidden) {
			a.logger.Error("Auth service: failed to terminate session",
				"user_id", session.UserID,
				"device_id", deviceID,
				"error", err.Error())
		}
		return err
	}

	a.publish(ctx, model.Event{Type: model.EventSessionRevoked, UserID: session.UserID, DeviceID: deviceID})

	return nil
}

// GetUserID resolves the user of an access token without touching storage.
func (a *Auth) GetUserID(_ context.Context, accessToken string) (uuid.UUID, error) {
	userID, err := a.tokens.ParseAccessToken(accessToken)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", model.ErrUnauthorized, err)
	}
	return userID, nil
}

func (a *Auth) handleReplay(ctx context.Context, key model.SessionKey, ip string) {
	err := a.sessions.Revoke(ctx, key)
	if errors.Is(err, model.ErrNotFound) {
		a.logger.Info("Auth service: refresh for missing session",
			"user_id", key.UserID,
			"device_id", key.DeviceID)
		return
	}
	if err != nil {
		a.logger.Error("Auth service: failed to revoke replayed session",
			"user_id", key.UserID,
			"device_id", key.DeviceID,
			"error", err.Error())
		return
	}

	a.logger.Warn("Auth service: refresh token replay detected, session revoked",
		"user_id", key.UserID,
		"device_id", key.DeviceID,
		"ip", ip)

	a.publish(ctx, model.Event{Type: model.EventSessionReplayDetected, UserID: key.UserID, DeviceID: key.DeviceID, IP: ip})
}

// unauthorized collapses token and session failures into ErrUnauthorized.
// Other errors are logged and returned as is.
func (a *Auth) unauthorized(op string, err error) error {
	if isAuthFailure(err) {
		a.logger.Debug("Auth service: "+op+" rejected",
			"error", err.Error())
		return model.ErrUnauthorized
	}

	a.logger.Error("Auth service: "+op+" failed",
		"error", err.Error())
	return err
}

func (a *Auth) send(ctx context.Context, mail model.Mail, userID uuid.UUID) {
	if err := a.mailer.Send(ctx, mail); err != nil {
		a.logger.Error("Auth service: failed to send mail",
			"kind", string(mail.Kind),
			"user_id", userID,
			"error", err.Error())
	}
}

func (a *Auth) publish(ctx context.Context, event model.Event) {
	if event.At.IsZero() {
		event.At = a.now()
	}
	if err := a.events.Publish(ctx, event); err != nil {
		a.logger.Warn("Auth service: failed to publish event",
			"type", string(event.Type),
			"user_id", event.UserID,
			"error", err.Error())
	}
}
