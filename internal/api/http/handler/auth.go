package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/dtroode/blogauth-server/internal/api/http/cookie"
	"github.com/dtroode/blogauth-server/internal/logger"
	"github.com/dtroode/blogauth-server/internal/model"
	"github.com/dtroode/blogauth-server/internal/validation"
)

// AuthService defines the account and session operations behind /auth.
type AuthService interface {
	Register(ctx context.Context, in model.RegisterInput) error
	ConfirmEmail(ctx context.Context, code string) error
	ResendConfirmation(ctx context.Context, email string) error
	Login(ctx context.Context, in model.LoginInput) (model.TokenPair, error)
	Refresh(ctx context.Context, refreshToken, ip string) (model.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID uuid.UUID) (model.User, error)
	PasswordRecovery(ctx context.Context, email string) error
	NewPassword(ctx context.Context, code, newPassword string) error
}

// ClientIP resolves the client address of a request.
type ClientIP func(r *http.Request) string

// Auth handles the /auth endpoints.
type Auth struct {
	service        AuthService
	validator      *validation.Validator
	cookies        *cookie.Manager
	clientIP       ClientIP
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(
	service AuthService,
	validator *validation.Validator,
	cookies *cookie.Manager,
	clientIP ClientIP,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		service:        service,
		validator:      validator,
		cookies:        cookies,
		clientIP:       clientIP,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Registration creates an account and mails a confirmation code.
func (h *Auth) Registration(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if !decode(w, r, &req) {
		return
	}
	validation.Trim(&req.Login, &req.Email)

	if errs := validation.Run(h.validator.Struct(&req)); len(errs) > 0 {
		writeFieldErrors(w, errs...)
		return
	}

	err := h.service.Register(r.Context(), model.RegisterInput{Login: req.Login, Email: req.Email, Password: req.Password})
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RegistrationConfirmation confirms an email with a code.
func (h *Auth) RegistrationConfirmation(w http.ResponseWriter, r *http.Request) {
	var req confirmationRequest
	if !decode(w, r, &req) {
		return
	}
	validation.Trim(&req.Code)

	if errs := validation.Run(h.validator.Struct(&req)); len(errs) > 0 {
		writeFieldErrors(w, errs...)
		return
	}

	if err := h.service.ConfirmEmail(r.Context(), req.Code); err != nil {
		handleError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RegistrationEmailResending mails a fresh confirmation code.
func (h *Auth) RegistrationEmailResending(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decode(w, r, &req) {
		return
	}
	validation.Trim(&req.Email)

	if errs := validation.Run(h.validator.Struct(&req)); len(errs) > 0 {
		writeFieldErrors(w, errs...)
		return
	}

	if err := h.service.ResendConfirmation(r.Context(), req.Email); err != nil {
		handleError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Login returns an access token and sets the refresh token cookie.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	validation.Trim(&req.LoginOrEmail)

	if errs := validation.Run(h.validator.Struct(&req)); len(errs) > 0 {
		writeFieldErrors(w, errs...)
		return
	}

	pair, err := h.service.Login(r.Context(), model.LoginInput{
		LoginOrEmail: req.LoginOrEmail,
		Password:     req.Password,
		UserAgent:    r.UserAgent(),
		IP:           h.clientIP(r),
	})
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	h.cookies.SetRefreshToken(w, pair.RefreshToken, pair.RefreshTTL)
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken})
}

// RefreshToken rotates the refresh token cookie and returns a new access token.
func (h *Auth) RefreshToken(w http.ResponseWriter, r *http.Request) {
	refreshToken := cookie.RefreshToken(r)
	if refreshToken == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	pair, err := h.service.Refresh(r.Context(), refreshToken, h.clientIP(r))
	if err != nil {
		if errors.Is(err, model.ErrUnauthorized) {
			h.cookies.ClearRefreshToken(w)
		}
		handleError(w, err, h.logger)
		return
	}

	h.cookies.SetRefreshToken(w, pair.RefreshToken, pair.RefreshTTL)
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken})
}

// Logout revokes the current device session and clears the cookie.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	refreshToken := cookie.RefreshToken(r)
	if refreshToken == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if err := h.service.Logout(r.Context(), refreshToken); err != nil {
		handleError(w, err, h.logger)
		return
	}

	h.cookies.ClearRefreshToken(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user.
func (h *Auth) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	user, err := h.service.Me(r.Context(), userID)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{Email: user.Email, Login: user.Login, UserID: user.ID.String()})
}

// PasswordRecovery mails a recovery code. The response does not depend on
// whether the email is registered.
func (h *Auth) PasswordRecovery(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decode(w, r, &req) {
		return
	}
	validation.Trim(&req.Email)

	if errs := validation.Run(h.validator.Struct(&req)); len(errs) > 0 {
		writeFieldErrors(w, errs...)
		return
	}

	if err := h.service.PasswordRecovery(r.Context(), req.Email); err != nil {
		handleError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// NewPassword sets a new password using a recovery code.
func (h *Auth) NewPassword(w http.ResponseWriter, r *http.Request) {
	var req newPasswordRequest
	if !decode(w, r, &req) {
		return
	}
	validation.Trim(&req.RecoveryCode)

	if errs := validation.Run(h.validator.Struct(&req)); len(errs) > 0 {
		writeFieldErrors(w, errs...)
		return
	}

	err := h.service.NewPassword(r.Context(), req.RecoveryCode, req.NewPassword)
	if errors.Is(err, model.ErrInvalidCode) {
		writeFieldErrors(w, validation.FieldError{Message: "recoveryCode is incorrect", Field: "recoveryCode"})
		return
	}
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
