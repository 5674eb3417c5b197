package model

import "errors"

var (
	// ErrNotFound is returned by stores when the requested entity is absent,
	// or when a conditional update matched no row.
	ErrNotFound = errors.New("not found")

	ErrDuplicateLogin = errors.New("login already taken")
	ErrDuplicateEmail = errors.New("email already taken")

	// ErrInvalidCode covers unknown, expired and already used one-time codes.
	ErrInvalidCode = errors.New("invalid or expired code")
	// ErrConfirmationRejected is returned when a confirmation resend targets
	// an unknown or already confirmed email.
	ErrConfirmationRejected = errors.New("confirmation rejected")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")

	// ErrTokenReplay means the presented refresh token id no longer matches
	// the current one for its device session.
	ErrTokenReplay = errors.New("refresh token replay")

	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature invalid")
)
