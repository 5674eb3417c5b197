package model

import "context"

// MailKind enumerates transactional emails.
type MailKind string

const (
	MailKindConfirmation MailKind = "confirmation"
	MailKindRecovery     MailKind = "recovery"
)

// Mail is a transactional message carrying a one-time code.
type Mail struct {
	Kind MailKind
	To   string
	Code string
}

// Mailer delivers transactional emails.
type Mailer interface {
	Send(ctx context.Context, mail Mail) error
}
