// Package mail delivers one-time codes to users.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/blogauth-server/internal/logger"
	"github.com/dtroode/blogauth-server/internal/model"
)

var (
	_ model.Mailer = (*LogMailer)(nil)
	_ model.Mailer = (*DropMailer)(nil)
)

// LogMailer writes outgoing mail to the log. Used in development.
type LogMailer struct {
	from   string
	logger *logger.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(from string, logger *logger.Logger) *LogMailer {
	return &LogMailer{from: from, logger: logger}
}

// Send logs the message envelope at info level. The code is only written
// at debug level.
func (m *LogMailer) Send(_ context.Context, mail model.Mail) error {
	m.logger.Info("Mailer: message sent",
		"kind", string(mail.Kind),
		"from", m.from,
		"to", mail.To)
	m.logger.Debug("Mailer: message code",
		"kind", string(mail.Kind),
		"to", mail.To,
		"code", mail.Code)
	return nil
}

// message is the document stored in the drop bucket for a relay to pick up.
type message struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"createdAt"`
}

// DropMailer stores each message as a JSON object in an object store
// under outbox/<kind>/<yyyy-mm-dd>/<id>.json.
type DropMailer struct {
	store model.ObjectStore
	from  string
	now   func() time.Time
}

// NewDropMailer creates a DropMailer writing to store.
func NewDropMailer(store model.ObjectStore, from string) *DropMailer {
	return &DropMailer{store: store, from: from, now: time.Now}
}

// Send uploads the message document.
func (m *DropMailer) Send(ctx context.Context, mail model.Mail) error {
	msg := message{
		ID:        uuid.NewString(),
		Kind:      string(mail.Kind),
		From:      m.from,
		To:        mail.To,
		Code:      mail.Code,
		CreatedAt: m.now().UTC(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal mail: %w", err)
	}

	key := fmt.Sprintf("outbox/%s/%s/%s.json", msg.Kind, msg.CreatedAt.Format(time.DateOnly), msg.ID)
	if err := m.store.Put(ctx, key, bytes.NewReader(body), int64(len(body)), "application/json"); err != nil {
		return fmt.Errorf("failed to store mail: %w", err)
	}

	return nil
}
