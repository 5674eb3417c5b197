package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/blogauth-server/internal/model"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, timeout: time.Second}
	userID := uuid.New()
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	err := p.Publish(context.Background(), model.Event{
		Type:     model.EventSessionReplayDetected,
		UserID:   userID,
		DeviceID: "d1",
		IP:       "10.0.0.1",
		At:       at,
	})
	require.NoError(t, err)
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, userID.String(), string(msg.Key))

	var got payload
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, payload{Type: "session.replay_detected", UserID: userID.String(), DeviceID: "d1", IP: "10.0.0.1", At: at}, got)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("no leader")}, timeout: time.Second}

	err := p.Publish(context.Background(), model.Event{Type: model.EventUserRegistered, UserID: uuid.New(), At: time.Now()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write event")
}

func TestNoop_Publish(t *testing.T) {
	assert.NoError(t, Noop{}.Publish(context.Background(), model.Event{}))
}
