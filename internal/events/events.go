// Package events publishes security events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/dtroode/blogauth-server/internal/model"
)

var (
	_ model.EventPublisher = (*KafkaPublisher)(nil)
	_ model.EventPublisher = Noop{}
)

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// payload is the JSON value of a published message.
type payload struct {
	Type     string    `json:"type"`
	UserID   string    `json:"userId"`
	DeviceID string    `json:"deviceId,omitempty"`
	IP       string    `json:"ip,omitempty"`
	At       time.Time `json:"at"`
}

// KafkaPublisher writes events to one topic keyed by user id,
// so events of a user keep their order within a partition.
type KafkaPublisher struct {
	writer  writer
	timeout time.Duration
}

// NewKafkaPublisher creates a synchronous publisher for topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
		},
		timeout: 5 * time.Second,
	}
}

// Publish writes a single event.
func (p *KafkaPublisher) Publish(ctx context.Context, event model.Event) error {
	value, err := json.Marshal(payload{
		Type:     string(event.Type),
		UserID:   event.UserID.String(),
		DeviceID: event.DeviceID,
		IP:       event.IP,
		At:       event.At.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.UserID.String()),
		Value: value,
		Time:  event.At,
	})
	if err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Noop drops every event. Used when no brokers are configured.
type Noop struct{}

// Publish does nothing.
func (Noop) Publish(context.Context, model.Event) error { return nil }
