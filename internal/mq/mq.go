package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// Event is an account lifecycle notification. It never carries credentials.
type Event struct {
	Type       string    `json:"type"`
	UserID     int64     `json:"user_id"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

const attrEventType = "event_type"

// MQ wraps a backend with a stable API bound to one channel.
type MQ struct {
	backend Backend
	channel string
}

// New constructs an MQ wrapper that publishes events on channel.
func New(backend Backend, channel string) *MQ {
	return &MQ{backend: backend, channel: channel}
}

// Channel returns the channel events are published on.
func (m *MQ) Channel() string {
	return m.channel
}

// PublishEvent encodes event as JSON and sends it to the channel.
func (m *MQ) PublishEvent(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	_, err = m.backend.Publish(ctx, m.channel, data, map[string]string{attrEventType: event.Type})
	return err
}

// SubscribeEvents decodes each message on the channel and passes it to fn.
// Undecodable messages are acknowledged and dropped.
func (m *MQ) SubscribeEvents(ctx context.Context, fn func(context.Context, Event) error) error {
	return m.backend.Subscribe(ctx, m.channel, func(ctx context.Context, msg Message) error {
		var event Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return nil
		}
		return fn(ctx, event)
	})
}

// Close closes the underlying backend.
func (m *MQ) Close() error {
	return m.backend.Close()
}
