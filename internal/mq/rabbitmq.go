package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jjudge-oj/authsvc/config"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQBackend publishes each channel as a fanout exchange. Every
// subscriber binds its own exclusive queue, so each one sees every event.
type RabbitMQBackend struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	durable  bool
	prefetch int

	mu       sync.Mutex
	declared map[string]bool
}

func NewRabbitMQBackend(cfg config.RabbitMQConfig) (*RabbitMQBackend, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("RABBITMQ_URL is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	if cfg.PrefetchCount > 0 {
		if err := ch.Qos(cfg.PrefetchCount, 0, false); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("set rabbitmq prefetch: %w", err)
		}
	}

	return &RabbitMQBackend{
		conn:     conn,
		ch:       ch,
		durable:  cfg.Durable,
		prefetch: cfg.PrefetchCount,
		declared: make(map[string]bool),
	}, nil
}

// Publish sends data to the channel's exchange, routed by the event type.
func (r *RabbitMQBackend) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if err := r.ensureExchange(channel); err != nil {
		return "", err
	}

	headers := make(amqp.Table, len(attrs))
	for k, v := range attrs {
		headers[k] = v
	}
	mode := amqp.Transient
	if r.durable {
		mode = amqp.Persistent
	}

	id := uuid.NewString()
	err := r.ch.PublishWithContext(ctx, channel, attrs[attrEventType], false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: mode,
		MessageId:    id,
		AppId:        "authsvc",
		Timestamp:    time.Now().UTC(),
		Headers:      headers,
		Body:         data,
	})
	if err != nil {
		return "", fmt.Errorf("publish to %s: %w", channel, err)
	}
	return id, nil
}

// Subscribe binds a private queue to the channel's exchange and delivers
// until ctx is done. A handler error drops the delivery.
func (r *RabbitMQBackend) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if err := r.ensureExchange(channel); err != nil {
		return err
	}

	queue, err := r.ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := r.ch.QueueBind(queue.Name, "", channel, false, nil); err != nil {
		return fmt.Errorf("bind queue to %s: %w", channel, err)
	}

	tag := "authsvc-" + uuid.NewString()
	deliveries, err := r.ch.Consume(queue.Name, tag, false, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", queue.Name, err)
	}
	defer func() {
		_ = r.ch.Cancel(tag, false)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			msg := Message{ID: d.MessageId, Data: d.Body, Attributes: tableToAttributes(d.Headers)}
			if err := handler(ctx, msg); err != nil {
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (r *RabbitMQBackend) Close() error {
	return errors.Join(r.ch.Close(), r.conn.Close())
}

func (r *RabbitMQBackend) ensureExchange(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("rabbitmq exchange name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.declared[name] {
		return nil
	}
	if err := r.ch.ExchangeDeclare(name, amqp.ExchangeFanout, r.durable, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", name, err)
	}
	r.declared[name] = true
	return nil
}

func tableToAttributes(table amqp.Table) map[string]string {
	if len(table) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(table))
	for k, v := range table {
		switch s := v.(type) {
		case string:
			attrs[k] = s
		case []byte:
			attrs[k] = string(s)
		default:
			attrs[k] = fmt.Sprint(v)
		}
	}
	return attrs
}
