package mq

import (
	"context"
	"fmt"

	"github.com/jjudge-oj/authsvc/config"
)

// Open returns the backend selected by cfg.EventsBackend, or nil for "none".
func Open(ctx context.Context, cfg config.Config) (Backend, error) {
	switch cfg.EventsBackend {
	case config.EventsNone, "":
		return nil, nil
	case config.EventsMemory:
		return NewMemoryBackend(), nil
	case config.EventsRabbitMQ:
		client, err := NewRabbitMQBackend(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.EventsPubSub:
		client, err := NewPubSubBackend(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.EventsBackend)
	}
}
