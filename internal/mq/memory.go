package mq

import (
	"context"
	"errors"
	"strconv"
	"sync"
)

// MemoryBackend delivers messages in-process. Published messages are kept so
// late subscribers and tests can observe them.
type MemoryBackend struct {
	mu          sync.Mutex
	nextID      int
	messages    map[string][]Message
	subscribers map[string][]chan Message
	closed      bool
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		messages:    make(map[string][]Message),
		subscribers: make(map[string][]chan Message),
	}
}

func (b *MemoryBackend) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return "", errors.New("memory backend closed")
	}
	b.nextID++
	msg := Message{ID: strconv.Itoa(b.nextID), Data: data, Attributes: attrs}
	b.messages[channel] = append(b.messages[channel], msg)
	for _, sub := range b.subscribers[channel] {
		select {
		case sub <- msg:
		default:
		}
	}
	return msg.ID, nil
}

func (b *MemoryBackend) Subscribe(ctx context.Context, channel string, handler Handler) error {
	sub := make(chan Message, 64)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return errors.New("memory backend closed")
	}
	b.subscribers[channel] = append(b.subscribers[channel], sub)
	b.mu.Unlock()

	defer b.unsubscribe(channel, sub)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-sub:
			_ = handler(ctx, msg)
		}
	}
}

func (b *MemoryBackend) unsubscribe(channel string, sub chan Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[channel]
	for i, s := range subs {
		if s == sub {
			subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(subs) == 0 {
		delete(b.subscribers, channel)
		return
	}
	b.subscribers[channel] = subs
}

// Messages returns a copy of everything published on channel.
func (b *MemoryBackend) Messages(channel string) []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Message(nil), b.messages[channel]...)
}

func (b *MemoryBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
