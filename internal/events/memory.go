package events

import (
	"context"
	"sync"
)

// MemoryBus delivers events synchronously to in-process subscribers. It backs
// tests and deployments that run without a broker.
type MemoryBus struct {
	mu       sync.RWMutex
	handlers []Handler
	closed   bool
}

// NewMemoryBus returns an empty in-process bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

// Publish fans the event out to every subscriber in registration order.
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	closed := b.closed
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	if closed {
		return ErrBusClosed
	}

	for _, handler := range handlers {
		handler(ctx, event)
	}
	return nil
}

// Subscribe registers a handler for all subsequent events.
func (b *MemoryBus) Subscribe(handler Handler) error {
	if handler == nil {
		return ErrNilHandler
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBusClosed
	}
	b.handlers = append(b.handlers, handler)
	return nil
}

// Close drops all subscribers and rejects further publishes.
func (b *MemoryBus) Close() {
	b.mu.Lock()
	b.closed = true
	b.handlers = nil
	b.mu.Unlock()
}
