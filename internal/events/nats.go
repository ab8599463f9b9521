package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

var (
	// ErrBusClosed indicates the bus no longer accepts publishes or subscribers.
	ErrBusClosed = errors.New("event bus closed")
	// ErrNilHandler indicates Subscribe was called without a handler.
	ErrNilHandler = errors.New("event handler must not be nil")
)

// subjectPrefix namespaces all platform events on the broker.
const subjectPrefix = "social."

// NatsBus publishes events as JSON messages on a NATS subject per event kind
// and delivers broker messages to local subscribers.
type NatsBus struct {
	nc   *nats.Conn
	subs []*nats.Subscription
}

// ConnectNats dials the broker and wraps the connection in a Bus.
func ConnectNats(url string) (*NatsBus, error) {
	nc, err := nats.Connect(url, nats.Name("inkcircle-backend"))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &NatsBus{nc: nc}, nil
}

// NewNatsBus wraps an existing connection; the caller retains ownership of it.
func NewNatsBus(nc *nats.Conn) *NatsBus {
	return &NatsBus{nc: nc}
}

// Publish marshals the event and sends it to social.<kind>.
func (b *NatsBus) Publish(_ context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.Kind, err)
	}

	if err := b.nc.Publish(subjectPrefix+string(event.Kind), data); err != nil {
		return fmt.Errorf("publish event %s: %w", event.Kind, err)
	}
	return nil
}

// Subscribe registers the handler for every platform event subject. Messages
// that fail to decode are logged and dropped rather than redelivered.
func (b *NatsBus) Subscribe(handler Handler) error {
	if handler == nil {
		return ErrNilHandler
	}

	sub, err := b.nc.Subscribe(subjectPrefix+">", func(msg *nats.Msg) {
		var event Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			slog.Warn("drop undecodable event", "subject", msg.Subject, "error", err)
			return
		}
		if !event.Kind.Valid() {
			slog.Warn("drop event of unknown kind", "subject", msg.Subject, "kind", event.Kind)
			return
		}
		handler(context.Background(), event)
	})
	if err != nil {
		return fmt.Errorf("subscribe to events: %w", err)
	}

	b.subs = append(b.subs, sub)
	return nil
}

// Close drains subscriptions and closes the underlying connection.
func (b *NatsBus) Close() {
	for _, sub := range b.subs {
		_ = sub.Drain()
	}
	b.nc.Close()
}
