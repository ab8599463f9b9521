package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind identifies one of the closed set of domain events the platform emits.
type Kind string

const (
	KindConnectionRequested Kind = "connection.requested"
	KindConnectionAccepted  Kind = "connection.accepted"
	KindNewFollower         Kind = "follower.new"
	KindNewComment          Kind = "comment.new"
	KindNewLike             Kind = "like.new"
)

// Valid reports whether the kind belongs to the closed event set.
func (k Kind) Valid() bool {
	switch k {
	case KindConnectionRequested, KindConnectionAccepted, KindNewFollower, KindNewComment, KindNewLike:
		return true
	}
	return false
}

// Event is a domain occurrence addressed to a single recipient. The ID is
// stable across redelivery so consumers can deduplicate.
type Event struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	ActorID     string    `json:"actor_id"`
	RecipientID string    `json:"recipient_id"`
	BlogID      string    `json:"blog_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// New constructs an event with a fresh ID and the current timestamp.
func New(kind Kind, actorID, recipientID string) Event {
	return Event{
		ID:          uuid.NewString(),
		Kind:        kind,
		ActorID:     actorID,
		RecipientID: recipientID,
		OccurredAt:  time.Now().UTC(),
	}
}

// WithBlog attaches a blog reference to the event.
func (e Event) WithBlog(blogID string) Event {
	e.BlogID = blogID
	return e
}

// Publisher pushes events toward their consumers. Publishing is best-effort
// relative to the operation that raised the event: callers log failures and
// never roll back the triggering write.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Handler processes a delivered event.
type Handler func(ctx context.Context, event Event)

// Bus is a publisher that also delivers events to locally registered
// handlers.
type Bus interface {
	Publisher
	Subscribe(handler Handler) error
	Close()
}
